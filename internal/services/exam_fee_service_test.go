package services

import (
	"context"
	"testing"
	"time"

	"github.com/school-system/schoolfees/internal/fees"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestExamFeeService_Collect(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.feeSettings(t, "Six", 2025, 500)
	st := h.student(t, "401", "Six", 1)
	exam := h.exam(t, "First Term Examination", time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC))

	view, err := h.examFees.Load(ctx, exam.ID, st.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TermFirst, view.Term)
	assert.True(t, view.Due.Equal(dec(200)))

	res, err := h.examFees.Collect(ctx, staff, fees.ExamCollection{
		ExamID:         exam.ID,
		StudentID:      st.ID,
		PaidAmount:     dec(150),
		Discount:       dec(50),
		CollectedBy:    "office",
		CollectionDate: day,
	})
	require.NoError(t, err)
	assert.Equal(t, fees.ExamScope(exam.ID), res.Receipt.Scope)
	assert.Equal(t, 2025, res.Receipt.Year)

	view = res.Ledger.(fees.ExamFeeView)
	assert.True(t, view.Due.IsZero(), "got %s", view.Due)
	assert.True(t, view.PaidAmount.Equal(dec(150)))
}

func TestExamFeeService_VouchersArePerExam(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	st := h.student(t, "402", "Six", 2)
	first := h.exam(t, "1st Term", time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))
	final := h.exam(t, "Final", time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC))

	for _, e := range []*models.Exam{first, final} {
		res, err := h.examFees.Collect(ctx, staff, fees.ExamCollection{
			ExamID: e.ID, StudentID: st.ID, PaidAmount: dec(100), CollectedBy: "office", CollectionDate: day,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Receipt.VoucherNo, "each exam has its own counter")
	}
}

func TestExamFeeService_UnknownTermCostsNothing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.feeSettings(t, "Six", 2025, 500)
	st := h.student(t, "403", "Six", 3)
	exam := h.exam(t, "Class Test", time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC))

	view, err := h.examFees.Load(ctx, exam.ID, st.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Term)
	assert.True(t, view.Fee.IsZero())
	assert.True(t, view.Due.IsZero())
}

func TestExamFeeService_UnknownTermWarnsOnCollectOnly(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.feeSettings(t, "Six", 2025, 500)
	st := h.student(t, "404", "Six", 4)
	exam := h.exam(t, "Class Test", time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC))

	core, logs := observer.New(zapcore.WarnLevel)
	collector := NewCollector(h.repo, h.broker, h.audit, zap.NewNop())
	examFees := NewExamFeeService(h.repo, h.settings, collector, zap.New(core))

	for i := 0; i < 3; i++ {
		_, err := examFees.Load(ctx, exam.ID, st.ID)
		require.NoError(t, err)
	}
	assert.Zero(t, logs.Len(), "loads do not warn")

	_, err := examFees.Collect(ctx, staff, fees.ExamCollection{
		ExamID: exam.ID, StudentID: st.ID, CollectedBy: "office", CollectionDate: day,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("exam term could not be determined, no fee charged").Len())
}
