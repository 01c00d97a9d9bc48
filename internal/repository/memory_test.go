package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_WithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	studentID := uuid.New()
	boom := errors.New("boom")

	err := repo.WithTx(ctx, func(tx Repository) error {
		n, err := tx.NextVoucher(ctx, "monthly_fees_2025")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		require.NoError(t, tx.SaveMonthlyRecord(ctx, &models.MonthlyFeeRecord{
			Year: 2025, StudentID: studentID, TotalPaid: decimal.NewFromInt(300),
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	last, err := repo.LastVoucher(ctx, "monthly_fees_2025")
	require.NoError(t, err)
	assert.Zero(t, last, "counter must not advance on rollback")

	_, err = repo.GetMonthlyRecord(ctx, studentID, 2025)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_WithTxCommits(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	studentID := uuid.New()

	err := repo.WithTx(ctx, func(tx Repository) error {
		if _, err := tx.NextVoucher(ctx, "exam_fees_x"); err != nil {
			return err
		}
		return tx.SaveExamFeeRecord(ctx, &models.ExamFeeRecord{ExamID: uuid.Nil, StudentID: studentID, VoucherNo: 1})
	})
	require.NoError(t, err)

	last, err := repo.LastVoucher(ctx, "exam_fees_x")
	require.NoError(t, err)
	assert.Equal(t, int64(1), last)

	rec, err := repo.GetExamFeeRecord(ctx, uuid.Nil, studentID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.VoucherNo)
}

func TestMemory_NextVoucherConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	const n = 50

	var wg sync.WaitGroup
	got := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := repo.NextVoucher(ctx, "admission_fees_2025")
			assert.NoError(t, err)
			got <- v
		}()
	}
	wg.Wait()
	close(got)

	seen := make(map[int64]bool, n)
	for v := range got {
		assert.False(t, seen[v], "voucher %d issued twice", v)
		seen[v] = true
	}
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i], "voucher %d missing", i)
	}
}

func TestMemory_MonthlyRecordIsCopied(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	rec := &models.MonthlyFeeRecord{
		Year:      2025,
		StudentID: uuid.New(),
		Months:    models.MonthEntries{"জানুয়ারি": {Status: models.StatusPaid}},
	}
	require.NoError(t, repo.SaveMonthlyRecord(ctx, rec))

	rec.Months["ফেব্রুয়ারি"] = models.MonthEntry{Status: models.StatusPaid}

	stored, err := repo.GetMonthlyRecord(ctx, rec.StudentID, 2025)
	require.NoError(t, err)
	assert.Len(t, stored.Months, 1)
}

func TestMemory_FindStudentsByGuardian(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()

	siblings := []*models.Student{
		{Name: "Rahim", ClassName: "Five", Roll: 2, GuardianEmail: "karim@example.com"},
		{Name: "Rina", ClassName: "Three", Roll: 7, MotherPhone: "01711000000"},
	}
	other := &models.Student{Name: "Other", ClassName: "Five", Roll: 1}
	for _, s := range append(siblings, other) {
		require.NoError(t, repo.CreateStudent(ctx, s))
	}

	found, err := repo.FindStudentsByGuardian(ctx, "KARIM@example.com", "01711000000")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Rahim", found[0].Name)
	assert.Equal(t, "Rina", found[1].Name)

	none, err := repo.FindStudentsByGuardian(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemory_ReceiptKeys(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	key := "req-1"

	first := &models.CollectionReceipt{IdempotencyKey: &key, Scope: "monthly_fees_2025", VoucherNo: 1}
	require.NoError(t, repo.CreateReceipt(ctx, first))

	again := &models.CollectionReceipt{IdempotencyKey: &key, Scope: "monthly_fees_2025", VoucherNo: 2}
	assert.ErrorIs(t, repo.CreateReceipt(ctx, again), ErrDuplicateKey)

	sameVoucher := &models.CollectionReceipt{Scope: "monthly_fees_2025", VoucherNo: 1}
	assert.ErrorIs(t, repo.CreateReceipt(ctx, sameVoucher), ErrDuplicateKey)

	found, err := repo.FindReceiptByKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestMemory_ListReceipts(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	march := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)

	receipts := []models.CollectionReceipt{
		{Category: models.CategoryAdmission, Scope: "admission_fees_2025", VoucherNo: 1, CollectionDate: march},
		{Category: models.CategoryMonthly, Scope: "monthly_fees_2025", VoucherNo: 1, CollectionDate: march},
		{Category: models.CategoryAdmission, Scope: "admission_fees_2025", VoucherNo: 2, CollectionDate: march.AddDate(1, 0, 0)},
	}
	for i := range receipts {
		require.NoError(t, repo.CreateReceipt(ctx, &receipts[i]))
	}

	got, err := repo.ListReceipts(ctx, ReceiptFilter{
		Categories: []string{models.CategoryAdmission},
		From:       time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:         time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, receipts[0].ID, got[0].ID)
}
