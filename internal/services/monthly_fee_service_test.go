package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/school-system/schoolfees/internal/fees"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/school-system/schoolfees/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthlyRequest(studentID uuid.UUID, month string, paid int64) fees.MonthlyCollection {
	return fees.MonthlyCollection{
		StudentID:      studentID,
		Year:           2025,
		Month:          month,
		PaidAmount:     dec(paid),
		CollectedBy:    "office",
		CollectionDate: day,
	}
}

func TestMonthlyFeeService_CollectAndRecollect(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.feeSettings(t, "Six", 2025, 500)
	st := h.student(t, "101", "Six", 1)

	first, err := h.monthly.Collect(ctx, staff, monthlyRequest(st.ID, "জানুয়ারি", 300))
	require.NoError(t, err)
	assert.False(t, first.Replayed)
	assert.Equal(t, int64(1), first.Receipt.VoucherNo)
	assert.True(t, first.Receipt.Amount.Equal(dec(300)))

	state := first.Ledger.(fees.MonthState)
	assert.Equal(t, models.StatusPaid, state.Status)
	assert.True(t, state.Amount.Equal(dec(300)))
	assert.True(t, state.DonationAmount.Equal(dec(200)))

	second, err := h.monthly.Collect(ctx, staff, monthlyRequest(st.ID, "জানুয়ারি", 500))
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Receipt.VoucherNo)
	assert.True(t, second.Receipt.Amount.Equal(dec(200)), "receipt carries only the added amount")

	rec, err := h.repo.GetMonthlyRecord(ctx, st.ID, 2025)
	require.NoError(t, err)
	assert.True(t, rec.TotalPaid.Equal(dec(500)), "got %s", rec.TotalPaid)
	assert.True(t, rec.TotalDonation.IsZero(), "got %s", rec.TotalDonation)
	assert.Equal(t, int64(2), rec.Months["জানুয়ারি"].VoucherNo)
}

func TestMonthlyFeeService_AcceptsEnglishMonth(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	st := h.student(t, "102", "Six", 2)

	res, err := h.monthly.Collect(ctx, staff, monthlyRequest(st.ID, "March", 500))
	require.NoError(t, err)
	assert.Equal(t, "মার্চ", res.Receipt.Reference)

	view, err := h.monthly.LoadYear(ctx, st.ID, 2025)
	require.NoError(t, err)
	require.Len(t, view.Months, 12)
	assert.Equal(t, models.StatusPaid, view.Months[2].Status)
	assert.Equal(t, models.StatusDue, view.Months[3].Status)
	assert.True(t, view.MonthlyFee.Equal(dec(500)), "falls back to the default fee")
	assert.Equal(t, int64(2), view.NextVoucher)
}

func TestMonthlyFeeService_IdempotentReplay(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	st := h.student(t, "103", "Six", 3)

	req := monthlyRequest(st.ID, "ফেব্রুয়ারি", 500)
	req.IdempotencyKey = "key-1"

	first, err := h.monthly.Collect(ctx, staff, req)
	require.NoError(t, err)
	again, err := h.monthly.Collect(ctx, staff, req)
	require.NoError(t, err)

	assert.True(t, again.Replayed)
	assert.Equal(t, first.Receipt.ID, again.Receipt.ID)
	assert.Equal(t, first.Receipt.VoucherNo, again.Receipt.VoucherNo)

	last, err := h.repo.LastVoucher(ctx, fees.MonthlyScope(2025))
	require.NoError(t, err)
	assert.Equal(t, int64(1), last, "replay must not consume a voucher")

	other := h.student(t, "104", "Six", 4)
	conflicting := monthlyRequest(other.ID, "ফেব্রুয়ারি", 500)
	conflicting.IdempotencyKey = "key-1"
	_, err = h.monthly.Collect(ctx, staff, conflicting)
	assert.ErrorIs(t, err, ErrIdempotencyConflict)
}

func TestMonthlyFeeService_IdempotencyKeyBoundToRequest(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	st := h.student(t, "105", "Six", 5)

	jan := monthlyRequest(st.ID, "জানুয়ারি", 500)
	jan.IdempotencyKey = "k"
	_, err := h.monthly.Collect(ctx, staff, jan)
	require.NoError(t, err)

	english := monthlyRequest(st.ID, "January", 500)
	english.IdempotencyKey = "k"
	again, err := h.monthly.Collect(ctx, staff, english)
	require.NoError(t, err, "the English name of the same month is the same request")
	assert.True(t, again.Replayed)

	march := monthlyRequest(st.ID, "মার্চ", 300)
	march.IdempotencyKey = "k"
	_, err = h.monthly.Collect(ctx, staff, march)
	assert.ErrorIs(t, err, ErrIdempotencyConflict)

	otherAmount := monthlyRequest(st.ID, "জানুয়ারি", 400)
	otherAmount.IdempotencyKey = "k"
	_, err = h.monthly.Collect(ctx, staff, otherAmount)
	assert.ErrorIs(t, err, ErrIdempotencyConflict)

	state, err := h.monthly.LoadMonth(ctx, st.ID, 2025, "মার্চ")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDue, state.Status)

	last, err := h.repo.LastVoucher(ctx, fees.MonthlyScope(2025))
	require.NoError(t, err)
	assert.Equal(t, int64(1), last)
}

func TestMonthlyFeeService_ConcurrentCollectionsGetDistinctVouchers(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	const n = 25
	students := make([]*models.Student, n)
	for i := range students {
		students[i] = h.student(t, fmt.Sprintf("2%02d", i), "Seven", i+1)
	}

	vouchers := make([]int64, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range students {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := h.monthly.Collect(ctx, staff, monthlyRequest(students[i].ID, "এপ্রিল", 500))
			errs[i] = err
			if err == nil {
				vouchers[i] = res.Receipt.VoucherNo
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	sort.Slice(vouchers, func(i, j int) bool { return vouchers[i] < vouchers[j] })
	for i, v := range vouchers {
		assert.Equal(t, int64(i+1), v)
	}
}

func TestMonthlyFeeService_FailedCollectionLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	st := h.student(t, "105", "Six", 5)

	req := monthlyRequest(st.ID, "মে", 500)
	req.CollectedBy = ""
	_, err := h.monthly.Collect(ctx, staff, req)
	require.ErrorIs(t, err, fees.ErrValidation)

	_, err = h.monthly.Collect(ctx, staff, monthlyRequest(uuid.New(), "মে", 500))
	require.ErrorIs(t, err, repository.ErrNotFound)

	last, err := h.repo.LastVoucher(ctx, fees.MonthlyScope(2025))
	require.NoError(t, err)
	assert.Zero(t, last)
	_, err = h.repo.GetMonthlyRecord(ctx, st.ID, 2025)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMonthlyFeeService_Reconcile(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	st := h.student(t, "106", "Six", 6)

	_, err := h.monthly.Collect(ctx, staff, monthlyRequest(st.ID, "জুন", 400))
	require.NoError(t, err)

	rec, err := h.repo.GetMonthlyRecord(ctx, st.ID, 2025)
	require.NoError(t, err)
	rec.TotalPaid = dec(900)
	require.NoError(t, h.repo.SaveMonthlyRecord(ctx, rec))

	drifted, err := h.monthly.Reconcile(ctx, 2025, false)
	require.NoError(t, err)
	require.Len(t, drifted, 1)

	drifted, err = h.monthly.Reconcile(ctx, 2025, true)
	require.NoError(t, err)
	require.Len(t, drifted, 1)
	assert.True(t, drifted[0].TotalPaid.Equal(dec(400)))

	drifted, err = h.monthly.Reconcile(ctx, 2025, false)
	require.NoError(t, err)
	assert.Empty(t, drifted)
}
