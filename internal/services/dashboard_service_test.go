package services

import (
	"context"
	"testing"
	"time"

	"github.com/school-system/schoolfees/internal/events"
	"github.com/school-system/schoolfees/internal/fees"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedDashboard leaves one fully paid student (first) and one untouched student.
func seedDashboard(t *testing.T, h *harness) (paid, unpaid *models.Student) {
	t.Helper()
	ctx := context.Background()
	h.feeSettings(t, "Six", 2025, 500)
	paid = h.student(t, "501", "Six", 1)
	unpaid = h.student(t, "502", "Six", 2)
	exam := h.exam(t, "First Term", time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))

	_, err := h.monthly.Collect(ctx, staff, monthlyRequest(paid.ID, "জানুয়ারি", 500))
	require.NoError(t, err)
	_, err = h.admission.Collect(ctx, staff, admissionRequest(paid.ID, 1000, 400))
	require.NoError(t, err)
	_, err = h.examFees.Collect(ctx, staff, fees.ExamCollection{
		ExamID: exam.ID, StudentID: paid.ID, PaidAmount: dec(200), CollectedBy: "office", CollectionDate: day,
	})
	require.NoError(t, err)
	return paid, unpaid
}

func TestDashboardService_SummaryForStaff(t *testing.T) {
	h := newHarness(t)
	seedDashboard(t, h)

	sum, err := h.dashboard.Summary(context.Background(), staff, 2025)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Students)
	assert.True(t, sum.Monthly.Due.Equal(dec(11500)), "got %s", sum.Monthly.Due)
	assert.True(t, sum.Monthly.Collected.Equal(dec(500)))
	assert.True(t, sum.Admission.Due.Equal(dec(1400)), "unpaid student is fully due, got %s", sum.Admission.Due)
	assert.True(t, sum.Admission.Collected.Equal(dec(1400)))
	assert.True(t, sum.Exam.Due.Equal(dec(200)))
	assert.True(t, sum.TotalDue.Equal(dec(13100)), "got %s", sum.TotalDue)
	assert.True(t, sum.TotalCollected.Equal(dec(2100)), "got %s", sum.TotalCollected)
	assert.True(t, sum.ByMonth[2].Collected.Equal(dec(2100)), "everything was collected in March")
}

func TestDashboardService_ParentSeesOwnChildrenOnly(t *testing.T) {
	h := newHarness(t)
	paid, unpaid := seedDashboard(t, h)

	sum, err := h.dashboard.Summary(context.Background(), parentOf(paid), 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Students)
	assert.True(t, sum.TotalDue.Equal(dec(5500)), "got %s", sum.TotalDue)

	sum, err = h.dashboard.Summary(context.Background(), parentOf(unpaid), 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Students)
	assert.True(t, sum.TotalCollected.IsZero())
	assert.True(t, sum.TotalDue.Equal(dec(7600)), "6000 + 1400 + 200, got %s", sum.TotalDue)

	stranger := Actor{Role: models.RoleParent, Email: "nobody@family.test"}
	sum, err = h.dashboard.Summary(context.Background(), stranger, 2025)
	require.NoError(t, err)
	assert.Zero(t, sum.Students)
	assert.True(t, sum.TotalDue.IsZero())
}

func receive(t *testing.T, ch <-chan events.Change) (events.Change, bool) {
	t.Helper()
	select {
	case c, ok := <-ch:
		return c, ok
	case <-time.After(200 * time.Millisecond):
		return events.Change{}, false
	}
}

func TestDashboardService_WatchFiltersForParents(t *testing.T) {
	h := newHarness(t)
	mine := h.student(t, "601", "Six", 1)
	other := h.student(t, "602", "Six", 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := h.dashboard.Watch(ctx, parentOf(mine), 2025)
	require.NoError(t, err)

	_, err = h.monthly.Collect(context.Background(), staff, monthlyRequest(other.ID, "মে", 500))
	require.NoError(t, err)
	_, ok := receive(t, changes)
	assert.False(t, ok, "changes of other families are not delivered")

	_, err = h.monthly.Collect(context.Background(), staff, monthlyRequest(mine.ID, "মে", 500))
	require.NoError(t, err)
	change, ok := receive(t, changes)
	require.True(t, ok)
	assert.Equal(t, mine.ID, change.StudentID)
	assert.Equal(t, models.CategoryMonthly, change.Category)

	cancel()
	assert.Eventually(t, func() bool { return h.broker.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}

func TestDashboardService_AdmissionDepositsChartedWhenTaken(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.feeSettings(t, "Six", 2025, 500)
	st := h.student(t, "503", "Six", 3)

	feb := admissionRequest(st.ID, 600, 0)
	feb.CollectionDate = time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC)
	_, err := h.admission.Collect(ctx, staff, feb)
	require.NoError(t, err)

	may := admissionRequest(st.ID, 1000, 0)
	may.CollectionDate = time.Date(2025, time.May, 2, 0, 0, 0, 0, time.UTC)
	_, err = h.admission.Collect(ctx, staff, may)
	require.NoError(t, err)

	sum, err := h.dashboard.Summary(ctx, staff, 2025)
	require.NoError(t, err)
	assert.True(t, sum.ByMonth[1].Collected.Equal(dec(600)), "got %s", sum.ByMonth[1].Collected)
	assert.True(t, sum.ByMonth[4].Collected.Equal(dec(400)), "got %s", sum.ByMonth[4].Collected)
	assert.True(t, sum.Admission.Collected.Equal(dec(1000)))
}
