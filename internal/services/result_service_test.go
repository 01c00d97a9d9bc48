package services

import (
	"context"
	"testing"
	"time"

	"github.com/school-system/schoolfees/internal/fees"
	"github.com/school-system/schoolfees/internal/grading"
	"github.com/school-system/schoolfees/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultService_SheetGradesAndRanks(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a := h.student(t, "701", "Eight", 1)
	b := h.student(t, "702", "Eight", 2)
	c := h.student(t, "703", "Eight", 3)
	exam := h.exam(t, "Final Exam", time.Date(2025, time.November, 20, 0, 0, 0, 0, time.UTC))

	require.NoError(t, h.results.SaveSubjects(ctx, staff, exam.ID, "Eight", []models.SubjectSpec{
		{Name: "Bangla", MaxMark: 100},
		{Name: "Math", MaxMark: 100},
	}))

	rows, err := h.results.SaveSheet(ctx, staff, exam.ID, "Eight", []MarkEntry{
		{StudentID: c.ID, Marks: map[string]float64{"Bangla": 20, "Math": 90}},
		{StudentID: b.ID, Marks: map[string]float64{"Bangla": 85, "Math": 90}},
		{StudentID: a.ID, Marks: map[string]float64{"Bangla": 72, "Math": 65}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, a.ID, rows[0].StudentID, "rows are ordered by roll")
	assert.Equal(t, "2nd", rows[0].Position)
	assert.Equal(t, grading.GradeAPlus, rows[1].Grade)
	assert.Equal(t, 5.0, rows[1].GPA)
	assert.Equal(t, "1st", rows[1].Position)
	assert.Equal(t, grading.GradeF, rows[2].Grade, "one failed subject fails the sheet")
	assert.Zero(t, rows[2].GPA)
	assert.Equal(t, "3rd", rows[2].Position)

	_, err = h.results.SaveSheet(ctx, staff, exam.ID, "Eight", []MarkEntry{
		{StudentID: a.ID, Marks: map[string]float64{"Math": 101}},
	})
	assert.ErrorIs(t, err, fees.ErrValidation)
}

func TestResultService_ParentAccess(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	mine := h.student(t, "801", "Nine", 1)
	other := h.student(t, "802", "Nine", 2)
	exam := h.exam(t, "Second Term", time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, h.results.SaveSubjects(ctx, staff, exam.ID, "Nine", []models.SubjectSpec{{Name: "English", MaxMark: 50}}))
	_, err := h.results.SaveSheet(ctx, staff, exam.ID, "Nine", []MarkEntry{
		{StudentID: mine.ID, Marks: map[string]float64{"English": 40}},
		{StudentID: other.ID, Marks: map[string]float64{"English": 30}},
	})
	require.NoError(t, err)

	_, err = h.results.Sheet(ctx, parentOf(mine), exam.ID, "Nine")
	assert.ErrorIs(t, err, ErrResultsUnpublished)

	exams, err := h.exams.List(ctx, parentOf(mine), 2025)
	require.NoError(t, err)
	assert.Empty(t, exams, "parents do not see unpublished exams")

	_, err = h.exams.SetStatus(ctx, staff, exam.ID, models.ExamPublished)
	require.NoError(t, err)

	rows, err := h.results.Sheet(ctx, parentOf(mine), exam.ID, "Nine")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, mine.ID, rows[0].StudentID)

	rows, err = h.results.Sheet(ctx, staff, exam.ID, "Nine")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
