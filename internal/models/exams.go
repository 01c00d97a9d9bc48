package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Exam publication status.
const (
	ExamPublished   = "published"
	ExamUnpublished = "unpublished"
)

// Exam terms. An empty term means the term is inferred from the exam name.
const (
	TermFirst  = "first"
	TermSecond = "second"
	TermFinal  = "final"
)

// Exam is a scheduled examination; Status gates parent access to its results.
type Exam struct {
	BaseModel
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Term      string    `gorm:"type:varchar(20)" json:"term"`
	StartDate time.Time `gorm:"index" json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `gorm:"type:varchar(20);default:'unpublished'" json:"status"`
}

// IsPublished reports whether results of the exam are visible to parents.
func (e *Exam) IsPublished() bool {
	return e.Status == ExamPublished
}

// ExamSheetID builds the "<examId>_<className>" key shared by subjects and results.
func ExamSheetID(examID uuid.UUID, className string) string {
	return fmt.Sprintf("%s_%s", examID, className)
}

// SubjectSpec is one subject of an exam for a class.
type SubjectSpec struct {
	Name    string  `json:"name"`
	MaxMark float64 `json:"maxMark"`
}

// ExamSubjects lists the subjects and their max marks for an exam and class.
type ExamSubjects struct {
	ID        string         `gorm:"type:varchar(200);primaryKey" json:"id"`
	ExamID    uuid.UUID      `gorm:"type:char(36);not null;index" json:"exam_id"`
	ClassName string         `gorm:"type:varchar(100);not null" json:"class_name"`
	Subjects  datatypes.JSON `gorm:"type:json" json:"subjects" swaggertype:"array,object"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (s *ExamSubjects) SubjectList() ([]SubjectSpec, error) {
	var out []SubjectSpec
	if len(s.Subjects) == 0 {
		return out, nil
	}
	err := json.Unmarshal(s.Subjects, &out)
	return out, err
}

func (s *ExamSubjects) SetSubjectList(subjects []SubjectSpec) error {
	raw, err := json.Marshal(subjects)
	if err != nil {
		return err
	}
	s.Subjects = datatypes.JSON(raw)
	return nil
}

// ResultRow is one student's line on a result sheet.
type ResultRow struct {
	StudentID  uuid.UUID          `json:"studentId"`
	Roll       int                `json:"roll"`
	Name       string             `json:"name"`
	Grade      string             `json:"grade"`
	TotalMarks float64            `json:"totalMarks"`
	Marks      map[string]float64 `json:"marks"`
	GPA        float64            `json:"gpa"`
	Position   string             `json:"position"`
	Comment    string             `json:"comment,omitempty"`
}

// ExamResult is the result sheet of a class for an exam.
type ExamResult struct {
	ID        string         `gorm:"type:varchar(200);primaryKey" json:"id"`
	ExamID    uuid.UUID      `gorm:"type:char(36);not null;index" json:"exam_id"`
	ClassName string         `gorm:"type:varchar(100);not null" json:"class_name"`
	Rows      datatypes.JSON `gorm:"type:json" json:"rows" swaggertype:"array,object"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (r *ExamResult) RowList() ([]ResultRow, error) {
	var out []ResultRow
	if len(r.Rows) == 0 {
		return out, nil
	}
	err := json.Unmarshal(r.Rows, &out)
	return out, err
}

func (r *ExamResult) SetRowList(rows []ResultRow) error {
	raw, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	r.Rows = datatypes.JSON(raw)
	return nil
}
