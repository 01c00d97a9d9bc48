package grading

import (
	"testing"
)

func TestGrade(t *testing.T) {
	tests := []struct {
		name     string
		mark     float64
		max      float64
		expected string
	}{
		{"Perfect Score", 100, 100, "A+"},
		{"A+ Lower Bound", 80, 100, "A+"},
		{"Just Below A+", 79, 100, "A"},
		{"A Lower Bound", 70, 100, "A"},
		{"A- Lower Bound", 60, 100, "A-"},
		{"B Lower Bound", 50, 100, "B"},
		{"C Lower Bound", 40, 100, "C"},
		{"D Lower Bound", 33, 100, "D"},
		{"Just Below D", 32.9, 100, "F"},
		{"Zero Score", 0, 100, "F"},
		{"Half Mark Subject A+", 40, 50, "A+"},
		{"Out Of 75 D Bound", 24.75, 75, "D"},
		{"Zero Max", 10, 0, "F"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Compute(tt.mark, tt.max)
			if result.Grade != tt.expected {
				t.Errorf("Expected grade %s, got %s. Reason: %s", tt.expected, result.Grade, result.ComputationReason)
			}
			if Grade(tt.mark, tt.max) != tt.expected {
				t.Errorf("Grade(%v, %v) disagrees with Compute", tt.mark, tt.max)
			}
		})
	}
}

func TestPoints(t *testing.T) {
	tests := []struct {
		grade    string
		expected float64
	}{
		{"A+", 5},
		{"A", 4},
		{"A-", 3.5},
		{"B", 3},
		{"C", 2},
		{"D", 1},
		{"F", 0},
		{"?", 0},
	}

	for _, tt := range tests {
		t.Run(tt.grade, func(t *testing.T) {
			if got := Points(tt.grade); got != tt.expected {
				t.Errorf("Expected %v points, got %v", tt.expected, got)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name      string
		subjects  []Subject
		wantGrade string
		wantGPA   float64
		wantTotal float64
	}{
		{
			name: "All A+",
			subjects: []Subject{
				{"Bangla", 90, 100},
				{"English", 85, 100},
			},
			wantGrade: "A+", wantGPA: 5, wantTotal: 175,
		},
		{
			name: "Mixed",
			subjects: []Subject{
				{"Bangla", 82, 100},
				{"English", 65, 100},
				{"Math", 55, 100},
			},
			wantGrade: "A-", wantGPA: 3.83, wantTotal: 202,
		},
		{
			name: "One Failed Subject",
			subjects: []Subject{
				{"Bangla", 95, 100},
				{"Math", 20, 100},
			},
			wantGrade: "F", wantGPA: 0, wantTotal: 115,
		},
		{
			name:      "No Subjects",
			wantGrade: "F",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.subjects)
			if got.Grade != tt.wantGrade || got.GPA != tt.wantGPA || got.TotalMarks != tt.wantTotal {
				t.Errorf("Expected %s/%.2f/%.0f, got %s/%.2f/%.0f",
					tt.wantGrade, tt.wantGPA, tt.wantTotal, got.Grade, got.GPA, got.TotalMarks)
			}
		})
	}
}

func TestRank(t *testing.T) {
	positions := Rank([]Standing{
		{Key: "a", GPA: 4.5, TotalMarks: 400},
		{Key: "b", GPA: 5.0, TotalMarks: 450},
		{Key: "c", GPA: 4.5, TotalMarks: 400},
		{Key: "d", GPA: 4.5, TotalMarks: 420},
		{Key: "e", GPA: 0, TotalMarks: 300},
	})

	expected := map[string]string{
		"b": "1st",
		"d": "2nd",
		"a": "3rd",
		"c": "3rd",
		"e": "5th",
	}
	for key, want := range expected {
		if positions[key] != want {
			t.Errorf("Student %s: expected %s, got %s", key, want, positions[key])
		}
	}
}

func TestOrdinal(t *testing.T) {
	tests := []struct {
		n        int
		expected string
	}{
		{1, "1st"}, {2, "2nd"}, {3, "3rd"}, {4, "4th"},
		{11, "11th"}, {12, "12th"}, {13, "13th"},
		{21, "21st"}, {22, "22nd"}, {101, "101st"}, {111, "111th"},
	}

	for _, tt := range tests {
		if got := Ordinal(tt.n); got != tt.expected {
			t.Errorf("Ordinal(%d) = %s, want %s", tt.n, got, tt.expected)
		}
	}
}
