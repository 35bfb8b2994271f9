package models

import "time"

// ClockCategory classifies attendance hours.
type ClockCategory string

const (
	ClockCategoryTheory    ClockCategory = "THEORY"
	ClockCategoryPractical ClockCategory = "PRACTICAL"
)

// Valid returns true when the category is a supported value.
func (c ClockCategory) Valid() bool {
	switch c {
	case ClockCategoryTheory, ClockCategoryPractical:
		return true
	default:
		return false
	}
}

// ClockEvent represents a completed clock-in/clock-out pair for one session.
type ClockEvent struct {
	ID        string        `db:"id" json:"id"`
	StudentID string        `db:"student_id" json:"student_id"`
	Date      time.Time     `db:"date" json:"date"`
	Category  ClockCategory `db:"category" json:"category"`
	ClockIn   time.Time     `db:"clock_in" json:"clock_in"`
	ClockOut  time.Time     `db:"clock_out" json:"clock_out"`
	Hours     float64       `db:"hours" json:"hours"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// AttendanceSummary aggregates ledger hours per category for a student.
type AttendanceSummary struct {
	TheoryHours    float64 `db:"theory_hours" json:"theory_hours"`
	PracticalHours float64 `db:"practical_hours" json:"practical_hours"`
	TotalHours     float64 `db:"total_hours" json:"total_hours"`
}
