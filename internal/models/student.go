package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	ID               string     `db:"id" json:"id"`
	NIS              string     `db:"nis" json:"nis"`
	FullName         string     `db:"full_name" json:"full_name"`
	ProgramID        string     `db:"program_id" json:"program_id"`
	HoursCompleted   float64    `db:"hours_completed" json:"hours_completed"`
	HoursScheduled   float64    `db:"hours_scheduled" json:"hours_scheduled"`
	CurrentSAPStatus *SAPStatus `db:"current_sap_status" json:"current_sap_status,omitempty"`
	StatusVersion    int64      `db:"status_version" json:"-"`
	Active           bool       `db:"active" json:"active"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// SAPStatusOrDefault normalises a null stored status to SATISFACTORY. Legacy
// rows created before the compliance engine existed have no status yet.
func (s *Student) SAPStatusOrDefault() SAPStatus {
	if s.CurrentSAPStatus == nil || *s.CurrentSAPStatus == "" {
		return SAPStatusSatisfactory
	}
	return *s.CurrentSAPStatus
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	ProgramID string
	Active    *bool
	Page      int
	PageSize  int
}
