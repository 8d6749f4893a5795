package attendance

import (
	"strings"
	"time"
)

// Category classifies a session against what the timetable scheduled.
type Category string

const (
	CategoryNormal Category = "normal"
	CategorySwap   Category = "swap"
	CategoryFree   Category = "free"
)

// Deviates reports whether the category must be written to the swap log.
func (c Category) Deviates() bool {
	return c == CategorySwap || c == CategoryFree
}

// Status is one student's attendance within a session.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
)

// ParseStatus accepts any letter case.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPresent, StatusAbsent, StatusLate:
		return st, true
	}
	return "", false
}

// SwapStatusApproved is the only status a swap log entry ever carries.
const SwapStatusApproved = "approved"

// RoleFaculty is the marker role that may stand in as covering faculty.
const RoleFaculty = "faculty"

// Session is one concrete dated occurrence of a timetable slot. Verified is
// stored for schema compatibility; nothing in this service changes it.
type Session struct {
	ID           string    `json:"id"`
	SlotID       int64     `json:"timetable_id"`
	Date         time.Time `json:"session_date"`
	MarkedBy     string    `json:"marked_by"`
	Category     Category  `json:"session_category"`
	ActualCourse *string   `json:"actual_course_code"`
	Verified     bool      `json:"is_verified_by_faculty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Record is one student's status in a session.
type Record struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	StudentID int64  `json:"student_id"`
	Status    Status `json:"status"`
}

// RecordView is a record joined with the student's directory entry.
type RecordView struct {
	StudentID  int64  `json:"student_id"`
	RollNumber string `json:"roll_number"`
	FullName   string `json:"full_name"`
	Status     Status `json:"status"`
}

// Swap is an audit entry for a substituted or free period.
type Swap struct {
	ID               string    `json:"id"`
	SlotID           int64     `json:"source_timetable_id"`
	ScheduledFaculty int64     `json:"requesting_faculty_id"`
	CoveringFaculty  *int64    `json:"target_faculty_id"`
	Date             time.Time `json:"requested_date"`
	Reason           string    `json:"reason"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// RosterEntry is one line of a marking request.
type RosterEntry struct {
	StudentID int64
	Status    Status
}

// Marker identifies who is marking.
type Marker struct {
	UserID string
	Role   string
}

// MarkRequest is the input of MarkAttendance.
type MarkRequest struct {
	SlotID         int64
	Date           time.Time
	Marker         Marker
	SelectedCourse string
	IsFree         bool
	Roster         []RosterEntry
}

// MarkResult is returned after a successful marking.
type MarkResult struct {
	SessionID string   `json:"session_id"`
	Category  Category `json:"category"`
	Records   int      `json:"records"`
	SwapID    string   `json:"swap_id,omitempty"`
}

// MarkedEvent describes a committed marking to downstream consumers.
type MarkedEvent struct {
	SessionID       string    `json:"session_id"`
	SlotID          int64     `json:"timetable_id"`
	SectionID       int64     `json:"section_id"`
	Semester        int       `json:"semester"`
	Date            time.Time `json:"date"`
	Category        Category  `json:"category"`
	ScheduledCourse string    `json:"scheduled_course"`
	ActualCourse    string    `json:"actual_course,omitempty"`
	SwapReason      string    `json:"swap_reason,omitempty"`
}
