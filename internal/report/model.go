// Package report aggregates attendance sessions and records into the
// per-student, per-section, weekly, monthly and daily views.
package report

import (
	"math"
	"time"

	"classattend/internal/attendance"
	"classattend/internal/timetable"
)

// Policy decides which record statuses count as attended.
type Policy int

const (
	// PresentOnly is used by the semester and section reports.
	PresentOnly Policy = iota
	// PresentOrLate is used by the monthly grid and its overall figures.
	PresentOrLate
)

// Attended reports whether st counts towards the numerator under p.
func (p Policy) Attended(st attendance.Status) bool {
	switch p {
	case PresentOrLate:
		return st == attendance.StatusPresent || st == attendance.StatusLate
	default:
		return st == attendance.StatusPresent
	}
}

// Percentage returns attended/total*100 rounded half away from zero to the
// given number of decimal places. A zero total yields 0.
func Percentage(attended, total, places int) float64 {
	if total <= 0 {
		return 0
	}
	scale := math.Pow(10, float64(places))
	return math.Round(float64(attended)/float64(total)*100*scale) / scale
}

// StatusUnmarked fills monthly grid cells that have a session but no record
// for the student. It is never stored.
const StatusUnmarked attendance.Status = "unmarked"

// AllCourses disables the course filter of the section report.
const AllCourses = "ALL"

// SessionFact is a session joined with its slot.
type SessionFact struct {
	ID               string
	SlotID           int64
	Date             time.Time
	Day              timetable.Weekday
	SlotNumber       int
	Category         attendance.Category
	ActualCourse     string
	ActualCourseName string
	Verified         bool
}

// RecordFact is one stored record.
type RecordFact struct {
	SessionID string
	StudentID int64
	Status    attendance.Status
}

// SessionQuery selects sessions of a section's slots in one semester.
type SessionQuery struct {
	SectionID   int64
	Semester    int
	Course      string
	Window      timetable.DateRange
	IncludeFree bool
}

// CourseSummary is one line of a student's semester report.
type CourseSummary struct {
	CourseCode string  `json:"course_code"`
	CourseName string  `json:"course_name"`
	Total      int     `json:"total_classes"`
	Attended   int     `json:"attended_classes"`
	Percentage float64 `json:"attendance_percentage"`
}

// SectionRow is one student × course cell of the section report.
type SectionRow struct {
	StudentID  int64   `json:"student_id"`
	RollNumber string  `json:"roll_number"`
	FullName   string  `json:"full_name"`
	CourseCode string  `json:"course_code"`
	Subject    string  `json:"subject"`
	Total      int     `json:"total"`
	Attended   int     `json:"attended"`
	Percentage float64 `json:"percentage"`
}

// WeekCell is one timetable slot placed on its date within a week.
type WeekCell struct {
	SlotID           int64                `json:"timetable_id"`
	Day              timetable.Weekday    `json:"day"`
	Date             time.Time            `json:"date"`
	SlotNumber       int                  `json:"slot_number"`
	Room             string               `json:"room"`
	ScheduledCourse  string               `json:"course_code"`
	CourseName       string               `json:"course_name"`
	FacultyName      string               `json:"faculty_name"`
	SessionID        *string              `json:"session_id"`
	Category         *attendance.Category `json:"session_category"`
	ActualCourse     *string              `json:"actual_course_code"`
	ActualCourseName *string              `json:"actual_course_name"`
}

// MonthCell is one session column of a student's monthly row.
type MonthCell struct {
	Date   time.Time         `json:"date"`
	Slot   int               `json:"slot"`
	Status attendance.Status `json:"status"`
}

// MonthRow is one student's line of the monthly grid.
type MonthRow struct {
	StudentID         int64       `json:"student_id"`
	RollNumber        string      `json:"roll_number"`
	FullName          string      `json:"full_name"`
	Records           []MonthCell `json:"records"`
	MonthlyAttended   int         `json:"monthly_attended"`
	MonthlyTotal      int         `json:"monthly_total"`
	MonthlyPercentage float64     `json:"monthly_percentage"`
	OverallAttended   int         `json:"overall_attended"`
	OverallTotal      int         `json:"overall_total"`
	OverallPercentage float64     `json:"overall_percentage"`
}

// DayRow is one slot of the daily overview.
type DayRow struct {
	SlotID           int64                `json:"timetable_id"`
	SlotNumber       int                  `json:"slot_number"`
	ScheduledCourse  string               `json:"course_code"`
	CourseName       string               `json:"scheduled_course_name"`
	FacultyName      string               `json:"faculty_name"`
	SessionID        *string              `json:"session_id"`
	Category         *attendance.Category `json:"session_category"`
	Verified         *bool                `json:"is_verified_by_faculty"`
	ActualCourse     *string              `json:"actual_course_code"`
	ActualCourseName *string              `json:"actual_course_name"`
	Present          int                  `json:"present_count"`
	Absent           int                  `json:"absent_count"`
	Total            int                  `json:"total_count"`
}
