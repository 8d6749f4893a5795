// Package timetable is the read-only view of the institution directory: the
// recurring weekly slots plus the student, course and faculty lookups the
// attendance engine needs.
package timetable

// Weekday is the three-letter day label stored on a timetable slot.
type Weekday string

const (
	Mon Weekday = "Mon"
	Tue Weekday = "Tue"
	Wed Weekday = "Wed"
	Thu Weekday = "Thu"
	Fri Weekday = "Fri"
	Sat Weekday = "Sat"
)

// Valid reports whether d is one of the teaching days.
func (d Weekday) Valid() bool {
	switch d {
	case Mon, Tue, Wed, Thu, Fri, Sat:
		return true
	}
	return false
}

// WeekOffset is the number of days from the start of the week used by the
// weekly grid. Sat and unrecognised labels resolve to 0, the same as Mon, so
// a Saturday slot is matched against the Monday date of the requested week.
func (d Weekday) WeekOffset() int {
	switch d {
	case Mon:
		return 0
	case Tue:
		return 1
	case Wed:
		return 2
	case Thu:
		return 3
	case Fri:
		return 4
	default:
		return 0
	}
}

// Order sorts Mon..Sat first and anything else last.
func (d Weekday) Order() int {
	switch d {
	case Mon:
		return 1
	case Tue:
		return 2
	case Wed:
		return 3
	case Thu:
		return 4
	case Fri:
		return 5
	case Sat:
		return 6
	default:
		return 7
	}
}

// Slot is a recurring weekly commitment.
type Slot struct {
	ID         int64   `gorm:"column:id;primaryKey" json:"id"`
	SectionID  int64   `gorm:"column:section_id" json:"section_id"`
	Semester   int     `gorm:"column:semester" json:"semester"`
	Day        Weekday `gorm:"column:day" json:"day"`
	SlotNumber int     `gorm:"column:slot_number" json:"slot_number"`
	CourseCode string  `gorm:"column:course_code" json:"course_code"`
	FacultyID  int64   `gorm:"column:faculty_profile_id" json:"faculty_id"`
	Room       string  `gorm:"column:room_info" json:"room"`
}

func (Slot) TableName() string { return "timetable" }

// SlotView is a slot joined with its course and faculty names.
type SlotView struct {
	Slot
	CourseName  string `gorm:"column:course_name" json:"course_name"`
	FacultyName string `gorm:"column:faculty_name" json:"faculty_name"`
}

// Student is a directory student.
type Student struct {
	ID         int64  `gorm:"column:id;primaryKey" json:"id"`
	RollNumber string `gorm:"column:roll_number" json:"roll_number"`
	FullName   string `gorm:"column:full_name" json:"full_name"`
	SectionID  int64  `gorm:"column:section_id" json:"section_id"`
}

func (Student) TableName() string { return "students" }

// Course is a directory course.
type Course struct {
	Code string `gorm:"column:course_code;primaryKey" json:"course_code"`
	Name string `gorm:"column:course_name" json:"course_name"`
}

func (Course) TableName() string { return "courses" }

// FacultyProfile links a login to a teaching identity.
type FacultyProfile struct {
	ID     int64   `gorm:"column:id;primaryKey" json:"id"`
	UserID *string `gorm:"column:user_id" json:"user_id,omitempty"`
	Name   string  `gorm:"column:faculty_name" json:"faculty_name"`
}

func (FacultyProfile) TableName() string { return "faculty_profiles" }

// ScheduleEntry is one slot in a faculty schedule, tagged with the class it
// belongs to.
type ScheduleEntry struct {
	SlotID     int64   `gorm:"column:timetable_id" json:"timetable_id"`
	Day        Weekday `gorm:"column:day" json:"day"`
	SlotNumber int     `gorm:"column:slot_number" json:"slot_number"`
	Room       string  `gorm:"column:room_info" json:"room"`
	Semester   int     `gorm:"column:semester" json:"semester"`
	CourseCode string  `gorm:"column:course_code" json:"course_code"`
	CourseName string  `gorm:"column:course_name" json:"course_name"`
	ClassTitle string  `gorm:"column:class_title" json:"-"`
}
