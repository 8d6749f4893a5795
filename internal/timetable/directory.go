package timetable

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"classattend/internal/apperr"
)

// Directory answers read-only timetable and roster lookups.
type Directory struct {
	db *gorm.DB
}

// NewDirectory creates a directory backed by gorm.
func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// ResolveSlot returns one slot by id.
func (d *Directory) ResolveSlot(ctx context.Context, id int64) (Slot, error) {
	var s Slot
	err := d.db.WithContext(ctx).First(&s, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Slot{}, apperr.NotFound("timetable slot %d not found", id)
	}
	if err != nil {
		return Slot{}, apperr.Internal(err, "resolve slot")
	}
	return s, nil
}

// FindSlotsByCourseAndSection returns every slot teaching courseCode to the
// section, any weekday or slot number, lowest id first.
func (d *Directory) FindSlotsByCourseAndSection(ctx context.Context, sectionID int64, courseCode string) ([]Slot, error) {
	var slots []Slot
	err := d.db.WithContext(ctx).
		Where("section_id = ? AND course_code = ?", sectionID, courseCode).
		Order("id").
		Find(&slots).Error
	if err != nil {
		return nil, apperr.Internal(err, "find slots by course")
	}
	return slots, nil
}

// ListSlots returns a section's timetable for a semester with course and
// faculty names, Mon..Sat then slot number.
func (d *Directory) ListSlots(ctx context.Context, sectionID int64, semester int) ([]SlotView, error) {
	var views []SlotView
	err := d.db.WithContext(ctx).
		Table("timetable t").
		Select("t.*, c.course_name, f.faculty_name").
		Joins("JOIN courses c ON t.course_code = c.course_code").
		Joins("JOIN faculty_profiles f ON t.faculty_profile_id = f.id").
		Where("t.section_id = ? AND t.semester = ?", sectionID, semester).
		Order(dayOrderSQL("t.day")).
		Order("t.slot_number").
		Scan(&views).Error
	if err != nil {
		return nil, apperr.Internal(err, "list slots")
	}
	return views, nil
}

// ListSlotsOnDay narrows ListSlots to one weekday.
func (d *Directory) ListSlotsOnDay(ctx context.Context, sectionID int64, semester int, day Weekday) ([]SlotView, error) {
	var views []SlotView
	err := d.db.WithContext(ctx).
		Table("timetable t").
		Select("t.*, c.course_name, f.faculty_name").
		Joins("JOIN courses c ON t.course_code = c.course_code").
		Joins("JOIN faculty_profiles f ON t.faculty_profile_id = f.id").
		Where("t.section_id = ? AND t.semester = ? AND t.day = ?", sectionID, semester, day).
		Order("t.slot_number").
		Scan(&views).Error
	if err != nil {
		return nil, apperr.Internal(err, "list slots on day")
	}
	return views, nil
}

// SectionCourses returns the distinct courses a section is timetabled for in
// a semester, whether or not any session was ever held.
func (d *Directory) SectionCourses(ctx context.Context, sectionID int64, semester int) ([]Course, error) {
	var courses []Course
	err := d.db.WithContext(ctx).
		Table("timetable t").
		Distinct("c.course_code", "c.course_name").
		Joins("JOIN courses c ON t.course_code = c.course_code").
		Where("t.section_id = ? AND t.semester = ?", sectionID, semester).
		Order("c.course_code").
		Scan(&courses).Error
	if err != nil {
		return nil, apperr.Internal(err, "list section courses")
	}
	return courses, nil
}

// SectionStudents returns the section roster ordered by roll number.
func (d *Directory) SectionStudents(ctx context.Context, sectionID int64) ([]Student, error) {
	var students []Student
	err := d.db.WithContext(ctx).
		Where("section_id = ?", sectionID).
		Order("roll_number").
		Find(&students).Error
	if err != nil {
		return nil, apperr.Internal(err, "list section students")
	}
	return students, nil
}

// StudentByRoll resolves a roll number.
func (d *Directory) StudentByRoll(ctx context.Context, roll string) (Student, error) {
	var s Student
	err := d.db.WithContext(ctx).Where("roll_number = ?", roll).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Student{}, apperr.NotFound("student %s not found", roll)
	}
	if err != nil {
		return Student{}, apperr.Internal(err, "resolve student")
	}
	return s, nil
}

// FacultyByUser returns the faculty profile id linked to a login.
func (d *Directory) FacultyByUser(ctx context.Context, userID string) (int64, error) {
	var p FacultyProfile
	err := d.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperr.NotFound("faculty profile for user %s not found", userID)
	}
	if err != nil {
		return 0, apperr.Internal(err, "resolve faculty profile")
	}
	return p.ID, nil
}

// FacultySchedule returns every slot a faculty member teaches, grouped by
// class ("<dept> <batch> (<section>)"), ordered by semester, day and slot.
func (d *Directory) FacultySchedule(ctx context.Context, facultyID int64) ([]ScheduleGroup, error) {
	var entries []ScheduleEntry
	err := d.db.WithContext(ctx).
		Table("timetable t").
		Select(`t.id AS timetable_id, t.day, t.slot_number, t.room_info, t.semester,
			c.course_code, c.course_name,
			CONCAT(dp.dept_code, ' ', b.batch_name, ' (', s.section_name, ')') AS class_title`).
		Joins("JOIN courses c ON t.course_code = c.course_code").
		Joins("JOIN sections s ON t.section_id = s.id").
		Joins("JOIN batches b ON s.batch_id = b.id").
		Joins("JOIN departments dp ON b.dept_id = dp.id").
		Where("t.faculty_profile_id = ?", facultyID).
		Order("t.semester").
		Order(dayOrderSQL("t.day")).
		Order("t.slot_number").
		Scan(&entries).Error
	if err != nil {
		return nil, apperr.Internal(err, "faculty schedule")
	}
	return GroupByTitle(entries), nil
}

func dayOrderSQL(col string) string {
	return fmt.Sprintf(`CASE %s WHEN 'Mon' THEN 1 WHEN 'Tue' THEN 2 WHEN 'Wed' THEN 3
		WHEN 'Thu' THEN 4 WHEN 'Fri' THEN 5 WHEN 'Sat' THEN 6 ELSE 7 END`, col)
}
