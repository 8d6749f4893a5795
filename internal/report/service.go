package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"classattend/internal/apperr"
	"classattend/internal/logging"
	"classattend/internal/metrics"
	"classattend/internal/timetable"
)

// Source reads raw sessions and records.
type Source interface {
	Sessions(ctx context.Context, q SessionQuery) ([]SessionFact, error)
	Records(ctx context.Context, sessionIDs []string, studentID int64) ([]RecordFact, error)
}

// Directory is the slice of the timetable directory reports depend on.
type Directory interface {
	ListSlots(ctx context.Context, sectionID int64, semester int) ([]timetable.SlotView, error)
	ListSlotsOnDay(ctx context.Context, sectionID int64, semester int, day timetable.Weekday) ([]timetable.SlotView, error)
	SectionCourses(ctx context.Context, sectionID int64, semester int) ([]timetable.Course, error)
	SectionStudents(ctx context.Context, sectionID int64) ([]timetable.Student, error)
	StudentByRoll(ctx context.Context, roll string) (timetable.Student, error)
}

// Service builds reports, consulting the cache first.
type Service struct {
	src   Source
	dir   Directory
	cache Cache
	log   *slog.Logger
}

// NewService creates a service. A nil cache disables caching.
func NewService(src Source, dir Directory, cache Cache) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	return &Service{src: src, dir: dir, cache: cache, log: logging.Component("report")}
}

// SemesterReport summarises one student's attendance per course. An unknown
// roll number has no attendance and yields an empty report.
func (s *Service) SemesterReport(ctx context.Context, roll string, semester int, window timetable.DateRange) ([]CourseSummary, error) {
	if roll == "" {
		return nil, apperr.Validation("roll_number is required")
	}
	if semester <= 0 {
		return nil, apperr.Validation("semester is required")
	}
	student, err := s.dir.StudentByRoll(ctx, roll)
	if apperr.Is(err, apperr.KindNotFound) {
		return []CourseSummary{}, nil
	}
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("student:%d:%d:%s", student.ID, semester, window.Key())
	return cached(ctx, s, "semester", student.SectionID, key, func() ([]CourseSummary, error) {
		sessions, err := s.src.Sessions(ctx, SessionQuery{SectionID: student.SectionID, Semester: semester, Window: window})
		if err != nil {
			return nil, err
		}
		records, err := s.src.Records(ctx, sessionIDs(sessions), student.ID)
		if err != nil {
			return nil, err
		}
		return BuildSemester(student.ID, sessions, records), nil
	})
}

// SectionReport crosses a section's students with its timetabled courses.
// course may be empty or AllCourses.
func (s *Service) SectionReport(ctx context.Context, sectionID int64, semester int, course string, window timetable.DateRange) ([]SectionRow, error) {
	if err := requireSection(sectionID, semester); err != nil {
		return nil, err
	}
	if course == "" {
		course = AllCourses
	}
	key := fmt.Sprintf("section:%d:%s:%s", semester, course, window.Key())
	return cached(ctx, s, "section", sectionID, key, func() ([]SectionRow, error) {
		students, err := s.dir.SectionStudents(ctx, sectionID)
		if err != nil {
			return nil, err
		}
		courses, err := s.dir.SectionCourses(ctx, sectionID, semester)
		if err != nil {
			return nil, err
		}
		q := SessionQuery{SectionID: sectionID, Semester: semester, Window: window}
		if course != AllCourses {
			q.Course = course
		}
		sessions, err := s.src.Sessions(ctx, q)
		if err != nil {
			return nil, err
		}
		records, err := s.src.Records(ctx, sessionIDs(sessions), 0)
		if err != nil {
			return nil, err
		}
		return BuildSection(students, courses, course, sessions, records), nil
	})
}

// WeeklyGrid lays a section's timetable over the week starting at weekStart.
func (s *Service) WeeklyGrid(ctx context.Context, sectionID int64, semester int, weekStart time.Time) ([]WeekCell, error) {
	if err := requireSection(sectionID, semester); err != nil {
		return nil, err
	}
	if weekStart.IsZero() {
		return nil, apperr.Validation("start_date is required")
	}
	weekStart = timetable.DateOnly(weekStart)
	key := "week:" + fmt.Sprint(semester) + ":" + weekStart.Format(timetable.DateLayout)
	return cached(ctx, s, "week", sectionID, key, func() ([]WeekCell, error) {
		slots, err := s.dir.ListSlots(ctx, sectionID, semester)
		if err != nil {
			return nil, err
		}
		last := weekStart.AddDate(0, 0, timetable.Fri.WeekOffset())
		sessions, err := s.src.Sessions(ctx, SessionQuery{
			SectionID:   sectionID,
			Semester:    semester,
			Window:      timetable.DateRange{From: &weekStart, To: &last},
			IncludeFree: true,
		})
		if err != nil {
			return nil, err
		}
		return BuildWeek(slots, weekStart, sessions), nil
	})
}

// MonthlyGrid builds the student × session matrix of one course in a month
// with overall semester figures per student.
func (s *Service) MonthlyGrid(ctx context.Context, sectionID int64, semester int, course, month string) ([]MonthRow, error) {
	if err := requireSection(sectionID, semester); err != nil {
		return nil, err
	}
	if course == "" {
		return nil, apperr.Validation("course_code is required")
	}
	first, next, err := timetable.ParseMonth(month)
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	key := fmt.Sprintf("month:%d:%s:%s", semester, course, first.Format(timetable.MonthLayout))
	return cached(ctx, s, "month", sectionID, key, func() ([]MonthRow, error) {
		students, err := s.dir.SectionStudents(ctx, sectionID)
		if err != nil {
			return nil, err
		}
		semesterSessions, err := s.src.Sessions(ctx, SessionQuery{SectionID: sectionID, Semester: semester, Course: course})
		if err != nil {
			return nil, err
		}
		semesterRecords, err := s.src.Records(ctx, sessionIDs(semesterSessions), 0)
		if err != nil {
			return nil, err
		}

		var monthSessions []SessionFact
		for _, sess := range semesterSessions {
			if d := timetable.DateOnly(sess.Date); !d.Before(first) && d.Before(next) {
				monthSessions = append(monthSessions, sess)
			}
		}
		return BuildMonth(students, monthSessions, semesterRecords, semesterSessions, semesterRecords), nil
	})
}

// DailyOverview lists what was held in each slot scheduled on date.
func (s *Service) DailyOverview(ctx context.Context, sectionID int64, semester int, date time.Time) ([]DayRow, error) {
	if err := requireSection(sectionID, semester); err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, apperr.Validation("date is required")
	}
	date = timetable.DateOnly(date)
	day := timetable.WeekdayOf(date)
	if day == "" {
		return []DayRow{}, nil
	}
	key := "day:" + fmt.Sprint(semester) + ":" + date.Format(timetable.DateLayout)
	return cached(ctx, s, "day", sectionID, key, func() ([]DayRow, error) {
		slots, err := s.dir.ListSlotsOnDay(ctx, sectionID, semester, day)
		if err != nil {
			return nil, err
		}
		sessions, err := s.src.Sessions(ctx, SessionQuery{
			SectionID:   sectionID,
			Semester:    semester,
			Window:      timetable.DateRange{From: &date, To: &date},
			IncludeFree: true,
		})
		if err != nil {
			return nil, err
		}
		records, err := s.src.Records(ctx, sessionIDs(sessions), 0)
		if err != nil {
			return nil, err
		}
		return BuildDay(slots, date, sessions, records), nil
	})
}

// Invalidate drops every cached report of a section.
func (s *Service) Invalidate(ctx context.Context, sectionID int64) error {
	return s.cache.Invalidate(ctx, sectionID)
}

// cached serves a report from the cache or builds and stores it. The entry is
// written under the generation seen before the build, never a later one.
// Cache failures are logged and never fail the request; after a failed read
// nothing is written.
func cached[T any](ctx context.Context, s *Service, name string, sectionID int64, key string, build func() (T, error)) (T, error) {
	start := time.Now()
	var out T
	gen, hit, readErr := s.cache.Get(ctx, sectionID, key, &out)
	if readErr != nil {
		s.log.Warn("report cache read failed", slog.String("report", name), slog.String("error", readErr.Error()))
	}
	if hit {
		metrics.ReportDuration.WithLabelValues(name, "hit").Observe(time.Since(start).Seconds())
		return out, nil
	}

	out, err := build()
	if err != nil {
		var zero T
		return zero, err
	}
	if readErr == nil {
		if err := s.cache.Set(ctx, sectionID, gen, key, out); err != nil {
			s.log.Warn("report cache write failed", slog.String("report", name), slog.String("error", err.Error()))
		}
	}
	metrics.ReportDuration.WithLabelValues(name, "miss").Observe(time.Since(start).Seconds())
	return out, nil
}

func requireSection(sectionID int64, semester int) error {
	if sectionID <= 0 {
		return apperr.Validation("section_id is required")
	}
	if semester <= 0 {
		return apperr.Validation("semester is required")
	}
	return nil
}

func sessionIDs(sessions []SessionFact) []string {
	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	return ids
}
