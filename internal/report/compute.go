package report

import (
	"sort"
	"time"

	"classattend/internal/attendance"
	"classattend/internal/timetable"
)

// BuildSemester folds one student's records into a per-course summary.
// sessions must already be restricted to the student's section and semester
// and to the requested window; free sessions are skipped here regardless.
func BuildSemester(studentID int64, sessions []SessionFact, records []RecordFact) []CourseSummary {
	status := recordIndex(records)

	byCourse := map[string]*CourseSummary{}
	for _, s := range sessions {
		if s.Category == attendance.CategoryFree || s.ActualCourse == "" {
			continue
		}
		sum, ok := byCourse[s.ActualCourse]
		if !ok {
			name := s.ActualCourseName
			if name == "" {
				name = s.ActualCourse
			}
			sum = &CourseSummary{CourseCode: s.ActualCourse, CourseName: name}
			byCourse[s.ActualCourse] = sum
		}
		sum.Total++
		if st, ok := status[recordKey{s.ID, studentID}]; ok && PresentOnly.Attended(st) {
			sum.Attended++
		}
	}

	out := make([]CourseSummary, 0, len(byCourse))
	for _, sum := range byCourse {
		sum.Percentage = Percentage(sum.Attended, sum.Total, 2)
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CourseName != out[j].CourseName {
			return out[i].CourseName < out[j].CourseName
		}
		return out[i].CourseCode < out[j].CourseCode
	})
	return out
}

// BuildSection crosses every student with every timetabled course of the
// section. Courses without sessions still produce rows with a zero total.
func BuildSection(students []timetable.Student, courses []timetable.Course, course string, sessions []SessionFact, records []RecordFact) []SectionRow {
	selected := make([]timetable.Course, 0, len(courses))
	for _, c := range courses {
		if course == "" || course == AllCourses || c.Code == course {
			selected = append(selected, c)
		}
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].Code < selected[j].Code })

	totals := map[string]int{}
	sessionCourse := map[string]string{}
	for _, s := range sessions {
		if s.Category == attendance.CategoryFree || s.ActualCourse == "" {
			continue
		}
		totals[s.ActualCourse]++
		sessionCourse[s.ID] = s.ActualCourse
	}

	type cell struct {
		student int64
		course  string
	}
	attended := map[cell]int{}
	for _, r := range records {
		code, ok := sessionCourse[r.SessionID]
		if !ok || !PresentOnly.Attended(r.Status) {
			continue
		}
		attended[cell{r.StudentID, code}]++
	}

	roster := append([]timetable.Student(nil), students...)
	sort.SliceStable(roster, func(i, j int) bool { return roster[i].RollNumber < roster[j].RollNumber })

	out := make([]SectionRow, 0, len(roster)*len(selected))
	for _, st := range roster {
		for _, c := range selected {
			subject := c.Name
			if subject == "" {
				subject = c.Code
			}
			total := totals[c.Code]
			att := attended[cell{st.ID, c.Code}]
			out = append(out, SectionRow{
				StudentID:  st.ID,
				RollNumber: st.RollNumber,
				FullName:   st.FullName,
				CourseCode: c.Code,
				Subject:    subject,
				Total:      total,
				Attended:   att,
				Percentage: Percentage(att, total, 1),
			})
		}
	}
	return out
}

// WeekDate is the calendar date the weekly grid assigns to a slot.
func WeekDate(weekStart time.Time, day timetable.Weekday) time.Time {
	return timetable.DateOnly(weekStart).AddDate(0, 0, day.WeekOffset())
}

// BuildWeek places every slot on its date within the week starting at
// weekStart and attaches the session held on that exact date, if any.
func BuildWeek(slots []timetable.SlotView, weekStart time.Time, sessions []SessionFact) []WeekCell {
	held := sessionIndex(sessions)

	out := make([]WeekCell, 0, len(slots))
	for _, sl := range slots {
		date := WeekDate(weekStart, sl.Day)
		cell := WeekCell{
			SlotID:          sl.ID,
			Day:             sl.Day,
			Date:            date,
			SlotNumber:      sl.SlotNumber,
			Room:            sl.Room,
			ScheduledCourse: sl.CourseCode,
			CourseName:      sl.CourseName,
			FacultyName:     sl.FacultyName,
		}
		if s, ok := held[slotDate{sl.ID, date}]; ok {
			cell.SessionID, cell.Category = &s.ID, &s.Category
			cell.ActualCourse, cell.ActualCourseName = optional(s.ActualCourse), optional(s.ActualCourseName)
		}
		out = append(out, cell)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if oi, oj := out[i].Day.Order(), out[j].Day.Order(); oi != oj {
			return oi < oj
		}
		return out[i].SlotNumber < out[j].SlotNumber
	})
	return out
}

// BuildMonth produces one row per student with a cell for every non-free
// session of the month. monthRecords cover the month's sessions;
// semesterRecords cover every non-free session of the course in the
// semester and feed the overall figures.
func BuildMonth(students []timetable.Student, monthSessions []SessionFact, monthRecords []RecordFact, semesterSessions []SessionFact, semesterRecords []RecordFact) []MonthRow {
	columns := make([]SessionFact, 0, len(monthSessions))
	for _, s := range monthSessions {
		if s.Category != attendance.CategoryFree {
			columns = append(columns, s)
		}
	}
	sort.SliceStable(columns, func(i, j int) bool {
		if !columns[i].Date.Equal(columns[j].Date) {
			return columns[i].Date.Before(columns[j].Date)
		}
		return columns[i].SlotNumber < columns[j].SlotNumber
	})

	status := recordIndex(monthRecords)
	overall := overallTotals(semesterSessions, semesterRecords)

	out := make([]MonthRow, 0, len(students))
	for _, st := range students {
		row := MonthRow{
			StudentID:  st.ID,
			RollNumber: st.RollNumber,
			FullName:   st.FullName,
			Records:    make([]MonthCell, 0, len(columns)),
		}
		for _, s := range columns {
			cell := MonthCell{Date: s.Date, Slot: s.SlotNumber, Status: StatusUnmarked}
			if rs, ok := status[recordKey{s.ID, st.ID}]; ok {
				cell.Status = rs
				if PresentOrLate.Attended(rs) {
					row.MonthlyAttended++
				}
			}
			row.Records = append(row.Records, cell)
		}
		row.MonthlyTotal = len(columns)
		row.MonthlyPercentage = Percentage(row.MonthlyAttended, row.MonthlyTotal, 0)

		tot := overall[st.ID]
		row.OverallAttended, row.OverallTotal = tot.attended, tot.total
		row.OverallPercentage = Percentage(tot.attended, tot.total, 1)
		out = append(out, row)
	}
	return out
}

type tally struct {
	attended int
	total    int
}

// overallTotals counts, per student, the records they have on non-free
// sessions. Sessions a student has no record for do not count.
func overallTotals(sessions []SessionFact, records []RecordFact) map[int64]tally {
	counted := map[string]bool{}
	for _, s := range sessions {
		if s.Category != attendance.CategoryFree {
			counted[s.ID] = true
		}
	}
	out := map[int64]tally{}
	for _, r := range records {
		if !counted[r.SessionID] {
			continue
		}
		t := out[r.StudentID]
		t.total++
		if PresentOrLate.Attended(r.Status) {
			t.attended++
		}
		out[r.StudentID] = t
	}
	return out
}

// BuildDay lists the slots scheduled on a date with the session held for
// each and its present/absent/total counts.
func BuildDay(slots []timetable.SlotView, date time.Time, sessions []SessionFact, records []RecordFact) []DayRow {
	held := sessionIndex(sessions)
	date = timetable.DateOnly(date)

	counts := map[string]*DayRow{}
	out := make([]DayRow, 0, len(slots))
	for _, sl := range slots {
		row := DayRow{
			SlotID:          sl.ID,
			SlotNumber:      sl.SlotNumber,
			ScheduledCourse: sl.CourseCode,
			CourseName:      sl.CourseName,
			FacultyName:     sl.FacultyName,
		}
		if s, ok := held[slotDate{sl.ID, date}]; ok {
			verified := s.Verified
			row.SessionID, row.Category, row.Verified = &s.ID, &s.Category, &verified
			row.ActualCourse, row.ActualCourseName = optional(s.ActualCourse), optional(s.ActualCourseName)
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SlotNumber < out[j].SlotNumber })
	for i := range out {
		if out[i].SessionID != nil {
			counts[*out[i].SessionID] = &out[i]
		}
	}
	for _, r := range records {
		row, ok := counts[r.SessionID]
		if !ok {
			continue
		}
		row.Total++
		switch r.Status {
		case attendance.StatusPresent:
			row.Present++
		case attendance.StatusAbsent:
			row.Absent++
		}
	}
	return out
}

type recordKey struct {
	session string
	student int64
}

func recordIndex(records []RecordFact) map[recordKey]attendance.Status {
	idx := make(map[recordKey]attendance.Status, len(records))
	for _, r := range records {
		idx[recordKey{r.SessionID, r.StudentID}] = r.Status
	}
	return idx
}

type slotDate struct {
	slot int64
	date time.Time
}

func sessionIndex(sessions []SessionFact) map[slotDate]SessionFact {
	idx := make(map[slotDate]SessionFact, len(sessions))
	for _, s := range sessions {
		idx[slotDate{s.SlotID, timetable.DateOnly(s.Date)}] = s
	}
	return idx
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
