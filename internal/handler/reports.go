package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classattend/internal/apperr"
	"classattend/internal/auth"
	"classattend/internal/timetable"
)

type studentReportQuery struct {
	RollNumber string `form:"roll_number" binding:"required"`
	Semester   int    `form:"semester" binding:"required,gt=0"`
	StartDate  string `form:"start_date"`
	EndDate    string `form:"end_date"`
}

// StudentReport returns one student's per-course attendance for a semester.
func (h *Handler) StudentReport(c *gin.Context) {
	var q studentReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}
	window, err := timetable.ParseDateRange(q.StartDate, q.EndDate)
	if err != nil {
		h.badRequest(c, err)
		return
	}
	rows, err := h.reports.SemesterReport(c.Request.Context(), q.RollNumber, q.Semester, window)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

type sectionQuery struct {
	SectionID int64 `form:"section_id" binding:"required,gt=0"`
	Semester  int   `form:"semester" binding:"required,gt=0"`
}

type sectionReportQuery struct {
	sectionQuery
	CourseCode string `form:"course_code"`
	StartDate  string `form:"start_date"`
	EndDate    string `form:"end_date"`
}

// SectionReport returns per-student, per-course attendance for a section.
// Without course_code every timetabled course is included.
func (h *Handler) SectionReport(c *gin.Context) {
	var q sectionReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}
	window, err := timetable.ParseDateRange(q.StartDate, q.EndDate)
	if err != nil {
		h.badRequest(c, err)
		return
	}
	rows, err := h.reports.SectionReport(c.Request.Context(), q.SectionID, q.Semester, q.CourseCode, window)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

type weekQuery struct {
	sectionQuery
	StartDate string `form:"start_date" binding:"required"`
}

// WeekGrid lays the section's timetable over the week starting at
// start_date, with the session held in each slot if any.
func (h *Handler) WeekGrid(c *gin.Context) {
	var q weekQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}
	start, err := timetable.ParseDate(q.StartDate)
	if err != nil {
		h.badRequest(c, err)
		return
	}
	cells, err := h.reports.WeeklyGrid(c.Request.Context(), q.SectionID, q.Semester, start)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cells)
}

type monthQuery struct {
	sectionQuery
	CourseCode string `form:"course_code" binding:"required"`
	Month      string `form:"month" binding:"required"`
}

// MonthGrid returns each student's statuses for one course over a month,
// with monthly and semester totals.
func (h *Handler) MonthGrid(c *gin.Context) {
	var q monthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}
	rows, err := h.reports.MonthlyGrid(c.Request.Context(), q.SectionID, q.Semester, q.CourseCode, q.Month)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

type dayQuery struct {
	sectionQuery
	Date string `form:"date" binding:"required"`
}

// DayOverview lists the slots scheduled on a date with their session and
// status counts.
func (h *Handler) DayOverview(c *gin.Context) {
	var q dayQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}
	date, err := timetable.ParseDate(q.Date)
	if err != nil {
		h.badRequest(c, err)
		return
	}
	rows, err := h.reports.DailyOverview(c.Request.Context(), q.SectionID, q.Semester, date)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// ---------- Timetable ----------

// Timetable lists a section's slots with course and faculty names.
func (h *Handler) Timetable(c *gin.Context) {
	var q sectionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}
	slots, err := h.dir.ListSlots(c.Request.Context(), q.SectionID, q.Semester)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

type scheduleQuery struct {
	FacultyID int64 `form:"faculty_id" binding:"omitempty,gt=0"`
}

// FacultySchedule returns a faculty member's slots grouped by class. Without
// faculty_id the caller's own profile is used.
func (h *Handler) FacultySchedule(c *gin.Context) {
	var q scheduleQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}
	facultyID := q.FacultyID
	if facultyID == 0 {
		claims, ok := auth.ClaimsFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}
		facultyID = claims.FacultyID
		if facultyID == 0 {
			id, err := h.dir.FacultyByUser(c.Request.Context(), claims.Subject)
			if err != nil {
				h.fail(c, err)
				return
			}
			facultyID = id
		}
	}
	groups, err := h.dir.FacultySchedule(c.Request.Context(), facultyID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(groups) == 0 {
		h.fail(c, apperr.NotFound("no timetable slots for faculty %d", facultyID))
		return
	}
	c.JSON(http.StatusOK, groups)
}
