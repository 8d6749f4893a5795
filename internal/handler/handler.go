package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classattend/internal/apperr"
	"classattend/internal/attendance"
	"classattend/internal/logging"
	"classattend/internal/report"
	"classattend/internal/timetable"
)

// Marker records attendance.
type Marker interface {
	MarkAttendance(ctx context.Context, req attendance.MarkRequest) (attendance.MarkResult, error)
}

// Ledger lists what has been recorded.
type Ledger interface {
	SessionsBySlot(ctx context.Context, slotID int64) ([]attendance.Session, error)
	RecordsBySession(ctx context.Context, sessionID string) ([]attendance.RecordView, error)
	ListSwaps(ctx context.Context, sectionID int64, window timetable.DateRange) ([]attendance.Swap, error)
}

// Reports builds the aggregated views.
type Reports interface {
	SemesterReport(ctx context.Context, roll string, semester int, window timetable.DateRange) ([]report.CourseSummary, error)
	SectionReport(ctx context.Context, sectionID int64, semester int, course string, window timetable.DateRange) ([]report.SectionRow, error)
	WeeklyGrid(ctx context.Context, sectionID int64, semester int, weekStart time.Time) ([]report.WeekCell, error)
	MonthlyGrid(ctx context.Context, sectionID int64, semester int, course, month string) ([]report.MonthRow, error)
	DailyOverview(ctx context.Context, sectionID int64, semester int, date time.Time) ([]report.DayRow, error)
}

// Directory answers timetable lookups.
type Directory interface {
	ResolveSlot(ctx context.Context, id int64) (timetable.Slot, error)
	ListSlots(ctx context.Context, sectionID int64, semester int) ([]timetable.SlotView, error)
	SectionStudents(ctx context.Context, sectionID int64) ([]timetable.Student, error)
	FacultyByUser(ctx context.Context, userID string) (int64, error)
	FacultySchedule(ctx context.Context, facultyID int64) ([]timetable.ScheduleGroup, error)
}

// Handler serves the attendance API over gin.
type Handler struct {
	marks   Marker
	ledger  Ledger
	reports Reports
	dir     Directory
	log     *slog.Logger
}

// New creates a handler from its backing services.
func New(marks Marker, ledger Ledger, reports Reports, dir Directory) *Handler {
	return &Handler{marks: marks, ledger: ledger, reports: reports, dir: dir, log: logging.Component("http")}
}

// Register mounts the API routes on g. Callers add authentication.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.POST("/attendance", h.MarkAttendance)

	g.GET("/reports/student", h.StudentReport)
	g.GET("/reports/section", h.SectionReport)

	g.GET("/grids/week", h.WeekGrid)
	g.GET("/grids/month", h.MonthGrid)
	g.GET("/grids/day", h.DayOverview)

	g.GET("/timetable", h.Timetable)
	g.GET("/faculty/schedule", h.FacultySchedule)
	g.GET("/slots/:id/students", h.SlotStudents)
	g.GET("/slots/:id/sessions", h.SlotSessions)
	g.GET("/sessions/:id/records", h.SessionRecords)
	g.GET("/swaps", h.Swaps)
}

// fail writes err with the status of its kind. Internal causes are logged
// and replaced by a generic message.
func (h *Handler) fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			slog.String("method", c.Request.Method),
			slog.String("route", c.FullPath()),
			slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"error": apperr.PublicMessage(err)})
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
