package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"classattend/internal/apperr"
	"classattend/internal/attendance"
	"classattend/internal/auth"
	"classattend/internal/timetable"
)

// ---------- Mark Attendance ----------

type rosterLine struct {
	StudentID int64  `json:"student_id" binding:"required,gt=0"`
	Status    string `json:"status" binding:"required"`
}

type markRequest struct {
	TimetableID        int64        `json:"timetable_id" binding:"required,gt=0"`
	Date               string       `json:"date" binding:"required"`
	SelectedCourseCode string       `json:"selected_course_code"`
	IsFree             bool         `json:"is_free"`
	Records            []rosterLine `json:"records" binding:"dive"`
}

// MarkAttendance creates the session for a slot and date. A second marking
// of the same slot and date answers 409.
func (h *Handler) MarkAttendance(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	date, err := timetable.ParseDate(req.Date)
	if err != nil {
		h.badRequest(c, err)
		return
	}
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	roster := make([]attendance.RosterEntry, len(req.Records))
	for i, r := range req.Records {
		roster[i] = attendance.RosterEntry{StudentID: r.StudentID, Status: attendance.Status(r.Status)}
	}

	res, err := h.marks.MarkAttendance(c.Request.Context(), attendance.MarkRequest{
		SlotID:         req.TimetableID,
		Date:           date,
		Marker:         attendance.Marker{UserID: claims.Subject, Role: claims.Role},
		SelectedCourse: req.SelectedCourseCode,
		IsFree:         req.IsFree,
		Roster:         roster,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// ---------- Ledger ----------

func slotID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid timetable id %q", c.Param("id"))
	}
	return id, nil
}

// SlotStudents returns the roster of the section a slot belongs to, by roll
// number. Markers build the marking roster from it.
func (h *Handler) SlotStudents(c *gin.Context) {
	id, err := slotID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	slot, err := h.dir.ResolveSlot(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	students, err := h.dir.SectionStudents(c.Request.Context(), slot.SectionID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

// SlotSessions lists the sessions held for one slot, newest first.
func (h *Handler) SlotSessions(c *gin.Context) {
	id, err := slotID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	sessions, err := h.ledger.SessionsBySlot(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// SessionRecords lists the records of one session by roll number.
func (h *Handler) SessionRecords(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.fail(c, apperr.Validation("invalid session id %q", c.Param("id")))
		return
	}
	records, err := h.ledger.RecordsBySession(c.Request.Context(), id.String())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

type swapQuery struct {
	SectionID int64  `form:"section_id" binding:"required,gt=0"`
	From      string `form:"from"`
	To        string `form:"to"`
}

// Swaps lists the swap log of a section.
func (h *Handler) Swaps(c *gin.Context) {
	var q swapQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}
	window, err := timetable.ParseDateRange(q.From, q.To)
	if err != nil {
		h.badRequest(c, err)
		return
	}
	swaps, err := h.ledger.ListSwaps(c.Request.Context(), q.SectionID, window)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"swaps": swaps})
}
