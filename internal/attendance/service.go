package attendance

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"classattend/internal/apperr"
	"classattend/internal/logging"
	"classattend/internal/metrics"
	"classattend/internal/timetable"
)

// Directory is the slice of the timetable directory marking depends on.
type Directory interface {
	ResolveSlot(ctx context.Context, id int64) (timetable.Slot, error)
	FindSlotsByCourseAndSection(ctx context.Context, sectionID int64, courseCode string) ([]timetable.Slot, error)
	FacultyByUser(ctx context.Context, userID string) (int64, error)
}

// Tx is the transactional write surface of the session store.
type Tx interface {
	SessionExists(ctx context.Context, slotID int64, date time.Time) (bool, error)
	InsertSession(ctx context.Context, s *Session) error
	UnknownStudents(ctx context.Context, ids []int64) ([]int64, error)
	InsertRecords(ctx context.Context, sessionID string, roster []RosterEntry) error
	InsertSwap(ctx context.Context, s *Swap) error
}

// Store runs fn atomically: every write made through tx commits together or
// not at all.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Listener is told about committed markings. Its errors are logged, never
// returned to the marker.
type Listener interface {
	SessionMarked(ctx context.Context, evt MarkedEvent) error
}

// Service coordinates classification, the session store and the swap log.
type Service struct {
	store    Store
	dir      Directory
	swaps    *SwapLogger
	listener Listener
	log      *slog.Logger
}

// NewService creates a service. listener may be nil.
func NewService(store Store, dir Directory, listener Listener) *Service {
	return &Service{
		store:    store,
		dir:      dir,
		swaps:    NewSwapLogger(dir),
		listener: listener,
		log:      logging.Component("attendance"),
	}
}

// MarkAttendance records one session for a slot on a date, its per-student
// records and, when the class deviated from the timetable, a swap log entry.
// A second marking of the same slot and date fails with a conflict.
func (s *Service) MarkAttendance(ctx context.Context, req MarkRequest) (MarkResult, error) {
	res, err := s.mark(ctx, req)
	if err != nil {
		metrics.MarkFailures.WithLabelValues(apperr.KindOf(err).String()).Inc()
		if apperr.KindOf(err) == apperr.KindInternal {
			s.log.Error("mark attendance failed", slog.Int64("slot_id", req.SlotID), slog.String("error", err.Error()))
		}
		return MarkResult{}, err
	}
	return res, nil
}

func (s *Service) mark(ctx context.Context, req MarkRequest) (MarkResult, error) {
	if err := validate(&req); err != nil {
		return MarkResult{}, err
	}

	slot, err := s.dir.ResolveSlot(ctx, req.SlotID)
	if err != nil {
		return MarkResult{}, err
	}

	category, actual := Classify(slot.CourseCode, req.SelectedCourse, req.IsFree)
	sess := &Session{
		ID:           uuid.NewString(),
		SlotID:       slot.ID,
		Date:         req.Date,
		MarkedBy:     req.Marker.UserID,
		Category:     category,
		ActualCourse: actual,
	}

	var swap *Swap
	records := 0
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		exists, err := tx.SessionExists(ctx, slot.ID, req.Date)
		if err != nil {
			return err
		}
		if exists {
			return errAlreadyMarked
		}
		if err := tx.InsertSession(ctx, sess); err != nil {
			return err
		}

		if category != CategoryFree {
			if err := s.writeRecords(ctx, tx, sess.ID, req.Roster); err != nil {
				return err
			}
			records = len(req.Roster)
		}

		swap, err = s.swaps.Entry(ctx, slot, req.Date, category, req.SelectedCourse, req.Marker)
		if err != nil {
			return err
		}
		if swap != nil {
			return tx.InsertSwap(ctx, swap)
		}
		return nil
	})
	if err != nil {
		return MarkResult{}, err
	}

	metrics.SessionsMarked.WithLabelValues(string(category)).Inc()
	metrics.RecordsWritten.Add(float64(records))
	res := MarkResult{SessionID: sess.ID, Category: category, Records: records}
	if swap != nil {
		metrics.SwapsLogged.WithLabelValues(string(category)).Inc()
		res.SwapID = swap.ID
	}

	s.log.Info("attendance marked",
		slog.String("session_id", sess.ID),
		slog.Int64("slot_id", slot.ID),
		slog.String("date", req.Date.Format(timetable.DateLayout)),
		slog.String("category", string(category)),
		slog.Int("records", records))

	s.notify(ctx, slot, sess, swap)
	return res, nil
}

func (s *Service) writeRecords(ctx context.Context, tx Tx, sessionID string, roster []RosterEntry) error {
	ids := make([]int64, len(roster))
	for i, r := range roster {
		ids[i] = r.StudentID
	}
	unknown, err := tx.UnknownStudents(ctx, ids)
	if err != nil {
		return err
	}
	if len(unknown) > 0 {
		return apperr.Validation("roster references unknown students: %v", unknown)
	}
	return tx.InsertRecords(ctx, sessionID, roster)
}

func (s *Service) notify(ctx context.Context, slot timetable.Slot, sess *Session, swap *Swap) {
	if s.listener == nil {
		return
	}
	evt := MarkedEvent{
		SessionID:       sess.ID,
		SlotID:          slot.ID,
		SectionID:       slot.SectionID,
		Semester:        slot.Semester,
		Date:            sess.Date,
		Category:        sess.Category,
		ScheduledCourse: slot.CourseCode,
	}
	if sess.ActualCourse != nil {
		evt.ActualCourse = *sess.ActualCourse
	}
	if swap != nil {
		evt.SwapReason = swap.Reason
	}
	if err := s.listener.SessionMarked(ctx, evt); err != nil {
		s.log.Warn("session marked listener failed", slog.String("session_id", sess.ID), slog.String("error", err.Error()))
	}
}

var errAlreadyMarked = apperr.Conflict("attendance has already been marked for this slot on this date")

func validate(req *MarkRequest) error {
	if req.SlotID <= 0 {
		return apperr.Validation("timetable_id is required")
	}
	if req.Date.IsZero() {
		return apperr.Validation("date is required")
	}
	req.Date = timetable.DateOnly(req.Date)
	if req.Marker.UserID == "" {
		return apperr.Validation("marker identity is required")
	}
	if req.IsFree {
		req.Roster = nil
		return nil
	}
	if req.SelectedCourse == "" {
		return apperr.Validation("selected_course_code is required unless the period is free")
	}
	if len(req.Roster) == 0 {
		return apperr.Validation("records are required unless the period is free")
	}
	roster := make([]RosterEntry, len(req.Roster))
	seen := make(map[int64]struct{}, len(req.Roster))
	for i, r := range req.Roster {
		if r.StudentID <= 0 {
			return apperr.Validation("roster entry has no student id")
		}
		st, ok := ParseStatus(string(r.Status))
		if !ok {
			return apperr.Validation("student %d has invalid status %q", r.StudentID, r.Status)
		}
		if _, dup := seen[r.StudentID]; dup {
			return apperr.Validation("student %d appears more than once in the roster", r.StudentID)
		}
		seen[r.StudentID] = struct{}{}
		roster[i] = RosterEntry{StudentID: r.StudentID, Status: st}
	}
	req.Roster = roster
	return nil
}
