package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"classattend/internal/apperr"
	"classattend/internal/store"
	"classattend/internal/timetable"
)

const (
	sessionSlotDateIndex   = "uq_attendance_sessions_slot_date"
	recordSessionStudentUQ = "uq_attendance_records_session_student"
	recordStudentFK        = "attendance_records_student_fk"
)

// Repository persists sessions, records and swaps in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// WithinTx implements Store.
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	err := store.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
	var appErr *apperr.Error
	if err != nil && !errors.As(err, &appErr) {
		return apperr.Internal(err, "attendance transaction")
	}
	return err
}

type txRepo struct {
	tx *sql.Tx
}

func (t *txRepo) SessionExists(ctx context.Context, slotID int64, date time.Time) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM attendance_sessions WHERE timetable_id = $1 AND session_date = $2
		)
	`, slotID, date).Scan(&exists)
	if err != nil {
		return false, apperr.Internal(err, "check existing session")
	}
	return exists, nil
}

// InsertSession relies on the unique index over (timetable_id, session_date)
// so that concurrent markers cannot both succeed.
func (t *txRepo) InsertSession(ctx context.Context, s *Session) error {
	row := t.tx.QueryRowContext(ctx, `
		INSERT INTO attendance_sessions
			(id, timetable_id, session_date, marked_by, session_category, actual_course_code)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, s.ID, s.SlotID, s.Date, s.MarkedBy, s.Category, s.ActualCourse)
	if err := row.Scan(&s.CreatedAt); err != nil {
		if store.IsUniqueViolation(err, sessionSlotDateIndex) {
			return errAlreadyMarked
		}
		return apperr.Internal(err, "insert session")
	}
	return nil
}

func (t *txRepo) UnknownStudents(ctx context.Context, ids []int64) ([]int64, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT want.id
		FROM unnest($1::bigint[]) AS want(id)
		LEFT JOIN students s ON s.id = want.id
		WHERE s.id IS NULL
		ORDER BY want.id
	`, ids)
	if err != nil {
		return nil, apperr.Internal(err, "check roster students")
	}
	defer rows.Close()
	var unknown []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Internal(err, "scan roster student")
		}
		unknown = append(unknown, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err, "check roster students")
	}
	return unknown, nil
}

func (t *txRepo) InsertRecords(ctx context.Context, sessionID string, roster []RosterEntry) error {
	stmt, err := t.tx.PrepareContext(ctx, `
		INSERT INTO attendance_records (id, session_id, student_id, status)
		VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		return apperr.Internal(err, "prepare record insert")
	}
	defer stmt.Close()

	for _, e := range roster {
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), sessionID, e.StudentID, e.Status); err != nil {
			switch {
			case store.IsForeignKeyViolation(err, recordStudentFK):
				return apperr.Wrap(apperr.KindValidation, err, "roster references an unknown student")
			case store.IsUniqueViolation(err, recordSessionStudentUQ):
				return apperr.Wrap(apperr.KindValidation, err, "student appears more than once in the roster")
			}
			return apperr.Internal(err, "insert record")
		}
	}
	return nil
}

func (t *txRepo) InsertSwap(ctx context.Context, s *Swap) error {
	row := t.tx.QueryRowContext(ctx, `
		INSERT INTO class_swaps
			(id, source_timetable_id, requesting_faculty_id, target_faculty_id, requested_date, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, s.ID, s.SlotID, s.ScheduledFaculty, s.CoveringFaculty, s.Date, s.Reason, s.Status)
	if err := row.Scan(&s.CreatedAt); err != nil {
		return apperr.Internal(err, "insert swap")
	}
	return nil
}

// SessionsBySlot lists every session of one slot, newest first.
func (r *Repository) SessionsBySlot(ctx context.Context, slotID int64) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, timetable_id, session_date, marked_by, session_category,
			actual_course_code, is_verified_by_faculty, created_at
		FROM attendance_sessions
		WHERE timetable_id = $1
		ORDER BY session_date DESC
	`, slotID)
	if err != nil {
		return nil, apperr.Internal(err, "list sessions")
	}
	defer rows.Close()

	res := []Session{}
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.SlotID, &s.Date, &s.MarkedBy, &s.Category, &s.ActualCourse, &s.Verified, &s.CreatedAt); err != nil {
			return nil, apperr.Internal(err, "scan session")
		}
		res = append(res, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err, "list sessions")
	}
	return res, nil
}

// RecordsBySession lists a session's records by roll number.
func (r *Repository) RecordsBySession(ctx context.Context, sessionID string) ([]RecordView, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, apperr.NotFound("session %s not found", sessionID)
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM attendance_sessions WHERE id = $1)`, sessionID).Scan(&exists); err != nil {
		return nil, apperr.Internal(err, "find session")
	}
	if !exists {
		return nil, apperr.NotFound("session %s not found", sessionID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.roll_number, s.full_name, r.status
		FROM attendance_records r
		JOIN students s ON r.student_id = s.id
		WHERE r.session_id = $1
		ORDER BY s.roll_number ASC
	`, sessionID)
	if err != nil {
		return nil, apperr.Internal(err, "list records")
	}
	defer rows.Close()

	res := []RecordView{}
	for rows.Next() {
		var v RecordView
		if err := rows.Scan(&v.StudentID, &v.RollNumber, &v.FullName, &v.Status); err != nil {
			return nil, apperr.Internal(err, "scan record")
		}
		res = append(res, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err, "list records")
	}
	return res, nil
}

// ListSwaps returns the swap log for a section's slots, newest first.
func (r *Repository) ListSwaps(ctx context.Context, sectionID int64, window timetable.DateRange) ([]Swap, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cs.id, cs.source_timetable_id, cs.requesting_faculty_id, cs.target_faculty_id,
			cs.requested_date, cs.reason, cs.status, cs.created_at
		FROM class_swaps cs
		JOIN timetable t ON cs.source_timetable_id = t.id
		WHERE t.section_id = $1
			AND ($2::date IS NULL OR cs.requested_date >= $2)
			AND ($3::date IS NULL OR cs.requested_date <= $3)
		ORDER BY cs.requested_date DESC, cs.created_at DESC
	`, sectionID, window.From, window.To)
	if err != nil {
		return nil, apperr.Internal(err, "list swaps")
	}
	defer rows.Close()

	res := []Swap{}
	for rows.Next() {
		var s Swap
		if err := rows.Scan(&s.ID, &s.SlotID, &s.ScheduledFaculty, &s.CoveringFaculty, &s.Date, &s.Reason, &s.Status, &s.CreatedAt); err != nil {
			return nil, apperr.Internal(err, "scan swap")
		}
		res = append(res, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err, "list swaps")
	}
	return res, nil
}
