package report

import (
	"context"
	"database/sql"

	"classattend/internal/apperr"
)

// Repository reads sessions and records for reporting.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Sessions returns sessions of the section's slots in q.Semester, oldest
// first. An empty q.Course matches every course.
func (r *Repository) Sessions(ctx context.Context, q SessionQuery) ([]SessionFact, error) {
	var course *string
	if q.Course != "" {
		course = &q.Course
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT sess.id, sess.timetable_id, sess.session_date, t.day, t.slot_number,
			sess.session_category, COALESCE(sess.actual_course_code, ''),
			COALESCE(ac.course_name, ''), sess.is_verified_by_faculty
		FROM attendance_sessions sess
		JOIN timetable t ON sess.timetable_id = t.id
		LEFT JOIN courses ac ON sess.actual_course_code = ac.course_code
		WHERE t.section_id = $1
			AND t.semester = $2
			AND ($3::text IS NULL OR sess.actual_course_code = $3)
			AND ($4::date IS NULL OR sess.session_date >= $4)
			AND ($5::date IS NULL OR sess.session_date <= $5)
			AND ($6::boolean OR sess.session_category <> 'free')
		ORDER BY sess.session_date, t.slot_number
	`, q.SectionID, q.Semester, course, q.Window.From, q.Window.To, q.IncludeFree)
	if err != nil {
		return nil, apperr.Internal(err, "query report sessions")
	}
	defer rows.Close()

	var out []SessionFact
	for rows.Next() {
		var s SessionFact
		if err := rows.Scan(&s.ID, &s.SlotID, &s.Date, &s.Day, &s.SlotNumber,
			&s.Category, &s.ActualCourse, &s.ActualCourseName, &s.Verified); err != nil {
			return nil, apperr.Internal(err, "scan report session")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err, "query report sessions")
	}
	return out, nil
}

// Records returns the records of the given sessions. A non-zero studentID
// narrows the result to that student.
func (r *Repository) Records(ctx context.Context, sessionIDs []string, studentID int64) ([]RecordFact, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, student_id, LOWER(status)
		FROM attendance_records
		WHERE session_id = ANY($1::text[]::uuid[])
			AND ($2::bigint = 0 OR student_id = $2)
	`, sessionIDs, studentID)
	if err != nil {
		return nil, apperr.Internal(err, "query report records")
	}
	defer rows.Close()

	var out []RecordFact
	for rows.Next() {
		var rec RecordFact
		if err := rows.Scan(&rec.SessionID, &rec.StudentID, &rec.Status); err != nil {
			return nil, apperr.Internal(err, "scan report record")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err, "query report records")
	}
	return out, nil
}
