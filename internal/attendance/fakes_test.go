package attendance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"classattend/internal/apperr"
	"classattend/internal/timetable"
)

// memStore is an in-memory Store. Transactions are serialised and work on a
// copy of the committed state, which is swapped in only when fn succeeds.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	records  []Record
	swaps    []Swap
	students map[int64]bool

	// staleReads makes SessionExists always answer false, standing in for
	// a concurrent transaction that has not committed yet.
	staleReads bool
	failSwap   error
}

func newMemStore(students ...int64) *memStore {
	m := &memStore{sessions: map[string]Session{}, students: map[int64]bool{}}
	for _, id := range students {
		m.students[id] = true
	}
	return m
}

type memTx struct {
	parent   *memStore
	sessions map[string]Session
	records  []Record
	swaps    []Swap
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{parent: m, sessions: map[string]Session{}}
	for k, v := range m.sessions {
		tx.sessions[k] = v
	}
	tx.records = append([]Record(nil), m.records...)
	tx.swaps = append([]Swap(nil), m.swaps...)

	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.sessions, m.records, m.swaps = tx.sessions, tx.records, tx.swaps
	return nil
}

func sessionKey(slotID int64, date time.Time) string {
	return fmt.Sprintf("%d#%s", slotID, date.Format(timetable.DateLayout))
}

func (t *memTx) SessionExists(_ context.Context, slotID int64, date time.Time) (bool, error) {
	if t.parent.staleReads {
		return false, nil
	}
	_, ok := t.sessions[sessionKey(slotID, date)]
	return ok, nil
}

func (t *memTx) InsertSession(_ context.Context, s *Session) error {
	key := sessionKey(s.SlotID, s.Date)
	if _, ok := t.sessions[key]; ok {
		return errAlreadyMarked
	}
	s.CreatedAt = time.Now()
	t.sessions[key] = *s
	return nil
}

func (t *memTx) UnknownStudents(_ context.Context, ids []int64) ([]int64, error) {
	var unknown []int64
	for _, id := range ids {
		if !t.parent.students[id] {
			unknown = append(unknown, id)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	return unknown, nil
}

func (t *memTx) InsertRecords(_ context.Context, sessionID string, roster []RosterEntry) error {
	for _, e := range roster {
		t.records = append(t.records, Record{SessionID: sessionID, StudentID: e.StudentID, Status: e.Status})
	}
	return nil
}

func (t *memTx) InsertSwap(_ context.Context, s *Swap) error {
	if t.parent.failSwap != nil {
		return apperr.Internal(t.parent.failSwap, "insert swap")
	}
	t.swaps = append(t.swaps, *s)
	return nil
}

func (m *memStore) counts() (sessions, records, swaps int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions), len(m.records), len(m.swaps)
}

// memDirectory is a fixed timetable.
type memDirectory struct {
	slots   []timetable.Slot
	faculty map[string]int64
	err     error
}

func (d *memDirectory) ResolveSlot(_ context.Context, id int64) (timetable.Slot, error) {
	for _, s := range d.slots {
		if s.ID == id {
			return s, nil
		}
	}
	return timetable.Slot{}, apperr.NotFound("timetable slot %d not found", id)
}

func (d *memDirectory) FindSlotsByCourseAndSection(_ context.Context, sectionID int64, courseCode string) ([]timetable.Slot, error) {
	if d.err != nil {
		return nil, d.err
	}
	var out []timetable.Slot
	for _, s := range d.slots {
		if s.SectionID == sectionID && s.CourseCode == courseCode {
			out = append(out, s)
		}
	}
	return out, nil
}

func (d *memDirectory) FacultyByUser(_ context.Context, userID string) (int64, error) {
	if id, ok := d.faculty[userID]; ok {
		return id, nil
	}
	return 0, apperr.NotFound("faculty profile for user %s not found", userID)
}

type recordingListener struct {
	mu     sync.Mutex
	events []MarkedEvent
	err    error
}

func (l *recordingListener) SessionMarked(_ context.Context, evt MarkedEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, evt)
	return l.err
}

var errDiskFull = errors.New("disk full")
