package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classattend/internal/attendance"
	"classattend/internal/queue"
	"classattend/internal/report"
	"classattend/internal/timetable"
)

type countingCache struct {
	invalidated []int64
	err         error
}

func (c *countingCache) Invalidate(_ context.Context, sectionID int64) error {
	c.invalidated = append(c.invalidated, sectionID)
	return c.err
}

type fakeWarmer struct {
	countingCache
	sections []int64
	weeks    []time.Time
}

func (w *fakeWarmer) SectionReport(_ context.Context, sectionID int64, _ int, course string, _ timetable.DateRange) ([]report.SectionRow, error) {
	w.sections = append(w.sections, sectionID)
	return nil, nil
}

func (w *fakeWarmer) WeeklyGrid(_ context.Context, _ int64, _ int, start time.Time) ([]report.WeekCell, error) {
	w.weeks = append(w.weeks, start)
	return nil, nil
}

func markedEvent(t *testing.T) attendance.MarkedEvent {
	d, err := timetable.ParseDate("2024-03-06")
	require.NoError(t, err)
	return attendance.MarkedEvent{
		SessionID:       "sess-1",
		SlotID:          2,
		SectionID:       10,
		Semester:        3,
		Date:            d,
		Category:        attendance.CategorySwap,
		ScheduledCourse: "C2",
		ActualCourse:    "C1",
		SwapReason:      "Course changed from C2 to C1",
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	evt := markedEvent(t)
	msg, err := Encode(evt)
	require.NoError(t, err)
	assert.Equal(t, TypeSessionMarked, msg.Type)

	got, err := Decode(msg)
	require.NoError(t, err)
	assert.Equal(t, evt.SessionID, got.SessionID)
	assert.Equal(t, evt.Category, got.Category)
	assert.True(t, evt.Date.Equal(got.Date))

	_, err = Decode(queue.Message{Type: "checkin"})
	assert.Error(t, err)
	_, err = Decode(queue.Message{Type: TypeSessionMarked, Body: []byte(`{}`)})
	assert.Error(t, err)
}

func TestPublisherInvalidatesAndEnqueues(t *testing.T) {
	cache := &countingCache{}
	q := queue.NewInMemory(1)
	p := NewPublisher(cache, q)

	require.NoError(t, p.SessionMarked(context.Background(), markedEvent(t)))
	assert.Equal(t, []int64{10}, cache.invalidated)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	msgs, err := q.Consume(ctx)
	require.NoError(t, err)
	select {
	case msg := <-msgs:
		assert.Equal(t, TypeSessionMarked, msg.Type)
	case <-time.After(time.Second):
		t.Fatal("no message published")
	}
}

func TestPublisherStillEnqueuesWhenCacheFails(t *testing.T) {
	cache := &countingCache{err: errors.New("redis down")}
	q := queue.NewInMemory(1)
	p := NewPublisher(cache, q)

	err := p.SessionMarked(context.Background(), markedEvent(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	msgs, _ := q.Consume(ctx)
	select {
	case <-msgs:
	case <-time.After(time.Second):
		t.Fatal("message should be published even when invalidation fails")
	}
}

func TestProcessorWarmsReports(t *testing.T) {
	w := &fakeWarmer{}
	p := NewProcessor(w)
	msg, err := Encode(markedEvent(t))
	require.NoError(t, err)

	require.NoError(t, p.Handle(context.Background(), msg))
	assert.Equal(t, []int64{10}, w.invalidated)
	assert.Equal(t, []int64{10}, w.sections)
	require.Len(t, w.weeks, 1)
	assert.Equal(t, "2024-03-04", w.weeks[0].Format(timetable.DateLayout))
}

func TestProcessorIgnoresUnknownTypes(t *testing.T) {
	w := &fakeWarmer{}
	p := NewProcessor(w)
	require.NoError(t, p.Handle(context.Background(), queue.Message{Type: "checkin"}))
	assert.Empty(t, w.invalidated)
}

func TestProcessorRunDrainsChannel(t *testing.T) {
	w := &fakeWarmer{}
	p := NewProcessor(w)
	msg, err := Encode(markedEvent(t))
	require.NoError(t, err)

	ch := make(chan queue.Message, 2)
	ch <- msg
	ch <- queue.Message{Type: TypeSessionMarked, Body: []byte(`not json`)}
	close(ch)

	p.Run(context.Background(), ch)
	assert.Len(t, w.sections, 1)
}

func TestWeekStart(t *testing.T) {
	for in, want := range map[string]string{
		"2024-03-04": "2024-03-04",
		"2024-03-09": "2024-03-04",
		"2024-03-10": "2024-03-04",
		"2024-03-11": "2024-03-11",
	} {
		d, err := timetable.ParseDate(in)
		require.NoError(t, err)
		assert.Equal(t, want, weekStart(d).Format(timetable.DateLayout), in)
	}
}
