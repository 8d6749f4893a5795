// Package events fans committed markings out to the report cache and the
// work queue, and processes them on the worker side.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"classattend/internal/attendance"
	"classattend/internal/logging"
	"classattend/internal/metrics"
	"classattend/internal/queue"
	"classattend/internal/report"
	"classattend/internal/timetable"
)

// TypeSessionMarked is the queue message type for a committed marking.
const TypeSessionMarked = "session.marked"

// Invalidator drops cached reports of a section.
type Invalidator interface {
	Invalidate(ctx context.Context, sectionID int64) error
}

// Publisher implements attendance.Listener.
type Publisher struct {
	cache Invalidator
	queue queue.Queue
	log   *slog.Logger
}

// NewPublisher creates a publisher. Either dependency may be nil.
func NewPublisher(cache Invalidator, q queue.Queue) *Publisher {
	return &Publisher{cache: cache, queue: q, log: logging.Component("events")}
}

var _ attendance.Listener = (*Publisher)(nil)

// SessionMarked invalidates the section's reports and enqueues the event.
// Both steps are attempted; their errors are joined.
func (p *Publisher) SessionMarked(ctx context.Context, evt attendance.MarkedEvent) error {
	var errs []error
	if p.cache != nil {
		if err := p.cache.Invalidate(ctx, evt.SectionID); err != nil {
			errs = append(errs, fmt.Errorf("invalidate reports: %w", err))
		}
	}
	if p.queue != nil {
		msg, err := Encode(evt)
		if err == nil {
			err = p.queue.Publish(ctx, msg)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", TypeSessionMarked, err))
		}
	}
	return errors.Join(errs...)
}

// Encode wraps a marked event as a queue message.
func Encode(evt attendance.MarkedEvent) (queue.Message, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return queue.Message{}, err
	}
	return queue.Message{Type: TypeSessionMarked, Body: body}, nil
}

// Decode reads a marked event from a queue message.
func Decode(msg queue.Message) (attendance.MarkedEvent, error) {
	var evt attendance.MarkedEvent
	if msg.Type != TypeSessionMarked {
		return evt, fmt.Errorf("unexpected message type %q", msg.Type)
	}
	if err := json.Unmarshal(msg.Body, &evt); err != nil {
		return evt, fmt.Errorf("decode %s: %w", TypeSessionMarked, err)
	}
	if evt.SessionID == "" || evt.SectionID <= 0 {
		return evt, errors.New("marked event is missing session or section")
	}
	return evt, nil
}

// Warmer rebuilds the reports most likely to be read after a marking.
type Warmer interface {
	Invalidate(ctx context.Context, sectionID int64) error
	SectionReport(ctx context.Context, sectionID int64, semester int, course string, window timetable.DateRange) ([]report.SectionRow, error)
	WeeklyGrid(ctx context.Context, sectionID int64, semester int, weekStart time.Time) ([]report.WeekCell, error)
}

// Processor handles queue messages on the worker.
type Processor struct {
	reports Warmer
	log     *slog.Logger
}

// NewProcessor creates a processor.
func NewProcessor(reports Warmer) *Processor {
	return &Processor{reports: reports, log: logging.Component("worker")}
}

// Run consumes msgs until the channel closes.
func (p *Processor) Run(ctx context.Context, msgs <-chan queue.Message) {
	for msg := range msgs {
		outcome := "ok"
		if err := p.Handle(ctx, msg); err != nil {
			outcome = "error"
			p.log.Error("message failed", slog.String("type", msg.Type), slog.String("error", err.Error()))
		}
		metrics.QueueMessages.WithLabelValues(msg.Type, outcome).Inc()
	}
}

// Handle processes one message. Unknown types are ignored.
func (p *Processor) Handle(ctx context.Context, msg queue.Message) error {
	if msg.Type != TypeSessionMarked {
		p.log.Debug("ignoring message", slog.String("type", msg.Type))
		return nil
	}
	evt, err := Decode(msg)
	if err != nil {
		return err
	}

	log := p.log.With(
		slog.String("session_id", evt.SessionID),
		slog.Int64("section_id", evt.SectionID),
		slog.String("date", evt.Date.Format(timetable.DateLayout)))

	switch evt.Category {
	case attendance.CategorySwap:
		log.Info("class swapped", slog.String("scheduled", evt.ScheduledCourse), slog.String("actual", evt.ActualCourse), slog.String("reason", evt.SwapReason))
	case attendance.CategoryFree:
		log.Info("free period declared", slog.String("scheduled", evt.ScheduledCourse))
	}

	if err := p.reports.Invalidate(ctx, evt.SectionID); err != nil {
		return fmt.Errorf("invalidate reports: %w", err)
	}
	if _, err := p.reports.SectionReport(ctx, evt.SectionID, evt.Semester, report.AllCourses, timetable.DateRange{}); err != nil {
		return fmt.Errorf("warm section report: %w", err)
	}
	if _, err := p.reports.WeeklyGrid(ctx, evt.SectionID, evt.Semester, weekStart(evt.Date)); err != nil {
		return fmt.Errorf("warm weekly grid: %w", err)
	}
	log.Debug("reports warmed")
	return nil
}

// weekStart returns the Monday on or before d.
func weekStart(d time.Time) time.Time {
	d = timetable.DateOnly(d)
	back := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -back)
}
