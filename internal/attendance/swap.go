package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"classattend/internal/apperr"
	"classattend/internal/timetable"
)

const freePeriodReason = "Class declared Free during attendance marking"

// SwapLogger derives the audit entry for a deviating session.
type SwapLogger struct {
	dir Directory
}

// NewSwapLogger creates a logger resolving covering faculty through dir.
func NewSwapLogger(dir Directory) *SwapLogger {
	return &SwapLogger{dir: dir}
}

// Entry builds the swap row for a marking, or nil when the category does not
// deviate from the timetable.
func (l *SwapLogger) Entry(ctx context.Context, slot timetable.Slot, date time.Time, category Category, actual string, marker Marker) (*Swap, error) {
	if !category.Deviates() {
		return nil, nil
	}

	swap := &Swap{
		ID:               uuid.NewString(),
		SlotID:           slot.ID,
		ScheduledFaculty: slot.FacultyID,
		Date:             date,
		Status:           SwapStatusApproved,
	}

	if category == CategoryFree {
		swap.Reason = freePeriodReason
		return swap, nil
	}

	covering, err := l.coveringFaculty(ctx, slot.SectionID, actual, marker)
	if err != nil {
		return nil, err
	}
	swap.CoveringFaculty = covering
	swap.Reason = swapReason(slot.CourseCode, actual)
	return swap, nil
}

// coveringFaculty looks for whoever teaches the actual course to the same
// section. Failing that, a faculty marker is assumed to have covered the
// class themselves.
func (l *SwapLogger) coveringFaculty(ctx context.Context, sectionID int64, course string, marker Marker) (*int64, error) {
	slots, err := l.dir.FindSlotsByCourseAndSection(ctx, sectionID, course)
	if err != nil {
		return nil, err
	}
	if len(slots) > 0 {
		id := slots[0].FacultyID
		return &id, nil
	}

	if marker.Role != RoleFaculty || marker.UserID == "" {
		return nil, nil
	}
	id, err := l.dir.FacultyByUser(ctx, marker.UserID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func swapReason(scheduled, actual string) string {
	return fmt.Sprintf("Course changed from %s to %s", scheduled, actual)
}
