// internal/behavior/tracker.go

package behavior

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/imadgeboyega/kiekky-scoring/internal/common/utils"
)

var (
	ErrInvalidAction = errors.New("invalid view action")
	ErrSelfView      = errors.New("cannot record a view of your own profile")
	ErrInvalidEvent  = errors.New("invalid view event")
)

// EventSink persists a shaped event. The tracker never reads events back.
type EventSink interface {
	AppendEvent(ctx context.Context, event *ViewEvent) error
}

// EventObserver is told about every event after it was persisted.
type EventObserver interface {
	Notify(userID int64)
}

// Tracker validates and shapes view events before handing them to the sink.
type Tracker struct {
	sink      EventSink
	observers []EventObserver
	now       func() time.Time
	newID     func() uuid.UUID
}

func NewTracker(sink EventSink, observers ...EventObserver) *Tracker {
	return &Tracker{
		sink:      sink,
		observers: observers,
		now:       time.Now,
		newID:     uuid.New,
	}
}

// TrackView records one decision by viewerID on candidateID. Unknown
// actions and self views are rejected, negative dwell is clamped to zero.
func (t *Tracker) TrackView(ctx context.Context, viewerID, candidateID, dwellMs int64, action Action, snapshot Snapshot) (*ViewEvent, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	if viewerID == candidateID {
		return nil, ErrSelfView
	}
	if dwellMs < 0 {
		dwellMs = 0
	}

	event := &ViewEvent{
		ID:            t.newID(),
		SubjectUserID: viewerID,
		ViewedUserID:  candidateID,
		DwellMs:       dwellMs,
		Action:        action,
		Snapshot:      snapshot.normalize(),
		CreatedAt:     t.now().UTC(),
	}
	if err := utils.ValidateStruct(event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	if err := t.sink.AppendEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("append view event: %w", err)
	}
	viewEventsTracked.WithLabelValues(string(action)).Inc()

	for _, o := range t.observers {
		o.Notify(viewerID)
	}
	return event, nil
}
