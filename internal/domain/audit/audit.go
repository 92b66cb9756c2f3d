package audit

import (
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

// Category is the kind of record an audit event concerns.
type Category string

const (
	CategoryProfile Category = "profile"
	CategoryVideo   Category = "video"
)

// Categories lists every category the admin log can filter on.
var Categories = []Category{CategoryProfile, CategoryVideo}

// Action is what happened to the record.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ErrMissingActor is returned for events without an actor.
var ErrMissingActor = errors.New("audit event requires an actor")

// Event is one entry of the admin activity log.
// INVARIANT: IDs are ULIDs, so they sort in recording order.
type Event struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Category    Category  `json:"category"`
	Action      Action    `json:"action"`
	ActorID     string    `json:"actor_id"`
	ResourceID  string    `json:"resource_id"`
	Description string    `json:"description"`
}

// NewEvent creates an event stamped at.
// PRE: actorID is non-empty
func NewEvent(actorID string, category Category, action Action, at time.Time) Event {
	return Event{
		ID:        ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String(),
		Timestamp: at.UTC(),
		Category:  category,
		Action:    action,
		ActorID:   actorID,
	}
}

// WithResource sets the affected record.
func (e Event) WithResource(id string) Event {
	e.ResourceID = id
	return e
}

// WithDescription sets the human-readable summary.
func (e Event) WithDescription(desc string) Event {
	e.Description = desc
	return e
}

// Validate checks the event before it is stored.
func (e Event) Validate() error {
	if e.ActorID == "" {
		return ErrMissingActor
	}
	return nil
}
