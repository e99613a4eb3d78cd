package event

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Entity types that notifications can be about.
const (
	TargetJob     = "job"
	TargetContact = "contact"
	TargetNote    = "note"
	TargetMessage = "message"
)

// Notification type codes that are not derived from the target type.
const (
	TypeJobUserAssigned = "job.user_assigned"
	TypeUserMentioned   = "user_mentioned"
	TypeEntityUpdated   = "entity.updated"
)

var ErrInvalid = errors.New("invalid event")

var validate = validator.New()

type Ref struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type Entity struct {
	ID    int64  `json:"id" validate:"gt=0"`
	Type  string `json:"type" validate:"required"`
	Label string `json:"label,omitempty"`
}

func (e Entity) Ref() Ref { return Ref{ID: e.ID, Type: e.Type} }

type User struct {
	ID   int64  `json:"id" validate:"gt=0"`
	Name string `json:"name"`
}

// Event describes something that happened to a target entity. It is built
// by the domain action, travels through the fan-out queue and is never
// persisted itself. Kind-specific fields are only read for their kind.
type Event struct {
	Kind    Kind    `json:"kind"`
	Target  Entity  `json:"target"`
	Context *Entity `json:"context,omitempty" validate:"omitempty"`
	Sender  *User   `json:"sender,omitempty" validate:"omitempty"`

	MentionedUserIDs []int64  `json:"mentioned_user_ids,omitempty"`
	AssignedUser     *User    `json:"assigned_user,omitempty" validate:"omitempty"`
	UpdatedFields    []string `json:"updated_fields,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

// Type is the notification type code, also the generic setting key.
func (e Event) Type() string {
	switch e.Kind {
	case KindNoteAttached:
		return e.Target.Type + ".note_attached"
	case KindMessageAttached:
		return e.Target.Type + ".message_attached"
	case KindJobAssigned:
		return TypeJobUserAssigned
	case KindUserMentioned:
		return TypeUserMentioned
	case KindEntityUpdated:
		return TypeEntityUpdated
	default:
		return ""
	}
}

func (e Event) OnJob() bool { return e.Target.Type == TargetJob }

func (e Event) SentBy(userID int64) bool {
	return e.Sender != nil && e.Sender.ID == userID
}

func (e Event) Mentions(userID int64) bool {
	for _, id := range e.MentionedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (e Event) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch e.Kind {
	case KindNoteAttached, KindMessageAttached, KindEntityUpdated:
	case KindJobAssigned:
		if !e.OnJob() {
			return fmt.Errorf("%w: assignment target must be a job, got %q", ErrInvalid, e.Target.Type)
		}
		if e.AssignedUser == nil {
			return fmt.Errorf("%w: assigned_user is required", ErrInvalid)
		}
	case KindUserMentioned:
		if len(e.MentionedUserIDs) == 0 {
			return fmt.Errorf("%w: mentioned_user_ids is required", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalid, int(e.Kind))
	}
	return nil
}
