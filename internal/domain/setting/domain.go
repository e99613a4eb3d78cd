package setting

import "time"

type Key string

// Keys for the job special cases. Every other event is looked up under its
// own type code.
const (
	JobAssignedToMe      Key = "job.assigned_to_me"
	JobAssignedToSomeone Key = "job.assigned_to_someone"

	JobNoteAddedToUnassigned     Key = "job.note_added_to_unassigned"
	JobNoteAddedToMine           Key = "job.note_added_to_mine"
	JobNoteAddedToOwnedBySomeone Key = "job.note_added_to_owned_by_someone"

	JobMessageAddedToUnassigned     Key = "job.message_added_to_unassigned"
	JobMessageAddedToMine           Key = "job.message_added_to_mine"
	JobMessageAddedToOwnedBySomeone Key = "job.message_added_to_owned_by_someone"

	EntityUpdated Key = "entity.updated"
)

// SeededOptOuts are stored as false for every newly registered user.
var SeededOptOuts = []Key{
	JobAssignedToSomeone,
	JobNoteAddedToOwnedBySomeone,
	JobMessageAddedToOwnedBySomeone,
	EntityUpdated,
}

// Preference is the result of a settings lookup. A missing row is Unset,
// which is not the same thing as On but notifies all the same.
type Preference int8

const (
	Unset Preference = iota
	On
	Off
)

func PreferenceOf(value bool) Preference {
	if value {
		return On
	}
	return Off
}

func (p Preference) Enabled() bool { return p != Off }

func (p Preference) String() string {
	switch p {
	case On:
		return "on"
	case Off:
		return "off"
	default:
		return "unset"
	}
}

type Setting struct {
	UserID    int64     `json:"user_id" db:"user_id"`
	Key       Key       `json:"type" db:"type"`
	Value     bool      `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
