package event

import (
	"encoding/json"
	"fmt"
	"strconv"
)

const systemActor = "System"

// Body is the JSON envelope stored as the notification body.
type Body struct {
	Text    string `json:"text"`
	Sender  *User  `json:"sender"`
	Target  Ref    `json:"target"`
	Context *Ref   `json:"context,omitempty"`
}

func (b Body) Encode() (string, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("encode body: %w", err)
	}
	return string(raw), nil
}

// Text renders the sentence shown to recipientID. An empty string means the
// recipient gets no notification for this event: the acting user never
// notifies themselves, and mentions only reach the mentioned users.
func (e Event) Text(recipientID int64) string {
	if e.SentBy(recipientID) {
		return ""
	}
	actor := systemActor
	if e.Sender != nil {
		actor = e.Sender.display()
	}

	switch e.Kind {
	case KindNoteAttached:
		return fmt.Sprintf("%s added a note to %s %s", actor, e.Target.Type, e.Target.display())
	case KindMessageAttached:
		return fmt.Sprintf("%s added a message to %s %s", actor, e.Target.Type, e.Target.display())
	case KindJobAssigned:
		if e.AssignedUser == nil {
			return ""
		}
		if e.AssignedUser.ID == recipientID {
			return fmt.Sprintf("%s assigned you to job %s", actor, e.Target.display())
		}
		return fmt.Sprintf("%s assigned %s to job %s", actor, e.AssignedUser.display(), e.Target.display())
	case KindUserMentioned:
		if !e.Mentions(recipientID) {
			return ""
		}
		return fmt.Sprintf("%s mentioned you in %s %s", actor, e.Target.Type, e.Target.display())
	case KindEntityUpdated:
		return fmt.Sprintf("%s updated %s %s", actor, e.Target.Type, e.Target.display())
	default:
		return ""
	}
}

// BodyFor builds the envelope for recipientID; ok is false when Text is empty.
func (e Event) BodyFor(recipientID int64) (Body, bool) {
	text := e.Text(recipientID)
	if text == "" {
		return Body{}, false
	}
	b := Body{
		Text:   text,
		Sender: e.Sender,
		Target: e.Target.Ref(),
	}
	if e.Context != nil {
		ctx := e.Context.Ref()
		b.Context = &ctx
	}
	return b, true
}

func (e Entity) display() string {
	if e.Label != "" {
		return e.Label
	}
	return "#" + strconv.FormatInt(e.ID, 10)
}

func (u User) display() string {
	if u.Name != "" {
		return u.Name
	}
	return "user #" + strconv.FormatInt(u.ID, 10)
}
