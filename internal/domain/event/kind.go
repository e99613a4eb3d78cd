package event

import "fmt"

type Kind int

const (
	KindNoteAttached Kind = iota + 1
	KindMessageAttached
	KindJobAssigned
	KindUserMentioned
	KindEntityUpdated
)

var kindNames = map[Kind]string{
	KindNoteAttached:    "note_attached",
	KindMessageAttached: "message_attached",
	KindJobAssigned:     "job_assigned",
	KindUserMentioned:   "user_mentioned",
	KindEntityUpdated:   "entity_updated",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalid, s)
}

func (k Kind) MarshalText() ([]byte, error) {
	s, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %d", ErrInvalid, int(k))
	}
	return []byte(s), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
