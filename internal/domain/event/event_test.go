package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noteOnJob(sender int64) Event {
	return Event{
		Kind:    KindNoteAttached,
		Target:  Entity{ID: 10, Type: TargetJob, Label: "J-10"},
		Context: &Entity{ID: 99, Type: TargetNote},
		Sender:  &User{ID: sender, Name: "Ann"},
	}
}

func TestType(t *testing.T) {
	cases := []struct {
		ev   Event
		want string
	}{
		{Event{Kind: KindNoteAttached, Target: Entity{Type: TargetJob}}, "job.note_attached"},
		{Event{Kind: KindMessageAttached, Target: Entity{Type: TargetContact}}, "contact.message_attached"},
		{Event{Kind: KindJobAssigned, Target: Entity{Type: TargetJob}}, TypeJobUserAssigned},
		{Event{Kind: KindUserMentioned, Target: Entity{Type: TargetNote}}, TypeUserMentioned},
		{Event{Kind: KindEntityUpdated, Target: Entity{Type: TargetContact}}, TypeEntityUpdated},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.ev.Type())
	}
}

func TestText_SenderNeverNotifiesThemselves(t *testing.T) {
	ev := noteOnJob(1)
	assert.Empty(t, ev.Text(1))
	assert.Equal(t, "Ann added a note to job J-10", ev.Text(2))
}

func TestText_SystemSenderAndFallbackLabels(t *testing.T) {
	ev := Event{Kind: KindMessageAttached, Target: Entity{ID: 5, Type: TargetContact}}
	assert.Equal(t, "System added a message to contact #5", ev.Text(3))
}

func TestText_Assignment(t *testing.T) {
	ev := Event{
		Kind:         KindJobAssigned,
		Target:       Entity{ID: 10, Type: TargetJob, Label: "J-10"},
		Sender:       &User{ID: 1, Name: "Ann"},
		AssignedUser: &User{ID: 2},
	}
	assert.Equal(t, "Ann assigned you to job J-10", ev.Text(2))
	assert.Equal(t, "Ann assigned user #2 to job J-10", ev.Text(3))
}

func TestText_MentionOnlyReachesMentioned(t *testing.T) {
	ev := Event{
		Kind:             KindUserMentioned,
		Target:           Entity{ID: 3, Type: TargetNote},
		Sender:           &User{ID: 1, Name: "Ann"},
		MentionedUserIDs: []int64{7, 9},
	}
	assert.Equal(t, "Ann mentioned you in note #3", ev.Text(7))
	assert.NotEmpty(t, ev.Text(9))
	assert.Empty(t, ev.Text(8))
}

func TestBodyFor_Envelope(t *testing.T) {
	b, ok := noteOnJob(1).BodyFor(2)
	require.True(t, ok)
	raw, err := b.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"text": "Ann added a note to job J-10",
		"sender": {"id": 1, "name": "Ann"},
		"target": {"id": 10, "type": "job"},
		"context": {"id": 99, "type": "note"}
	}`, raw)

	_, ok = noteOnJob(1).BodyFor(1)
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	require.NoError(t, noteOnJob(1).Validate())

	cases := map[string]Event{
		"missing target": {Kind: KindNoteAttached},
		"unknown kind":   {Kind: Kind(42), Target: Entity{ID: 1, Type: TargetJob}},
		"assign on contact": {
			Kind: KindJobAssigned, Target: Entity{ID: 1, Type: TargetContact}, AssignedUser: &User{ID: 2},
		},
		"assign without user": {Kind: KindJobAssigned, Target: Entity{ID: 1, Type: TargetJob}},
		"mention without ids": {Kind: KindUserMentioned, Target: Entity{ID: 1, Type: TargetNote}},
	}
	for name, ev := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, ev.Validate(), ErrInvalid)
		})
	}
}

func TestKind_JSON(t *testing.T) {
	raw, err := json.Marshal(noteOnJob(1))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"kind":"note_attached"`)

	var back Event
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, KindNoteAttached, back.Kind)

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"nope"}`), &back))
}
