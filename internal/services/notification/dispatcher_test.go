package fanout

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/NordCoder/Restora/internal/domain/event"
	"github.com/NordCoder/Restora/internal/domain/job"
	"github.com/NordCoder/Restora/internal/domain/setting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	settings *fakeSettings
	jobs     *fakeJobs
	users    *fakeUsers
	store    *fakeStore
	tx       *fakeTx
	bus      *fakeBus
	d        *Dispatcher
}

func newHarness(cfg Config, userIDs ...int64) *harness {
	h := &harness{
		settings: newFakeSettings(),
		jobs:     &fakeJobs{jobs: map[int64]*job.Job{}},
		users:    newFakeUsers(userIDs...),
		store:    &fakeStore{},
		bus:      &fakeBus{},
	}
	h.tx = &fakeTx{store: h.store}
	h.d = NewDispatcher(zap.NewNop(), NewEvaluator(h.settings, h.jobs), h.users, h.users,
		h.store, h.tx, h.bus, fixedClock(testNow), cfg)
	return h
}

func seq(from, to int64) []int64 {
	ids := make([]int64, 0, to-from+1)
	for id := from; id <= to; id++ {
		ids = append(ids, id)
	}
	return ids
}

func TestHandle_NoteOnSomeoneElsesJob(t *testing.T) {
	h := newHarness(Config{}, 1, 2, 3)
	h.jobs.jobs[10] = &job.Job{ID: 10, AssignedUserIDs: []int64{2}}
	ev := jobEvent(event.KindNoteAttached, 10)

	res, err := h.d.Handle(context.Background(), ev)
	require.NoError(t, err)

	assert.Equal(t, Result{Scanned: 3, Eligible: 3, Created: 2, Broadcast: 2}, res)
	assert.Equal(t, []int64{2, 3}, h.store.recipients(), "the sender gets nothing")
	assert.Contains(t, h.settings.lookups, settingKey{2, setting.JobNoteAddedToMine})
	assert.Contains(t, h.settings.lookups, settingKey{3, setting.JobNoteAddedToOwnedBySomeone})

	n := h.store.rows[1]
	assert.Equal(t, "job.note_attached", n.Type)
	assert.Equal(t, testNow, n.CreatedAt)
	assert.Nil(t, n.ExpiresAt)
	var body event.Body
	require.NoError(t, json.Unmarshal([]byte(n.Body), &body))
	assert.Equal(t, "Ann added a note to job #10", body.Text)
	assert.Equal(t, event.Ref{ID: 10, Type: event.TargetJob}, body.Target)

	require.Len(t, h.store.links, 2)
	assert.Equal(t, link{n.ID, event.Ref{ID: 10, Type: event.TargetJob}}, h.store.links[1])

	require.Len(t, h.bus.got, 2)
	assert.Equal(t, "user-3", h.bus.got[1].Channel)
	assert.Equal(t, "job.note_attached", h.bus.got[1].Event)
	assert.Equal(t, n.ID, h.bus.got[1].Data.Notification.ID)
}

func TestHandle_OptOutIsHonoured(t *testing.T) {
	h := newHarness(Config{}, 1, 2, 3)
	h.jobs.jobs[10] = &job.Job{ID: 10, AssignedUserIDs: []int64{2}}
	h.settings.set(3, setting.JobNoteAddedToOwnedBySomeone, false)

	res, err := h.d.Handle(context.Background(), jobEvent(event.KindNoteAttached, 10))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Eligible)
	assert.Equal(t, []int64{2}, h.store.recipients())
}

func TestHandle_UnassignedJobUsesOneKeyForEveryone(t *testing.T) {
	h := newHarness(Config{}, 1, 2, 3)
	h.jobs.jobs[10] = &job.Job{ID: 10}
	h.settings.set(2, setting.JobMessageAddedToUnassigned, false)

	_, err := h.d.Handle(context.Background(), jobEvent(event.KindMessageAttached, 10))
	require.NoError(t, err)

	for _, l := range h.settings.lookups {
		assert.Equal(t, setting.JobMessageAddedToUnassigned, l.key)
	}
	assert.Equal(t, []int64{3}, h.store.recipients())
}

func TestHandle_MentionReachesOnlyMentioned(t *testing.T) {
	h := newHarness(Config{}, seq(1, 10)...)
	ev := event.Event{
		Kind:             event.KindUserMentioned,
		Target:           event.Entity{ID: 3, Type: event.TargetNote},
		Sender:           &event.User{ID: 1, Name: "Ann"},
		MentionedUserIDs: []int64{7, 9},
	}

	res, err := h.d.Handle(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Scanned)
	assert.Equal(t, []int64{7, 9}, h.store.recipients())
	assert.Equal(t, event.TypeUserMentioned, h.store.rows[0].Type)
}

func TestHandle_PagesThroughAllUsers(t *testing.T) {
	h := newHarness(Config{}, seq(1, 250)...)
	ev := event.Event{
		Kind:   event.KindNoteAttached,
		Target: event.Entity{ID: 4, Type: event.TargetContact},
		Sender: &event.User{ID: 1},
	}

	res, err := h.d.Handle(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, 250, res.Scanned)
	assert.Equal(t, 249, res.Created)
	assert.Equal(t, 3, h.users.pages)
	assert.Equal(t, 3, h.tx.txs, "one transaction per page")
}

func TestHandle_ExactPageMultiple(t *testing.T) {
	h := newHarness(Config{PageSize: 50}, seq(1, 100)...)
	ev := event.Event{Kind: event.KindMessageAttached, Target: event.Entity{ID: 4, Type: event.TargetContact}}

	res, err := h.d.Handle(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Created, "system events reach everyone")
	assert.Equal(t, 3, h.users.pages)
	assert.Equal(t, 2, h.tx.txs)
}

func TestHandle_EntityUpdatedGoesToFollowers(t *testing.T) {
	h := newHarness(Config{}, 1, 2, 3, 4, 5)
	target := event.Entity{ID: 8, Type: event.TargetContact, Label: "ACME"}
	h.users.followers[target.Ref()] = newFakeUsers(4, 5).users
	h.settings.set(4, setting.EntityUpdated, false)

	ev := event.Event{
		Kind:          event.KindEntityUpdated,
		Target:        target,
		Sender:        &event.User{ID: 5, Name: "Eve"},
		UpdatedFields: []string{"phone"},
	}
	res, err := h.d.Handle(context.Background(), ev)
	require.NoError(t, err)

	assert.Equal(t, Result{Scanned: 2, Eligible: 2, Created: 1, Broadcast: 1}, res)
	assert.Equal(t, []int64{4}, h.store.recipients(), "followers are not filtered by settings")
	assert.Empty(t, h.settings.lookups)
	assert.Zero(t, h.users.pages)
	assert.Equal(t, []string{"phone"}, h.bus.got[0].Data.Target.UpdatedFields)
}

func TestHandle_StoreErrorAbortsPage(t *testing.T) {
	h := newHarness(Config{PageSize: 2}, seq(1, 5)...)
	h.store.failOn = 4
	ev := event.Event{Kind: event.KindNoteAttached, Target: event.Entity{ID: 4, Type: event.TargetContact}}

	res, err := h.d.Handle(context.Background(), ev)
	require.ErrorIs(t, err, errStore)
	assert.Equal(t, []int64{1, 2}, h.store.recipients(), "the failed page is rolled back")
	assert.Equal(t, 2, res.Created)
	assert.Len(t, h.bus.got, 2, "only committed pages are broadcast")
}

func TestHandle_BroadcastFailureIsNotAnError(t *testing.T) {
	h := newHarness(Config{}, 1, 2)
	h.bus.fail = true
	ev := event.Event{Kind: event.KindNoteAttached, Target: event.Entity{ID: 4, Type: event.TargetContact}}

	res, err := h.d.Handle(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Zero(t, res.Broadcast)
}

func TestHandle_TTLSetsExpiry(t *testing.T) {
	h := newHarness(Config{TTL: 24 * time.Hour}, 1)
	ev := event.Event{Kind: event.KindNoteAttached, Target: event.Entity{ID: 4, Type: event.TargetContact}}

	_, err := h.d.Handle(context.Background(), ev)
	require.NoError(t, err)
	require.NotNil(t, h.store.rows[0].ExpiresAt)
	assert.Equal(t, testNow.Add(24*time.Hour), *h.store.rows[0].ExpiresAt)
}

func TestHandle_RejectsInvalidEvent(t *testing.T) {
	h := newHarness(Config{}, 1)
	_, err := h.d.Handle(context.Background(), event.Event{Kind: event.KindNoteAttached})
	assert.ErrorIs(t, err, event.ErrInvalid)
	assert.Zero(t, h.users.pages)
}
