package fanout

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/NordCoder/Restora/internal/domain/event"
	"github.com/NordCoder/Restora/internal/domain/job"
	"github.com/NordCoder/Restora/internal/domain/notification"
	"github.com/NordCoder/Restora/internal/domain/setting"
	"github.com/NordCoder/Restora/internal/domain/user"
)

var errStore = errors.New("store failed")

type settingKey struct {
	user int64
	key  setting.Key
}

type fakeSettings struct {
	rows    map[settingKey]bool
	lookups []settingKey
}

func newFakeSettings() *fakeSettings { return &fakeSettings{rows: map[settingKey]bool{}} }

func (f *fakeSettings) set(userID int64, key setting.Key, v bool) { f.rows[settingKey{userID, key}] = v }

func (f *fakeSettings) Lookup(_ context.Context, userID int64, key setting.Key) (setting.Preference, error) {
	k := settingKey{userID, key}
	f.lookups = append(f.lookups, k)
	v, ok := f.rows[k]
	if !ok {
		return setting.Unset, nil
	}
	return setting.PreferenceOf(v), nil
}

type fakeJobs struct {
	jobs  map[int64]*job.Job
	loads int
}

func (f *fakeJobs) GetByID(_ context.Context, id int64) (*job.Job, error) {
	f.loads++
	j, ok := f.jobs[id]
	if !ok {
		return nil, errors.New("job not found")
	}
	return j, nil
}

type fakeUsers struct {
	users     []*user.User
	followers map[event.Ref][]*user.User
	pages     int
}

func newFakeUsers(ids ...int64) *fakeUsers {
	f := &fakeUsers{followers: map[event.Ref][]*user.User{}}
	for _, id := range ids {
		f.users = append(f.users, &user.User{ID: id})
	}
	sort.Slice(f.users, func(i, j int) bool { return f.users[i].ID < f.users[j].ID })
	return f
}

func (f *fakeUsers) ListPage(_ context.Context, afterID int64, limit int) ([]*user.User, error) {
	f.pages++
	out := make([]*user.User, 0, limit)
	for _, u := range f.users {
		if u.ID > afterID && len(out) < limit {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) Followers(_ context.Context, target event.Ref) ([]*user.User, error) {
	return f.followers[target], nil
}

type link struct {
	notificationID int64
	target         event.Ref
}

// fakeStore keeps committed rows only: fakeTx rolls back what a failed
// transaction wrote.
type fakeStore struct {
	mu     sync.Mutex
	nextID int64
	rows   []*notification.Notification
	links  []link
	failOn int64
}

func (f *fakeStore) Create(_ context.Context, n *notification.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := n.Validate(); err != nil {
		return err
	}
	if f.failOn != 0 && n.UserID == f.failOn {
		return errStore
	}
	f.nextID++
	n.ID = f.nextID
	f.rows = append(f.rows, n)
	return nil
}

func (f *fakeStore) AttachTarget(_ context.Context, id int64, target event.Ref) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links = append(f.links, link{id, target})
	return nil
}

func (f *fakeStore) recipients() []int64 {
	ids := make([]int64, 0, len(f.rows))
	for _, n := range f.rows {
		ids = append(ids, n.UserID)
	}
	return ids
}

type fakeTx struct {
	store *fakeStore
	txs   int
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.txs++
	rows, links := len(f.store.rows), len(f.store.links)
	if err := fn(ctx); err != nil {
		f.store.rows = f.store.rows[:rows]
		f.store.links = f.store.links[:links]
		return err
	}
	return nil
}

type fakeBus struct {
	fail bool
	got  []notification.Broadcast
}

func (f *fakeBus) Broadcast(_ context.Context, b notification.Broadcast) error {
	if f.fail {
		return errors.New("bus down")
	}
	f.got = append(f.got, b)
	return nil
}
