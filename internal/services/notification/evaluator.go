package fanout

import (
	"context"
	"fmt"

	"github.com/NordCoder/Restora/internal/domain/event"
	"github.com/NordCoder/Restora/internal/domain/job"
	"github.com/NordCoder/Restora/internal/domain/setting"
	"github.com/NordCoder/Restora/internal/services/notification/repo"
)

// Evaluator decides whether a recipient wants to hear about an event.
type Evaluator struct {
	Settings repo.SettingsLookup
	Jobs     repo.JobReader
}

func NewEvaluator(settings repo.SettingsLookup, jobs repo.JobReader) *Evaluator {
	return &Evaluator{Settings: settings, Jobs: jobs}
}

// Check is an evaluator bound to one event.
type Check func(ctx context.Context, recipientID int64) (bool, error)

func (e *Evaluator) ShouldNotify(ctx context.Context, recipientID int64, ev event.Event) (bool, error) {
	check, err := e.Bind(ctx, ev)
	if err != nil {
		return false, err
	}
	return check(ctx, recipientID)
}

// Bind loads what the event needs (the job, for notes and messages on a job)
// once, so that the returned Check can be called for every recipient.
func (e *Evaluator) Bind(ctx context.Context, ev event.Event) (Check, error) {
	if ev.Kind == event.KindUserMentioned {
		return func(_ context.Context, recipientID int64) (bool, error) {
			return ev.Mentions(recipientID), nil
		}, nil
	}

	var j *job.Job
	if needsJob(ev) {
		var err error
		if j, err = e.Jobs.GetByID(ctx, ev.Target.ID); err != nil {
			return nil, fmt.Errorf("load job %d: %w", ev.Target.ID, err)
		}
	}

	return func(ctx context.Context, recipientID int64) (bool, error) {
		key := SettingKey(ev, j, recipientID)
		pref, err := e.Settings.Lookup(ctx, recipientID, key)
		if err != nil {
			return false, fmt.Errorf("lookup %s for user %d: %w", key, recipientID, err)
		}
		return pref.Enabled(), nil
	}, nil
}

func needsJob(ev event.Event) bool {
	return ev.OnJob() && (ev.Kind == event.KindNoteAttached || ev.Kind == event.KindMessageAttached)
}

// SettingKey picks the setting that governs recipientID for ev. j must be
// the target job for notes and messages on a job and is ignored otherwise.
func SettingKey(ev event.Event, j *job.Job, recipientID int64) setting.Key {
	switch {
	case ev.Kind == event.KindJobAssigned:
		if ev.AssignedUser != nil && ev.AssignedUser.ID == recipientID {
			return setting.JobAssignedToMe
		}
		return setting.JobAssignedToSomeone

	case needsJob(ev) && j != nil:
		note := ev.Kind == event.KindNoteAttached
		switch {
		case j.Unassigned():
			return pick(note, setting.JobNoteAddedToUnassigned, setting.JobMessageAddedToUnassigned)
		case j.AssignedTo(recipientID):
			return pick(note, setting.JobNoteAddedToMine, setting.JobMessageAddedToMine)
		default:
			return pick(note, setting.JobNoteAddedToOwnedBySomeone, setting.JobMessageAddedToOwnedBySomeone)
		}
	}
	return setting.Key(ev.Type())
}

func pick(note bool, noteKey, messageKey setting.Key) setting.Key {
	if note {
		return noteKey
	}
	return messageKey
}
