package fanout

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/Restora/internal/domain/event"
	"github.com/NordCoder/Restora/internal/domain/notification"
	"github.com/NordCoder/Restora/internal/domain/tx"
	"github.com/NordCoder/Restora/internal/domain/user"
	"github.com/NordCoder/Restora/internal/obs"
	"github.com/NordCoder/Restora/internal/services/notification/repo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const DefaultPageSize = 100

type Config struct {
	PageSize int           `mapstructure:"page_size"`
	TTL      time.Duration `mapstructure:"ttl"`
}

var (
	mHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fanout_events_total", Help: "Fan-out tasks by kind and outcome.",
	}, []string{"kind", "outcome"})
	mScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fanout_recipients_scanned_total", Help: "Candidate recipients evaluated.",
	})
	mCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fanout_notifications_created_total", Help: "Notifications persisted.",
	}, []string{"kind"})
	mBroadcastErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fanout_broadcast_errors_total", Help: "Broadcasts that failed after the page committed.",
	})
	mDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "fanout_duration_seconds", Help: "Fan-out task duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
)

// Result counts what one fan-out task did.
type Result struct {
	Scanned   int
	Eligible  int
	Created   int
	Broadcast int
}

func (r *Result) add(o Result) {
	r.Scanned += o.Scanned
	r.Eligible += o.Eligible
	r.Created += o.Created
	r.Broadcast += o.Broadcast
}

// Dispatcher turns one event into one notification per eligible recipient.
type Dispatcher struct {
	log       *zap.Logger
	eval      *Evaluator
	users     repo.UserPager
	followers repo.FollowerReader
	notifs    repo.NotificationWriter
	tx        tx.Transactor
	bus       notification.Broadcaster
	clock     notification.Clock
	cfg       Config
}

func NewDispatcher(
	log *zap.Logger,
	eval *Evaluator,
	users repo.UserPager,
	followers repo.FollowerReader,
	notifs repo.NotificationWriter,
	transactor tx.Transactor,
	bus notification.Broadcaster,
	clock notification.Clock,
	cfg Config,
) *Dispatcher {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if clock == nil {
		clock = notification.SystemClock{}
	}
	return &Dispatcher{
		log:       obs.Component(log, "fanout.dispatcher"),
		eval:      eval,
		users:     users,
		followers: followers,
		notifs:    notifs,
		tx:        transactor,
		bus:       bus,
		clock:     clock,
		cfg:       cfg,
	}
}

// Handle runs the fan-out for ev. Pages of recipients are committed one at a
// time; an error aborts the current page and is returned with the counts of
// the pages already committed.
func (d *Dispatcher) Handle(ctx context.Context, ev event.Event) (res Result, err error) {
	kind := ev.Kind.String()
	start := time.Now()

	ctx, span := otel.Tracer("fanout.dispatcher").Start(ctx, "fanout.handle",
		trace.WithAttributes(
			attribute.String("event.type", ev.Type()),
			attribute.String("target.type", ev.Target.Type),
			attribute.Int64("target.id", ev.Target.ID),
		),
	)
	defer func() {
		span.SetAttributes(
			attribute.Int("fanout.scanned", res.Scanned),
			attribute.Int("fanout.created", res.Created),
		)
		obs.FailSpan(span, err)
		span.End()

		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		mHandled.WithLabelValues(kind, outcome).Inc()
		mDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	if err := ev.Validate(); err != nil {
		return res, err
	}

	if ev.Kind == event.KindEntityUpdated {
		res, err = d.toFollowers(ctx, ev)
	} else {
		res, err = d.toAllUsers(ctx, ev)
	}

	log := obs.WithTrace(ctx, d.log).With(
		zap.String("type", ev.Type()),
		zap.String("target", ev.Target.Type),
		zap.Int64("target_id", ev.Target.ID),
		zap.Int("scanned", res.Scanned),
		zap.Int("eligible", res.Eligible),
		zap.Int("created", res.Created),
		zap.Int("broadcast", res.Broadcast),
	)
	if err != nil {
		log.Error("fanout failed", zap.Error(err))
		return res, err
	}
	log.Info("fanout done")
	return res, nil
}

// toFollowers notifies the followers of the target. Following is itself the
// opt-in, so settings are not consulted.
func (d *Dispatcher) toFollowers(ctx context.Context, ev event.Event) (Result, error) {
	followers, err := d.followers.Followers(ctx, ev.Target.Ref())
	if err != nil {
		return Result{}, fmt.Errorf("load followers of %s#%d: %w", ev.Target.Type, ev.Target.ID, err)
	}
	always := func(context.Context, int64) (bool, error) { return true, nil }

	var res Result
	for start := 0; start < len(followers); start += d.cfg.PageSize {
		end := min(start+d.cfg.PageSize, len(followers))
		page, err := d.page(ctx, ev, followers[start:end], always)
		res.add(page)
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

// toAllUsers walks every user in id order.
func (d *Dispatcher) toAllUsers(ctx context.Context, ev event.Event) (Result, error) {
	check, err := d.eval.Bind(ctx, ev)
	if err != nil {
		return Result{}, err
	}

	var (
		res     Result
		afterID int64
	)
	for {
		users, err := d.users.ListPage(ctx, afterID, d.cfg.PageSize)
		if err != nil {
			return res, fmt.Errorf("list users after %d: %w", afterID, err)
		}
		if len(users) == 0 {
			return res, nil
		}

		page, err := d.page(ctx, ev, users, check)
		res.add(page)
		if err != nil {
			return res, err
		}
		if len(users) < d.cfg.PageSize {
			return res, nil
		}
		afterID = users[len(users)-1].ID
	}
}

// page persists the notifications for one page of candidates in a single
// transaction, then broadcasts them.
func (d *Dispatcher) page(ctx context.Context, ev event.Event, candidates []*user.User, check Check) (Result, error) {
	res := Result{Scanned: len(candidates)}
	mScanned.Add(float64(len(candidates)))

	var created []*notification.Notification
	err := d.tx.WithTx(ctx, func(ctx context.Context) error {
		created = created[:0]
		res.Eligible = 0
		for _, u := range candidates {
			ok, err := check(ctx, u.ID)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			res.Eligible++

			n, err := d.build(ev, u.ID)
			if err != nil {
				return err
			}
			if n == nil {
				continue
			}
			if err := d.notifs.Create(ctx, n); err != nil {
				return fmt.Errorf("create notification for user %d: %w", u.ID, err)
			}
			if err := d.notifs.AttachTarget(ctx, n.ID, ev.Target.Ref()); err != nil {
				return fmt.Errorf("attach notification %d: %w", n.ID, err)
			}
			created = append(created, n)
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	res.Created = len(created)
	mCreated.WithLabelValues(ev.Kind.String()).Add(float64(len(created)))
	res.Broadcast = d.broadcast(ctx, ev, created)
	return res, nil
}

// build renders the notification for recipientID, or nil when the rendered
// body is empty.
func (d *Dispatcher) build(ev event.Event, recipientID int64) (*notification.Notification, error) {
	body, ok := ev.BodyFor(recipientID)
	if !ok {
		return nil, nil
	}
	encoded, err := body.Encode()
	if err != nil {
		return nil, err
	}

	now := d.clock.Now()
	n := &notification.Notification{
		UserID:    recipientID,
		Type:      ev.Type(),
		Body:      encoded,
		CreatedAt: now,
	}
	if d.cfg.TTL > 0 {
		exp := now.Add(d.cfg.TTL)
		n.ExpiresAt = &exp
	}
	return n, nil
}

func (d *Dispatcher) broadcast(ctx context.Context, ev event.Event, created []*notification.Notification) int {
	if d.bus == nil {
		return 0
	}
	sent := 0
	for _, n := range created {
		if err := d.bus.Broadcast(ctx, notification.NewBroadcast(n, ev)); err != nil {
			mBroadcastErr.Inc()
			obs.WithTrace(ctx, d.log).Warn("broadcast failed",
				zap.Int64("notification_id", n.ID),
				zap.Int64("user_id", n.UserID),
				zap.Error(err),
			)
			continue
		}
		sent++
	}
	return sent
}
