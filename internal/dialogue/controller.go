package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/trainbot/core/logger"
	"github.com/m3rciful/trainbot/internal/affiliate"
	"github.com/m3rciful/trainbot/internal/render"
	"github.com/m3rciful/trainbot/internal/search"
	"github.com/m3rciful/trainbot/internal/session"
	"github.com/m3rciful/trainbot/internal/trip"
)

// DefaultSearchTimeout bounds a single collaborator call.
const DefaultSearchTimeout = 15 * time.Second

// Result describes how a search turn ended.
type Result string

const (
	// ResultNone means the turn did not search.
	ResultNone Result = ""
	// ResultFound means the collaborator returned trains.
	ResultFound Result = "found"
	// ResultEmpty means the collaborator answered with no trains.
	ResultEmpty Result = "empty"
	// ResultFailed means the collaborator errored or timed out.
	ResultFailed Result = "failed"
)

// Outcome summarises a handled turn for logging and tests.
type Outcome struct {
	From     session.State
	To       session.State
	Result   Result
	Trains   int
	SearchID string
	Rejected error
}

// Replier delivers replies to the user's chat.
type Replier interface {
	Reply(ctx context.Context, r render.Reply) error
}

// ReplierFunc adapts a function to Replier.
type ReplierFunc func(ctx context.Context, r render.Reply) error

// Reply calls f.
func (f ReplierFunc) Reply(ctx context.Context, r render.Reply) error {
	return f(ctx, r)
}

// Controller runs turns against the session store and the search collaborator.
// Turns of one user are serialized; different users run concurrently.
type Controller struct {
	store    session.Store
	locker   *session.Locker
	searcher search.Searcher
	links    affiliate.Builder
	timeout  time.Duration
	backend  string
	newID    func() string
}

// Option customizes a Controller.
type Option func(*Controller)

// WithSearchTimeout overrides DefaultSearchTimeout.
func WithSearchTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithBackendName labels search logs with the collaborator backend.
func WithBackendName(name string) Option {
	return func(c *Controller) {
		c.backend = name
	}
}

// NewController wires the dialogue dependencies.
func NewController(store session.Store, searcher search.Searcher, links affiliate.Builder, opts ...Option) (*Controller, error) {
	if store == nil {
		return nil, errors.New("dialogue: session store is nil")
	}
	if searcher == nil {
		return nil, errors.New("dialogue: searcher is nil")
	}
	c := &Controller{
		store:    store,
		locker:   session.NewLocker(),
		searcher: searcher,
		links:    links,
		timeout:  DefaultSearchTimeout,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Active reports whether the user is in the middle of a conversation.
func (c *Controller) Active(ctx context.Context, userID int64) (bool, error) {
	sess, err := c.store.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return sess.State.Active(), nil
}

// Handle runs one turn for userID and sends its replies through out.
// Reply failures do not stop the turn; they are joined into the returned error.
func (c *Controller) Handle(ctx context.Context, userID int64, in Input, out Replier) (Outcome, error) {
	unlock := c.locker.Lock(userID)
	defer unlock()

	prev, err := c.store.Get(ctx, userID)
	if err != nil {
		return Outcome{}, fmt.Errorf("dialogue: load session: %w", err)
	}

	t := Step(prev, in)
	outcome := Outcome{From: prev.State, To: t.Session.State, Rejected: t.Rejected}

	if !t.Evicts() && (t.Session != prev || t.Session.State.Active()) {
		if err := c.store.Put(ctx, userID, t.Session); err != nil {
			return outcome, fmt.Errorf("dialogue: save session: %w", err)
		}
	}

	var errs []error
	for _, eff := range t.Effects {
		switch eff.Kind {
		case EffectReply:
			errs = append(errs, out.Reply(ctx, eff.Reply))
		case EffectSearch:
			r := c.search(ctx, userID, eff.Query, &outcome)
			errs = append(errs, out.Reply(ctx, r))
		case EffectEvict:
			if err := c.store.Delete(ctx, userID); err != nil {
				errs = append(errs, fmt.Errorf("dialogue: evict session: %w", err))
			}
		}
	}

	if t.Rejected != nil {
		logger.Debug(ctx, logger.CompDialogue, "date.rejected",
			slog.Int64("user_id", userID),
			slog.String("reason", rejectReason(t.Rejected)),
		)
	}
	return outcome, errors.Join(errs...)
}

func (c *Controller) search(ctx context.Context, userID int64, q trip.BookingQuery, outcome *Outcome) render.Reply {
	outcome.SearchID = c.newID()
	start := time.Now()

	sctx, cancel := context.WithTimeout(ctx, c.timeout)
	trains, err := c.searcher.Search(sctx, q)
	cancel()

	var r render.Reply
	switch {
	case err != nil:
		outcome.Result = ResultFailed
		r = render.NoResults()
	case len(trains) == 0:
		outcome.Result = ResultEmpty
		r = render.NoResults()
	default:
		outcome.Result = ResultFound
		outcome.Trains = len(trains)
		r = render.Results(q, trains, c.links.Build(q))
	}

	attrs := []slog.Attr{
		slog.String("search_id", outcome.SearchID),
		slog.Int64("user_id", userID),
		slog.String("backend", c.backend),
		slog.String("date", q.Date.String()),
		slog.String("outcome", logger.Status(err)),
		slog.String("result", string(outcome.Result)),
		slog.Int("trains", len(trains)),
		slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
		logger.Warn(ctx, logger.CompSearch, "search.done", attrs...)
		return r
	}
	logger.Info(ctx, logger.CompSearch, "search.done", attrs...)
	return r
}

func rejectReason(err error) string {
	var verr *trip.ValidationError
	if errors.As(err, &verr) {
		return string(verr.Reason)
	}
	return "unknown"
}
