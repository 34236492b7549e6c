package engine

import (
	"context"
	"log/slog"
	"sync"

	"ticker_go/internal/domain"
	"ticker_go/internal/event"
)

// Surface renders feed updates. Apply is called from the dispatcher
// goroutine and must not block for long.
type Surface interface {
	Name() string
	Apply(ev event.Event)
}

// Dispatcher is the single-goroutine fan-out from the refresh orchestrators
// to every open rendering surface.
type Dispatcher struct {
	inbox chan event.Event

	// Hotpath state, owned by Run.
	lastSeq map[domain.Feed]uint64

	mu       sync.RWMutex // guards surfaces and latest
	surfaces map[string]Surface
	latest   map[domain.Feed]event.Event

	onDeliver func(event.Event)
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher with a buffered inbox.
func NewDispatcher(inboxSize int, onDeliver func(event.Event)) *Dispatcher {
	return &Dispatcher{
		inbox:     make(chan event.Event, inboxSize),
		lastSeq:   make(map[domain.Feed]uint64),
		surfaces:  make(map[string]Surface),
		latest:    make(map[domain.Feed]event.Event),
		onDeliver: onDeliver,
		logger:    slog.Default().With("module", "dispatcher"),
	}
}

// Publish enqueues ev, giving up when ctx is done.
func (d *Dispatcher) Publish(ctx context.Context, ev event.Event) error {
	select {
	case d.inbox <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register adds a surface and replays the latest update of every feed to it.
// The returned func unregisters it.
func (d *Dispatcher) Register(s Surface) func() {
	d.mu.Lock()
	d.surfaces[s.Name()] = s
	replay := make([]event.Event, 0, len(d.latest))
	for _, feed := range []domain.Feed{domain.FeedHeadlines, domain.FeedQuotes} {
		if ev, ok := d.latest[feed]; ok {
			replay = append(replay, ev)
		}
	}
	d.mu.Unlock()

	for _, ev := range replay {
		s.Apply(ev)
	}
	d.logger.Debug("Surface registered", slog.String("surface", s.Name()))

	return func() {
		d.mu.Lock()
		delete(d.surfaces, s.Name())
		d.mu.Unlock()
	}
}

// Run starts the main event loop. This MUST be run in a single goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("Dispatcher started")

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Dispatcher stopping...")
			return
		case ev := <-d.inbox:
			d.processEvent(ev)
		}
	}
}

func (d *Dispatcher) processEvent(ev event.Event) {
	// 1. Ordering: an update carrying data older than the last delivered one
	// for the same feed finished late and must not overwrite newer content.
	// Equal seqs are redraws of the same data and pass.
	feed := event.Feed(ev)
	if feed != "" {
		if last, ok := d.lastSeq[feed]; ok && ev.GetSeq() < last {
			d.logger.Debug("Dropping out-of-order update",
				slog.String("feed", string(feed)),
				slog.Uint64("seq", ev.GetSeq()),
				slog.Uint64("last", last),
			)
			return
		}
		d.lastSeq[feed] = ev.GetSeq()
	}

	// 2. Snapshot for late-registering surfaces
	d.mu.Lock()
	if feed != "" {
		d.latest[feed] = ev
	}
	targets := make([]Surface, 0, len(d.surfaces))
	for _, s := range d.surfaces {
		targets = append(targets, s)
	}
	d.mu.Unlock()

	// 3. Fan-out
	for _, s := range targets {
		d.apply(s, ev)
	}

	if d.onDeliver != nil {
		d.onDeliver(ev)
	}
}

func (d *Dispatcher) apply(s Surface, ev event.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Surface panic recovered",
				slog.String("surface", s.Name()),
				slog.Any("panic", r),
			)
		}
	}()
	s.Apply(ev)
}
