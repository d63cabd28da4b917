package hub

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"chatapp-client/internal/async"
	"chatapp-client/internal/metrics"
	"chatapp-client/internal/models"
	"chatapp-client/internal/state"
)

var (
	ErrClosed       = errors.New("hub is closed")
	ErrUnknownKind  = errors.New("unknown entity kind")
	ErrUnknownEvent = errors.New("unknown event")
)

const queueSize = 1024

// Event is a gateway dispatch: the event name and its raw payload.
type Event struct {
	Name string
	Data []byte
}

type job func(ctx context.Context)

// worker is the single writer of one entity kind. Jobs run in the order
// they were queued.
type worker struct {
	kind  models.Kind
	queue chan job
	done  chan struct{}
}

// Hub routes events and application writes to the writer owning the kind
// they mutate, then notifies subscribers.
type Hub struct {
	state  *state.State
	sugar  *zap.SugaredLogger
	pubSub LocalPubSub

	workers map[models.Kind]*worker

	mutex   sync.RWMutex
	started bool
	closed  bool
}

// messages are closed first since the message writer feeds the user writer
var closeOrder = []models.Kind{models.KindMessage, models.KindChannel, models.KindGuild, models.KindUser}

func New(s *state.State, sugar *zap.SugaredLogger) *Hub {
	if sugar == nil {
		sugar = zap.NewNop().Sugar()
	}

	h := &Hub{
		state:   s,
		sugar:   sugar,
		workers: make(map[models.Kind]*worker),
	}
	h.pubSub.Setup()

	for _, kind := range closeOrder {
		h.workers[kind] = &worker{
			kind:  kind,
			queue: make(chan job, queueSize),
			done:  make(chan struct{}),
		}
	}
	return h
}

// Run starts the writers. They stop once ctx is done or Close is called,
// after draining what was already queued.
func (h *Hub) Run(ctx context.Context) {
	h.mutex.Lock()
	if h.started || h.closed {
		h.mutex.Unlock()
		return
	}
	h.started = true
	h.mutex.Unlock()

	jobCtx := context.WithoutCancel(ctx)
	for _, w := range h.workers {
		go h.work(jobCtx, w)
	}

	go func() {
		<-ctx.Done()
		h.Close()
	}()
}

func (h *Hub) work(ctx context.Context, w *worker) {
	defer close(w.done)

	h.sugar.Debugf("Starting %s writer", w.kind)
	for j := range w.queue {
		j(ctx)
	}
	h.sugar.Debugf("Stopped %s writer", w.kind)
}

// Close stops accepting work and waits until every queued job ran.
func (h *Hub) Close() {
	h.mutex.Lock()
	if h.closed {
		h.mutex.Unlock()
		return
	}
	h.closed = true
	started := h.started
	h.mutex.Unlock()

	for _, kind := range closeOrder {
		w := h.workers[kind]
		close(w.queue)
		if started {
			<-w.done
		}
	}
}

func (h *Hub) enqueue(ctx context.Context, kind models.Kind, j job) error {
	w, ok := h.workers[kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if h.closed {
		return ErrClosed
	}

	select {
	case w.queue <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publish queues ev on the writer of the kind it mutates. It blocks while
// that queue is full. Unknown events are ignored.
func (h *Hub) Publish(ctx context.Context, ev Event) error {
	kind, ok := KindOf(ev.Name)
	if !ok {
		h.sugar.Debugf("Ignoring %s event", ev.Name)
		metrics.HubEvents.WithLabelValues(ev.Name, "ignored").Inc()
		return nil
	}

	return h.enqueue(ctx, kind, func(ctx context.Context) {
		h.handle(ctx, ev)
	})
}

// Apply runs fn on the writer owning kind, ordered after everything queued
// for that kind before it.
func (h *Hub) Apply(ctx context.Context, kind models.Kind, fn func(ctx context.Context, s *state.State) error) *async.Future[struct{}] {
	future := async.NewFuture[struct{}]()
	err := h.enqueue(ctx, kind, func(ctx context.Context) {
		future.Resolve(struct{}{}, fn(ctx, h.state))
	})
	if err != nil {
		future.Resolve(struct{}{}, err)
	}
	return future
}

// Subscribe registers fn for eventName and returns a function removing it.
// Handlers run on the writer goroutine and delay later events of that
// kind while they run.
func (h *Hub) Subscribe(eventName string, fn Handler) func() {
	id := h.pubSub.Subscribe(eventName, fn)
	return func() {
		h.pubSub.Unsubscribe(eventName, id)
	}
}

func (h *Hub) handle(ctx context.Context, ev Event) {
	entity, err := h.apply(ctx, ev)
	if err != nil {
		var decodeErr *models.DecodeError
		if errors.As(err, &decodeErr) {
			h.sugar.Warnf("Dropping %s event: %v", ev.Name, err)
			metrics.HubEvents.WithLabelValues(ev.Name, "decode_error").Inc()
			return
		}
		h.sugar.Errorf("Applying %s event failed: %v", ev.Name, err)
		metrics.HubEvents.WithLabelValues(ev.Name, "error").Inc()
		return
	}

	metrics.HubEvents.WithLabelValues(ev.Name, "applied").Inc()
	if m, ok := entity.(*models.Message); ok {
		entity = m.Clone()
	}
	h.pubSub.Publish(ctx, ev.Name, entity)
}
