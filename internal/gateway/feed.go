package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/buger/jsonparser"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chatapp-client/internal/hub"
)

// OpDispatch is the only opcode carrying events.
const OpDispatch = 0

// Publisher receives dispatched events, normally a *hub.Hub.
type Publisher interface {
	Publish(ctx context.Context, ev hub.Event) error
}

// Envelope is the outer frame of every gateway message. Data is left
// undecoded.
type Envelope struct {
	Op       int64
	Sequence int64
	Type     string
	Data     []byte
}

// ParseEnvelope extracts the frame fields without decoding the payload.
func ParseEnvelope(frame []byte) (Envelope, error) {
	var env Envelope

	op, err := jsonparser.GetInt(frame, "op")
	if err != nil {
		return env, fmt.Errorf("reading op: %w", err)
	}
	env.Op = op

	// s and t are null outside of dispatches
	if s, err := jsonparser.GetInt(frame, "s"); err == nil {
		env.Sequence = s
	}
	if t, err := jsonparser.GetString(frame, "t"); err == nil {
		env.Type = t
	}

	data, dataType, _, err := jsonparser.Get(frame, "d")
	if err != nil && dataType != jsonparser.NotExist {
		return env, fmt.Errorf("reading d: %w", err)
	}
	env.Data = data

	return env, nil
}

// Feed forwards dispatch frames read off a websocket to a publisher.
type Feed struct {
	conn      *websocket.Conn
	publisher Publisher
	sugar     *zap.SugaredLogger
	sequence  atomic.Int64
}

func Dial(ctx context.Context, url string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	return conn, err
}

func NewFeed(conn *websocket.Conn, publisher Publisher, sugar *zap.SugaredLogger) *Feed {
	if sugar == nil {
		sugar = zap.NewNop().Sugar()
	}
	return &Feed{
		conn:      conn,
		publisher: publisher,
		sugar:     sugar,
	}
}

// Sequence is the number of the last dispatch received.
func (f *Feed) Sequence() int64 {
	return f.sequence.Load()
}

// Run reads frames until ctx is done or the connection closes. A normal
// close or cancellation returns nil. The connection is closed on return.
func (f *Feed) Run(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	defer f.conn.Close()

	go func() {
		select {
		case <-ctx.Done():
			f.conn.Close()
		case <-stop:
		}
	}()

	for {
		_, frame, err := f.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		env, err := ParseEnvelope(frame)
		if err != nil {
			f.sugar.Warnf("Dropping malformed gateway frame: %v", err)
			continue
		}

		if env.Op != OpDispatch {
			f.sugar.Debugf("Ignoring gateway op %d", env.Op)
			continue
		}
		if env.Sequence != 0 {
			f.sequence.Store(env.Sequence)
		}

		err = f.publisher.Publish(ctx, hub.Event{Name: env.Type, Data: env.Data})
		if errors.Is(err, hub.ErrClosed) || errors.Is(err, context.Canceled) {
			return nil
		} else if err != nil {
			f.sugar.Errorf("Publishing %s event failed: %v", env.Type, err)
		}
	}
}
