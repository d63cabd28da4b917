package dispatch

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatapp-client/internal/async"
	"chatapp-client/internal/metrics"
	"chatapp-client/internal/models"
	"chatapp-client/internal/rest"
	"chatapp-client/internal/snowflake"
	"chatapp-client/internal/validator"
)

// EditMessage holds the fields an edit may change. Nil fields are left as
// they are.
type EditMessage struct {
	Content *string        `json:"content,omitempty" validate:"omitempty,max=2000"`
	Embeds  []models.Embed `json:"embeds,omitempty" validate:"omitempty,max=10,dive"`
	Flags   *int           `json:"flags,omitempty"`
}

type createMessage struct {
	Content string         `json:"content"`
	Nonce   snowflake.ID   `json:"nonce,omitempty"`
	TTS     bool           `json:"tts,omitempty"`
	Embeds  []models.Embed `json:"embeds,omitempty"`
}

// Dispatcher turns message commands into REST calls. It never writes the
// cache; callers merge results themselves.
type Dispatcher struct {
	transport rest.Transport
	executor  async.Executor
	sugar     *zap.SugaredLogger
}

type Option func(d *Dispatcher)

func WithExecutor(e async.Executor) Option {
	return func(d *Dispatcher) {
		d.executor = e
	}
}

func WithLogger(sugar *zap.SugaredLogger) Option {
	return func(d *Dispatcher) {
		d.sugar = sugar
	}
}

func New(t rest.Transport, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		transport: t,
		executor:  async.Goroutines{},
		sugar:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// command is one tracked invocation.
type command struct {
	op         string
	trackingID string
	messageID  snowflake.ID
	channelID  snowflake.ID
}

func (d *Dispatcher) start(op string, m *models.Message) command {
	cmd := command{op: op, trackingID: uuid.NewString()}
	if m != nil {
		cmd.messageID = m.ID()
		cmd.channelID = m.ChannelID()
	}
	return cmd
}

func (d *Dispatcher) reject(cmd command, err error) error {
	d.sugar.Debugf("[%s] %s of message [%d] rejected locally: %v", cmd.trackingID, cmd.op, cmd.messageID, err)
	metrics.Commands.WithLabelValues(cmd.op, "rejected").Inc()
	return err
}

// send emits req and resolves with decode applied to the reply. The wait
// and the decoding run as one job on the executor.
func send[T any](ctx context.Context, d *Dispatcher, cmd command, req rest.Request, decode func(rest.Reply) (T, error)) *async.Future[T] {
	d.sugar.Debugf("[%s] %s message [%d] in channel [%d]", cmd.trackingID, cmd.op, cmd.messageID, cmd.channelID)

	sent := d.transport.Send(ctx, req)
	return async.Run(d.executor, func() (T, error) {
		var value T
		reply, err := sent.Wait(context.Background())
		if err == nil {
			value, err = decode(reply)
		}

		if err != nil {
			d.sugar.Warnf("[%s] %s of message [%d] failed: %v", cmd.trackingID, cmd.op, cmd.messageID, err)
			metrics.Commands.WithLabelValues(cmd.op, "failed").Inc()
			return value, err
		}
		d.sugar.Debugf("[%s] %s of message [%d] done", cmd.trackingID, cmd.op, cmd.messageID)
		metrics.Commands.WithLabelValues(cmd.op, "ok").Inc()
		return value, nil
	})
}

func rawReply(reply rest.Reply) (rest.Reply, error) {
	return reply, nil
}

func decodeMessage(reply rest.Reply) (*models.Message, error) {
	return models.FromPayload(reply.Body)
}

func requireIdentity(m *models.Message) error {
	if m == nil || m.ID() == 0 {
		return ErrMissingMessageID
	}
	if m.ChannelID() == 0 {
		return ErrMissingChannelID
	}
	return nil
}

// requireGuild rejects operations the platform does not offer in DMs.
func requireGuild(m *models.Message) error {
	if m.IsDM() {
		return ErrUnavailableInDM
	}
	return nil
}

func (d *Dispatcher) Delete(ctx context.Context, m *models.Message) (*async.Future[rest.Reply], error) {
	cmd := d.start("delete", m)
	if err := requireIdentity(m); err != nil {
		return nil, d.reject(cmd, err)
	}
	return send(ctx, d, cmd, rest.DeleteMessage(m.ChannelID(), m.ID()), rawReply), nil
}

// Edit replaces the content of m and resolves with the message as the
// platform returned it. m itself is not changed.
func (d *Dispatcher) Edit(ctx context.Context, m *models.Message, content string) (*async.Future[*models.Message], error) {
	return d.EditWith(ctx, m, EditMessage{Content: &content})
}

func (d *Dispatcher) EditWith(ctx context.Context, m *models.Message, edit EditMessage) (*async.Future[*models.Message], error) {
	cmd := d.start("edit", m)
	if err := requireIdentity(m); err != nil {
		return nil, d.reject(cmd, err)
	}
	if err := validator.Struct(edit); err != nil {
		return nil, d.reject(cmd, fmt.Errorf("%w: %v", ErrInvalidEdit, err))
	}

	body, err := json.Marshal(edit)
	if err != nil {
		return nil, err
	}

	req := rest.EditMessage(m.ChannelID(), m.ID())
	req.Body = body
	return send(ctx, d, cmd, req, decodeMessage), nil
}

// Create sends a synthesized message and resolves with the message the
// platform created.
func (d *Dispatcher) Create(ctx context.Context, m *models.Message) (*async.Future[*models.Message], error) {
	cmd := d.start("create", m)
	if m == nil || m.ChannelID() == 0 {
		return nil, d.reject(cmd, ErrMissingChannelID)
	}
	if m.ID() != 0 {
		return nil, d.reject(cmd, ErrAlreadyCreated)
	}

	body, err := json.Marshal(createMessage{
		Content: m.Content(),
		Nonce:   m.Nonce,
		TTS:     m.TTS,
		Embeds:  m.Embeds,
	})
	if err != nil {
		return nil, err
	}

	req := rest.CreateMessage(m.ChannelID())
	req.Body = body
	return send(ctx, d, cmd, req, decodeMessage), nil
}

// AddReaction reacts to m as the connected account. emoji is either a
// unicode emoji or name:id and is passed through unchecked.
func (d *Dispatcher) AddReaction(ctx context.Context, m *models.Message, emoji string) (*async.Future[rest.Reply], error) {
	cmd := d.start("add_reaction", m)
	if err := requireIdentity(m); err != nil {
		return nil, d.reject(cmd, err)
	}
	return send(ctx, d, cmd, rest.AddOwnReaction(m.ChannelID(), m.ID(), emoji), rawReply), nil
}

func (d *Dispatcher) RemoveOwnReaction(ctx context.Context, m *models.Message, emoji string) (*async.Future[rest.Reply], error) {
	cmd := d.start("remove_own_reaction", m)
	if err := requireIdentity(m); err != nil {
		return nil, d.reject(cmd, err)
	}
	return send(ctx, d, cmd, rest.DeleteOwnReaction(m.ChannelID(), m.ID(), emoji), rawReply), nil
}

// RemoveUserReaction removes the reaction of another user. It is rejected
// locally in DMs.
func (d *Dispatcher) RemoveUserReaction(ctx context.Context, m *models.Message, emoji string, userID snowflake.ID) (*async.Future[rest.Reply], error) {
	cmd := d.start("remove_user_reaction", m)
	if err := requireIdentity(m); err != nil {
		return nil, d.reject(cmd, err)
	}
	if userID == 0 {
		return nil, d.reject(cmd, ErrMissingUserID)
	}
	if err := requireGuild(m); err != nil {
		return nil, d.reject(cmd, err)
	}
	return send(ctx, d, cmd, rest.DeleteUserReaction(m.ChannelID(), m.ID(), emoji, userID), rawReply), nil
}

// RemoveAllReactions clears every reaction on m. It is rejected locally in
// DMs.
func (d *Dispatcher) RemoveAllReactions(ctx context.Context, m *models.Message) (*async.Future[rest.Reply], error) {
	cmd := d.start("remove_all_reactions", m)
	if err := requireIdentity(m); err != nil {
		return nil, d.reject(cmd, err)
	}
	if err := requireGuild(m); err != nil {
		return nil, d.reject(cmd, err)
	}
	return send(ctx, d, cmd, rest.DeleteAllReactions(m.ChannelID(), m.ID()), rawReply), nil
}
