package state

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"chatapp-client/internal/cache"
	"chatapp-client/internal/config"
	"chatapp-client/internal/models"
	"chatapp-client/internal/snowflake"
)

// State is the process-wide entity cache. Reads are safe from any
// goroutine. The write methods of a kind must only be called by the single
// writer owning that kind (see hub.Apply).
type State struct {
	Users    *cache.Table[models.User]
	Channels *cache.Table[models.Channel]
	Guilds   *cache.Table[models.Guild]
	Messages *cache.Table[models.Message]

	self  atomic.Uint64
	sugar *zap.SugaredLogger
}

type Backends struct {
	Users    cache.Backend[models.User]
	Channels cache.Backend[models.Channel]
	Guilds   cache.Backend[models.Guild]
	Messages cache.Backend[models.Message]
}

func New(cfg config.Cache, backends Backends, sugar *zap.SugaredLogger) *State {
	if sugar == nil {
		sugar = zap.NewNop().Sugar()
	}
	return &State{
		Users:    cache.NewTable(models.KindUser, cfg.Enabled(models.KindUser), backends.Users, sugar),
		Channels: cache.NewTable(models.KindChannel, cfg.Enabled(models.KindChannel), backends.Channels, sugar),
		Guilds:   cache.NewTable(models.KindGuild, cfg.Enabled(models.KindGuild), backends.Guilds, sugar),
		Messages: cache.NewTable(models.KindMessage, cfg.Enabled(models.KindMessage), backends.Messages, sugar),
		sugar:    sugar,
	}
}

// Resolve looks up id in table. It never fetches, never writes and never
// fails: a zero id, a disabled table and a miss all come back absent.
func Resolve[T any](ctx context.Context, table *cache.Table[T], id snowflake.ID) (*T, bool) {
	if id == 0 || table == nil {
		return nil, false
	}
	return table.Get(ctx, id)
}

func (s *State) User(ctx context.Context, id snowflake.ID) (*models.User, bool) {
	return Resolve(ctx, s.Users, id)
}

func (s *State) Channel(ctx context.Context, id snowflake.ID) (*models.Channel, bool) {
	return Resolve(ctx, s.Channels, id)
}

func (s *State) Guild(ctx context.Context, id snowflake.ID) (*models.Guild, bool) {
	return Resolve(ctx, s.Guilds, id)
}

func (s *State) Message(ctx context.Context, id snowflake.ID) (*models.Message, bool) {
	return Resolve(ctx, s.Messages, id)
}

// Self is the identity of the connected account, 0 until the gateway
// reported it.
func (s *State) Self() snowflake.ID {
	return snowflake.ID(s.self.Load())
}

func (s *State) SetSelf(ctx context.Context, u *models.User) error {
	if u == nil {
		return nil
	}
	s.self.Store(uint64(u.ID))
	return s.UpsertUser(ctx, u)
}

func (s *State) UpsertUser(ctx context.Context, u *models.User) error {
	return s.Users.Put(ctx, u.ID, u)
}

func (s *State) UpsertChannel(ctx context.Context, c *models.Channel) error {
	return s.Channels.Put(ctx, c.ID, c)
}

func (s *State) UpsertGuild(ctx context.Context, g *models.Guild) error {
	return s.Guilds.Put(ctx, g.ID, g)
}

func (s *State) UpsertMessage(ctx context.Context, m *models.Message) error {
	return s.Messages.Put(ctx, m.ID(), m)
}

// MergeMessage applies a partial update to the cached message id and
// returns the merged message. A message that was not cached is built from
// the update alone and only stored when it names its channel.
func (s *State) MergeMessage(ctx context.Context, id snowflake.ID, data []byte) (*models.Message, error) {
	var merged *models.Message
	err := s.Messages.Update(ctx, id, func(current *models.Message, found bool) (*models.Message, error) {
		if !found {
			current = models.Placeholder(id, 0, 0)
		}
		next, err := models.MergeMessage(current, data)
		if err != nil {
			return nil, err
		}
		merged = next
		if !found && next.ChannelID() == 0 {
			return nil, nil
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	// disabled table
	if merged == nil {
		return models.MergeMessage(models.Placeholder(id, 0, 0), data)
	}
	return merged, nil
}

// UpdateReactions replaces the cached message id with a copy changed by fn.
// Uncached messages are left alone.
func (s *State) UpdateReactions(ctx context.Context, id snowflake.ID, fn func(m *models.Message)) error {
	return s.Messages.Update(ctx, id, func(current *models.Message, found bool) (*models.Message, error) {
		if !found {
			return nil, nil
		}
		next := current.Clone()
		fn(next)
		return next, nil
	})
}

func (s *State) RemoveUser(ctx context.Context, id snowflake.ID) error {
	return s.Users.Remove(ctx, id)
}

func (s *State) RemoveChannel(ctx context.Context, id snowflake.ID) error {
	return s.Channels.Remove(ctx, id)
}

func (s *State) RemoveGuild(ctx context.Context, id snowflake.ID) error {
	return s.Guilds.Remove(ctx, id)
}

func (s *State) RemoveMessage(ctx context.Context, id snowflake.ID) error {
	return s.Messages.Remove(ctx, id)
}

// Observe refreshes the user record from the author snapshot of m. Webhook
// authors are not real users and are skipped.
func (s *State) Observe(ctx context.Context, m *models.Message) error {
	if m == nil || m.IsWebhook() || m.Author.ID == 0 {
		return nil
	}
	author := m.Author
	return s.UpsertUser(ctx, &author)
}
