package hub

import (
	"context"
	"fmt"

	"github.com/buger/jsonparser"
	json "github.com/goccy/go-json"

	"chatapp-client/internal/models"
	"chatapp-client/internal/snowflake"
)

// Reaction is the entity handed to subscribers of reaction events.
type Reaction struct {
	UserID    snowflake.ID `json:"user_id"`
	ChannelID snowflake.ID `json:"channel_id"`
	MessageID snowflake.ID `json:"message_id"`
	GuildID   snowflake.ID `json:"guild_id"`
	Emoji     models.Emoji `json:"emoji"`
}

// readID reads an identity field without decoding the rest of the payload.
func readID(data []byte, key string) (snowflake.ID, error) {
	value, dataType, _, err := jsonparser.Get(data, key)
	if dataType == jsonparser.NotExist || dataType == jsonparser.Null {
		return 0, &models.DecodeError{Field: key, Err: models.ErrMissingField}
	}
	if err != nil {
		return 0, &models.DecodeError{Field: key, Err: err}
	}

	id, err := snowflake.Parse(string(value))
	if err != nil {
		return 0, &models.DecodeError{Field: key, Err: err}
	}
	return id, nil
}

func decodeReaction(data []byte) (*Reaction, error) {
	var r Reaction
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &models.DecodeError{Err: err}
	}
	if r.MessageID == 0 {
		return nil, &models.DecodeError{Field: "message_id", Err: models.ErrMissingField}
	}
	return &r, nil
}

// apply writes ev into the cache and returns the entity subscribers get.
// It runs on the writer of the event's kind.
func (h *Hub) apply(ctx context.Context, ev Event) (any, error) {
	s := h.state

	switch ev.Name {
	case Ready:
		data, _, _, err := jsonparser.Get(ev.Data, "user")
		if err != nil {
			return nil, &models.DecodeError{Field: "user", Err: err}
		}
		u, err := models.DecodeUser(data)
		if err != nil {
			return nil, err
		}
		return u, s.SetSelf(ctx, u)

	case UserModified:
		u, err := models.DecodeUser(ev.Data)
		if err != nil {
			return nil, err
		}
		return u, s.UpsertUser(ctx, u)

	case GuildCreated, GuildModified:
		g, err := models.DecodeGuild(ev.Data)
		if err != nil {
			return nil, err
		}
		return g, s.UpsertGuild(ctx, g)

	case GuildDeleted:
		g, err := models.DecodeGuild(ev.Data)
		if err != nil {
			return nil, err
		}
		return g, s.RemoveGuild(ctx, g.ID)

	case ChannelCreated, ChannelModified:
		c, err := models.DecodeChannel(ev.Data)
		if err != nil {
			return nil, err
		}
		return c, s.UpsertChannel(ctx, c)

	case ChannelDeleted:
		c, err := models.DecodeChannel(ev.Data)
		if err != nil {
			return nil, err
		}
		return c, s.RemoveChannel(ctx, c.ID)

	case MessageCreated:
		m, err := models.FromPayload(ev.Data)
		if err != nil {
			return nil, err
		}
		if err := s.UpsertMessage(ctx, m); err != nil {
			return nil, err
		}
		h.observe(m)
		return m, nil

	case MessageModified:
		id, err := readID(ev.Data, "id")
		if err != nil {
			return nil, err
		}
		return s.MergeMessage(ctx, id, ev.Data)

	case MessageDeleted:
		id, err := readID(ev.Data, "id")
		if err != nil {
			return nil, err
		}
		channelID, err := readID(ev.Data, "channel_id")
		if err != nil {
			return nil, err
		}
		// DMs carry no guild_id
		guildID, _ := readID(ev.Data, "guild_id")
		return models.Placeholder(id, channelID, guildID), s.RemoveMessage(ctx, id)

	case ReactionAdded:
		r, err := decodeReaction(ev.Data)
		if err != nil {
			return nil, err
		}
		me := r.UserID != 0 && r.UserID == s.Self()
		return r, s.UpdateReactions(ctx, r.MessageID, func(m *models.Message) {
			m.AddReaction(r.Emoji, me)
		})

	case ReactionRemoved:
		r, err := decodeReaction(ev.Data)
		if err != nil {
			return nil, err
		}
		me := r.UserID != 0 && r.UserID == s.Self()
		return r, s.UpdateReactions(ctx, r.MessageID, func(m *models.Message) {
			m.RemoveReaction(r.Emoji, me)
		})

	case ReactionsRemovedAll:
		r, err := decodeReaction(ev.Data)
		if err != nil {
			return nil, err
		}
		return r, s.UpdateReactions(ctx, r.MessageID, func(m *models.Message) {
			m.Reactions = nil
		})
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, ev.Name)
}

// observe refreshes the author on the user writer. The user queue is only
// closed after the message writer stopped, so this send is always safe.
func (h *Hub) observe(m *models.Message) {
	if m.IsWebhook() || m.Author.ID == 0 {
		return
	}
	h.workers[models.KindUser].queue <- func(ctx context.Context) {
		if err := h.state.Observe(ctx, m); err != nil {
			h.sugar.Warnf("Caching author [%d] of message [%d] failed: %v", m.AuthorID(), m.ID(), err)
		}
	}
}
