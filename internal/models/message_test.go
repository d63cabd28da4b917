package models_test

import (
	"context"
	"errors"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatapp-client/internal/models"
	"chatapp-client/internal/snowflake"
)

const guildMessage = `{
	"id": "1100",
	"channel_id": "2200",
	"guild_id": "3300",
	"author": {"id": "4400", "username": "alice", "avatar": "a1", "bot": false},
	"content": "hello",
	"timestamp": "2020-01-01T00:00:00.000000+00:00",
	"edited_timestamp": null,
	"tts": false,
	"mention_everyone": true,
	"mentions": [{"id": "4401", "username": "bob"}, {"id": "4402", "username": "carol"}, {"id": "4401", "username": "bob"}],
	"mention_roles": ["5500", "5501"],
	"attachments": [{"id": "6600", "filename": "a.png", "size": 12, "url": "https://cdn/a.png"}],
	"embeds": [{"title": "t", "description": "d", "fields": [{"name": "n", "value": "v"}]}],
	"reactions": [{"count": 2, "me": true, "emoji": {"name": "👍"}}, {"count": 1, "me": false, "emoji": {"id": "7700", "name": "blob"}}],
	"pinned": true,
	"nonce": "8800",
	"type": 0
}`

type fakeLookup struct {
	users    map[snowflake.ID]*models.User
	channels map[snowflake.ID]*models.Channel
	guilds   map[snowflake.ID]*models.Guild
	calls    int
}

func (f *fakeLookup) User(_ context.Context, id snowflake.ID) (*models.User, bool) {
	f.calls++
	u, ok := f.users[id]
	return u, ok
}

func (f *fakeLookup) Channel(_ context.Context, id snowflake.ID) (*models.Channel, bool) {
	f.calls++
	c, ok := f.channels[id]
	return c, ok
}

func (f *fakeLookup) Guild(_ context.Context, id snowflake.ID) (*models.Guild, bool) {
	f.calls++
	g, ok := f.guilds[id]
	return g, ok
}

func TestDecodeMessage(t *testing.T) {
	m, err := models.DecodeMessage([]byte(guildMessage))
	require.NoError(t, err)

	assert.Equal(t, snowflake.ID(1100), m.ID())
	assert.Equal(t, snowflake.ID(2200), m.ChannelID())
	assert.Equal(t, snowflake.ID(3300), m.GuildID())
	assert.Equal(t, snowflake.ID(4400), m.AuthorID())
	assert.Equal(t, "alice", m.Author.Username)
	assert.Equal(t, "hello", m.Content())
	assert.True(t, m.ContentEquals("hello"))
	assert.True(t, m.MentionEveryone)
	assert.True(t, m.Pinned)
	assert.Empty(t, m.EditedTimestamp)
	assert.Equal(t, []snowflake.ID{4401, 4402, 4401}, m.Mentions, "mentions keep order and duplicates")
	assert.Equal(t, []snowflake.ID{5500, 5501}, m.MentionRoles)
	require.Len(t, m.Reactions, 2)
	assert.Equal(t, "blob:7700", m.Reactions[1].Emoji.APIName())
	assert.Equal(t, snowflake.ID(8800), m.Nonce)
	assert.Equal(t, models.MessageDefault, m.Type)
	assert.False(t, m.IsDM())
	assert.False(t, m.IsWebhook())
}

func TestDecodeMessageDefaults(t *testing.T) {
	m, err := models.DecodeMessage([]byte(`{}`))
	require.NoError(t, err)

	assert.Zero(t, m.ID())
	assert.Zero(t, m.ChannelID())
	assert.Zero(t, m.GuildID())
	assert.Zero(t, m.AuthorID())
	assert.Empty(t, m.Content())
	assert.Empty(t, m.Timestamp)
	assert.False(t, m.TTS)
	assert.False(t, m.Pinned)
	assert.Nil(t, m.Mentions)
	assert.Nil(t, m.Embeds)
	assert.False(t, m.HasChannel())
	assert.False(t, m.HasGuild())
	assert.False(t, m.HasMember())
}

func TestDecodeMessageMissingGuildIsDM(t *testing.T) {
	m, err := models.DecodeMessage([]byte(`{"id": "1", "channel_id": "2", "content": "hi"}`))
	require.NoError(t, err)

	assert.Zero(t, m.GuildID())
	assert.True(t, m.IsDM())
}

func TestWebhookMessage(t *testing.T) {
	m, err := models.DecodeMessage([]byte(`{"id": "1", "channel_id": "2", "webhook_id": "123", "author": {"id": "0", "username": "hook"}}`))
	require.NoError(t, err)

	assert.True(t, m.IsWebhook())
	assert.Zero(t, m.AuthorID())
	assert.Zero(t, m.RelatedIDs().AuthorID)
}

func TestDecodeMessageErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{name: "malformed id", input: `{"id": "abc"}`, field: "id"},
		{name: "malformed channel id", input: `{"channel_id": true}`, field: "channel_id"},
		{name: "content not a string", input: `{"content": 5}`, field: "content"},
		{name: "unknown type", input: `{"type": 42}`, field: "type"},
		{name: "bad mention", input: `{"mentions": [{"id": "x"}]}`, field: "mentions[0]"},
		{name: "not an object", input: `[]`, field: ""},
		{name: "null payload", input: `null`, field: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := models.DecodeMessage([]byte(tc.input))
			require.Error(t, err)

			var decodeErr *models.DecodeError
			require.True(t, errors.As(err, &decodeErr), "got %T", err)
			assert.Equal(t, tc.field, decodeErr.Field)
		})
	}
}

func TestFromPayloadRequiresIdentities(t *testing.T) {
	_, err := models.FromPayload([]byte(`{"channel_id": "2"}`))
	var decodeErr *models.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "id", decodeErr.Field)
	assert.ErrorIs(t, err, models.ErrMissingField)

	_, err = models.FromPayload([]byte(`{"id": "1"}`))
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "channel_id", decodeErr.Field)

	m, err := models.FromPayload([]byte(`{"id": "1", "channel_id": "2"}`))
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(1), m.ID())
}

func TestRoundTrip(t *testing.T) {
	payloads := []string{
		guildMessage,
		`{"id": "1", "channel_id": "2", "content": "dm"}`,
		`{"id": "1", "channel_id": "2", "guild_id": "3", "webhook_id": "99", "type": 6, "edited_timestamp": "2021-01-01T00:00:00+00:00"}`,
		`{}`,
	}

	for _, payload := range payloads {
		original, err := models.DecodeMessage([]byte(payload))
		require.NoError(t, err)

		encoded, err := models.EncodeMessage(original)
		require.NoError(t, err)

		decoded, err := models.DecodeMessage(encoded)
		require.NoError(t, err)

		assert.Equal(t, original, decoded, "payload %s", payload)
	}
}

func TestRelatedIDs(t *testing.T) {
	m, err := models.DecodeMessage([]byte(guildMessage))
	require.NoError(t, err)

	ids := m.RelatedIDs()
	assert.Equal(t, models.RelatedIDs{
		ChannelID: m.ChannelRef().ID,
		GuildID:   m.GuildRef().ID,
		MessageID: m.ID(),
		AuthorID:  m.AuthorRef().ID,
	}, ids)
}

func TestIsDMMatchesGuildIdentity(t *testing.T) {
	for _, payload := range []string{guildMessage, `{"id": "1"}`, `{"guild_id": "0"}`, `{"guild_id": null}`, `{"guild_id": 7}`} {
		m, err := models.DecodeMessage([]byte(payload))
		require.NoError(t, err)
		assert.Equal(t, m.GuildID() == 0, m.IsDM(), payload)
	}
}

func TestImmutableIdentity(t *testing.T) {
	m := models.Placeholder(0, 2, 0)
	require.NoError(t, m.SetID(10))
	require.NoError(t, m.SetID(10))
	assert.ErrorIs(t, m.SetID(11), models.ErrIdentityChange)
	assert.Equal(t, snowflake.ID(10), m.ID())
}

func TestResolution(t *testing.T) {
	m, err := models.DecodeMessage([]byte(guildMessage))
	require.NoError(t, err)

	lookup := &fakeLookup{
		channels: map[snowflake.ID]*models.Channel{2200: {ID: 2200, GuildID: 3300, Name: "general"}},
		users:    map[snowflake.ID]*models.User{4400: {ID: 4400, Username: "alice-renamed"}},
	}
	ctx := context.Background()

	channel, ok := m.Channel(ctx, lookup)
	require.True(t, ok)
	assert.Equal(t, "general", channel.Name)

	_, ok = m.Guild(ctx, lookup)
	assert.False(t, ok, "guild is not cached")
	assert.True(t, m.HasGuild())

	user, ok := m.User(ctx, lookup)
	require.True(t, ok)
	assert.Equal(t, "alice-renamed", user.Username)
	assert.Equal(t, "alice", m.Author.Username, "author snapshot is not a live reference")

	// lookups are not remembered
	delete(lookup.channels, 2200)
	_, ok = m.Channel(ctx, lookup)
	assert.False(t, ok)
}

func TestResolutionSkipsZeroIdentity(t *testing.T) {
	m := models.Placeholder(1, 2, 0)
	lookup := &fakeLookup{}

	_, ok := m.Guild(context.Background(), lookup)
	assert.False(t, ok)
	_, ok = m.User(context.Background(), lookup)
	assert.False(t, ok)
	assert.Zero(t, lookup.calls)
}

func TestSynthesized(t *testing.T) {
	channel := &models.Channel{ID: 20, GuildID: 30}
	m := models.Synthesized("hi", channel, nil)

	assert.Zero(t, m.ID())
	assert.Equal(t, snowflake.ID(20), m.ChannelID())
	assert.Equal(t, snowflake.ID(30), m.GuildID(), "guild identity comes from the channel")
	assert.True(t, m.ChannelRef().Attached())
	assert.NotZero(t, m.Nonce)

	channel.ID = 99
	assert.Equal(t, snowflake.ID(20), m.ChannelID(), "record is not retained")

	dm := models.Synthesized("hi", &models.Channel{ID: 5, Type: models.ChannelDM}, nil)
	assert.True(t, dm.IsDM())

	attachedOnly := models.Synthesized("hi", &models.Channel{}, nil)
	assert.True(t, attachedOnly.HasChannel(), "attached ref counts as present")
}

func TestCloneIsIndependent(t *testing.T) {
	m, err := models.DecodeMessage([]byte(guildMessage))
	require.NoError(t, err)

	c := m.Clone()
	c.Mentions[0] = 1
	c.Reactions[0].Count = 100
	c.SetContent("changed")

	assert.Equal(t, snowflake.ID(4401), m.Mentions[0])
	assert.Equal(t, 2, m.Reactions[0].Count)
	assert.Equal(t, "hello", m.Content())
}

func TestReactions(t *testing.T) {
	m := models.Placeholder(1, 2, 3)
	thumbs := models.Emoji{Name: "👍"}

	m.AddReaction(thumbs, false)
	m.AddReaction(thumbs, true)
	m.AddReaction(models.Emoji{ID: 9, Name: "blob"}, false)
	require.Len(t, m.Reactions, 2)
	assert.Equal(t, 2, m.Reactions[0].Count)
	assert.True(t, m.Reactions[0].Me)

	m.RemoveReaction(thumbs, true)
	assert.Equal(t, 1, m.Reactions[0].Count)
	assert.False(t, m.Reactions[0].Me)

	m.RemoveReaction(thumbs, false)
	require.Len(t, m.Reactions, 1)
	assert.Equal(t, "blob:9", m.Reactions[0].Emoji.APIName())
}

func TestMessageTypeString(t *testing.T) {
	assert.Equal(t, "ChannelPinnedMessage", models.MessageChannelPinnedMessage.String())
	assert.Equal(t, "MessageType(9)", models.MessageType(9).String())
}

func TestEncodeMessageShape(t *testing.T) {
	m := models.Placeholder(1, 2, 0)
	data, err := models.EncodeMessage(m)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "1", out["id"])
	assert.Equal(t, "2", out["channel_id"])
	assert.NotContains(t, out, "guild_id")
	assert.Nil(t, out["edited_timestamp"])
	assert.Equal(t, []any{}, out["mentions"])
}
