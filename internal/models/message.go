package models

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"chatapp-client/internal/snowflake"
)

type MessageType int

const (
	MessageDefault MessageType = iota
	MessageRecipientAdd
	MessageRecipientRemove
	MessageCall
	MessageChannelNameChange
	MessageChannelIconChange
	MessageChannelPinnedMessage
	MessageGuildMemberJoin
)

var messageTypeNames = [...]string{
	"Default",
	"RecipientAdd",
	"RecipientRemove",
	"Call",
	"ChannelNameChange",
	"ChannelIconChange",
	"ChannelPinnedMessage",
	"GuildMemberJoin",
}

func (t MessageType) Valid() bool {
	return t >= MessageDefault && t <= MessageGuildMemberJoin
}

func (t MessageType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("MessageType(%d)", int(t))
	}
	return messageTypeNames[t]
}

var ErrIdentityChange = errors.New("message identity is already set")

// Message is a chat message. Its identity never changes once set; content,
// flags and collections are mutable. Parent entities are held as weak refs.
type Message struct {
	id      snowflake.ID
	channel Ref
	guild   Ref
	author  Ref
	content string

	Timestamp       string
	EditedTimestamp string
	TTS             bool
	MentionEveryone bool
	Pinned          bool
	Mentions        []snowflake.ID
	MentionRoles    []snowflake.ID
	Attachments     []Attachment
	Embeds          []Embed
	Reactions       []Reaction
	Nonce           snowflake.ID
	WebhookID       string
	Type            MessageType

	// Author is the author as seen when the message was sent. It is a copy,
	// not a live reference, so history keeps the old name and avatar.
	Author User
}

// RelatedIDs holds the identities a message refers to. Any of them may be 0:
// the guild for a DM, the author for a webhook message.
type RelatedIDs struct {
	ChannelID snowflake.ID
	GuildID   snowflake.ID
	MessageID snowflake.ID
	AuthorID  snowflake.ID
}

// FromPayload decodes a message received from the platform. Unlike
// DecodeMessage it requires the message and channel identities.
func FromPayload(data []byte) (*Message, error) {
	m, err := DecodeMessage(data)
	if err != nil {
		return nil, err
	}
	if m.id == 0 {
		return nil, &DecodeError{Field: "id", Err: ErrMissingField}
	}
	if m.channel.ID == 0 {
		return nil, &DecodeError{Field: "channel_id", Err: ErrMissingField}
	}
	return m, nil
}

// Placeholder returns an identity-only message waiting to be populated.
func Placeholder(id, channelID, guildID snowflake.ID) *Message {
	return &Message{
		id:      id,
		channel: newRef(KindChannel, channelID),
		guild:   newRef(KindGuild, guildID),
		author:  newRef(KindUser, 0),
	}
}

// Synthesized returns a local message to be sent with a create call. The
// identities of channel and guild are copied; the records are not retained.
func Synthesized(content string, channel *Channel, guild *Guild) *Message {
	m := &Message{
		content: content,
		channel: newRef(KindChannel, 0),
		guild:   newRef(KindGuild, 0),
		author:  newRef(KindUser, 0),
	}
	m.SetChannel(channel)
	m.SetGuild(guild)
	if nonce, err := snowflake.Generate(); err == nil {
		m.Nonce = nonce
	}
	return m
}

func (m *Message) ID() snowflake.ID {
	return m.id
}

// SetID assigns the identity of a message that has none yet.
func (m *Message) SetID(id snowflake.ID) error {
	if m.id != 0 && m.id != id {
		return fmt.Errorf("%w: %d", ErrIdentityChange, m.id)
	}
	m.id = id
	return nil
}

func (m *Message) ChannelID() snowflake.ID {
	return m.channel.ID
}

func (m *Message) GuildID() snowflake.ID {
	return m.guild.ID
}

func (m *Message) AuthorID() snowflake.ID {
	return m.author.ID
}

func (m *Message) ChannelRef() Ref {
	return m.channel
}

func (m *Message) GuildRef() Ref {
	return m.guild
}

func (m *Message) AuthorRef() Ref {
	return m.author
}

// SetChannel attaches the message to a channel by identity.
func (m *Message) SetChannel(c *Channel) {
	if c == nil {
		return
	}
	m.channel = Ref{Kind: KindChannel, ID: c.ID, attached: true}
	if m.guild.ID == 0 && c.GuildID != 0 {
		m.guild = newRef(KindGuild, c.GuildID)
	}
}

// SetGuild attaches the message to a guild by identity.
func (m *Message) SetGuild(g *Guild) {
	if g == nil {
		return
	}
	m.guild = Ref{Kind: KindGuild, ID: g.ID, attached: true}
}

func (m *Message) Content() string {
	return m.content
}

func (m *Message) SetContent(content string) {
	m.content = content
}

func (m *Message) ContentEquals(s string) bool {
	return m.content == s
}

// IsDM depends only on the guild identity, never on cache state.
func (m *Message) IsDM() bool {
	return m.guild.ID == 0
}

func (m *Message) IsBot() bool {
	return m.Author.IsBot()
}

func (m *Message) IsWebhook() bool {
	return m.WebhookID != ""
}

// HasGuild does not tell whether the message is a DM, see IsDM.
func (m *Message) HasGuild() bool {
	return m.guild.Present()
}

func (m *Message) HasChannel() bool {
	return m.channel.Present()
}

func (m *Message) HasMember() bool {
	return m.author.Present()
}

func (m *Message) Guild(ctx context.Context, l Lookup) (*Guild, bool) {
	if m.guild.ID == 0 || l == nil {
		return nil, false
	}
	return l.Guild(ctx, m.guild.ID)
}

func (m *Message) Channel(ctx context.Context, l Lookup) (*Channel, bool) {
	if m.channel.ID == 0 || l == nil {
		return nil, false
	}
	return l.Channel(ctx, m.channel.ID)
}

// User resolves the live author record, which may differ from the Author
// snapshot.
func (m *Message) User(ctx context.Context, l Lookup) (*User, bool) {
	if m.author.ID == 0 || l == nil {
		return nil, false
	}
	return l.User(ctx, m.author.ID)
}

func (m *Message) RelatedIDs() RelatedIDs {
	return RelatedIDs{
		ChannelID: m.channel.ID,
		GuildID:   m.guild.ID,
		MessageID: m.id,
		AuthorID:  m.author.ID,
	}
}

// Clone returns a deep copy. Cached messages are never modified in place;
// writers clone, modify and store the copy.
func (m *Message) Clone() *Message {
	c := *m
	c.Mentions = slices.Clone(m.Mentions)
	c.MentionRoles = slices.Clone(m.MentionRoles)
	c.Attachments = slices.Clone(m.Attachments)
	c.Embeds = slices.Clone(m.Embeds)
	c.Reactions = slices.Clone(m.Reactions)
	return &c
}

// AddReaction records a reaction locally, bumping the count of an existing
// one with the same emoji.
func (m *Message) AddReaction(emoji Emoji, me bool) {
	for i := range m.Reactions {
		if m.Reactions[i].Emoji.APIName() == emoji.APIName() {
			m.Reactions[i].Count++
			m.Reactions[i].Me = m.Reactions[i].Me || me
			return
		}
	}
	m.Reactions = append(m.Reactions, Reaction{Count: 1, Me: me, Emoji: emoji})
}

// RemoveReaction drops one reaction count, removing the entry when it
// reaches zero.
func (m *Message) RemoveReaction(emoji Emoji, me bool) {
	for i := range m.Reactions {
		if m.Reactions[i].Emoji.APIName() != emoji.APIName() {
			continue
		}
		m.Reactions[i].Count--
		if me {
			m.Reactions[i].Me = false
		}
		if m.Reactions[i].Count <= 0 {
			m.Reactions = slices.Delete(m.Reactions, i, i+1)
		}
		return
	}
}
