package models

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"chatapp-client/internal/snowflake"
)

var ErrMissingField = errors.New("required field is missing")

// DecodeError names the payload field that could not be decoded.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decode: %v", e.Err)
	}
	return fmt.Sprintf("decode field %q: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type payload map[string]json.RawMessage

func parsePayload(data []byte) (payload, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if p == nil {
		return nil, &DecodeError{Err: errors.New("payload is not an object")}
	}
	return p, nil
}

func (p payload) has(key string) bool {
	_, ok := p[key]
	return ok
}

// field decodes key into dst when present. Absent keys and null values leave
// dst untouched.
func (p payload) field(key string, dst any) error {
	raw, ok := p[key]
	if !ok || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &DecodeError{Field: key, Err: err}
	}
	return nil
}

// mention is a user entry of the mentions array. The platform sends full
// user objects; only the identity is kept.
type mention struct {
	ID snowflake.ID `json:"id"`
}

func decodeMentions(p payload) ([]snowflake.ID, error) {
	raw, ok := p["mentions"]
	if !ok || string(raw) == "null" {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &DecodeError{Field: "mentions", Err: err}
	}

	ids := make([]snowflake.ID, 0, len(items))
	for i, item := range items {
		var id snowflake.ID
		if len(item) > 0 && item[0] == '{' {
			var u mention
			if err := json.Unmarshal(item, &u); err != nil {
				return nil, &DecodeError{Field: fmt.Sprintf("mentions[%d]", i), Err: err}
			}
			id = u.ID
		} else if err := json.Unmarshal(item, &id); err != nil {
			return nil, &DecodeError{Field: fmt.Sprintf("mentions[%d]", i), Err: err}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// DecodeMessage maps a payload onto a message. Missing fields take their
// defaults: false, empty, 0 or "". Present but malformed fields fail with a
// DecodeError naming them.
func DecodeMessage(data []byte) (*Message, error) {
	p, err := parsePayload(data)
	if err != nil {
		return nil, err
	}

	m := Placeholder(0, 0, 0)
	if err := m.apply(p); err != nil {
		return nil, err
	}
	return m, nil
}

// applyIdentity sets a channel or guild ref once. A null or repeated value
// leaves it unchanged; a different value is rejected.
func applyIdentity(p payload, key string, ref *Ref, kind Kind) error {
	if !p.has(key) {
		return nil
	}
	var id snowflake.ID
	if err := p.field(key, &id); err != nil {
		return err
	}
	if id == 0 || id == ref.ID {
		return nil
	}
	if ref.ID != 0 {
		return &DecodeError{Field: key, Err: fmt.Errorf("%w: %d replaced by %d", ErrIdentityChange, ref.ID, id)}
	}
	*ref = newRef(kind, id)
	return nil
}

// apply writes every field present in p onto m. It is shared by full
// decoding and partial merges, so an absent field never resets anything.
func (m *Message) apply(p payload) error {
	if p.has("id") {
		var id snowflake.ID
		if err := p.field("id", &id); err != nil {
			return err
		}
		if err := m.SetID(id); err != nil {
			return &DecodeError{Field: "id", Err: err}
		}
	}

	if err := applyIdentity(p, "channel_id", &m.channel, KindChannel); err != nil {
		return err
	}
	if err := applyIdentity(p, "guild_id", &m.guild, KindGuild); err != nil {
		return err
	}

	if p.has("author") {
		var author User
		if err := p.field("author", &author); err != nil {
			return err
		}
		m.Author = author
		m.author = newRef(KindUser, author.ID)
	}

	if p.has("content") {
		var content string
		if err := p.field("content", &content); err != nil {
			return err
		}
		m.content = content
	}

	if p.has("timestamp") {
		var ts string
		if err := p.field("timestamp", &ts); err != nil {
			return err
		}
		m.Timestamp = ts
	}

	if p.has("edited_timestamp") {
		var ts string
		if err := p.field("edited_timestamp", &ts); err != nil {
			return err
		}
		m.EditedTimestamp = ts
	}

	flags := []struct {
		key string
		dst *bool
	}{
		{"tts", &m.TTS},
		{"mention_everyone", &m.MentionEveryone},
		{"pinned", &m.Pinned},
	}
	for _, f := range flags {
		if !p.has(f.key) {
			continue
		}
		var v bool
		if err := p.field(f.key, &v); err != nil {
			return err
		}
		*f.dst = v
	}

	if p.has("mentions") {
		ids, err := decodeMentions(p)
		if err != nil {
			return err
		}
		m.Mentions = nilIfEmpty(ids)
	}

	if p.has("mention_roles") {
		var ids []snowflake.ID
		if err := p.field("mention_roles", &ids); err != nil {
			return err
		}
		m.MentionRoles = nilIfEmpty(ids)
	}

	if p.has("attachments") {
		var v []Attachment
		if err := p.field("attachments", &v); err != nil {
			return err
		}
		m.Attachments = nilIfEmpty(v)
	}

	if p.has("embeds") {
		var v []Embed
		if err := p.field("embeds", &v); err != nil {
			return err
		}
		m.Embeds = nilIfEmpty(v)
	}

	if p.has("reactions") {
		var v []Reaction
		if err := p.field("reactions", &v); err != nil {
			return err
		}
		m.Reactions = nilIfEmpty(v)
	}

	if p.has("nonce") {
		var nonce snowflake.ID
		if err := p.field("nonce", &nonce); err != nil {
			return err
		}
		m.Nonce = nonce
	}

	if p.has("webhook_id") {
		var webhookID string
		if err := p.field("webhook_id", &webhookID); err != nil {
			return err
		}
		m.WebhookID = webhookID
	}

	if p.has("type") {
		var t MessageType
		if err := p.field("type", &t); err != nil {
			return err
		}
		if !t.Valid() {
			return &DecodeError{Field: "type", Err: fmt.Errorf("unknown message type %d", int(t))}
		}
		m.Type = t
	}

	return nil
}

func nilIfEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}

type messagePayload struct {
	ID              snowflake.ID   `json:"id"`
	ChannelID       snowflake.ID   `json:"channel_id"`
	GuildID         snowflake.ID   `json:"guild_id,omitempty"`
	Author          User           `json:"author"`
	Content         string         `json:"content"`
	Timestamp       string         `json:"timestamp"`
	EditedTimestamp *string        `json:"edited_timestamp"`
	TTS             bool           `json:"tts"`
	MentionEveryone bool           `json:"mention_everyone"`
	Mentions        []mention      `json:"mentions"`
	MentionRoles    []snowflake.ID `json:"mention_roles"`
	Attachments     []Attachment   `json:"attachments"`
	Embeds          []Embed        `json:"embeds"`
	Pinned          bool           `json:"pinned"`
	Reactions       []Reaction     `json:"reactions,omitempty"`
	Nonce           snowflake.ID   `json:"nonce,omitempty"`
	WebhookID       string         `json:"webhook_id,omitempty"`
	Type            MessageType    `json:"type"`
}

// EncodeMessage writes a message in the platform's wire format.
func EncodeMessage(m *Message) ([]byte, error) {
	out := messagePayload{
		ID:              m.id,
		ChannelID:       m.channel.ID,
		GuildID:         m.guild.ID,
		Author:          m.Author,
		Content:         m.content,
		Timestamp:       m.Timestamp,
		TTS:             m.TTS,
		MentionEveryone: m.MentionEveryone,
		Mentions:        make([]mention, 0, len(m.Mentions)),
		MentionRoles:    emptyIfNil(m.MentionRoles),
		Attachments:     emptyIfNil(m.Attachments),
		Embeds:          emptyIfNil(m.Embeds),
		Pinned:          m.Pinned,
		Reactions:       m.Reactions,
		Nonce:           m.Nonce,
		WebhookID:       m.WebhookID,
		Type:            m.Type,
	}
	if m.EditedTimestamp != "" {
		ts := m.EditedTimestamp
		out.EditedTimestamp = &ts
	}
	for _, id := range m.Mentions {
		out.Mentions = append(out.Mentions, mention{ID: id})
	}

	return json.Marshal(out)
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func decodeRecord[T any](data []byte) (*T, error) {
	if _, err := parsePayload(data); err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &DecodeError{Field: typeErr.Field, Err: err}
		}
		return nil, &DecodeError{Err: err}
	}
	return &v, nil
}

func DecodeUser(data []byte) (*User, error) {
	return decodeRecord[User](data)
}

func DecodeChannel(data []byte) (*Channel, error) {
	return decodeRecord[Channel](data)
}

func DecodeGuild(data []byte) (*Guild, error) {
	return decodeRecord[Guild](data)
}

func DecodeEmoji(data []byte) (*Emoji, error) {
	return decodeRecord[Emoji](data)
}
