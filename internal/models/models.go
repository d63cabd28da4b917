package models

import (
	"fmt"

	"chatapp-client/internal/snowflake"
)

// Kind names an entity kind held by the cache.
type Kind string

const (
	KindUser    Kind = "user"
	KindChannel Kind = "channel"
	KindGuild   Kind = "guild"
	KindMessage Kind = "message"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindUser, KindChannel, KindGuild, KindMessage:
		return k, nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", s)
	}
}

type User struct {
	ID            snowflake.ID `json:"id"`
	Username      string       `json:"username"`
	Discriminator string       `json:"discriminator,omitempty"`
	GlobalName    string       `json:"global_name,omitempty"`
	Avatar        string       `json:"avatar,omitempty"`
	Bot           bool         `json:"bot,omitempty"`
	System        bool         `json:"system,omitempty"`
}

func (u *User) IsBot() bool {
	return u.Bot
}

func (u *User) Mention() string {
	return fmt.Sprintf("<@%d>", u.ID)
}

// DisplayName prefers the global name over the username.
func (u *User) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

type Role struct {
	ID          snowflake.ID `json:"id"`
	Name        string       `json:"name"`
	Color       int          `json:"color"`
	Position    int          `json:"position"`
	Permissions string       `json:"permissions,omitempty"`
}

type Emoji struct {
	ID       snowflake.ID `json:"id,omitempty"`
	Name     string       `json:"name"`
	Animated bool         `json:"animated,omitempty"`
}

// APIName returns the token the REST API expects: the name for unicode
// emoji, name:id for custom ones.
func (e Emoji) APIName() string {
	if e.ID == 0 {
		return e.Name
	}
	return fmt.Sprintf("%s:%d", e.Name, e.ID)
}

type Guild struct {
	ID      snowflake.ID `json:"id"`
	Name    string       `json:"name"`
	Icon    string       `json:"icon,omitempty"`
	OwnerID snowflake.ID `json:"owner_id,omitempty"`
	Roles   []Role       `json:"roles,omitempty"`
	Emojis  []Emoji      `json:"emojis,omitempty"`
}

func (g *Guild) Role(id snowflake.ID) (Role, bool) {
	for _, r := range g.Roles {
		if r.ID == id {
			return r, true
		}
	}
	return Role{}, false
}

type ChannelType int

const (
	ChannelGuildText     ChannelType = 0
	ChannelDM            ChannelType = 1
	ChannelGuildVoice    ChannelType = 2
	ChannelGroupDM       ChannelType = 3
	ChannelGuildCategory ChannelType = 4
)

type Channel struct {
	ID            snowflake.ID `json:"id"`
	GuildID       snowflake.ID `json:"guild_id,omitempty"`
	Type          ChannelType  `json:"type"`
	Name          string       `json:"name,omitempty"`
	Topic         string       `json:"topic,omitempty"`
	Position      int          `json:"position,omitempty"`
	LastMessageID snowflake.ID `json:"last_message_id,omitempty"`
}

func (c *Channel) IsDM() bool {
	return c.GuildID == 0
}

type Attachment struct {
	ID       snowflake.ID `json:"id"`
	Filename string       `json:"filename"`
	Size     int          `json:"size"`
	URL      string       `json:"url"`
	ProxyURL string       `json:"proxy_url,omitempty"`
	Height   int          `json:"height,omitempty"`
	Width    int          `json:"width,omitempty"`
}

type EmbedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url,omitempty"`
}

type EmbedMedia struct {
	URL    string `json:"url"`
	Height int    `json:"height,omitempty"`
	Width  int    `json:"width,omitempty"`
}

type EmbedAuthor struct {
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name" validate:"max=256"`
	Value  string `json:"value" validate:"max=1024"`
	Inline bool   `json:"inline,omitempty"`
}

type Embed struct {
	Title       string       `json:"title,omitempty" validate:"max=256"`
	Type        string       `json:"type,omitempty"`
	Description string       `json:"description,omitempty" validate:"max=4096"`
	URL         string       `json:"url,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Color       int          `json:"color,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Image       *EmbedMedia  `json:"image,omitempty"`
	Thumbnail   *EmbedMedia  `json:"thumbnail,omitempty"`
	Author      *EmbedAuthor `json:"author,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty" validate:"max=25,dive"`
}

type Reaction struct {
	Count int   `json:"count"`
	Me    bool  `json:"me"`
	Emoji Emoji `json:"emoji"`
}
