package hub

import "chatapp-client/internal/models"

// Gateway dispatch event names.
const (
	Ready = "READY"

	GuildCreated  = "GUILD_CREATE"
	GuildModified = "GUILD_UPDATE"
	GuildDeleted  = "GUILD_DELETE"

	ChannelCreated  = "CHANNEL_CREATE"
	ChannelModified = "CHANNEL_UPDATE"
	ChannelDeleted  = "CHANNEL_DELETE"

	MessageCreated  = "MESSAGE_CREATE"
	MessageModified = "MESSAGE_UPDATE"
	MessageDeleted  = "MESSAGE_DELETE"

	ReactionAdded       = "MESSAGE_REACTION_ADD"
	ReactionRemoved     = "MESSAGE_REACTION_REMOVE"
	ReactionsRemovedAll = "MESSAGE_REACTION_REMOVE_ALL"

	UserModified = "USER_UPDATE"
)

// eventKinds maps every handled event to the kind whose writer applies it.
var eventKinds = map[string]models.Kind{
	Ready: models.KindUser,

	GuildCreated:  models.KindGuild,
	GuildModified: models.KindGuild,
	GuildDeleted:  models.KindGuild,

	ChannelCreated:  models.KindChannel,
	ChannelModified: models.KindChannel,
	ChannelDeleted:  models.KindChannel,

	MessageCreated:  models.KindMessage,
	MessageModified: models.KindMessage,
	MessageDeleted:  models.KindMessage,

	ReactionAdded:       models.KindMessage,
	ReactionRemoved:     models.KindMessage,
	ReactionsRemovedAll: models.KindMessage,

	UserModified: models.KindUser,
}

// KindOf reports which entity kind an event mutates.
func KindOf(eventName string) (models.Kind, bool) {
	kind, ok := eventKinds[eventName]
	return kind, ok
}
