package rest

import (
	"fmt"
	"net/http"
	"net/url"

	"chatapp-client/internal/snowflake"
)

// Emoji tokens are escaped but never validated; the platform rejects
// malformed ones.
func escapeEmoji(emoji string) string {
	return url.PathEscape(emoji)
}

func CreateMessage(channelID snowflake.ID) Request {
	route := fmt.Sprintf("/channels/%d/messages", channelID)
	return Request{Method: http.MethodPost, Route: route, Path: route}
}

func EditMessage(channelID, messageID snowflake.ID) Request {
	return Request{
		Method: http.MethodPatch,
		Route:  fmt.Sprintf("/channels/%d/messages/{message.id}", channelID),
		Path:   fmt.Sprintf("/channels/%d/messages/%d", channelID, messageID),
	}
}

func DeleteMessage(channelID, messageID snowflake.ID) Request {
	return Request{
		Method: http.MethodDelete,
		Route:  fmt.Sprintf("/channels/%d/messages/{message.id}", channelID),
		Path:   fmt.Sprintf("/channels/%d/messages/%d", channelID, messageID),
	}
}

func GetMessage(channelID, messageID snowflake.ID) Request {
	return Request{
		Method: http.MethodGet,
		Route:  fmt.Sprintf("/channels/%d/messages/{message.id}", channelID),
		Path:   fmt.Sprintf("/channels/%d/messages/%d", channelID, messageID),
	}
}

// Reaction routes share one bucket per channel.
func reactionRoute(channelID snowflake.ID) string {
	return fmt.Sprintf("/channels/%d/messages/{message.id}/reactions", channelID)
}

func AddOwnReaction(channelID, messageID snowflake.ID, emoji string) Request {
	return Request{
		Method: http.MethodPut,
		Route:  reactionRoute(channelID),
		Path:   fmt.Sprintf("/channels/%d/messages/%d/reactions/%s/@me", channelID, messageID, escapeEmoji(emoji)),
	}
}

func DeleteOwnReaction(channelID, messageID snowflake.ID, emoji string) Request {
	return Request{
		Method: http.MethodDelete,
		Route:  reactionRoute(channelID),
		Path:   fmt.Sprintf("/channels/%d/messages/%d/reactions/%s/@me", channelID, messageID, escapeEmoji(emoji)),
	}
}

func DeleteUserReaction(channelID, messageID snowflake.ID, emoji string, userID snowflake.ID) Request {
	return Request{
		Method: http.MethodDelete,
		Route:  reactionRoute(channelID),
		Path:   fmt.Sprintf("/channels/%d/messages/%d/reactions/%s/%d", channelID, messageID, escapeEmoji(emoji), userID),
	}
}

func DeleteAllReactions(channelID, messageID snowflake.ID) Request {
	return Request{
		Method: http.MethodDelete,
		Route:  reactionRoute(channelID),
		Path:   fmt.Sprintf("/channels/%d/messages/%d/reactions", channelID, messageID),
	}
}
