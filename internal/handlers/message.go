package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	json "github.com/goccy/go-json"
	"github.com/go-chi/chi/v5"

	"chatapp-client/internal/async"
	"chatapp-client/internal/dispatch"
	"chatapp-client/internal/models"
	"chatapp-client/internal/rest"
	"chatapp-client/internal/snowflake"
	"chatapp-client/internal/state"
)

// targetMessage returns the cached message named by the URL, or a
// placeholder when it is not cached. The guild of a placeholder comes from
// the cached channel or the guild_id query parameter.
func targetMessage(r *http.Request) (*models.Message, bool) {
	channelID, err := snowflake.Parse(chi.URLParam(r, "channelID"))
	if err != nil {
		return nil, false
	}
	messageID, err := snowflake.Parse(chi.URLParam(r, "messageID"))
	if err != nil {
		return nil, false
	}

	ctx := r.Context()
	if m, ok := st.Message(ctx, messageID); ok && m.ChannelID() == channelID {
		return m, true
	}

	var guildID snowflake.ID
	if c, ok := st.Channel(ctx, channelID); ok {
		guildID = c.GuildID
	}
	if q := r.URL.Query().Get("guild_id"); q != "" {
		guildID, err = snowflake.Parse(q)
		if err != nil {
			return nil, false
		}
	}

	return models.Placeholder(messageID, channelID, guildID), true
}

func emojiParam(r *http.Request) (string, error) {
	return url.PathUnescape(chi.URLParam(r, "emoji"))
}

// writeCommandError maps a command failure to a response.
func writeCommandError(w http.ResponseWriter, err error) {
	var restErr *rest.Error

	switch {
	case errors.Is(err, dispatch.ErrPrecondition), errors.Is(err, dispatch.ErrInvalidEdit):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &restErr):
		status := restErr.Status
		if status < 400 || status >= 500 {
			status = http.StatusBadGateway
		}
		http.Error(w, restErr.Error(), status)
	case errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "", http.StatusGatewayTimeout)
	default:
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
	}
}

// finish waits for a reply command and answers 204 on success.
func finish(w http.ResponseWriter, r *http.Request, future *async.Future[rest.Reply], err error) bool {
	if err != nil {
		writeCommandError(w, err)
		return false
	}
	if _, err := future.Wait(r.Context()); err != nil {
		writeCommandError(w, err)
		return false
	}
	w.WriteHeader(http.StatusNoContent)
	return true
}

func EditMessage(w http.ResponseWriter, r *http.Request) {
	m, ok := targetMessage(r)
	if !ok {
		http.Error(w, "Invalid message", http.StatusBadRequest)
		return
	}

	var edit dispatch.EditMessage
	err := json.NewDecoder(r.Body).Decode(&edit)
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	future, err := dispatcher.EditWith(r.Context(), m, edit)
	if err != nil {
		writeCommandError(w, err)
		return
	}

	edited, err := future.Wait(r.Context())
	if err != nil {
		writeCommandError(w, err)
		return
	}

	data, err := models.EncodeMessage(edited)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	// the reply is authoritative, apply it on the message writer
	_, err = eventHub.Apply(r.Context(), models.KindMessage, func(ctx context.Context, s *state.State) error {
		_, err := s.MergeMessage(ctx, edited.ID(), data)
		return err
	}).Wait(r.Context())
	if err != nil {
		sugar.Warnf("Caching edited message [%d] failed: %v", edited.ID(), err)
	}

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(data)
	if err != nil {
		sugar.Error(err)
	}
}

func DeleteMessage(w http.ResponseWriter, r *http.Request) {
	m, ok := targetMessage(r)
	if !ok {
		http.Error(w, "Invalid message", http.StatusBadRequest)
		return
	}

	future, err := dispatcher.Delete(r.Context(), m)
	if !finish(w, r, future, err) {
		return
	}

	_, err = eventHub.Apply(r.Context(), models.KindMessage, func(ctx context.Context, s *state.State) error {
		return s.RemoveMessage(ctx, m.ID())
	}).Wait(r.Context())
	if err != nil {
		sugar.Warnf("Removing deleted message [%d] from cache failed: %v", m.ID(), err)
	}
}

func AddReaction(w http.ResponseWriter, r *http.Request) {
	m, ok := targetMessage(r)
	if !ok {
		http.Error(w, "Invalid message", http.StatusBadRequest)
		return
	}
	emoji, err := emojiParam(r)
	if err != nil {
		http.Error(w, "Invalid emoji", http.StatusBadRequest)
		return
	}

	future, err := dispatcher.AddReaction(r.Context(), m, emoji)
	finish(w, r, future, err)
}

// RemoveReaction removes the reaction of the user_id query parameter, or
// the own reaction without one.
func RemoveReaction(w http.ResponseWriter, r *http.Request) {
	m, ok := targetMessage(r)
	if !ok {
		http.Error(w, "Invalid message", http.StatusBadRequest)
		return
	}
	emoji, err := emojiParam(r)
	if err != nil {
		http.Error(w, "Invalid emoji", http.StatusBadRequest)
		return
	}

	var future *async.Future[rest.Reply]
	if q := r.URL.Query().Get("user_id"); q != "" {
		userID, parseErr := snowflake.Parse(q)
		if parseErr != nil {
			http.Error(w, "Invalid user ID", http.StatusBadRequest)
			return
		}
		future, err = dispatcher.RemoveUserReaction(r.Context(), m, emoji, userID)
	} else {
		future, err = dispatcher.RemoveOwnReaction(r.Context(), m, emoji)
	}
	finish(w, r, future, err)
}

func RemoveAllReactions(w http.ResponseWriter, r *http.Request) {
	m, ok := targetMessage(r)
	if !ok {
		http.Error(w, "Invalid message", http.StatusBadRequest)
		return
	}

	future, err := dispatcher.RemoveAllReactions(r.Context(), m)
	finish(w, r, future, err)
}
