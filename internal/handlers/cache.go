package handlers

import (
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/go-chi/chi/v5"

	"chatapp-client/internal/models"
	"chatapp-client/internal/snowflake"
)

// GetCached returns the cached record of a kind without fetching it.
func GetCached(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, "Unknown kind", http.StatusBadRequest)
		return
	}

	id, err := snowflake.Parse(chi.URLParam(r, "id"))
	if err != nil || id == 0 {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	var data []byte
	var found bool

	switch kind {
	case models.KindUser:
		var u *models.User
		if u, found = st.User(ctx, id); found {
			data, err = json.Marshal(u)
		}
	case models.KindChannel:
		var c *models.Channel
		if c, found = st.Channel(ctx, id); found {
			data, err = json.Marshal(c)
		}
	case models.KindGuild:
		var g *models.Guild
		if g, found = st.Guild(ctx, id); found {
			data, err = json.Marshal(g)
		}
	case models.KindMessage:
		var m *models.Message
		if m, found = st.Message(ctx, id); found {
			data, err = models.EncodeMessage(m)
		}
	}

	if !found {
		http.Error(w, "Not cached", http.StatusNotFound)
		return
	}
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(data)
	if err != nil {
		sugar.Error(err)
	}
}
