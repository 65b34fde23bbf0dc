// Package hook serves the push delivery webhook. The backend finishes
// processing a video out of band and pushes a payload whose data carries the
// new recipe_id; the handler resolves the recipe and warms the image cache
// so it is ready to display.
package hook

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/curioswitch/instept/client"
	"github.com/curioswitch/instept/imagecache"
)

// NewHandler returns a handler resolving pushed recipe IDs through c,
// warming images through images.
func NewHandler(c *client.Client, images *imagecache.Loader) *Handler {
	return &Handler{
		client: c,
		images: images,
	}
}

type Handler struct {
	client *client.Client
	images *imagecache.Loader
}

// Routes returns the webhook router.
func (h *Handler) Routes() *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)
	mux.Post("/push", h.handlePush)
	return mux
}

// pushPayload is the data payload of a push notification.
type pushPayload struct {
	RecipeID string `json:"recipe_id"`
}

func (h *Handler) handlePush(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload pushPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.RecipeID == "" {
		http.Error(w, "missing recipe_id", http.StatusBadRequest)
		return
	}

	rec, err := h.client.WaitForRecipe(ctx, payload.RecipeID)
	if err != nil {
		slog.ErrorContext(ctx, "hook: resolving pushed recipe", "recipe_id", payload.RecipeID, "error", err)
		http.Error(w, "failed to resolve recipe", http.StatusBadGateway)
		return
	}

	if rec.HeroImageURL != "" {
		// Image load failures only mean a placeholder later, not a failed push.
		if _, err := h.images.Load(ctx, rec.HeroImageURL); err != nil {
			slog.WarnContext(ctx, "hook: warming hero image", "recipe_id", payload.RecipeID, "error", err)
		}
	}

	slog.InfoContext(ctx, "hook: recipe ready", "recipe_id", payload.RecipeID, "title", rec.Title)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"recipe_id": payload.RecipeID,
		"title":     rec.Title,
	})
}
