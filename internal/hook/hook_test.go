package hook

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curioswitch/instept/client"
	"github.com/curioswitch/instept/imagecache"
)

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

func newTestHandler(t *testing.T, backend http.Handler) (*Handler, *imagecache.Cache) {
	t.Helper()

	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL, srv.Client())
	require.NoError(t, err)

	cache, err := imagecache.NewCache(t.TempDir())
	require.NoError(t, err)
	return NewHandler(c, imagecache.NewLoader(cache, srv.Client())), cache
}

func TestHandlePush(t *testing.T) {
	var heroURL string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /recipes/r1", func(w http.ResponseWriter, r *http.Request) {
		heroURL = "http://" + r.Host + "/hero.jpg"
		_, _ = w.Write([]byte(`{"id": "r1", "title": "Tomato Pasta", "hero_image_url": "` + heroURL + `"}`))
	})
	mux.HandleFunc("GET /hero.jpg", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(jpegBytes)
	})

	h, cache := newTestHandler(t, mux)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/push", strings.NewReader(`{"recipe_id": "r1"}`))
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"recipe_id": "r1", "title": "Tomato Pasta"}`, rec.Body.String())

	// The hero image was warmed into the cache.
	data, ok := cache.Get(heroURL)
	require.True(t, ok)
	assert.Equal(t, jpegBytes, data)
}

func TestHandlePush_BadPayload(t *testing.T) {
	h, _ := newTestHandler(t, http.NotFoundHandler())

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "nope"},
		{name: "missing recipe_id", body: `{}`},
		{name: "empty recipe_id", body: `{"recipe_id": ""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/push", strings.NewReader(tt.body))
			h.Routes().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandlePush_BackendFailure(t *testing.T) {
	h, _ := newTestHandler(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/push", strings.NewReader(`{"recipe_id": "r1"}`))
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
