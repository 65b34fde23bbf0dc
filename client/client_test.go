// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package client

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
	}{
		{name: "empty", baseURL: ""},
		{name: "no scheme", baseURL: "example.com/api"},
		{name: "no host", baseURL: "https://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.baseURL, nil)
			require.Error(t, err)
			assert.Equal(t, KindInvalidURL, KindOf(err))
		})
	}
}

func TestAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/analyze", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req map[string]string
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "https://example.com/reel/1", req["url"])
		assert.Equal(t, "en", req["language"])
		assert.Equal(t, "tok-123", req["fcm_token"])

		_, _ = w.Write([]byte(`{"status": "processing", "message": "Recipe is being prepared"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, srv.Client())
	require.NoError(t, err)

	ack, err := c.Analyze(t.Context(), "https://example.com/reel/1", "en", "tok-123")
	require.NoError(t, err)
	assert.Equal(t, "processing", ack.Status)
	assert.Equal(t, "Recipe is being prepared", ack.Message)
}

func TestAnalyze_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "done"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = c.Analyze(t.Context(), "https://example.com/reel/1", "en", "")
	require.Error(t, err)
	assert.Equal(t, KindServer, KindOf(err))
}

func TestTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate", r.URL.Path)
		_, _ = w.Write([]byte(`{"title": "Pâtes à la tomate", "language": "fr"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, srv.Client())
	require.NoError(t, err)

	r, err := c.Translate(t.Context(), "https://example.com/reel/1", "fr")
	require.NoError(t, err)
	assert.Equal(t, "Pâtes à la tomate", r.Title)
	assert.Equal(t, "fr", r.Language)
}

func TestRate(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rate", r.URL.Path)
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, srv.Client())
	require.NoError(t, err)

	require.NoError(t, c.Rate(t.Context(), "r1", 4))
	assert.JSONEq(t, `{"recipe_id": "r1", "rating": 4}`, string(gotBody))
}

func TestRate_InvalidRating(t *testing.T) {
	c, err := New("https://backend.example.com", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, c.Rate(t.Context(), "r1", 0), ErrInvalidRating)
	assert.ErrorIs(t, c.Rate(t.Context(), "r1", 6), ErrInvalidRating)
}

func TestServerError_Detail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail": "unsupported video platform"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, srv.Client())
	require.NoError(t, err)

	err = c.Rate(t.Context(), "r1", 3)
	require.Error(t, err)
	assert.Equal(t, KindServer, KindOf(err))
	assert.Contains(t, err.Error(), "unsupported video platform")
}

func TestServerError_NoDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`oops`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, srv.Client())
	require.NoError(t, err)

	err = c.Rate(t.Context(), "r1", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server returned 500")
}

func TestGetRecipe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recipes/r1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": "r1", "title": "Tomato Pasta"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, srv.Client())
	require.NoError(t, err)

	r, err := c.GetRecipe(t.Context(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", r.ID)
	assert.Equal(t, "Tomato Pasta", r.Title)
}

func TestGetRecipe_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := New(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = c.GetRecipe(t.Context(), "r1")
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

func TestGetRecipe_BadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = c.GetRecipe(t.Context(), "r1")
	require.Error(t, err)
	assert.Equal(t, KindDecoding, KindOf(err))
}

func TestWaitForRecipe_RetriesNotFound(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if requests.Add(1) < 3 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"id": "r1", "title": "Tomato Pasta"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, srv.Client())
	require.NoError(t, err)
	c.analyzeTimeout = 30 * time.Second

	r, err := c.WaitForRecipe(t.Context(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "Tomato Pasta", r.Title)
	assert.Equal(t, int64(3), requests.Load())
}

func TestWaitForRecipe_StopsOnServerFailure(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = c.WaitForRecipe(t.Context(), "r1")
	require.Error(t, err)
	assert.Equal(t, KindServer, KindOf(err))
	assert.Equal(t, int64(1), requests.Load())
}
