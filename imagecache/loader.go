// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package imagecache

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/sync/singleflight"
)

// jpegQuality matches the compression the mobile client used when writing
// cache files.
const jpegQuality = 80

// NewLoader returns a loader that serves images from cache, fetching and
// caching on miss. A nil httpClient uses http.DefaultClient.
func NewLoader(cache *Cache, httpClient *http.Client) *Loader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Loader{
		cache:      cache,
		httpClient: httpClient,
	}
}

// Loader resolves image URLs through the cache. Concurrent loads of the same
// URL share a single network fetch. Failed loads return an error and cache
// nothing; the caller keeps its placeholder and retries are at user
// discretion.
type Loader struct {
	cache      *Cache
	httpClient *http.Client

	flight singleflight.Group
}

// Load returns the image bytes for url, from cache when possible. Fetched
// images are normalized to JPEG before caching.
func (l *Loader) Load(ctx context.Context, url string) ([]byte, error) {
	if data, ok := l.cache.Get(url); ok {
		return data, nil
	}

	v, err, _ := l.flight.Do(url, func() (any, error) {
		data, err := l.fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		l.cache.Set(url, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("imagecache: creating image request: %w", err)
	}
	res, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imagecache: fetching image: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("imagecache: image fetch returned status %d", res.StatusCode) //nolint:err113
	}
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("imagecache: reading image body: %w", err)
	}
	return normalizeJPEG(data)
}

// normalizeJPEG converts PNG bytes to JPEG and passes JPEG through, so the
// cache always holds compressed JPEG data.
func normalizeJPEG(data []byte) ([]byte, error) {
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return data, nil
	case "image/png":
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("imagecache: decoding png image: %w", err)
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("imagecache: encoding png to jpeg: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("imagecache: unsupported image type %s", http.DetectContentType(data)) //nolint:err113
	}
}
