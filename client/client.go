// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Package client calls the Instept extraction backend over HTTP: analyzing a
// video URL into a recipe, translating, rating, and fetching by ID.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/curioswitch/instept/recipe"
)

// DefaultAnalyzeTimeout bounds an analyze request. It is on the order of
// minutes because the backend downloads and processes the video before
// answering.
const DefaultAnalyzeTimeout = 5 * time.Minute

// ErrRecipeNotFound indicates the backend has no recipe with the requested
// ID, typically because processing has not finished.
var ErrRecipeNotFound = errors.New("recipe not found")

// ErrInvalidRating indicates a rating outside 1 to 5.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// New returns a client for the backend at baseURL. A nil httpClient uses
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &Error{Kind: KindInvalidURL, Message: "invalid backend URL " + strconv.Quote(baseURL), Err: err}
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		httpClient:     httpClient,
		analyzeTimeout: DefaultAnalyzeTimeout,
	}, nil
}

// Client is a client for the extraction backend. Methods never panic on a
// bad response; every failure comes back as an *Error with a presentable
// message.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	analyzeTimeout time.Duration
}

// Processing is the backend's acknowledgment of an analyze request.
type Processing struct {
	// Status is "processing" while extraction runs.
	Status string `json:"status"`

	// Message is a user-presentable status message.
	Message string `json:"message"`
}

type analyzeRequest struct {
	URL         string `json:"url"`
	Language    string `json:"language"`
	DeviceToken string `json:"fcm_token,omitempty"`
}

// Analyze asks the backend to extract a recipe from the video at sourceURL.
// The backend answers with a processing acknowledgment and later delivers a
// push payload carrying the recipe ID; use WaitForRecipe or GetRecipe to
// resolve it. deviceToken, when set, tells the backend where to push.
//
// An earlier backend revision answered with the recipe synchronously; that
// contract is deprecated and not supported here.
func (c *Client) Analyze(ctx context.Context, sourceURL string, language string, deviceToken string) (*Processing, error) {
	ctx, cancel := context.WithTimeout(ctx, c.analyzeTimeout)
	defer cancel()

	var ack Processing
	if err := c.postJSON(ctx, "/analyze", analyzeRequest{
		URL:         sourceURL,
		Language:    language,
		DeviceToken: deviceToken,
	}, &ack); err != nil {
		return nil, err
	}
	if ack.Status != "processing" {
		return nil, &Error{Kind: KindServer, Message: "unexpected status " + strconv.Quote(ack.Status)}
	}
	return &ack, nil
}

// Translate asks the backend for the recipe at sourceURL translated to
// language.
func (c *Client) Translate(ctx context.Context, sourceURL string, language string) (recipe.Recipe, error) {
	var r recipe.Recipe
	if err := c.postJSON(ctx, "/translate", analyzeRequest{
		URL:      sourceURL,
		Language: language,
	}, &r); err != nil {
		return recipe.Recipe{}, err
	}
	return r, nil
}

type rateRequest struct {
	RecipeID string `json:"recipe_id"`
	Rating   int    `json:"rating"`
}

// Rate submits a 1 to 5 rating for a recipe. Submission is best effort: the
// caller treats any outcome as terminal and must not retry, so a failure is
// only worth logging.
func (c *Client) Rate(ctx context.Context, recipeID string, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("client: %w: %d", ErrInvalidRating, rating)
	}
	return c.postJSON(ctx, "/rate", rateRequest{RecipeID: recipeID, Rating: rating}, nil)
}

// GetRecipe fetches a previously created recipe by ID, e.g. after a push
// payload references one not yet loaded. Returns an error wrapping
// ErrRecipeNotFound while the recipe does not exist.
func (c *Client) GetRecipe(ctx context.Context, recipeID string) (recipe.Recipe, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/recipes/"+url.PathEscape(recipeID), nil)
	if err != nil {
		return recipe.Recipe{}, &Error{Kind: KindInvalidURL, Message: "creating recipe request", Err: err}
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return recipe.Recipe{}, &Error{Kind: KindNetwork, Message: "fetching recipe " + recipeID, Err: err}
	}
	defer func() {
		_ = res.Body.Close()
	}()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return recipe.Recipe{}, &Error{Kind: KindNetwork, Message: "reading recipe response", Err: err}
	}
	if res.StatusCode == http.StatusNotFound {
		return recipe.Recipe{}, &Error{Kind: KindServer, Message: "recipe " + recipeID + " not found", Err: ErrRecipeNotFound}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return recipe.Recipe{}, serverError(res.StatusCode, body)
	}
	var r recipe.Recipe
	if err := json.Unmarshal(body, &r); err != nil {
		return recipe.Recipe{}, &Error{Kind: KindDecoding, Message: "decoding recipe response", Err: err}
	}
	return r, nil
}

// WaitForRecipe polls GetRecipe with exponential backoff until the recipe
// exists, the context is canceled, or a failure other than not-found occurs.
func (c *Client) WaitForRecipe(ctx context.Context, recipeID string) (recipe.Recipe, error) {
	return backoff.Retry(ctx, func() (recipe.Recipe, error) {
		r, err := c.GetRecipe(ctx, recipeID)
		if err != nil {
			if errors.Is(err, ErrRecipeNotFound) {
				return recipe.Recipe{}, err
			}
			return recipe.Recipe{}, backoff.Permanent(err)
		}
		return r, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxElapsedTime(c.analyzeTimeout))
}

// postJSON posts body to path and decodes the response into out when out is
// non-nil.
func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	reqJSON, err := json.Marshal(body)
	if err != nil {
		return &Error{Kind: KindDecoding, Message: "marshalling request body", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqJSON))
	if err != nil {
		return &Error{Kind: KindInvalidURL, Message: "creating request for " + path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: "sending request to " + path, Err: err}
	}
	defer func() {
		_ = res.Body.Close()
	}()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: "reading response from " + path, Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return serverError(res.StatusCode, resBody)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resBody, out); err != nil {
		return &Error{Kind: KindDecoding, Message: "decoding response from " + path, Err: err}
	}
	return nil
}

// serverError extracts the backend's detail message from an error response,
// falling back to the status code.
func serverError(status int, body []byte) *Error {
	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
		return &Error{Kind: KindServer, Message: detail.Detail}
	}
	return &Error{Kind: KindServer, Message: "server returned " + strconv.Itoa(status)}
}
