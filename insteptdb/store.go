// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package insteptdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/curioswitch/instept/recipe"
)

// savedBatchSize is the maximum number of IDs per membership query, the
// bound Firestore places on "in" filters.
const savedBatchSize = 10

// ErrRecipeNotFound indicates the requested recipe document does not exist.
var ErrRecipeNotFound = errors.New("insteptdb: recipe not found")

// NewStore returns a store backed by the given Firestore client.
func NewStore(client *firestore.Client) *Store {
	return &Store{client: client}
}

// Store reads and mutates the recipes and users collections.
type Store struct {
	client *firestore.Client
}

// GetRecipe fetches a recipe document by ID and resolves it for language.
func (s *Store) GetRecipe(ctx context.Context, id string, language string) (recipe.Recipe, error) {
	doc, err := s.client.Collection("recipes").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return recipe.Recipe{}, ErrRecipeNotFound
		}
		return recipe.Recipe{}, fmt.Errorf("insteptdb: getting recipe from firestore: %w", err)
	}
	return decodeSnapshot(doc, language)
}

// PopularRecipes returns up to limit recipes ordered by descending likes.
func (s *Store) PopularRecipes(ctx context.Context, language string, limit int) ([]recipe.Recipe, error) {
	q := s.client.Collection("recipes").
		OrderBy("likes_count", firestore.Desc).
		Limit(limit)
	return s.queryRecipes(ctx, q, language)
}

// RecentRecipes returns up to limit recipes ordered by descending creation
// time.
func (s *Store) RecentRecipes(ctx context.Context, language string, limit int) ([]recipe.Recipe, error) {
	q := s.client.Collection("recipes").
		OrderBy("created_at", firestore.Desc).
		Limit(limit)
	return s.queryRecipes(ctx, q, language)
}

func (s *Store) queryRecipes(ctx context.Context, q firestore.Query, language string) ([]recipe.Recipe, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var recipes []recipe.Recipe
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("insteptdb: querying recipes from firestore: %w", err)
		}
		r, err := decodeSnapshot(doc, language)
		if err != nil {
			// One malformed document never fails the batch.
			slog.WarnContext(ctx, "insteptdb: skipping malformed recipe document", "id", doc.Ref.ID, "error", err)
			continue
		}
		recipes = append(recipes, r)
	}
	return recipes, nil
}

// SavedRecipeIDs returns the user's saved recipe IDs in saved order. A user
// without a document or without saves yields an empty list.
func (s *Store) SavedRecipeIDs(ctx context.Context, userID string) ([]string, error) {
	doc, err := s.client.Collection("users").Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("insteptdb: getting user document: %w", err)
	}
	saved, _ := doc.Data()["saved_recipes"].([]any)
	ids := make([]string, 0, len(saved))
	for _, v := range saved {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// SavedRecipes fetches the user's saved recipes, preserving saved order.
// Membership queries are chunked at the Firestore bound of ten IDs.
func (s *Store) SavedRecipes(ctx context.Context, userID string, language string) ([]recipe.Recipe, error) {
	ids, err := s.SavedRecipeIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	recipes := s.client.Collection("recipes")
	byID := make(map[string]recipe.Recipe, len(ids))
	for _, chunk := range chunkIDs(ids, savedBatchSize) {
		refs := make([]*firestore.DocumentRef, len(chunk))
		for i, id := range chunk {
			refs[i] = recipes.Doc(id)
		}
		docs, err := recipes.Where(firestore.DocumentID, "in", refs).Documents(ctx).GetAll()
		if err != nil {
			return nil, fmt.Errorf("insteptdb: querying saved recipes: %w", err)
		}
		for _, doc := range docs {
			r, err := decodeSnapshot(doc, language)
			if err != nil {
				slog.WarnContext(ctx, "insteptdb: skipping malformed saved recipe", "id", doc.Ref.ID, "error", err)
				continue
			}
			byID[doc.Ref.ID] = r
		}
	}

	out := make([]recipe.Recipe, 0, len(byID))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// SaveRecipe adds recipeID to the user's saved set, creating the user
// document if needed.
func (s *Store) SaveRecipe(ctx context.Context, userID string, recipeID string) error {
	doc := s.client.Collection("users").Doc(userID)
	if _, err := doc.Set(ctx, map[string]any{
		"saved_recipes": firestore.ArrayUnion(recipeID),
	}, firestore.MergeAll); err != nil {
		return fmt.Errorf("insteptdb: saving recipe %s: %w", recipeID, err)
	}
	return nil
}

// UnsaveRecipe removes recipeID from the user's saved set.
func (s *Store) UnsaveRecipe(ctx context.Context, userID string, recipeID string) error {
	doc := s.client.Collection("users").Doc(userID)
	if _, err := doc.Update(ctx, []firestore.Update{
		{Path: "saved_recipes", Value: firestore.ArrayRemove(recipeID)},
	}); err != nil {
		return fmt.Errorf("insteptdb: unsaving recipe %s: %w", recipeID, err)
	}
	return nil
}

// HomeFeed is the content of the home screen.
type HomeFeed struct {
	// Saved are the user's saved recipes.
	Saved []recipe.Recipe

	// Popular are the most liked recipes.
	Popular []recipe.Recipe

	// Recent are the most recently created recipes.
	Recent []recipe.Recipe
}

// GetHomeFeed fetches the three home feed sections concurrently.
func (s *Store) GetHomeFeed(ctx context.Context, userID string, language string, limit int) (*HomeFeed, error) {
	var feed HomeFeed
	var grp errgroup.Group
	grp.Go(func() error {
		saved, err := s.SavedRecipes(ctx, userID, language)
		feed.Saved = saved
		return err
	})
	grp.Go(func() error {
		popular, err := s.PopularRecipes(ctx, language, limit)
		feed.Popular = popular
		return err
	})
	grp.Go(func() error {
		recent, err := s.RecentRecipes(ctx, language, limit)
		feed.Recent = recent
		return err
	})
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return &feed, nil
}

// decodeSnapshot converts a Firestore snapshot to a canonical Recipe by
// routing the document data through the defensive JSON decoder, so stored
// documents and backend payloads obey the same field rules. The recipe's ID
// is the document key.
func decodeSnapshot(doc *firestore.DocumentSnapshot, language string) (recipe.Recipe, error) {
	data, err := json.Marshal(doc.Data())
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("insteptdb: marshalling document data: %w", err)
	}
	var rd RecipeDocument
	if err := json.Unmarshal(data, &rd); err != nil {
		return recipe.Recipe{}, err
	}
	return rd.ToRecipe(doc.Ref.ID, language)
}

func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}
