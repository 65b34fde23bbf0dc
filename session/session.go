// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Package session tracks the signed-in user's saved recipe IDs for the
// lifetime of the process.
package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// SavedStore is the part of the document store the session uses.
type SavedStore interface {
	SavedRecipeIDs(ctx context.Context, userID string) ([]string, error)
	SaveRecipe(ctx context.Context, userID string, recipeID string) error
	UnsaveRecipe(ctx context.Context, userID string, recipeID string) error
}

// NewManager returns a manager for the given user's saved set. It is
// constructed once per process and passed to consumers; there is no ambient
// singleton.
func NewManager(store SavedStore, userID string) *Manager {
	return &Manager{
		store:  store,
		userID: userID,
		saved:  map[string]struct{}{},
	}
}

// Manager holds the process-wide saved-recipe-id set. It is written by the
// single user-initiated save flow and read by any number of consumers; reads
// are eventually consistent with the remote set after a write completes.
type Manager struct {
	store  SavedStore
	userID string

	mu    sync.RWMutex
	saved map[string]struct{}
}

// Refresh replaces the local set with the remote one.
func (m *Manager) Refresh(ctx context.Context) error {
	ids, err := m.store.SavedRecipeIDs(ctx, m.userID)
	if err != nil {
		return fmt.Errorf("session: refreshing saved recipes: %w", err)
	}
	saved := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		saved[id] = struct{}{}
	}
	m.mu.Lock()
	m.saved = saved
	m.mu.Unlock()
	return nil
}

// IsSaved reports whether recipeID is in the saved set.
func (m *Manager) IsSaved(recipeID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.saved[recipeID]
	return ok
}

// IDs returns the saved recipe IDs, sorted for determinism.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.saved))
	for id := range m.saved {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Toggle saves the recipe when it is not in the set and unsaves it when it
// is, returning whether the recipe is saved afterwards. The local set is
// updated only after the remote write succeeds; on failure the caller logs
// and moves on, it does not retry.
func (m *Manager) Toggle(ctx context.Context, recipeID string) (bool, error) {
	if m.IsSaved(recipeID) {
		if err := m.store.UnsaveRecipe(ctx, m.userID, recipeID); err != nil {
			return true, fmt.Errorf("session: unsaving recipe: %w", err)
		}
		m.mu.Lock()
		delete(m.saved, recipeID)
		m.mu.Unlock()
		return false, nil
	}
	if err := m.store.SaveRecipe(ctx, m.userID, recipeID); err != nil {
		return false, fmt.Errorf("session: saving recipe: %w", err)
	}
	m.mu.Lock()
	m.saved[recipeID] = struct{}{}
	m.mu.Unlock()
	return true, nil
}
