// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Package insteptdb holds the Firestore document shapes for Instept recipes
// and users, and the store that reads and mutates them.
package insteptdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/curioswitch/instept/internal/flexjson"
	"github.com/curioswitch/instept/recipe"
)

// DefaultTranslationTitle is the fallback title of a stored translation. It
// intentionally differs from recipe.DefaultTitle, matching what the backend
// writes for untitled translations.
const DefaultTranslationTitle = "Untitled"

// ErrNoTranslations indicates a recipe document without any usable
// translation. Such a document cannot produce a Recipe; callers processing a
// batch skip the record rather than failing the batch.
var ErrNoTranslations = errors.New("insteptdb: recipe document has no translations")

// RecipeTranslation is the full localized content of a recipe, stored under
// one language key of a recipe document's translations map.
type RecipeTranslation struct {
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Category     string              `json:"category"`
	Rating       float64             `json:"rating"`
	ReviewsCount int                 `json:"reviews_count"`
	Time         string              `json:"time"`
	Difficulty   string              `json:"difficulty"`
	Calories     string              `json:"calories"`
	AuthorName   string              `json:"author_name"`
	AuthorAvatar string              `json:"author_avatar"`
	AuthorURL    string              `json:"author_url,omitempty"`
	HeroImageURL string              `json:"hero_image_url,omitempty"`
	Ingredients  []recipe.Ingredient `json:"ingredients"`
	Steps        []recipe.Step       `json:"steps"`
}

// UnmarshalJSON applies the same per-field defaulting as the canonical
// recipe decoder.
func (t *RecipeTranslation) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("insteptdb: decoding recipe translation: %w", err)
	}

	t.Title = flexjson.First(raw["title"], DefaultTranslationTitle, flexjson.String)
	t.Description = flexjson.First(raw["description"], "", flexjson.String)
	t.Category = flexjson.First(raw["category"], recipe.DefaultCategory, flexjson.String)
	t.Rating = flexjson.First(raw["rating"], 0, flexjson.Float)
	t.ReviewsCount = flexjson.First(raw["reviews_count"], 0, flexjson.Int)
	t.Time = flexjson.First(raw["time"], recipe.DefaultLabel, flexjson.MinuteLabel)
	t.Difficulty = flexjson.First(raw["difficulty"], recipe.DefaultDifficulty, flexjson.String)
	t.Calories = flexjson.First(raw["calories"], recipe.DefaultLabel, flexjson.NumberLabel)
	t.AuthorName = flexjson.First(raw["author_name"], recipe.DefaultAuthorName, flexjson.String)
	t.AuthorAvatar = flexjson.First(raw["author_avatar"], "", flexjson.String)
	t.AuthorURL = flexjson.First(raw["author_url"], "", flexjson.String)
	t.HeroImageURL = flexjson.First(raw["hero_image_url"], "", flexjson.String)
	t.Ingredients = flexjson.List[recipe.Ingredient](raw["ingredients"])
	t.Steps = flexjson.List[recipe.Step](raw["steps"])

	return nil
}

// RecipeDocument is a recipe as stored in the recipes collection: root-level
// metadata plus a map from language code to localized content. Root-level
// rating, review count, hero image, and author URL take precedence over the
// same fields inside a translation.
type RecipeDocument struct {
	SourceURL    string                       `json:"source_url,omitempty"`
	LikesCount   *int                         `json:"likes_count,omitempty"`
	CreatedAt    *time.Time                   `json:"created_at,omitempty"`
	HeroImageURL string                       `json:"hero_image_url,omitempty"`
	AuthorURL    string                       `json:"author_url,omitempty"`
	Rating       *float64                     `json:"rating,omitempty"`
	ReviewsCount *int                         `json:"reviews_count,omitempty"`
	Translations map[string]RecipeTranslation `json:"translations,omitempty"`
}

// UnmarshalJSON decodes a recipe document with the same tolerance for
// mistyped fields as the canonical recipe decoder. Root numeric fields keep
// their absence distinct from zero so that merge precedence can tell whether
// a root value was actually present.
func (d *RecipeDocument) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("insteptdb: decoding recipe document: %w", err)
	}

	d.SourceURL = flexjson.First(raw["source_url"], "", flexjson.String)
	d.HeroImageURL = flexjson.First(raw["hero_image_url"], "", flexjson.String)
	d.AuthorURL = flexjson.First(raw["author_url"], "", flexjson.String)

	d.Rating = nil
	if f, ok := flexjson.FirstPresent(raw["rating"], flexjson.Float); ok {
		d.Rating = &f
	}
	d.ReviewsCount = nil
	if n, ok := flexjson.FirstPresent(raw["reviews_count"], flexjson.Int); ok {
		d.ReviewsCount = &n
	}
	d.LikesCount = nil
	if n, ok := flexjson.FirstPresent(raw["likes_count"], flexjson.Int); ok {
		d.LikesCount = &n
	}
	d.CreatedAt = nil
	if t, ok := flexjson.FirstPresent(raw["created_at"], flexjson.Time); ok {
		d.CreatedAt = &t
	}

	d.Translations = nil
	if present := raw["translations"]; len(present) > 0 {
		var translations map[string]RecipeTranslation
		if err := json.Unmarshal(present, &translations); err == nil {
			d.Translations = translations
		}
	}

	return nil
}

// ToRecipe resolves the document into a canonical Recipe for the requested
// language. Selection order is the requested language, then "en", then the
// first translation by sorted key. The recipe's ID comes from the storage
// key, never from document content, and Language records which translation
// was selected.
func (d *RecipeDocument) ToRecipe(id string, language string) (recipe.Recipe, error) {
	selected := ""
	if _, ok := d.Translations[language]; ok {
		selected = language
	} else if _, ok := d.Translations["en"]; ok {
		selected = "en"
	} else if len(d.Translations) > 0 {
		keys := make([]string, 0, len(d.Translations))
		for k := range d.Translations {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		selected = keys[0]
	} else {
		return recipe.Recipe{}, ErrNoTranslations
	}
	t := d.Translations[selected]

	// Translations may carry stale or fabricated ratings; the root values are
	// authoritative whenever present.
	rating := 0.0
	if d.Rating != nil {
		rating = *d.Rating
	}
	reviews := 0
	if d.ReviewsCount != nil {
		reviews = *d.ReviewsCount
	}
	heroImageURL := t.HeroImageURL
	if d.HeroImageURL != "" {
		heroImageURL = d.HeroImageURL
	}
	authorURL := t.AuthorURL
	if d.AuthorURL != "" {
		authorURL = d.AuthorURL
	}

	return recipe.Recipe{
		ID:           id,
		SourceURL:    d.SourceURL,
		Title:        t.Title,
		Description:  t.Description,
		Category:     t.Category,
		Rating:       rating,
		ReviewsCount: reviews,
		Time:         t.Time,
		Difficulty:   t.Difficulty,
		Calories:     t.Calories,
		AuthorName:   t.AuthorName,
		AuthorAvatar: t.AuthorAvatar,
		AuthorURL:    authorURL,
		HeroImageURL: heroImageURL,
		CreatedAt:    d.CreatedAt,
		LikesCount:   d.LikesCount,
		Ingredients:  t.Ingredients,
		Steps:        t.Steps,
		Language:     selected,
	}, nil
}
