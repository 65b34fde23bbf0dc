// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Package recipe defines the canonical recipe model produced by the Instept
// backend and the document store, along with its defensive JSON decoding.
package recipe

import (
	"time"
)

// Default values used when a field is missing or cannot be interpreted.
const (
	DefaultTitle      = "Untitled Recipe"
	DefaultCategory   = "General"
	DefaultDifficulty = "Medium"
	DefaultAuthorName = "Chef"
	DefaultLabel      = "N/A"
)

// Ingredient is a single ingredient of a recipe. Amount and unit are
// free-form text, not necessarily numeric. Identity is positional within the
// recipe.
type Ingredient struct {
	// Name is the name of the ingredient.
	Name string `json:"name"`

	// Amount is the quantity of the ingredient as free-form text.
	Amount string `json:"amount"`

	// Unit is the unit of the amount as free-form text.
	Unit string `json:"unit"`
}

// Step is a single step of a recipe.
type Step struct {
	// Description is the description of the step.
	Description string `json:"description"`

	// ImageURL is the URL of an image of the step, if any.
	ImageURL string `json:"image_url,omitempty"`

	// Ingredients is the subset of ingredients relevant to this step, if the
	// backend provided one.
	Ingredients []Ingredient `json:"ingredients,omitempty"`
}

// Recipe is the canonical structured representation of a cooking procedure.
// It is produced by decoding a backend payload or resolving a stored
// document; after decoding, Ingredients and Steps are never nil.
type Recipe struct {
	// ID is the identifier of the recipe in the document store. It is
	// populated from the storage key at fetch time, not from document
	// content, and is empty until the recipe is first persisted.
	ID string `json:"id,omitempty"`

	// SourceURL is the URL of the video the recipe was extracted from.
	SourceURL string `json:"source_url,omitempty"`

	// Title is the title of the recipe.
	Title string `json:"title"`

	// Description is the description of the recipe.
	Description string `json:"description"`

	// Category is the category of the recipe, e.g. "Dessert".
	Category string `json:"category"`

	// Rating is the average user rating of the recipe.
	Rating float64 `json:"rating"`

	// ReviewsCount is the number of ratings the recipe received.
	ReviewsCount int `json:"reviews_count"`

	// Time is the preparation time as a free-text label, e.g. "30 min".
	Time string `json:"time"`

	// Difficulty is the difficulty as a free-text label.
	Difficulty string `json:"difficulty"`

	// Calories is the calorie count as a free-text label.
	Calories string `json:"calories"`

	// AuthorName is the display name of the original video author.
	AuthorName string `json:"author_name"`

	// AuthorAvatar is the URL of the author's avatar image.
	AuthorAvatar string `json:"author_avatar"`

	// AuthorURL is the URL of the author's profile, if any.
	AuthorURL string `json:"author_url,omitempty"`

	// HeroImageURL is the URL of the main image of the recipe, if any.
	HeroImageURL string `json:"hero_image_url,omitempty"`

	// CreatedAt is the time the recipe was created, if known.
	CreatedAt *time.Time `json:"created_at,omitempty"`

	// LikesCount is the number of likes of the source video, if known.
	LikesCount *int `json:"likes_count,omitempty"`

	// Ingredients are the ingredients of the recipe, in order.
	Ingredients []Ingredient `json:"ingredients"`

	// Steps are the steps to prepare the recipe, in order.
	Steps []Step `json:"steps"`

	// Language is the BCP 47 language tag of the recipe content, e.g. "en".
	Language string `json:"language,omitempty"`
}
