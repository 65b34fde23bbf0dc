// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package recipe

import (
	"encoding/json"
	"fmt"

	"github.com/curioswitch/instept/internal/flexjson"
)

// UnmarshalJSON decodes a backend payload into a canonical Recipe. Missing or
// mistyped optional fields degrade to documented defaults instead of failing
// the whole object; only a payload that is not a JSON object is an error.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("recipe: decoding recipe object: %w", err)
	}

	r.ID = flexjson.First(raw["id"], "", flexjson.String)
	r.SourceURL = flexjson.First(raw["source_url"], "", flexjson.String)
	r.Title = flexjson.First(raw["title"], DefaultTitle, flexjson.String)
	r.Description = flexjson.First(raw["description"], "", flexjson.String)
	r.Category = flexjson.First(raw["category"], DefaultCategory, flexjson.String)
	r.Rating = flexjson.First(raw["rating"], 0, flexjson.Float)
	r.ReviewsCount = flexjson.First(raw["reviews_count"], 0, flexjson.Int)
	r.Time = flexjson.First(raw["time"], DefaultLabel, flexjson.MinuteLabel)
	r.Difficulty = flexjson.First(raw["difficulty"], DefaultDifficulty, flexjson.String)
	r.Calories = flexjson.First(raw["calories"], DefaultLabel, flexjson.NumberLabel)
	r.AuthorName = flexjson.First(raw["author_name"], DefaultAuthorName, flexjson.String)
	r.AuthorAvatar = flexjson.First(raw["author_avatar"], "", flexjson.String)
	r.AuthorURL = flexjson.First(raw["author_url"], "", flexjson.String)
	r.HeroImageURL = flexjson.First(raw["hero_image_url"], "", flexjson.String)
	r.Language = flexjson.First(raw["language"], "", flexjson.String)

	r.CreatedAt = nil
	if t, ok := flexjson.FirstPresent(raw["created_at"], flexjson.Time); ok {
		r.CreatedAt = &t
	}
	r.LikesCount = nil
	if n, ok := flexjson.FirstPresent(raw["likes_count"], flexjson.Int); ok {
		r.LikesCount = &n
	}

	r.Ingredients = flexjson.List[Ingredient](raw["ingredients"])
	r.Steps = flexjson.List[Step](raw["steps"])

	return nil
}
