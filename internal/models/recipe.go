package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ingredient is one line of a recipe's ingredient list.
type Ingredient struct {
	Name     string `json:"name"     bson:"name"     validate:"required"`
	Quantity string `json:"quantity" bson:"quantity" validate:"required"`
	Unit     string `json:"unit"     bson:"unit"     validate:"required"`
}

// RatingSummary is the denormalized aggregate cached on a recipe.
// It must always equal the mean and count of the ratings collection
// rows referencing the recipe.
type RatingSummary struct {
	Average float64 `json:"average" bson:"average"`
	Count   int64   `json:"count"   bson:"count"`
}

// Recipe is a recipe document.
type Recipe struct {
	ID           primitive.ObjectID `json:"id"           bson:"_id,omitempty"`
	Title        string             `json:"title"        bson:"title"`
	Slug         string             `json:"slug"         bson:"slug"`
	Description  string             `json:"description"  bson:"description"`
	Ingredients  []Ingredient       `json:"ingredients"  bson:"ingredients"`
	Instructions []string           `json:"instructions" bson:"instructions"`
	PrepTime     int                `json:"prep_time"    bson:"prep_time"` // minutes
	CookTime     int                `json:"cook_time"    bson:"cook_time"` // minutes
	Servings     int                `json:"servings"     bson:"servings"`
	Difficulty   string             `json:"difficulty"   bson:"difficulty"`
	Cuisine      string             `json:"cuisine"      bson:"cuisine"`
	Category     []string           `json:"category"     bson:"category"`
	MealType     string             `json:"meal_type"    bson:"meal_type"`
	Images       []string           `json:"images"       bson:"images"`
	Featured     bool               `json:"featured"     bson:"featured"`
	Views        int64              `json:"views"        bson:"views"`
	Favorites    int64              `json:"favorites"    bson:"favorites"`
	Rating       RatingSummary      `json:"rating"       bson:"rating"`
	AuthorID     primitive.ObjectID `json:"author_id"    bson:"author"`
	Author       *AuthorRef         `json:"author,omitempty" bson:"author_doc,omitempty"`
	CreatedAt    time.Time          `json:"created_at"   bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"   bson:"updated_at"`
}

// RecipeInput is the JSON body for creating or updating a recipe.
type RecipeInput struct {
	Title        string       `json:"title"        validate:"required,max=100"`
	Description  string       `json:"description"  validate:"required,max=1000"`
	Ingredients  []Ingredient `json:"ingredients"  validate:"required,min=1,dive"`
	Instructions []string     `json:"instructions" validate:"required,min=1,dive,required"`
	PrepTime     int          `json:"prep_time"    validate:"min=0"`
	CookTime     int          `json:"cook_time"    validate:"min=0"`
	Servings     int          `json:"servings"     validate:"required,min=1"`
	Difficulty   string       `json:"difficulty"   validate:"required,oneof=easy medium hard"`
	Cuisine      string       `json:"cuisine"      validate:"required"`
	Category     []string     `json:"category"     validate:"required,min=1"`
	MealType     string       `json:"meal_type"    validate:"required,oneof=breakfast lunch dinner dessert snack other"`
	Images       []string     `json:"images"       validate:"required,min=1"`
}

// RecipeFilter narrows recipe listings. Zero values mean "no filter".
type RecipeFilter struct {
	Cuisine    string
	Category   string
	MealType   string
	Difficulty string
	Featured   *bool
	AuthorID   primitive.ObjectID
}

// Pagination carries the standard page/limit metadata echoed in list responses.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
	Pages int64 `json:"pages"`
}

// NewPagination computes the page count for a result set.
func NewPagination(total, page, limit int64) Pagination {
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return Pagination{Total: total, Page: page, Limit: limit, Pages: pages}
}
