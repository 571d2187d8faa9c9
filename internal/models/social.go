package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment belongs to either a recipe or a blog post, never both.
type Comment struct {
	ID        primitive.ObjectID  `json:"id"                 bson:"_id,omitempty"`
	Content   string              `json:"content"            bson:"content"`
	UserID    primitive.ObjectID  `json:"user_id"            bson:"user"`
	User      *AuthorRef          `json:"user,omitempty"     bson:"user_doc,omitempty"`
	RecipeID  *primitive.ObjectID `json:"recipe_id,omitempty" bson:"recipe,omitempty"`
	BlogID    *primitive.ObjectID `json:"blog_id,omitempty"  bson:"blog_post,omitempty"`
	ParentID  *primitive.ObjectID `json:"parent_id,omitempty" bson:"parent,omitempty"`
	CreatedAt time.Time           `json:"created_at"         bson:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"         bson:"updated_at"`
}

// CommentInput is the JSON body for POST /api/comments.
type CommentInput struct {
	Content  string `json:"content"   validate:"required,max=1000"`
	RecipeID string `json:"recipe_id"`
	BlogID   string `json:"blog_id"`
	ParentID string `json:"parent_id"`
}

// Favorite is a (user, recipe) join document; the pair is unique.
type Favorite struct {
	ID        primitive.ObjectID `json:"id"         bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"user_id"    bson:"user"`
	RecipeID  primitive.ObjectID `json:"recipe_id"  bson:"recipe"`
	Recipe    *Recipe            `json:"recipe,omitempty" bson:"recipe_doc,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// Rating is one user's 1-5 vote on a recipe; the (user, recipe) pair is unique.
type Rating struct {
	ID        primitive.ObjectID `json:"id"         bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"user_id"    bson:"user"`
	RecipeID  primitive.ObjectID `json:"recipe_id"  bson:"recipe"`
	Value     int                `json:"value"      bson:"value"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// RateRequest is the JSON body for POST /api/ratings.
type RateRequest struct {
	RecipeID string `json:"recipeId" validate:"required"`
	Value    int    `json:"value"    validate:"required,min=1,max=5"`
}
