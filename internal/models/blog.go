package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Blog publication states.
const (
	BlogDraft     = "draft"
	BlogPublished = "published"
)

// Blog is a blog post document.
type Blog struct {
	ID         primitive.ObjectID `json:"id"          bson:"_id,omitempty"`
	Title      string             `json:"title"       bson:"title"`
	Slug       string             `json:"slug"        bson:"slug"`
	Content    string             `json:"content"     bson:"content"`
	Summary    string             `json:"summary"     bson:"summary"`
	CoverImage string             `json:"cover_image" bson:"cover_image"`
	AuthorID   primitive.ObjectID `json:"author_id"   bson:"author"`
	Author     *AuthorRef         `json:"author,omitempty" bson:"author_doc,omitempty"`
	Tags       []string           `json:"tags"        bson:"tags"`
	Category   string             `json:"category"    bson:"category"`
	Status     string             `json:"status"      bson:"status"`
	Featured   bool               `json:"featured"    bson:"featured"`
	Views      int64              `json:"views"       bson:"views"`
	ReadTime   int                `json:"read_time"   bson:"read_time"` // minutes
	CreatedAt  time.Time          `json:"created_at"  bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"  bson:"updated_at"`
}

// BlogInput is the JSON body for creating or updating a blog post.
type BlogInput struct {
	Title      string   `json:"title"       validate:"required,max=100"`
	Content    string   `json:"content"     validate:"required"`
	Summary    string   `json:"summary"     validate:"required,max=500"`
	CoverImage string   `json:"cover_image" validate:"required"`
	Tags       []string `json:"tags"        validate:"required,min=1"`
	Category   string   `json:"category"    validate:"required"`
	Status     string   `json:"status"      validate:"omitempty,oneof=draft published"`
	Featured   bool     `json:"featured"`
	ReadTime   int      `json:"read_time"   validate:"required,min=1"`
}

// BlogFilter narrows blog listings.
type BlogFilter struct {
	Status   string
	Category string
	Tag      string
	Featured *bool
}
