package repository

import (
	"context"

	"github.com/and161185/framez/internal/model"
)

// NewPost is the payload of a post about to be created.
// CreatedAt is left to the store.
type NewPost struct {
	Text     string
	ImageURL *string
	UserID   string
	Username string
}

// PostQuery selects posts by author. Nil fields do not filter, so the zero
// value matches every post.
type PostQuery struct {
	Username *string
	UserID   *string
}

// PostRepository creates and lists posts.
type PostRepository interface {
	// Create stores a post and returns its generated ID.
	Create(ctx context.Context, p NewPost) (string, error)
	// List returns the posts matching q, newest first.
	List(ctx context.Context, q PostQuery) ([]model.Post, error)
}

// PostRepo implements PostRepository on a DocumentStore.
type PostRepo struct{ docs DocumentStore }

// NewPostRepo constructs a post repository.
func NewPostRepo(docs DocumentStore) *PostRepo { return &PostRepo{docs: docs} }

// Create adds a posts document with a server-assigned createdAt.
func (r *PostRepo) Create(ctx context.Context, p NewPost) (string, error) {
	var image any // stored as null for text-only posts
	if p.ImageURL != nil {
		image = *p.ImageURL
	}
	return r.docs.Add(ctx, CollectionPosts, map[string]any{
		"text":     p.Text,
		"imageUrl": image,
		"userId":   p.UserID,
		"username": p.Username,
	})
}

// List queries posts ordered by createdAt descending.
func (r *PostRepo) List(ctx context.Context, q PostQuery) ([]model.Post, error) {
	var filters []Filter
	if q.Username != nil {
		filters = append(filters, Filter{Field: "username", Value: *q.Username})
	}
	if q.UserID != nil {
		filters = append(filters, Filter{Field: "userId", Value: *q.UserID})
	}
	docs, err := r.docs.Query(ctx, CollectionPosts, filters, Order{Field: FieldCreatedAt, Desc: true})
	if err != nil {
		return nil, err
	}
	out := make([]model.Post, 0, len(docs))
	for i := range docs {
		out = append(out, decodePost(&docs[i]))
	}
	return out, nil
}

// decodePost tolerates partial documents: wrong-typed fields decode as zero values.
func decodePost(doc *Document) model.Post {
	p := model.Post{
		ID:       doc.ID,
		Text:     stringField(doc.Data, "text"),
		UserID:   stringField(doc.Data, "userId"),
		Username: stringField(doc.Data, "username"),
	}
	if u := stringField(doc.Data, "imageUrl"); u != "" {
		p.ImageURL = &u
	}
	if doc.CreatedAt != nil {
		t := *doc.CreatedAt
		p.CreatedAt = &t
	} else if ts, ok := timeField(doc.Data, FieldCreatedAt); ok {
		p.CreatedAt = &ts
	}
	return p
}
