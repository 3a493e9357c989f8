// Package repository defines the collaborator contracts (document store,
// identity provider, media upload) and typed repositories built on them.
package repository

import (
	"context"
	"time"
)

// Collection names.
const (
	CollectionUsers = "framez_users"
	CollectionPosts = "posts"
)

// FieldCreatedAt is the server-assigned creation timestamp field.
const FieldCreatedAt = "createdAt"

// Document is a schemaless record addressed by collection and key.
type Document struct {
	ID   string
	Data map[string]any
	// CreatedAt is assigned by the store on first write; nil for documents
	// imported without one.
	CreatedAt *time.Time
}

// Filter is an equality condition on a top-level field.
type Filter struct {
	Field string
	Value string
}

// Order sorts query results by a field.
type Order struct {
	Field string
	Desc  bool
}

// DocumentStore is a schemaless persistence service.
type DocumentStore interface {
	// Get loads a document; returns errs.ErrNotFound when absent.
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Set creates or replaces a document under the given key.
	Set(ctx context.Context, collection, id string, data map[string]any) error
	// Add creates a document under a generated key and returns that key.
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	// Query returns documents matching all filters in the requested order.
	Query(ctx context.Context, collection string, filters []Filter, order Order) ([]Document, error)
}
