package repository

import (
	"context"
	"time"

	"github.com/and161185/framez/internal/model"
)

// ProfileRepository reads and writes framez_users profile documents keyed by uid.
type ProfileRepository interface {
	// Get returns the profile for uid; errs.ErrNotFound when none exists yet.
	Get(ctx context.Context, uid string) (*model.Profile, error)
	// Create writes the profile for uid.
	Create(ctx context.Context, uid string, p model.Profile) error
}

// ProfileRepo implements ProfileRepository on a DocumentStore.
type ProfileRepo struct{ docs DocumentStore }

// NewProfileRepo constructs a profile repository.
func NewProfileRepo(docs DocumentStore) *ProfileRepo { return &ProfileRepo{docs: docs} }

// Get loads and decodes a profile document.
func (r *ProfileRepo) Get(ctx context.Context, uid string) (*model.Profile, error) {
	doc, err := r.docs.Get(ctx, CollectionUsers, uid)
	if err != nil {
		return nil, err
	}
	return decodeProfile(doc), nil
}

// Create stores fullname, username, email and createdAt for uid.
func (r *ProfileRepo) Create(ctx context.Context, uid string, p model.Profile) error {
	created := time.Now().UTC()
	if p.CreatedAt != nil {
		created = p.CreatedAt.UTC()
	}
	data := map[string]any{
		"fullname":     p.Fullname,
		"username":     p.Username,
		"email":        p.Email,
		FieldCreatedAt: created.Format(time.RFC3339Nano),
	}
	return r.docs.Set(ctx, CollectionUsers, uid, data)
}

func decodeProfile(doc *Document) *model.Profile {
	p := &model.Profile{
		Fullname: stringField(doc.Data, "fullname"),
		Username: stringField(doc.Data, "username"),
		Email:    stringField(doc.Data, "email"),
	}
	if ts, ok := timeField(doc.Data, FieldCreatedAt); ok {
		p.CreatedAt = &ts
	} else if doc.CreatedAt != nil {
		t := *doc.CreatedAt
		p.CreatedAt = &t
	}
	return p
}

// stringField returns data[key] if it is a string, "" otherwise.
func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

// timeField accepts RFC 3339 strings and time.Time values.
func timeField(data map[string]any, key string) (time.Time, bool) {
	switch v := data[key].(type) {
	case time.Time:
		return v, true
	case string:
		ts, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false
		}
		return ts, true
	default:
		return time.Time{}, false
	}
}
