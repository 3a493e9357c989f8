// Package feed lists posts for the global feed and the profile screen and
// prepares them for display.
package feed

import (
	"context"
	"fmt"
	"sort"

	"github.com/and161185/framez/internal/errs"
	"github.com/and161185/framez/internal/model"
	"github.com/and161185/framez/internal/repository"
	"go.uber.org/zap"
)

// Filter narrows a listing. The zero value lists every post.
type Filter struct {
	Username *string
	UserID   *string
}

// ByAuthor lists the posts of id: by username, or by uid when the identity
// has no username yet.
func ByAuthor(id model.Identity) Filter {
	if id.Username != "" {
		name := id.Username
		return Filter{Username: &name}
	}
	uid := id.UID
	return Filter{UserID: &uid}
}

func (f Filter) fields() []zap.Field {
	var out []zap.Field
	if f.Username != nil {
		out = append(out, zap.String("username", *f.Username))
	}
	if f.UserID != nil {
		out = append(out, zap.String("uid", *f.UserID))
	}
	return out
}

// Service reads posts.
type Service struct {
	posts repository.PostRepository
	log   *zap.Logger
}

// New constructs a feed service.
func New(posts repository.PostRepository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{posts: posts, log: log}
}

// ListPosts returns posts newest first; posts without a timestamp come last.
func (s *Service) ListPosts(ctx context.Context, f Filter) ([]model.Post, error) {
	posts, err := s.posts.List(ctx, repository.PostQuery{Username: f.Username, UserID: f.UserID})
	if err != nil {
		s.log.Warn("list posts failed", append(f.fields(), zap.Error(err))...)
		return nil, fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}
	SortNewestFirst(posts)
	return posts, nil
}

// SortNewestFirst orders posts by CreatedAt descending, nil last, keeping
// the relative order of equal timestamps.
func SortNewestFirst(posts []model.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i].CreatedAt, posts[j].CreatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}
