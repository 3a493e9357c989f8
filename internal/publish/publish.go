// Package publish turns a draft into a post: optional image upload first,
// then the post document. Nothing is written if the upload fails.
package publish

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/and161185/framez/internal/errs"
	"github.com/and161185/framez/internal/media"
	"github.com/and161185/framez/internal/model"
	"github.com/and161185/framez/internal/repository"
	"go.uber.org/zap"
)

// Upload parameters for post images.
const (
	Folder       = "posts"
	ResourceType = "image"
)

// User-facing messages.
const (
	MsgLoginRequired = "Please log in to create posts"
	MsgEmptyDraft    = "Please enter some text or select an image."
	MsgFailed        = "Something went wrong"
	MsgPublished     = "Your post was created successfully!"
)

// Draft is the create screen's local state.
type Draft struct {
	Text      string
	ImagePath string // local file; empty for text-only posts
}

// Reset clears the draft after a successful publish.
func (d *Draft) Reset() { *d = Draft{} }

// Empty reports whether the draft has neither text nor an image.
func (d *Draft) Empty() bool { return strings.TrimSpace(d.Text) == "" && d.ImagePath == "" }

// Status is the kind of result Publish produced.
type Status int

const (
	StatusRejected Status = iota // validation or missing author; nothing sent
	StatusBusy
	StatusFailed
	StatusPublished
)

// Outcome is the result of Publish.
type Outcome struct {
	Status  Status
	PostID  string
	Message string
	Err     error
}

// Loader reads a local image into an upload payload.
type Loader func(path string) (media.Payload, error)

// Pipeline publishes drafts one at a time.
type Pipeline struct {
	uploader repository.MediaUploader
	posts    repository.PostRepository
	load     Loader
	log      *zap.Logger
	now      func() time.Time

	publishing atomic.Bool
}

// New constructs a pipeline that loads images with media.LoadFile.
func New(uploader repository.MediaUploader, posts repository.PostRepository, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		uploader: uploader,
		posts:    posts,
		load:     media.LoadFile,
		log:      log,
		now:      time.Now,
	}
}

// Publishing reports whether a publish is in flight.
func (p *Pipeline) Publishing() bool { return p.publishing.Load() }

// Publish uploads the draft's image if any and creates the post document.
func (p *Pipeline) Publish(ctx context.Context, d *Draft, author *model.Identity) Outcome {
	if author == nil {
		return Outcome{Status: StatusRejected, Message: MsgLoginRequired, Err: errs.ErrUnauthorized}
	}
	if !p.publishing.CompareAndSwap(false, true) {
		return Outcome{Status: StatusBusy}
	}
	defer p.publishing.Store(false)

	if d.Empty() {
		return Outcome{Status: StatusRejected, Message: MsgEmptyDraft, Err: errs.ErrValidation}
	}

	var imageURL *string
	if d.ImagePath != "" {
		u, err := p.upload(ctx, d.ImagePath, author.UID)
		if err != nil {
			p.log.Warn("image upload failed", zap.String("uid", author.UID), zap.Error(err))
			return Outcome{Status: StatusFailed, Message: MsgFailed, Err: err}
		}
		imageURL = &u
	}

	username := author.Username
	if username == "" {
		username = model.AnonymousUsername
	}
	id, err := p.posts.Create(ctx, repository.NewPost{
		Text:     strings.TrimSpace(d.Text),
		ImageURL: imageURL,
		UserID:   author.UID,
		Username: username,
	})
	if err != nil {
		p.log.Error("post write failed", zap.String("uid", author.UID), zap.Error(err))
		return Outcome{Status: StatusFailed, Message: MsgFailed, Err: fmt.Errorf("%w: %v", errs.ErrPersistence, err)}
	}

	p.log.Info("post published", zap.String("post_id", id), zap.Bool("image", imageURL != nil))
	d.Reset()
	return Outcome{Status: StatusPublished, PostID: id, Message: MsgPublished}
}

func (p *Pipeline) upload(ctx context.Context, path, uid string) (string, error) {
	payload, err := p.load(path)
	if err != nil {
		return "", fmt.Errorf("%w: load %s: %v", errs.ErrUpload, path, err)
	}
	res, err := p.uploader.Upload(ctx, payload, media.Options{
		Folder:       Folder,
		PublicID:     uid + "-" + strconv.FormatInt(p.now().UnixMilli(), 10),
		ResourceType: ResourceType,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrUpload, err)
	}
	u := res.Best()
	if u == "" {
		return "", fmt.Errorf("%w: no url in response", errs.ErrUpload)
	}
	return u, nil
}
