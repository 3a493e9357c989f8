package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
	"go.uber.org/zap"
)

// DefaultBaseURL is the public Cloudinary API root.
const DefaultBaseURL = "https://api.cloudinary.com"

// maxErrorBody caps how much of a failed response is logged.
const maxErrorBody = 4 << 10

// Config configures the unsigned-preset uploader.
type Config struct {
	BaseURL      string
	CloudName    string
	UploadPreset string
}

// Uploader posts multipart uploads to <base>/v1_1/<cloud>/image/upload.
type Uploader struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

// NewUploader constructs an uploader. A nil client means http.DefaultClient.
func NewUploader(cfg Config, client *http.Client, log *zap.Logger) *Uploader {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Uploader{cfg: cfg, http: client, log: log}
}

// NewSafeClient returns an HTTP client that refuses private and loopback
// destinations and non-HTTPS schemes.
func NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("https").
		SetAllowedPorts(443).
		Build()
	return safeurl.Client(config).Client
}

// Upload sends the payload and returns the endpoint result. Non-2xx responses
// are logged with their body and returned as errors.
func (u *Uploader) Upload(ctx context.Context, p Payload, opts Options) (Result, error) {
	if p.Empty() {
		return Result{}, fmt.Errorf("upload: empty payload")
	}
	body, contentType, err := u.encode(p, opts)
	if err != nil {
		return Result{}, fmt.Errorf("upload: encode: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1_1/%s/image/upload", strings.TrimRight(u.cfg.BaseURL, "/"), u.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return Result{}, fmt.Errorf("upload: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := u.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		u.log.Error("media upload rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", msg),
			zap.String("public_id", opts.PublicID),
		)
		return Result{}, fmt.Errorf("upload failed: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Result{}, fmt.Errorf("upload: decode response: %w", err)
	}
	u.log.Info("media uploaded",
		zap.String("public_id", opts.PublicID),
		zap.Duration("dur", time.Since(start)),
	)
	return res, nil
}

func (u *Uploader) encode(p Payload, opts Options) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if p.DataURI != "" {
		if err := w.WriteField("file", p.DataURI); err != nil {
			return nil, "", err
		}
	} else {
		name := p.Filename
		if name == "" {
			name = "upload"
		}
		fw, err := w.CreateFormFile("file", name)
		if err != nil {
			return nil, "", err
		}
		if _, err := fw.Write(p.Bytes); err != nil {
			return nil, "", err
		}
	}

	fields := []struct{ k, v string }{
		{"upload_preset", u.cfg.UploadPreset},
		{"folder", opts.Folder},
		{"public_id", opts.PublicID},
		{"resource_type", opts.ResourceType},
	}
	for _, f := range fields {
		if f.v == "" {
			continue
		}
		if err := w.WriteField(f.k, f.v); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
