// Package media uploads images to a Cloudinary-compatible endpoint.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Payload is either raw bytes or a base64 data URI. Exactly one is set.
type Payload struct {
	Bytes    []byte
	Filename string // used for the multipart file name when Bytes is set
	DataURI  string
}

// Empty reports whether the payload carries nothing to upload.
func (p Payload) Empty() bool { return len(p.Bytes) == 0 && p.DataURI == "" }

// Options are the upload parameters sent alongside the file.
type Options struct {
	Folder       string
	PublicID     string
	ResourceType string
}

// Result is the endpoint's answer.
type Result struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	PublicID  string `json:"public_id"`
}

// Best returns the secure URL, falling back to the plain one.
func (r Result) Best() string {
	if r.SecureURL != "" {
		return r.SecureURL
	}
	return r.URL
}

// LoadFile reads a local image and encodes it as data:image/<ext>;base64,...
func LoadFile(path string) (Payload, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Payload{}, err
	}
	if len(b) == 0 {
		return Payload{}, errors.New("empty image file")
	}
	uri := fmt.Sprintf("data:image/%s;base64,%s", imageSubtype(path), base64.StdEncoding.EncodeToString(b))
	return Payload{DataURI: uri, Filename: filepath.Base(path)}, nil
}

// imageSubtype maps a file extension to its registered image/* subtype.
func imageSubtype(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "", "jpg", "jpe":
		return "jpeg"
	case "tif":
		return "tiff"
	case "svg":
		return "svg+xml"
	default:
		return ext
	}
}
