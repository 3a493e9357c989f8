package media

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpload_DataURI_OK(t *testing.T) {
	t.Parallel()
	var gotPath string
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		got = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			got[k] = v[0]
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://cdn/x.png","url":"http://cdn/x.png","public_id":"posts/u1-1"}`))
	}))
	defer srv.Close()

	u := NewUploader(Config{BaseURL: srv.URL, CloudName: "demo", UploadPreset: "framez-uploads"}, srv.Client(), nil)
	res, err := u.Upload(context.Background(), Payload{DataURI: "data:image/png;base64,AAAA"}, Options{
		Folder: "posts", PublicID: "u1-1", ResourceType: "image",
	})
	require.NoError(t, err)
	require.Equal(t, "https://cdn/x.png", res.Best())
	require.Equal(t, "/v1_1/demo/image/upload", gotPath)
	require.Equal(t, "data:image/png;base64,AAAA", got["file"])
	require.Equal(t, "framez-uploads", got["upload_preset"])
	require.Equal(t, "posts", got["folder"])
	require.Equal(t, "u1-1", got["public_id"])
	require.Equal(t, "image", got["resource_type"])
}

func TestUpload_Bytes_FilePart(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		fh := r.MultipartForm.File["file"]
		require.Len(t, fh, 1)
		require.Equal(t, "pic.jpg", fh[0].Filename)
		_, _ = w.Write([]byte(`{"url":"http://cdn/plain.jpg"}`))
	}))
	defer srv.Close()

	u := NewUploader(Config{BaseURL: srv.URL, CloudName: "demo"}, srv.Client(), nil)
	res, err := u.Upload(context.Background(), Payload{Bytes: []byte{1, 2, 3}, Filename: "pic.jpg"}, Options{})
	require.NoError(t, err)
	require.Equal(t, "http://cdn/plain.jpg", res.Best())
}

func TestUpload_Non2xx(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"Upload preset not found"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	u := NewUploader(Config{BaseURL: srv.URL, CloudName: "demo"}, srv.Client(), nil)
	_, err := u.Upload(context.Background(), Payload{DataURI: "data:image/png;base64,AAAA"}, Options{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "400")
}

func TestUpload_EmptyPayload(t *testing.T) {
	t.Parallel()
	u := NewUploader(Config{CloudName: "demo"}, nil, nil)
	_, err := u.Upload(context.Background(), Payload{}, Options{})
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p := filepath.Join(dir, "photo.PNG")
	require.NoError(t, os.WriteFile(p, []byte("img"), 0o600))

	got, err := LoadFile(p)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(got.DataURI, "data:image/png;base64,"))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(got.DataURI, "data:image/png;base64,"))
	require.NoError(t, err)
	require.Equal(t, "img", string(raw))
	require.Equal(t, "photo.PNG", got.Filename)

	_, err = LoadFile(filepath.Join(dir, "missing.png"))
	require.Error(t, err)
}

func TestLoadFile_Subtype(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for name, want := range map[string]string{
		"a.jpg":  "jpeg",
		"b.JPEG": "jpeg",
		"c":      "jpeg",
		"d.gif":  "gif",
		"e.svg":  "svg+xml",
	} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("img"), 0o600))
		got, err := LoadFile(p)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(got.DataURI, "data:image/"+want+";base64,"), got.DataURI)
	}
}

func TestResult_Best(t *testing.T) {
	t.Parallel()
	require.Equal(t, "", Result{}.Best())
	require.Equal(t, "s", Result{SecureURL: "s", URL: "u"}.Best())
}
