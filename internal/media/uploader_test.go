package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mb-events/server/internal/config"
)

func TestUploadReturnsSecureURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(MaxImageSize))
		require.Equal(t, "events", r.FormValue("folder"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "poster.png", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"secure_url": "https://cdn.example.com/events/poster.png"}`))
	}))
	defer server.Close()

	uploader := NewUploader(config.MediaConfig{
		UploadURL: server.URL,
		APIKey:    "key-123",
		Folder:    "events",
	}, zerolog.Nop())

	url, err := uploader.Upload(context.Background(), "poster.png", strings.NewReader("fake-png-bytes"))

	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/events/poster.png", url)
}

func TestUploadFallsBackToPlainURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"url": "http://cdn.example.com/poster.png"}`))
	}))
	defer server.Close()

	uploader := NewUploader(config.MediaConfig{UploadURL: server.URL}, zerolog.Nop())

	url, err := uploader.Upload(context.Background(), "poster.png", strings.NewReader("x"))

	require.NoError(t, err)
	require.Equal(t, "http://cdn.example.com/poster.png", url)
}

func TestUploadErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	uploader := NewUploader(config.MediaConfig{UploadURL: server.URL}, zerolog.Nop())

	_, err := uploader.Upload(context.Background(), "poster.png", strings.NewReader("x"))

	require.ErrorIs(t, err, ErrUploadFailed)
}

func TestUploadMissingURLInResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	uploader := NewUploader(config.MediaConfig{UploadURL: server.URL}, zerolog.Nop())

	_, err := uploader.Upload(context.Background(), "poster.png", strings.NewReader("x"))

	require.ErrorIs(t, err, ErrUploadFailed)
}
