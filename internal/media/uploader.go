package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mb-events/server/internal/config"
)

// MaxImageSize caps event poster uploads at 5 MiB.
const MaxImageSize = 5 << 20

var ErrUploadFailed = errors.New("media upload failed")

// Uploader pushes event images to the configured media host and returns a
// durable URL for storage. The host speaks a small multipart API: POST the
// file plus a folder field, get back {"secure_url": "..."}.
type Uploader struct {
	cfg    config.MediaConfig
	client *http.Client
	logger zerolog.Logger
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
}

func NewUploader(cfg config.MediaConfig, logger zerolog.Logger) *Uploader {
	return &Uploader{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger.With().Str("component", "media").Logger(),
	}
}

// Upload streams the image to the media host and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, filename string, file io.Reader) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	if _, err := io.Copy(part, io.LimitReader(file, MaxImageSize)); err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if u.cfg.Folder != "" {
		if err := writer.WriteField("folder", u.cfg.Folder); err != nil {
			return "", fmt.Errorf("build upload request: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.cfg.UploadURL, &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if u.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.cfg.APIKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		u.logger.Warn().
			Int("status", resp.StatusCode).
			Str("filename", filename).
			Msg("media host rejected upload")
		return "", fmt.Errorf("%w: status %d", ErrUploadFailed, resp.StatusCode)
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUploadFailed, err)
	}

	url := parsed.SecureURL
	if url == "" {
		url = parsed.URL
	}
	if url == "" {
		return "", fmt.Errorf("%w: response carries no URL", ErrUploadFailed)
	}

	u.logger.Debug().Str("filename", filename).Str("url", url).Msg("image uploaded")
	return url, nil
}
