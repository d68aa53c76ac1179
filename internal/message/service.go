// ABOUTME: Send and registration-check service over a session's client.
// ABOUTME: Wraps failures in typed errors and fetches media from caller URLs.

package message

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/kirimwa/kirim-gateway/internal/platform"
)

// maxMediaBytes caps how much attachment data one fetch may pull in.
const maxMediaBytes = 32 << 20

// Sender is the per-session send surface the service operates on.
// *session.Worker satisfies it; the worker serializes calls so the
// underlying client never runs concurrently.
type Sender interface {
	IsRegistered(ctx context.Context, addr string) (bool, error)
	SendText(ctx context.Context, addr, text string) (platform.Receipt, error)
	SendMedia(ctx context.Context, addr string, media platform.Media, caption string) (platform.Receipt, error)
}

// Service normalizes recipients and performs checks and sends through a
// session's Sender, translating failures into typed errors.
type Service struct {
	countryCode string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewService creates a Service. httpClient may be nil, in which case a
// client with a 30s timeout is used for media fetches.
func NewService(countryCode string, httpClient *http.Client, logger *slog.Logger) *Service {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Service{
		countryCode: countryCode,
		httpClient:  httpClient,
		logger:      logger,
	}
}

// Normalize canonicalizes a raw number with the configured country code.
func (s *Service) Normalize(number string) string {
	return Normalize(number, s.countryCode)
}

// IsRegistered reports whether the normalized recipient can receive
// messages. A lookup failure comes back as a RecipientCheckError, never
// as a silent false.
func (s *Service) IsRegistered(ctx context.Context, snd Sender, addr string) (bool, error) {
	ok, err := snd.IsRegistered(ctx, addr)
	if err != nil {
		return false, &RecipientCheckError{Recipient: addr, Err: err}
	}
	return ok, nil
}

// SendText delivers a text message to an already-normalized address.
func (s *Service) SendText(ctx context.Context, snd Sender, addr, text string) (platform.Receipt, error) {
	receipt, err := snd.SendText(ctx, addr, text)
	if err != nil {
		return platform.Receipt{}, &SendError{Recipient: addr, Err: err}
	}
	s.logger.Info("message sent", "recipient", addr)
	return receipt, nil
}

// SendMedia fetches the attachment from fileURL and delivers it with an
// optional caption.
func (s *Service) SendMedia(ctx context.Context, snd Sender, addr, fileURL, caption string) (platform.Receipt, error) {
	media, err := s.Fetch(ctx, fileURL)
	if err != nil {
		return platform.Receipt{}, err
	}

	receipt, err := snd.SendMedia(ctx, addr, media, caption)
	if err != nil {
		return platform.Receipt{}, &SendError{Recipient: addr, Err: err}
	}
	s.logger.Info("media sent", "recipient", addr, "mime_type", media.MimeType)
	return receipt, nil
}

// Fetch retrieves attachment bytes from a URL. The mime type comes from
// the response Content-Type and the filename from the URL path.
func (s *Service) Fetch(ctx context.Context, fileURL string) (platform.Media, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return platform.Media{}, &MediaFetchError{URL: fileURL, Err: err}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return platform.Media{}, &MediaFetchError{URL: fileURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return platform.Media{}, &MediaFetchError{URL: fileURL, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return platform.Media{}, &MediaFetchError{URL: fileURL, Err: err}
	}

	mimeType := resp.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mediaType
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return platform.Media{
		Data:     data,
		MimeType: mimeType,
		Filename: path.Base(req.URL.Path),
	}, nil
}
