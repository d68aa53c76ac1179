// ABOUTME: HTTP API tests using httptest against the real mux
// ABOUTME: Exercises send, upload, and broadcast endpoints end to end

package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirimwa/kirim-gateway/internal/config"
	"github.com/kirimwa/kirim-gateway/internal/hub"
	"github.com/kirimwa/kirim-gateway/internal/message"
	"github.com/kirimwa/kirim-gateway/internal/platform"
	"github.com/kirimwa/kirim-gateway/internal/session"
	"github.com/kirimwa/kirim-gateway/internal/store"
)

type testEnv struct {
	gateway *Gateway
	server  *httptest.Server
	store   *store.MockStore

	mu      sync.Mutex
	clients map[string]*platform.FakeClient
}

func (e *testEnv) client(id string) *platform.FakeClient {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clients[id]
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Uploads.Dir = t.TempDir()
	cfg.Messaging.BroadcastDelay = time.Millisecond

	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	mock := store.NewMockStore()
	h := hub.New(mock, logger)

	env := &testEnv{store: mock, clients: map[string]*platform.FakeClient{}}
	factory := func(sessionID string) (platform.Client, error) {
		client := platform.NewFakeClient(sessionID)
		env.mu.Lock()
		env.clients[sessionID] = client
		env.mu.Unlock()
		return client, nil
	}

	registry := session.NewRegistry(mock, h, factory, logger)
	service := message.NewService(cfg.Messaging.CountryCode, nil, logger)

	g := &Gateway{
		config:   cfg,
		store:    mock,
		hub:      h,
		registry: registry,
		service:  service,
		pipeline: message.NewPipeline(service, logger),
		logger:   logger,
	}

	env.gateway = g
	env.server = httptest.NewServer(g.routes())
	cfg.Server.BaseURL = env.server.URL

	t.Cleanup(env.server.Close)
	t.Cleanup(registry.Close)
	t.Cleanup(h.Close)
	return env
}

func (e *testEnv) createSession(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, e.gateway.registry.Create(t.Context(), id, ""))
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestSendMessage(t *testing.T) {
	env := newTestEnv(t)
	env.createSession(t, "sales")

	resp, body := postJSON(t, env.server.URL+"/send-message", SendRequest{
		Sender:  "sales",
		Number:  "081234",
		Message: "hello there",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["status"])

	client := env.client("sales")
	require.Len(t, client.TextSends, 1)
	assert.Equal(t, "6281234@c.us", client.TextSends[0].Addr)
	assert.Equal(t, "hello there", client.TextSends[0].Text)
}

func TestSendMessageValidation(t *testing.T) {
	env := newTestEnv(t)
	env.createSession(t, "sales")

	tests := []struct {
		name string
		req  SendRequest
	}{
		{"missing sender", SendRequest{Number: "0812", Message: "hi"}},
		{"unknown sender", SendRequest{Sender: "ghost", Number: "0812", Message: "hi"}},
		{"missing number", SendRequest{Sender: "sales", Message: "hi"}},
		{"missing message", SendRequest{Sender: "sales", Number: "0812"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postJSON(t, env.server.URL+"/send-message", tt.req)
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
			assert.Equal(t, false, body["status"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestSendMessageUnregisteredNumber(t *testing.T) {
	env := newTestEnv(t)
	env.createSession(t, "sales")
	env.client("sales").Unregistered["6281234@c.us"] = true

	resp, body := postJSON(t, env.server.URL+"/send-message", SendRequest{
		Sender:  "sales",
		Number:  "081234",
		Message: "hi",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "The number is not registered", body["message"])
	assert.Equal(t, 0, env.client("sales").SendCount())
}

func TestSendMessagePlatformFailure(t *testing.T) {
	env := newTestEnv(t)
	env.createSession(t, "sales")
	env.client("sales").SendErrs["6281234@c.us"] = fmt.Errorf("tube clogged")

	resp, body := postJSON(t, env.server.URL+"/send-message", SendRequest{
		Sender:  "sales",
		Number:  "081234",
		Message: "hi",
	})

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, false, body["status"])
	assert.Contains(t, body["response"], "tube clogged")
}

func TestSendMedia(t *testing.T) {
	env := newTestEnv(t)
	env.createSession(t, "sales")

	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg bytes"))
	}))
	defer media.Close()

	resp, body := postJSON(t, env.server.URL+"/send-media", SendRequest{
		Sender:  "sales",
		Number:  "081234",
		Caption: "look at this",
		File:    media.URL + "/photo.jpg",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["status"])

	client := env.client("sales")
	require.Len(t, client.MediaSends, 1)
	assert.Equal(t, "look at this", client.MediaSends[0].Caption)
	assert.Equal(t, "image/jpeg", client.MediaSends[0].Mime)
}

func TestSendMediaFetchFailure(t *testing.T) {
	env := newTestEnv(t)
	env.createSession(t, "sales")

	media := httptest.NewServer(http.NotFoundHandler())
	defer media.Close()

	resp, body := postJSON(t, env.server.URL+"/send-media", SendRequest{
		Sender: "sales",
		Number: "081234",
		File:   media.URL + "/gone.jpg",
	})

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, false, body["status"])
	assert.Equal(t, 0, env.client("sales").SendCount())
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "promo.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(env.server.URL+"/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["status"])

	url, ok := body["url"].(string)
	require.True(t, ok)
	assert.Contains(t, url, "/assets/uploads/")
	assert.Contains(t, url, "promo.png")

	// The public URL serves the stored bytes back.
	got, err := http.Get(url)
	require.NoError(t, err)
	defer got.Body.Close()
	data, err := io.ReadAll(got.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, got.StatusCode)
	assert.Equal(t, "png bytes", string(data))
}

func TestUploadMissingFile(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "value"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(env.server.URL+"/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBroadcast(t *testing.T) {
	env := newTestEnv(t)
	env.createSession(t, "sales")
	env.client("sales").Unregistered["62000@c.us"] = true

	delay := 1
	start := time.Now()
	resp, body := postJSON(t, env.server.URL+"/broadcast", BroadcastRequest{
		Sender:  "sales",
		Numbers: "0812345, 0000",
		Message: "promo time",
		Delay:   &delay,
	})
	elapsed := time.Since(start)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["status"])

	results, ok := body["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 2)

	first := results[0].(map[string]any)
	assert.Equal(t, "62812345@c.us", first["recipient"])
	assert.Equal(t, true, first["status"])
	assert.Equal(t, "Message sent", first["message"])

	second := results[1].(map[string]any)
	assert.Equal(t, "62000@c.us", second["recipient"])
	assert.Equal(t, false, second["status"])
	assert.Equal(t, "The number is not registered", second["message"])

	// One pacing delay between the two recipients.
	assert.GreaterOrEqual(t, elapsed, time.Second)
}

func TestBroadcastUnknownSender(t *testing.T) {
	env := newTestEnv(t)

	resp, body := postJSON(t, env.server.URL+"/broadcast", BroadcastRequest{
		Sender:  "ghost",
		Numbers: "0812",
		Message: "promo",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, false, body["status"])
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(env.server.URL + "/health/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	env.createSession(t, "sales")
	resp, err = http.Get(env.server.URL + "/health/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
