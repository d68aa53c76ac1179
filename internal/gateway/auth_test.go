// ABOUTME: Tests auth middleware wiring on the API surface
// ABOUTME: API endpoints require tokens when a secret is configured, probes stay open

package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirimwa/kirim-gateway/internal/auth"
)

func TestAPIRequiresTokenWhenSecretConfigured(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.config.Auth.JWTSecret = "t0psecret"

	srv := httptest.NewServer(env.gateway.routes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/send-message", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Health probes stay open.
	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A valid token clears the middleware; the empty body then fails
	// validation instead.
	token, err := auth.NewJWTVerifier([]byte("t0psecret")).Generate("dashboard", time.Hour)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/send-message", strings.NewReader("{}"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
