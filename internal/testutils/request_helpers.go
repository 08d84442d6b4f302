package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/session"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils/response"
	"github.com/stretchr/testify/require"
)

// CreateShopRequest builds a JSON request that already went through the session
// and auth middleware for principal. The returned store is the session it carries.
func CreateShopRequest(method, target string, body []byte, principal models.Principal) (*http.Request, session.Store) {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	store := session.NewMemoryBackend().Open(principal.SessionKey)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := middleware.WithLogger(req.Context(), logger)
	ctx = session.WithStore(ctx, store)
	ctx = middleware.WithPrincipal(ctx, principal)

	return req.WithContext(ctx), store
}

// DecodeEnvelope unwraps a response envelope, decoding its data into data when non-nil.
func DecodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) response.APIResponse {
	t.Helper()

	var raw struct {
		Success bool                    `json:"success"`
		Data    json.RawMessage         `json:"data"`
		Error   *response.ErrorResponse `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))

	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}

	return response.APIResponse{Success: raw.Success, Error: raw.Error}
}
