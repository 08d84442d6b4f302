package handlers

import (
	"net/http"
	"strconv"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	appErrors "github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/session"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils/response"
)

// requestIdentity returns the principal and session attached by the session
// and auth middleware. It writes the error response itself when either is missing.
func requestIdentity(w http.ResponseWriter, r *http.Request) (models.Principal, session.Store, bool) {

	logger := middleware.LoggerFromContext(r.Context())

	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		logger.Error("Request reached handler without a principal")
		response.Error(w, appErrors.InternalError("Request identity is not available"))
		return models.Principal{}, nil, false
	}

	store, ok := session.FromContext(r.Context())
	if !ok {
		logger.Error("Request reached handler without a session")
		response.Error(w, appErrors.InternalError("Session is not available"))
		return models.Principal{}, nil, false
	}

	return principal, store, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {

	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(w, appErrors.BadRequestError("Invalid "+name))
		return 0, false
	}

	return id, true
}
