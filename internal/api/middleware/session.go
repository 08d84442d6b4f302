package middleware

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/config"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/session"
	"github.com/google/uuid"
)

type SessionMiddleware struct {
	backend session.Backend
	cfg     config.Session
}

func NewSessionMiddleware(backend session.Backend, cfg config.Session) *SessionMiddleware {
	if cfg.CookieName == "" {
		cfg.CookieName = "session_id"
	}

	return &SessionMiddleware{backend: backend, cfg: cfg}
}

// Handle attaches the caller's session store to the request, issuing a new
// session cookie when the request has none or an unparseable one.
func (m *SessionMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		logger := LoggerFromContext(r.Context())

		id := ""
		if cookie, err := r.Cookie(m.cfg.CookieName); err == nil {
			if _, err := uuid.Parse(cookie.Value); err == nil {
				id = cookie.Value
			}
		}

		if id == "" {
			id = uuid.NewString()
			logger.Debug("Issued new session")
		} else if err := m.backend.Touch(r.Context(), id); err != nil {
			logger.Warn("Failed to extend session", slog.Any("error", err))
		}

		http.SetCookie(w, &http.Cookie{
			Name:     m.cfg.CookieName,
			Value:    id,
			Path:     "/",
			MaxAge:   int(m.cfg.TTL.Seconds()),
			HttpOnly: true,
			Secure:   m.cfg.Secure,
			SameSite: http.SameSiteLaxMode,
		})

		ctx := session.WithStore(r.Context(), m.backend.Open(id))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
