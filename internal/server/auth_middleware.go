package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/zeusync/desksim/internal/core/observability/log"
)

// TokenAuth guards the IPC endpoint with a shared secret. The token is read
// from the token query parameter, since browsers cannot set headers on a
// websocket handshake, or from a bearer Authorization header.
type TokenAuth struct {
	token  string
	logger log.Log
}

// NewTokenAuth returns a guard for token. An empty token lets everyone in.
func NewTokenAuth(token string) *TokenAuth {
	return &TokenAuth{token: token, logger: log.NewNop()}
}

func (a *TokenAuth) WithLogger(logger log.Log) *TokenAuth {
	a.logger = logger
	return a
}

func (a *TokenAuth) Enabled() bool { return a.token != "" }

// Authorize reports whether r carries the expected token.
func (a *TokenAuth) Authorize(r *http.Request) error {
	if !a.Enabled() {
		return nil
	}
	got := r.URL.Query().Get("token")
	if got == "" {
		got = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(a.token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// Middleware rejects unauthorized requests before they reach next.
func (a *TokenAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := a.Authorize(r); err != nil {
			a.logger.Warn("Rejected unauthorized client", log.String("remote_addr", r.RemoteAddr))
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
