package httpserver

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"

	"github.com/pistalabs/pista/internal/config"
	"github.com/pistalabs/pista/internal/domain"
)

// The auth gateway in front of this service authenticates users and forwards
// the caller identity in signed headers. Requests without an identity stay
// anonymous; their evaluations are simply unattributed.
const (
	headerAuthSubject   = "X-Auth-Subject"
	headerAuthName      = "X-Auth-Name"
	headerAuthSignature = "X-Auth-Signature"
)

type identityKey struct{}

// IdentityMiddleware verifies the signed identity headers and stores the
// resulting identity in the request context. With an empty secret the headers
// are trusted as-is (dev only).
func IdentityMiddleware(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := r.Header.Get(headerAuthSubject)
			if subject == "" {
				next.ServeHTTP(w, r)
				return
			}
			name := r.Header.Get(headerAuthName)
			if cfg.AuthHMACSecret != "" {
				sig := r.Header.Get(headerAuthSignature)
				if !verifyIdentity(cfg.AuthHMACSecret, subject, name, sig) {
					writeErrorMessage(w, http.StatusUnauthorized, "invalid identity signature")
					return
				}
			}
			ctx := context.WithValue(r.Context(), identityKey{}, domain.Identity{Subject: subject, Name: name})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SignIdentity computes the header signature for a subject/name pair. Exported
// for the gateway simulator used in development and tests.
func SignIdentity(secret, subject, name string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(subject))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(name))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func verifyIdentity(secret, subject, name, signature string) bool {
	got, err := base64.RawURLEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(subject))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(name))
	return hmac.Equal(got, mac.Sum(nil))
}

// IdentityFrom returns the authenticated caller, or a zero identity for
// anonymous requests.
func IdentityFrom(r *http.Request) domain.Identity {
	if v := r.Context().Value(identityKey{}); v != nil {
		if id, ok := v.(domain.Identity); ok {
			return id
		}
	}
	return domain.Identity{}
}
