package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AuthConfig holds the API keys that authorize mutating requests.
type AuthConfig struct {
	apiKeys []string
}

// NewAuthConfigWithKeys creates an AuthConfig. Empty keys are ignored; with
// no keys left, authentication is disabled.
func NewAuthConfigWithKeys(apiKeys []string) AuthConfig {
	keys := make([]string, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return AuthConfig{apiKeys: keys}
}

// Enabled returns true if authentication is enabled.
func (c AuthConfig) Enabled() bool { return len(c.apiKeys) > 0 }

// Valid reports whether key is one of the configured keys.
func (c AuthConfig) Valid(key string) bool {
	found := 0
	for _, k := range c.apiKeys {
		found |= subtle.ConstantTimeCompare([]byte(k), []byte(key))
	}
	return found == 1
}

// WriteProtect requires a valid X-API-KEY header (or bearer token) on
// requests that can change state. GET, HEAD and OPTIONS always pass, as
// does everything when the config has no keys.
func WriteProtect(config AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.Enabled() || readOnly(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			key := requestKey(r)
			if key == "" {
				WriteError(w, r, NewAuthenticationError("X-API-KEY header is required"), nil)
				return
			}
			if !config.Valid(key) {
				WriteError(w, r, NewAuthenticationError("invalid API key"), nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WriteProtectAuth builds WriteProtect from a list of keys.
func WriteProtectAuth(apiKeys []string) func(http.Handler) http.Handler {
	return WriteProtect(NewAuthConfigWithKeys(apiKeys))
}

func readOnly(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func requestKey(r *http.Request) string {
	if key := r.Header.Get("X-API-KEY"); key != "" {
		return key
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
