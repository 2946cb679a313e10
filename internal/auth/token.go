// Package auth produces the short-lived signed tokens and the round-robin
// key selection used to authenticate against the ZhipuAI open platform.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAPIKey is the built-in fallback key used when no key is configured.
const DefaultAPIKey = "966cec8673c747d9af68fd11ae5226f9.DufxR7EdpFZQmihL"

// tokenTTL is the validity window encoded into each token. A fresh token is
// minted per request, so one hour always outlives the request it signs.
const tokenTTL = time.Hour

// ErrInvalidKeyFormat is returned by [SignToken] when the API key does not
// split into "<id>.<secret>" with both parts non-empty.
var ErrInvalidKeyFormat = errors.New("auth: invalid API key format, want \"<id>.<secret>\"")

// SignToken builds the bearer token Zhipu expects: an HS256 JWT whose header
// carries sign_type "SIGN" (and no "typ") and whose claims carry the key id
// plus millisecond expiry and issue timestamps. Both JSON segments are
// unpadded base64url per RFC 7515, and encoding/json sorts the map keys, so
// the token bytes are reproducible for a fixed key and instant.
func SignToken(apiKey string, now time.Time) (string, error) {
	id, secret, ok := strings.Cut(apiKey, ".")
	if !ok || id == "" || secret == "" {
		return "", ErrInvalidKeyFormat
	}

	millis := now.UnixMilli()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"api_key":   id,
		"exp":       millis + tokenTTL.Milliseconds(),
		"timestamp": millis,
	})
	tok.Header["sign_type"] = "SIGN"
	delete(tok.Header, "typ")

	signed, err := tok.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}
