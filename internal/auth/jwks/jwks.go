package jwks

import (
	"encoding/json"
	"net/http"
)

// JWK is a single public key in RFC 7517 form.
type JWK struct {
	Kty string `json:"kty"`
	N   string `json:"n,omitempty"`
	E   string `json:"e,omitempty"`
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
	Use string `json:"use,omitempty"`
	Kid string `json:"kid,omitempty"`
	Alg string `json:"alg,omitempty"`
}

// JWKS is the key set platforms fetch to verify this tool's signatures.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// Handler serves the tool's public key set for platform-side
// registration. Only public material ever goes in here.
func Handler(static JWKS) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if static.Keys == nil {
			static.Keys = []JWK{}
		}
		w.Header().Set("Content-Type", "application/jwk-set+json")
		w.Header().Set("Cache-Control", "public, max-age=600")
		_ = json.NewEncoder(w).Encode(static)
	}
}
