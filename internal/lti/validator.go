package lti

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Validator checks an id_token against a platform's published keys and
// registered configuration. Every check maps to a distinct reason code;
// any single failure rejects the launch.
type Validator struct {
	Keys *JWKSCache

	// AllowedAlgs restricts acceptable signature algorithms. Only
	// asymmetric algorithms may appear here: a token claiming HS256 (or
	// "none") must fail no matter what its header says, otherwise the
	// platform's public key doubles as an HMAC secret.
	AllowedAlgs []string

	// Leeway absorbs clock skew between platform and tool on exp/iat.
	Leeway time.Duration
}

func NewValidator(keys *JWKSCache) *Validator {
	return &Validator{
		Keys:        keys,
		AllowedAlgs: []string{"RS256"},
		Leeway:      60 * time.Second,
	}
}

var (
	errMissingKID = errors.New("token header has no kid")
	errUnknownKID = errors.New("no platform key matches kid")
)

// Validate runs the full check sequence:
//
//  1. parse the header for the key id without trusting any claim
//  2. resolve the signing key from the platform's JWKS by kid
//  3. verify the signature with that key (asymmetric algs only)
//  4. verify aud == client_id, iss == registered issuer, exp, iat
//  5. verify the LTI version claim
//  6. verify deployment_id is in the platform's allow-list
//  7. verify the nonce echoes the consumed login state's nonce
//
// Checks 4-7 only run on a signature-verified payload. A validly signed
// token replayed from another login attempt still fails at 7.
func (v *Validator) Validate(ctx context.Context, rawToken string, p Platform, expectedNonce string) (*LaunchClaims, error) {
	set, err := v.Keys.Keys(ctx, p.JWKSURL)
	if err != nil {
		return nil, err
	}

	keyfunc := func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errMissingKID
		}
		matches := set.Key(kid)
		if len(matches) == 0 {
			return nil, errUnknownKID
		}
		return matches[0].Key, nil
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods(v.allowedAlgs()),
		jwt.WithAudience(p.ClientID),
		jwt.WithIssuer(p.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.Leeway),
	)

	claims := &LaunchClaims{}
	_, err = parser.ParseWithClaims(rawToken, claims, keyfunc)
	if err != nil {
		return nil, flowWrap(classifyJWTError(err), err)
	}

	if claims.Version != LTIVersion {
		return nil, flowErr(CodeUnsupportedVersion, "lti version %q, want %q", claims.Version, LTIVersion)
	}
	if claims.DeploymentID == "" || !p.AllowsDeployment(claims.DeploymentID) {
		return nil, flowErr(CodeUnknownDeployment, "deployment %q not registered for issuer %s", claims.DeploymentID, p.Issuer)
	}
	if expectedNonce == "" || subtle.ConstantTimeCompare([]byte(claims.Nonce), []byte(expectedNonce)) != 1 {
		return nil, flowErr(CodeNonceMismatch, "nonce does not match login state")
	}
	return claims, nil
}

// classifyJWTError maps parse/verify failures onto the reason taxonomy.
func classifyJWTError(err error) string {
	switch {
	case errors.Is(err, errMissingKID), errors.Is(err, errUnknownKID):
		return CodeUnknownKey
	case errors.Is(err, jwt.ErrTokenExpired),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return CodeClaimMismatch
	default:
		// Signature mismatch, disallowed alg, malformed token: all are
		// failures to establish authenticity.
		return CodeBadSignature
	}
}

func (v *Validator) allowedAlgs() []string {
	if len(v.AllowedAlgs) > 0 {
		return v.AllowedAlgs
	}
	return []string{"RS256"}
}
