package lti

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	testIssuer     = "https://lms.example.edu"
	testClientID   = "tool-123"
	testDeployment = "dep-1"
	testNonce      = "nonce-abc"

	claimVersion    = "https://purl.imsglobal.org/spec/lti/claim/version"
	claimDeployment = "https://purl.imsglobal.org/spec/lti/claim/deployment_id"
	claimRoles      = "https://purl.imsglobal.org/spec/lti/claim/roles"
	claimContext    = "https://purl.imsglobal.org/spec/lti/claim/context"

	uriInstructor = "http://purl.imsglobal.org/vocab/lis/v2/membership#Instructor"
)

func testPlatform(jwksURL string) Platform {
	return Platform{
		ID:            "p1",
		Issuer:        testIssuer,
		ClientID:      testClientID,
		AuthLoginURL:  testIssuer + "/oidc/auth",
		JWKSURL:       jwksURL,
		DeploymentIDs: []string{testDeployment},
	}
}

func baseClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":           testIssuer,
		"aud":           testClientID,
		"sub":           "u42",
		"iat":           now.Unix(),
		"exp":           now.Add(5 * time.Minute).Unix(),
		"nonce":         testNonce,
		claimVersion:    LTIVersion,
		claimDeployment: testDeployment,
		claimRoles:      []string{uriInstructor},
		claimContext:    map[string]any{"id": "ACCT-3310", "title": "Intermediate Accounting"},
	}
}

func signRS256(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	s, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestValidateAccepts(t *testing.T) {
	set, priv := testKeySet(t, "kid-1")
	srv := newJWKSServer(t, set)
	v := NewValidator(NewJWKSCache())
	p := testPlatform(srv.URL)

	claims, err := v.Validate(context.Background(), signRS256(t, priv, "kid-1", baseClaims()), p, testNonce)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "u42" || claims.DeploymentID != testDeployment {
		t.Fatalf("wrong claims: %+v", claims)
	}
	if claims.Context == nil || claims.Context.ID != "ACCT-3310" {
		t.Fatalf("context claim not decoded: %+v", claims.Context)
	}
}

func TestValidateRejections(t *testing.T) {
	set, priv := testKeySet(t, "kid-1")
	srv := newJWKSServer(t, set)

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	cases := []struct {
		name     string
		token    func(t *testing.T) string
		nonce    string
		wantCode string
	}{
		{
			name: "unknown kid",
			token: func(t *testing.T) string {
				return signRS256(t, priv, "kid-unregistered", baseClaims())
			},
			nonce:    testNonce,
			wantCode: CodeUnknownKey,
		},
		{
			name: "missing kid",
			token: func(t *testing.T) string {
				tok := jwt.NewWithClaims(jwt.SigningMethodRS256, baseClaims())
				s, err := tok.SignedString(priv)
				if err != nil {
					t.Fatalf("sign: %v", err)
				}
				return s
			},
			nonce:    testNonce,
			wantCode: CodeUnknownKey,
		},
		{
			name: "signed by foreign key under known kid",
			token: func(t *testing.T) string {
				return signRS256(t, otherKey, "kid-1", baseClaims())
			},
			nonce:    testNonce,
			wantCode: CodeBadSignature,
		},
		{
			name: "symmetric alg rejected outright",
			token: func(t *testing.T) string {
				tok := jwt.NewWithClaims(jwt.SigningMethodHS256, baseClaims())
				tok.Header["kid"] = "kid-1"
				s, err := tok.SignedString([]byte("shared-secret"))
				if err != nil {
					t.Fatalf("sign: %v", err)
				}
				return s
			},
			nonce:    testNonce,
			wantCode: CodeBadSignature,
		},
		{
			name: "audience mismatch",
			token: func(t *testing.T) string {
				c := baseClaims()
				c["aud"] = "some-other-tool"
				return signRS256(t, priv, "kid-1", c)
			},
			nonce:    testNonce,
			wantCode: CodeClaimMismatch,
		},
		{
			name: "issuer mismatch",
			token: func(t *testing.T) string {
				c := baseClaims()
				c["iss"] = "https://evil.example.com"
				return signRS256(t, priv, "kid-1", c)
			},
			nonce:    testNonce,
			wantCode: CodeClaimMismatch,
		},
		{
			name: "expired token",
			token: func(t *testing.T) string {
				c := baseClaims()
				c["iat"] = time.Now().Add(-time.Hour).Unix()
				c["exp"] = time.Now().Add(-30 * time.Minute).Unix()
				return signRS256(t, priv, "kid-1", c)
			},
			nonce:    testNonce,
			wantCode: CodeClaimMismatch,
		},
		{
			name: "issued in the future beyond skew",
			token: func(t *testing.T) string {
				c := baseClaims()
				c["iat"] = time.Now().Add(time.Hour).Unix()
				return signRS256(t, priv, "kid-1", c)
			},
			nonce:    testNonce,
			wantCode: CodeClaimMismatch,
		},
		{
			name: "wrong lti version",
			token: func(t *testing.T) string {
				c := baseClaims()
				c[claimVersion] = "1.1.0"
				return signRS256(t, priv, "kid-1", c)
			},
			nonce:    testNonce,
			wantCode: CodeUnsupportedVersion,
		},
		{
			name: "deployment not in allow-list",
			token: func(t *testing.T) string {
				c := baseClaims()
				c[claimDeployment] = "dep-rogue"
				return signRS256(t, priv, "kid-1", c)
			},
			nonce:    testNonce,
			wantCode: CodeUnknownDeployment,
		},
		{
			name: "missing deployment",
			token: func(t *testing.T) string {
				c := baseClaims()
				delete(c, claimDeployment)
				return signRS256(t, priv, "kid-1", c)
			},
			nonce:    testNonce,
			wantCode: CodeUnknownDeployment,
		},
		{
			name: "nonce from a different login",
			token: func(t *testing.T) string {
				return signRS256(t, priv, "kid-1", baseClaims())
			},
			nonce:    "nonce-from-another-flow",
			wantCode: CodeNonceMismatch,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := NewValidator(NewJWKSCache())
			_, err := v.Validate(context.Background(), tc.token(t), testPlatform(srv.URL), tc.nonce)
			if err == nil {
				t.Fatal("token must be rejected")
			}
			if code := ReasonCode(err); code != tc.wantCode {
				t.Fatalf("want reason %s, got %s (%v)", tc.wantCode, code, err)
			}
		})
	}
}

// A validly signed token captured from one flow must not validate
// against another flow's nonce even though every other claim checks out.
func TestValidateReplayedTokenRejected(t *testing.T) {
	set, priv := testKeySet(t, "kid-1")
	srv := newJWKSServer(t, set)
	v := NewValidator(NewJWKSCache())
	p := testPlatform(srv.URL)

	captured := signRS256(t, priv, "kid-1", baseClaims())

	if _, err := v.Validate(context.Background(), captured, p, testNonce); err != nil {
		t.Fatalf("original flow should validate: %v", err)
	}
	_, err := v.Validate(context.Background(), captured, p, "fresh-nonce-of-new-login")
	if err == nil {
		t.Fatal("replayed token must be rejected")
	}
	if code := ReasonCode(err); code != CodeNonceMismatch {
		t.Fatalf("want %s, got %s", CodeNonceMismatch, code)
	}
}
