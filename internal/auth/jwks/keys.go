package jwks

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
)

// KeyPair is the tool's signing key. kid is derived from the public
// modulus so it stays stable across restarts with the same key.
type KeyPair struct {
	KID     string
	Alg     string
	Private *rsa.PrivateKey
}

// LoadOrGenerate parses a PEM-encoded RSA private key, or generates an
// ephemeral 2048-bit key when pemStr is empty (offline/dev: platforms
// re-fetch the JWKS, so an ephemeral key only invalidates old tokens).
func LoadOrGenerate(pemStr string) (*KeyPair, error) {
	if pemStr == "" {
		priv, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, err
		}
		return newKeyPair(priv), nil
	}
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, errors.New("jwks: no PEM block in LTI_PRIVATE_KEY")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return newKeyPair(key), nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("jwks: parse private key: %w", err)
	}
	priv, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("jwks: private key is not RSA")
	}
	return newKeyPair(priv), nil
}

func newKeyPair(priv *rsa.PrivateKey) *KeyPair {
	return &KeyPair{
		KID:     keyID(&priv.PublicKey),
		Alg:     "RS256",
		Private: priv,
	}
}

// PublicJWKS returns the public half as a one-key set for /lti/jwks.
func (k *KeyPair) PublicJWKS() JWKS {
	pub := &k.Private.PublicKey
	return JWKS{Keys: []JWK{{
		Kty: "RSA",
		Use: "sig",
		Kid: k.KID,
		Alg: k.Alg,
		N:   bigIntToB64(pub.N),
		E:   intToB64(pub.E),
	}}}
}

func keyID(pub *rsa.PublicKey) string {
	sum := sha256.Sum256(pub.N.Bytes())
	return base64.RawURLEncoding.EncodeToString(sum[:8])
}

func bigIntToB64(n *big.Int) string {
	if n == nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(n.FillBytes(make([]byte, (n.BitLen()+7)/8)))
}

func intToB64(e int) string {
	b := big.NewInt(int64(e)).Bytes()
	if len(b) == 0 {
		b = []byte{0}
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
