package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	// ErrTokenInvalid reports a malformed or forged download token.
	ErrTokenInvalid = errors.New("invalid download token")
	// ErrTokenExpired reports a well-signed token past its expiry.
	ErrTokenExpired = errors.New("download token expired")
)

type tokenClaims struct {
	Ref  string `json:"r"`
	Path string `json:"p"`
	Exp  int64  `json:"e"`
}

// SignedURLSigner issues download tokens of the form <payload>.<mac>, both base64url.
// The payload names the form, the stored file and the expiry.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate returns a token for relPath owned by ref.
func (s *SignedURLSigner) Generate(ref, relPath string) (string, time.Time, error) {
	if ref == "" || relPath == "" {
		return "", time.Time{}, errors.New("ref and relPath required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	raw, err := json.Marshal(tokenClaims{Ref: ref, Path: relPath, Exp: expiresAt.Unix()})
	if err != nil {
		return "", time.Time{}, err
	}
	payload := base64.RawURLEncoding.EncodeToString(raw)
	return payload + "." + s.sign(payload), expiresAt, nil
}

// Parse verifies the token and returns its contents. Forged or malformed tokens yield
// ErrTokenInvalid; expired ones ErrTokenExpired.
func (s *SignedURLSigner) Parse(token string) (ref, relPath string, expiresAt time.Time, err error) {
	payload, mac, ok := strings.Cut(token, ".")
	if !ok || payload == "" || mac == "" {
		return "", "", time.Time{}, ErrTokenInvalid
	}
	if !hmac.Equal([]byte(s.sign(payload)), []byte(mac)) {
		return "", "", time.Time{}, ErrTokenInvalid
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", "", time.Time{}, ErrTokenInvalid
	}
	var claims tokenClaims
	if err := json.Unmarshal(raw, &claims); err != nil || claims.Ref == "" || claims.Path == "" {
		return "", "", time.Time{}, ErrTokenInvalid
	}

	expiresAt = time.Unix(claims.Exp, 0)
	if s.now().After(expiresAt) {
		return "", "", time.Time{}, ErrTokenExpired
	}
	return claims.Ref, claims.Path, expiresAt, nil
}

func (s *SignedURLSigner) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
