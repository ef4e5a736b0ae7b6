package storage

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidToken covers malformed tokens and signature mismatches.
	ErrInvalidToken = errors.New("invalid download token")
	// ErrExpiredToken is returned for an authentic token past its expiry.
	ErrExpiredToken = errors.New("download token expired")
)

// Grant is what a download token authorises: one stored file of one export job until ExpiresAt.
type Grant struct {
	JobID     string    `json:"j"`
	Path      string    `json:"p"`
	ExpiresAt time.Time `json:"-"`
	Expiry    int64     `json:"e"`
}

// SignedURLSigner issues and verifies download tokens of the form
// base64url(json grant) "." base64url(hmac-sha256).
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner builds a signer; ttl defaults to 24h.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate signs a grant for relPath of jobID.
func (s *SignedURLSigner) Generate(jobID, relPath string) (string, Grant, error) {
	if jobID == "" || relPath == "" {
		return "", Grant{}, errors.New("job id and path required")
	}
	if len(s.secret) == 0 {
		return "", Grant{}, errors.New("signing secret missing")
	}
	expires := s.now().Add(s.ttl).Truncate(time.Second)
	grant := Grant{JobID: jobID, Path: relPath, Expiry: expires.Unix(), ExpiresAt: expires}
	body, err := json.Marshal(grant)
	if err != nil {
		return "", Grant{}, fmt.Errorf("encode grant: %w", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(body)
	return payload + "." + s.sign(payload), grant, nil
}

// Parse verifies token and returns its grant. allowExpired skips the expiry
// check so cleanup can still locate files behind stale tokens.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (Grant, error) {
	payload, sig, ok := strings.Cut(token, ".")
	if !ok || payload == "" || sig == "" {
		return Grant{}, ErrInvalidToken
	}
	if !hmac.Equal([]byte(s.sign(payload)), []byte(sig)) {
		return Grant{}, ErrInvalidToken
	}
	body, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Grant{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	var grant Grant
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&grant); err != nil || grant.JobID == "" || grant.Path == "" {
		return Grant{}, ErrInvalidToken
	}
	grant.ExpiresAt = time.Unix(grant.Expiry, 0)
	if !allowExpired && s.now().After(grant.ExpiresAt) {
		return Grant{}, ErrExpiredToken
	}
	return grant, nil
}

func (s *SignedURLSigner) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
