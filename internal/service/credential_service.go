package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// passwordHashCost is deliberately above bcrypt's default so brute
// forcing a leaked hash stays expensive.
const passwordHashCost = 12

// changeBackdate covers the race between issuing an access token and
// committing the password write that stamps the change time. Without
// it a token minted fractionally before the write would fail the
// changed-after check against the write's own timestamp.
const changeBackdate = time.Second

const resetTokenBytes = 32

// CredentialManager owns the transformation of passwords and reset
// tokens into their stored forms. It holds no state besides the reset
// TTL and a clock, so every method is safe for concurrent use.
type CredentialManager struct {
	resetTokenTTL time.Duration

	now func() time.Time
}

func NewCredentialManager(resetTokenTTL time.Duration) *CredentialManager {
	return &CredentialManager{
		resetTokenTTL: resetTokenTTL,
		now:           time.Now,
	}
}

// PrepareForStorage derives the salted hash persisted in place of the
// plaintext. Length and confirmation checks happen at the request
// boundary before this is ever called; the confirmation value never
// reaches this layer.
func (m *CredentialManager) PrepareForStorage(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether candidate matches the stored hash, using
// bcrypt's own comparison rather than any string equality.
func (m *CredentialManager) Verify(candidate, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(candidate)) == nil
}

// StampChange returns the change timestamp to persist when an existing
// account's password is altered. Not used on registration.
func (m *CredentialManager) StampChange() time.Time {
	return m.now().Add(-changeBackdate)
}

// ChangedAfter reports whether the password was changed strictly after
// the given epoch-second instant. A never-changed password returns
// false. Token verification uses this to invalidate tokens issued
// before a password change.
func (m *CredentialManager) ChangedAfter(changedAt *time.Time, issuedAtUnix int64) bool {
	if changedAt == nil {
		return false
	}
	return changedAt.Unix() > issuedAtUnix
}

// ResetToken pairs the raw value sent to the user with the form that
// may be persisted. Raw never touches the database.
type ResetToken struct {
	Raw       string
	Hash      string
	ExpiresAt time.Time
}

// NewResetToken draws 32 random bytes and returns the hex raw token
// alongside its SHA-256. The token already carries 256 bits of
// entropy, so an unsalted digest is enough to keep a leaked credential
// store from exposing usable tokens.
func (m *CredentialManager) NewResetToken() (*ResetToken, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate reset token: %w", err)
	}

	raw := hex.EncodeToString(buf)
	return &ResetToken{
		Raw:       raw,
		Hash:      hashResetToken(raw),
		ExpiresAt: m.now().Add(m.resetTokenTTL),
	}, nil
}

// CheckResetToken reports whether raw matches the stored hash and the
// expiry is still in the future. Mismatch and expiry are deliberately
// indistinguishable.
func (m *CredentialManager) CheckResetToken(raw string, storedHash *string, expiresAt *time.Time) bool {
	if storedHash == nil || expiresAt == nil {
		return false
	}
	if !expiresAt.After(m.now()) {
		return false
	}
	candidate := hashResetToken(raw)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(*storedHash)) == 1
}

// HashResetToken exposes the stored form of a raw token for lookups.
func (m *CredentialManager) HashResetToken(raw string) string {
	return hashResetToken(raw)
}

func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
