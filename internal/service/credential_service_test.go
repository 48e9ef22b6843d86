package service

import (
	"strings"
	"testing"
	"time"
)

func TestPrepareForStorageAndVerify(t *testing.T) {
	m := NewCredentialManager(10 * time.Minute)

	hash, err := m.PrepareForStorage("password123")
	if err != nil {
		t.Fatalf("PrepareForStorage: %v", err)
	}

	if hash == "password123" {
		t.Fatal("stored hash equals the plaintext")
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("expected a bcrypt hash, got %q", hash)
	}

	if !m.Verify("password123", hash) {
		t.Error("Verify rejected the correct password")
	}
	if m.Verify("wrongpass", hash) {
		t.Error("Verify accepted a wrong password")
	}
}

func TestPrepareForStorageSalts(t *testing.T) {
	m := NewCredentialManager(10 * time.Minute)

	first, err := m.PrepareForStorage("password123")
	if err != nil {
		t.Fatalf("PrepareForStorage: %v", err)
	}
	second, err := m.PrepareForStorage("password123")
	if err != nil {
		t.Fatalf("PrepareForStorage: %v", err)
	}

	if first == second {
		t.Error("two hashes of the same password are identical; salt is not applied")
	}
}

func TestStampChangeBackdates(t *testing.T) {
	m := NewCredentialManager(10 * time.Minute)

	before := time.Now()
	stamp := m.StampChange()

	if !stamp.Before(before) {
		t.Errorf("StampChange() = %v, want strictly before %v", stamp, before)
	}
	if before.Sub(stamp) > 2*time.Second {
		t.Errorf("StampChange() backdated by %v, want about one second", before.Sub(stamp))
	}
}

func TestChangedAfter(t *testing.T) {
	m := NewCredentialManager(10 * time.Minute)

	if m.ChangedAfter(nil, time.Now().Unix()) {
		t.Error("ChangedAfter(nil) = true, never-changed passwords must report false")
	}

	changed := time.Now()
	if !m.ChangedAfter(&changed, changed.Add(-time.Hour).Unix()) {
		t.Error("token issued before the change must be reported as stale")
	}
	if m.ChangedAfter(&changed, changed.Add(time.Hour).Unix()) {
		t.Error("token issued after the change must not be reported as stale")
	}
}

func TestNewResetToken(t *testing.T) {
	m := NewCredentialManager(10 * time.Minute)

	token, err := m.NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}

	if len(token.Raw) != 64 {
		t.Errorf("raw token is %d hex chars, want 64", len(token.Raw))
	}
	if token.Hash == token.Raw {
		t.Error("stored hash equals the raw token")
	}
	if token.Hash != m.HashResetToken(token.Raw) {
		t.Error("token hash does not match HashResetToken of the raw value")
	}

	wantExpiry := time.Now().Add(10 * time.Minute)
	if token.ExpiresAt.Before(wantExpiry.Add(-time.Minute)) || token.ExpiresAt.After(wantExpiry.Add(time.Minute)) {
		t.Errorf("expiry %v not within the 10 minute window", token.ExpiresAt)
	}

	other, err := m.NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}
	if other.Raw == token.Raw {
		t.Error("two reset tokens are identical")
	}
}

func TestCheckResetToken(t *testing.T) {
	m := NewCredentialManager(10 * time.Minute)

	token, err := m.NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}

	if !m.CheckResetToken(token.Raw, &token.Hash, &token.ExpiresAt) {
		t.Error("fresh token rejected")
	}
	if m.CheckResetToken("deadbeef", &token.Hash, &token.ExpiresAt) {
		t.Error("wrong token accepted")
	}

	// Cleared state: a consumed token has no stored hash left to match.
	if m.CheckResetToken(token.Raw, nil, &token.ExpiresAt) {
		t.Error("token accepted against a cleared hash")
	}
	if m.CheckResetToken(token.Raw, &token.Hash, nil) {
		t.Error("token accepted without an expiry")
	}
}

func TestCheckResetTokenExpiry(t *testing.T) {
	m := NewCredentialManager(10 * time.Minute)

	token, err := m.NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}

	// Simulated clock: eleven minutes after issuance.
	m.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

	if m.CheckResetToken(token.Raw, &token.Hash, &token.ExpiresAt) {
		t.Error("expired token accepted even with the correct raw value")
	}
}
