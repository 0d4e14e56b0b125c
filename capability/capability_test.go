/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package capability

import (
	"errors"
	"strings"
	"testing"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newAuthority(t *testing.T, secret []byte) *Authority {
	t.Helper()

	a, err := New(secret)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return a
}

func TestNew_ShortSecret(t *testing.T) {
	if _, err := New([]byte("short")); err == nil {
		t.Error("expected error for short secret")
	}
}

func TestIssueVerify(t *testing.T) {
	a := newAuthority(t, testSecret)

	token, id, err := a.Issue("ABC123", "Alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if token == "" || id == "" {
		t.Fatal("expected token and id")
	}

	claims, err := a.Verify(token, "ABC123")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Subject != "Alice" || claims.ID != id || claims.Group != "ABC123" {
		t.Errorf("unexpected claims: %+v", claims)
	}

	if !a.Grants(token, "ABC123", "alice", id) {
		t.Error("expected token to grant admin rights")
	}
}

func TestVerify_Rejects(t *testing.T) {
	a := newAuthority(t, testSecret)
	other := newAuthority(t, []byte(strings.Repeat("z", 32)))

	token, id, err := a.Issue("ABC123", "Alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	forged, _, err := other.Issue("ABC123", "Alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tests := []struct {
		name  string
		token string
		code  string
	}{
		{"empty", "", "ABC123"},
		{"garbage", "not-a-token", "ABC123"},
		{"other group", token, "XYZ789"},
		{"other secret", forged, "ABC123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.Verify(tt.token, tt.code); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}

	if a.Grants(token, "ABC123", "Bob", id) {
		t.Error("token must not grant rights to another admin name")
	}
	if a.Grants(token, "ABC123", "Alice", "some-other-id") {
		t.Error("token must not grant rights when the recorded id differs")
	}
	if a.Grants(token, "ABC123", "Alice", "") {
		t.Error("token must not grant rights when no id is recorded")
	}
}
