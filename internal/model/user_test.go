package model

import (
	"errors"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"", true},
		{"short", true},
		{"1234567", true},
		{"12345678", false},
		{"a-valid-password", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ValidatePassword(%q) error = %v, want ErrInvalidInput", tt.password, err)
		}
	}
}

func TestUserPrincipal(t *testing.T) {
	u := &User{ID: "65a1b2c3d4e5f60718293a4b", Username: "alice", IsAdmin: true}
	p := u.Principal()
	if p.ID != u.ID || p.Username != "alice" || !p.IsAdmin {
		t.Errorf("unexpected principal %+v", p)
	}
}

func TestValidID(t *testing.T) {
	if !ValidID(NewID()) {
		t.Error("expected generated id to be valid")
	}
	for _, id := range []string{"", "123", "not-an-object-id-at-all!", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		if ValidID(id) {
			t.Errorf("ValidID(%q) = true, want false", id)
		}
	}
}
