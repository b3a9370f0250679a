package model

import (
	"encoding/json"
	"testing"
)

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role     string
		minimum  string
		expected bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{RoleUser, RoleUser, true},
		// Unknown roles fail-closed.
		{"unknown", RoleUser, false},
		{RoleAdmin, "unknown", false},
		{"", "", false},
		{"", RoleUser, false},
	}

	for _, tt := range tests {
		got := RoleAtLeast(tt.role, tt.minimum)
		if got != tt.expected {
			t.Errorf("RoleAtLeast(%q, %q) = %v, want %v", tt.role, tt.minimum, got, tt.expected)
		}
	}
}

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
	}
}

func TestSnapshot(t *testing.T) {
	u := User{ID: "u1", Email: "nurse@example.org", Department: "PICU"}
	s := u.Snapshot()
	if s.UserName != "nurse@example.org" {
		t.Errorf("expected email as fallback name, got %q", s.UserName)
	}

	u.DisplayName = "Ana Novak"
	s = u.Snapshot()
	if s.UserID != "u1" || s.UserName != "Ana Novak" || s.UserDepartment != "PICU" {
		t.Errorf("unexpected snapshot: %+v", s)
	}
}

func TestUserActiveByDefault(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		expected bool
	}{
		{"missing", `{"id":"u1","email":"nurse@example.org","role":"user"}`, true},
		{"explicit true", `{"id":"u1","isActive":true}`, true},
		{"explicit false", `{"id":"u1","isActive":false}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u User
			if err := json.Unmarshal([]byte(tt.data), &u); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if u.IsActive != tt.expected {
				t.Errorf("IsActive = %v, want %v", u.IsActive, tt.expected)
			}
			if u.ID != "u1" {
				t.Errorf("ID = %q, want u1", u.ID)
			}
		})
	}
}
