package models

import "testing"

func TestSanitizeHomeDir(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		fallback string
		want     string
	}{
		{"empty uses fallback", "", "alice", "alice"},
		{"plain", "alice", "alice", "alice"},
		{"nested", "team/alice", "alice", "team/alice"},
		{"backslashes", `team\alice`, "alice", "team/alice"},
		{"dotdot dropped", "../../etc", "alice", "etc"},
		{"dot dropped", "./alice/.", "alice", "alice"},
		{"drive prefix dropped", `C:\alice`, "alice", "alice"},
		{"only dots uses fallback", "../..", "bob", "bob"},
		{"repeated separators", "a//b///c", "x", "a/b/c"},
		{"whitespace trimmed", "  alice  ", "x", "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeHomeDir(tt.in, tt.fallback); got != tt.want {
				t.Errorf("SanitizeHomeDir(%q, %q) = %q, want %q", tt.in, tt.fallback, got, tt.want)
			}
		})
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("Passw0rd!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword("Passw0rd!", hash) {
		t.Error("expected matching password to verify")
	}
	if VerifyPassword("wrong", hash) {
		t.Error("expected mismatched password to fail")
	}
	if VerifyPassword("Passw0rd!", "") {
		t.Error("expected empty hash to fail")
	}
	if VerifyPassword("Passw0rd!", "not-a-bcrypt-hash") {
		t.Error("expected malformed hash to fail")
	}
}

func TestUserValidate(t *testing.T) {
	u := &User{Username: "alice", Role: "user"}
	if err := u.Validate(); err != nil {
		t.Errorf("valid user rejected: %v", err)
	}
	u = &User{Username: "", Role: "user"}
	if err := u.Validate(); err == nil {
		t.Error("expected error for empty username")
	}
	u = &User{Username: "alice", Role: "superuser"}
	if err := u.Validate(); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestRoleIsValid(t *testing.T) {
	if !RoleAdmin.IsValid() || !RoleUser.IsValid() {
		t.Error("built-in roles must be valid")
	}
	if UserRole("root").IsValid() {
		t.Error("unknown role must be invalid")
	}
}
