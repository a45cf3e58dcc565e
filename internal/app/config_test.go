package app

import (
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppAddr != ":8080" {
		t.Fatalf("addr = %q, want :8080", cfg.AppAddr)
	}
	if cfg.IsProduction() {
		t.Fatalf("default env must not be production")
	}
	if names := cfg.DefaultReadRoleNames(); names != nil {
		t.Fatalf("default read roles should be empty, got %v", names)
	}
}

func TestLoadConfigRequiresSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without session secret")
	}
}

func TestDefaultReadRoleNames(t *testing.T) {
	cfg := &Config{DefaultReadRoles: " USER, GUEST ,,"}
	names := cfg.DefaultReadRoleNames()
	if len(names) != 2 || names[0] != "USER" || names[1] != "GUEST" {
		t.Fatalf("names = %v, want [USER GUEST]", names)
	}
}
