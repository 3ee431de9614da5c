package cmd

import (
	"regexp"
	"strings"
	"testing"

	"github.com/iksnae/hookchat/testutil"
)

var userIDPattern = regexp.MustCompile(`^user-[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestIdentityShowEmpty(t *testing.T) {
	args := append([]string{"identity", "show"}, isolatedArgs(t, "http://127.0.0.1:1")...)
	out, err := runRoot(t, args...)
	if err != nil {
		t.Fatalf("identity show failed: %v", err)
	}
	if !strings.Contains(out, "No user id stored yet") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestIdentityResetThenShow(t *testing.T) {
	base := isolatedArgs(t, "http://127.0.0.1:1")

	out, err := runRoot(t, append([]string{"identity", "reset"}, base...)...)
	if err != nil {
		t.Fatalf("identity reset failed: %v", err)
	}
	id := strings.TrimSpace(out)
	if !userIDPattern.MatchString(id) {
		t.Fatalf("reset printed %q, want a user id", id)
	}

	out, err = runRoot(t, append([]string{"identity", "show"}, base...)...)
	if err != nil {
		t.Fatalf("identity show failed: %v", err)
	}
	if strings.TrimSpace(out) != id {
		t.Errorf("show = %q, want %q", out, id)
	}
}

func TestIdentityShowVerbose(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path := testutil.WriteConfig(t, dir, `
endpoints: [http://127.0.0.1:1]
identity:
  driver: sqlite
`)
	base := []string{"--data-dir", dir, "--config", path}

	if _, err := runRoot(t, append([]string{"identity", "reset"}, base...)...); err != nil {
		t.Fatalf("identity reset failed: %v", err)
	}
	out, err := runRoot(t, append([]string{"identity", "show", "-v"}, base...)...)
	if err != nil {
		t.Fatalf("identity show failed: %v", err)
	}
	if !strings.Contains(out, "Store: sqlite") {
		t.Errorf("verbose output should name the store, got %q", out)
	}
}
