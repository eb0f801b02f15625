package logger

import "testing"

func TestNewEnvironments(t *testing.T) {
	for _, env := range []string{"development", "production", "staging"} {
		if _, err := New(env, "debug"); err != nil {
			t.Fatalf("%s: %v", env, err)
		}
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New("production", "chatty"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
