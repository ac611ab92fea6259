package config

import (
	"testing"

	"github.com/Megaleo/dixit-telegram-bot/internal/game"
)

func TestValidate(t *testing.T) {
	cfg := &Config{Port: 8080, EndCriterion: "LastCard"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg = &Config{Port: 0, EndCriterion: "LastCard"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for port 0")
	}
	cfg = &Config{Port: 70000, EndCriterion: "LastCard"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an out-of-range port")
	}
	cfg = &Config{Port: 8080, EndCriterion: "Never"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an unknown end criterion")
	}
}

func TestCriterion(t *testing.T) {
	cfg := &Config{EndCriterion: "Points"}
	if got := cfg.Criterion(); got != game.EndPoints {
		t.Fatalf("expected %q, got %q", game.EndPoints, got)
	}
	cfg = &Config{EndCriterion: "garbage"}
	if got := cfg.Criterion(); got != game.EndLastCard {
		t.Fatalf("expected the LastCard fallback, got %q", got)
	}
}

func TestAddr(t *testing.T) {
	cfg := &Config{Bind: "127.0.0.1", Port: 9000}
	if got := cfg.Addr(); got != "127.0.0.1:9000" {
		t.Fatalf("unexpected address %q", got)
	}
}
