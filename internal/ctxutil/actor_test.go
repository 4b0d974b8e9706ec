package ctxutil

import (
	"context"
	"testing"
)

func TestActorRoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := ActorFromContext(ctx); got != "" {
		t.Errorf("expected empty actor, got %q", got)
	}

	ctx = WithActorID(ctx, "USER-001")
	if got := ActorFromContext(ctx); got != "USER-001" {
		t.Errorf("expected USER-001, got %q", got)
	}

	ctx = WithRequestID(ctx, "req-1")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("expected req-1, got %q", got)
	}
	if got := ActorFromContext(ctx); got != "USER-001" {
		t.Errorf("expected actor preserved, got %q", got)
	}
}
