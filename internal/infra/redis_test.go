package infra

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping: %v", err)
	}

	disabled, err := NewRedisClient(context.Background(), "")
	if err != nil || disabled != nil {
		t.Fatalf("empty url should disable redis, got %v %v", disabled, err)
	}
	if _, err := NewRedisClient(context.Background(), "://bad"); err == nil {
		t.Fatalf("expected error for malformed url")
	}
}

func TestNewPostgresPoolRequiresURL(t *testing.T) {
	if _, err := NewPostgresPool(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty url")
	}
	if _, err := NewPostgresPool(context.Background(), "not a url ::"); err == nil {
		t.Fatalf("expected parse error")
	}
}
