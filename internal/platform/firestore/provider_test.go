package firestore

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/firestore"
)

func TestProviderCloseIsIdempotent(t *testing.T) {
	provider := NewProvider(Settings{ProjectID: "lantern-eats-test"})

	if err := provider.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := provider.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
	if _, err := provider.Client(context.Background()); !errors.Is(err, ErrProviderClosed) {
		t.Fatalf("expected ErrProviderClosed, got %v", err)
	}
}

func TestProviderRunTransactionRequiresFunc(t *testing.T) {
	provider := NewProvider(Settings{ProjectID: "lantern-eats-test"})

	if err := provider.RunTransaction(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil transaction func")
	}
}

func TestProviderRunTransactionAfterClose(t *testing.T) {
	provider := NewProvider(Settings{ProjectID: "lantern-eats-test"})
	if err := provider.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	fn := func(context.Context, *firestore.Transaction) error { return nil }
	if err := provider.RunTransaction(context.Background(), fn); !errors.Is(err, ErrProviderClosed) {
		t.Fatalf("expected ErrProviderClosed, got %v", err)
	}
}
