package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/eslsoft/skillswap/internal/core"
)

func TestRetry_TransientExhaustedIsUnavailable(t *testing.T) {
	client := newTestClient(t)
	client.maxRetries = 2

	attempts := 0
	_, err := retry(context.Background(), client, func() (int, error) {
		attempts++
		return 0, fmt.Errorf("%w: database is locked", errTransient)
	})
	if !errors.Is(err, core.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetry_RecoversAfterTransientFailure(t *testing.T) {
	client := newTestClient(t)

	attempts := 0
	got, err := retry(context.Background(), client, func() (int, error) {
		attempts++
		if attempts == 1 {
			return 0, errTransient
		}
		return 7, nil
	})
	if err != nil || got != 7 {
		t.Fatalf("retry() = %d, %v", got, err)
	}
}

func TestRetry_PermanentErrorsAreNotRetried(t *testing.T) {
	client := newTestClient(t)

	attempts := 0
	_, err := retry(context.Background(), client, func() (int, error) {
		attempts++
		return 0, core.ErrUserNotFound
	})
	if !errors.Is(err, core.ErrUserNotFound) || errors.Is(err, core.ErrUnavailable) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestInTx_RetriesWholeUnit(t *testing.T) {
	client := newTestClient(t)
	client.maxRetries = 1

	attempts := 0
	err := client.InTx(context.Background(), func(ctx context.Context) error {
		attempts++
		if !client.inTx(ctx) {
			t.Fatal("expected transaction context")
		}
		return errTransient
	})
	if !errors.Is(err, core.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestInTx_RollsBackOnError(t *testing.T) {
	client := newTestClient(t)
	users := NewUserRepository(client)
	ctx := context.Background()
	id := createTestUser(t, users, "Ada")

	err := client.InTx(ctx, func(ctx context.Context) error {
		if _, err := users.AdjustBalance(ctx, id, 50, testNow); err != nil {
			return err
		}
		return core.ErrForbidden
	})
	if !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	user, err := users.GetUser(ctx, id)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if user.CreditBalance != 0 {
		t.Fatalf("expected rollback to keep balance 0, got %d", user.CreditBalance)
	}
}

func TestInTx_NestedJoinsOuter(t *testing.T) {
	client := newTestClient(t)
	users := NewUserRepository(client)
	ctx := context.Background()
	id := createTestUser(t, users, "Ada")

	err := client.InTx(ctx, func(ctx context.Context) error {
		if _, err := users.AdjustBalance(ctx, id, 10, testNow); err != nil {
			return err
		}
		return client.InTx(ctx, func(ctx context.Context) error {
			_, err := users.AdjustBalance(ctx, id, -20, testNow)
			return err
		})
	})
	if !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	user, err := users.GetUser(ctx, id)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if user.CreditBalance != 0 {
		t.Fatalf("expected outer rollback, got balance %d", user.CreditBalance)
	}
}
