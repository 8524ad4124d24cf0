package authcore

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestRefreshConcurrencySingleWinner(t *testing.T) {
	engine, _, _ := newTestEngine(t, engineTestConfig())
	ctx := context.Background()

	res := mustSignup(t, engine, "alice@example.com", "correct horse")

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)

	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := engine.Refresh(ctx, res.Tokens.RefreshToken)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	success := 0
	fail := 0
	for err := range results {
		if err == nil {
			success++
			continue
		}
		if errors.Is(err, ErrRefreshReuse) || errors.Is(err, ErrSessionRevoked) {
			fail++
			continue
		}
		t.Fatalf("unexpected refresh error: %v", err)
	}

	if success != 1 {
		t.Fatalf("expected exactly one refresh success, got %d", success)
	}
	if fail != n-1 {
		t.Fatalf("expected %d refresh failures, got %d", n-1, fail)
	}
}

func TestConcurrentLoginsCreateDistinctFamilies(t *testing.T) {
	engine, _, _ := newTestEngine(t, engineTestConfig())
	ctx := context.Background()

	res := mustSignup(t, engine, "alice@example.com", "correct horse")

	const n = 8
	var wg sync.WaitGroup
	wg.Add(n)

	families := make(chan string, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			pair, err := engine.Login(ctx, "alice@example.com", "correct horse")
			if err != nil {
				t.Errorf("login: %v", err)
				return
			}
			families <- pair.FamilyID
		}()
	}
	wg.Wait()
	close(families)

	seen := map[string]bool{res.Tokens.FamilyID: true}
	for fam := range families {
		if seen[fam] {
			t.Fatalf("family %s issued twice", fam)
		}
		seen[fam] = true
	}
}
