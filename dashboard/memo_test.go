package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestMemoLoadsOnce(t *testing.T) {
	calls := 0
	m := newMemo(func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, err := m.Get(context.Background()); err != nil || v != 42 {
				t.Errorf("unexpected result %d, %v", v, err)
			}
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Fatalf("expected 1 load, got %d", calls)
	}
}

func TestMemoRetriesAfterFailure(t *testing.T) {
	calls := 0
	m := newMemo(func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("not yet")
		}
		return "ok", nil
	})

	if _, err := m.Get(context.Background()); err == nil {
		t.Fatal("expected first load to fail")
	}
	v, err := m.Get(context.Background())
	if err != nil || v != "ok" {
		t.Fatalf("unexpected result %q, %v", v, err)
	}
	if _, err := m.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 loads, got %d", calls)
	}
}

func TestMemoReset(t *testing.T) {
	calls := 0
	m := newMemo(func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	})
	first, _ := m.Get(context.Background())
	m.Reset()
	second, _ := m.Get(context.Background())
	if first != 1 || second != 2 {
		t.Fatalf("expected reload after reset, got %d then %d", first, second)
	}
}
