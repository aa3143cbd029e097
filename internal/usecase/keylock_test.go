package usecase

import (
	"sync"
	"testing"
)

func TestKeyedMutex_SerialisesSameKey(t *testing.T) {
	locks := newKeyedMutex()
	var (
		wg      sync.WaitGroup
		counter int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("k")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("expected 50 increments, got %d", counter)
	}
	if n := len(locks.locks); n != 0 {
		t.Fatalf("expected idle keys to be released, got %d", n)
	}
}
