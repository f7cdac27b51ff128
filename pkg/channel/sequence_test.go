package channel

import (
	"sync"
	"testing"
	"time"
)

func TestSequenceIsMonotonic(t *testing.T) {
	t.Parallel()

	seq := NewSequence(time.Unix(100, 0))
	first := seq.Next()
	second := seq.Next()
	if second <= first {
		t.Fatalf("second = %d, want > %d", second, first)
	}
	if first <= 100*int64(time.Second/time.Microsecond) {
		t.Fatalf("first = %d, want seeded above clock value", first)
	}
}

func TestSequenceUniqueUnderConcurrency(t *testing.T) {
	t.Parallel()

	seq := NewSequence(time.Now())
	const workers, perWorker = 8, 200

	var (
		mu   sync.Mutex
		seen = make(map[int64]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				id := seq.Next()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Fatalf("unique ids = %d, want %d", len(seen), workers*perWorker)
	}
}
