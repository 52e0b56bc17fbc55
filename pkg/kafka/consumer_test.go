package kafka

import (
	"sync"
	"testing"
	"time"
)

func TestPartitionLockConcurrentAccess(t *testing.T) {
	c := &Consumer{partLocks: make(map[string]map[int]*sync.Mutex)}

	const workers = 8
	results := make([][]*sync.Mutex, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			locks := make([]*sync.Mutex, 0, 12)
			for _, topic := range []string{"events", "bundles", "bars"} {
				for part := 0; part < 4; part++ {
					locks = append(locks, c.partitionLock(topic, part))
				}
			}
			results[w] = locks
		}(w)
	}
	wg.Wait()

	// Every worker must see the same lock instance per (topic, partition).
	for w := 1; w < workers; w++ {
		for i := range results[0] {
			if results[w][i] != results[0][i] {
				t.Fatalf("worker %d got a different lock for slot %d", w, i)
			}
		}
	}
}

func TestBackoffWithJitterBounds(t *testing.T) {
	if d := backoffWithJitter(0, 0, 1); d <= 0 {
		t.Fatalf("backoff with zero config must still be positive, got %v", d)
	}
	d := backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, 3)
	if d < 100*time.Millisecond || d > 200*time.Millisecond {
		t.Fatalf("backoff for attempt 3 out of range: %v", d)
	}
}
