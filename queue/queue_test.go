// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue_test

import (
	"errors"
	"sync"
	"testing"

	"code.hybscloud.com/coop/internal/tagref"
	"code.hybscloud.com/coop/queue"
)

func TestNewInvalid(t *testing.T) {
	if _, err := queue.New[int](0); !errors.Is(err, queue.ErrInvalid) {
		t.Fatalf("New(0): err = %v, want ErrInvalid", err)
	}
	if _, err := queue.New[int](-1); !errors.Is(err, queue.ErrInvalid) {
		t.Fatalf("New(-1): err = %v, want ErrInvalid", err)
	}
}

// TestFIFOOrder is spec.md §8 seed 2: enqueue 1..10, dequeue ten times,
// assert the observed sequence is 1, 2, ..., 10.
func TestFIFOOrder(t *testing.T) {
	q, err := queue.New[int](10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 1; i <= 10; i++ {
		if err := q.Enqueue(i); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}

	for i := 1; i <= 10; i++ {
		got, err := q.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue() #%d: %v", i, err)
		}
		if got != i {
			t.Fatalf("Dequeue() #%d = %d, want %d", i, got, i)
		}
	}
}

func TestDequeueEmpty(t *testing.T) {
	q, err := queue.New[int](4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := q.Dequeue(); !errors.Is(err, queue.ErrWouldBlock) {
		t.Fatalf("Dequeue() on empty: err = %v, want ErrWouldBlock", err)
	}
}

func TestEnqueueFull(t *testing.T) {
	q, err := queue.New[int](3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := range 3 {
		if err := q.Enqueue(i); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}
	if err := q.Enqueue(99); !errors.Is(err, queue.ErrWouldBlock) {
		t.Fatalf("Enqueue() on full queue: err = %v, want ErrWouldBlock", err)
	}
}

func TestEnqueueDequeueInterleaved(t *testing.T) {
	q, err := queue.New[int](2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for round := 0; round < 50; round++ {
		if err := q.Enqueue(round); err != nil {
			t.Fatalf("round %d: Enqueue: %v", round, err)
		}
		got, err := q.Dequeue()
		if err != nil {
			t.Fatalf("round %d: Dequeue: %v", round, err)
		}
		if got != round {
			t.Fatalf("round %d: Dequeue() = %d, want %d", round, got, round)
		}
	}
}

// TestConcurrentMPMC stress-tests concurrent producers and consumers: no
// value is lost or duplicated, verified by checking that every value is
// dequeued exactly once rather than by ordering (ordering across
// independent producers is not guaranteed).
func TestConcurrentMPMC(t *testing.T) {
	if tagref.RaceEnabled {
		t.Skip("lock-free CAS races trip false positives under -race")
	}

	const producers = 4
	const perProducer = 2000
	const capacity = 64

	q, err := queue.New[int](capacity)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := range perProducer {
				for q.Enqueue(base*perProducer+i) != nil {
				}
			}
		}(p)
	}

	total := producers * perProducer
	results := make(chan int, total)
	var consumers sync.WaitGroup
	consumed := 0
	var mu sync.Mutex
	done := make(chan struct{})

	for range producers {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				val, err := q.Dequeue()
				if err != nil {
					continue
				}
				results <- val
				mu.Lock()
				consumed++
				if consumed == total {
					close(done)
				}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	consumers.Wait()
	close(results)

	seen := make(map[int]bool, total)
	sum := 0
	for v := range results {
		if seen[v] {
			t.Fatalf("value %d dequeued more than once", v)
		}
		seen[v] = true
		sum += v
	}
	if len(seen) != total {
		t.Fatalf("dequeued %d distinct values, want %d", len(seen), total)
	}
}
