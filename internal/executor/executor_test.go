package executor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerial_RunsTasksInOrder(t *testing.T) {
	s := NewSerial()

	var mu sync.Mutex
	var got []int
	done := make(chan struct{})

	for i := 0; i < 100; i++ {
		i := i
		s.Submit(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			if i == 99 {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tasks did not complete")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}

	s.Close()
}

func TestSerial_SubmitDoesNotBlock(t *testing.T) {
	s := NewSerial()
	defer s.Close()

	gate := make(chan struct{})
	s.Submit(func() { <-gate })

	// The worker is stalled; submissions must still return promptly.
	finished := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			s.Submit(func() {})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked behind a stalled task")
	}
	close(gate)
}

func TestSerial_CloseDrainsQueue(t *testing.T) {
	s := NewSerial()

	var mu sync.Mutex
	count := 0
	for i := 0; i < 50; i++ {
		s.Submit(func() {
			mu.Lock()
			count++
			mu.Unlock()
		})
	}

	s.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 50, count)
}

func TestSerial_SubmitAfterCloseIsDropped(t *testing.T) {
	s := NewSerial()
	s.Close()

	ran := false
	s.Submit(func() { ran = true })
	time.Sleep(20 * time.Millisecond)
	assert.False(t, ran)
}

func TestSerial_CloseIsIdempotent(t *testing.T) {
	s := NewSerial()
	s.Close()
	assert.NotPanics(t, s.Close)
}
