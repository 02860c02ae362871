package network

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTransport stores published messages and can fail or block on
// demand.
type recordingTransport struct {
	mu       sync.Mutex
	messages [][]byte
	failOn   map[string]bool
	block    chan struct{} // closed once Publish starts blocking
	blocking bool
}

func (t *recordingTransport) Publish(ctx context.Context, topic string, data []byte) error {
	t.mu.Lock()
	if t.blocking {
		t.blocking = false
		close(t.block)
		t.mu.Unlock()
		<-ctx.Done()
		return ctx.Err()
	}
	defer t.mu.Unlock()
	if t.failOn[string(data)] {
		return errors.New("transient failure")
	}
	t.messages = append(t.messages, data)
	return nil
}

func (t *recordingTransport) Subscribe(ctx context.Context, topic string, fn Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (t *recordingTransport) Close() error { return nil }

func (t *recordingTransport) published() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.messages))
	for i, m := range t.messages {
		out[i] = string(m)
	}
	return out
}

func TestSenderOrdering(t *testing.T) {
	tr := &recordingTransport{}
	s := NewSender(tr, "scene", 0, nil)
	defer s.Close()

	for _, m := range []string{"A", "B", "C"} {
		require.NoError(t, s.Enqueue([]byte(m)))
	}

	require.Eventually(t, func() bool { return s.Stats().Sent == 3 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"A", "B", "C"}, tr.published())
}

func TestSenderConcurrentProducers(t *testing.T) {
	tr := &recordingTransport{}
	s := NewSender(tr, "scene", 4, nil)
	defer s.Close()

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				assert.NoError(t, s.Enqueue([]byte{byte(p), byte(i)}))
			}
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool { return s.Stats().Sent == 200 }, time.Second, time.Millisecond)

	// Each producer's messages keep their relative order
	last := map[byte]int{}
	for _, m := range tr.published() {
		prev, seen := last[m[0]]
		if seen {
			assert.Greater(t, int(m[1]), prev)
		}
		last[m[0]] = int(m[1])
	}
}

func TestSenderDropsOnError(t *testing.T) {
	tr := &recordingTransport{failOn: map[string]bool{"B": true}}
	s := NewSender(tr, "scene", 0, nil)
	defer s.Close()

	for _, m := range []string{"A", "B", "C"} {
		require.NoError(t, s.Enqueue([]byte(m)))
	}

	require.Eventually(t, func() bool {
		st := s.Stats()
		return st.Sent+st.Dropped == 3
	}, time.Second, time.Millisecond)

	assert.Equal(t, []string{"A", "C"}, tr.published())
	assert.Equal(t, uint64(1), s.Stats().Dropped)
}

func TestSenderCloseDiscardsPending(t *testing.T) {
	tr := &recordingTransport{blocking: true, block: make(chan struct{})}
	s := NewSender(tr, "scene", 0, nil)

	require.NoError(t, s.Enqueue([]byte("A")))
	<-tr.block // A is in flight
	require.NoError(t, s.Enqueue([]byte("B")))
	require.NoError(t, s.Enqueue([]byte("C")))

	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close blocked")
	}

	st := s.Stats()
	assert.Equal(t, uint64(0), st.Sent)
	assert.Equal(t, uint64(1), st.Dropped, "the in-flight message fails with the cancelled context")
	assert.Equal(t, uint64(2), st.Discarded)
	assert.Empty(t, tr.published())

	assert.ErrorIs(t, s.Enqueue([]byte("D")), ErrSenderClosed)
	assert.NoError(t, s.Close(), "Close is idempotent")
}

func TestSenderCloseAccountsForEveryEnqueue(t *testing.T) {
	for round := 0; round < 20; round++ {
		tr := &recordingTransport{}
		s := NewSender(tr, "scene", 8, nil)

		var accepted, rejected sync.WaitGroup
		var mu sync.Mutex
		ok, closed := 0, 0
		start := make(chan struct{})
		for p := 0; p < 4; p++ {
			accepted.Add(1)
			go func() {
				defer accepted.Done()
				<-start
				for i := 0; i < 25; i++ {
					err := s.Enqueue([]byte{byte(p), byte(i)})
					mu.Lock()
					if err == nil {
						ok++
					} else {
						assert.ErrorIs(t, err, ErrSenderClosed)
						closed++
					}
					mu.Unlock()
				}
			}()
		}
		rejected.Add(1)
		go func() {
			defer rejected.Done()
			<-start
			s.Close()
		}()
		close(start)
		accepted.Wait()
		rejected.Wait()

		st := s.Stats()
		assert.Equal(t, 100, ok+closed)
		assert.Equal(t, uint64(ok), st.Sent+st.Dropped+st.Discarded,
			"round %d: accepted messages must be sent, dropped or discarded", round)
		assert.Equal(t, int(st.Sent), len(tr.published()))
	}
}

func TestSenderOverMemoryBus(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 3)
	go bus.Subscribe(ctx, "scene", func(data []byte) { got <- string(data) })
	require.Eventually(t, func() bool { return bus.Subscribers("scene") == 1 }, time.Second, time.Millisecond)

	s := NewSender(bus, "scene", 0, nil)
	defer s.Close()
	for _, m := range []string{"A", "B", "C"} {
		require.NoError(t, s.Enqueue([]byte(m)))
	}

	for _, want := range []string{"A", "B", "C"} {
		select {
		case m := <-got:
			assert.Equal(t, want, m)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}
