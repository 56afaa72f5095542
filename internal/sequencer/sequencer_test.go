package sequencer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLatestTokenWins(t *testing.T) {
	s := New()

	first := s.Begin("med-1")
	second := s.Begin("med-1")
	other := s.Begin("med-2")

	assert.False(t, s.IsLatest(first))
	assert.True(t, s.IsLatest(second))
	assert.True(t, s.IsLatest(other))

	var applied []uint64
	// Responses arrive out of order: second resolves before first.
	assert.True(t, s.Commit(second, func() { applied = append(applied, second.N) }))
	assert.False(t, s.Commit(first, func() { applied = append(applied, first.N) }))
	assert.Equal(t, []uint64{2}, applied)
}

func TestForgetInvalidatesOutstanding(t *testing.T) {
	s := New()
	tok := s.Begin("med-1")
	s.Forget("med-1")
	assert.False(t, s.IsLatest(tok))
	assert.Zero(t, s.Len())
	assert.False(t, s.Commit(tok, func() { t.Fatal("applied a forgotten token") }))

	next := s.Begin("med-1")
	assert.NotEqual(t, tok.N, next.N)
	assert.True(t, s.IsLatest(next))
	assert.False(t, s.IsLatest(tok))
	assert.Equal(t, 1, s.Len())
}

func TestCommitDoesNotBlockOtherKeys(t *testing.T) {
	s := New()
	slow := s.Begin("med-1")

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan bool)
	go func() {
		done <- s.Commit(slow, func() {
			close(entered)
			<-release
		})
	}()
	<-entered

	other := s.Begin("med-2")
	assert.True(t, s.Commit(other, func() {}))
	// A newer request for the busy key can still start.
	newer := s.Begin("med-1")

	close(release)
	assert.True(t, <-done)
	assert.True(t, s.IsLatest(newer))
}

func TestConcurrentBegin(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Begin("med-1")
		}()
	}
	wg.Wait()

	last := s.Begin("med-1")
	assert.Equal(t, uint64(51), last.N)
}
