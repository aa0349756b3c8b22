package sequence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequencerStartsAtOne(t *testing.T) {
	s := New()

	assert.Equal(t, int64(1), s.NextUserID())
	assert.Equal(t, int64(2), s.NextUserID())
	assert.Equal(t, int64(1), s.NextOrderID())
	assert.Equal(t, "PR001", s.NextProductID())
	assert.Equal(t, "PR002", s.NextProductID())
}

func TestProductIDPadding(t *testing.T) {
	s := New()
	s.SeedProductSeq(99)

	assert.Equal(t, "PR100", s.NextProductID())
	assert.Equal(t, "PR101", s.NextProductID())

	s.SeedProductSeq(9999)
	// padding grows past three digits instead of wrapping
	assert.Equal(t, "PR10000", s.NextProductID())
}

func TestSeedRaisesButNeverLowers(t *testing.T) {
	s := New()
	s.SeedOrderID(40)
	assert.Equal(t, int64(41), s.NextOrderID())

	s.SeedOrderID(10)
	assert.Equal(t, int64(42), s.NextOrderID())
}

func TestConcurrentIDsAreUnique(t *testing.T) {
	const (
		goroutines = 50
		perG       = 200
	)

	s := New()
	results := make(chan int64, goroutines*perG)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				results <- s.NextOrderID()
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, goroutines*perG)
	for id := range results {
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, goroutines*perG)
}
