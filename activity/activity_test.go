package activity

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker_TouchIsMonotonic(t *testing.T) {
	boot := time.Unix(1000, 0)
	tr := NewTracker(boot)

	tr.Touch(boot.Add(5 * time.Second))
	tr.Touch(boot.Add(2 * time.Second))

	assert.True(t, tr.Last().Equal(boot.Add(5*time.Second)))
	assert.Equal(t, 10*time.Second, tr.IdleFor(boot.Add(15*time.Second)))
}

func TestTracker_ConcurrentTouchKeepsLatest(t *testing.T) {
	boot := time.Unix(0, 0)
	tr := NewTracker(boot)

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr.Touch(boot.Add(time.Duration(i) * time.Millisecond))
		}(i)
	}
	wg.Wait()

	assert.True(t, tr.Last().Equal(boot.Add(50*time.Millisecond)))
}
