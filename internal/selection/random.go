package selection

import (
	"math/rand"
	"sync"
	"time"
)

// Rand is the randomness used by category weighting, challenge picking and
// cache sampling. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// lockedRand makes a *rand.Rand safe to share between request goroutines.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a goroutine-safe source seeded from the clock.
func NewRand() Rand {
	return NewSeededRand(time.Now().UnixNano())
}

func NewSeededRand(seed int64) Rand {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
