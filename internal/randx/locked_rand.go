// Package randx 는 여러 goroutine 이 함께 쓰는 난수원을 제공한다.
package randx

import (
	"math/rand/v2"
	"sync"
	"time"
)

// LockedRand: mutex 로 보호되는 math/rand/v2 난수원입니다.
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New 는 r 을 감싼다. r 이 nil 이면 고정 시드 PCG 를 쓰므로 순서가 재현된다.
func New(r *rand.Rand) *LockedRand {
	if r == nil {
		r = rand.New(rand.NewPCG(0, 0))
	}
	return &LockedRand{r: r}
}

// NewSeeded 는 현재 시각으로 시드한 난수원을 만든다.
func NewSeeded() *LockedRand {
	seed := uint64(time.Now().UnixNano())
	return New(rand.New(rand.NewPCG(seed, seed>>1|1)))
}

// IntN 은 [0, n) 범위의 정수를 반환한다. n 이 0 이하이면 panic 한다.
func (l *LockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// Pick 은 items 중 하나를 균등하게 고른다. 비어 있으면 zero 값과 false 를 반환한다.
func Pick[T any](l *LockedRand, items []T) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	return items[l.IntN(len(items))], true
}
