// Package cache 는 프로세스 내부용 만료 LRU 캐시를 제공한다.
// 가드 평가 결과, 요청 제한 카운터, 메모리 결과 저장소가 이것을 쓴다.
package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// TTLCache 는 항목마다 만료 시각을 두는 크기 제한 LRU 캐시다.
// 만료된 항목은 다음 접근 때 지워지고, 크기를 넘으면 가장 오래 쓰지 않은 항목부터 밀려난다.
type TTLCache[K comparable, V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	now     func() time.Time
	lru     *list.List
	index   map[K]*list.Element
}

// NewTTLCache 는 TTLCache 를 생성한다. maxSize 와 ttl 이 0 이하이면 각각 1, 1초로 둔다.
func NewTTLCache[K comparable, V any](maxSize int, ttl time.Duration) *TTLCache[K, V] {
	if ttl <= 0 {
		ttl = time.Second
	}
	return &TTLCache[K, V]{
		ttl:     ttl,
		maxSize: max(maxSize, 1),
		now:     time.Now,
		lru:     list.New(),
		index:   make(map[K]*list.Element),
	}
}

// lookupLocked 는 살아 있는 항목을 찾는다. 만료된 항목은 이 자리에서 지운다.
func (c *TTLCache[K, V]) lookupLocked(key K) (*entry[K, V], bool) {
	element, ok := c.index[key]
	if !ok {
		return nil, false
	}
	ent := element.Value.(*entry[K, V])
	if !c.now().Before(ent.expiresAt) {
		c.removeLocked(element)
		return nil, false
	}
	c.lru.MoveToFront(element)
	return ent, true
}

func (c *TTLCache[K, V]) insertLocked(key K, value V) {
	c.index[key] = c.lru.PushFront(&entry[K, V]{key: key, value: value, expiresAt: c.now().Add(c.ttl)})
	for c.lru.Len() > c.maxSize {
		c.removeLocked(c.lru.Back())
	}
}

func (c *TTLCache[K, V]) removeLocked(element *list.Element) {
	c.lru.Remove(element)
	delete(c.index, element.Value.(*entry[K, V]).key)
}

// Get 은 만료되지 않은 값을 반환하고 최근 사용으로 표시한다.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.lookupLocked(key); ok {
		return ent.value, true
	}
	var zero V
	return zero, false
}

// Set 은 값을 저장하고 만료 시각을 새로 잡는다.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.index[key]; ok {
		c.removeLocked(element)
	}
	c.insertLocked(key, value)
}

// Modify 는 현재 값에 fn 을 적용한 결과를 저장하고 반환한다.
// 살아 있는 항목은 만료 시각을 유지하고, 없거나 만료된 항목은 zero 값에서 새로 시작한다.
func (c *TTLCache[K, V]) Modify(key K, fn func(current V, found bool) V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.lookupLocked(key); ok {
		ent.value = fn(ent.value, true)
		return ent.value
	}
	var zero V
	value := fn(zero, false)
	c.insertLocked(key, value)
	return value
}

// Delete 는 항목을 제거한다.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.index[key]; ok {
		c.removeLocked(element)
	}
}

// Len 은 아직 지워지지 않은 항목 수다. 만료됐지만 접근되지 않은 항목도 센다.
func (c *TTLCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
