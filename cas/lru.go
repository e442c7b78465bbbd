package cas

import (
	"container/list"
	"sync"
)

// DefaultLRUSize is used when NewLRUCache is given a non-positive size.
const DefaultLRUSize = 1000

// LRUCache keeps the most recently read items decoded in front of another
// CAS. Writes go straight through.
type LRUCache struct {
	mu         sync.Mutex
	underlying CAS
	cache      map[Hash]*list.Element
	evictList  *list.List
	maxSize    int
	hits       int
	misses     int
}

type cacheEntry struct {
	hash Hash
	item Hashable
}

func NewLRUCache(underlying CAS, maxSize int) *LRUCache {
	if maxSize <= 0 {
		maxSize = DefaultLRUSize
	}
	return &LRUCache{
		underlying: underlying,
		cache:      make(map[Hash]*list.Element),
		evictList:  list.New(),
		maxSize:    maxSize,
	}
}

func (l *LRUCache) Put(item Hashable) (Hash, error) {
	return l.underlying.Put(item)
}

func (l *LRUCache) Has(hash Hash) bool {
	l.mu.Lock()
	_, ok := l.cache[hash]
	l.mu.Unlock()
	return ok || l.underlying.Has(hash)
}

func (l *LRUCache) get(h Hash) (Hashable, error) {
	l.mu.Lock()
	if elem, ok := l.cache[h]; ok {
		l.evictList.MoveToFront(elem)
		l.hits++
		item := elem.Value.(*cacheEntry).item
		l.mu.Unlock()
		return item, nil
	}
	l.misses++
	l.mu.Unlock()

	item, err := l.underlying.get(h)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.add(h, item)
	return item, nil
}

func (l *LRUCache) add(hash Hash, item Hashable) {
	if elem, ok := l.cache[hash]; ok {
		l.evictList.MoveToFront(elem)
		return
	}
	l.cache[hash] = l.evictList.PushFront(&cacheEntry{hash: hash, item: item})
	for l.evictList.Len() > l.maxSize {
		oldest := l.evictList.Back()
		l.evictList.Remove(oldest)
		delete(l.cache, oldest.Value.(*cacheEntry).hash)
	}
}

type CacheStats struct {
	Size    int
	MaxSize int
	Hits    int
	Misses  int
}

func (l *LRUCache) Stats() CacheStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return CacheStats{
		Size:    len(l.cache),
		MaxSize: l.maxSize,
		Hits:    l.hits,
		Misses:  l.misses,
	}
}
