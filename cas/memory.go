package cas

import (
	"fmt"
	"sync"

	"github.com/dgryski/go-farm"
)

// MemoryCAS keeps encoded items in a map for the life of the process.
type MemoryCAS struct {
	mu   sync.RWMutex
	data map[Hash][]byte
}

func NewMemoryCAS() *MemoryCAS {
	return &MemoryCAS{
		data: make(map[Hash][]byte),
	}
}

func (m *MemoryCAS) get(h Hash) (Hashable, error) {
	m.mu.RLock()
	data, ok := m.data[h]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("hash not found in CAS: %s", h)
	}
	return decode(data)
}

func (m *MemoryCAS) Has(hash Hash) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[hash]
	return ok
}

func (m *MemoryCAS) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Put stores item under the farm hash of its tagged encoding. Storing an
// identical item again is a no-op returning the same hash.
func (m *MemoryCAS) Put(item Hashable) (Hash, error) {
	data, err := encode(item)
	if err != nil {
		return 0, err
	}
	h := Hash(farm.Hash64(data))

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[h]; !ok {
		m.data[h] = data
	}
	return h, nil
}
