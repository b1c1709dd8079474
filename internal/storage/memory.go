package storage

import (
	"sort"
	"sync"
)

// MemoryMedium keeps entries in process memory. A positive capacity bounds the
// total key+value bytes.
type MemoryMedium struct {
	mu       sync.Mutex
	items    map[string]string
	capacity int
}

func NewMemoryMedium(capacity int) *MemoryMedium {
	return &MemoryMedium{
		items:    map[string]string{},
		capacity: capacity,
	}
}

func (m *MemoryMedium) GetItem(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.items[key]
	return value, ok, nil
}

func (m *MemoryMedium) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.capacity > 0 {
		used := 0
		for k, v := range m.items {
			if k == key {
				continue
			}
			used += len(k) + len(v)
		}
		needed := used + len(key) + len(value)
		if needed > m.capacity {
			return &QuotaError{Key: key, Needed: needed, Capacity: m.capacity}
		}
	}

	m.items[key] = value
	return nil
}

func (m *MemoryMedium) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *MemoryMedium) Keys() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryMedium) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = map[string]string{}
	return nil
}
