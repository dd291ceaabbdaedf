package fragment

// multimap is an insertion-ordered map from keys to lists.
type multimap[K comparable, V any] struct {
	keys   []K
	values map[K][]V
}

func newMultimap[K comparable, V any]() *multimap[K, V] {
	return &multimap[K, V]{values: make(map[K][]V)}
}

func (m *multimap[K, V]) add(k K, v V) {
	if _, ok := m.values[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.values[k] = append(m.values[k], v)
}

func (m *multimap[K, V]) get(k K) []V {
	return append([]V(nil), m.values[k]...)
}

func (m *multimap[K, V]) len() int {
	return len(m.keys)
}
