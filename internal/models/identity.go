package models

// IdentityPair maps one source VM to the VM it was recovered as.
type IdentityPair struct {
	SourceID string `json:"source_id" yaml:"source_id"`
	DestID   string `json:"dest_id" yaml:"dest_id"`
}

// IdentityMap is an insertion-ordered source → destination VM mapping. It is
// immutable once built.
type IdentityMap struct {
	pairs []IdentityPair
	index map[string]int
}

// NewIdentityMap builds a map from pairs. A repeated source keeps its first
// position and takes the last destination seen.
func NewIdentityMap(pairs ...IdentityPair) *IdentityMap {
	m := &IdentityMap{index: make(map[string]int, len(pairs))}
	for _, p := range pairs {
		if i, ok := m.index[p.SourceID]; ok {
			m.pairs[i].DestID = p.DestID
			continue
		}
		m.index[p.SourceID] = len(m.pairs)
		m.pairs = append(m.pairs, p)
	}
	return m
}

// Len returns the number of mapped sources.
func (m *IdentityMap) Len() int { return len(m.pairs) }

// Lookup returns the destination id for source.
func (m *IdentityMap) Lookup(source string) (string, bool) {
	i, ok := m.index[source]
	if !ok {
		return "", false
	}
	return m.pairs[i].DestID, true
}

// Pairs returns a copy of the mapping in insertion order.
func (m *IdentityMap) Pairs() []IdentityPair {
	return append([]IdentityPair(nil), m.pairs...)
}

// Batches partitions the mapping into consecutive chunks of at most size.
func (m *IdentityMap) Batches(size int) [][]IdentityPair {
	if size <= 0 {
		size = len(m.pairs)
	}
	var out [][]IdentityPair
	for start := 0; start < len(m.pairs); start += size {
		end := min(start+size, len(m.pairs))
		out = append(out, append([]IdentityPair(nil), m.pairs[start:end]...))
	}
	return out
}

// Filter returns a new map holding only the given sources. An empty list
// returns m unchanged.
func (m *IdentityMap) Filter(sources []string) *IdentityMap {
	if len(sources) == 0 {
		return m
	}
	keep := make(map[string]bool, len(sources))
	for _, s := range sources {
		keep[s] = true
	}
	var pairs []IdentityPair
	for _, p := range m.pairs {
		if keep[p.SourceID] {
			pairs = append(pairs, p)
		}
	}
	return NewIdentityMap(pairs...)
}
