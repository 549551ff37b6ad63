package identity

import "sync"

// Scope names the level of the DICOM hierarchy a UIDMap covers.
type Scope string

const (
	ScopeStudy  Scope = "study"
	ScopeSeries Scope = "series"
)

// UIDMap assigns replacement UIDs to original UIDs, first-seen-wins. Entries
// are never removed, so every caller that presents the same original during
// one run receives the same replacement. Safe for concurrent use.
type UIDMap struct {
	mu       sync.Mutex
	scope    Scope
	uids     map[string]string   // original -> replacement
	issued   map[string]struct{} // replacements handed out
	generate func() string
}

// NewUIDMap creates an empty map for the given scope.
func NewUIDMap(scope Scope) *UIDMap {
	return &UIDMap{
		scope:    scope,
		uids:     make(map[string]string),
		issued:   make(map[string]struct{}),
		generate: NewUID,
	}
}

// Scope returns the hierarchy level this map covers.
func (m *UIDMap) Scope() Scope {
	return m.scope
}

// Remap returns the replacement for original, generating and recording one
// if original has not been seen. created reports whether this call
// generated it.
func (m *UIDMap) Remap(original string) (replacement string, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if uid, ok := m.uids[original]; ok {
		return uid, false
	}

	uid := m.generate()
	for {
		if _, taken := m.issued[uid]; !taken {
			break
		}
		uid = m.generate()
	}

	m.uids[original] = uid
	m.issued[uid] = struct{}{}
	return uid, true
}

// Len returns the number of originals seen so far.
func (m *UIDMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.uids)
}

// Session holds the identity maps for one anonymization run. The caller
// creates one per run and passes the same Session to every Anonymize call.
type Session struct {
	Study  *UIDMap
	Series *UIDMap
}

// NewSession creates a session with empty study and series maps.
func NewSession() *Session {
	return &Session{
		Study:  NewUIDMap(ScopeStudy),
		Series: NewUIDMap(ScopeSeries),
	}
}

// Stats returns mapping statistics
type Stats struct {
	Studies int
	Series  int
}

// GetStats returns how many distinct studies and series were remapped.
func (s *Session) GetStats() Stats {
	return Stats{
		Studies: s.Study.Len(),
		Series:  s.Series.Len(),
	}
}
