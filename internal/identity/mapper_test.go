package identity

import (
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var uidPattern = regexp.MustCompile(`^2\.25\.(0|[1-9][0-9]*)$`)

func TestNewUID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		uid := NewUID()
		require.Regexp(t, uidPattern, uid)
		require.LessOrEqual(t, len(uid), MaxUIDLength)
		require.False(t, seen[uid], "duplicate uid %s", uid)
		seen[uid] = true
	}
}

func TestRemapFirstSeenWins(t *testing.T) {
	m := NewUIDMap(ScopeStudy)
	assert.Equal(t, ScopeStudy, m.Scope())

	first, created := m.Remap("1.2.3")
	require.True(t, created)
	assert.NotEqual(t, "1.2.3", first)

	again, created := m.Remap("1.2.3")
	assert.False(t, created)
	assert.Equal(t, first, again)

	other, created := m.Remap("1.2.4")
	assert.True(t, created)
	assert.NotEqual(t, first, other)

	assert.Equal(t, 2, m.Len())
}

func TestRemapRegeneratesOnCollision(t *testing.T) {
	m := NewUIDMap(ScopeSeries)
	seq := []string{"2.25.1", "2.25.1", "2.25.1", "2.25.2"}
	m.generate = func() string {
		uid := seq[0]
		seq = seq[1:]
		return uid
	}

	a, _ := m.Remap("a")
	b, _ := m.Remap("b")
	assert.Equal(t, "2.25.1", a)
	assert.Equal(t, "2.25.2", b)
}

func TestRemapConcurrentFirstSight(t *testing.T) {
	m := NewUIDMap(ScopeStudy)

	const workers = 32
	results := make([]string, workers)
	var created int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			uid, isNew := m.Remap("1.2.840.99")
			results[i] = uid
			if isNew {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	for _, uid := range results {
		assert.Equal(t, results[0], uid)
	}
}

func TestSessionMapsAreIndependent(t *testing.T) {
	s := NewSession()

	study, _ := s.Study.Remap("1.2.3")
	series, _ := s.Series.Remap("1.2.3")
	assert.NotEqual(t, study, series)

	for i := 0; i < 3; i++ {
		s.Series.Remap(fmt.Sprintf("1.2.3.%d", i))
	}
	assert.Equal(t, Stats{Studies: 1, Series: 4}, s.GetStats())
}
