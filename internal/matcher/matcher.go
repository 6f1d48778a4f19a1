// Package matcher resolves product names read from price tables to catalog entries.
//
// Matching runs in two phases. The exact phase looks the raw name up in a map built from
// every catalog name variant plus alias spellings. Only when that misses does the fuzzy
// phase compare normalized forms, accepting equality or containment when the lengths
// differ by at most maxLengthDelta runes. The first catalog entry that satisfies the
// fuzzy rule wins, so an ambiguous name resolves to whichever entry is listed first.
package matcher

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"agroprice/internal/domain"
)

const maxLengthDelta = 2

// Result is the outcome of matching one name. Exactly one of the Matched/Unmatched
// accessors describes it.
type Result struct {
	id     uuid.UUID
	reason string
	fuzzy  bool
}

// Matched returns the catalog id and true when the name was resolved.
func (r Result) Matched() (uuid.UUID, bool) {
	return r.id, r.id != uuid.Nil
}

// Unmatched returns the reason and true when no catalog entry matched.
func (r Result) Unmatched() (string, bool) {
	return r.reason, r.id == uuid.Nil
}

// Fuzzy reports whether the match came from the fuzzy phase.
func (r Result) Fuzzy() bool {
	return r.fuzzy
}

type candidate struct {
	id         uuid.UUID
	normalized string
}

// Matcher holds the lookup tables built from one catalog snapshot. It is safe for
// concurrent use once built.
type Matcher struct {
	exact      map[string]uuid.UUID
	candidates []candidate
}

// New builds a Matcher from the catalog in the given order.
func New(entries []domain.CatalogEntry) *Matcher {
	m := &Matcher{exact: make(map[string]uuid.UUID)}
	for _, e := range entries {
		for _, name := range e.Names() {
			m.addExact(name, e.ID)
			m.addExact(stripPunctuation(name), e.ID)
			for _, alias := range knownAliases[name] {
				m.addExact(alias, e.ID)
				m.addExact(stripPunctuation(alias), e.ID)
			}
			if n := Normalize(name); n != "" {
				m.candidates = append(m.candidates, candidate{id: e.ID, normalized: n})
			}
		}
	}
	return m
}

// first registration wins so catalog order decides ambiguous keys
func (m *Matcher) addExact(key string, id uuid.UUID) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	if _, exists := m.exact[key]; !exists {
		m.exact[key] = id
	}
}

// Match resolves name against the catalog.
func (m *Matcher) Match(name string) Result {
	raw := strings.TrimSpace(name)
	if raw == "" {
		return Result{reason: "empty product name"}
	}
	if id, ok := m.exact[raw]; ok {
		return Result{id: id}
	}

	query := Normalize(raw)
	if query == "" {
		return Result{reason: fmt.Sprintf("product name %q has no comparable characters", name)}
	}
	for _, c := range m.candidates {
		if c.normalized == query {
			return Result{id: c.id, fuzzy: true}
		}
		if (strings.Contains(c.normalized, query) || strings.Contains(query, c.normalized)) &&
			abs(runeLen(c.normalized)-runeLen(query)) <= maxLengthDelta {
			return Result{id: c.id, fuzzy: true}
		}
	}
	return Result{reason: fmt.Sprintf("no catalog entry matches %q", name)}
}

// MatchError returns a *domain.MatchError for an unmatched result, or nil when matched.
func (r Result) MatchError(name string) error {
	reason, unmatched := r.Unmatched()
	if !unmatched {
		return nil
	}
	return &domain.MatchError{Name: name, Reason: reason}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
