// Package dedup detects provider records that describe the same real-world
// provider and collapses each set to one surviving record.
//
// Candidate pairs are discovered in index order (i < j) and resolved
// greedily: a pair is skipped when either record was already removed, so the
// first match found wins. The pass is single and deterministic, which keeps
// it cheap enough for live search.
package dedup

import (
	"github.com/agentstation/servicemap/pkg/providers"
	"github.com/agentstation/servicemap/pkg/similarity"
)

// Candidate is a pair of records whose names scored at or above the threshold.
type Candidate struct {
	I          int     `json:"i"`
	J          int     `json:"j"`
	Similarity float64 `json:"similarity"`
}

// MergeRecord describes one collapse for observability.
type MergeRecord struct {
	KeptName      string           `json:"kept_name" yaml:"kept_name"`
	KeptOrigin    providers.Origin `json:"kept_origin" yaml:"kept_origin"`
	KeptID        string           `json:"kept_id" yaml:"kept_id"`
	RemovedName   string           `json:"removed_name" yaml:"removed_name"`
	RemovedOrigin providers.Origin `json:"removed_origin" yaml:"removed_origin"`
	RemovedID     string           `json:"removed_id" yaml:"removed_id"`
	Similarity    float64          `json:"similarity" yaml:"similarity"`
}

// Group is a set of two or more input indices judged equivalent.
type Group struct {
	Members    []int   `json:"members"`
	Similarity float64 `json:"similarity"`
	Survivor   int     `json:"survivor"`
}

// Resolution is the outcome of a Resolve call.
type Resolution struct {
	Kept   []providers.Provider
	Merges []MergeRecord
	Groups []Group
}

// Resolver finds and collapses duplicates. It holds only immutable
// configuration and is safe for concurrent use.
type Resolver struct {
	threshold float64
	tieBreak  TieBreak
	scope     Scope
}

// NewResolver creates a Resolver. Without options it compares records across
// catalogs at DefaultThreshold and keeps the higher rated record.
func NewResolver(opts ...Option) (*Resolver, error) {
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	return &Resolver{threshold: o.threshold, tieBreak: o.tieBreak, scope: o.scope}, nil
}

// Threshold returns the configured similarity threshold.
func (r *Resolver) Threshold() float64 {
	return r.threshold
}

// TieBreak returns the configured tie-break policy.
func (r *Resolver) TieBreak() TieBreak {
	return r.tieBreak
}

// Resolve removes duplicates from ps. Removed records are dropped from Kept,
// which otherwise preserves input order. ps is not modified.
func (r *Resolver) Resolve(ps []providers.Provider) Resolution {
	candidates := Pairs(ps, r.threshold, r.scope)

	removed := make([]bool, len(ps))
	groupOf := make(map[int]*Group)
	var order []int
	var merges []MergeRecord

	for _, c := range candidates {
		if removed[c.I] || removed[c.J] {
			continue
		}

		keep, drop := c.I, c.J
		if !r.tieBreak.Keep(&ps[c.I], &ps[c.J]) {
			keep, drop = c.J, c.I
		}
		removed[drop] = true

		merges = append(merges, MergeRecord{
			KeptName:      ps[keep].DisplayName,
			KeptOrigin:    ps[keep].Origin,
			KeptID:        ps[keep].SourceID,
			RemovedName:   ps[drop].DisplayName,
			RemovedOrigin: ps[drop].Origin,
			RemovedID:     ps[drop].SourceID,
			Similarity:    c.Similarity,
		})

		g, ok := groupOf[keep]
		if !ok {
			g = &Group{Members: []int{keep}, Survivor: keep}
			groupOf[keep] = g
			order = append(order, keep)
		}
		g.Members = append(g.Members, drop)
		if c.Similarity > g.Similarity {
			g.Similarity = c.Similarity
		}

		// A survivor that loses later hands its members to the new survivor.
		if absorbed, had := groupOf[drop]; had {
			g.Members = append(g.Members, absorbed.Members[1:]...)
			if absorbed.Similarity > g.Similarity {
				g.Similarity = absorbed.Similarity
			}
			delete(groupOf, drop)
		}
	}

	kept := make([]providers.Provider, 0, len(ps)-len(merges))
	for i := range ps {
		if !removed[i] {
			kept = append(kept, ps[i])
		}
	}

	groups := make([]Group, 0, len(groupOf))
	for _, idx := range order {
		if g, ok := groupOf[idx]; ok {
			groups = append(groups, *g)
		}
	}

	return Resolution{Kept: kept, Merges: merges, Groups: groups}
}

// Pairs lists every pair (i < j) in scope whose display names score at or
// above threshold, in discovery order.
func Pairs(ps []providers.Provider, threshold float64, scope Scope) []Candidate {
	var out []Candidate
	for i := 0; i < len(ps); i++ {
		for j := i + 1; j < len(ps); j++ {
			if !inScope(&ps[i], &ps[j], scope) {
				continue
			}
			score := similarity.Score(ps[i].DisplayName, ps[j].DisplayName)
			if score >= threshold {
				out = append(out, Candidate{I: i, J: j, Similarity: score})
			}
		}
	}
	return out
}

func inScope(a, b *providers.Provider, scope Scope) bool {
	if scope == ScopeSameOrigin {
		return a.Origin == b.Origin
	}
	return a.Origin != b.Origin
}
