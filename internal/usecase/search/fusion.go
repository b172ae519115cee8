package search

import (
	"sort"

	"github.com/docsense/retrieval/internal/domain/search/mode"
	"github.com/docsense/retrieval/internal/domain/search/result"
)

// fusedHit is a candidate after fusion, carrying the raw per-index scores
// (nil when that index produced no hit) and the final ranking score.
type fusedHit struct {
	id       string
	lexical  *float64
	semantic *float64
	score    float64
}

// fuse merges the two ranked hit lists under the given mode. In full_text and
// semantic modes the single list passes through unchanged with its raw score
// as the fused score. In hybrid mode each score list is min-max normalized to
// [0,1] over its own candidates, then combined as
//
//	fused = alpha*normalized_lexical + (1-alpha)*normalized_semantic
//
// with 0 for the side a document is missing from. Output is ordered by fused
// score descending, ties broken by ascending document id, so identical inputs
// always produce identical output.
func fuse(m mode.Mode, lex, sem []result.Hit, alpha float64) []fusedHit {
	switch m {
	case mode.FullText:
		return passthrough(lex, func(f *fusedHit, score float64) { f.lexical = &score })
	case mode.Semantic:
		return passthrough(sem, func(f *fusedHit, score float64) { f.semantic = &score })
	default:
	}

	lexNorm := normalizeMinMax(lex)
	semNorm := normalizeMinMax(sem)

	raw := make(map[string]*fusedHit, len(lex)+len(sem))
	for i := range lex {
		score := lex[i].Score
		raw[lex[i].ID] = &fusedHit{id: lex[i].ID, lexical: &score}
	}
	for i := range sem {
		score := sem[i].Score
		f, ok := raw[sem[i].ID]
		if !ok {
			f = &fusedHit{id: sem[i].ID}
			raw[sem[i].ID] = f
		}
		f.semantic = &score
	}

	fused := make([]fusedHit, 0, len(raw))
	for id, f := range raw {
		f.score = alpha*lexNorm[id] + (1-alpha)*semNorm[id]
		fused = append(fused, *f)
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].score != fused[j].score {
			return fused[i].score > fused[j].score
		}
		return fused[i].id < fused[j].id
	})
	return fused
}

func passthrough(hits []result.Hit, set func(*fusedHit, float64)) []fusedHit {
	fused := make([]fusedHit, len(hits))
	for i, h := range hits {
		fused[i] = fusedHit{id: h.ID, score: h.Score}
		set(&fused[i], h.Score)
	}
	return fused
}

// normalizeMinMax maps scores to [0,1] over the candidates present in the
// list. A single candidate normalizes to 1.0, as does every candidate when
// all scores are equal; an empty list yields an empty map, contributing 0 to
// every candidate.
func normalizeMinMax(hits []result.Hit) map[string]float64 {
	norm := make(map[string]float64, len(hits))
	if len(hits) == 0 {
		return norm
	}

	lo, hi := hits[0].Score, hits[0].Score
	for _, h := range hits[1:] {
		if h.Score < lo {
			lo = h.Score
		}
		if h.Score > hi {
			hi = h.Score
		}
	}

	if hi == lo {
		for _, h := range hits {
			norm[h.ID] = 1.0
		}
		return norm
	}
	for _, h := range hits {
		norm[h.ID] = (h.Score - lo) / (hi - lo)
	}
	return norm
}
