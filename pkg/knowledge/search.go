package knowledge

import (
	"regexp"
	"sort"
)

var tokenPattern = regexp.MustCompile(`\w+`)

// Query words that carry no signal for entity matching.
var stopWords = map[string]struct{}{
	"the": {}, "is": {}, "are": {}, "what": {}, "which": {}, "how": {},
	"does": {}, "for": {}, "and": {}, "or": {}, "any": {}, "all": {},
	"has": {}, "have": {}, "can": {}, "with": {}, "from": {}, "this": {},
	"that": {}, "there": {}, "products": {}, "product": {},
}

func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, t := range tokenPattern.FindAllString(lower(text), -1) {
		tokens[t] = struct{}{}
	}
	return tokens
}

// SearchEntities finds entities whose names overlap the query tokens,
// optionally restricted to one entity type. limit <= 0 means 5.
//
// Matching is precision-focused: query tokens are lowercased, stop words and
// tokens of length <= 2 are discarded, and a candidate qualifies only when
// at least half its name tokens match or at least two tokens are shared.
// That gate keeps a short brand name from matching inside an unrelated long
// product title — important because downstream fusion treats graph hits as
// verified facts, so a false positive here propagates as confident
// misinformation. Qualifying candidates rank by
// 0.6*name_precision + 0.4*query_recall, descending.
func (g *Graph) SearchEntities(query string, entityType string, limit int) []Entity {
	if limit <= 0 {
		limit = 5
	}

	validTokens := make(map[string]struct{})
	for t := range tokenize(query) {
		if len(t) <= 2 {
			continue
		}
		if _, stop := stopWords[t]; stop {
			continue
		}
		validTokens[t] = struct{}{}
	}
	if len(validTokens) == 0 {
		return nil
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	type match struct {
		score  float64
		entity Entity
	}
	var matches []match

	for _, id := range g.order {
		entity := g.entities[id]
		if entityType != "" && entity.Type != entityType {
			continue
		}

		nameTokens := tokenize(entity.Name)
		if len(nameTokens) == 0 {
			continue
		}

		common := 0
		for t := range validTokens {
			if _, ok := nameTokens[t]; ok {
				common++
			}
		}
		if common == 0 {
			continue
		}

		namePrecision := float64(common) / float64(len(nameTokens))
		queryRecall := float64(common) / float64(len(validTokens))

		if namePrecision >= 0.5 || common >= 2 {
			matches = append(matches, match{
				score:  namePrecision*0.6 + queryRecall*0.4,
				entity: *entity,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]Entity, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.entity)
	}
	return out
}
