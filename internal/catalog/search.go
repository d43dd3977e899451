// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

package catalog

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/vtes-biased/rulings-website/internal/rulings"
)

// # Name Search

// foldTransformer strips diacritics: decompose, drop combining marks,
// recompose. "Céleste" and "Celeste" fold to the same key.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldName normalizes a card name for lookup and completion matching:
// lower case, no diacritics, collapsed whitespace.
func FoldName(name string) string {
	folded, _, err := transform.String(foldTransformer, name)
	if err != nil {
		folded = name
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// Completion is one ranked match of a name search.
type Completion struct {
	Label string `json:"label"` // Card name as it should be displayed
	Value string `json:"value"` // Card uid
}

/*
Search returns the cards whose name matches the given partial query.

Description: Matches the folded query as a substring of the folded card
names and aliases. Prefix matches rank before inner matches, ties break
alphabetically. Used by the card name completion endpoint.

Parameters:
  - query: string (partial card name)
  - limit: int (maximum number of results, 0 for all)

Returns:
  - []Completion: Ranked matches, possibly empty
*/
func (cm *CardMap) Search(query string, limit int) []Completion {
	query = FoldName(query)
	if query == "" {
		return nil
	}

	type match struct {
		card   *Card
		prefix bool
	}
	var matches []match
	seen := map[string]bool{}
	for _, card := range cm.cards {
		if seen[card.UID] {
			continue
		}
		if pos, ok := matchName(card, query); ok {
			seen[card.UID] = true
			matches = append(matches, match{card: card, prefix: pos == 0})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].prefix != matches[j].prefix {
			return matches[i].prefix
		}
		return matches[i].card.Name < matches[j].card.Name
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	completions := make([]Completion, len(matches))
	for i, m := range matches {
		completions[i] = Completion{Label: m.card.Name, Value: m.card.UID}
	}
	return completions
}

// matchName finds the query in the card's name or aliases and returns the
// match position. The best (earliest) position across names wins.
func matchName(card *Card, query string) (int, bool) {
	best := -1
	for _, name := range searchNames(card) {
		if pos := strings.Index(FoldName(name), query); pos >= 0 {
			if best < 0 || pos < best {
				best = pos
			}
		}
	}
	return best, best >= 0
}

func searchNames(card *Card) []string {
	names := []string{card.Name}
	names = append(names, card.Aka...)
	if card.PrintedName != "" && card.PrintedName != card.Name {
		names = append(names, card.PrintedName)
	}
	return names
}

// interface check
var _ rulings.CardResolver = (*CardMap)(nil)
