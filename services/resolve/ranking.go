package resolve

import (
	"sort"
	"strings"

	"dokomiru/models"
)

// Relevance scoring for content-mode resolution. No single signal — search
// engine position, LLM judgment, lexical overlap with the overview — is
// trustworthy alone, so each contributes a bounded integer and the sum
// decides the order. The bucket constants are empirical; preserve them when
// tuning one signal against another.

const absentWebRank = 99

// webRankScore maps the record's position in the web-search title list to a
// bucket: top-3 scores 3, top-6 scores 2, anything else 0.
func webRankScore(normalizedTitle string, webTitles []string) int {
	rank := absentWebRank
	for i, t := range webTitles {
		if NormalizeTitle(t) == normalizedTitle {
			rank = i
			break
		}
	}
	switch {
	case rank < 3:
		return 3
	case rank < 6:
		return 2
	default:
		return 0
	}
}

// llmRankScore scores 10−i for a title found at index i in the concatenated
// LLM list (Japanese titles first, then English), 0 when absent.
func llmRankScore(normalizedTitle string, llmTitles []string) int {
	for i, t := range llmTitles {
		if NormalizeTitle(t) == normalizedTitle {
			return 10 - i
		}
	}
	return 0
}

// overviewScore counts query keywords appearing in the record's overview:
// three or more matches score 3, two score 2, one scores 1.
func overviewScore(overview, query string) int {
	normalized := NormalizeTitle(overview)
	if normalized == "" {
		return 0
	}

	matches := 0
	for _, kw := range strings.Fields(NormalizeTitle(query)) {
		if strings.Contains(normalized, kw) {
			matches++
		}
	}

	switch {
	case matches >= 3:
		return 3
	case matches == 2:
		return 2
	case matches == 1:
		return 1
	default:
		return 0
	}
}

// Rank sorts records by descending composite relevance. The sort is stable:
// records with equal scores keep their pre-sort relative order, which is the
// first-seen provider order from candidate lookup.
func Rank(records []models.MovieRecord, query string, webTitles, llmTitles []string) []models.MovieRecord {
	type scoredCandidate struct {
		record models.MovieRecord
		score  int
	}

	scored := make([]scoredCandidate, 0, len(records))
	for _, rec := range records {
		normalized := NormalizeTitle(rec.Title)
		total := webRankScore(normalized, webTitles) +
			llmRankScore(normalized, llmTitles) +
			overviewScore(rec.Overview, query)
		scored = append(scored, scoredCandidate{record: rec, score: total})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	ranked := make([]models.MovieRecord, len(scored))
	for i, sc := range scored {
		ranked[i] = sc.record
	}
	return ranked
}
