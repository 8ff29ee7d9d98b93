package retrieval

import (
	"sort"
	"time"

	"github.com/ternarybob/reperio/internal/models"
)

const recencyWindowDays = 365

// finalRankScore blends similarity with context metadata:
//
//	0.4*score + 0.3*trustworthiness + 0.2*authority + 0.1*recency
//
// where recency decays linearly from 1 to 0 over a year.
func finalRankScore(c *models.EnhancedContext, now time.Time) float64 {
	recencyFactor := 0.0
	if !c.Metadata.Recency.IsZero() {
		ageDays := now.Sub(c.Metadata.Recency).Hours() / 24
		recencyFactor = 1 - ageDays/recencyWindowDays
		if recencyFactor < 0 {
			recencyFactor = 0
		}
		if recencyFactor > 1 {
			recencyFactor = 1
		}
	}

	return 0.4*c.Score + 0.3*c.Metadata.Trustworthiness + 0.2*c.Metadata.Authority + 0.1*recencyFactor
}

// rankContexts sorts contexts by blended rank score, preserving the
// incoming order for ties
func rankContexts(contexts []*models.EnhancedContext) {
	now := time.Now()
	sort.SliceStable(contexts, func(i, j int) bool {
		return finalRankScore(contexts[i], now) > finalRankScore(contexts[j], now)
	})
}

// sortByScore sorts contexts by raw similarity score descending
func sortByScore(contexts []*models.EnhancedContext) {
	sort.SliceStable(contexts, func(i, j int) bool {
		return contexts[i].Score > contexts[j].Score
	})
}
