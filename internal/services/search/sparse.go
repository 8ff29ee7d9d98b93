package search

import (
	"regexp"
	"strings"

	"github.com/ternarybob/reperio/internal/models"
)

// minTokenLength filters out noise words like "a", "of", "is"
const minTokenLength = 3

// keywordWeight is the importance multiplier for tokens the analyzer
// flagged as keywords
const keywordWeight = 2.0

// buildTokenSet assembles the sparse search vocabulary: keywords,
// entities, and the whitespace-split query, minus short tokens.
// Membership in the keyword list is tracked for weighting.
func buildTokenSet(query string, keywords, entities []string) ([]string, map[string]bool) {
	seen := make(map[string]bool)
	isKeyword := make(map[string]bool)
	var tokens []string

	add := func(raw string, keyword bool) {
		token := strings.ToLower(strings.TrimSpace(raw))
		if len(token) < minTokenLength {
			return
		}
		if keyword {
			isKeyword[token] = true
		}
		if !seen[token] {
			seen[token] = true
			tokens = append(tokens, token)
		}
	}

	for _, k := range keywords {
		add(k, true)
	}
	for _, e := range entities {
		add(e, false)
	}
	for _, w := range strings.Fields(query) {
		add(w, false)
	}

	return tokens, isKeyword
}

// sparseScore ranks a chunk by exact whole-word token matches. Keyword
// tokens count double; the final score is normalized by text length and
// vocabulary size:
//
//	score = (sum of weighted matches) * matchedTokens / (len(text)/100 + tokenCount)
func sparseScore(content string, tokens []string, isKeyword map[string]bool) float64 {
	if len(tokens) == 0 || content == "" {
		return 0
	}

	lower := strings.ToLower(content)

	var weightedMatches float64
	matchedTokens := 0
	for _, token := range tokens {
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(token) + `\b`)
		if err != nil {
			continue
		}
		count := len(re.FindAllStringIndex(lower, -1))
		if count == 0 {
			continue
		}

		matchedTokens++
		weight := 1.0
		if isKeyword[token] {
			weight = keywordWeight
		}
		weightedMatches += float64(count) * weight
	}

	if matchedTokens == 0 {
		return 0
	}

	return weightedMatches * float64(matchedTokens) / (float64(len(content))/100 + float64(len(tokens)))
}

// sparseSearch scores all chunks against the token set and returns
// matches sorted best first.
func sparseSearch(chunks []models.DocumentChunk, query string, keywords, entities []string) []models.ScoredChunk {
	tokens, isKeyword := buildTokenSet(query, keywords, entities)
	if len(tokens) == 0 {
		return nil
	}

	var results []models.ScoredChunk
	for _, chunk := range chunks {
		score := sparseScore(chunk.Content, tokens, isKeyword)
		if score > 0 {
			results = append(results, models.ScoredChunk{Chunk: chunk, Score: score})
		}
	}

	sortScoredDesc(results)
	return results
}
