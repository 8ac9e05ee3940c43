package tag

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/repository"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/tools"
)

// TagSearchStrategy ranks tools by tag and description keyword overlap with the query.
type TagSearchStrategy struct {
	toolRepository    repository.ToolRepository
	descriptionWeight float64
	wordRegex         *regexp.Regexp
}

func NewTagSearchStrategy(repo repository.ToolRepository, descriptionWeight float64) *TagSearchStrategy {
	return &TagSearchStrategy{
		toolRepository:    repo,
		descriptionWeight: descriptionWeight,
		wordRegex:         regexp.MustCompile(`\w+`),
	}
}

// SearchTools returns tools ordered by relevance to the query. Equal scores keep
// repository order. When nothing matches, the first tools are returned so that
// callers still see what is available. limit <= 0 means no limit.
func (s *TagSearchStrategy) SearchTools(ctx context.Context, query string, limit int) ([]tools.Tool, error) {
	queryLower := strings.ToLower(strings.TrimSpace(query))
	queryWords := make(map[string]struct{})
	for _, w := range s.wordRegex.FindAllString(queryLower, -1) {
		queryWords[w] = struct{}{}
	}

	all, err := s.toolRepository.GetTools(ctx)
	if err != nil {
		return nil, err
	}

	type scoredTool struct {
		tool  tools.Tool
		score float64
	}
	scored := make([]scoredTool, 0, len(all))
	for _, t := range all {
		scored = append(scored, scoredTool{tool: t, score: s.score(t, queryLower, queryWords)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	result := []tools.Tool{}
	for _, st := range scored {
		if st.score <= 0 {
			break
		}
		result = append(result, st.tool)
		if limit > 0 && len(result) >= limit {
			return result, nil
		}
	}
	if len(result) == 0 {
		for _, st := range scored {
			if limit > 0 && len(result) >= limit {
				break
			}
			result = append(result, st.tool)
		}
	}
	return result, nil
}

func (s *TagSearchStrategy) score(t tools.Tool, queryLower string, queryWords map[string]struct{}) float64 {
	var score float64
	for _, tag := range t.Tags {
		tagLower := strings.ToLower(tag)
		if tagLower != "" && strings.Contains(queryLower, tagLower) {
			score += 1.0
		}
		for _, w := range s.wordRegex.FindAllString(tagLower, -1) {
			if _, ok := queryWords[w]; ok {
				score += s.descriptionWeight
			}
		}
	}
	for _, w := range s.wordRegex.FindAllString(strings.ToLower(t.Description), -1) {
		if len(w) <= 2 {
			continue
		}
		if _, ok := queryWords[w]; ok {
			score += s.descriptionWeight
		}
	}
	return score
}
