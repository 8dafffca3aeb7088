// Package recommend ranks the catalog against a user's latest skin analysis.
package recommend

import (
	"sort"
	"strings"

	"github.com/safar/aurora-commerce/internal/models"
)

// DefaultLimit is the number of products returned to clients.
const DefaultLimit = 3

const (
	targetsWeight          = 3
	suitableSkinTypeWeight = 2
	suitableConditionBonus = 1
)

// Profile is the part of an analysis the scorer looks at, lowercased.
type Profile struct {
	Condition string
	SkinType  string
}

func ProfileFrom(a models.AnalysisHistory) Profile {
	return Profile{
		Condition: strings.ToLower(a.PredictedCondition),
		SkinType:  strings.ToLower(a.SkinType),
	}
}

// Score matches the profile against the product's tag text. Matching is by
// substring over the comma-joined tags, so an empty skin type matches every
// product.
func Score(p models.Product, profile Profile) int {
	targets := strings.ToLower(strings.Join(p.Targets, ", "))
	suitable := strings.ToLower(strings.Join(p.SuitableFor, ", "))

	score := 0
	if strings.Contains(targets, profile.Condition) {
		score += targetsWeight
	}
	if strings.Contains(suitable, profile.SkinType) {
		score += suitableSkinTypeWeight
	}
	if strings.Contains(suitable, profile.Condition) {
		score += suitableConditionBonus
	}
	return score
}

// Rank returns the limit best scoring products, highest first. Equal scores
// keep catalog order. Products are returned even when nothing matches.
func Rank(catalog []models.Product, latest *models.AnalysisHistory, limit int) []models.Product {
	if latest == nil || limit <= 0 {
		return []models.Product{}
	}

	profile := ProfileFrom(*latest)

	type scored struct {
		product models.Product
		score   int
	}
	ranked := make([]scored, len(catalog))
	for i, p := range catalog {
		ranked[i] = scored{product: p, score: Score(p, profile)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	top := make([]models.Product, len(ranked))
	for i, r := range ranked {
		top[i] = r.product
	}
	return top
}
