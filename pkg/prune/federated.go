package prune

import (
	"fmt"

	"github.com/kcaldas/ragpack/pkg/section"
)

// DefaultMaxFederatedSections is how many federated sections are spared from
// pruning unless configured otherwise.
const DefaultMaxFederatedSections = 5

// SplitFederated separates up to limit federated sections, in their original
// order, from the rest. Federated sections come from external sources and
// carry no comparable score, so they would otherwise always be pruned.
// Federated sections beyond limit stay with the normal ones and compete for
// the budget like any other section. The relevance list, when given, is
// filtered so that it stays aligned with normal.
func SplitFederated(sections []section.Section, relevance []bool, limit int) (federated, normal []section.Section, normalRelevance []bool, err error) {
	if relevance != nil && len(relevance) != len(sections) {
		return nil, nil, nil, fmt.Errorf("%w: %d sections, %d relevance flags", ErrRelevanceMismatch, len(sections), len(relevance))
	}
	if relevance != nil {
		normalRelevance = make([]bool, 0, len(relevance))
	}

	for i, s := range sections {
		if len(federated) < limit && s.Center.IsFederated {
			federated = append(federated, s)
			continue
		}
		normal = append(normal, s)
		if relevance != nil {
			normalRelevance = append(normalRelevance, relevance[i])
		}
	}
	return federated, normal, normalRelevance, nil
}
