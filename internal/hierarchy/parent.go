package hierarchy

import (
	"sort"
	"strings"

	"minutesync/internal/logging"
	"minutesync/pkg/models"
)

// SimilarityThreshold is the minimum token-set similarity for a fuzzy
// parent title match.
const SimilarityThreshold = 0.70

// ParentResolver maps a free-text parent title onto a concrete ticket key.
// It consults the in-batch creation cache first, so parents created earlier
// in the same approval batch are visible to later items, then searches the
// hierarchy bucket exactly one level above the proposed type.
type ParentResolver struct {
	structure *models.HierarchyStructure
}

// NewParentResolver returns a resolver over the given hierarchy snapshot.
func NewParentResolver(structure *models.HierarchyStructure) *ParentResolver {
	return &ParentResolver{structure: structure}
}

// Resolve returns the key of the ticket the parent title refers to, or
// ("", false) when nothing matches. batchCache maps normalized summaries of
// tickets created earlier in the batch to their keys.
//
// The bucket searched is strictly one level up: story⇒epics, task⇒stories,
// subtask⇒tasks. A title that only matches a ticket two levels up, or a
// sibling, never resolves.
func (r *ParentResolver) Resolve(proposedType, parentSummary string, batchCache map[string]string) (string, bool) {
	title := NormalizeTitle(parentSummary)
	if title == "" {
		return "", false
	}

	if key, ok := batchCache[title]; ok {
		return key, true
	}

	bucket := r.parentBucket(proposedType)
	if bucket == nil {
		return "", false
	}

	// Exact case-insensitive match wins immediately.
	keys := sortedKeys(bucket)
	for _, key := range keys {
		if NormalizeTitle(bucket[key].Summary) == title {
			return key, true
		}
	}

	// Fuzzy pass: first candidate in bucket order reaching the threshold.
	for _, key := range keys {
		score := TokenSimilarity(parentSummary, bucket[key].Summary)
		if score >= SimilarityThreshold {
			logging.Debug("fuzzy parent match",
				"wanted", parentSummary,
				"matched", bucket[key].Summary,
				"key", key,
				"similarity", score)
			return key, true
		}
	}

	return "", false
}

// parentBucket selects the bucket one hierarchy level above the proposed
// type. Epics have no parent; bugs rank with tasks.
func (r *ParentResolver) parentBucket(proposedType string) map[string]*models.Ticket {
	switch ClassifyTypeName(proposedType) {
	case KindStory:
		return r.structure.Epics
	case KindTask, KindBug:
		return r.structure.Stories
	case KindSubtask:
		return r.structure.Tasks
	default:
		return nil
	}
}

// NormalizeTitle lowercases and trims a title for exact comparison and for
// batch cache keys.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// TokenSimilarity computes the token-set similarity of two titles:
// |intersection| / max(|A|, |B|) over lowercase whitespace-split tokens.
// Identical token sets score 1.0, disjoint ones 0.0.
func TokenSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	shared := 0
	for token := range setA {
		if setB[token] {
			shared++
		}
	}

	larger := len(setA)
	if len(setB) > larger {
		larger = len(setB)
	}
	return float64(shared) / float64(larger)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, token := range strings.Fields(strings.ToLower(s)) {
		set[token] = true
	}
	return set
}

// sortedKeys fixes the iteration order of a bucket so resolution is
// deterministic across runs. Ties on the similarity threshold go to the
// first key in this order.
func sortedKeys(bucket map[string]*models.Ticket) []string {
	keys := make([]string, 0, len(bucket))
	for key := range bucket {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
