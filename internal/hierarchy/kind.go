// Package hierarchy reconstructs and navigates the Epic→Story→Task→Subtask
// structure of a tracker project: it buckets flat ticket lists, derives
// per-project hierarchy levels for issue types, and resolves free-text
// parent references to concrete ticket keys.
package hierarchy

import (
	"strings"
)

// Kind is the semantic family of an issue type name, independent of how the
// project spells it ("Story", "Storia", "User Story" are all KindStory).
type Kind int

const (
	KindUnknown Kind = iota
	KindSubtask
	KindTask
	KindStory
	KindEpic
	KindBug
)

// kindTokens maps each kind to the lowercase substrings that identify it.
// Subtask tokens are checked before everything else so that "Sub-task" is
// never mistaken for a task.
var kindTokens = []struct {
	kind   Kind
	tokens []string
}{
	{KindSubtask, []string{"sub", "sotto"}},
	{KindEpic, []string{"epic", "initiative"}},
	{KindStory, []string{"story", "storia", "feature"}},
	{KindBug, []string{"bug", "difetto"}},
	{KindTask, []string{"task", "attività"}},
}

// ClassifyTypeName maps an issue type name to its semantic kind using
// case-insensitive substring matching.
func ClassifyTypeName(name string) Kind {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, entry := range kindTokens {
		for _, token := range entry.tokens {
			if strings.Contains(lower, token) {
				return entry.kind
			}
		}
	}
	return KindUnknown
}

// Rank returns the batch execution rank of a kind: parents execute before
// children so that freshly created keys are visible to later items.
// Epic=1, Story=2, Task=3, Subtask=4, Bug=5; unrecognized types run with
// the tasks.
func (k Kind) Rank() int {
	switch k {
	case KindEpic:
		return 1
	case KindStory:
		return 2
	case KindTask:
		return 3
	case KindSubtask:
		return 4
	case KindBug:
		return 5
	default:
		return 3
	}
}

// String returns the canonical lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSubtask:
		return "subtask"
	case KindTask:
		return "task"
	case KindStory:
		return "story"
	case KindEpic:
		return "epic"
	case KindBug:
		return "bug"
	default:
		return "unknown"
	}
}
