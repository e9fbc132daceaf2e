package hierarchy

import (
	"strings"

	"minutesync/pkg/models"
)

// Hierarchy levels by convention: subtask=0 < task=1 < story=2 < epic=3.
const (
	LevelSubtask = 0
	LevelTask    = 1
	LevelStory   = 2
	LevelEpic    = 3
)

// ResolveLevels derives a hierarchy level for each issue type of a project.
// The result is keyed by the normalized lowercase type name plus the
// semantic aliases "epic", "story", "task", "subtask", "sub-task" and
// "bug", each pointing at the metadata record of the matching kind when
// the project has one.
//
// Recomputing from identical tracker metadata yields an identical map; the
// caller is expected to call this per operation rather than cache it.
func ResolveLevels(rawTypes []models.IssueTypeMetadata) map[string]*models.IssueTypeMetadata {
	resolved := make([]*models.IssueTypeMetadata, 0, len(rawTypes))
	for i := range rawTypes {
		meta := rawTypes[i]
		meta.HierarchyLevel = baseLevel(&meta)
		resolved = append(resolved, &meta)
	}

	// Story always ranks above Task: if a project's configuration lands
	// them on the same level, push every task-kind type down one.
	storyLevel, hasStory := kindLevel(resolved, KindStory)
	taskLevel, hasTask := kindLevel(resolved, KindTask)
	if hasStory && hasTask && storyLevel == taskLevel {
		for _, meta := range resolved {
			if !isSubtaskType(meta) && kindOf(meta) == KindTask {
				meta.HierarchyLevel--
			}
		}
	}

	// Subtask normalization: whatever the configuration says, subtask
	// types end up strictly below every other type.
	if floor, ok := minNonSubtaskLevel(resolved); ok {
		for _, meta := range resolved {
			if isSubtaskType(meta) {
				meta.HierarchyLevel = floor - 1
			}
		}
	}

	byName := make(map[string]*models.IssueTypeMetadata, len(resolved))
	for _, meta := range resolved {
		byName[strings.ToLower(meta.Name)] = meta
	}
	addAliases(byName, resolved)

	return byName
}

// baseLevel assigns the pre-fixup level for a single issue type. A level
// carried in the tracker metadata wins over the name tokens; unusual
// configurations (story and task reported on the same level) are repaired
// by the fix-ups in ResolveLevels.
func baseLevel(meta *models.IssueTypeMetadata) int {
	if isSubtaskType(meta) {
		return LevelSubtask
	}
	if meta.HierarchyLevel > 0 {
		return meta.HierarchyLevel
	}
	switch ClassifyTypeName(meta.Name) {
	case KindEpic:
		return LevelEpic
	case KindStory:
		return LevelStory
	case KindTask, KindBug:
		return LevelTask
	default:
		return LevelTask
	}
}

// isSubtaskType honors the tracker's subtask flag as well as the name
// tokens, so mislabeled configurations still normalize.
func isSubtaskType(meta *models.IssueTypeMetadata) bool {
	return meta.Subtask || ClassifyTypeName(meta.Name) == KindSubtask
}

// kindOf is ClassifyTypeName with the subtask flag taken into account.
func kindOf(meta *models.IssueTypeMetadata) Kind {
	if meta.Subtask {
		return KindSubtask
	}
	return ClassifyTypeName(meta.Name)
}

// kindLevel returns the level of the first type of the given kind.
func kindLevel(types []*models.IssueTypeMetadata, kind Kind) (int, bool) {
	for _, meta := range types {
		if !isSubtaskType(meta) && kindOf(meta) == kind {
			return meta.HierarchyLevel, true
		}
	}
	return 0, false
}

func minNonSubtaskLevel(types []*models.IssueTypeMetadata) (int, bool) {
	min, found := 0, false
	for _, meta := range types {
		if isSubtaskType(meta) {
			continue
		}
		if !found || meta.HierarchyLevel < min {
			min = meta.HierarchyLevel
			found = true
		}
	}
	return min, found
}

// addAliases maps semantic names to the first project type of the matching
// kind so callers can look up "story" without knowing the project calls it
// "Storia".
func addAliases(byName map[string]*models.IssueTypeMetadata, types []*models.IssueTypeMetadata) {
	aliasKinds := []struct {
		alias string
		kind  Kind
	}{
		{"epic", KindEpic},
		{"story", KindStory},
		{"task", KindTask},
		{"subtask", KindSubtask},
		{"sub-task", KindSubtask},
		{"bug", KindBug},
	}

	for _, entry := range aliasKinds {
		if _, taken := byName[entry.alias]; taken {
			continue
		}
		for _, meta := range types {
			if kindOf(meta) == entry.kind {
				byName[entry.alias] = meta
				break
			}
		}
	}
}
