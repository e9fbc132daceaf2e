package hierarchy

import (
	"minutesync/internal/logging"
	"minutesync/pkg/models"
)

// Build classifies a flat ticket list into hierarchy buckets and links
// parent→children edges. The input order does not matter: classification
// happens in a first pass and linking in a second, so a parent appearing
// after its children in the list is still linked.
//
// A ticket whose parent key is missing, or points at a ticket that is not
// exactly one level above it, is left unlinked. Structural completeness is
// the caller's concern, not the builder's.
func Build(tickets []models.Ticket) *models.HierarchyStructure {
	structure := models.NewHierarchyStructure()

	// First pass: bucket every ticket by its issue type name. Bugs rank
	// with tasks.
	for i := range tickets {
		ticket := snapshot(&tickets[i])
		switch ClassifyTypeName(ticket.IssueType) {
		case KindEpic:
			structure.Epics[ticket.Key] = ticket
		case KindStory:
			structure.Stories[ticket.Key] = ticket
		case KindTask, KindBug:
			structure.Tasks[ticket.Key] = ticket
		case KindSubtask:
			structure.Subtasks[ticket.Key] = ticket
		default:
			structure.Orphans = append(structure.Orphans, ticket)
		}
	}

	// Second pass: attach children to parents one level up. Iterating the
	// input slice keeps children in input order, which makes rebuilding
	// from an identical list deterministic.
	for i := range tickets {
		child := &tickets[i]
		if child.ParentKey == "" {
			continue
		}

		var parent *models.Ticket
		switch ClassifyTypeName(child.IssueType) {
		case KindStory:
			parent = structure.Epics[child.ParentKey]
		case KindTask, KindBug:
			parent = structure.Stories[child.ParentKey]
		case KindSubtask:
			parent = structure.Tasks[child.ParentKey]
		}

		if parent == nil {
			logging.Debug("leaving ticket unlinked, parent not one level up",
				"ticket", child.Key,
				"parent_key", child.ParentKey)
			continue
		}
		parent.Children = append(parent.Children, child.Key)
	}

	return structure
}

// snapshot copies a ticket so the structure never aliases caller memory,
// and resets Children which are recomputed during linking.
func snapshot(t *models.Ticket) *models.Ticket {
	copied := *t
	copied.Children = nil
	return &copied
}
