package content

// ModerationState is the life-cycle stage of a managed content item.
type ModerationState string

const (
	StateDraft       ModerationState = "draft"
	StatePublished   ModerationState = "published"
	StateUnpublished ModerationState = "unpublished"
	StateArchived    ModerationState = "archived"
)

// States lists all moderation states in life-cycle order.
var States = []ModerationState{StateDraft, StatePublished, StateUnpublished, StateArchived}

// IsLegalTransition reports whether content may move from current to target.
// Drafts may move anywhere, published content may only move forward, and
// archived content is terminal short of deletion. Self-transitions are never
// legal; callers are expected to check before mutating, an illegal transition
// is not an error.
func IsLegalTransition(current, target ModerationState) bool {
	if current == target {
		return false
	}

	switch current {
	case StateDraft:
		return target == StatePublished || target == StateUnpublished || target == StateArchived
	case StatePublished:
		return target == StateUnpublished || target == StateArchived
	case StateUnpublished:
		return target == StateArchived
	}

	return false
}
