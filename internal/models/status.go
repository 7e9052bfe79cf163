package models

// OrderKind discriminates the two order flows explicitly instead of the
// legacy structural inference (sentinel source URL / title presence).
type OrderKind string

const (
	KindGuestPost OrderKind = "guest_post"
	KindNicheEdit OrderKind = "niche_edit"
)

func (k OrderKind) Valid() bool {
	return k == KindGuestPost || k == KindNicheEdit
}

// NotApplicableURL is the legacy sentinel some clients still send as the
// source URL of a guest-post order.
const NotApplicableURL = "not_applicable"

const (
	StatusInProgress   = "In Progress"
	StatusApproved     = "Approved"
	StatusSentToEditor = "Sent to Editor"
	StatusSent         = "Sent"
	StatusCompleted    = "Completed"
	StatusRejected     = "Rejected"
	StatusCancelled    = "Cancelled"
)

// statusesByKind is the capability set per order kind. The status endpoint
// must never accept a transition outside the order's set.
var statusesByKind = map[OrderKind][]string{
	KindGuestPost: {
		StatusInProgress,
		StatusApproved,
		StatusSentToEditor,
		StatusCompleted,
		StatusRejected,
		StatusCancelled,
	},
	KindNicheEdit: {
		StatusInProgress,
		StatusSent,
		StatusCompleted,
		StatusRejected,
		StatusCancelled,
	},
}

// StatusesFor returns the allowed statuses for a kind.
func StatusesFor(kind OrderKind) []string {
	return statusesByKind[kind]
}

// ValidStatus reports whether status belongs to the kind's status set.
func ValidStatus(kind OrderKind, status string) bool {
	for _, s := range statusesByKind[kind] {
		if s == status {
			return true
		}
	}
	return false
}

// InferKind backfills the kind of legacy records that arrived without one:
// a sentinel source URL or a title means guest post, anything else is a
// niche edit.
func InferKind(sourceURL, title string) OrderKind {
	if sourceURL == NotApplicableURL || title != "" {
		return KindGuestPost
	}
	return KindNicheEdit
}
