package audit

import "time"

// Action names a lifecycle transition.
type Action string

const (
	ActionUpload       Action = "upload"
	ActionSelectTier   Action = "select_tier"
	ActionReset        Action = "reset"
	ActionGenerate     Action = "generate"
	ActionCancel       Action = "cancel_generation"
	ActionLibraryLoad  Action = "library_load"
	ActionMediaRelease Action = "media_release"
)

// Outcome records what happened to the transition.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeRejected  Outcome = "rejected"  // validation failed, prior document kept
	OutcomeDiscarded Outcome = "discarded" // stale generation result
	OutcomeFailed    Outcome = "failed"    // generation call failed
)

// Entry is a single lifecycle history record.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	Outcome   Outcome   `json:"outcome"`
	State     string    `json:"state,omitempty"`
	Tier      string    `json:"tier,omitempty"`
	Version   uint64    `json:"version"`
	RootTopic string    `json:"root_topic,omitempty"`
	NodeCount int       `json:"node_count"`
	Media     string    `json:"media,omitempty"`
	ErrorKind string    `json:"error_kind,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}
