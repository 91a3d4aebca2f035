package offline

// Kind classifies a pending mutation by the remote operation it replays.
type Kind string

const (
	KindAdd         Kind = "add"
	KindUpdate      Kind = "update"
	KindDelete      Kind = "delete"
	KindTransaction Kind = "transaction"
)

// PendingMutation is one locally captured write awaiting replay against
// the remote store. Immutable once created; it leaves the queue only after
// the remote application succeeds (placeholder-id reconciliation may
// substitute ids in the path and payload, nothing else).
type PendingMutation struct {
	ID         string `json:"id"`
	Kind       Kind   `json:"kind"`
	TargetPath string `json:"target_path"`
	Payload    []byte `json:"payload,omitempty"`

	// LocalID is the placeholder identifier handed to the caller when an
	// add was captured offline. The eventual server-assigned id will not
	// match it; the syncer reconciles the two during drain.
	LocalID string `json:"local_id,omitempty"`

	// EnqueuedAt is a unix-nano timestamp. Replay processes mutations in
	// non-decreasing EnqueuedAt order to preserve causal intent.
	EnqueuedAt int64 `json:"enqueued_at"`
}
