package persist

import "time"

// OpKind identifies a remote mirror write.
type OpKind string

// Mirror write kinds.
const (
	OpUpsert    OpKind = "upsert"
	OpDelete    OpKind = "delete"
	OpSetActive OpKind = "setActive"
)

// Op is a pending remote write. Ops carry ids only; the payload is read
// from the local snapshot when the op is replayed, so a replay always sends
// the latest local state.
type Op struct {
	Kind       OpKind    `json:"kind"`
	TemplateID string    `json:"templateId"`
	QueuedAt   time.Time `json:"queuedAt"`
	Attempts   int       `json:"attempts"`
}

// Coalesce appends op to ops, dropping earlier ops it supersedes: a later
// write to the same template replaces earlier ones, and only the latest
// active-id write is kept.
func Coalesce(ops []Op, op Op) []Op {
	out := ops[:0:0]
	for _, o := range ops {
		if !supersedes(op, o) {
			out = append(out, o)
		}
	}
	return append(out, op)
}

func supersedes(newer, older Op) bool {
	if newer.Kind == OpSetActive || older.Kind == OpSetActive {
		return newer.Kind == older.Kind
	}
	return newer.TemplateID == older.TemplateID
}
