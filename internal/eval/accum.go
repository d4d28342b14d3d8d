package eval

import "nickandperla.net/logi/internal/expr"

// Write is a single accumulator write: one field set to one value.
type Write struct {
	Field string
	Val   expr.Value
}

// Delta is the ordered list of named-output writes produced by evaluating
// one expression. Evaluation returns a Delta alongside the value and the
// caller merges it, which makes the traversal-order override contract an
// explicit function instead of incidental mutation order.
type Delta struct {
	writes []Write
}

// add appends one write.
func (d *Delta) add(field string, v expr.Value) {
	d.writes = append(d.writes, Write{Field: field, Val: v})
}

// merge appends every write of o after the writes of d, so writes from
// later-evaluated expressions override earlier ones.
func (d *Delta) merge(o Delta) {
	d.writes = append(d.writes, o.writes...)
}

// Empty reports whether the delta carries no writes.
func (d Delta) Empty() bool { return len(d.writes) == 0 }

// Writes returns the writes in evaluation order.
func (d Delta) Writes() []Write { return d.writes }

// Record collapses the delta into a result record: for each field, the
// last write in evaluation order wins.
func (d Delta) Record() expr.Record {
	rec := make(expr.Record, len(d.writes))
	for _, w := range d.writes {
		rec[w.Field] = w.Val
	}
	return rec
}
