// Package reconcile merges sparse server answers back into the caller's
// ordered function list. Everything here is pure: no I/O, inputs are never
// mutated, results are fresh slices.
package reconcile

import (
	"fmt"

	"github.com/ozontech/lumina/protoerr"
	"github.com/ozontech/lumina/rpc"
)

// Found is the PULL_MD_RESULT flag of a resolved function. Any other value
// means the server does not know it.
const Found uint32 = 0

// Entry is one slot of a pull scope: a bare signature until some server
// resolves it, then the metadata it answered with.
type Entry struct {
	Signature rpc.FuncSignature
	Metadata  *rpc.FuncInfo
}

func (e Entry) Resolved() bool { return e.Metadata != nil }

// DownloadScope picks the unresolved entries of scope. positions[i] is the
// index in scope of sigs[i].
func DownloadScope(scope []Entry) (sigs []rpc.FuncSignature, positions []int) {
	for i, e := range scope {
		if e.Resolved() {
			continue
		}
		sigs = append(sigs, e.Signature)
		positions = append(positions, i)
	}
	return sigs, positions
}

// Merge places the server results into a copy of scope. found is parallel to
// positions and results holds one record per Found flag, in the same order.
// A response breaking either count is a protocol violation and scope is left
// as it was.
func Merge(scope []Entry, positions []int, found []uint32, results []rpc.FuncInfo) ([]Entry, error) {
	if len(found) != len(positions) {
		return nil, &protoerr.ProtocolViolationError{
			Reason: fmt.Sprintf("pull result has %d flags for %d requested signatures", len(found), len(positions)),
		}
	}
	if n := countFound(found); n != len(results) {
		return nil, &protoerr.ProtocolViolationError{
			Reason: fmt.Sprintf("pull result has %d records for %d found flags", len(results), n),
		}
	}

	merged := make([]Entry, len(scope))
	copy(merged, scope)

	next := 0
	for i, flag := range found {
		if next == len(results) {
			break
		}
		if flag != Found {
			continue
		}
		pos := positions[i]
		if pos < 0 || pos >= len(merged) {
			return nil, fmt.Errorf("position %d outside of scope of %d entries", pos, len(merged))
		}
		info := results[next]
		merged[pos].Metadata = &info
		next++
	}
	return merged, nil
}

// Summarize reports scope the way a single server would have: a flag per
// entry and the metadata of the resolved ones in scope order.
func Summarize(scope []Entry) (results []rpc.FuncInfo, found []uint32) {
	found = make([]uint32, len(scope))
	for i, e := range scope {
		if !e.Resolved() {
			found[i] = 1
			continue
		}
		found[i] = Found
		results = append(results, *e.Metadata)
	}
	return results, found
}

// Resolved counts the entries carrying metadata.
func Resolved(scope []Entry) int {
	n := 0
	for _, e := range scope {
		if e.Resolved() {
			n++
		}
	}
	return n
}

func countFound(found []uint32) int {
	n := 0
	for _, f := range found {
		if f == Found {
			n++
		}
	}
	return n
}
