// Package classes implements the equivalence-class store (C2): a
// union-find-like partition over AIG node ids with a designated
// representative per class, refined against a Simulator's equality
// predicate (spec.md §3, §4.2).
//
// Design Notes §9 calls for replacing the source's dense
// representative-array-plus-intrusive-next-pointers scheme with an
// index-keyed table of owned id slices plus a flat repr[] lookup; that
// is exactly what Store below is.
package classes

import (
	"sort"

	"github.com/ssw-eda/ssw/internal/aig"
	"github.com/ssw-eda/ssw/internal/sim"
)

// Store holds the candidate partition over one AIG's nodes.
type Store struct {
	g       *aig.AIG
	repr    []int32          // repr[id] == id means id is its own (trivial) representative
	members map[int32][]int32 // repr id -> sorted member ids, repr included, len >= 2

	nCand1 int
	nLits  int
}

// New creates an empty partition (every node its own singleton class).
func New(g *aig.AIG) *Store {
	repr := make([]int32, len(g.Nodes))
	for i := range repr {
		repr[i] = int32(i)
	}
	return &Store{g: g, repr: repr, members: make(map[int32][]int32)}
}

// Repr returns n's current representative (n itself if singleton).
func (st *Store) Repr(n int32) int32 { return st.repr[n] }

// ClassCount is the number of non-trivial classes.
func (st *Store) ClassCount() int { return len(st.members) }

// Cand1Count is the number of members (excluding the constant node
// itself) of the constant-1 candidate class.
func (st *Store) Cand1Count() int { return st.nCand1 }

// LitCount is Σ(|C|-1) across non-trivial classes.
func (st *Store) LitCount() int { return st.nLits }

// ClassMembers returns a copy of repr's class, ascending by id,
// including repr itself. Returns nil if repr heads no non-trivial
// class.
func (st *Store) ClassMembers(repr int32) []int32 {
	m := st.members[repr]
	if m == nil {
		return nil
	}
	return append([]int32(nil), m...)
}

// setClass installs members (sorted ascending, repr = members[0]) as a
// fresh class and updates the repr[] table and counters. Caller must
// not call this for a slice shorter than 2.
func (st *Store) setClass(members []int32) {
	sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
	repr := members[0]
	for _, id := range members {
		st.repr[id] = repr
	}
	st.members[repr] = members
	st.nLits += len(members) - 1
	if repr == aig.ConstID {
		st.nCand1 += len(members) - 1
	}
}

// destroyClass removes a class entirely, downgrading every member to
// a trivial singleton.
func (st *Store) destroyClass(repr int32) {
	members := st.members[repr]
	st.nLits -= len(members) - 1
	if repr == aig.ConstID {
		st.nCand1 -= len(members) - 1
	}
	for _, id := range members {
		st.repr[id] = id
	}
	delete(st.members, repr)
}

// PrepareSimple tags every eligible node as a constant-1 candidate in
// one pass (spec.md §4.2): AND nodes and LOs, or only LOs when
// latchOnly is set, or — "PO correspondence" — only the nodes directly
// driving an ordinary (non-constraint) primary output when outputCorr
// is set, overriding latchOnly. maxLevel, if > 0, excludes nodes above
// that level (used to bound candidate count on deep cones); it is
// ignored under outputCorr, which has its own, much smaller selection.
func (st *Store) PrepareSimple(latchOnly, outputCorr bool, maxLevel int) {
	var members []int32
	members = append(members, aig.ConstID)

	if outputCorr {
		seen := make(map[int32]bool)
		nOrdinary := len(st.g.POs) - st.g.NumConstrs
		for i := 0; i < nOrdinary; i++ {
			id := st.g.POs[i].ID()
			if seen[id] {
				continue
			}
			n := st.g.Node(id)
			if n.Kind != aig.KindAnd && n.Kind != aig.KindLO {
				continue
			}
			seen[id] = true
			members = append(members, id)
		}
		if len(members) > 1 {
			st.setClass(members)
		}
		return
	}

	for _, id := range st.g.LOs {
		members = append(members, id)
	}
	if !latchOnly {
		for i := range st.g.Nodes {
			n := &st.g.Nodes[i]
			if n.Kind != aig.KindAnd {
				continue
			}
			if maxLevel > 0 && int(n.Level) > maxLevel {
				continue
			}
			members = append(members, n.ID)
		}
	}
	if len(members) > 1 {
		st.setClass(members)
	}
}

// PrepareHash rebuilds the partition from scratch by bucketing cands
// on the simulator's hash signature (spec.md §4.2): nodes whose
// simulation is all-zero after phase normalization become constant-1
// candidates, the rest form multi-node buckets sorted by id. If
// constCorr is set, only the constant-1 class survives.
func (st *Store) PrepareHash(s *sim.Sim, cands []int32, constCorr bool) {
	st.repr = make([]int32, len(st.g.Nodes))
	for i := range st.repr {
		st.repr[i] = int32(i)
	}
	st.members = make(map[int32][]int32)
	st.nCand1 = 0
	st.nLits = 0

	var const1 []int32
	buckets := make(map[uint64][]int32)
	for _, id := range cands {
		if s.ObjIsZero(id) {
			const1 = append(const1, id)
			continue
		}
		if constCorr {
			continue
		}
		h := s.ObjHashWord(id)
		buckets[h] = append(buckets[h], id)
	}

	if len(const1) > 0 {
		st.setClass(append([]int32{aig.ConstID}, const1...))
	}
	for _, bucket := range buckets {
		st.installVerifiedClasses(s, bucket)
	}
}

// installVerifiedClasses splits a hash bucket into genuinely equal
// sub-classes (a hash collision must not be trusted blindly) and
// installs every sub-class of size >= 2.
func (st *Store) installVerifiedClasses(s *sim.Sim, bucket []int32) {
	sort.Slice(bucket, func(i, j int) bool { return bucket[i] < bucket[j] })
	used := make([]bool, len(bucket))
	for i := range bucket {
		if used[i] {
			continue
		}
		group := []int32{bucket[i]}
		used[i] = true
		for j := i + 1; j < len(bucket); j++ {
			if used[j] {
				continue
			}
			if s.ObjsEqualWord(bucket[i], bucket[j]) {
				group = append(group, bucket[j])
				used[j] = true
			}
		}
		if len(group) > 1 {
			st.setClass(group)
		}
	}
}

// RefineOne re-partitions the class headed by repr against s's
// current equality predicate, splitting off members that no longer
// match. The original repr id keeps heading the surviving class (it
// is always the smallest id by invariant). If recursive, newly split
// classes larger than one member are themselves refined until stable.
// Returns the number of new classes created.
func (st *Store) RefineOne(s *sim.Sim, repr int32, recursive bool) int {
	if repr == aig.ConstID {
		return st.RefineConst1(s, recursive)
	}
	members, ok := st.members[repr]
	if !ok {
		return 0
	}

	var stay, leave []int32
	stay = append(stay, repr)
	for _, id := range members {
		if id == repr {
			continue
		}
		if s.ObjsEqualWord(repr, id) {
			stay = append(stay, id)
		} else {
			leave = append(leave, id)
		}
	}

	if len(leave) == 0 {
		return 0
	}

	st.destroyClass(repr)
	if len(stay) > 1 {
		st.setClass(stay)
	}

	return 1 + st.bucketAndInstall(s, leave, recursive)
}

// bucketAndInstall groups leftover ids into equality classes (first
// element of each group becomes its representative) and installs them,
// recursing when a group still has more than one member and recursive
// refinement was requested — this matters because "not equal to the
// old repr" does not imply "pairwise equal to each other".
func (st *Store) bucketAndInstall(s *sim.Sim, ids []int32, recursive bool) int {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	created := 0
	used := make([]bool, len(ids))
	for i := range ids {
		if used[i] {
			continue
		}
		group := []int32{ids[i]}
		used[i] = true
		for j := i + 1; j < len(ids); j++ {
			if used[j] {
				continue
			}
			if s.ObjsEqualWord(ids[i], ids[j]) {
				group = append(group, ids[j])
				used[j] = true
			}
		}
		if len(group) > 1 {
			st.setClass(group)
			created++
			if recursive {
				created += st.RefineOne(s, group[0], true)
			}
		}
	}
	return created
}

// RefineConst1 walks the constant-1 class; any member whose simulation
// is no longer all-zero after phase normalization leaves, and the
// first such departer heads a freshly bucketed replacement class.
func (st *Store) RefineConst1(s *sim.Sim, recursive bool) int {
	members, ok := st.members[aig.ConstID]
	if !ok {
		return 0
	}
	var stay, leave []int32
	for _, id := range members {
		if id == aig.ConstID || s.ObjIsZero(id) {
			stay = append(stay, id)
		} else {
			leave = append(leave, id)
		}
	}
	if len(leave) == 0 {
		return 0
	}
	st.destroyClass(aig.ConstID)
	if len(stay) > 1 {
		st.setClass(stay)
	}
	return st.bucketAndInstall(s, leave, recursive)
}

// RefineAll invokes RefineOne for every current representative,
// snapshotting the representative set first since refinement mutates
// the map it would otherwise be ranging over.
func (st *Store) RefineAll(s *sim.Sim, recursive bool) int {
	reprs := make([]int32, 0, len(st.members))
	for r := range st.members {
		reprs = append(reprs, r)
	}
	sort.Slice(reprs, func(i, j int) bool { return reprs[i] < reprs[j] })
	total := 0
	for _, r := range reprs {
		if _, ok := st.members[r]; !ok {
			continue // already absorbed by an earlier RefineOne in this pass
		}
		total += st.RefineOne(s, r, recursive)
	}
	return total
}

// RemoveNode detaches n from its class (used on a SAT-solver timeout,
// spec.md §4.5 state machine: CANDIDATE --TIMEOUT--> REMOVED). If the
// class degenerates to a single member, it is destroyed outright.
func (st *Store) RemoveNode(n int32) {
	repr := st.repr[n]
	if repr == n && st.members[n] == nil {
		return // already a trivial singleton
	}
	members := st.members[repr]
	idx := -1
	for i, id := range members {
		if id == n {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	remaining := append(append([]int32(nil), members[:idx]...), members[idx+1:]...)
	st.destroyClass(repr)
	st.repr[n] = n
	if len(remaining) > 1 {
		st.setClass(remaining)
	}
}
