package aig

// Builder constructs an AIG incrementally with structural hashing on
// AND gates, so two calls to And() with the same (possibly swapped)
// fanins return the same literal instead of allocating a duplicate
// node. This mirrors how a production AIG package dedups on the fly;
// we only need it well enough to keep the frame builder (C4) and the
// rarity engine's re-simulated miters from blowing up with redundant
// nodes.
type Builder struct {
	nodes      []Node
	structHash map[structKey]int32
	pis        []int32
	los        []int32
	lis        []int32
	pos        []Lit
	numConstrs int
}

type structKey struct {
	a, b Lit
}

// NewBuilder creates a builder pre-seeded with the constant node.
func NewBuilder() *Builder {
	b := &Builder{
		structHash: make(map[structKey]int32),
	}
	b.nodes = append(b.nodes, Node{ID: ConstID, Kind: KindConst, Phase: true})
	return b
}

func (b *Builder) alloc(n Node) int32 {
	n.ID = int32(len(b.nodes))
	b.nodes = append(b.nodes, n)
	return n.ID
}

// PI allocates a fresh primary input and returns its literal.
func (b *Builder) PI() Lit {
	id := b.alloc(Node{Kind: KindPI})
	b.pis = append(b.pis, id)
	return MakeLit(id, false)
}

// Latch allocates a fresh register: an LO (CI side) and its paired LI
// (CO side, fanin wired later via SetLatchInput). Returns the LO
// literal and the register index.
func (b *Builder) Latch() (lo Lit, reg int32) {
	reg = int32(len(b.los))
	loID := b.alloc(Node{Kind: KindLO, RegIndex: reg})
	liID := b.alloc(Node{Kind: KindLI, RegIndex: reg})
	b.los = append(b.los, loID)
	b.lis = append(b.lis, liID)
	return MakeLit(loID, false), reg
}

// SetLatchInput wires the next-state function of register reg.
func (b *Builder) SetLatchInput(reg int32, next Lit) {
	id := b.lis[reg]
	b.nodes[id].Fanin0 = next
}

func normalizeAndOrder(a, b Lit) (Lit, Lit) {
	if a > b {
		return b, a
	}
	return a, b
}

// And returns the literal for a AND b, deduping structurally and
// applying the constant/idempotence/contradiction simplifications a
// production AIG package always performs at construction time.
func (b *Builder) And(a, c Lit) Lit {
	if a == False || c == False {
		return False
	}
	if a == True {
		return c
	}
	if c == True {
		return a
	}
	if a.ID() == c.ID() {
		if a.IsComp() == c.IsComp() {
			return a
		}
		return False
	}
	lo, hi := normalizeAndOrder(a, c)
	key := structKey{lo, hi}
	if id, ok := b.structHash[key]; ok {
		return MakeLit(id, false)
	}
	id := b.alloc(Node{Kind: KindAnd, Fanin0: lo, Fanin1: hi})
	b.structHash[key] = id
	return MakeLit(id, false)
}

// Or is De Morgan sugar over And.
func (b *Builder) Or(a, c Lit) Lit {
	return b.And(a.Not(), c.Not()).Not()
}

// Xor builds a ⊕ c from ANDs/NOTs.
func (b *Builder) Xor(a, c Lit) Lit {
	return b.Or(b.And(a, c.Not()), b.And(a.Not(), c))
}

// Mux builds sel ? whenTrue : whenFalse.
func (b *Builder) Mux(sel, whenTrue, whenFalse Lit) Lit {
	return b.Or(b.And(sel, whenTrue), b.And(sel.Not(), whenFalse))
}

// AddPO registers a combinational output.
func (b *Builder) AddPO(l Lit) {
	b.pos = append(b.pos, l)
}

// AddConstraint registers an invariant-constraint PO: evaluates to 0
// in every reachable state. Constraint POs must be the trailing POs of
// the AIG, so AddConstraint must be called only after all AddPO calls
// that are not constraints.
func (b *Builder) AddConstraint(l Lit) {
	b.pos = append(b.pos, l)
	b.numConstrs++
}

// Build finalizes the AIG: computes topological levels and phases
// (the node's value under the all-zero CI assignment, with LO phase
// taken to be 0 by convention) and returns the immutable AIG.
func (b *Builder) Build() *AIG {
	g := &AIG{
		Nodes:      append([]Node(nil), b.nodes...),
		PIs:        append([]int32(nil), b.pis...),
		LOs:        append([]int32(nil), b.los...),
		LIs:        append([]int32(nil), b.lis...),
		POs:        append([]Lit(nil), b.pos...),
		NumConstrs: b.numConstrs,
	}
	// AND-node fanins always reference lower ids (the builder only ever
	// wires an AND from literals it already returned), so a single
	// ascending pass is a valid topological order for them. LI fanins
	// are the exception: SetLatchInput is called after further nodes
	// may have been allocated, so LI levels/phases are resolved with a
	// small memoized recursion instead of relying on id order.
	done := make([]bool, len(g.Nodes))
	var resolve func(id int32)
	resolve = func(id int32) {
		if done[id] {
			return
		}
		n := &g.Nodes[id]
		switch n.Kind {
		case KindConst:
			n.Phase = true
			n.Level = 0
		case KindPI, KindLO:
			n.Phase = false
			n.Level = 0
		case KindAnd:
			resolve(n.Fanin0.ID())
			resolve(n.Fanin1.ID())
			n.Phase = phaseOf(g, n.Fanin0) && phaseOf(g, n.Fanin1)
			n.Level = maxLevel(g, n.Fanin0, n.Fanin1) + 1
		case KindPO, KindLI:
			resolve(n.Fanin0.ID())
			n.Phase = phaseOf(g, n.Fanin0)
			n.Level = g.Nodes[n.Fanin0.ID()].Level
		}
		done[id] = true
	}
	for i := range g.Nodes {
		resolve(int32(i))
	}
	return g
}

func phaseOf(g *AIG, l Lit) bool {
	p := g.Nodes[l.ID()].Phase
	if l.IsComp() {
		return !p
	}
	return p
}

func maxLevel(g *AIG, a, b Lit) int32 {
	la, lb := g.Nodes[a.ID()].Level, g.Nodes[b.ID()].Level
	if la > lb {
		return la
	}
	return lb
}
