/*
 * Copyright 2022 ByteDance Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package coloring

import (
    `io`
    `sort`
    `sync/atomic`

    `github.com/cNoNim/pcc/internal/arch`
    `github.com/cNoNim/pcc/internal/ir`
    `github.com/cNoNim/pcc/internal/match`
    `github.com/cNoNim/pcc/internal/table`
    `github.com/cNoNim/pcc/internal/utils`
    `gonum.org/v1/gonum/graph/simple`
)

var (
    RoundCount    uint64 = 0
    CoalesceCount uint64 = 0
    SpillCount    uint64 = 0
    MoveCount     uint64 = 0
)

const (
    _DefaultRounds = 8
)

// Allocator colours the values of one function with the machine registers
// using iterated register coalescing. Values the graph cannot colour are
// stored to the frame and the whole function is allocated again.
type Allocator struct {
    fn     *ir.Function
    tg     *arch.Target
    tab    *table.Table
    mm     *match.Matcher
    num    *match.Numbering
    graph  *simple.UndirectedGraph
    nodes  []_Node
    moves  []_Move
    lists  [_L_max]_Head
    mlists [_M_max]_Head
    spills map[*ir.Record]bool
    rounds int
    limit  int
    verify bool
    dbg    io.Writer
}

func New(fn *ir.Function, tg *arch.Target, tab *table.Table) *Allocator {
    return &Allocator {
        fn     : fn,
        tg     : tg,
        tab    : tab,
        mm     : match.New(fn, tg, tab),
        num    : match.NewNumbering(tg),
        spills : make(map[*ir.Record]bool),
        limit  : _DefaultRounds,
    }
}

func (self *Allocator) SetDebug(w io.Writer) { self.dbg = w }
func (self *Allocator) SetVerify(v bool)     { self.verify = v }
func (self *Allocator) Rounds() int          { return self.rounds }
func (self *Allocator) Spills() int          { return len(self.spills) }

// SetMaxRounds bounds the number of colouring attempts.
func (self *Allocator) SetMaxRounds(n int) {
    if n <= 0 {
        panic("coloring: the number of rounds must be positive")
    }
    self.limit = n
}

// Allocate matches every statement and assigns registers to all of them.
func (self *Allocator) Allocate() {
    for {
        if self.rounds++; self.rounds > self.limit {
            utils.Fatalf("coloring", "%s: no colouring after %d rounds", self.fn.Name, self.limit)
        }

        /* one colouring attempt */
        atomic.AddUint64(&RoundCount, 1)
        self.number()
        self.reset()
        self.build()
        self.mkWorklist()
        self.color()
        self.dump()

        /* done if nothing is spilled */
        if self.lists[L_spilled].empty() {
            break
        }

        /* store the spilled values and try again */
        self.rewriteProgram()
    }

    /* cross check the colouring */
    if self.verify {
        self.check()
    }

    /* update the trees */
    self.apply()
}

// number matches every statement and gives each value a graph node.
func (self *Allocator) number() {
    self.num.Reset()
    for p := self.fn.Records.Front(); p != nil; p = p.Next {
        if p.Kind == ir.IP_node {
            self.fn.Arena.Reset(p.Node)
            self.mm.Gen(p.Node, table.FOREFF)
            self.mm.Nsucomp(p, self.num)
        }
    }
}

func (self *Allocator) color() {
    for {
        switch {
            case !self.lists[L_simplify].empty()  : self.simplify()
            case !self.mlists[M_worklist].empty() : self.coalesce()
            case !self.lists[L_freeze].empty()    : self.freeze()
            case !self.lists[L_spill].empty()     : self.selectSpill()
            default                               : self.assignColors(); return
        }

        /* the lists must stay consistent */
        if self.verify {
            self.checkExclusive()
        }
    }
}

func (self *Allocator) dump() {
    if self.dbg != nil {
        colors := make(map[int]string, len(self.nodes))
        for u := range self.nodes {
            if c := self.nodes[u].color; c >= 0 {
                colors[u] = self.tg.RegName(self.num.Register(c))
            }
        }
        utils.Dump(self.dbg, "coloring " + self.fn.Name, map[string]interface{} {
            "round"   : self.rounds,
            "colors"  : colors,
            "spilled" : self.members(L_spilled),
        })
    }
}

// rewriteProgram stores every spilled value to a fresh frame slot right
// before the statement that computes it.
func (self *Allocator) rewriteProgram() {
    ids := self.members(L_spilled)
    sort.Ints(ids)

    /* every one of them must be storable */
    for _, u := range ids {
        if !self.spillable(u) {
            utils.Fatalf("coloring", "cannot spill %s", self.fn.Arena.Format(self.num.Temp(u).Node))
        }
    }

    /* inner values are numbered first and stored first */
    for _, u := range ids {
        t := *self.num.Temp(u)
        st := match.Store(self.fn, self.tg, t.Parent, t.Side)
        self.spills[self.fn.Statement(t.Rec, st)] = true
        atomic.AddUint64(&SpillCount, 1)
    }
}

// check verifies that no two interfering nodes share a colour.
func (self *Allocator) check() {
    for it := self.graph.Edges(); it.Next(); {
        e := it.Edge()
        u := self.getAlias(int(e.From().ID()))
        v := self.getAlias(int(e.To().ID()))

        /* both ends coloured differently */
        if self.nodes[u].color == self.nodes[v].color {
            utils.Fatalf("coloring", "interfering nodes %d and %d share colour %d", u, v, self.nodes[u].color)
        }
    }
}

type _Site struct {
    ref    ir.Ref
    parent ir.Ref
    side   ir.Side
}

func (self *Allocator) collect(p ir.Ref, parent ir.Ref, side ir.Side, out []_Site) []_Site {
    n := self.fn.Arena.At(p)
    l, r := n.Left, n.Right

    /* children first */
    if l != ir.Nil { out = self.collect(l, p, ir.SideLeft, out) }
    if r != ir.Nil { out = self.collect(r, p, ir.SideRight, out) }
    return append(out, _Site{ref: p, parent: parent, side: side})
}

func (self *Allocator) register(u int) int {
    if c := self.nodes[u].color; c < 0 {
        panic(utils.EFatal("coloring", "node without colour"))
    } else {
        return self.num.Register(c)
    }
}

// apply replaces graph nodes by machine registers and inserts the copies
// the colouring could not avoid.
func (self *Allocator) apply() {
    var sites []_Site
    a := self.fn.Arena

    /* every node of the function */
    for p := self.fn.Records.Front(); p != nil; p = p.Next {
        if p.Kind == ir.IP_node {
            sites = self.collect(p.Node, ir.Nil, ir.SideLeft, sites)
        }
    }

    /* graph nodes to registers */
    for _, s := range sites {
        if n := a.At(s.ref); n.Su.Index >= 0 && n.Rall >= 0 {
            n.Rall = self.register(n.Rall)
        }
    }

    /* folded indirections use their address register */
    for _, s := range sites {
        if n := a.At(s.ref); n.Su.Index == ir.Passthrough {
            n.Rall = a.At(n.Left).Rall
        }
    }

    /* copies */
    for _, s := range sites {
        if a.At(s.ref).Su.Index >= 0 {
            self.fixup(s)
        }
    }
}

func (self *Allocator) fixup(s _Site) {
    a := self.fn.Arena
    n := a.At(s.ref)
    e := self.tab.At(n.Su.Index)

    /* calls return in a fixed register */
    if n.Op.IsCall() {
        rr := self.tg.RetReg
        rc := n.Rall
        if n.Rall = rr; s.parent != ir.Nil && rc != rr {
            self.movenode(s.parent, s.side, rc)
        }
        return
    }

    /* assignments to registers */
    if n.Op == ir.OP_assign && a.At(n.Left).Op == ir.OP_reg {
        r := a.At(n.Left).Rval
        switch {
            case e.Rewrite & table.RLEFT != 0: {
                n.Rall = r
                return
            }
            case self.num.Precolored(r) >= 0: {
                n.Su.Elided = a.At(n.Right).Rall == r
                return
            }
        }
    }

    /* two-address instructions */
    switch {
        case e.Rewrite & table.RLEFT  != 0 : self.tie(s.ref, ir.SideLeft)
        case e.Rewrite & table.RRIGHT != 0 : self.tie(s.ref, ir.SideRight)
    }
}

// tie copies the reused operand into the result register when the colours
// of the two differ.
func (self *Allocator) tie(p ir.Ref, side ir.Side) {
    var reg int
    a := self.fn.Arena
    n := a.At(p)
    c := a.At(a.Child(p, side))

    /* the register holding the operand */
    switch {
        case n.Rall == ir.NoReg             : return
        case c.Su.Index != ir.NoPattern     : reg = c.Rall
        case c.Op == ir.OP_reg              : reg = c.Rval
        default                             : return
    }

    /* copy if needed */
    if reg != n.Rall {
        self.movenode(p, side, n.Rall)
    }
}

func (self *Allocator) movenode(p ir.Ref, s ir.Side, reg int) {
    a := self.fn.Arena
    m := a.Wrap(p, s, ir.OP_move)
    c := a.At(a.At(m).Left)

    /* copy of a leaf or of a computed value */
    pl := ir.P_reg
    if c.Su.Index == ir.NoPattern {
        pl = ir.P_none
    }

    /* annotate the copy */
    n := a.At(m)
    n.Rall = reg
    n.Su = ir.Su{Index: self.tab.Move(), Left: pl}
    atomic.AddUint64(&MoveCount, 1)
}
