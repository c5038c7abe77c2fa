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
    `sort`

    `github.com/cNoNim/pcc/internal/ir`
    `github.com/cNoNim/pcc/internal/table`
)

// _LiveSet is the set of graph nodes live at one point of a statement.
type _LiveSet map[int]struct{}

func (self _LiveSet) add(u int) _LiveSet {
    if u >= 0 {
        self[u] = struct{}{}
    }
    return self
}

func (self _LiveSet) remove(u int) _LiveSet {
    delete(self, u)
    return self
}

func (self _LiveSet) toslice() []int {
    ret := make([]int, 0, len(self))
    for u := range self {
        ret = append(ret, u)
    }
    sort.Ints(ret)
    return ret
}

// build constructs the interference graph and the move lists of every
// statement. Values never live across statements, so each statement starts
// with an empty live set.
func (self *Allocator) build() {
    for p := self.fn.Records.Front(); p != nil; p = p.Next {
        if p.Kind == ir.IP_node {
            self.insnwalk(p.Node, make(_LiveSet))
        }
    }
}

// value returns the graph node an operand is read from, or -1.
func (self *Allocator) value(p ir.Ref) int {
    if p == ir.Nil {
        return -1
    }

    /* computed values */
    n := self.fn.Arena.At(p)
    if n.Su.Index != ir.NoPattern {
        return n.Rall
    }

    /* machine registers read in place */
    switch n.Op {
        case ir.OP_reg  : return self.num.Precolored(n.Rval)
        case ir.OP_oreg : return self.num.Precolored(n.Rval)
        default         : return -1
    }
}

func (self *Allocator) def(d int, live _LiveSet) {
    for _, v := range live.toslice() {
        self.addEdge(d, v)
    }
    live.remove(d)
}

func (self *Allocator) use(u int, live _LiveSet) {
    if u >= 0 {
        self.nodes[u].refs++
        live.add(u)
    }
}

// insnwalk visits the tree rooted at p in reverse evaluation order. live is
// the set of values live after p is evaluated, the result is the set live
// before it.
func (self *Allocator) insnwalk(p ir.Ref, live _LiveSet) _LiveSet {
    a := self.fn.Arena
    n := a.At(p)

    /* the address of a folded indirection is the operand */
    if n.Su.Index == ir.Passthrough {
        return self.insnwalk(n.Left, live)
    }

    /* operands and the defined value */
    e := self.tab.At(n.Su.Index)
    d := n.Rall
    lv, rv := self.value(n.Left), self.value(n.Right)

    /* an assigned register is written, not read */
    if n.Op == ir.OP_assign && a.At(n.Left).Op == ir.OP_reg {
        lv = -1
    }

    /* count the definition */
    if d >= 0 {
        self.nodes[d].refs++
    }

    /* the instruction itself */
    switch {
        case n.Op.IsCall(): {
            self.call(d, live)
            self.use(lv, live)
        }
        case n.Op == ir.OP_assign && a.At(n.Left).Op == ir.OP_reg && e.Rewrite & table.RLEFT != 0: {
            self.def(d, live)
            self.use(rv, live)
        }
        case e.Rewrite & table.RLEFT != 0: {
            self.tied(d, lv, rv, live)
        }
        case e.Rewrite & table.RRIGHT != 0: {
            self.tied(d, rv, lv, live)
        }
        case e.Rewrite & table.RESC != 0: {
            self.fresh(d, lv, rv, e, live)
        }
        default: {
            self.use(lv, live)
            self.use(rv, live)
        }
    }

    /* the operands, last evaluated first */
    first, second := n.Left, n.Right
    fp, sp := n.Su.Left, n.Su.Right
    if n.Su.DoRight {
        first, second = second, first
        fp, sp = sp, fp
    }

    /* computed operands only */
    if second != ir.Nil && sp.Evaluated() { live = self.insnwalk(second, live) }
    if first  != ir.Nil && fp.Evaluated() { live = self.insnwalk(first, live) }
    return live
}

// call clobbers every machine register. Values live across it interfere with
// all of them, the result is copied out of the return register.
func (self *Allocator) call(d int, live _LiveSet) {
    if d >= 0 {
        self.def(d, live)
        self.addMove(self.num.Precolored(self.tg.RetReg), d)
    }

    /* values live across the call */
    for _, v := range live.toslice() {
        for k := 0; k < self.num.K(); k++ {
            self.addEdge(v, k)
        }
    }
}

// tied handles a two-address instruction as a copy of the reused operand into
// the result followed by the operation in place. The other operand is read
// after the copy and must not share the result register.
func (self *Allocator) tied(d int, t int, o int, live _LiveSet) {
    if d < 0 {
        self.use(t, live)
        self.use(o, live)
        return
    }

    /* the operation */
    self.def(d, live)

    /* the copy, with the other operand live across it */
    if o >= 0 && o != t {
        self.addEdge(d, o)
    }
    if t >= 0 && t != d {
        self.addMove(t, d)
    }

    /* both operands are live before the copy */
    self.use(t, live)
    self.use(o, live)
}

// fresh defines a new register, which may only share the operands the
// instruction allows.
func (self *Allocator) fresh(d int, l int, r int, e *table.Entry, live _LiveSet) {
    if d >= 0 {
        self.def(d, live)
        if l >= 0 && !e.ShareL() { self.addEdge(d, l) }
        if r >= 0 && !e.ShareR() { self.addEdge(d, r) }
    }
    self.use(l, live)
    self.use(r, live)
}
