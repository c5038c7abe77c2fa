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

package match

import (
    `github.com/cNoNim/pcc/internal/arch`
    `github.com/cNoNim/pcc/internal/ir`
    `github.com/cNoNim/pcc/internal/table`
    `github.com/cNoNim/pcc/internal/utils`
)

// Temp is a value the graph allocator has to keep in a register.
type Temp struct {
    Node   ir.Ref
    Parent ir.Ref       // Nil for a statement root
    Side   ir.Side
    Rec    *ir.Record
}

// Numbering maps values to interference graph nodes. The first K nodes are
// the allocatable class-A registers, temporaries follow.
type Numbering struct {
    regs  []int
    pre   []int
    Temps []Temp
}

func NewNumbering(tg *arch.Target) *Numbering {
    ret := &Numbering {
        regs : tg.Allocatable(arch.C_areg),
        pre  : make([]int, len(tg.Regs)),
    }

    /* reverse map of the precolored nodes */
    for i := range ret.pre {
        ret.pre[i] = -1
    }
    for i, r := range ret.regs {
        ret.pre[r] = i
    }
    return ret
}

func (self *Numbering) K() int   { return len(self.regs) }
func (self *Numbering) Len() int { return len(self.regs) + len(self.Temps) }

// Precolored returns the node of physical register r, or -1 when r is not
// allocatable.
func (self *Numbering) Precolored(r int) int {
    if r < 0 || r >= len(self.pre) {
        return -1
    } else {
        return self.pre[r]
    }
}

// Register returns the physical register of a precolored node or colour.
func (self *Numbering) Register(c int) int {
    return self.regs[c]
}

func (self *Numbering) IsTemp(id int) bool {
    return id >= len(self.regs) && id < self.Len()
}

func (self *Numbering) Temp(id int) *Temp {
    if !self.IsTemp(id) {
        panic("match: not a temporary")
    } else {
        return &self.Temps[id - len(self.regs)]
    }
}

func (self *Numbering) Reset() {
    self.Temps = self.Temps[:0]
}

func (self *Numbering) add(t Temp) int {
    self.Temps = append(self.Temps, t)
    return self.Len() - 1
}

// Nsucomp numbers the values of the statement r for the graph allocator and
// decides the evaluation order. Rall of each value-producing node receives
// its graph node.
func (self *Matcher) Nsucomp(r *ir.Record, num *Numbering) {
    self.nsucomp(r.Node, ir.Nil, ir.SideLeft, r, num)
}

func (self *Matcher) nsucomp(p ir.Ref, parent ir.Ref, side ir.Side, rec *ir.Record, num *Numbering) int {
    var left  int
    var right int
    var need  int

    /* folded memory operand, the address register is the value */
    a := self.fn.Arena
    n := a.At(p)
    if n.Su.Index == ir.Passthrough {
        need = self.nsucomp(n.Left, p, ir.SideLeft, rec, num)
        n.Rall = a.At(n.Left).Rall
        return need
    }

    /* register pairs are not graph nodes */
    e := self.tab.At(n.Su.Index)
    if self.tg.Words(n.Type) > 1 && e.Rewrite & (table.RLEFT | table.RRIGHT | table.RESC) != 0 {
        utils.Fatalf("match", "graph allocation of multi-word value: %s", a.Format(p))
    }

    /* registers needed by the instruction */
    nreg := e.ARegs() * self.tg.Words(n.Type)
    if n.Op.IsCall() && nreg < self.fregs {
        nreg = self.fregs
    }

    /* children */
    if n.Su.Right.Evaluated() {
        right = self.nsucomp(n.Right, p, ir.SideRight, rec, num)
    }
    if n.Su.Left.Evaluated() {
        left = self.nsucomp(n.Left, p, ir.SideLeft, rec, num)
    }

    /* evaluation order */
    if n.Su.Left.Evaluated() && n.Su.Right.Evaluated() {
        if right == left {
            need = left + max(nreg, 1)
        } else {
            need = max(right, left)
        }
        n.Su.DoRight = right > left
    } else if n.Su.Left.Evaluated() || n.Su.Right.Evaluated() {
        need = max(right, left) + nreg
    } else {
        need = nreg
    }

    /* assign the value a node */
    n.Su.Need = need
    n.Rall = self.define(p, parent, side, rec, e, num)
    return need
}

func (self *Matcher) define(p ir.Ref, parent ir.Ref, side ir.Side, rec *ir.Record, e *table.Entry, num *Numbering) int {
    a := self.fn.Arena
    n := a.At(p)
    t := Temp{Node: p, Parent: parent, Side: side, Rec: rec}

    /* fixed registers first */
    switch n.Op {
        case ir.OP_ucall: {
            return num.add(t)
        }
        case ir.OP_force: {
            return num.Precolored(self.tg.RetReg)
        }
        case ir.OP_assign: {
            if l := a.At(n.Left); l.Op == ir.OP_reg {
                if c := num.Precolored(l.Rval); c >= 0 {
                    return c
                } else if e.Rewrite & table.RLEFT != 0 {
                    return ir.NoReg
                }
            }
        }
    }

    /* the instruction leaves a value in a register */
    if e.Rewrite & table.RESC != 0 {
        return num.add(t)
    }

    /* scratch registers are not graph nodes */
    if e.ARegs() + e.BRegs() != 0 {
        utils.Fatalf("match", "graph allocation of scratch registers: %s", a.Format(p))
    }

    /* the value stays in one of the operands */
    if e.Rewrite & (table.RLEFT | table.RRIGHT) != 0 {
        return num.add(t)
    } else {
        return ir.NoReg
    }
}

func max(a int, b int) int {
    if a > b {
        return a
    } else {
        return b
    }
}
