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
    `fmt`

    `github.com/cNoNim/pcc/internal/arch`
    `github.com/cNoNim/pcc/internal/ir`
    `github.com/cNoNim/pcc/internal/table`
    `github.com/cNoNim/pcc/internal/utils`
)

// Matcher selects instruction table entries for the trees of one function.
type Matcher struct {
    fn    *ir.Function
    tg    *arch.Target
    tab   *table.Table
    fregs int
    store ir.Ref
}

func New(fn *ir.Function, tg *arch.Target, tab *table.Table) *Matcher {
    return &Matcher {
        fn    : fn,
        tg    : tg,
        tab   : tab,
        fregs : tg.Fregs(),
    }
}

func (self *Matcher) Fn() *ir.Function     { return self.fn }
func (self *Matcher) Target() *arch.Target { return self.tg }
func (self *Matcher) Table() *table.Table  { return self.tab }

// Gen annotates the tree rooted at p with the cheapest table entries that
// produce its value in the form cookie asks for.
func (self *Matcher) Gen(p ir.Ref, cookie table.Cookie) {
    self.canon(p)
    self.gen(p, cookie)
}

// canon folds register-relative memory references into OREG leaves.
func (self *Matcher) canon(p ir.Ref) {
    self.fn.Arena.Walk(p, func(r ir.Ref) {
        self.fold(r, ir.SideLeft)
        self.fold(r, ir.SideRight)
    })
}

func (self *Matcher) fold(p ir.Ref, s ir.Side) {
    var ok  bool
    var reg int
    var off int64

    /* must be an indirection */
    a := self.fn.Arena
    c := a.Child(p, s)
    if c == ir.Nil || a.At(c).Op != ir.OP_umul {
        return
    }

    /* check for the address form */
    ty := a.At(c).Type
    if reg, off, ok = self.address(a.At(c).Left); ok {
        a.Replace(p, s, a.Leaf(ir.OP_oreg, ty, off, "", reg))
    }
}

func (self *Matcher) address(p ir.Ref) (int, int64, bool) {
    a := self.fn.Arena
    n := a.At(p)

    /* plain register */
    if n.Op == ir.OP_reg {
        return n.Rval, 0, true
    }

    /* register plus or minus a constant */
    if n.Op != ir.OP_plus && n.Op != ir.OP_minus {
        return 0, 0, false
    }

    /* constant on either side of a PLUS */
    l, r := a.At(n.Left), a.At(n.Right)
    if n.Op == ir.OP_plus && l.Op == ir.OP_icon && r.Op == ir.OP_reg {
        l, r = r, l
    }

    /* the constant must not be relocated */
    if l.Op != ir.OP_reg || r.Op != ir.OP_icon || r.Name != "" {
        return 0, 0, false
    } else if n.Op == ir.OP_plus {
        return l.Rval, r.Lval, true
    } else {
        return l.Rval, -r.Lval, true
    }
}

func (self *Matcher) leafShape(n *ir.Node) table.Shape {
    switch n.Op {
        case ir.OP_icon : return table.SCON
        case ir.OP_name : return table.SNAME
        case ir.OP_oreg : return table.SOREG
        case ir.OP_temp : return table.SOREG
        case ir.OP_reg  : break
        default         : return 0
    }

    /* registers fit by class */
    var ret table.Shape
    var tmp = self.tg.IsTemp(n.Rval)

    /* reserved registers can be read like class-A ones */
    switch self.tg.ClassOf(n.Rval) {
        case arch.C_breg: {
            if ret = table.SBREG; tmp {
                ret |= table.STBREG
            }
        }
        default: {
            if ret = table.SAREG; tmp {
                ret |= table.STAREG
            }
        }
    }
    return ret
}

func (self *Matcher) needs(e *table.Entry, t ir.Type) int {
    return (e.ARegs() + e.BRegs()) * self.tg.Words(t)
}

// operand decides how child c of p is made to fit operand o of entry e.
func (self *Matcher) operand(p ir.Ref, s ir.Side, e *table.Entry, o table.Operand) (ir.Place, int, bool) {
    n := self.fn.Arena.At(p)
    c := self.fn.Arena.At(self.fn.Arena.Child(p, s))

    /* anything goes */
    if o.Shape & table.SANY != 0 {
        return ir.P_none, 0, true
    }

    /* check for type */
    if table.MaskOf(c.Type) & o.Type == 0 {
        return ir.P_none, 0, false
    }

    /* in place, unless it is a register the instruction would destroy */
    if self.leafShape(c) & o.Shape != 0 && !self.clobbers(n, s, c, e) {
        return ir.P_none, 0, true
    }

    /* memory through a pointer computed into a register */
    if c.Op == ir.OP_umul && o.Shape & table.SOREG != 0 {
        return ir.P_oreg, 1, true
    }

    /* condition codes */
    if o.Shape & table.SCC != 0 {
        return ir.P_cc, 0, true
    }

    /* the target of an assignment is never computed */
    if n.Op == ir.OP_assign && s == ir.SideLeft {
        return ir.P_none, 0, false
    }

    /* compute into a register */
    if o.Shape & (table.SAREG | table.STAREG | table.SBREG | table.STBREG) != 0 {
        return ir.P_reg, self.tg.Words(c.Type), true
    } else {
        return ir.P_none, 0, false
    }
}

func (self *Matcher) clobbers(n *ir.Node, s ir.Side, c *ir.Node, e *table.Entry) bool {
    if c.Op != ir.OP_reg || n.Op == ir.OP_assign || n.Op == ir.OP_force {
        return false
    } else if s == ir.SideLeft {
        return e.Rewrite & table.RLEFT != 0
    } else {
        return e.Rewrite & table.RRIGHT != 0
    }
}

// place prices entry e for node p.
func (self *Matcher) place(p ir.Ref, e *table.Entry) (pl ir.Place, pr ir.Place, cost int, ok bool) {
    var cl int
    var cr int

    /* leaves describe themselves with the left operand */
    n := self.fn.Arena.At(p)
    if n.Op.IsLeaf() {
        if e.Left.Shape & table.SANY != 0 {
            return ir.P_none, ir.P_none, self.needs(e, n.Type), true
        } else if self.leafShape(n) & e.Left.Shape == 0 || table.MaskOf(n.Type) & e.Left.Type == 0 {
            return ir.P_none, ir.P_none, 0, false
        } else {
            return ir.P_none, ir.P_none, self.needs(e, n.Type), true
        }
    }

    /* left operand */
    if pl, cl, ok = self.operand(p, ir.SideLeft, e, e.Left); !ok {
        return
    }

    /* right operand */
    if n.Right != ir.Nil {
        if pr, cr, ok = self.operand(p, ir.SideRight, e, e.Right); !ok {
            return
        }
    }

    /* registers materialised plus the ones the instruction needs */
    cost = cl + cr + self.needs(e, n.Type)
    return
}

func (self *Matcher) lookup(p ir.Ref, cookie table.Cookie) int {
    n := self.fn.Arena.At(p)
    return self.tab.Lookup(n.Op, n.Type, cookie, func(e *table.Entry) (int, bool) {
        _, _, cost, ok := self.place(p, e)
        return cost, ok
    })
}

func (self *Matcher) gen(p ir.Ref, cookie table.Cookie) {
    idx := self.lookup(p, cookie)

    /* values computed for effect only may be matched as register values */
    if idx < 0 && cookie == table.FOREFF {
        idx = self.lookup(p, table.INTAREG)
    }

    /* nothing matches, the tree is malformed or the table is incomplete */
    if idx < 0 {
        n := self.fn.Arena.At(p)
        panic(utils.ENoPattern(n.Op.String(), n.Type.String(), cookie.String() + ": " + self.fn.Arena.Format(p)))
    }

    /* annotate the node */
    e := self.tab.At(idx)
    n := self.fn.Arena.At(p)
    pl, pr, _, _ := self.place(p, e)
    op, l, r := n.Op, n.Left, n.Right
    n.Su = ir.Su{Index: idx, Left: pl, Right: pr}

    /* an indirection addresses memory with its left register */
    if op == ir.OP_umul && pl == ir.P_reg {
        n.Su.Left = ir.P_oreg
        self.gen(l, table.INTAREG)
    } else if l != ir.Nil {
        self.child(l, pl, e.Left)
    }

    /* right operand */
    if r != ir.Nil {
        self.child(r, pr, e.Right)
    }
}

func (self *Matcher) child(c ir.Ref, pl ir.Place, o table.Operand) {
    switch pl {
        case ir.P_none: {
            self.fn.Arena.At(c).Su = ir.Su{Index: ir.NoPattern}
        }
        case ir.P_reg: {
            if o.Shape & (table.SAREG | table.STAREG) == 0 {
                self.gen(c, table.INTBREG)
            } else {
                self.gen(c, table.INTAREG)
            }
        }
        case ir.P_oreg: {
            n := self.fn.Arena.At(c)
            n.Su = ir.Su{Index: ir.Passthrough, Left: ir.P_reg}
            self.gen(n.Left, table.INTAREG)
        }
        case ir.P_cc: {
            self.gen(c, table.FORCC)
        }
        default: {
            panic(fmt.Sprintf("match: invalid placement %d", pl))
        }
    }
}
