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

package ralloc

import (
    `sync/atomic`

    `github.com/cNoNim/pcc/internal/arch`
    `github.com/cNoNim/pcc/internal/ir`
    `github.com/cNoNim/pcc/internal/table`
    `github.com/cNoNim/pcc/internal/utils`
)

var (
    MoveCount uint64 = 0
)

// _Operands is the register state of one node while it is being allocated.
type _Operands struct {
    lc   Code
    rc   Code
    pins []Code
}

func (self *Allocator) alloregs(p ir.Ref, want int) Code {
    a := self.fn.Arena
    n := a.At(p)

    /* folded indirections and unmatched nodes */
    switch n.Su.Index {
        case ir.Passthrough : return self.passthrough(p, want)
        case ir.NoPattern   : utils.Fatalf("ralloc", "allocating unmatched node: %s", a.Format(p))
    }

    /* special operators */
    e := self.tab.At(n.Su.Index)
    switch {
        case n.Op == ir.OP_ucall                                                : return self.call(p, e)
        case n.Op == ir.OP_assign && n.Su.Right == ir.P_reg && self.isreg(n.Left) : return self.assignreg(p, e)
    }

    /* generic shapes */
    sh := Classify(n, e)
    d := &_ShapeTab[sh]
    return _ShapeFuncs[d.handler](self, p, want, d)
}

func (self *Allocator) isreg(p ir.Ref) bool {
    return self.fn.Arena.At(p).Op == ir.OP_reg
}

func (self *Allocator) passthrough(p ir.Ref, want int) Code {
    c := self.alloregs(self.fn.Arena.At(p).Left, want)
    self.fn.Arena.At(p).Rall = c.Reg()
    return c
}

func (self *Allocator) call(p ir.Ref, e *table.Entry) Code {
    n := self.fn.Arena.At(p)
    t := n.Type

    /* indirect calls compute the target first */
    if n.Su.Left.Evaluated() {
        self.rb.freeregs(self.alloregs(n.Left, ir.NoReg))
    }

    /* nothing may be held across a call */
    for i, u := range self.rb.used {
        if u {
            utils.Fatalf("ralloc", "register %s live across call: %s", self.tg.RegName(i), self.fn.Arena.Format(p))
        }
    }

    /* the result comes back in the return register */
    c := self.rb.getregs(self.tg.RetReg, self.tg.Words(t), arch.C_areg, t)
    if c.Reg() != self.tg.RetReg {
        utils.Fatalf("ralloc", "return register %s unavailable", self.tg.RegName(self.tg.RetReg))
    }

    /* update the node */
    self.fn.Arena.At(p).Rall = c.Reg()
    return c
}

// assignreg evaluates the right side of an assignment to a register directly
// into that register, in which case the assignment itself is a no-op.
func (self *Allocator) assignreg(p ir.Ref, e *table.Entry) Code {
    a := self.fn.Arena
    r := a.At(a.At(p).Left).Rval
    c := self.alloregs(a.At(p).Right, r)

    /* landed in place */
    if n := a.At(p); c.Reg() == r {
        n.Su.Elided = true
        n.Rall = r
        return c
    }

    /* otherwise an ordinary store of the right register */
    if e.Rewrite & table.RRIGHT == 0 {
        self.rb.freeregs(c)
        a.At(p).Rall = ir.NoReg
        return 0
    } else {
        a.At(p).Rall = c.Reg()
        return c
    }
}

/** Shape Handlers **/

func shapeNone(self *Allocator, p ir.Ref, _ int, _ *_ShapeDesc) Code {
    self.fn.Arena.At(p).Rall = ir.NoReg
    return 0
}

func shapeInplace(self *Allocator, p ir.Ref, want int, sh *_ShapeDesc) Code {
    var ops _Operands
    self.prepare(p, &ops, want, sh)
    return self.finish(p, &ops, self.reclaim(&ops, sh))
}

func shapeScratch(self *Allocator, p ir.Ref, want int, sh *_ShapeDesc) Code {
    var ops _Operands
    self.prepare(p, &ops, want, sh)
    self.scratch(p, &ops, want, sh)
    return self.finish(p, &ops, 0)
}

func shapeFresh(self *Allocator, p ir.Ref, want int, sh *_ShapeDesc) Code {
    var ops _Operands
    self.prepare(p, &ops, want, sh)
    return self.finish(p, &ops, self.scratch(p, &ops, want, sh))
}

func shapeEval(self *Allocator, p ir.Ref, want int, sh *_ShapeDesc) Code {
    var ops _Operands
    self.prepare(p, &ops, want, sh)
    self.operands(p, &ops, want, sh)
    return self.finish(p, &ops, self.reclaim(&ops, sh))
}

func shapeEvalScratch(self *Allocator, p ir.Ref, want int, sh *_ShapeDesc) Code {
    var ops _Operands
    self.prepare(p, &ops, want, sh)
    self.operands(p, &ops, want, sh)
    ret := self.reclaim(&ops, sh)
    self.scratch(p, &ops, want, sh)
    return self.finish(p, &ops, ret)
}

func shapeEvalFresh(self *Allocator, p ir.Ref, want int, sh *_ShapeDesc) Code {
    var ops _Operands
    self.prepare(p, &ops, want, sh)
    self.operands(p, &ops, want, sh)
    return self.finish(p, &ops, self.scratch(p, &ops, want, sh))
}

/** Building Blocks **/

// prepare claims the registers of the operands that are used in place before
// anything else is evaluated: a register the result lives in is taken over,
// registers that are only read are held until the node is done.
func (self *Allocator) prepare(p ir.Ref, ops *_Operands, want int, sh *_ShapeDesc) {
    a := self.fn.Arena
    n := a.At(p)
    l, r := n.Left, n.Right

    /* left operand in place */
    if l != ir.Nil && !sh.has(_F_left) {
        if sh.reclaim == _R_left {
            ops.lc = self.checkreg(p, ir.SideLeft, want)
        } else {
            self.pin(l, ops)
        }
    }

    /* right operand in place */
    if r != ir.Nil && !sh.has(_F_right) {
        if sh.reclaim == _R_right {
            ops.rc = self.checkreg(p, ir.SideRight, want)
        } else {
            self.pin(r, ops)
        }
    }
}

func (self *Allocator) pin(p ir.Ref, ops *_Operands) {
    var reg int
    var n = self.fn.Arena.At(p)

    /* registers and register based memory */
    switch n.Op {
        case ir.OP_reg  : reg = n.Rval
        case ir.OP_oreg : reg = n.Rval
        default         : return
    }

    /* held already, by this tree */
    if !self.tg.IsTemp(reg) || self.rb.used[reg] {
        return
    }

    /* hold it until the node is done */
    self.rb.setused(reg, 1)
    ops.pins = append(ops.pins, MkCode(reg, 1))
}

// operands evaluates the register operands of p in the annotated order.
func (self *Allocator) operands(p ir.Ref, ops *_Operands, want int, sh *_ShapeDesc) {
    a := self.fn.Arena
    l, r := a.At(p).Left, a.At(p).Right
    lw, rw := want, ir.NoReg

    /* hint the side whose register becomes the result */
    switch {
        case sh.reclaim == _R_right                   : lw, rw = ir.NoReg, want
        case sh.reclaim == _R_fresh && sh.has(_F_nasr) : lw, rw = ir.NoReg, want
    }

    /* right first */
    if sh.has(_F_dor) {
        if sh.has(_F_right) { ops.rc = self.alloregs(r, rw) }
        if sh.has(_F_left)  { ops.lc = self.alloregs(l, lw) }
        return
    }

    /* left first */
    if sh.has(_F_left)  { ops.lc = self.alloregs(l, lw) }
    if sh.has(_F_right) { ops.rc = self.alloregs(r, rw) }
}

// reclaim takes over the register of the operand that holds the result.
func (self *Allocator) reclaim(ops *_Operands, sh *_ShapeDesc) (ret Code) {
    switch sh.reclaim {
        case _R_left  : ret, ops.lc = ops.lc, 0
        case _R_right : ret, ops.rc = ops.rc, 0
    }
    return
}

// checkreg claims the register an in-place operand lives in. Registers that
// cannot be handed out are copied into a fresh one.
func (self *Allocator) checkreg(p ir.Ref, s ir.Side, want int) Code {
    a := self.fn.Arena
    c := a.At(a.Child(p, s))

    /* only registers can be reclaimed in place */
    if c.Op != ir.OP_reg {
        utils.Fatalf("ralloc", "reclaiming %s operand in place: %s", s, a.Format(p))
    }

    /* a free temp register becomes the result */
    reg, t := c.Rval, c.Type
    if self.tg.IsTemp(reg) && !self.rb.used[reg] && self.tg.MayUse(reg, t) {
        self.rb.setused(reg, self.tg.Words(t))
        return MkCode(reg, self.tg.Words(t))
    }

    /* assignments write the register itself */
    if a.At(p).Op == ir.OP_assign && s == ir.SideLeft {
        return 0
    }

    /* copy it otherwise */
    ret := self.rb.getregs(want, self.tg.Words(t), arch.C_areg, t)
    self.movenode(p, s, ret.Reg())
    return ret
}

// scratch allocates the registers the instruction needs. A fresh result is
// carved out of them and returned.
func (self *Allocator) scratch(p ir.Ref, ops *_Operands, want int, sh *_ShapeDesc) Code {
    var cnt int
    var cls arch.Class

    /* register class of the needs */
    n := self.fn.Arena.At(p)
    e := self.tab.At(n.Su.Index)
    if e.ARegs() != 0 && e.BRegs() != 0 {
        utils.Fatalf("ralloc", "mixed register classes in needs of %s", e)
    } else if cnt, cls = e.ARegs(), arch.C_areg; cnt == 0 {
        cnt, cls = e.BRegs(), arch.C_breg
    }

    /* needs may take over an operand register */
    t := n.Type
    hint := want
    if sh.has(_F_nasl) && ops.lc != 0 {
        hint = ops.lc.Reg()
        self.rb.freeregs(ops.lc)
        ops.lc = 0
    } else if sh.has(_F_nasr) && ops.rc != 0 {
        hint = ops.rc.Reg()
        self.rb.freeregs(ops.rc)
        ops.rc = 0
    }

    /* the needed registers */
    nc := self.rb.getregs(hint, cnt * self.tg.Words(t), cls, t)
    if sh.reclaim == _R_fresh {
        return self.shave(p, nc, self.tg.Words(t))
    }

    /* pure scratch */
    self.fn.Arena.At(p).Scratch = nc.Reg()
    self.rb.freeregs(nc)
    return 0
}

// shave keeps the first n registers of c as the result and releases the rest,
// which remain usable as scratch by the instruction.
func (self *Allocator) shave(p ir.Ref, c Code, n int) Code {
    if c.Size() <= n {
        return c
    }

    /* remember the scratch part */
    rest := MkCode(c.Reg() + n, c.Size() - n)
    self.fn.Arena.At(p).Scratch = rest.Reg()
    self.rb.freeregs(rest)
    return MkCode(c.Reg(), n)
}

// finish releases the operand registers and records the result.
func (self *Allocator) finish(p ir.Ref, ops *_Operands, ret Code) Code {
    if ops.lc != 0 { self.rb.freeregs(ops.lc) }
    if ops.rc != 0 { self.rb.freeregs(ops.rc) }

    /* release the pinned registers */
    for _, c := range ops.pins {
        self.rb.freeregs(c)
    }

    /* update the node, assigned register variables keep their value */
    if n := self.fn.Arena.At(p); ret != 0 || n.Op != ir.OP_assign || !self.isreg(n.Left) {
        n.Rall = ret.Reg()
    } else {
        n.Rall = self.fn.Arena.At(n.Left).Rval
    }
    return ret
}

// movenode inserts a register copy into reg above the child s of p.
func (self *Allocator) movenode(p ir.Ref, s ir.Side, reg int) {
    a := self.fn.Arena
    m := a.Wrap(p, s, ir.OP_move)
    c := a.At(a.At(m).Left)

    /* the copied operand is either a leaf or a computed value */
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
