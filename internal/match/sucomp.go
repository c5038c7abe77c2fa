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
    `github.com/cNoNim/pcc/internal/ir`
    `github.com/cNoNim/pcc/internal/table`
    `github.com/cNoNim/pcc/internal/utils`
)

// Sucomp computes the number of registers needed to evaluate the tree at p
// and decides the evaluation order of every node. When the tree cannot be
// evaluated with the available registers, one subtree is moved to a frame
// slot: the result is then -1 and the returned tree is the store statement
// that has to be evaluated before p.
func (self *Matcher) Sucomp(p ir.Ref) (int, ir.Ref) {
    self.store = ir.Nil
    ret := self.sucomp(p)

    /* a store was created */
    if ret < 0 {
        return -1, self.store
    } else {
        return ret, ir.Nil
    }
}

func (self *Matcher) sucomp(p ir.Ref) int {
    var left  int
    var right int

    /* folded memory operand, only the address counts */
    a := self.fn.Arena
    n := a.At(p)
    if n.Su.Index == ir.Passthrough {
        return self.sucomp(n.Left)
    }

    /* calls need all the registers */
    e := self.tab.At(n.Su.Index)
    if n.Op == ir.OP_ucall {
        if n.Su.Left.Evaluated() && self.sucomp(n.Left) < 0 {
            return -1
        } else {
            return self.fregs
        }
    }

    /* registers needed by the instruction itself */
    nreg := e.ARegs() * self.tg.Words(n.Type)
    l, r := n.Left, n.Right

    /* right subtree */
    if a.At(p).Su.Right.Evaluated() {
        if right = self.sucomp(r); right < 0 {
            return right
        }
    }

    /* left subtree */
    if a.At(p).Su.Left.Evaluated() {
        if left = self.sucomp(l); left < 0 {
            return left
        }
    }

    /* both subtrees cannot be held at the same time, store one of them */
    n = a.At(p)
    if n.Su.Left.Evaluated() && n.Su.Right.Evaluated() &&
       right + self.tg.Words(a.At(l).Type) > self.fregs &&
       left + self.tg.Words(a.At(r).Type) > self.fregs {
        self.spill(p, left, right)
        return -1
    }

    /* pick the evaluation order */
    if right + left > self.fregs {
        n.Su.DoRight = right > left
    } else if right != 0 && e.Needs & table.NASL != 0 && e.Rewrite & table.RLEFT != 0 {
        n.Su.DoRight = true
    } else {
        n.Su.DoRight = right > left
    }

    /* both in registers with equal needs, they are held together */
    if left != 0 && left == right {
        left += right
    }

    /* the largest of the three */
    if right > nreg {
        nreg = right
    }
    if left > nreg {
        nreg = left
    }

    /* remember the need, it is the spill cost estimate of the graph allocator */
    n.Su.Need = nreg
    return nreg
}

func (self *Matcher) spill(p ir.Ref, left int, right int) {
    a := self.fn.Arena
    n := a.At(p)
    lo := a.At(n.Left).Op
    ro := a.At(n.Right).Op

    /* OREGs are memory already */
    if lo == ir.OP_oreg && ro == ir.OP_oreg {
        utils.Fatalf("match", "sucomp: cannot generate code for %s", a.Format(p))
    }

    /* store the subtree with the highest need, or the left one */
    if (right > left && ro != ir.OP_oreg) || lo == ir.OP_oreg {
        self.store = Store(self.fn, self.tg, p, ir.SideRight)
    } else if n.Op == ir.OP_assign && lo == ir.OP_umul {
        self.store = Store(self.fn, self.tg, n.Left, ir.SideLeft)
    } else {
        self.store = Store(self.fn, self.tg, p, ir.SideLeft)
    }
}
