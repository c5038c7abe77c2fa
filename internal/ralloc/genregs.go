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
    `io`

    `github.com/cNoNim/pcc/internal/arch`
    `github.com/cNoNim/pcc/internal/ir`
    `github.com/cNoNim/pcc/internal/table`
    `github.com/cNoNim/pcc/internal/utils`
)

// Allocator assigns registers to matched trees one statement at a time,
// following the evaluation order computed by the matcher.
type Allocator struct {
    fn  *ir.Function
    tg  *arch.Target
    tab *table.Table
    rb  _RegBlock
    dbg io.Writer
}

func New(fn *ir.Function, tg *arch.Target, tab *table.Table) *Allocator {
    return &Allocator {
        fn  : fn,
        tg  : tg,
        tab : tab,
    }
}

// SetDebug enables tree dumps after every statement.
func (self *Allocator) SetDebug(w io.Writer) {
    self.dbg = w
}

// Acquires returns the number of registers acquired by the last GenRegs.
func (self *Allocator) Acquires() int {
    return self.rb.acquires
}

// Releases returns the number of registers released by the last GenRegs.
func (self *Allocator) Releases() int {
    return self.rb.releases
}

// GenRegs allocates registers for the statement tree rooted at p, which must
// have been annotated by Sucomp.
func (self *Allocator) GenRegs(p ir.Ref) {
    var c Code
    self.rb.reset(self.tg)

    /* returned values must end up in the return register */
    if self.fn.Arena.At(p).Op == ir.OP_force {
        c = self.force(p)
    } else {
        c = self.alloregs(p, ir.NoReg)
    }

    /* the statement value is not used */
    self.rb.freeregs(c)
    self.rb.check()

    /* dump the allocated tree if needed */
    if self.dbg != nil {
        utils.Dump(self.dbg, "genregs " + self.tg.Name, self.fn.Arena.Format(p))
    }
}

func (self *Allocator) force(p ir.Ref) Code {
    rr := self.tg.RetReg
    ty := self.fn.Arena.At(p).Type
    rc := self.alloregs(p, rr)

    /* landed in the right place */
    if rc.Reg() == rr {
        return rc
    }

    /* copy the value over */
    self.movenode(p, ir.SideLeft, rr)
    self.rb.freeregs(rc)

    /* the return register must be available now */
    if rc = self.rb.getregs(rr, self.tg.Words(ty), arch.C_areg, ty); rc.Reg() != rr {
        utils.Fatalf("ralloc", "return register %s unavailable", self.tg.RegName(rr))
    }

    /* the value is in the return register */
    self.fn.Arena.At(p).Rall = rr
    return rc
}
