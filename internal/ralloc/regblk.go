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
    `fmt`

    `github.com/cNoNim/pcc/internal/arch`
    `github.com/cNoNim/pcc/internal/ir`
    `github.com/cNoNim/pcc/internal/utils`
)

// Code is a block of consecutive registers: the first register in the low
// byte, the count in the high byte. The zero Code holds nothing.
type Code uint16

func MkCode(reg int, n int) Code {
    return Code(reg & 0xff) | Code(n & 0xff) << 8
}

func (self Code) Reg() int {
    if self.Size() == 0 {
        return ir.NoReg
    } else {
        return int(self & 0xff)
    }
}

func (self Code) Size() int {
    return int(self >> 8)
}

func (self Code) String() string {
    if self.Size() == 0 {
        return "{}"
    } else {
        return fmt.Sprintf("{r%d+%d}", self.Reg(), self.Size())
    }
}

type _RegBlock struct {
    tg       *arch.Target
    used     []bool
    acquires int
    releases int
}

func (self *_RegBlock) reset(tg *arch.Target) {
    self.tg = tg
    self.acquires = 0
    self.releases = 0
    self.used = make([]bool, len(tg.Regs))
}

func (self *_RegBlock) isfree(w int, n int, cls arch.Class, t ir.Type) bool {
    if w < 0 || w + n > len(self.used) {
        return false
    }

    /* every register of the block must be usable and free */
    for i := w; i < w + n; i++ {
        if !self.tg.IsTemp(i) || self.tg.ClassOf(i) != cls || !self.tg.MayUse(i, t) || self.used[i] {
            return false
        }
    }
    return true
}

func (self *_RegBlock) findfree(n int, cls arch.Class, t ir.Type) int {
    for i := 0; i + n <= len(self.used); i++ {
        if self.isfree(i, n, cls, t) {
            return i
        }
    }
    return -1
}

func (self *_RegBlock) setused(w int, n int) {
    if w < 0 || w + n > len(self.used) {
        utils.Fatalf("ralloc", "setused on register %d size %d", w, n)
    }
    for i := w; i < w + n; i++ {
        if self.used[i] {
            utils.Fatalf("ralloc", "setused on used register %s", self.tg.RegName(i))
        }
        self.used[i] = true
        self.acquires++
    }
}

// getregs allocates n consecutive registers of class cls for a value of type
// t, at want when possible.
func (self *_RegBlock) getregs(want int, n int, cls arch.Class, t ir.Type) Code {
    if want == ir.NoReg || !self.isfree(want, n, cls, t) {
        if want = self.findfree(n, cls, t); want < 0 {
            utils.Fatalf("ralloc", "cannot allocate %d registers of class %s for %s", n, cls, t)
        }
    }
    self.setused(want, n)
    return MkCode(want, n)
}

func (self *_RegBlock) freeregs(c Code) {
    for i := c.Reg(); i < c.Reg() + c.Size(); i++ {
        if !self.used[i] {
            utils.Fatalf("ralloc", "freeing free register %s", self.tg.RegName(i))
        }
        self.used[i] = false
        self.releases++
    }
}

// check verifies that every register acquired has been released.
func (self *_RegBlock) check() {
    for i, u := range self.used {
        if u {
            panic(utils.ELostRegister("ralloc", self.tg.RegName(i)))
        }
    }
    if self.acquires != self.releases {
        utils.Fatalf("ralloc", "%d registers acquired but %d released", self.acquires, self.releases)
    }
}
