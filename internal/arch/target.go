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

package arch

import (
    `fmt`
    `strings`

    `github.com/cNoNim/pcc/internal/ir`
)

// Class is the register class of a physical register.
type Class uint8

const (
    C_none Class = iota     // reserved, never allocated
    C_areg
    C_breg
)

func (self Class) String() string {
    switch self {
        case C_none : return "none"
        case C_areg : return "A"
        case C_breg : return "B"
        default     : return "???"
    }
}

type Register struct {
    Name  fmt.Stringer
    Class Class
    Temp  bool      // may hold temporaries
    Byte  bool      // has byte-sized sub-registers
}

// Target describes the register file of a machine.
type Target struct {
    Name   string
    Regs   []Register
    RetReg int
    FP     int
    Word   int      // bytes per register
    Wide   bool     // 64-bit integers fit in one register
}

// Words returns how many registers a value of type t occupies.
func (self *Target) Words(t ir.Type) int {
    if t.Is64() && !self.Wide {
        return 2
    } else {
        return 1
    }
}

func (self *Target) Size(t ir.Type) int64 {
    return int64(self.Words(t) * self.Word)
}

// MayUse reports whether register r can hold a value of type t.
func (self *Target) MayUse(r int, t ir.Type) bool {
    return r >= 0 && r < len(self.Regs) && (!t.IsByte() || self.Regs[r].Byte)
}

func (self *Target) IsTemp(r int) bool {
    return r >= 0 && r < len(self.Regs) && self.Regs[r].Temp
}

func (self *Target) ClassOf(r int) Class {
    if r < 0 || r >= len(self.Regs) {
        return C_none
    } else {
        return self.Regs[r].Class
    }
}

// Allocatable lists the temp registers of class c in index order.
func (self *Target) Allocatable(c Class) []int {
    ret := make([]int, 0, len(self.Regs))
    for i, r := range self.Regs {
        if r.Temp && r.Class == c {
            ret = append(ret, i)
        }
    }
    return ret
}

// Fregs is the number of allocatable class-A registers.
func (self *Target) Fregs() int {
    return len(self.Allocatable(C_areg))
}

// Limit returns a copy of the target that exposes only n class-A temp
// registers; the return register is always among them. The others become
// register variables, visible but never allocated.
func (self *Target) Limit(n int) *Target {
    if n <= 0 {
        panic("arch: register limit must be positive")
    }

    /* copy the register file */
    ret := *self
    ret.Regs = append([]Register(nil), self.Regs...)
    ret.Name = fmt.Sprintf("%s/%d", self.Name, n)

    /* the return register is always kept */
    if self.Regs[self.RetReg].Class == C_areg && self.Regs[self.RetReg].Temp {
        n--
    }

    /* take out the remaining class-A registers */
    for i := range ret.Regs {
        if r := &ret.Regs[i]; r.Class == C_areg && r.Temp && i != self.RetReg {
            if n > 0 {
                n--
            } else {
                r.Temp = false
            }
        }
    }
    return &ret
}

func (self *Target) RegName(r int) string {
    if r < 0 || r >= len(self.Regs) {
        return fmt.Sprintf("r%d?", r)
    } else {
        return strings.ToLower(self.Regs[r].Name.String())
    }
}

func (self *Target) Lookup(name string) (int, bool) {
    for i, r := range self.Regs {
        if strings.EqualFold(r.Name.String(), name) {
            return i, true
        }
    }
    return -1, false
}

var _Targets = map[string]func() *Target {
    "i386"  : I386,
    "amd64" : AMD64,
}

// ByName returns a fresh target by its name.
func ByName(name string) (*Target, bool) {
    if fn, ok := _Targets[name]; !ok {
        return nil, false
    } else {
        return fn(), true
    }
}
