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

package table

import (
    `fmt`
    `strings`

    `github.com/cNoNim/pcc/internal/ir`
)

// Cookie is the form of result a parent asks for.
type Cookie uint8

const (
    FOREFF Cookie = 1 << iota   // for side effects only
    INTAREG                     // into a class-A register
    INTBREG                     // into a class-B register
    FORCC                       // into the condition codes
)

func (self Cookie) String() string {
    var v []string
    if self & FOREFF  != 0 { v = append(v, "FOREFF") }
    if self & INTAREG != 0 { v = append(v, "INTAREG") }
    if self & INTBREG != 0 { v = append(v, "INTBREG") }
    if self & FORCC   != 0 { v = append(v, "FORCC") }
    if len(v) == 0 {
        return "0"
    } else {
        return strings.Join(v, "|")
    }
}

// Shape is a set of operand forms an entry accepts.
type Shape uint16

const (
    SAREG Shape = 1 << iota     // any class-A register
    STAREG                      // class-A temp register
    SBREG
    STBREG
    SCON                        // constant
    SNAME                       // named memory
    SOREG                       // register-offset memory
    SCC                         // condition codes
    SANY                        // anything, never evaluated
)

// TypeMask is a set of types.
type TypeMask uint16

const (
    TCHAR TypeMask = 1 << iota
    TUCHAR
    TSHORT
    TUSHORT
    TINT
    TUNSIGNED
    TLONG
    TULONG
    TLONGLONG
    TULONGLONG
    TPOINT
)

const (
    TWORD = TINT | TUNSIGNED | TLONG | TULONG | TPOINT
    TLL   = TLONGLONG | TULONGLONG
    TANY  = TypeMask(1 << 11) - 1
)

func MaskOf(t ir.Type) TypeMask {
    if t.IsPtr() {
        return TPOINT
    }
    switch t.Kind() {
        case ir.T_char      : return TCHAR
        case ir.T_uchar     : return TUCHAR
        case ir.T_short     : return TSHORT
        case ir.T_ushort    : return TUSHORT
        case ir.T_int       : return TINT
        case ir.T_unsigned  : return TUNSIGNED
        case ir.T_long      : return TLONG
        case ir.T_ulong     : return TULONG
        case ir.T_longlong  : return TLONGLONG
        case ir.T_ulonglong : return TULONGLONG
        default             : return 0
    }
}

// Needs encodes the extra registers an instruction requires.
type Needs uint8

const (
    NAREG    Needs = 0x01
    NACOUNT  Needs = 0x03
    NBREG    Needs = 0x04
    NBCOUNT  Needs = 0x0c
    NASL     Needs = 0x10       // a need register may be the left register
    NASR     Needs = 0x20       // a need register may be the right register
    NSPECIAL Needs = 0x40
)

// Rewrite tells where the result of an instruction ends up.
type Rewrite uint8

const (
    RNULL  Rewrite = 0
    RLEFT  Rewrite = 1 << (iota - 1)
    RRIGHT
    RESC1
    RESC2
    RESC3
    RESCC
    RNOP
)

const (
    RESC = RESC1 | RESC2 | RESC3
)

// Operator classes that may appear in Entry.Op.
const (
    OPSIMP ir.Op = 0xf0 + iota
    OPLOG
    OPLTYPE
    OPANY
)

type Operand struct {
    Shape Shape
    Type  TypeMask
}

type Entry struct {
    Op      ir.Op
    Visit   Cookie
    Left    Operand
    Right   Operand
    Result  TypeMask
    Needs   Needs
    Rewrite Rewrite
    Asm     string
}

func (self *Entry) ARegs() int  { return int(self.Needs & NACOUNT) }
func (self *Entry) BRegs() int  { return int(self.Needs & NBCOUNT) >> 2 }
func (self *Entry) ShareL() bool { return self.Needs & NASL != 0 }
func (self *Entry) ShareR() bool { return self.Needs & NASR != 0 }

func (self *Entry) String() string {
    return fmt.Sprintf("%s %s %q", opName(self.Op), self.Visit, self.Asm)
}

func opName(op ir.Op) string {
    switch op {
        case OPSIMP  : return "OPSIMP"
        case OPLOG   : return "OPLOG"
        case OPLTYPE : return "OPLTYPE"
        case OPANY   : return "OPANY"
        default      : return op.String()
    }
}

func opMatch(tab ir.Op, op ir.Op) bool {
    switch tab {
        case OPANY   : return true
        case OPSIMP  : return op.IsSimple()
        case OPLOG   : return op.IsLogic()
        case OPLTYPE : return op == ir.OP_name || op == ir.OP_icon || op == ir.OP_reg || op == ir.OP_oreg || op == ir.OP_temp
        default      : return tab == op
    }
}

// Table is an instruction table. Entries are searched in order.
type Table struct {
    Name    string
    entries []Entry
    move    int
}

func New(name string, entries []Entry) *Table {
    ret := &Table {
        Name    : name,
        entries : entries,
        move    : -1,
    }

    /* locate the register move */
    for i := range entries {
        if entries[i].Op == ir.OP_move {
            ret.move = i
            break
        }
    }

    /* every table must be able to copy registers */
    if ret.move < 0 {
        panic("table: " + name + " has no register move")
    }
    return ret
}

func (self *Table) Len() int {
    return len(self.entries)
}

func (self *Table) At(i int) *Entry {
    if i < 0 || i >= len(self.entries) {
        panic(fmt.Sprintf("table: invalid entry index %d", i))
    } else {
        return &self.entries[i]
    }
}

// Move returns the index of the register to register move.
func (self *Table) Move() int {
    return self.move
}

// Find returns the first entry for exactly op accepting cookie, or -1.
func (self *Table) Find(op ir.Op, cookie Cookie) int {
    for i := range self.entries {
        if e := &self.entries[i]; e.Op == op && e.Visit & cookie != 0 {
            return i
        }
    }
    return -1
}

// Lookup returns the cheapest entry that implements op on type t for cookie.
// The fits callback prices an entry, returning false when the operands cannot
// be made to fit. Ties go to the first entry. The result is -1 when nothing
// matches.
func (self *Table) Lookup(op ir.Op, t ir.Type, cookie Cookie, fits func(e *Entry) (int, bool)) int {
    ret := -1
    min := 0
    msk := MaskOf(t)

    /* scan every candidate */
    for i := range self.entries {
        e := &self.entries[i]

        /* operator, cookie and result type must match */
        if !opMatch(e.Op, op) || e.Visit & cookie == 0 || (e.Result != 0 && e.Result & msk == 0) {
            continue
        }

        /* price the operands */
        if cost, ok := fits(e); ok && (ret < 0 || cost < min) {
            ret, min = i, cost
        }
    }
    return ret
}
