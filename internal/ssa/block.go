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

package ssa

import (
    `fmt`
    `strings`

    `github.com/cNoNim/pcc/internal/ir`
)

// Phi is a merge of the incoming versions of one temporary. Args has one slot
// per predecessor, in the order of the block's Pred list.
type Phi struct {
    Temp int
    Type ir.Type
    Args []int
}

func (self *Phi) String() string {
    args := make([]string, len(self.Args))
    for i, v := range self.Args {
        args[i] = fmt.Sprintf("t%d", v)
    }
    return fmt.Sprintf("t%d = phi(%s)", self.Temp, strings.Join(args, ", "))
}

type BasicBlock struct {
    Id     int
    Label  int
    First  *ir.Record
    Last   *ir.Record
    Pred   []*BasicBlock
    Succ   []*BasicBlock
    Phi    []*Phi
    Dfnum  int
    Idom   *BasicBlock
    Dtree  BitSet
    DF     BitSet
    parent *BasicBlock
}

// Records calls fn for every record of the block, in stream order. fn may
// free the record it is given.
func (self *BasicBlock) Records(fn func(r *ir.Record)) {
    for p := self.First; p != nil; {
        q := p.Next
        fn(p)
        if p == self.Last {
            break
        }
        p = q
    }
}

func (self *BasicBlock) Reachable() bool {
    return self.Dfnum != 0
}

func (self *BasicBlock) hasSucc(bb *BasicBlock) bool {
    for _, p := range self.Succ {
        if p == bb {
            return true
        }
    }
    return false
}

func (self *BasicBlock) link(to *BasicBlock) {
    if !self.hasSucc(to) {
        self.Succ = append(self.Succ, to)
        to.Pred = append(to.Pred, self)
    }
}

func removeBlock(bbs []*BasicBlock, bb *BasicBlock) []*BasicBlock {
    for i, p := range bbs {
        if p == bb {
            return append(bbs[:i], bbs[i + 1:]...)
        }
    }
    return bbs
}

func (self *BasicBlock) unlink(to *BasicBlock) {
    self.Succ = removeBlock(self.Succ, to)
    to.Pred = removeBlock(to.Pred, self)
}

func blockIds(bbs []*BasicBlock) string {
    ss := make([]string, len(bbs))
    for i, p := range bbs {
        ss[i] = fmt.Sprintf("bb_%d", p.Id)
    }
    return "{" + strings.Join(ss, ", ") + "}"
}

func (self *BasicBlock) String() string {
    var sb strings.Builder
    fmt.Fprintf(&sb, "bb_%d:", self.Id)

    /* graph metadata */
    fmt.Fprintf(&sb, " pred = %s, succ = %s", blockIds(self.Pred), blockIds(self.Succ))
    if self.Idom != nil {
        fmt.Fprintf(&sb, ", idom = bb_%d", self.Idom.Id)
    }
    if self.DF != nil {
        fmt.Fprintf(&sb, ", df = %s", self.DF)
    }

    /* phi nodes */
    for _, p := range self.Phi {
        sb.WriteString("\n\t")
        sb.WriteString(p.String())
    }
    return sb.String()
}
