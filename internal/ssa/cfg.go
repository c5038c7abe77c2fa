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
    `strings`

    `github.com/cNoNim/pcc/internal/ir`
    `github.com/cNoNim/pcc/internal/utils`
)

// CFG is the control flow graph of one function. Blocks are kept in stream
// order, Entry holds the prologue and Exit the epilogue.
type CFG struct {
    Fn     *ir.Function
    Entry  *BasicBlock
    Exit   *BasicBlock
    Blocks []*BasicBlock
    Vertex []*BasicBlock
    ids    []*BasicBlock
    labels map[int]*BasicBlock
}

type _GraphBuilder struct {
    cfg *CFG
    cur *BasicBlock
}

// Build splits fn into basic blocks and links them. It returns false when the
// function contains inline assembly, which the SSA passes cannot see through.
func Build(fn *ir.Function) (*CFG, bool) {
    gb := _GraphBuilder {
        cfg: &CFG {
            Fn     : fn,
            labels : make(map[int]*BasicBlock),
        },
    }

    /* split the stream */
    for p := fn.Records.Front(); p != nil; p = p.Next {
        if p.Kind == ir.IP_asm {
            return nil, false
        } else {
            gb.record(p)
        }
    }

    /* both ends are mandatory */
    if gb.cfg.Entry == nil {
        utils.Fatalf("ssa", "function %s has no prologue", fn.Name)
    }
    if gb.cfg.Exit == nil {
        utils.Fatalf("ssa", "function %s has no epilogue", fn.Name)
    }

    /* link the blocks */
    gb.edges()
    return gb.cfg, true
}

func (self *_GraphBuilder) block(p *ir.Record) *BasicBlock {
    bb := &BasicBlock {
        Id    : len(self.cfg.ids),
        First : p,
        Last  : p,
    }
    self.cfg.ids = append(self.cfg.ids, bb)
    self.cfg.Blocks = append(self.cfg.Blocks, bb)
    return bb
}

func (self *_GraphBuilder) append(p *ir.Record) {
    if self.cur == nil {
        self.cur = self.block(p)
    } else {
        self.cur.Last = p
    }
}

func (self *_GraphBuilder) record(p *ir.Record) {
    switch p.Kind {
        default: {
            utils.Fatalf("ssa", "unexpected %s record", p.Kind)
        }

        /* the prologue is a block of its own */
        case ir.IP_prolog: {
            if self.cfg.Entry != nil {
                utils.Fatalf("ssa", "duplicated prologue")
            }
            self.cur = nil
            self.cfg.Entry = self.block(p)
        }

        /* the epilogue starts a new block */
        case ir.IP_epilog: {
            self.cur = self.block(p)
            self.cfg.Exit = self.cur
            self.cfg.labels[p.Label] = self.cur
        }

        /* labels start a new block unless one was just started */
        case ir.IP_deflab, ir.IP_defnam: {
            if self.cur = nil; p.Kind == ir.IP_deflab {
                self.append(p)
                self.cur.Label = p.Label
                self.cfg.labels[p.Label] = self.cur
            } else {
                self.append(p)
            }
        }

        /* stack offsets do not affect control flow */
        case ir.IP_stkoff: {
            self.append(p)
        }

        /* statements, terminators close the current block */
        case ir.IP_node: {
            if self.append(p); self.terminates(p) {
                self.cur = nil
            }
        }
    }
}

func (self *_GraphBuilder) terminates(p *ir.Record) bool {
    fn := self.cfg.Fn
    nd := fn.Arena.At(p.Node)

    /* check for the statement kind */
    switch nd.Op {
        case ir.OP_return: {
            return true
        }

        /* computed jumps are never generated */
        case ir.OP_goto, ir.OP_cbranch: {
            if _, ok := fn.Target(p.Node); !ok {
                utils.Fatalf("ssa", "jump to non-label: %s", fn.Arena.Format(p.Node))
            }
            return true
        }

        /* these never appear as statements */
        case ir.OP_nil, ir.OP_phi: {
            utils.Fatalf("ssa", "invalid statement: %s", fn.Arena.Format(p.Node))
            return false
        }

        /* straight-line code */
        default: {
            return false
        }
    }
}

func (self *_GraphBuilder) target(p *ir.Record) *BasicBlock {
    lb, _ := self.cfg.Fn.Target(p.Node)
    bb, ok := self.cfg.labels[lb]

    /* the label must be defined in this function */
    if !ok {
        utils.Fatalf("ssa", "jump to undefined label L%d", lb)
    }
    return bb
}

func (self *_GraphBuilder) edges() {
    fn := self.cfg.Fn
    bbs := self.cfg.Blocks

    /* link every block according to its last record */
    for i, bb := range bbs {
        var nx *BasicBlock
        var nd *ir.Node

        /* the lexical successor, if any */
        if i != len(bbs) - 1 {
            nx = bbs[i + 1]
        }

        /* the epilogue leaves the function */
        if bb == self.cfg.Exit {
            continue
        }

        /* non-statements fall through */
        if bb.Last.Kind != ir.IP_node {
            if nx != nil {
                bb.link(nx)
            }
            continue
        }

        /* check for the terminator */
        switch nd = fn.Arena.At(bb.Last.Node); nd.Op {
            case ir.OP_return  : bb.link(self.cfg.Exit)
            case ir.OP_goto    : bb.link(self.target(bb.Last))
            case ir.OP_cbranch : bb.link(self.target(bb.Last)); if nx != nil { bb.link(nx) }
            default            : if nx != nil { bb.link(nx) }
        }
    }
}

// Block returns the block defined by label lb, or nil.
func (self *CFG) Block(lb int) *BasicBlock {
    return self.labels[lb]
}

// Lookup returns the block with the given ID, or nil when it was removed.
func (self *CFG) Lookup(id int) *BasicBlock {
    if id < 0 || id >= len(self.ids) {
        return nil
    } else {
        return self.ids[id]
    }
}

// Reachable returns the blocks reached from the entry, in depth-first order.
func (self *CFG) Reachable() []*BasicBlock {
    if len(self.Vertex) == 0 {
        return nil
    } else {
        return self.Vertex[1:]
    }
}

func (self *CFG) String() string {
    ss := make([]string, 0, len(self.Blocks))
    for _, bb := range self.Blocks {
        ss = append(ss, bb.String())
    }
    return strings.Join(ss, "\n")
}
