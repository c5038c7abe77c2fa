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

package jumps

import (
    `sync/atomic`

    `github.com/cNoNim/pcc/internal/ir`
)

var (
    JumpCount  uint64 = 0
    LabelCount uint64 = 0
    DeadCount  uint64 = 0
)

type _Simplifier struct {
    fn   *ir.Function
    refs map[int]int
    name map[int]int
}

// Simplify removes redundant jumps and labels from fn and the code that can
// never be reached after an unconditional jump. It repeats until nothing
// changes and returns the number of records deleted.
func Simplify(fn *ir.Function) int {
    n := 0
    s := _Simplifier {
        fn   : fn,
        refs : make(map[int]int),
        name : make(map[int]int),
    }

    /* run to a fixpoint */
    for {
        m := 0
        m += s.chains()
        m += s.unreferenced()
        m += s.jumps()
        m += s.dead()

        /* nothing left to do */
        if m == 0 {
            return n
        } else {
            n += m
        }
    }
}

// next skips the records that do not occupy any code.
func next(p *ir.Record) *ir.Record {
    for p = p.Next; p != nil && p.Kind == ir.IP_stkoff; p = p.Next {}
    return p
}

func (self *_Simplifier) op(p *ir.Record) ir.Op {
    if p.Kind != ir.IP_node {
        return ir.OP_nil
    } else {
        return self.fn.Arena.At(p.Node).Op
    }
}

func (self *_Simplifier) remove(p *ir.Record) {
    self.fn.Free(p)
}

// chains merges every run of adjacent labels into its first label.
func (self *_Simplifier) chains() int {
    n := 0
    fn := self.fn

    /* find the chained labels */
    for p := fn.Records.Front(); p != nil; p = p.Next {
        if p.Kind != ir.IP_deflab {
            continue
        }

        /* remove the followers */
        for q := next(p); q != nil && q.Kind == ir.IP_deflab; q = next(p) {
            n++
            self.name[q.Label] = p.Label
            self.remove(q)
        }
    }

    /* no labels were merged */
    if n == 0 {
        return 0
    }

    /* rename the references */
    for p := fn.Records.Front(); p != nil; p = p.Next {
        if p.Kind == ir.IP_node {
            if lb, ok := fn.Target(p.Node); ok {
                if to, ok := self.name[lb]; ok {
                    fn.Retarget(p.Node, to)
                }
            }
        }
    }

    /* clear the renaming table */
    for k := range self.name {
        delete(self.name, k)
    }

    /* update the statistics */
    atomic.AddUint64(&LabelCount, uint64(n))
    return n
}

// unreferenced deletes the labels no jump refers to.
func (self *_Simplifier) unreferenced() int {
    n := 0
    fn := self.fn

    /* clear the reference counters */
    for k := range self.refs {
        delete(self.refs, k)
    }

    /* count the references */
    for p := fn.Records.Front(); p != nil; p = p.Next {
        if p.Kind == ir.IP_node {
            if lb, ok := fn.Target(p.Node); ok {
                self.refs[lb]++
            }
        }
    }

    /* delete the labels without references */
    for p := fn.Records.Front(); p != nil; {
        q := p.Next
        if p.Kind == ir.IP_deflab && self.refs[p.Label] == 0 {
            n++
            self.remove(p)
        }
        p = q
    }

    /* update the statistics */
    atomic.AddUint64(&LabelCount, uint64(n))
    return n
}

// jumps deletes the jumps to the label that immediately follows them.
func (self *_Simplifier) jumps() int {
    n := 0
    fn := self.fn

    /* scan every jump */
    for p := fn.Records.Front(); p != nil; {
        q := p.Next
        lb, ok := 0, false

        /* must be a constant jump */
        if p.Kind == ir.IP_node {
            lb, ok = fn.Target(p.Node)
        }

        /* the condition of a conditional jump may still be needed */
        if ok && self.op(p) == ir.OP_cbranch {
            ok = !fn.Arena.HasEffect(fn.Arena.At(p.Node).Left)
        }

        /* the return label precedes the epilogue */
        if ok {
            if x := next(p); x != nil && (x.Kind == ir.IP_deflab || x.Kind == ir.IP_epilog) && x.Label == lb {
                n++
                self.remove(p)
            }
        }

        /* move to the next record */
        p = q
    }

    /* update the statistics */
    atomic.AddUint64(&JumpCount, uint64(n))
    return n
}

// dead deletes the statements between an unconditional jump and the next
// label, which no control flow can reach.
func (self *_Simplifier) dead() int {
    n := 0
    fn := self.fn

    /* scan every unconditional jump */
    for p := fn.Records.Front(); p != nil; p = p.Next {
        if op := self.op(p); op != ir.OP_goto && op != ir.OP_return {
            continue
        }

        /* delete up to the next entry point */
        for q := p.Next; q != nil && !entry(q); {
            r := q.Next
            if q.Kind == ir.IP_node {
                n++
                self.remove(q)
            }
            q = r
        }
    }

    /* update the statistics */
    atomic.AddUint64(&DeadCount, uint64(n))
    return n
}

func entry(p *ir.Record) bool {
    switch p.Kind {
        case ir.IP_deflab : return true
        case ir.IP_defnam : return true
        case ir.IP_epilog : return true
        default           : return false
    }
}
