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
    `sort`

    `github.com/cNoNim/pcc/internal/ir`
    `github.com/oleiade/lane`
)

type _PhiDesc struct {
    t  int
    ty ir.Type
    b  []*BasicBlock
}

// defines returns the temporary assigned by statement r, or 0.
func (self *CFG) defines(r *ir.Record) (int, ir.Type) {
    if r.Kind != ir.IP_node {
        return 0, 0
    }

    /* only ASSIGN(TEMP, ...) defines a variable */
    nd := self.Fn.Arena.At(r.Node)
    if nd.Op != ir.OP_assign {
        return 0, 0
    }

    /* check for the destination */
    if lv := self.Fn.Arena.At(nd.Left); lv.Op != ir.OP_temp {
        return 0, 0
    } else {
        return lv.Rval, lv.Type
    }
}

// PlacePhis inserts the phi nodes of every temporary at the iterated
// dominance frontier of its definition sites. Frontiers must have been
// computed. It returns the number of phi nodes inserted.
func (self *CFG) PlacePhis() int {
    n := 0
    orig := make(map[int]map[int]bool)
    defs := make(map[int]*_PhiDesc)

    /* clear the previous placement */
    for _, bb := range self.Blocks {
        bb.Phi = bb.Phi[:0]
    }

    /* mark all the definition sites */
    for _, bb := range self.Reachable() {
        bb.Records(func(r *ir.Record) {
            if t, ty := self.defines(r); t != 0 {
                if orig[bb.Id] == nil {
                    orig[bb.Id] = make(map[int]bool)
                }
                if !orig[bb.Id][t] {
                    orig[bb.Id][t] = true
                    if defs[t] == nil { defs[t] = &_PhiDesc{t: t, ty: ty} }
                    defs[t].b = append(defs[t].b, bb)
                }
            }
        })
    }

    /* sort the variables by temporary number */
    pd := make([]*_PhiDesc, 0, len(defs))
    for _, v := range defs {
        pd = append(pd, v)
    }
    sort.Slice(pd, func(i int, j int) bool {
        return pd[i].t < pd[j].t
    })

    /* insert Phi node for every variable */
    for _, p := range pd {
        q := lane.NewQueue()
        phi := NewBitSet(len(self.ids))

        /* seed with the definition sites */
        for _, bb := range p.b {
            q.Enqueue(bb)
        }

        /* propagate through the frontiers */
        for !q.Empty() {
            d := q.Dequeue().(*BasicBlock)
            d.DF.ForEach(func(i int) {
                if phi.Has(i) {
                    return
                }

                /* mark as processed */
                y := self.ids[i]
                phi.Set(i)

                /* one argument per predecessor */
                args := make([]int, len(y.Pred))
                for k := range args {
                    args[k] = p.t
                }

                /* insert a new Phi node */
                n++
                y.Phi = append(y.Phi, &Phi {
                    Temp : p.t,
                    Type : p.ty,
                    Args : args,
                })

                /* a node may contain both an ordinary definition and a
                 * Phi node for the same variable */
                if !orig[y.Id][p.t] {
                    q.Enqueue(y)
                }
            })
        }
    }
    return n
}
