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
    `sync/atomic`

    `github.com/cNoNim/pcc/internal/arch`
    `github.com/cNoNim/pcc/internal/ir`
)

var (
    StoreCount uint64 = 0
)

// Store moves the child s of p into a fresh frame slot. The child is replaced
// by a reference to the slot and the returned ASSIGN tree, which the caller
// owns, computes the old subtree into it.
func Store(fn *ir.Function, tg *arch.Target, p ir.Ref, s ir.Side) ir.Ref {
    a := fn.Arena
    t := a.At(a.Child(p, s)).Type
    off := fn.Slot(tg.Size(t))

    /* swap the subtree out, clearing stale annotations */
    sub := a.Detach(p, s, a.Leaf(ir.OP_oreg, t, off, "", tg.FP))
    a.Reset(sub)

    /* the store itself */
    atomic.AddUint64(&StoreCount, 1)
    return a.Binary(ir.OP_assign, t, a.Leaf(ir.OP_oreg, t, off, "", tg.FP), sub)
}

// DelTemps gives every TEMP of fn its own frame slot.
func DelTemps(fn *ir.Function, tg *arch.Target) {
    slots := make(map[int]int64)
    for p := fn.Records.Front(); p != nil; p = p.Next {
        if p.Kind == ir.IP_node {
            fn.Arena.Walk(p.Node, func(r ir.Ref) {
                var ok  bool
                var off int64

                /* only temporaries */
                n := fn.Arena.At(r)
                if n.Op != ir.OP_temp {
                    return
                }

                /* allocate the slot on first sight */
                if off, ok = slots[n.Rval]; !ok {
                    off = fn.Slot(tg.Size(n.Type))
                    slots[n.Rval] = off
                }

                /* rewrite the leaf */
                n.Op = ir.OP_oreg
                n.Lval = off
                n.Rval = tg.FP
            })
        }
    }
}
