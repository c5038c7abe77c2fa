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
    `github.com/cNoNim/pcc/internal/ir`
)

// RemoveUnreachable deletes every block the entry cannot reach, together with
// its records. The epilogue always stays; when unreachable, its return label
// is cleared to 0. It must run after Number and returns the number of blocks
// deleted.
func (self *CFG) RemoveUnreachable() int {
    n := 0
    bbs := self.Blocks[:0]

    /* scan every block */
    for _, bb := range self.Blocks {
        if bb.Reachable() {
            bbs = append(bbs, bb)
            continue
        }

        /* cut the outgoing edges */
        for len(bb.Succ) != 0 {
            bb.unlink(bb.Succ[0])
        }

        /* the epilogue stays with a sentinel label */
        if bb == self.Exit {
            bbs = append(bbs, bb)
            self.sentinel(bb)
            continue
        }

        /* delete the block and its records */
        n++
        self.drop(bb)
    }

    /* update the block list */
    for i := len(bbs); i < len(self.Blocks); i++ {
        self.Blocks[i] = nil
    }

    /* unreachable predecessors are gone */
    self.Blocks = bbs
    return n
}

func (self *CFG) sentinel(bb *BasicBlock) {
    delete(self.labels, bb.Last.Label)
    bb.Last.Label = 0
}

func (self *CFG) drop(bb *BasicBlock) {
    if bb.Label != 0 {
        delete(self.labels, bb.Label)
    }

    /* release every record */
    bb.Records(func(r *ir.Record) {
        self.Fn.Free(r)
    })

    /* forget the block */
    self.ids[bb.Id] = nil
    bb.First, bb.Last = nil, nil
}
