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
    `github.com/oleiade/lane`
)

// postorder returns the reachable blocks in post-order of the dominator tree.
func (self *CFG) postorder() []*BasicBlock {
    st := lane.NewStack()
    vis := NewBitSet(len(self.ids))
    ret := make([]*BasicBlock, 0, len(self.Vertex))

    /* start from the entry */
    st.Push(self.Entry)
    vis.Set(self.Entry.Id)

    /* children before parents */
    for !st.Empty() {
        tail := true
        this := st.Head().(*BasicBlock)

        /* push the first unvisited child */
        for _, p := range self.Children(this) {
            if !vis.Has(p.Id) {
                tail = false
                vis.Set(p.Id)
                st.Push(p)
                break
            }
        }

        /* all the children are visited, pop the current node */
        if tail {
            ret = append(ret, st.Pop().(*BasicBlock))
        }
    }
    return ret
}

// Frontiers computes the dominance frontier of every reachable block. It
// computes the dominators first when that has not been done yet.
func (self *CFG) Frontiers() {
    if len(self.Vertex) == 0 {
        self.Dominators()
    }

    /* reset the frontiers */
    for _, bb := range self.Blocks {
        bb.DF = NewBitSet(len(self.ids))
    }

    /* a block's frontier only depends on its subtree */
    for _, n := range self.postorder() {
        for _, y := range n.Succ {
            if y.Idom != n {
                n.DF.Set(y.Id)
            }
        }

        /* the frontiers of the children that n does not strictly dominate */
        for _, c := range self.Children(n) {
            c.DF.ForEach(func(i int) {
                if w := self.ids[i]; !self.StrictlyDominates(n, w) {
                    n.DF.Set(i)
                }
            })
        }
    }
}
