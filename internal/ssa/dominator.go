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

/** This is an implementation of the Lengauer-Tarjan algorithm described in
 *  https://doi.org/10.1145%2F357062.357071, with the path compression and
 *  the deferred "same dominator" resolution of Appel's formulation.
 */

package ssa

import (
    `github.com/oleiade/lane`
)

type _DfsFrame struct {
    bb *BasicBlock
    it int
}

// Number assigns depth-first numbers from the entry block. Unreachable blocks
// keep number 0 and Vertex maps numbers back to blocks (Vertex[0] is unused).
func (self *CFG) Number() {
    st := lane.NewStack()
    self.Vertex = append(self.Vertex[:0], nil)

    /* reset the previous numbering */
    for _, bb := range self.Blocks {
        bb.Dfnum = 0
        bb.parent = nil
    }

    /* visit the entry block */
    self.visit(self.Entry)
    st.Push(&_DfsFrame{bb: self.Entry})

    /* iterative pre-order DFS */
    for !st.Empty() {
        fp := st.Head().(*_DfsFrame)
        nb := len(fp.bb.Succ)

        /* find the next unvisited successor */
        for fp.it < nb && fp.bb.Succ[fp.it].Dfnum != 0 {
            fp.it++
        }

        /* all the successors are visited, pop the current node */
        if fp.it == nb {
            st.Pop()
            continue
        }

        /* descend into the successor */
        bb := fp.bb.Succ[fp.it]
        bb.parent = fp.bb
        self.visit(bb)
        st.Push(&_DfsFrame{bb: bb})
    }
}

func (self *CFG) visit(bb *BasicBlock) {
    bb.Dfnum = len(self.Vertex)
    self.Vertex = append(self.Vertex, bb)
}

type _LengauerTarjan struct {
    semi     []int
    best     []int
    parent   []int
    ancestor []int
    idom     []int
    samedom  []int
    bucket   [][]int
}

func newLengauerTarjan(n int) *_LengauerTarjan {
    return &_LengauerTarjan {
        semi     : make([]int, n),
        best     : make([]int, n),
        parent   : make([]int, n),
        ancestor : make([]int, n),
        idom     : make([]int, n),
        samedom  : make([]int, n),
        bucket   : make([][]int, n),
    }
}

// eval returns the ancestor of v with the lowest semidominator, compressing
// the path to the forest root on the way.
func (self *_LengauerTarjan) eval(v int) int {
    if a := self.ancestor[v]; self.ancestor[a] != 0 {
        b := self.eval(a)
        self.ancestor[v] = self.ancestor[a]
        if self.semi[b] < self.semi[self.best[v]] {
            self.best[v] = b
        }
    }
    return self.best[v]
}

func (self *_LengauerTarjan) link(p int, n int) {
    self.ancestor[n] = p
    self.best[n] = n
}

// Dominators numbers the blocks, removes the unreachable ones and computes
// the immediate dominators and the dominator tree.
func (self *CFG) Dominators() {
    self.Number()
    self.RemoveUnreachable()
    self.semidominators()
}

func (self *CFG) semidominators() {
    n := len(self.Vertex)
    lt := newLengauerTarjan(n)

    /* Step 1: the depth-first numbering is already done */
    for i := 2; i < n; i++ {
        lt.semi[i] = i
        lt.parent[i] = self.Vertex[i].parent.Dfnum
    }

    /* Step 2 and Step 3 in decreasing order of numbers */
    for i := n - 1; i >= 2; i-- {
        p := lt.parent[i]
        s := p

        /* compute the semidominator */
        for _, v := range self.Vertex[i].Pred {
            var x int
            var d int

            /* unreachable predecessors are gone already */
            if d = v.Dfnum; d == 0 {
                continue
            }

            /* semidominator candidate */
            if d <= i {
                x = d
            } else {
                x = lt.semi[lt.eval(d)]
            }

            /* keep the lowest one */
            if x < s {
                s = x
            }
        }

        /* defer the dominator until the path from s to i is linked */
        lt.semi[i] = s
        lt.bucket[s] = append(lt.bucket[s], i)
        lt.link(p, i)

        /* implicitly define the immediate dominators */
        for _, v := range lt.bucket[p] {
            if y := lt.eval(v); lt.semi[y] == lt.semi[v] {
                lt.idom[v] = p
            } else {
                lt.samedom[v] = y
            }
        }

        /* clear the bucket */
        lt.bucket[p] = nil
    }

    /* Step 4: resolve the deferred dominators in increasing order */
    for i := 2; i < n; i++ {
        if lt.samedom[i] != 0 {
            lt.idom[i] = lt.idom[lt.samedom[i]]
        }
    }

    /* reset the dominator tree */
    for _, bb := range self.Blocks {
        bb.Dtree = NewBitSet(len(self.ids))
        bb.Idom = nil
    }

    /* map the dominator relations */
    for i := 2; i < n; i++ {
        bb := self.Vertex[i]
        bb.Idom = self.Vertex[lt.idom[i]]
        bb.Idom.Dtree.Set(bb.Id)
    }
}

// Dominates reports whether every path from the entry to b passes through a.
func (self *CFG) Dominates(a *BasicBlock, b *BasicBlock) bool {
    if !a.Reachable() || !b.Reachable() {
        return false
    }
    for b != nil && b != a {
        b = b.Idom
    }
    return b == a
}

func (self *CFG) StrictlyDominates(a *BasicBlock, b *BasicBlock) bool {
    return a != b && self.Dominates(a, b)
}

// Children returns the blocks immediately dominated by bb.
func (self *CFG) Children(bb *BasicBlock) []*BasicBlock {
    ret := make([]*BasicBlock, 0, bb.Dtree.Count())
    bb.Dtree.ForEach(func(i int) { ret = append(ret, self.ids[i]) })
    return ret
}
