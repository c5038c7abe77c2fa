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
    `gonum.org/v1/gonum/graph/flow`
    `gonum.org/v1/gonum/graph/simple`

    `github.com/cNoNim/pcc/internal/utils`
)

// Graph exports the reachable part of the CFG as a gonum graph, node IDs are
// block IDs.
func (self *CFG) Graph() *simple.DirectedGraph {
    g := simple.NewDirectedGraph()

    /* add all the reachable blocks */
    for _, bb := range self.Reachable() {
        g.AddNode(simple.Node(bb.Id))
    }

    /* add the edges, self loops never affect dominance */
    for _, bb := range self.Reachable() {
        for _, p := range bb.Succ {
            if p != bb && p.Reachable() {
                g.SetEdge(g.NewEdge(simple.Node(bb.Id), simple.Node(p.Id)))
            }
        }
    }
    return g
}

// Verify cross-checks the immediate dominators against gonum's dominator
// tree and panics on the first mismatch.
func (self *CFG) Verify() {
    dt := flow.Dominators(simple.Node(self.Entry.Id), self.Graph())

    /* check every reachable block */
    for _, bb := range self.Reachable() {
        want := -1
        have := -1

        /* the entry has no dominator */
        if d := dt.DominatorOf(int64(bb.Id)); d != nil {
            want = int(d.ID())
        }
        if bb.Idom != nil {
            have = bb.Idom.Id
        }

        /* must be the same */
        if want != have {
            utils.Fatalf("ssa", "bb_%d: immediate dominator is bb_%d, expected bb_%d", bb.Id, have, want)
        }
    }
}
