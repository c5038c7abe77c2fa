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

package coloring

import (
    `math`

    `gonum.org/v1/gonum/graph/simple`
)

const (
    _D_inf = math.MaxInt32
)

type _Node struct {
    link   _Link
    list   NodeList
    degree int
    alias  int
    color  int
    refs   int
    adj    []int
    moves  []int
}

type _Move struct {
    link _Link
    list MoveList
    src  int
    dst  int
}

func (self *Allocator) reset() {
    n := self.num.Len()
    k := self.num.K()

    /* clear the lists */
    for i := range self.lists  { self.lists[i] = _Head{first: _NIL} }
    for i := range self.mlists { self.mlists[i] = _Head{first: _NIL} }

    /* fresh graph */
    self.moves = self.moves[:0]
    self.graph = simple.NewUndirectedGraph()

    /* reuse the node buffer if possible */
    if cap(self.nodes) >= n {
        self.nodes = self.nodes[:n]
    } else {
        self.nodes = make([]_Node, n)
    }

    /* precolored nodes, then the temporaries */
    for i := range self.nodes {
        self.nodes[i] = _Node{alias: i, color: -1}
        self.graph.AddNode(simple.Node(i))
        if i < k {
            self.nodes[i].color = i
            self.nodes[i].degree = _D_inf
            self.push(i, L_precolored)
        } else {
            self.push(i, L_initial)
        }
    }
}

func (self *Allocator) precolored(u int) bool {
    return u < self.num.K()
}

func (self *Allocator) interferes(u int, v int) bool {
    return self.graph.HasEdgeBetween(int64(u), int64(v))
}

func (self *Allocator) addEdge(u int, v int) {
    if u == v || u < 0 || v < 0 || self.interferes(u, v) {
        return
    }

    /* edges between machine registers carry no information */
    if self.precolored(u) && self.precolored(v) {
        return
    }

    /* the adjacency set */
    self.graph.SetEdge(simple.Edge{F: simple.Node(u), T: simple.Node(v)})

    /* adjacency lists of the temporaries */
    if !self.precolored(u) {
        self.nodes[u].adj = append(self.nodes[u].adj, v)
        self.nodes[u].degree++
    }
    if !self.precolored(v) {
        self.nodes[v].adj = append(self.nodes[v].adj, u)
        self.nodes[v].degree++
    }
}

func (self *Allocator) addMove(src int, dst int) {
    if src < 0 || dst < 0 || src == dst || (self.precolored(src) && self.precolored(dst)) {
        return
    }

    /* create the move */
    m := len(self.moves)
    self.moves = append(self.moves, _Move{src: src, dst: dst})
    self.mpush(m, M_worklist)

    /* both ends know about it */
    self.nodes[src].moves = append(self.nodes[src].moves, m)
    self.nodes[dst].moves = append(self.nodes[dst].moves, m)
}

// adjacent lists the neighbours of u still in the graph.
func (self *Allocator) adjacent(u int) []int {
    ret := make([]int, 0, len(self.nodes[u].adj))
    for _, v := range self.nodes[u].adj {
        if l := self.nodes[v].list; l != L_select && l != L_coalesced {
            ret = append(ret, v)
        }
    }
    return ret
}

// nodeMoves lists the moves of u that may still be coalesced.
func (self *Allocator) nodeMoves(u int) []int {
    ret := make([]int, 0, len(self.nodes[u].moves))
    for _, m := range self.nodes[u].moves {
        if l := self.moves[m].list; l == M_active || l == M_worklist {
            ret = append(ret, m)
        }
    }
    return ret
}

func (self *Allocator) moveRelated(u int) bool {
    for _, m := range self.nodes[u].moves {
        if l := self.moves[m].list; l == M_active || l == M_worklist {
            return true
        }
    }
    return false
}
