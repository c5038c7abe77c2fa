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
    `sync/atomic`

    `github.com/cNoNim/pcc/internal/ir`
)

func (self *Allocator) mkWorklist() {
    for _, u := range self.members(L_initial) {
        if self.nodes[u].degree >= self.num.K() {
            self.move(u, L_spill)
        } else if self.moveRelated(u) {
            self.move(u, L_freeze)
        } else {
            self.move(u, L_simplify)
        }
    }
}

func (self *Allocator) simplify() {
    u := self.pop(L_simplify)
    self.push(u, L_select)

    /* its neighbours lose one degree */
    for _, v := range self.adjacent(u) {
        self.decrementDegree(v)
    }
}

func (self *Allocator) decrementDegree(u int) {
    if self.precolored(u) {
        return
    }

    /* update the degree */
    d := self.nodes[u].degree
    self.nodes[u].degree--

    /* not significant anymore */
    if d == self.num.K() {
        self.enableMoves(append(self.adjacent(u), u))
        if self.nodes[u].list == L_spill {
            if self.moveRelated(u) {
                self.move(u, L_freeze)
            } else {
                self.move(u, L_simplify)
            }
        }
    }
}

func (self *Allocator) enableMoves(nodes []int) {
    for _, u := range nodes {
        for _, m := range self.nodeMoves(u) {
            if self.moves[m].list == M_active {
                self.mmove(m, M_worklist)
            }
        }
    }
}

func (self *Allocator) getAlias(u int) int {
    for self.nodes[u].list == L_coalesced {
        u = self.nodes[u].alias
    }
    return u
}

func (self *Allocator) addWorkList(u int) {
    if !self.precolored(u) && !self.moveRelated(u) && self.nodes[u].degree < self.num.K() && self.nodes[u].list == L_freeze {
        self.move(u, L_simplify)
    }
}

// ok is the George test: t does not prevent coalescing with the register r.
func (self *Allocator) ok(t int, r int) bool {
    return self.nodes[t].degree < self.num.K() || self.precolored(t) || self.interferes(t, r)
}

// conservative is the Briggs test.
func (self *Allocator) conservative(nodes []int) bool {
    k := 0
    seen := make(map[int]bool, len(nodes))

    /* count the significant neighbours once */
    for _, u := range nodes {
        if !seen[u] {
            if seen[u] = true; self.nodes[u].degree >= self.num.K() {
                k++
            }
        }
    }
    return k < self.num.K()
}

func (self *Allocator) coalesce() {
    var u int
    var v int

    /* the move to try */
    m := self.mpop(M_worklist)
    x := self.getAlias(self.moves[m].src)
    y := self.getAlias(self.moves[m].dst)

    /* registers stay on the left */
    if self.precolored(y) {
        u, v = y, x
    } else {
        u, v = x, y
    }

    /* same node already */
    if u == v {
        self.mpush(m, M_coalesced)
        self.addWorkList(u)
        return
    }

    /* the ends interfere */
    if self.precolored(v) || self.interferes(u, v) {
        self.mpush(m, M_constrained)
        self.addWorkList(u)
        self.addWorkList(v)
        return
    }

    /* George with a register, Briggs otherwise */
    if self.precolored(u) && self.georgeOK(u, v) || !self.precolored(u) && self.conservative(append(self.adjacent(u), self.adjacent(v)...)) {
        self.mpush(m, M_coalesced)
        self.combine(u, v)
        self.addWorkList(u)
        atomic.AddUint64(&CoalesceCount, 1)
        return
    }

    /* maybe later */
    self.mpush(m, M_active)
}

func (self *Allocator) georgeOK(u int, v int) bool {
    for _, t := range self.adjacent(v) {
        if !self.ok(t, u) {
            return false
        }
    }
    return true
}

func (self *Allocator) combine(u int, v int) {
    self.move(v, L_coalesced)
    self.nodes[v].alias = u

    /* u inherits the moves of v */
    for _, m := range self.nodes[v].moves {
        if !containsInt(self.nodes[u].moves, m) {
            self.nodes[u].moves = append(self.nodes[u].moves, m)
        }
    }

    /* and its neighbours */
    self.enableMoves([]int { v })
    for _, t := range self.adjacent(v) {
        self.addEdge(t, u)
        self.decrementDegree(t)
    }

    /* might have become significant */
    if self.nodes[u].degree >= self.num.K() && self.nodes[u].list == L_freeze {
        self.move(u, L_spill)
    }
}

func (self *Allocator) freeze() {
    u := self.pop(L_freeze)
    self.push(u, L_simplify)
    self.freezeMoves(u)
}

func (self *Allocator) freezeMoves(u int) {
    for _, m := range self.nodeMoves(u) {
        var v int
        x, y := self.moves[m].src, self.moves[m].dst

        /* the other end of the move */
        if self.getAlias(y) == self.getAlias(u) {
            v = self.getAlias(x)
        } else {
            v = self.getAlias(y)
        }

        /* give up on the move */
        self.mmove(m, M_frozen)

        /* the other end may be simplified now */
        if !self.precolored(v) && !self.moveRelated(v) && self.nodes[v].degree < self.num.K() && self.nodes[v].list == L_freeze {
            self.move(v, L_simplify)
        }
    }
}

// selectSpill picks the potential spill with the lowest cost, preferring the
// values a store can actually be inserted for.
func (self *Allocator) selectSpill() {
    best := _NIL
    good := false
    cost := 0.0

    /* scan the spill candidates */
    for _, u := range self.members(L_spill) {
        ok := self.spillable(u)
        cc := float64(self.nodes[u].refs) / float64(self.nodes[u].degree + 1)

        /* spillable ones win over the others */
        if best == _NIL || (ok && !good) || (ok == good && cc < cost) {
            best, good, cost = u, ok, cc
        }
    }

    /* simplify it optimistically */
    self.move(best, L_simplify)
    self.freezeMoves(best)
}

// spillable reports whether a store can be inserted for temporary u.
func (self *Allocator) spillable(u int) bool {
    t := self.num.Temp(u)
    a := self.fn.Arena

    /* statement values cannot be stored */
    if t.Parent == ir.Nil {
        return false
    }

    /* storing a leaf only copies memory */
    if a.At(t.Node).Op.IsLeaf() {
        return false
    }

    /* nor can a stored value be stored again */
    return !self.spills[t.Rec] || t.Parent != t.Rec.Node
}

func (self *Allocator) assignColors() {
    k := self.num.K()
    ok := make([]bool, k)

    /* colour in reverse simplification order */
    for !self.lists[L_select].empty() {
        u := self.pop(L_select)
        for i := range ok {
            ok[i] = true
        }

        /* remove the colours of the neighbours */
        for _, w := range self.nodes[u].adj {
            if a := self.getAlias(w); self.nodes[a].list == L_colored || self.nodes[a].list == L_precolored {
                ok[self.nodes[a].color] = false
            }
        }

        /* lowest free colour */
        c := -1
        for i := 0; c < 0 && i < k; i++ {
            if ok[i] {
                c = i
            }
        }

        /* no colour left */
        if c < 0 {
            self.push(u, L_spilled)
        } else {
            self.push(u, L_colored)
            self.nodes[u].color = c
        }
    }

    /* coalesced nodes take the colour of their alias */
    for _, u := range self.members(L_coalesced) {
        self.nodes[u].color = self.nodes[self.getAlias(u)].color
    }
}

func containsInt(v []int, x int) bool {
    for _, y := range v {
        if y == x {
            return true
        }
    }
    return false
}
