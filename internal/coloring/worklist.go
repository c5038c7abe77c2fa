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
    `github.com/cNoNim/pcc/internal/utils`
)

// NodeList names the worklist a graph node currently belongs to. Every node is
// in exactly one list at any time.
type NodeList uint8

const (
    L_precolored NodeList = iota
    L_initial
    L_simplify
    L_freeze
    L_spill
    L_spilled
    L_coalesced
    L_colored
    L_select
    _L_max
)

func (self NodeList) String() string {
    switch self {
        case L_precolored : return "precolored"
        case L_initial    : return "initial"
        case L_simplify   : return "simplify"
        case L_freeze     : return "freeze"
        case L_spill      : return "spill"
        case L_spilled    : return "spilled"
        case L_coalesced  : return "coalesced"
        case L_colored    : return "colored"
        case L_select     : return "select"
        default           : return "???"
    }
}

// MoveList names the worklist a move belongs to.
type MoveList uint8

const (
    M_coalesced MoveList = iota
    M_constrained
    M_frozen
    M_worklist
    M_active
    _M_max
)

func (self MoveList) String() string {
    switch self {
        case M_coalesced   : return "coalesced"
        case M_constrained : return "constrained"
        case M_frozen      : return "frozen"
        case M_worklist    : return "worklist"
        case M_active      : return "active"
        default            : return "???"
    }
}

const (
    _NIL = -1
)

// _Link is the intrusive part of a list element.
type _Link struct {
    prev int
    next int
}

type _Head struct {
    first int
    size  int
}

func (self *_Head) empty() bool {
    return self.size == 0
}

/** Node Lists **/

func (self *Allocator) push(u int, l NodeList) {
    h := &self.lists[l]
    n := &self.nodes[u]

    /* link at the head */
    n.list = l
    n.link = _Link{prev: _NIL, next: h.first}
    if h.first != _NIL {
        self.nodes[h.first].link.prev = u
    }

    /* update the head */
    h.size++
    h.first = u
}

func (self *Allocator) unlink(u int) {
    n := &self.nodes[u]
    h := &self.lists[n.list]

    /* previous element */
    if n.link.prev == _NIL {
        h.first = n.link.next
    } else {
        self.nodes[n.link.prev].link.next = n.link.next
    }

    /* next element */
    if n.link.next != _NIL {
        self.nodes[n.link.next].link.prev = n.link.prev
    }

    /* clear the links */
    h.size--
    n.link = _Link{prev: _NIL, next: _NIL}
}

// move transfers u from the list it is in to l.
func (self *Allocator) move(u int, l NodeList) {
    self.unlink(u)
    self.push(u, l)
}

func (self *Allocator) pop(l NodeList) int {
    if u := self.lists[l].first; u == _NIL {
        panic(utils.EFatal("coloring", "pop from empty " + l.String() + " list"))
    } else {
        self.unlink(u)
        return u
    }
}

func (self *Allocator) members(l NodeList) []int {
    ret := make([]int, 0, self.lists[l].size)
    for u := self.lists[l].first; u != _NIL; u = self.nodes[u].link.next {
        ret = append(ret, u)
    }
    return ret
}

/** Move Lists **/

func (self *Allocator) mpush(m int, l MoveList) {
    h := &self.mlists[l]
    v := &self.moves[m]

    /* link at the head */
    v.list = l
    v.link = _Link{prev: _NIL, next: h.first}
    if h.first != _NIL {
        self.moves[h.first].link.prev = m
    }

    /* update the head */
    h.size++
    h.first = m
}

func (self *Allocator) munlink(m int) {
    v := &self.moves[m]
    h := &self.mlists[v.list]

    /* previous element */
    if v.link.prev == _NIL {
        h.first = v.link.next
    } else {
        self.moves[v.link.prev].link.next = v.link.next
    }

    /* next element */
    if v.link.next != _NIL {
        self.moves[v.link.next].link.prev = v.link.prev
    }

    /* clear the links */
    h.size--
    v.link = _Link{prev: _NIL, next: _NIL}
}

func (self *Allocator) mmove(m int, l MoveList) {
    self.munlink(m)
    self.mpush(m, l)
}

func (self *Allocator) mpop(l MoveList) int {
    if m := self.mlists[l].first; m == _NIL {
        panic(utils.EFatal("coloring", "pop from empty " + l.String() + " move list"))
    } else {
        self.munlink(m)
        return m
    }
}

// checkExclusive verifies that every node and every move is in exactly the
// list its tag names, and in no other.
func (self *Allocator) checkExclusive() {
    seen := make([]int, len(self.nodes))
    mseen := make([]int, len(self.moves))

    /* walk every node list */
    for l := NodeList(0); l < _L_max; l++ {
        n := 0
        for u := self.lists[l].first; u != _NIL; u = self.nodes[u].link.next {
            if n++; self.nodes[u].list != l {
                utils.Fatalf("coloring", "node %d is tagged %s but linked in %s", u, self.nodes[u].list, l)
            }
            seen[u]++
        }
        if n != self.lists[l].size {
            utils.Fatalf("coloring", "%s list holds %d nodes, expected %d", l, n, self.lists[l].size)
        }
    }

    /* walk every move list */
    for l := MoveList(0); l < _M_max; l++ {
        n := 0
        for m := self.mlists[l].first; m != _NIL; m = self.moves[m].link.next {
            if n++; self.moves[m].list != l {
                utils.Fatalf("coloring", "move %d is tagged %s but linked in %s", m, self.moves[m].list, l)
            }
            mseen[m]++
        }
        if n != self.mlists[l].size {
            utils.Fatalf("coloring", "%s move list holds %d moves, expected %d", l, n, self.mlists[l].size)
        }
    }

    /* exactly once */
    for u, n := range seen {
        if n != 1 {
            utils.Fatalf("coloring", "node %d is in %d lists", u, n)
        }
    }
    for m, n := range mseen {
        if n != 1 {
            utils.Fatalf("coloring", "move %d is in %d lists", m, n)
        }
    }
}
