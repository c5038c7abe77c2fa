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

package ir

import (
    `fmt`
    `strings`

    `github.com/cNoNim/pcc/internal/utils`
)

// Ref is a handle to a node living in an Arena. The zero Ref is never a valid
// node.
type Ref int32

const (
    Nil Ref = 0
)

const (
    NoReg = -1
)

type Side uint8

const (
    SideLeft Side = iota
    SideRight
)

func (self Side) String() string {
    if self == SideLeft {
        return "left"
    } else {
        return "right"
    }
}

// Place tells how the matched instruction consumes one of its operands.
type Place uint8

const (
    P_none Place = iota     // used in place: constant, name, memory or register leaf
    P_reg                   // evaluated into a register
    P_oreg                  // evaluated into a register that addresses memory
    P_cc                    // evaluated for the condition codes only
)

func (self Place) String() string {
    switch self {
        case P_none : return "-"
        case P_reg  : return "reg"
        case P_oreg : return "oreg"
        case P_cc   : return "cc"
        default     : return "???"
    }
}

// Evaluated reports whether the operand has to be computed before the node.
func (self Place) Evaluated() bool {
    return self != P_none
}

const (
    NoPattern   = -1
    Passthrough = -2        // folded into the parent's memory operand
)

// Su is the matcher's annotation of a node.
type Su struct {
    Index   int
    Left    Place
    Right   Place
    DoRight bool
    Need    int
    Elided  bool
}

type Node struct {
    Op      Op
    Type    Type
    Left    Ref
    Right   Ref
    Lval    int64
    Name    string
    Rval    int
    Su      Su
    Rall    int
    Scratch int
    used    bool
}

// Arena owns every node of a function. Pointers returned by At are only valid
// until the next allocation.
type Arena struct {
    nodes []Node
    free  []Ref
    live  int
}

func NewArena() *Arena {
    return &Arena {
        nodes: make([]Node, 1, 64),
    }
}

func (self *Arena) alloc() Ref {
    var r Ref
    var n int

    /* reuse a freed slot if any */
    if n = len(self.free); n != 0 {
        r = self.free[n - 1]
        self.free = self.free[:n - 1]
    } else {
        r = Ref(len(self.nodes))
        self.nodes = append(self.nodes, Node{})
    }

    /* mark as used */
    self.live++
    self.nodes[r].used = true
    return r
}

func (self *Arena) New(op Op, t Type, l Ref, r Ref) Ref {
    p := self.alloc()
    self.nodes[p] = Node {
        Op      : op,
        Type    : t,
        Left    : l,
        Right   : r,
        Rall    : NoReg,
        Scratch : NoReg,
        Su      : Su{Index: NoPattern},
        used    : true,
    }
    return p
}

func (self *Arena) Leaf(op Op, t Type, lval int64, name string, rval int) Ref {
    p := self.New(op, t, Nil, Nil)
    n := &self.nodes[p]
    n.Lval = lval
    n.Name = name
    n.Rval = rval
    return p
}

func (self *Arena) Unary(op Op, t Type, l Ref) Ref {
    return self.New(op, t, l, Nil)
}

func (self *Arena) Binary(op Op, t Type, l Ref, r Ref) Ref {
    return self.New(op, t, l, r)
}

func (self *Arena) At(r Ref) *Node {
    if r <= Nil || int(r) >= len(self.nodes) {
        panic(fmt.Sprintf("ir: invalid node reference %d", r))
    } else if !self.nodes[r].used {
        panic(fmt.Sprintf("ir: access to freed node %d", r))
    } else {
        return &self.nodes[r]
    }
}

// Len returns the number of live nodes.
func (self *Arena) Len() int {
    return self.live
}

func (self *Arena) Child(p Ref, s Side) Ref {
    if n := self.At(p); s == SideLeft {
        return n.Left
    } else {
        return n.Right
    }
}

// Detach installs sub as a child of p and returns the old child, which the
// caller now owns.
func (self *Arena) Detach(p Ref, s Side, sub Ref) (old Ref) {
    n := self.At(p)
    if s == SideLeft {
        old, n.Left = n.Left, sub
    } else {
        old, n.Right = n.Right, sub
    }
    return
}

// Replace installs sub as a child of p and frees the old subtree.
func (self *Arena) Replace(p Ref, s Side, sub Ref) {
    if old := self.Detach(p, s, sub); old != Nil {
        self.Free(old)
    }
}

// Wrap inserts a new unary node between p and its child on side s.
func (self *Arena) Wrap(p Ref, s Side, op Op) Ref {
    c := self.Child(p, s)
    w := self.Unary(op, self.At(c).Type, c)
    self.Detach(p, s, w)
    return w
}

// Copy duplicates the subtree rooted at r, annotations included.
func (self *Arena) Copy(r Ref) Ref {
    if r == Nil {
        return Nil
    }

    /* copy the children first, At pointers move on allocation */
    n := *self.At(r)
    l := self.Copy(n.Left)
    rr := self.Copy(n.Right)

    /* then the node itself */
    p := self.alloc()
    n.Left = l
    n.Right = rr
    self.nodes[p] = n
    return p
}

func (self *Arena) Free(r Ref) {
    st := []Ref { r }

    /* release the whole subtree */
    for len(st) != 0 {
        p := st[len(st) - 1]
        st = st[:len(st) - 1]

        /* double free is a bug in the caller */
        if p <= Nil || int(p) >= len(self.nodes) || !self.nodes[p].used {
            utils.Fatalf("ir", "freeing free node %d", p)
        }

        /* queue the children */
        if n := &self.nodes[p]; n.Left != Nil {
            st = append(st, n.Left)
        }
        if n := &self.nodes[p]; n.Right != Nil {
            st = append(st, n.Right)
        }

        /* put back to the free list */
        self.live--
        self.nodes[p] = Node{}
        self.free = append(self.free, p)
    }
}

// Walk visits the subtree rooted at r in post-order.
func (self *Arena) Walk(r Ref, fn func(Ref)) {
    if r != Nil {
        n := self.At(r)
        l, rr := n.Left, n.Right
        self.Walk(l, fn)
        self.Walk(rr, fn)
        fn(r)
    }
}

// Reset clears every annotation in the subtree rooted at r.
func (self *Arena) Reset(r Ref) {
    self.Walk(r, func(p Ref) {
        n := self.At(p)
        n.Su = Su{Index: NoPattern}
        n.Rall = NoReg
        n.Scratch = NoReg
    })
}

// HasEffect reports whether evaluating r may change memory or control state.
func (self *Arena) HasEffect(r Ref) (ret bool) {
    self.Walk(r, func(p Ref) {
        ret = ret || self.At(p).Op.HasEffect()
    })
    return
}

func (self *Arena) Format(r Ref) string {
    var sb strings.Builder
    self.format(&sb, r)
    return sb.String()
}

func (self *Arena) format(sb *strings.Builder, r Ref) {
    if r == Nil {
        sb.WriteString("nil")
        return
    }

    /* print the node itself */
    n := self.At(r)
    sb.WriteString(n.Op.String())

    /* leaf payloads */
    switch n.Op {
        case OP_name  : fmt.Fprintf(sb, " %s", n.Name)
        case OP_reg   : fmt.Fprintf(sb, " r%d", n.Rval)
        case OP_oreg  : fmt.Fprintf(sb, " %d(r%d)", n.Lval, n.Rval)
        case OP_temp  : fmt.Fprintf(sb, " t%d", n.Rval)
        case OP_icon  : {
            if n.Name != "" {
                fmt.Fprintf(sb, " %s+%d", n.Name, n.Lval)
            } else {
                fmt.Fprintf(sb, " %d", n.Lval)
            }
        }
    }

    /* resolved register */
    if n.Rall != NoReg {
        fmt.Fprintf(sb, " [r%d]", n.Rall)
    }

    /* children */
    if n.Left != Nil {
        sb.WriteByte('(')
        self.format(sb, n.Left)
        if n.Right != Nil {
            sb.WriteString(", ")
            self.format(sb, n.Right)
        }
        sb.WriteByte(')')
    }
}
