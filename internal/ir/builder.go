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

// Builder assembles a function body from symbolic labels. Forward references
// are kept pending until the label is defined.
type Builder struct {
    fn    *Function
    ret   int
    refs  map[string]int
    pends map[string]int
}

func CreateBuilder(name string) *Builder {
    p := newBuilder()
    p.fn = NewFunction(name)
    p.ret = p.fn.NewLabel()
    p.add(IP_prolog).Name = name
    return p
}

func (self *Builder) add(kind RecordKind) *Record {
    p := newRecord(kind)
    self.fn.Records.PushBack(p)
    return p
}

func (self *Builder) label(to string) int {
    if lb, ok := self.refs[to]; ok {
        return lb
    } else if lb, ok = self.pends[to]; ok {
        return lb
    } else {
        lb = self.fn.NewLabel()
        self.pends[to] = lb
        return lb
    }
}

// Fn returns the function under construction.
func (self *Builder) Fn() *Function {
    return self.fn
}

// ReturnLabel is the label the epilogue is entered through.
func (self *Builder) ReturnLabel() int {
    return self.ret
}

func (self *Builder) Label(to string) int {
    var ok bool
    var lb int

    /* check for duplications */
    if _, ok = self.refs[to]; ok {
        panic("label " + to + " has already been linked")
    }

    /* resolve the pending references, if any */
    if lb, ok = self.pends[to]; !ok {
        lb = self.fn.NewLabel()
    }

    /* mark the label as resolved */
    self.refs[to] = lb
    self.add(IP_deflab).Label = lb
    delete(self.pends, to)
    return lb
}

func (self *Builder) DefNam(name string) {
    self.add(IP_defnam).Name = name
}

func (self *Builder) Asm(text string) {
    self.add(IP_asm).Name = text
}

func (self *Builder) StkOff(off int64) {
    self.add(IP_stkoff).Off = off
}

func (self *Builder) Stmt(ref Ref) *Record {
    return self.fn.Statement(nil, ref)
}

func (self *Builder) Goto(to string) *Record {
    return self.Stmt(self.Unary(OP_goto, T_int, self.Icon(T_int, int64(self.label(to)))))
}

func (self *Builder) CBranch(cond Ref, to string) *Record {
    return self.Stmt(self.Binary(OP_cbranch, T_int, cond, self.Icon(T_int, int64(self.label(to)))))
}

// Return moves val into the return register and jumps to the epilogue.
func (self *Builder) Return(val Ref) {
    if val != Nil {
        self.Stmt(self.Unary(OP_force, self.fn.Arena.At(val).Type, val))
    }
    self.Stmt(self.Unary(OP_goto, T_int, self.Icon(T_int, int64(self.ret))))
}

// Ret emits a bare RETURN statement.
func (self *Builder) Ret() *Record {
    return self.Stmt(self.fn.Arena.Leaf(OP_return, T_int, 0, "", NoReg))
}

func (self *Builder) Build() *Function {
    for key := range self.pends {
        panic("labels are not fully resolved: " + key)
    }

    /* close the function with the epilogue */
    fn := self.fn
    self.add(IP_epilog).Label = self.ret

    /* the Builder's life-time ends here */
    freeBuilder(self)
    return fn
}

func (self *Builder) Name(t Type, sym string) Ref {
    return self.fn.Arena.Leaf(OP_name, t, 0, sym, NoReg)
}

func (self *Builder) Icon(t Type, v int64) Ref {
    return self.fn.Arena.Leaf(OP_icon, t, v, "", NoReg)
}

func (self *Builder) Addr(t Type, sym string) Ref {
    return self.fn.Arena.Leaf(OP_icon, t, 0, sym, NoReg)
}

func (self *Builder) Reg(t Type, r int) Ref {
    return self.fn.Arena.Leaf(OP_reg, t, 0, "", r)
}

func (self *Builder) Oreg(t Type, off int64, r int) Ref {
    return self.fn.Arena.Leaf(OP_oreg, t, off, "", r)
}

func (self *Builder) Temp(t Type, n int) Ref {
    for n > self.fn.temps {
        self.fn.NewTemp()
    }
    return self.fn.Arena.Leaf(OP_temp, t, 0, "", n)
}

func (self *Builder) Unary(op Op, t Type, l Ref) Ref {
    return self.fn.Arena.Unary(op, t, l)
}

func (self *Builder) Binary(op Op, t Type, l Ref, r Ref) Ref {
    return self.fn.Arena.Binary(op, t, l, r)
}

func (self *Builder) Deref(t Type, addr Ref) Ref {
    return self.fn.Arena.Unary(OP_umul, t, addr)
}

func (self *Builder) Assign(dst Ref, src Ref) *Record {
    return self.Stmt(self.Binary(OP_assign, self.fn.Arena.At(dst).Type, dst, src))
}

// Target returns the label a GOTO or CBRANCH statement jumps to. The second
// result is false when the target is not a constant label.
func (self *Function) Target(ref Ref) (int, bool) {
    var p Ref
    var n *Node

    /* locate the label operand */
    switch n = self.Arena.At(ref); n.Op {
        case OP_goto    : p = n.Left
        case OP_cbranch : p = n.Right
        default         : return 0, false
    }

    /* must be an integer constant */
    if n = self.Arena.At(p); n.Op != OP_icon || n.Name != "" {
        return 0, false
    } else {
        return int(n.Lval), true
    }
}

// Retarget rewrites the label of a GOTO or CBRANCH statement.
func (self *Function) Retarget(ref Ref, lb int) {
    var p Ref
    var n *Node

    /* locate the label operand */
    switch n = self.Arena.At(ref); n.Op {
        case OP_goto    : p = n.Left
        case OP_cbranch : p = n.Right
        default         : panic("ir: retargeting a non-jump: " + n.Op.String())
    }

    /* update the label */
    self.Arena.At(p).Lval = int64(lb)
}
