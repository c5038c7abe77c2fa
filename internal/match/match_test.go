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
    `testing`

    `github.com/cNoNim/pcc/internal/arch`
    `github.com/cNoNim/pcc/internal/ir`
    `github.com/cNoNim/pcc/internal/table`
    `github.com/cNoNim/pcc/internal/utils`
    `github.com/stretchr/testify/require`
)

func requireICE(t *testing.T, fn func()) (ret *utils.ICE) {
    defer func() {
        v := recover()
        ret, _ = v.(*utils.ICE)
        require.NotNil(t, ret, "expected an internal compiler error, got %v", v)
    }()
    fn()
    return
}

func newMatcher(fn *ir.Function, nregs int) *Matcher {
    tg := arch.I386()
    if nregs != 0 {
        tg = tg.Limit(nregs)
    }
    return New(fn, tg, table.I386())
}

func TestGen_FoldsMemoryOperands(t *testing.T) {
    b := ir.CreateBuilder("f")
    addr := b.Binary(ir.OP_plus, ir.PtrTo(ir.T_int), b.Reg(ir.PtrTo(ir.T_int), arch.EBP), b.Icon(ir.T_int, -8))
    s := b.Assign(b.Deref(ir.T_int, addr), b.Name(ir.T_int, "x"))
    fn := b.Build()
    m := newMatcher(fn, 0)
    m.Gen(s.Node, table.FOREFF)
    require.Equal(t, "ASSIGN(OREG -8(r6), NAME x)", fn.Arena.Format(s.Node))
    n := fn.Arena.At(s.Node)
    require.Equal(t, ir.P_none, n.Su.Left)
    require.Equal(t, ir.P_reg, n.Su.Right)
    require.Equal(t, table.RRIGHT, m.Table().At(n.Su.Index).Rewrite)
    require.Equal(t, "movl AL,A1", m.Table().At(fn.Arena.At(n.Right).Su.Index).Asm)
}

func TestGen_PassthroughIndirection(t *testing.T) {
    b := ir.CreateBuilder("f")
    sum := b.Binary(ir.OP_plus, ir.T_int, b.Name(ir.T_int, "a"), b.Deref(ir.T_int, b.Name(ir.PtrTo(ir.T_int), "p")))
    s := b.Stmt(b.Unary(ir.OP_force, ir.T_int, sum))
    fn := b.Build()
    m := newMatcher(fn, 0)
    m.Gen(s.Node, table.FOREFF)
    n := fn.Arena.At(sum)
    require.Equal(t, ir.P_reg, n.Su.Left)
    require.Equal(t, ir.P_oreg, n.Su.Right)
    require.Equal(t, "Ol AR,AL", m.Table().At(n.Su.Index).Asm)
    u := fn.Arena.At(n.Right)
    require.Equal(t, ir.Passthrough, u.Su.Index)
    require.Equal(t, ir.OP_move, m.Table().At(m.Table().Move()).Op)
    require.Equal(t, "movl AL,A1", m.Table().At(fn.Arena.At(u.Left).Su.Index).Asm)
}

func TestGen_RegisterOperands(t *testing.T) {
    b := ir.CreateBuilder("f")
    sum := b.Binary(ir.OP_plus, ir.T_int, b.Reg(ir.T_int, arch.ESI), b.Reg(ir.T_int, arch.EDI))
    s := b.Stmt(b.Unary(ir.OP_force, ir.T_int, sum))
    fn := b.Build()
    newMatcher(fn, 0).Gen(s.Node, table.FOREFF)
    n := fn.Arena.At(sum)
    require.Equal(t, ir.P_reg, n.Su.Left, "a clobbered register must be copied first")
    require.Equal(t, ir.P_none, n.Su.Right)
}

func TestGen_NoPattern(t *testing.T) {
    b := ir.CreateBuilder("f")
    s := b.Stmt(b.Unary(ir.OP_force, ir.T_int, b.Binary(ir.OP_div, ir.T_int, b.Name(ir.T_int, "a"), b.Name(ir.T_int, "b"))))
    fn := b.Build()
    e := requireICE(t, func() { newMatcher(fn, 0).Gen(s.Node, table.FOREFF) })
    require.Equal(t, "match", e.Pkg)
    require.Contains(t, e.Reason, "DIV")
}

func scenario3(b *ir.Builder) ir.Ref {
    sum := func(x string, y string) ir.Ref {
        return b.Binary(ir.OP_plus, ir.T_int, b.Name(ir.T_int, x), b.Name(ir.T_int, y))
    }
    mul := func(l ir.Ref, r ir.Ref) ir.Ref {
        return b.Binary(ir.OP_mul, ir.T_int, l, r)
    }
    return b.Binary(ir.OP_plus, ir.T_int, mul(sum("a", "b"), sum("c", "d")), mul(sum("e", "f"), sum("g", "h")))
}

func TestSucomp_StoresOneSubtree(t *testing.T) {
    b := ir.CreateBuilder("f")
    s := b.Assign(b.Name(ir.T_int, "r"), scenario3(b))
    fn := b.Build()
    m := newMatcher(fn, 2)
    m.Gen(s.Node, table.FOREFF)
    need, st := m.Sucomp(s.Node)
    require.Equal(t, -1, need)
    require.NotEqual(t, ir.Nil, st)
    require.Equal(t, "ASSIGN(OREG -4(r6), MUL(PLUS(NAME a, NAME b), PLUS(NAME c, NAME d)))", fn.Arena.Format(st))
    require.Equal(t, "ASSIGN(NAME r, PLUS(OREG -4(r6), MUL(PLUS(NAME e, NAME f), PLUS(NAME g, NAME h))))", fn.Arena.Format(s.Node))

    /* the store fits */
    fn.Statement(s, st)
    m.Gen(st, table.FOREFF)
    need, st2 := m.Sucomp(st)
    require.Equal(t, 2, need)
    require.Equal(t, ir.Nil, st2)

    /* and so does the rest */
    fn.Arena.Reset(s.Node)
    m.Gen(s.Node, table.FOREFF)
    need, st2 = m.Sucomp(s.Node)
    require.Equal(t, 2, need)
    require.Equal(t, ir.Nil, st2)
    require.True(t, fn.Arena.At(fn.Arena.At(s.Node).Right).Su.DoRight)
}

func TestSucomp_EqualNeedsAdd(t *testing.T) {
    b := ir.CreateBuilder("f")
    s := b.Assign(b.Name(ir.T_int, "r"), scenario3(b))
    fn := b.Build()
    m := newMatcher(fn, 0)
    m.Gen(s.Node, table.FOREFF)
    need, st := m.Sucomp(s.Node)
    require.Equal(t, ir.Nil, st)
    require.Equal(t, 4, need)
}

func TestDelTemps(t *testing.T) {
    b := ir.CreateBuilder("f")
    s1 := b.Assign(b.Temp(ir.T_int, 1), b.Name(ir.T_int, "a"))
    s2 := b.Assign(b.Temp(ir.T_char, 2), b.Temp(ir.T_char, 2))
    s3 := b.Stmt(b.Unary(ir.OP_force, ir.T_int, b.Temp(ir.T_int, 1)))
    fn := b.Build()
    fn.AutoOff = 8
    DelTemps(fn, arch.I386())
    require.Equal(t, "ASSIGN(OREG -12(r6), NAME a)", fn.Arena.Format(s1.Node))
    require.Equal(t, "ASSIGN(OREG -16(r6), OREG -16(r6))", fn.Arena.Format(s2.Node))
    require.Equal(t, "FORCE(OREG -12(r6))", fn.Arena.Format(s3.Node))
    require.Equal(t, int64(16), fn.AutoOff)
}

func TestNsucomp_Numbering(t *testing.T) {
    b := ir.CreateBuilder("f")
    sum := b.Binary(ir.OP_plus, ir.T_int, b.Name(ir.T_int, "a"), b.Name(ir.T_int, "b"))
    s := b.Stmt(b.Unary(ir.OP_force, ir.T_int, sum))
    fn := b.Build()
    m := newMatcher(fn, 0)
    num := NewNumbering(m.Target())
    require.Equal(t, 5, num.K())
    require.Equal(t, 0, num.Precolored(arch.EAX))
    require.Equal(t, -1, num.Precolored(arch.ECX))
    require.Equal(t, arch.EDX, num.Register(2))
    m.Gen(s.Node, table.FOREFF)
    m.Nsucomp(s, num)
    require.Equal(t, 7, num.Len())
    require.Equal(t, 0, fn.Arena.At(s.Node).Rall)
    require.Equal(t, 6, fn.Arena.At(sum).Rall)
    require.Equal(t, 5, fn.Arena.At(fn.Arena.At(sum).Left).Rall)
    require.Equal(t, sum, num.Temp(5).Parent)
    require.Equal(t, s.Node, num.Temp(6).Parent)
}
