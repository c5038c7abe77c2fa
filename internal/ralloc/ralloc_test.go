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

package ralloc

import (
    `sync/atomic`
    `testing`

    `github.com/brianvoe/gofakeit/v6`
    `github.com/cNoNim/pcc/internal/arch`
    `github.com/cNoNim/pcc/internal/ir`
    `github.com/cNoNim/pcc/internal/match`
    `github.com/cNoNim/pcc/internal/table`
    `github.com/cNoNim/pcc/internal/utils`
    `github.com/davecgh/go-spew/spew`
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

func target(nregs int) *arch.Target {
    if tg := arch.I386(); nregs == 0 {
        return tg
    } else {
        return tg.Limit(nregs)
    }
}

// allocate runs the matcher and the allocator over every statement of fn,
// inserting spill stores where needed. It returns the number of stores.
func allocate(t *testing.T, fn *ir.Function, tg *arch.Target) (*Allocator, int) {
    tab := table.I386()
    mm := match.New(fn, tg, tab)
    ra := New(fn, tg, tab)
    ns := 0

    /* every statement in order, stores included */
    for p := fn.Records.Front(); p != nil; p = p.Next {
        if p.Kind != ir.IP_node {
            continue
        }
        for {
            mm.Gen(p.Node, table.FOREFF)
            if need, st := mm.Sucomp(p.Node); need >= 0 {
                break
            } else {
                ns++
                fn.Arena.Reset(p.Node)
                p = fn.Statement(p, st)
            }
        }
        ra.GenRegs(p.Node)
        require.Equal(t, ra.Acquires(), ra.Releases(), spew.Sdump(fn.Arena.Format(p.Node)))
    }
    return ra, ns
}

func TestCode(t *testing.T) {
    c := MkCode(arch.EDX, 2)
    require.Equal(t, arch.EDX, c.Reg())
    require.Equal(t, 2, c.Size())
    require.Equal(t, "{r3+2}", c.String())
    require.Equal(t, ir.NoReg, Code(0).Reg())
    require.Equal(t, "{}", Code(0).String())
}

func TestRegBlock_Pairing(t *testing.T) {
    var rb _RegBlock
    rb.reset(arch.I386())
    c := rb.getregs(arch.EBX, 1, arch.C_areg, ir.T_int)
    require.Equal(t, arch.EBX, c.Reg())
    d := rb.getregs(arch.EBX, 1, arch.C_areg, ir.T_int)
    require.Equal(t, arch.EAX, d.Reg(), "a busy hint falls back to the lowest free register")
    e := rb.getregs(ir.NoReg, 1, arch.C_breg, ir.T_int)
    require.Equal(t, arch.ECX, e.Reg())
    f := rb.getregs(arch.ESI, 1, arch.C_areg, ir.T_char)
    require.Equal(t, arch.EDX, f.Reg(), "esi has no byte register")
    rb.freeregs(c)
    rb.freeregs(d)
    rb.freeregs(e)
    rb.freeregs(f)
    rb.check()
    require.Equal(t, 4, rb.acquires)
    require.Equal(t, 4, rb.releases)
}

func TestRegBlock_Errors(t *testing.T) {
    var rb _RegBlock
    rb.reset(arch.I386())
    e := requireICE(t, func() { rb.freeregs(MkCode(arch.EAX, 1)) })
    require.Contains(t, e.Reason, "freeing free register eax")
    rb.setused(arch.EAX, 1)
    requireICE(t, func() { rb.setused(arch.EAX, 1) })
    e = requireICE(t, rb.check)
    require.Equal(t, "register eax lost", e.Reason)
    rb.reset(arch.I386().Limit(1))
    rb.getregs(ir.NoReg, 1, arch.C_areg, ir.T_int)
    e = requireICE(t, func() { rb.getregs(ir.NoReg, 1, arch.C_areg, ir.T_int) })
    require.Contains(t, e.Reason, "cannot allocate")
}

func TestShape_Table(t *testing.T) {
    seen := make(map[_ShapeKey]Shape)
    for i := range _ShapeTab {
        k := _ShapeKey{_ShapeTab[i].flags, _ShapeTab[i].reclaim}
        _, dup := seen[k]
        require.False(t, dup, "duplicated shape %s", Shape(i))
        require.NotNil(t, _ShapeFuncs[_ShapeTab[i].handler], "shape %s has no handler", Shape(i))
        seen[k] = Shape(i)
    }
    require.Equal(t, "{DLRPA} c", S_DLRPA_c.String())
    require.Equal(t, "{} n", S_0_n.String())
    require.Equal(t, "???", _S_max.String())
}

func TestShape_Unlisted(t *testing.T) {
    n := &ir.Node{Op: ir.OP_plus, Su: ir.Su{Left: ir.P_reg, Right: ir.P_reg}}
    e := &table.Entry{Op: ir.OP_plus, Needs: table.NAREG | table.NASR, Rewrite: table.RLEFT}
    requireICE(t, func() { Classify(n, e) })
}

func TestGenRegs_Expression(t *testing.T) {
    b := ir.CreateBuilder("f")
    s := b.Stmt(b.Unary(ir.OP_force, ir.T_int, b.Binary(
        ir.OP_mul,
        ir.T_int,
        b.Binary(ir.OP_plus, ir.T_int, b.Name(ir.T_int, "a"), b.Name(ir.T_int, "b")),
        b.Name(ir.T_int, "c"),
    )))
    fn := b.Build()
    mv := atomic.LoadUint64(&MoveCount)
    _, ns := allocate(t, fn, target(2))
    require.Zero(t, ns)
    require.Equal(t, mv, atomic.LoadUint64(&MoveCount), "the value is computed in the return register")
    require.Equal(t, "FORCE [r0](MUL [r0](PLUS [r0](NAME a [r0], NAME b), NAME c))", fn.Arena.Format(s.Node))
}

func TestGenRegs_ForceMove(t *testing.T) {
    for _, nr := range []int { 0, 1 } {
        b := ir.CreateBuilder("f")
        s := b.Stmt(b.Unary(ir.OP_force, ir.T_int, b.Reg(ir.T_int, arch.EBX)))
        fn := b.Build()
        mv := atomic.LoadUint64(&MoveCount)
        ra, _ := allocate(t, fn, target(nr))
        require.Equal(t, mv + 1, atomic.LoadUint64(&MoveCount), "exactly one move with %d registers", nr)
        require.Equal(t, "FORCE [r0](MOVE [r0](REG r1))", fn.Arena.Format(s.Node))
        require.Equal(t, ra.Acquires(), ra.Releases())
    }
}

func TestGenRegs_Spill(t *testing.T) {
    b := ir.CreateBuilder("f")
    sum := func(x string, y string) ir.Ref {
        return b.Binary(ir.OP_plus, ir.T_int, b.Name(ir.T_int, x), b.Name(ir.T_int, y))
    }
    mul := func(l ir.Ref, r ir.Ref) ir.Ref {
        return b.Binary(ir.OP_mul, ir.T_int, l, r)
    }
    s := b.Assign(b.Name(ir.T_int, "r"), b.Binary(ir.OP_plus, ir.T_int, mul(sum("a", "b"), sum("c", "d")), mul(sum("e", "f"), sum("g", "h"))))
    fn := b.Build()
    _, ns := allocate(t, fn, target(2))
    require.Equal(t, 1, ns)
    require.Equal(t, "ASSIGN [r0](OREG -4(r6), MUL [r0](PLUS [r0](NAME a [r0], NAME b), PLUS [r1](NAME c [r1], NAME d)))", fn.Arena.Format(s.Prev.Node))
    require.Equal(t, "ASSIGN [r1](NAME r, PLUS [r1](OREG -4(r6) [r1], MUL [r0](PLUS [r0](NAME e [r0], NAME f), PLUS [r1](NAME g [r1], NAME h))))", fn.Arena.Format(s.Node))
    require.Equal(t, int64(4), fn.AutoOff)
}

func TestGenRegs_AssignRegister(t *testing.T) {
    b := ir.CreateBuilder("f")
    s := b.Assign(b.Reg(ir.T_int, arch.EBX), b.Binary(ir.OP_plus, ir.T_int, b.Name(ir.T_int, "a"), b.Name(ir.T_int, "b")))
    fn := b.Build()
    allocate(t, fn, target(0))
    n := fn.Arena.At(s.Node)
    require.True(t, n.Su.Elided)
    require.Equal(t, arch.EBX, n.Rall)
    require.Equal(t, arch.EBX, fn.Arena.At(n.Right).Rall)
}

func TestGenRegs_Call(t *testing.T) {
    b := ir.CreateBuilder("f")
    s := b.Assign(b.Name(ir.T_int, "x"), b.Unary(ir.OP_ucall, ir.T_int, b.Addr(ir.T_int, "g")))
    fn := b.Build()
    allocate(t, fn, target(2))
    require.Equal(t, "ASSIGN [r0](NAME x, UCALL [r0](ICON g+0))", fn.Arena.Format(s.Node))
}

func TestGenRegs_CallClobbers(t *testing.T) {
    b := ir.CreateBuilder("f")
    s := b.Assign(b.Name(ir.T_int, "x"), b.Unary(ir.OP_ucall, ir.T_int, b.Addr(ir.T_int, "g")))
    fn := b.Build()
    tg := target(0)
    match.New(fn, tg, table.I386()).Gen(s.Node, table.FOREFF)
    ra := New(fn, tg, table.I386())
    ra.rb.reset(tg)
    ra.rb.setused(arch.EBX, 1)
    e := requireICE(t, func() { ra.alloregs(fn.Arena.At(s.Node).Right, ir.NoReg) })
    require.Contains(t, e.Reason, "live across call")
}

func TestGenRegs_Indirection(t *testing.T) {
    b := ir.CreateBuilder("f")
    s := b.Assign(b.Name(ir.T_int, "x"), b.Binary(ir.OP_plus, ir.T_int, b.Name(ir.T_int, "a"), b.Deref(ir.T_int, b.Name(ir.PtrTo(ir.T_int), "p"))))
    fn := b.Build()
    allocate(t, fn, target(2))
    n := fn.Arena.At(fn.Arena.At(s.Node).Right)
    u := fn.Arena.At(n.Right)
    require.Equal(t, ir.Passthrough, u.Su.Index)
    require.NotEqual(t, ir.NoReg, u.Rall)
    require.NotEqual(t, n.Rall, u.Rall, "the address is read while the sum is live")
}

func randomTree(f *gofakeit.Faker, b *ir.Builder, depth int) ir.Ref {
    if depth == 0 || f.Number(0, 3) == 0 {
        switch f.Number(0, 2) {
            case 0  : return b.Icon(ir.T_int, int64(f.Number(-100, 100)))
            case 1  : return b.Deref(ir.T_int, b.Name(ir.PtrTo(ir.T_int), f.LetterN(1)))
            default : return b.Name(ir.T_int, f.LetterN(1))
        }
    }

    /* unary or binary operator */
    ops := []ir.Op { ir.OP_plus, ir.OP_minus, ir.OP_mul, ir.OP_and, ir.OP_or, ir.OP_er }
    if f.Number(0, 5) == 0 {
        return b.Unary(ir.OP_uminus, ir.T_int, randomTree(f, b, depth - 1))
    } else {
        return b.Binary(ops[f.Number(0, len(ops) - 1)], ir.T_int, randomTree(f, b, depth - 1), randomTree(f, b, depth - 1))
    }
}

func TestGenRegs_Random(t *testing.T) {
    f := gofakeit.New(20221018)
    for i := 0; i < 200; i++ {
        b := ir.CreateBuilder("f")
        nr := f.Number(2, 5)
        ss := make([]*ir.Record, 0, 4)
        for j := f.Number(1, 4); j > 0; j-- {
            ss = append(ss, b.Assign(b.Name(ir.T_int, "r"), randomTree(f, b, f.Number(1, 6))))
        }
        b.Return(randomTree(f, b, 3))
        fn := b.Build()
        allocate(t, fn, target(nr))

        /* every computed value has a register */
        for _, s := range ss {
            fn.Arena.Walk(s.Node, func(p ir.Ref) {
                if n := fn.Arena.At(p); n.Su.Index >= 0 && n.Op != ir.OP_assign {
                    require.NotEqual(t, ir.NoReg, n.Rall, fn.Arena.Format(s.Node))
                    require.True(t, arch.I386().Limit(nr).IsTemp(n.Rall), fn.Arena.Format(s.Node))
                }
            })
        }
    }
}
