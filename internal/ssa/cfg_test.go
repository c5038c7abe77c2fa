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
    `fmt`
    `html`
    `os`
    `path/filepath`
    `strings`
    `testing`

    `github.com/brianvoe/gofakeit/v6`
    `github.com/oleiade/lane`
    `github.com/stretchr/testify/require`

    `github.com/cNoNim/pcc/internal/ir`
    `github.com/cNoNim/pcc/internal/utils`
)

func dumpbb(bb *BasicBlock, cfg *CFG) string {
    var w int
    var ins []string
    var phi []string

    /* phi nodes */
    for _, v := range bb.Phi {
        ss := v.String()
        phi = append(phi, fmt.Sprintf("<tr><td align=\"left\">%s</td></tr>\n", html.EscapeString(ss)))
        if len(ss) > w {
            w = len(ss)
        }
    }

    /* records */
    bb.Records(func(r *ir.Record) {
        ss := strings.TrimSpace(cfg.Fn.FormatRecord(r))
        vv := strings.ReplaceAll(html.EscapeString(ss), " ", "&nbsp;")
        ins = append(ins, fmt.Sprintf("<tr><td align=\"left\">%s</td></tr>\n", vv))
        if len(ss) > w {
            w = len(ss)
        }
    })

    /* dominator metadata */
    idom := "∅"
    if bb.Idom != nil {
        idom = fmt.Sprintf("bb_%d", bb.Idom.Id)
    }
    meta := []string {
        fmt.Sprintf("# pred = %s", blockIds(bb.Pred)),
        fmt.Sprintf("# idom = %s", idom),
        fmt.Sprintf("# dtree = %s", bb.Dtree),
        fmt.Sprintf("# df = %s", bb.DF),
    }
    for i, ss := range meta {
        meta[i] = fmt.Sprintf("<tr><td align=\"left\">%s</td></tr>\n", html.EscapeString(ss))
        if len(ss) > w {
            w = len(ss)
        }
    }

    /* build the table */
    buf := []string {
        "<table border=\"1\" cellborder=\"0\" cellspacing=\"0\">\n",
        fmt.Sprintf("<tr><td width=\"%d\">bb_%d</td></tr>\n", w * 10 + 5, bb.Id),
        "<hr/>\n",
    }
    buf = append(buf, meta...)
    if len(phi) != 0 {
        buf = append(buf, "<hr/>\n")
        buf = append(buf, phi...)
    }
    if len(ins) != 0 {
        buf = append(buf, "<hr/>\n")
        buf = append(buf, ins...)
    }
    buf = append(buf, "</table>")
    return strings.Join(buf, "")
}

func cfgdot(t *testing.T, cfg *CFG) {
    q := lane.NewQueue()
    n := make(map[int]bool)
    buf := []string {
        "digraph CFG {",
        `    graph [ fontname = "Fira Code" ]`,
        `    node [ fontname = "Fira Code" fontsize="16" shape = "plaintext" ]`,
        `    START [ shape = "circle" ]`,
        fmt.Sprintf(`    START -> bb_%d`, cfg.Entry.Id),
    }
    for q.Enqueue(cfg.Entry); !q.Empty(); {
        p := q.Dequeue().(*BasicBlock)
        if n[p.Id] {
            continue
        }
        n[p.Id] = true
        buf = append(buf, fmt.Sprintf(`    bb_%d [ label = < %s > ]`, p.Id, dumpbb(p, cfg)))
        for _, s := range p.Succ {
            q.Enqueue(s)
            buf = append(buf, fmt.Sprintf(`    bb_%d -> bb_%d`, p.Id, s.Id))
        }
    }
    buf = append(buf, "}")
    fn := filepath.Join(t.TempDir(), cfg.Fn.Name + ".gv")
    require.NoError(t, os.WriteFile(fn, []byte(strings.Join(buf, "\n")), 0644))
}

func nonzero(p *ir.Builder, name string) ir.Ref {
    return p.Binary(ir.OP_ne, ir.T_int, p.Name(ir.T_int, name), p.Icon(ir.T_int, 0))
}

// if (x) goto L1; y = 1; goto L2; L1: y = 2; L2: return y;
func diamond() *ir.Function {
    p := ir.CreateBuilder("diamond")
    p.CBranch(nonzero(p, "x"), "L1")
    p.Assign(p.Temp(ir.T_int, 1), p.Icon(ir.T_int, 1))
    p.Goto("L2")
    p.Label("L1")
    p.Assign(p.Temp(ir.T_int, 1), p.Icon(ir.T_int, 2))
    p.Label("L2")
    p.Return(p.Temp(ir.T_int, 1))
    return p.Build()
}

func TestCFG_Build(t *testing.T) {
    cfg, ok := Build(diamond())
    require.True(t, ok)
    require.Len(t, cfg.Blocks, 6)
    require.Equal(t, ir.IP_prolog, cfg.Entry.First.Kind)
    require.Equal(t, ir.IP_epilog, cfg.Exit.First.Kind)
    l1 := cfg.Block(cfg.Blocks[3].Label)
    l2 := cfg.Block(cfg.Blocks[4].Label)
    require.Equal(t, cfg.Blocks[3], l1)
    require.Equal(t, cfg.Blocks[4], l2)
    require.Equal(t, []*BasicBlock{cfg.Blocks[1]}, cfg.Blocks[0].Succ)
    require.Equal(t, []*BasicBlock{l1, cfg.Blocks[2]}, cfg.Blocks[1].Succ)
    require.Equal(t, []*BasicBlock{l2}, cfg.Blocks[2].Succ)
    require.Equal(t, []*BasicBlock{l2}, l1.Succ)
    require.Equal(t, []*BasicBlock{cfg.Exit}, l2.Succ)
    require.Empty(t, cfg.Exit.Succ)
    require.Len(t, l1.Pred, 1)
    require.Len(t, l2.Pred, 2)
}

func TestCFG_DuplicatedEdges(t *testing.T) {
    p := ir.CreateBuilder("dup")
    p.CBranch(nonzero(p, "x"), "L1")
    p.Label("L1")
    p.Ret()
    cfg, ok := Build(p.Build())
    require.True(t, ok)
    require.Len(t, cfg.Blocks[1].Succ, 1)
    require.Len(t, cfg.Blocks[2].Pred, 1)
    require.Equal(t, []*BasicBlock{cfg.Exit}, cfg.Blocks[2].Succ)
}

func TestCFG_Asm(t *testing.T) {
    p := ir.CreateBuilder("asm")
    p.Asm("nop")
    p.Ret()
    cfg, ok := Build(p.Build())
    require.False(t, ok)
    require.Nil(t, cfg)
}

func requireICE(t *testing.T, fn func()) (ret *utils.ICE) {
    defer func() {
        v := recover()
        ret, _ = v.(*utils.ICE)
        require.NotNil(t, ret, "expected an internal compiler error, got %v", v)
    }()
    fn()
    return
}

func TestCFG_UndefinedLabel(t *testing.T) {
    p := ir.CreateBuilder("undef")
    p.Stmt(p.Unary(ir.OP_goto, ir.T_int, p.Icon(ir.T_int, 99)))
    fn := p.Build()
    e := requireICE(t, func() { Build(fn) })
    require.Equal(t, "ssa", e.Pkg)
    require.Equal(t, "jump to undefined label L99", e.Reason)
}

func TestCFG_Dominators(t *testing.T) {
    cfg, ok := Build(diamond())
    require.True(t, ok)
    cfg.Dominators()
    cfg.Verify()
    b := cfg.Blocks
    require.Nil(t, b[0].Idom)
    require.Equal(t, b[0], b[1].Idom)
    require.Equal(t, b[1], b[2].Idom)
    require.Equal(t, b[1], b[3].Idom)
    require.Equal(t, b[1], b[4].Idom)
    require.Equal(t, b[4], b[5].Idom)
    require.Equal(t, []int{2, 3, 4}, b[1].Dtree.Members())
    require.True(t, cfg.Dominates(b[1], b[4]))
    require.True(t, cfg.Dominates(b[4], b[4]))
    require.False(t, cfg.StrictlyDominates(b[4], b[4]))
    require.False(t, cfg.Dominates(b[2], b[4]))
}

func TestCFG_Frontiers(t *testing.T) {
    cfg, ok := Build(diamond())
    require.True(t, ok)
    cfg.Frontiers()
    b := cfg.Blocks
    require.True(t, b[0].DF.Empty())
    require.True(t, b[1].DF.Empty())
    require.Equal(t, []int{4}, b[2].DF.Members())
    require.Equal(t, []int{4}, b[3].DF.Members())
    require.True(t, b[4].DF.Empty())
}

func TestCFG_PhiPlacement(t *testing.T) {
    cfg, ok := Build(diamond())
    require.True(t, ok)
    cfg.Frontiers()
    require.Equal(t, 1, cfg.PlacePhis())
    l2 := cfg.Blocks[4]
    require.Len(t, l2.Phi, 1)
    require.Equal(t, &Phi{Temp: 1, Type: ir.T_int, Args: []int{1, 1}}, l2.Phi[0])
    require.Equal(t, "t1 = phi(t1, t1)", l2.Phi[0].String())
    cfgdot(t, cfg)
}

func TestCFG_Unreachable(t *testing.T) {
    p := ir.CreateBuilder("unreachable")
    p.Goto("L1")
    p.Assign(p.Temp(ir.T_int, 1), p.Icon(ir.T_int, 1))
    p.Assign(p.Temp(ir.T_int, 2), p.Icon(ir.T_int, 2))
    p.Label("L1")
    p.Ret()
    fn := p.Build()
    nr := fn.Records.Len()
    nn := fn.Arena.Len()
    cfg, ok := Build(fn)
    require.True(t, ok)
    cfg.Dominators()
    require.Len(t, cfg.Blocks, 4)
    require.Nil(t, cfg.Lookup(2))
    require.Equal(t, nr - 2, fn.Records.Len())
    require.Equal(t, nn - 6, fn.Arena.Len())
    require.NotZero(t, fn.Epilog().Label)
    cfg.Verify()
}

func TestCFG_UnreachableEpilogue(t *testing.T) {
    p := ir.CreateBuilder("loop")
    p.Label("L1")
    p.Assign(p.Temp(ir.T_int, 1), p.Icon(ir.T_int, 1))
    p.Goto("L1")
    fn := p.Build()
    cfg, ok := Build(fn)
    require.True(t, ok)
    cfg.Dominators()
    require.Contains(t, cfg.Blocks, cfg.Exit)
    require.False(t, cfg.Exit.Reachable())
    require.Zero(t, fn.Epilog().Label)
    require.Empty(t, cfg.Exit.Pred)
    cfg.Frontiers()
    cfg.Verify()
}

/* random control flow graphs */

func randomFunction(fk *gofakeit.Faker, name string) *ir.Function {
    p := ir.CreateBuilder(name)
    n := fk.Number(2, 24)

    /* every block has a label, some definitions and a terminator */
    for i := 0; i < n; i++ {
        p.Label(fmt.Sprintf("L%d", i))
        for k := fk.Number(0, 2); k > 0; k-- {
            p.Assign(p.Temp(ir.T_int, fk.Number(1, 4)), p.Icon(ir.T_int, int64(i)))
        }
        switch fk.Number(0, 4) {
            case 0  : p.Goto(fmt.Sprintf("L%d", fk.Number(0, n - 1)))
            case 1  : p.CBranch(nonzero(p, "x"), fmt.Sprintf("L%d", fk.Number(0, n - 1)))
            case 2  : p.CBranch(nonzero(p, "y"), fmt.Sprintf("L%d", fk.Number(0, n - 1)))
            case 3  : if fk.Bool() { p.Ret() } else { p.Return(ir.Nil) }
        }
    }
    return p.Build()
}

// reach returns the blocks reachable from the entry without passing through
// the excluded block.
func reach(cfg *CFG, excl *BasicBlock) map[*BasicBlock]bool {
    q := lane.NewQueue()
    ret := make(map[*BasicBlock]bool)
    if cfg.Entry == excl {
        return ret
    }
    for q.Enqueue(cfg.Entry); !q.Empty(); {
        p := q.Dequeue().(*BasicBlock)
        if ret[p] {
            continue
        }
        ret[p] = true
        for _, s := range p.Succ {
            if s != excl {
                q.Enqueue(s)
            }
        }
    }
    return ret
}

// iterated returns the iterated dominance frontier of the blocks in set.
func iterated(cfg *CFG, set []*BasicBlock) map[int]bool {
    ret := make(map[int]bool)
    for changed := true; changed; {
        changed = false
        for _, bb := range set {
            bb.DF.ForEach(func(i int) {
                if !ret[i] {
                    ret[i] = true
                    changed = true
                    set = append(set, cfg.Lookup(i))
                }
            })
        }
    }
    return ret
}

func TestCFG_Random(t *testing.T) {
    fk := gofakeit.New(20221020)
    for i := 0; i < 200; i++ {
        fn := randomFunction(fk, fmt.Sprintf("random_%d", i))
        cfg, ok := Build(fn)
        require.True(t, ok)
        cfg.Dominators()
        cfg.Verify()
        cfg.Frontiers()
        cfg.PlacePhis()
        all := reach(cfg, nil)

        /* only reachable blocks and the epilogue survive */
        for _, bb := range cfg.Blocks {
            require.True(t, all[bb] || bb == cfg.Exit, "bb_%d", bb.Id)
        }

        /* dominance: a dominates b iff b is unreachable without a */
        for _, a := range cfg.Reachable() {
            rr := reach(cfg, a)
            for _, b := range cfg.Reachable() {
                require.Equal(t, a == b || !rr[b], cfg.Dominates(a, b), "%s\nbb_%d dom bb_%d", cfg, a.Id, b.Id)
            }
        }

        /* dominance frontiers are sound and complete */
        for _, n := range cfg.Reachable() {
            for _, y := range cfg.Reachable() {
                want := false
                for _, p := range y.Pred {
                    want = want || (cfg.Dominates(n, p) && !cfg.StrictlyDominates(n, y))
                }
                require.Equal(t, want, n.DF.Has(y.Id), "%s\nbb_%d in DF(bb_%d)", cfg, y.Id, n.Id)
            }
        }

        /* every temporary has a phi at the iterated frontier of its definitions */
        sites := make(map[int][]*BasicBlock)
        for _, bb := range cfg.Reachable() {
            seen := make(map[int]bool)
            bb.Records(func(r *ir.Record) {
                if v, _ := cfg.defines(r); v != 0 && !seen[v] {
                    seen[v] = true
                    sites[v] = append(sites[v], bb)
                }
            })
        }
        for v, bbs := range sites {
            idf := iterated(cfg, bbs)
            for _, bb := range cfg.Reachable() {
                n := 0
                for _, phi := range bb.Phi {
                    if phi.Temp == v {
                        n++
                        require.Len(t, phi.Args, len(bb.Pred))
                    }
                }
                if idf[bb.Id] {
                    require.Equal(t, 1, n, "%s\nphi for t%d in bb_%d", cfg, v, bb.Id)
                } else {
                    require.Zero(t, n, "%s\nphi for t%d in bb_%d", cfg, v, bb.Id)
                }
            }
        }
    }
}
