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

package jumps

import (
    `fmt`
    `strings`
    `testing`

    `github.com/brianvoe/gofakeit/v6`
    `github.com/stretchr/testify/require`

    `github.com/cNoNim/pcc/internal/ir`
)

func nonzero(p *ir.Builder, name string) ir.Ref {
    return p.Binary(ir.OP_ne, ir.T_int, p.Name(ir.T_int, name), p.Icon(ir.T_int, 0))
}

func assign(p *ir.Builder, name string, v int64) {
    p.Assign(p.Name(ir.T_int, name), p.Icon(ir.T_int, v))
}

func lines(fn *ir.Function) []string {
    return strings.Split(strings.TrimSuffix(fn.String(), "\n"), "\n")
}

func TestJumps_NextLabel(t *testing.T) {
    p := ir.CreateBuilder("next")
    p.Goto("L1")
    p.Label("L1")
    assign(p, "a", 1)
    p.Ret()
    fn := p.Build()
    nn := fn.Arena.Len()
    require.Equal(t, 2, Simplify(fn))
    require.Equal(t, []string {
        "prolog next",
        "\tASSIGN(NAME a, ICON 1)",
        "\tRETURN",
        "epilog L1, frame 0",
    }, lines(fn))
    require.Equal(t, nn - 2, fn.Arena.Len())
}

func TestJumps_ReturnLabel(t *testing.T) {
    p := ir.CreateBuilder("ret")
    p.Return(p.Name(ir.T_int, "a"))
    fn := p.Build()
    require.Equal(t, 1, Simplify(fn))
    require.Equal(t, []string {
        "prolog ret",
        "\tFORCE(NAME a)",
        "epilog L1, frame 0",
    }, lines(fn))
}

func TestJumps_ChainedLabels(t *testing.T) {
    p := ir.CreateBuilder("chain")
    p.CBranch(nonzero(p, "x"), "L2")
    assign(p, "a", 1)
    p.CBranch(nonzero(p, "y"), "L3")
    p.Ret()
    p.Label("L1")
    p.StkOff(8)
    p.Label("L2")
    p.Label("L3")
    assign(p, "b", 2)
    p.CBranch(nonzero(p, "z"), "L3")
    p.Goto("L1")
    fn := p.Build()
    require.Equal(t, 2, Simplify(fn))
    require.Equal(t, []string {
        "prolog chain",
        "\tCBRANCH(NE(NAME x, ICON 0), ICON 4)",
        "\tASSIGN(NAME a, ICON 1)",
        "\tCBRANCH(NE(NAME y, ICON 0), ICON 4)",
        "\tRETURN",
        "L4:",
        "\tstkoff 8",
        "\tASSIGN(NAME b, ICON 2)",
        "\tCBRANCH(NE(NAME z, ICON 0), ICON 4)",
        "\tGOTO(ICON 4)",
        "epilog L1, frame 0",
    }, lines(fn))
}

func TestJumps_DeadCode(t *testing.T) {
    p := ir.CreateBuilder("dead")
    p.CBranch(nonzero(p, "x"), "L1")
    p.Ret()
    assign(p, "a", 1)
    p.Goto("L1")
    p.DefNam("entry2")
    assign(p, "b", 2)
    p.Label("L1")
    assign(p, "c", 3)
    p.Ret()
    fn := p.Build()
    require.Equal(t, 2, Simplify(fn))
    require.Equal(t, []string {
        "prolog dead",
        "\tCBRANCH(NE(NAME x, ICON 0), ICON 2)",
        "\tRETURN",
        "entry2:",
        "\tASSIGN(NAME b, ICON 2)",
        "L2:",
        "\tASSIGN(NAME c, ICON 3)",
        "\tRETURN",
        "epilog L1, frame 0",
    }, lines(fn))
}

func TestJumps_EffectfulCondition(t *testing.T) {
    p := ir.CreateBuilder("effect")
    call := p.Unary(ir.OP_ucall, ir.T_int, p.Addr(ir.T_int, "f"))
    p.CBranch(p.Binary(ir.OP_ne, ir.T_int, call, p.Icon(ir.T_int, 0)), "L1")
    p.CBranch(nonzero(p, "x"), "L1")
    p.Label("L1")
    p.Ret()
    fn := p.Build()
    require.Equal(t, 1, Simplify(fn))
    require.Equal(t, []string {
        "prolog effect",
        "\tCBRANCH(NE(UCALL(ICON f+0), ICON 0), ICON 2)",
        "L2:",
        "\tRETURN",
        "epilog L1, frame 0",
    }, lines(fn))
}

func TestJumps_Random(t *testing.T) {
    fk := gofakeit.New(20221021)
    for i := 0; i < 200; i++ {
        p := ir.CreateBuilder(fmt.Sprintf("random_%d", i))
        n := fk.Number(1, 16)
        for k := 0; k < n; k++ {
            p.Label(fmt.Sprintf("L%d", k))
            if fk.Bool() {
                assign(p, fk.LetterN(4), int64(k))
            }
            switch fk.Number(0, 3) {
                case 0: p.Goto(fmt.Sprintf("L%d", fk.Number(0, n - 1)))
                case 1: p.CBranch(nonzero(p, "x"), fmt.Sprintf("L%d", fk.Number(0, n - 1)))
                case 2: p.Ret()
            }
        }
        fn := p.Build()
        Simplify(fn)

        /* already a fixpoint */
        require.Zero(t, Simplify(fn), "%s", fn)

        /* every jump target is defined and every label is used */
        refs := make(map[int]int)
        defs := make(map[int]bool)
        defs[fn.Epilog().Label] = true
        for r := fn.Records.Front(); r != nil; r = r.Next {
            if r.Kind == ir.IP_deflab {
                defs[r.Label] = true
            } else if r.Kind == ir.IP_node {
                if lb, ok := fn.Target(r.Node); ok {
                    refs[lb]++
                }
            }
        }
        for lb := range refs {
            require.True(t, defs[lb], "%s\nL%d is not defined", fn, lb)
        }
        for lb := range defs {
            require.True(t, refs[lb] != 0 || lb == fn.Epilog().Label, "%s\nL%d is not used", fn, lb)
        }
    }
}
