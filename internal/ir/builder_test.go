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
    `testing`

    `github.com/stretchr/testify/require`
)

func TestBuilder_Labels(t *testing.T) {
    b := CreateBuilder("f")
    b.CBranch(b.Binary(OP_eq, T_int, b.Name(T_int, "x"), b.Icon(T_int, 0)), "L1")
    b.Goto("L1")
    l1 := b.Label("L1")
    b.Return(b.Name(T_int, "x"))
    require.Panics(t, func() { b.Label("L1") })
    fn := b.Build()
    require.Equal(t, 7, fn.Records.Len())
    require.Equal(t, "prolog f\n" +
        "\tCBRANCH(EQ(NAME x, ICON 0), ICON 2)\n" +
        "\tGOTO(ICON 2)\n" +
        "L2:\n" +
        "\tFORCE(NAME x)\n" +
        "\tGOTO(ICON 1)\n" +
        "epilog L1, frame 0\n", fn.String())
    lb, ok := fn.Target(fn.Records.Front().Next.Node)
    require.True(t, ok)
    require.Equal(t, l1, lb)
}

func TestBuilder_Unresolved(t *testing.T) {
    b := CreateBuilder("f")
    b.Goto("nowhere")
    require.Panics(t, func() { b.Build() })
}

func TestFunction_Slot(t *testing.T) {
    fn := NewFunction("f")
    fn.AutoOff = 2
    require.Equal(t, int64(-8), fn.Slot(4))
    require.Equal(t, int64(-16), fn.Slot(8))
    require.Equal(t, int64(16), fn.AutoOff)
}

func TestStream_InsertRemove(t *testing.T) {
    b := CreateBuilder("f")
    s1 := b.Stmt(b.Name(T_int, "a"))
    fn := b.Build()
    s0 := fn.Statement(s1, fn.Arena.Leaf(OP_name, T_int, 0, "b", NoReg))
    require.Equal(t, s0, fn.Prolog().Next)
    require.Equal(t, 4, fn.Records.Len())
    n := fn.Arena.Len()
    fn.Free(s1)
    require.Equal(t, n - 1, fn.Arena.Len())
    require.Equal(t, fn.Epilog(), s0.Next)
    require.Equal(t, s0, fn.Epilog().Prev)
}
