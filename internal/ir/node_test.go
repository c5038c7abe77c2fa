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

func TestArena_Replace(t *testing.T) {
    a := NewArena()
    x := a.Leaf(OP_name, T_int, 0, "x", NoReg)
    c := a.Leaf(OP_icon, T_int, 4, "", NoReg)
    r := a.Leaf(OP_reg, T_int|T_ptr, 0, "", 1)
    p := a.Binary(OP_plus, T_int, x, a.Unary(OP_umul, T_int, a.Binary(OP_plus, PtrTo(T_int), r, c)))
    require.Equal(t, 6, a.Len())
    require.Equal(t, "PLUS(NAME x, UMUL(PLUS(REG r1, ICON 4)))", a.Format(p))
    a.Replace(p, SideRight, a.Leaf(OP_oreg, T_int, 4, "", 1))
    require.Equal(t, 3, a.Len())
    require.Equal(t, "PLUS(NAME x, OREG 4(r1))", a.Format(p))
    require.Panics(t, func() { a.At(c) })
}

func TestArena_DetachAndWrap(t *testing.T) {
    a := NewArena()
    x := a.Leaf(OP_name, T_int, 0, "x", NoReg)
    p := a.Unary(OP_force, T_int, x)
    old := a.Detach(p, SideLeft, a.Leaf(OP_temp, T_int, 0, "", 7))
    require.Equal(t, x, old)
    require.Equal(t, "NAME x", a.Format(old))
    a.Free(old)
    w := a.Wrap(p, SideLeft, OP_move)
    require.Equal(t, T_int, a.At(w).Type)
    require.Equal(t, "FORCE(MOVE(TEMP t7))", a.Format(p))
}

func TestArena_DoubleFree(t *testing.T) {
    a := NewArena()
    x := a.Leaf(OP_name, T_int, 0, "x", NoReg)
    a.Free(x)
    require.Panics(t, func() { a.Free(x) })
    y := a.Leaf(OP_icon, T_int, 1, "", NoReg)
    require.Equal(t, x, y, "freed slots should be reused")
}

func TestArena_Copy(t *testing.T) {
    a := NewArena()
    p := a.Binary(OP_mul, T_int, a.Leaf(OP_name, T_int, 0, "a", NoReg), a.Leaf(OP_icon, T_int, 3, "", NoReg))
    a.At(p).Rall = 2
    q := a.Copy(p)
    require.NotEqual(t, p, q)
    require.Equal(t, a.Format(p), a.Format(q))
    a.Free(p)
    require.Equal(t, "MUL [r2](NAME a, ICON 3)", a.Format(q))
}

func TestArena_WalkIsPostOrder(t *testing.T) {
    var ops []Op
    a := NewArena()
    p := a.Binary(OP_minus, T_int, a.Unary(OP_uminus, T_int, a.Leaf(OP_name, T_int, 0, "a", NoReg)), a.Leaf(OP_icon, T_int, 1, "", NoReg))
    a.Walk(p, func(r Ref) { ops = append(ops, a.At(r).Op) })
    require.Equal(t, []Op{OP_name, OP_uminus, OP_icon, OP_minus}, ops)
    require.False(t, a.HasEffect(p))
    require.True(t, a.HasEffect(a.Unary(OP_ucall, T_int, p)))
}
