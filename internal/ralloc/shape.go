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
    `strings`

    `github.com/cNoNim/pcc/internal/ir`
    `github.com/cNoNim/pcc/internal/table`
    `github.com/cNoNim/pcc/internal/utils`
)

// Shape is the allocation shape of a node: which operands are computed into
// registers, in which order, whether the instruction needs registers of its
// own and which registers hold its result.
type Shape uint8

const (
    S_0_n Shape = iota
    S_0_l
    S_0_r
    S_P_n
    S_PA_n
    S_L_n
    S_R_n
    S_DR_n
    S_LR_n
    S_DLR_n
    S_L_l
    S_LR_l
    S_DLR_l
    S_R_l
    S_DR_l
    S_R_r
    S_DR_r
    S_LR_r
    S_DLR_r
    S_L_r
    S_LP_n
    S_LPA_n
    S_RP_n
    S_DRP_n
    S_LRP_n
    S_DLRP_n
    S_LP_l
    S_LP_r
    S_LRP_r
    S_DRP_r
    S_DLRP_r
    S_P_c
    S_PA_c
    S_PB_c
    S_LP_c
    S_LPA_c
    S_DRPA_c
    S_LRPA_c
    S_DLRPA_c
    _S_max
)

const (
    _F_dor = 1 << iota     // right operand first
    _F_left                 // left operand in a register
    _F_right                // right operand in a register
    _F_pref                 // instruction needs registers
    _F_nasl                 // needs may share the left operand
    _F_nasr                 // needs may share the right operand
)

type _Reclaim uint8

const (
    _R_none _Reclaim = iota
    _R_left
    _R_right
    _R_fresh
)

type _Handler uint8

const (
    _H_none _Handler = iota
    _H_inplace
    _H_scratch
    _H_fresh
    _H_eval
    _H_eval_scratch
    _H_eval_fresh
    _H_max
)

type _ShapeFunc func(self *Allocator, p ir.Ref, want int, sh *_ShapeDesc) Code

/* filled by init, the handlers refer back to the shape table */
var _ShapeFuncs [_H_max]_ShapeFunc

func init() {
    _ShapeFuncs = [_H_max]_ShapeFunc {
        _H_none         : shapeNone,
        _H_inplace      : shapeInplace,
        _H_scratch      : shapeScratch,
        _H_fresh        : shapeFresh,
        _H_eval         : shapeEval,
        _H_eval_scratch : shapeEvalScratch,
        _H_eval_fresh   : shapeEvalFresh,
    }
}

type _ShapeDesc struct {
    flags   uint8
    reclaim _Reclaim
    handler _Handler
}

func (self *_ShapeDesc) has(f uint8) bool {
    return self.flags & f != 0
}

var _ShapeTab = [...]_ShapeDesc {
    S_0_n     : { 0                                              , _R_none  , _H_none },
    S_0_l     : { 0                                              , _R_left  , _H_inplace },
    S_0_r     : { 0                                              , _R_right , _H_inplace },
    S_P_n     : { _F_pref                                        , _R_none  , _H_scratch },
    S_PA_n    : { _F_pref | _F_nasl                              , _R_none  , _H_scratch },
    S_L_n     : { _F_left                                        , _R_none  , _H_eval },
    S_R_n     : { _F_right                                       , _R_none  , _H_eval },
    S_DR_n    : { _F_dor | _F_right                              , _R_none  , _H_eval },
    S_LR_n    : { _F_left | _F_right                             , _R_none  , _H_eval },
    S_DLR_n   : { _F_dor | _F_left | _F_right                    , _R_none  , _H_eval },
    S_L_l     : { _F_left                                        , _R_left  , _H_eval },
    S_LR_l    : { _F_left | _F_right                             , _R_left  , _H_eval },
    S_DLR_l   : { _F_dor | _F_left | _F_right                    , _R_left  , _H_eval },
    S_R_l     : { _F_right                                       , _R_left  , _H_eval },
    S_DR_l    : { _F_dor | _F_right                              , _R_left  , _H_eval },
    S_R_r     : { _F_right                                       , _R_right , _H_eval },
    S_DR_r    : { _F_dor | _F_right                              , _R_right , _H_eval },
    S_LR_r    : { _F_left | _F_right                             , _R_right , _H_eval },
    S_DLR_r   : { _F_dor | _F_left | _F_right                    , _R_right , _H_eval },
    S_L_r     : { _F_left                                        , _R_right , _H_eval },
    S_LP_n    : { _F_left | _F_pref                              , _R_none  , _H_eval_scratch },
    S_LPA_n   : { _F_left | _F_pref | _F_nasl                    , _R_none  , _H_eval_scratch },
    S_RP_n    : { _F_right | _F_pref                             , _R_none  , _H_eval_scratch },
    S_DRP_n   : { _F_dor | _F_right | _F_pref                    , _R_none  , _H_eval_scratch },
    S_LRP_n   : { _F_left | _F_right | _F_pref                   , _R_none  , _H_eval_scratch },
    S_DLRP_n  : { _F_dor | _F_left | _F_right | _F_pref          , _R_none  , _H_eval_scratch },
    S_LP_l    : { _F_left | _F_pref                              , _R_left  , _H_eval_scratch },
    S_LP_r    : { _F_left | _F_pref                              , _R_right , _H_eval_scratch },
    S_LRP_r   : { _F_left | _F_right | _F_pref                   , _R_right , _H_eval_scratch },
    S_DRP_r   : { _F_dor | _F_right | _F_pref                    , _R_right , _H_eval_scratch },
    S_DLRP_r  : { _F_dor | _F_left | _F_right | _F_pref          , _R_right , _H_eval_scratch },
    S_P_c     : { _F_pref                                        , _R_fresh , _H_fresh },
    S_PA_c    : { _F_pref | _F_nasl                              , _R_fresh , _H_fresh },
    S_PB_c    : { _F_pref | _F_nasr                              , _R_fresh , _H_fresh },
    S_LP_c    : { _F_left | _F_pref                              , _R_fresh , _H_eval_fresh },
    S_LPA_c   : { _F_left | _F_pref | _F_nasl                    , _R_fresh , _H_eval_fresh },
    S_DRPA_c  : { _F_dor | _F_right | _F_pref | _F_nasl          , _R_fresh , _H_eval_fresh },
    S_LRPA_c  : { _F_left | _F_right | _F_pref | _F_nasl         , _R_fresh , _H_eval_fresh },
    S_DLRPA_c : { _F_dor | _F_left | _F_right | _F_pref | _F_nasl, _R_fresh , _H_eval_fresh },
}

/* every shape has exactly one descriptor */
var (
    _ [int(_S_max) - len(_ShapeTab)]struct{}
    _ [len(_ShapeTab) - int(_S_max)]struct{}
)

func (self Shape) String() string {
    if self >= _S_max {
        return "???"
    } else {
        return _ShapeTab[self].String()
    }
}

type _ShapeKey struct {
    flags   uint8
    reclaim _Reclaim
}

var _ShapeIndex = func() map[_ShapeKey]Shape {
    ret := make(map[_ShapeKey]Shape, len(_ShapeTab))
    for i := range _ShapeTab {
        ret[_ShapeKey{_ShapeTab[i].flags, _ShapeTab[i].reclaim}] = Shape(i)
    }
    return ret
}()

func keyOf(n *ir.Node, e *table.Entry) _ShapeKey {
    var f uint8
    var r _Reclaim

    /* operands */
    if n.Su.Left.Evaluated()  { f |= _F_left }
    if n.Su.Right.Evaluated() { f |= _F_right }
    if n.Su.DoRight           { f |= _F_dor }

    /* needs */
    if e.ARegs() + e.BRegs() != 0 { f |= _F_pref }
    if e.Needs & table.NASL != 0  { f |= _F_nasl }
    if e.Needs & table.NASR != 0  { f |= _F_nasr }

    /* result */
    switch {
        case e.Rewrite & table.RLEFT  != 0 : r = _R_left
        case e.Rewrite & table.RRIGHT != 0 : r = _R_right
        case e.Rewrite & table.RESC   != 0 : r = _R_fresh
        default                            : r = _R_none
    }
    return _ShapeKey{f, r}
}

// Classify returns the allocation shape of a matched node.
func Classify(n *ir.Node, e *table.Entry) Shape {
    k := keyOf(n, e)
    sh, ok := _ShapeIndex[k]

    /* the table asks for something the allocator cannot do */
    if !ok {
        d := _ShapeDesc{flags: k.flags, reclaim: k.reclaim}
        utils.Fatalf("ralloc", "no allocation shape %s for %s", d.String(), e)
    }
    return sh
}

func (self *_ShapeDesc) String() string {
    var sb strings.Builder
    sb.WriteByte('{')
    for i, c := range "DLRPAB" {
        if self.flags & (1 << i) != 0 {
            sb.WriteRune(c)
        }
    }
    sb.WriteString("} ")
    sb.WriteByte("nlrc"[self.reclaim])
    return sb.String()
}
