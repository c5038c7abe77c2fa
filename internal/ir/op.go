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

type Op uint8

const (
    OP_nil Op = iota

    /* leaves */
    OP_name                 // named memory location
    OP_icon                 // integer constant, optionally relative to a symbol
    OP_reg                  // physical register
    OP_oreg                 // memory at register + offset
    OP_temp                 // frame temporary
    OP_return               // return from function
    OP_phi                  // SSA merge, never appears in a statement

    /* unary */
    OP_umul                 // indirection
    OP_uminus               // -x
    OP_compl                // ^x
    OP_sconv                // scalar conversion
    OP_force                // value into the return register
    OP_funarg               // push a call argument
    OP_ucall                // call without arguments
    OP_goto                 // unconditional jump to ICON label
    OP_move                 // register to register copy

    /* binary */
    OP_plus
    OP_minus
    OP_mul
    OP_div
    OP_mod
    OP_and
    OP_or
    OP_er
    OP_ls
    OP_rs
    OP_assign
    OP_eq
    OP_ne
    OP_lt
    OP_le
    OP_gt
    OP_ge
    OP_ult
    OP_ule
    OP_ugt
    OP_uge
    OP_cbranch              // conditional jump, right is ICON label

    _OP_max
)

const (
    _F_leaf = 1 << iota
    _F_unary
    _F_binary
    _F_logic
    _F_simple
    _F_call
    _F_effect
    _F_jump
)

type _OpInfo struct {
    name  string
    flags uint16
}

var _OpTab = [_OP_max]_OpInfo {
    OP_nil     : { "NIL"     , _F_leaf },
    OP_name    : { "NAME"    , _F_leaf },
    OP_icon    : { "ICON"    , _F_leaf },
    OP_reg     : { "REG"     , _F_leaf },
    OP_oreg    : { "OREG"    , _F_leaf },
    OP_temp    : { "TEMP"    , _F_leaf },
    OP_return  : { "RETURN"  , _F_leaf | _F_jump },
    OP_phi     : { "PHI"     , _F_leaf },
    OP_umul    : { "UMUL"    , _F_unary },
    OP_uminus  : { "UMINUS"  , _F_unary },
    OP_compl   : { "COMPL"   , _F_unary },
    OP_sconv   : { "SCONV"   , _F_unary },
    OP_force   : { "FORCE"   , _F_unary },
    OP_funarg  : { "FUNARG"  , _F_unary | _F_effect },
    OP_ucall   : { "UCALL"   , _F_unary | _F_call | _F_effect },
    OP_goto    : { "GOTO"    , _F_unary | _F_jump },
    OP_move    : { "MOVE"    , _F_unary },
    OP_plus    : { "PLUS"    , _F_binary | _F_simple },
    OP_minus   : { "MINUS"   , _F_binary | _F_simple },
    OP_mul     : { "MUL"     , _F_binary },
    OP_div     : { "DIV"     , _F_binary },
    OP_mod     : { "MOD"     , _F_binary },
    OP_and     : { "AND"     , _F_binary | _F_simple },
    OP_or      : { "OR"      , _F_binary | _F_simple },
    OP_er      : { "ER"      , _F_binary | _F_simple },
    OP_ls      : { "LS"      , _F_binary },
    OP_rs      : { "RS"      , _F_binary },
    OP_assign  : { "ASSIGN"  , _F_binary | _F_effect },
    OP_eq      : { "EQ"      , _F_binary | _F_logic },
    OP_ne      : { "NE"      , _F_binary | _F_logic },
    OP_lt      : { "LT"      , _F_binary | _F_logic },
    OP_le      : { "LE"      , _F_binary | _F_logic },
    OP_gt      : { "GT"      , _F_binary | _F_logic },
    OP_ge      : { "GE"      , _F_binary | _F_logic },
    OP_ult     : { "ULT"     , _F_binary | _F_logic },
    OP_ule     : { "ULE"     , _F_binary | _F_logic },
    OP_ugt     : { "UGT"     , _F_binary | _F_logic },
    OP_uge     : { "UGE"     , _F_binary | _F_logic },
    OP_cbranch : { "CBRANCH" , _F_binary | _F_jump },
}

func (self Op) String() string {
    if self >= _OP_max {
        return "???"
    } else {
        return _OpTab[self].name
    }
}

func (self Op) is(f uint16) bool {
    return self < _OP_max && _OpTab[self].flags & f != 0
}

func (self Op) IsLeaf() bool   { return self.is(_F_leaf) }
func (self Op) IsUnary() bool  { return self.is(_F_unary) }
func (self Op) IsBinary() bool { return self.is(_F_binary) }
func (self Op) IsLogic() bool  { return self.is(_F_logic) }
func (self Op) IsSimple() bool { return self.is(_F_simple) }
func (self Op) IsCall() bool   { return self.is(_F_call) }
func (self Op) IsJump() bool   { return self.is(_F_jump) }

// HasEffect reports whether evaluating the operator changes machine state
// other than its result register.
func (self Op) HasEffect() bool {
    return self.is(_F_effect)
}
