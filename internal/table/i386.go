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

package table

import (
    `github.com/cNoNim/pcc/internal/ir`
)

const (
    _SREG = SAREG | STAREG
    _SMEM = SNAME | SOREG
    _SOPR = SAREG | SCON | _SMEM
)

var _I386 = []Entry {
    /* register to register copy, must come first */
    { ir.OP_move, INTAREG, Operand{_SREG, TANY}, Operand{}, 0, NAREG, RESC1, "movl AL,A1" },

    /* leaf loads */
    { OPLTYPE, INTAREG, Operand{_SOPR, TWORD}, Operand{}, TWORD, NAREG, RESC1, "movl AL,A1" },
    { OPLTYPE, INTAREG, Operand{SAREG | _SMEM, TCHAR}, Operand{}, TCHAR, NAREG, RESC1, "movsbl AL,A1" },
    { OPLTYPE, INTAREG, Operand{SAREG | _SMEM, TUCHAR}, Operand{}, TUCHAR, NAREG, RESC1, "movzbl AL,A1" },
    { OPLTYPE, INTAREG, Operand{SAREG | _SMEM, TSHORT}, Operand{}, TSHORT, NAREG, RESC1, "movswl AL,A1" },
    { OPLTYPE, INTAREG, Operand{SAREG | _SMEM, TUSHORT}, Operand{}, TUSHORT, NAREG, RESC1, "movzwl AL,A1" },
    { OPLTYPE, INTAREG, Operand{SCON | _SMEM, TLL}, Operand{}, TLL, NAREG, RESC1, "movl AL,A1\nmovl UL,U1" },
    { OPLTYPE, FORCC, Operand{SAREG | _SMEM, TWORD}, Operand{}, TWORD, 0, RESCC, "cmpl $0,AL" },

    /* simple arithmetic */
    { OPSIMP, INTAREG, Operand{SAREG, TWORD}, Operand{_SOPR, TWORD}, TWORD, 0, RLEFT, "Ol AR,AL" },
    { OPSIMP, FORCC, Operand{SAREG, TWORD}, Operand{_SOPR, TWORD}, TWORD, 0, RESCC, "Ol AR,AL" },
    { OPSIMP, INTAREG, Operand{SAREG, TLL}, Operand{SAREG | SCON | _SMEM, TLL}, TLL, 0, RLEFT, "Ol AR,AL\nOl UR,UL" },
    { ir.OP_mul, INTAREG, Operand{SAREG, TWORD}, Operand{_SOPR, TWORD}, TWORD, 0, RLEFT, "imull AR,AL" },
    { ir.OP_ls, INTAREG, Operand{SAREG, TWORD}, Operand{SCON, TANY}, TWORD, 0, RLEFT, "sall AR,AL" },
    { ir.OP_rs, INTAREG, Operand{SAREG, TWORD}, Operand{SCON, TANY}, TINT | TLONG, 0, RLEFT, "sarl AR,AL" },
    { ir.OP_rs, INTAREG, Operand{SAREG, TWORD}, Operand{SCON, TANY}, TUNSIGNED | TULONG | TPOINT, 0, RLEFT, "shrl AR,AL" },
    { ir.OP_uminus, INTAREG, Operand{SAREG, TWORD}, Operand{}, TWORD, 0, RLEFT, "negl AL" },
    { ir.OP_compl, INTAREG, Operand{SAREG, TWORD}, Operand{}, TWORD, 0, RLEFT, "notl AL" },

    /* conversions */
    { ir.OP_sconv, INTAREG, Operand{SAREG, TWORD}, Operand{}, TWORD, 0, RLEFT, "" },
    { ir.OP_sconv, INTAREG, Operand{SAREG | _SMEM, TCHAR}, Operand{}, TWORD | TSHORT | TUSHORT, NAREG | NASL, RESC1, "movsbl AL,A1" },
    { ir.OP_sconv, INTAREG, Operand{SAREG | _SMEM, TUCHAR}, Operand{}, TWORD | TSHORT | TUSHORT, NAREG | NASL, RESC1, "movzbl AL,A1" },
    { ir.OP_sconv, INTAREG, Operand{SAREG, TWORD}, Operand{}, TCHAR | TUCHAR | TSHORT | TUSHORT, NAREG | NASL, RESC1, "movl AL,A1" },

    /* loads through a pointer */
    { ir.OP_umul, INTAREG, Operand{_SREG, TANY}, Operand{}, TWORD, NAREG | NASL, RESC1, "movl (AL),A1" },
    { ir.OP_umul, INTAREG, Operand{_SREG, TANY}, Operand{}, TCHAR, NAREG | NASL, RESC1, "movsbl (AL),A1" },
    { ir.OP_umul, INTAREG, Operand{_SREG, TANY}, Operand{}, TUCHAR, NAREG | NASL, RESC1, "movzbl (AL),A1" },
    { ir.OP_umul, INTAREG, Operand{_SREG, TANY}, Operand{}, TSHORT, NAREG | NASL, RESC1, "movswl (AL),A1" },
    { ir.OP_umul, INTAREG, Operand{_SREG, TANY}, Operand{}, TUSHORT, NAREG | NASL, RESC1, "movzwl (AL),A1" },
    { ir.OP_umul, INTAREG, Operand{_SREG, TANY}, Operand{}, TLL, NAREG, RESC1, "movl (AL),A1\nmovl 4(AL),U1" },

    /* stores */
    { ir.OP_assign, FOREFF, Operand{_SMEM, TWORD}, Operand{SCON, TANY}, TWORD, 0, RNULL, "movl AR,AL" },
    { ir.OP_assign, FOREFF | INTAREG, Operand{SAREG | _SMEM, TWORD}, Operand{SAREG, TWORD}, TWORD, 0, RRIGHT, "movl AR,AL" },
    { ir.OP_assign, FOREFF | INTAREG, Operand{SAREG, TWORD}, Operand{SCON | _SMEM, TWORD}, TWORD, 0, RLEFT, "movl AR,AL" },
    { ir.OP_assign, FOREFF | INTAREG, Operand{_SMEM, TLL}, Operand{SAREG, TLL}, TLL, 0, RRIGHT, "movl AR,AL\nmovl UR,UL" },
    { ir.OP_assign, FOREFF, Operand{_SMEM, TCHAR | TUCHAR}, Operand{SCON, TANY}, TCHAR | TUCHAR, 0, RNULL, "movb AR,AL" },
    { ir.OP_assign, FOREFF | INTAREG, Operand{_SMEM, TCHAR | TUCHAR}, Operand{SAREG, TCHAR | TUCHAR}, TCHAR | TUCHAR, 0, RRIGHT, "movb ZR,AL" },
    { ir.OP_assign, FOREFF, Operand{_SMEM, TSHORT | TUSHORT}, Operand{SCON, TANY}, TSHORT | TUSHORT, 0, RNULL, "movw AR,AL" },
    { ir.OP_assign, FOREFF | INTAREG, Operand{_SMEM, TSHORT | TUSHORT}, Operand{SAREG, TSHORT | TUSHORT}, TSHORT | TUSHORT, 0, RRIGHT, "movw ZR,AL" },

    /* comparisons and control flow */
    { OPLOG, FORCC, Operand{SAREG, TWORD}, Operand{_SOPR, TWORD}, 0, 0, RESCC, "cmpl AR,AL" },
    { OPLOG, FORCC, Operand{_SMEM, TWORD}, Operand{SAREG | SCON, TWORD}, 0, 0, RESCC, "cmpl AR,AL" },
    { ir.OP_cbranch, FOREFF, Operand{SCC, TANY}, Operand{SCON, TANY}, 0, 0, RNOP, "ZC" },
    { ir.OP_goto, FOREFF, Operand{SCON, TANY}, Operand{}, 0, 0, RNOP, "jmp LL" },
    { ir.OP_return, FOREFF, Operand{SANY, TANY}, Operand{}, 0, 0, RNOP, "ret" },

    /* calls */
    { ir.OP_ucall, FOREFF | INTAREG, Operand{SCON, TANY}, Operand{}, 0, NAREG | NASL, RESC1, "call CL" },
    { ir.OP_funarg, FOREFF, Operand{_SOPR, TWORD}, Operand{}, 0, 0, RNULL, "pushl AL" },
    { ir.OP_force, FOREFF | INTAREG, Operand{_SREG, TWORD}, Operand{}, 0, 0, RLEFT, "" },
}

// I386 returns the instruction table of the i386 target. It has no rows for
// DIV and MOD, which need fixed registers.
func I386() *Table {
    return New("i386", _I386)
}

var _Tables = map[string]func() *Table {
    "i386"  : I386,
    "amd64" : I386,
}

// ForTarget returns the table for the named target. The amd64 register file
// runs the i386 rows on 32-bit sub-registers.
func ForTarget(name string) (*Table, bool) {
    if fn, ok := _Tables[name]; !ok {
        return nil, false
    } else {
        return fn(), true
    }
}
