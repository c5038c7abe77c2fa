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
    `strings`
)

// Type is a basic integer kind with an optional pointer flag. Pointer types
// carry the kind of the pointee in the low bits.
type Type uint8

const (
    T_undef Type = iota
    T_char
    T_uchar
    T_short
    T_ushort
    T_int
    T_unsigned
    T_long
    T_ulong
    T_longlong
    T_ulonglong
)

const (
    T_ptr  Type = 0x80
    T_kind Type = 0x7f
)

var _TypeNames = [...]string {
    T_undef     : "undef",
    T_char      : "char",
    T_uchar     : "uchar",
    T_short     : "short",
    T_ushort    : "ushort",
    T_int       : "int",
    T_unsigned  : "unsigned",
    T_long      : "long",
    T_ulong     : "ulong",
    T_longlong  : "longlong",
    T_ulonglong : "ulonglong",
}

func PtrTo(t Type) Type {
    return (t & T_kind) | T_ptr
}

func (self Type) IsPtr() bool {
    return self & T_ptr != 0
}

func (self Type) Kind() Type {
    return self & T_kind
}

func (self Type) IsUnsigned() bool {
    switch self.Kind() {
        case T_uchar, T_ushort, T_unsigned, T_ulong, T_ulonglong : return true
        default                                                  : return self.IsPtr()
    }
}

// Bits is the width of a value of this type on a 32-bit target.
func (self Type) Bits() int {
    if self.IsPtr() {
        return 32
    }
    switch self.Kind() {
        case T_char, T_uchar              : return 8
        case T_short, T_ushort            : return 16
        case T_longlong, T_ulonglong      : return 64
        case T_undef                      : return 0
        default                           : return 32
    }
}

func (self Type) Is64() bool {
    return !self.IsPtr() && (self.Kind() == T_longlong || self.Kind() == T_ulonglong)
}

func (self Type) IsByte() bool {
    return !self.IsPtr() && (self.Kind() == T_char || self.Kind() == T_uchar)
}

func (self Type) String() string {
    var sb strings.Builder
    if k := int(self.Kind()); k < len(_TypeNames) {
        sb.WriteString(_TypeNames[k])
    } else {
        sb.WriteString("???")
    }
    if self.IsPtr() {
        sb.WriteByte('*')
    }
    return sb.String()
}
