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
    `math/bits`
    `strings`
)

// BitSet is a set of block IDs.
type BitSet []uint64

func NewBitSet(n int) BitSet {
    return make(BitSet, (n + 63) / 64)
}

func (self BitSet) Set(i int) {
    self[i >> 6] |= 1 << (i & 63)
}

func (self BitSet) Clear(i int) {
    self[i >> 6] &^= 1 << (i & 63)
}

func (self BitSet) Has(i int) bool {
    return i >> 6 < len(self) && self[i >> 6] & (1 << (i & 63)) != 0
}

func (self BitSet) Empty() bool {
    for _, w := range self {
        if w != 0 {
            return false
        }
    }
    return true
}

func (self BitSet) Count() (n int) {
    for _, w := range self {
        n += bits.OnesCount64(w)
    }
    return
}

// ForEach calls fn with every member in increasing order.
func (self BitSet) ForEach(fn func(i int)) {
    for k, w := range self {
        for w != 0 {
            i := bits.TrailingZeros64(w)
            w &= w - 1
            fn(k << 6 | i)
        }
    }
}

func (self BitSet) Members() []int {
    ret := make([]int, 0, self.Count())
    self.ForEach(func(i int) { ret = append(ret, i) })
    return ret
}

func (self BitSet) String() string {
    ss := make([]string, 0, self.Count())
    self.ForEach(func(i int) { ss = append(ss, fmt.Sprintf("bb_%d", i)) })
    return "{" + strings.Join(ss, ", ") + "}"
}
