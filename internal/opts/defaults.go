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

package opts

import (
    `strconv`

    `github.com/xyproto/env/v2`
)

type AllocKind uint8

const (
    SimpleAlloc AllocKind = iota
    GraphAlloc
)

func (self AllocKind) String() string {
    switch self {
        case SimpleAlloc : return "simple"
        case GraphAlloc  : return "graph"
        default          : return "unknown"
    }
}

const (
    _DefaultTarget         = "i386"
    _DefaultMaxColorRounds = 16     // each round stores at least one subtree to the frame
)

var (
    Allocator      = parseAllocator("PCC_ALLOCATOR", SimpleAlloc)
    Target         = env.Str("PCC_TARGET", _DefaultTarget)
    EnableSSA      = env.Bool("PCC_SSA")
    NoDelJumps     = env.Bool("PCC_NO_DELJUMPS")
    Verify         = env.Bool("PCC_VERIFY")
    Debug          = env.Bool("PCC_DEBUG")
    MaxRegs        = parseOrDefault("PCC_MAX_REGS", 0, 0)
    MaxColorRounds = parseOrDefault("PCC_MAX_COLOR_ROUNDS", _DefaultMaxColorRounds, 1)
)

func ParseAllocator(name string) (AllocKind, bool) {
    switch name {
        case "simple" : return SimpleAlloc, true
        case "graph"  : return GraphAlloc, true
        default       : return 0, false
    }
}

func parseAllocator(key string, def AllocKind) AllocKind {
    if val := env.Str(key); val == "" {
        return def
    } else if ret, ok := ParseAllocator(val); !ok {
        panic("pcc: invalid value for " + key)
    } else {
        return ret
    }
}

func parseOrDefault(key string, def int, min int) int {
    if val := env.Str(key); val == "" {
        return def
    } else if ret, err := strconv.ParseUint(val, 0, 64); err != nil {
        panic("pcc: invalid value for " + key)
    } else if int(ret) < min {
        panic("pcc: value too small for " + key)
    } else {
        return int(ret)
    }
}
