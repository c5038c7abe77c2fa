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
    `io`
    `os`
)

type Options struct {
    Allocator      AllocKind
    Target         string
    EnableSSA      bool
    DelJumps       bool
    Verify         bool
    Debug          io.Writer
    MaxRegs        int
    MaxColorRounds int
}

func (self *Options) Graph() bool {
    return self.Allocator == GraphAlloc
}

func GetDefaultOptions() Options {
    var dbg io.Writer
    if Debug {
        dbg = os.Stderr
    }
    return Options {
        Allocator      : Allocator,
        Target         : Target,
        EnableSSA      : EnableSSA,
        DelJumps       : !NoDelJumps,
        Verify         : Verify,
        Debug          : dbg,
        MaxRegs        : MaxRegs,
        MaxColorRounds : MaxColorRounds,
    }
}
