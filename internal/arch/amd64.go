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

package arch

import (
    `github.com/chenzhuoyu/iasm/x86_64`
)

func AMD64() *Target {
    regs := []x86_64.Register64 {
        x86_64.RAX,
        x86_64.RBX,
        x86_64.RCX,
        x86_64.RDX,
        x86_64.RSI,
        x86_64.RDI,
        x86_64.R8,
        x86_64.R9,
        x86_64.R10,
        x86_64.R11,
    }

    /* allocatable registers, all of them byte addressable */
    ret := &Target {
        Name : "amd64",
        Word : 8,
        Wide : true,
        Regs : make([]Register, 0, len(regs) + 2),
    }
    for _, r := range regs {
        ret.Regs = append(ret.Regs, Register{Name: r, Class: C_areg, Temp: true, Byte: true})
    }

    /* frame and stack pointer */
    ret.FP = len(ret.Regs)
    ret.Regs = append(ret.Regs, Register{Name: x86_64.RBP}, Register{Name: x86_64.RSP})
    return ret
}
