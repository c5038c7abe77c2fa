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
    `golang.org/x/arch/x86/x86asm`
)

const (
    EAX = iota
    EBX
    ECX
    EDX
    ESI
    EDI
    EBP
    ESP
)

func I386() *Target {
    return &Target {
        Name   : "i386",
        RetReg : EAX,
        FP     : EBP,
        Word   : 4,
        Regs   : []Register {
            EAX: { Name: x86asm.EAX, Class: C_areg, Temp: true, Byte: true },
            EBX: { Name: x86asm.EBX, Class: C_areg, Temp: true, Byte: true },
            ECX: { Name: x86asm.ECX, Class: C_breg, Temp: true, Byte: true },
            EDX: { Name: x86asm.EDX, Class: C_areg, Temp: true, Byte: true },
            ESI: { Name: x86asm.ESI, Class: C_areg, Temp: true },
            EDI: { Name: x86asm.EDI, Class: C_areg, Temp: true },
            EBP: { Name: x86asm.EBP },
            ESP: { Name: x86asm.ESP },
        },
    }
}
