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

package utils

import (
    `fmt`
)

// ICE is an internal compiler error. It is raised as a panic value whenever the
// backend detects that one of its own invariants does not hold, and is only
// recovered at the public API boundary.
type ICE struct {
    Pkg    string
    Reason string
}

func (self *ICE) Error() string {
    return fmt.Sprintf("%s: %s", self.Pkg, self.Reason)
}

func EFatal(pkg string, reason string) *ICE {
    return &ICE {
        Pkg    : pkg,
        Reason : reason,
    }
}

// Fatalf aborts the current compilation unit.
func Fatalf(pkg string, format string, args ...interface{}) {
    panic(EFatal(pkg, fmt.Sprintf(format, args...)))
}

func ENoPattern(op string, ty string, cookie string) *ICE {
    return EFatal("match", fmt.Sprintf("no table entry for %s of type %s (cookie %s)", op, ty, cookie))
}

func ELostRegister(pkg string, reg string) *ICE {
    return EFatal(pkg, fmt.Sprintf("register %s lost", reg))
}
