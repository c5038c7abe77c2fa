/*
 * Copyright 2022 CloudWeGo Authors
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

package pcc

import (
	"fmt"
	"io"

	"github.com/cNoNim/pcc/internal/ir"
	"github.com/cNoNim/pcc/internal/ssa"
)

type (
	Function = ir.Function
	Record   = ir.Record
	Builder  = ir.Builder
	CFG      = ssa.CFG
)

// CreateBuilder starts a new function body with the given name.
func CreateBuilder(name string) *Builder {
	return ir.CreateBuilder(name)
}

// Emitter receives the records of a compiled function in their final order.
// Every statement tree it sees is matched and has its registers resolved.
type Emitter interface {
	Emit(fn *Function, r *Record) error
}

// Listing is an Emitter that prints every record on its own line.
type Listing struct {
	W io.Writer
}

func (self Listing) Emit(fn *Function, r *Record) error {
	_, err := fmt.Fprintln(self.W, fn.FormatRecord(r))
	return err
}

// Stats records what the backend did to one function.
type Stats struct {
	Allocator string
	Deleted   int
	Phis      int
	Rounds    int
	Spills    int
	Moves     int
	Frame     int64
}

// Result is what Compile produces besides the emitted records.
type Result struct {
	CFG   *CFG
	Stats Stats
}
