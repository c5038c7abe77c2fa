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

	"github.com/cNoNim/pcc/internal/arch"
	"github.com/cNoNim/pcc/internal/opts"
	"github.com/cNoNim/pcc/internal/table"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

func parseAllocator(name string) opts.AllocKind {
	if ret, ok := opts.ParseAllocator(name); !ok {
		panic(fmt.Sprintf("pcc: invalid allocator: %q", name))
	} else {
		return ret
	}
}

func checkTarget(name string) string {
	if _, ok := arch.ByName(name); !ok {
		panic(fmt.Sprintf("pcc: invalid target: %q", name))
	} else if _, ok = table.ForTarget(name); !ok {
		panic(fmt.Sprintf("pcc: no instruction table for target: %q", name))
	} else {
		return name
	}
}

// WithAllocator selects the register allocator, either "simple" or "graph".
//
// The simple allocator assigns registers tree by tree, relying on the
// register needs computed by the matcher. The graph allocator colours the
// values of the whole function and stores the ones it cannot colour.
//
// The default value of this option is "simple".
func WithAllocator(name string) Option {
	kind := parseAllocator(name)
	return func(o *opts.Options) { o.Allocator = kind }
}

// WithTarget selects the target machine, "i386" or "amd64".
//
// The default value of this option is "i386".
func WithTarget(name string) Option {
	name = checkTarget(name)
	return func(o *opts.Options) { o.Target = name }
}

// WithSSA enables the control flow analysis that runs before allocation:
// basic blocks, dominators, dominance frontiers and phi placement.
func WithSSA(v bool) Option {
	return func(o *opts.Options) { o.EnableSSA = v }
}

// WithJumpSimplifier enables or disables the removal of redundant jumps,
// labels and dead code before allocation. It is enabled by default.
func WithJumpSimplifier(v bool) Option {
	return func(o *opts.Options) { o.DelJumps = v }
}

// WithVerify enables the internal cross checks: dominators against gonum and
// the colouring against the interference graph.
func WithVerify(v bool) Option {
	return func(o *opts.Options) { o.Verify = v }
}

// WithMaxRegisters limits the number of allocatable general purpose
// registers. Set this option to "0" to use every register of the target.
func WithMaxRegisters(n int) Option {
	if n < 0 {
		panic(fmt.Sprintf("pcc: invalid register limit: %d", n))
	} else {
		return func(o *opts.Options) { o.MaxRegs = n }
	}
}

// WithMaxColorRounds bounds how many times the graph allocator may store
// values and start over.
//
// The default value of this option is "16".
func WithMaxColorRounds(n int) Option {
	if n < 1 {
		panic(fmt.Sprintf("pcc: invalid number of colouring rounds: %d", n))
	} else {
		return func(o *opts.Options) { o.MaxColorRounds = n }
	}
}

// WithDebug dumps the internal state of every pass to w. A nil writer turns
// the dumps off.
func WithDebug(w io.Writer) Option {
	return func(o *opts.Options) { o.Debug = w }
}

// SetAllocator sets the default register allocator for all functions from
// now on.
//
// This value can also be configured with the `PCC_ALLOCATOR` environment
// variable.
//
// Returns the old allocator name.
func SetAllocator(name string) string {
	kind := parseAllocator(name)
	kind, opts.Allocator = opts.Allocator, kind
	return kind.String()
}

// SetTarget sets the default target machine for all functions from now on.
//
// This value can also be configured with the `PCC_TARGET` environment
// variable.
//
// Returns the old target name.
func SetTarget(name string) string {
	name, opts.Target = opts.Target, checkTarget(name)
	return name
}

// SetSSA sets whether the control flow analysis runs by default.
//
// This value can also be configured with the `PCC_SSA` environment variable.
//
// Returns the old value.
func SetSSA(v bool) bool {
	v, opts.EnableSSA = opts.EnableSSA, v
	return v
}

// SetVerify sets whether the internal cross checks run by default.
//
// This value can also be configured with the `PCC_VERIFY` environment
// variable.
//
// Returns the old value.
func SetVerify(v bool) bool {
	v, opts.Verify = opts.Verify, v
	return v
}

// SetMaxRegisters sets the default register limit for all functions from now
// on.
//
// This value can also be configured with the `PCC_MAX_REGS` environment
// variable.
//
// Returns the old opts.MaxRegs value.
func SetMaxRegisters(n int) int {
	if n < 0 {
		panic(fmt.Sprintf("pcc: invalid register limit: %d", n))
	}
	n, opts.MaxRegs = opts.MaxRegs, n
	return n
}

// SetMaxColorRounds sets the default bound of colouring rounds for all
// functions from now on.
//
// This value can also be configured with the `PCC_MAX_COLOR_ROUNDS`
// environment variable.
//
// Returns the old opts.MaxColorRounds value.
func SetMaxColorRounds(n int) int {
	if n < 1 {
		panic(fmt.Sprintf("pcc: invalid number of colouring rounds: %d", n))
	}
	n, opts.MaxColorRounds = opts.MaxColorRounds, n
	return n
}
