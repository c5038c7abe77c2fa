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
	"github.com/cNoNim/pcc/internal/arch"
	"github.com/cNoNim/pcc/internal/coloring"
	"github.com/cNoNim/pcc/internal/ir"
	"github.com/cNoNim/pcc/internal/jumps"
	"github.com/cNoNim/pcc/internal/match"
	"github.com/cNoNim/pcc/internal/opts"
	"github.com/cNoNim/pcc/internal/ralloc"
	"github.com/cNoNim/pcc/internal/ssa"
	"github.com/cNoNim/pcc/internal/table"
	"github.com/cNoNim/pcc/internal/utils"
)

type _Compiler struct {
	fn   *ir.Function
	tg   *arch.Target
	tab  *table.Table
	opts opts.Options
	pass string
	res  Result
}

// Compile selects the instructions of fn, assigns its registers and hands
// every record to em in order. The records are emitted only when the whole
// function compiled: an internal error is returned as InternalError before
// anything is emitted. Errors from em are returned as is.
func Compile(fn *Function, em Emitter, options ...Option) (*Result, error) {
	cc := _Compiler{fn: fn, opts: opts.GetDefaultOptions()}

	/* apply the options */
	for _, op := range options {
		op(&cc.opts)
	}

	/* run every pass */
	if err := cc.run(); err != nil {
		return nil, err
	}

	/* hand the records to the emitter */
	for p := fn.Records.Front(); p != nil; p = p.Next {
		if err := em.Emit(fn, p); err != nil {
			return nil, err
		}
	}
	return &cc.res, nil
}

func (self *_Compiler) run() (err error) {
	defer func() {
		if v := recover(); v != nil {
			if e, ok := v.(*utils.ICE); ok {
				err = InternalError{Func: self.fn.Name, Pass: self.pass, Reason: e.Error()}
			} else {
				panic(v)
			}
		}
	}()

	/* the pass pipeline */
	self.setup()
	self.deljumps()
	self.analyze()
	self.frame()
	self.allocate()
	self.epilog()
	self.verify()
	return nil
}

func (self *_Compiler) enter(pass string) {
	self.pass = pass
}

func (self *_Compiler) dump(title string) {
	if self.opts.Debug != nil {
		utils.Dump(self.opts.Debug, self.fn.Name+": "+title, self.fn.String())
	}
}

func (self *_Compiler) setup() {
	var ok bool
	self.enter("setup")

	/* target machine */
	if self.tg, ok = arch.ByName(self.opts.Target); !ok {
		utils.Fatalf("pcc", "unknown target %s", self.opts.Target)
	}

	/* instruction table */
	if self.tab, ok = table.ForTarget(self.opts.Target); !ok {
		utils.Fatalf("pcc", "no instruction table for %s", self.opts.Target)
	}

	/* register limit */
	if self.opts.MaxRegs > 0 {
		self.tg = self.tg.Limit(self.opts.MaxRegs)
	}

	/* the function must be complete */
	if self.fn.Prolog() == nil || self.fn.Epilog() == nil {
		utils.Fatalf("pcc", "%s: missing prologue or epilogue", self.fn.Name)
	}
	self.res.Stats.Allocator = self.opts.Allocator.String()
}

func (self *_Compiler) deljumps() {
	if self.opts.DelJumps {
		self.enter("deljumps")
		self.res.Stats.Deleted = jumps.Simplify(self.fn)
		self.dump("deljumps")
	}
}

func (self *_Compiler) analyze() {
	if !self.opts.EnableSSA {
		return
	}

	/* inline assembly falls back to the plain pipeline */
	self.enter("ssa")
	cfg, ok := ssa.Build(self.fn)
	if !ok {
		return
	}

	/* dominators, checked against gonum if needed */
	cfg.Dominators()
	if self.opts.Verify {
		cfg.Verify()
	}

	/* frontiers and phi placement */
	cfg.Frontiers()
	self.res.CFG = cfg
	self.res.Stats.Phis = cfg.PlacePhis()

	/* dump the graph */
	if self.opts.Debug != nil {
		utils.Dump(self.opts.Debug, self.fn.Name+": cfg", cfg.String())
	}
}

// frame starts the frame at the deepest offset declared by the front end,
// then gives every temporary a slot of its own.
func (self *_Compiler) frame() {
	self.enter("frame")
	for p := self.fn.Records.Front(); p != nil; p = p.Next {
		if p.Kind == ir.IP_stkoff && p.Off > self.fn.AutoOff {
			self.fn.AutoOff = p.Off
		}
	}
	match.DelTemps(self.fn, self.tg)
}

func (self *_Compiler) allocate() {
	if self.opts.Graph() {
		self.graph()
	} else {
		self.simple()
	}
	self.dump("allocated")
}

func (self *_Compiler) simple() {
	fn := self.fn
	mm := match.New(fn, self.tg, self.tab)
	ra := ralloc.New(fn, self.tg, self.tab)

	/* setup the allocator */
	self.enter("ralloc")
	ra.SetDebug(self.opts.Debug)

	/* every statement in order, stores included */
	for p := fn.Records.Front(); p != nil; p = p.Next {
		if p.Kind != ir.IP_node {
			continue
		}

		/* store subtrees until the statement fits the registers */
		for {
			mm.Gen(p.Node, table.FOREFF)
			if need, st := mm.Sucomp(p.Node); need >= 0 {
				break
			} else {
				self.res.Stats.Spills++
				fn.Arena.Reset(p.Node)
				p = fn.Statement(p, st)
			}
		}

		/* assign the registers */
		ra.GenRegs(p.Node)
	}
	self.res.Stats.Rounds = 1
}

func (self *_Compiler) graph() {
	ca := coloring.New(self.fn, self.tg, self.tab)
	self.enter("coloring")

	/* setup the allocator */
	ca.SetDebug(self.opts.Debug)
	ca.SetVerify(self.opts.Verify)
	ca.SetMaxRounds(self.opts.MaxColorRounds)

	/* colour the whole function */
	ca.Allocate()
	self.res.Stats.Rounds = ca.Rounds()
	self.res.Stats.Spills = ca.Spills()
}

func (self *_Compiler) epilog() {
	self.enter("epilog")
	self.fn.Epilog().Off = self.fn.AutoOff
	self.res.Stats.Frame = self.fn.AutoOff
}

// verify checks that every statement is matched and every value it computes
// has a register.
func (self *_Compiler) verify() {
	self.enter("verify")
	for p := self.fn.Records.Front(); p != nil; p = p.Next {
		if p.Kind == ir.IP_node {
			if self.fn.Arena.At(p.Node).Su.Index == ir.NoPattern {
				utils.Fatalf("pcc", "unmatched statement: %s", self.fn.Arena.Format(p.Node))
			}
			self.check(p.Node)
		}
	}
}

func (self *_Compiler) check(p ir.Ref) {
	a := self.fn.Arena
	n := a.At(p)

	/* values consumed in place */
	if n.Su.Index == ir.NoPattern {
		return
	}

	/* inserted moves */
	if n.Op == ir.OP_move {
		self.res.Stats.Moves++
	}

	/* the pattern must exist */
	if n.Su.Index != ir.Passthrough && (n.Su.Index < 0 || n.Su.Index >= self.tab.Len()) {
		utils.Fatalf("pcc", "invalid pattern %d: %s", n.Su.Index, a.Format(p))
	}

	/* check both operands */
	self.operand(p, n.Left, n.Su.Left)
	self.operand(p, n.Right, n.Su.Right)
}

func (self *_Compiler) operand(p ir.Ref, c ir.Ref, pl ir.Place) {
	if c == ir.Nil {
		return
	}

	/* operands computed into registers */
	a := self.fn.Arena
	n := a.At(c)
	if pl == ir.P_reg || pl == ir.P_oreg {
		if n.Su.Index == ir.NoPattern {
			utils.Fatalf("pcc", "unmatched operand of %s", a.Format(p))
		}
		if n.Rall < 0 || n.Rall >= len(self.tg.Regs) {
			utils.Fatalf("pcc", "unresolved register of %s", a.Format(c))
		}
	}

	/* check the subtree */
	self.check(c)
}
