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

package debug

import (
	"sync/atomic"

	"github.com/cNoNim/pcc/internal/coloring"
	"github.com/cNoNim/pcc/internal/ir"
	"github.com/cNoNim/pcc/internal/jumps"
	"github.com/cNoNim/pcc/internal/match"
	"github.com/cNoNim/pcc/internal/ralloc"
)

// A Stats records process-wide statistics about the backend.
type Stats struct {
	Functions int
	Matcher   MatcherStats
	Simple    SimpleStats
	Graph     GraphStats
	Jumps     JumpStats
}

// A MatcherStats records statistics about the tree matcher.
type MatcherStats struct {
	Stores int
}

// A SimpleStats records statistics about the simple register allocator.
type SimpleStats struct {
	Moves int
}

// A GraphStats records statistics about the graph-colouring allocator.
type GraphStats struct {
	Rounds    int
	Coalesced int
	Spills    int
	Moves     int
}

// A JumpStats records statistics about the jump simplifier.
type JumpStats struct {
	Jumps  int
	Labels int
	Dead   int
}

func load(v *uint64) int {
	return int(atomic.LoadUint64(v))
}

// GetStats returns statistics of the backend.
func GetStats() Stats {
	return Stats{
		Functions: load(&ir.FunctionCount),
		Matcher: MatcherStats{
			Stores: load(&match.StoreCount),
		},
		Simple: SimpleStats{
			Moves: load(&ralloc.MoveCount),
		},
		Graph: GraphStats{
			Rounds:    load(&coloring.RoundCount),
			Coalesced: load(&coloring.CoalesceCount),
			Spills:    load(&coloring.SpillCount),
			Moves:     load(&coloring.MoveCount),
		},
		Jumps: JumpStats{
			Jumps:  load(&jumps.JumpCount),
			Labels: load(&jumps.LabelCount),
			Dead:   load(&jumps.DeadCount),
		},
	}
}
