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
)

// InternalError occurs when the backend finds one of its own invariants
// violated while compiling a function. Nothing of the function is emitted.
type InternalError struct {
	Func   string
	Pass   string
	Reason string
}

func (self InternalError) Error() string {
	return fmt.Sprintf("internal compiler error in %s (%s): %s", self.Func, self.Pass, self.Reason)
}
