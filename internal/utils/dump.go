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
    `io`

    `github.com/davecgh/go-spew/spew`
)

var _Spew = spew.ConfigState {
    Indent                  : "    ",
    SortKeys                : true,
    DisablePointerMethods   : true,
    DisablePointerAddresses : true,
    DisableCapacities       : true,
}

// Dump writes a titled spew dump of vs to w. A nil writer discards the dump.
func Dump(w io.Writer, title string, vs ...interface{}) {
    if w != nil {
        _, _ = fmt.Fprintf(w, "--- %s ---\n", title)
        _Spew.Fdump(w, vs...)
    }
}

func Sdump(vs ...interface{}) string {
    return _Spew.Sdump(vs...)
}
