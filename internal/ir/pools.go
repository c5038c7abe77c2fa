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

package ir

import (
    `sync`
)

var (
    recordPool  sync.Pool
    builderPool sync.Pool
)

func newRecord(kind RecordKind) *Record {
    if v := recordPool.Get(); v == nil {
        return allocRecord(kind)
    } else {
        return resetRecord(kind, v.(*Record))
    }
}

func freeRecord(p *Record) {
    recordPool.Put(p)
}

func allocRecord(kind RecordKind) (p *Record) {
    p = new(Record)
    p.Kind = kind
    return
}

func resetRecord(kind RecordKind, p *Record) *Record {
    *p = Record{Kind: kind}
    return p
}

func newBuilder() *Builder {
    if v := builderPool.Get(); v == nil {
        return allocBuilder()
    } else {
        return resetBuilder(v.(*Builder))
    }
}

func freeBuilder(p *Builder) {
    builderPool.Put(p)
}

func allocBuilder() (p *Builder) {
    p       = new(Builder)
    p.refs  = make(map[string]int, 16)
    p.pends = make(map[string]int, 16)
    return
}

func resetBuilder(p *Builder) *Builder {
    p.fn = nil
    p.ret = 0
    for k := range p.refs  { delete(p.refs, k) }
    for k := range p.pends { delete(p.pends, k) }
    return p
}
