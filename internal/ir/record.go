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
    `fmt`
    `strings`
    `sync/atomic`
)

var (
    FunctionCount uint64 = 0
)

type RecordKind uint8

const (
    IP_node RecordKind = iota
    IP_prolog
    IP_epilog
    IP_deflab
    IP_defnam
    IP_asm
    IP_stkoff
)

func (self RecordKind) String() string {
    switch self {
        case IP_node   : return "node"
        case IP_prolog : return "prolog"
        case IP_epilog : return "epilog"
        case IP_deflab : return "deflab"
        case IP_defnam : return "defnam"
        case IP_asm    : return "asm"
        case IP_stkoff : return "stkoff"
        default        : return "???"
    }
}

// Record is one entry of the interpass stream. Which fields are meaningful
// depends on Kind:
//
//     IP_node    Node
//     IP_prolog  Name
//     IP_epilog  Label (return label), Off (frame size)
//     IP_deflab  Label
//     IP_defnam  Name
//     IP_asm     Name (the raw text)
//     IP_stkoff  Off
//
type Record struct {
    Kind  RecordKind
    Node  Ref
    Label int
    Name  string
    Off   int64
    Prev  *Record
    Next  *Record
}

// Stream is an order-preserving doubly linked list of records.
type Stream struct {
    head *Record
    tail *Record
    size int
}

func (self *Stream) Len() int       { return self.size }
func (self *Stream) Front() *Record { return self.head }
func (self *Stream) Back() *Record  { return self.tail }

func (self *Stream) PushBack(r *Record) {
    r.Next = nil
    r.Prev = self.tail

    /* link to the tail */
    if self.tail == nil {
        self.head = r
    } else {
        self.tail.Next = r
    }

    /* update the tail */
    self.size++
    self.tail = r
}

func (self *Stream) InsertBefore(at *Record, r *Record) {
    r.Next = at
    r.Prev = at.Prev

    /* link to the previous record */
    if at.Prev == nil {
        self.head = r
    } else {
        at.Prev.Next = r
    }

    /* link to the next record */
    self.size++
    at.Prev = r
}

func (self *Stream) InsertAfter(at *Record, r *Record) {
    if at.Next == nil {
        self.PushBack(r)
    } else {
        self.InsertBefore(at.Next, r)
    }
}

func (self *Stream) Remove(r *Record) {
    if r.Prev == nil {
        self.head = r.Next
    } else {
        r.Prev.Next = r.Next
    }
    if r.Next == nil {
        self.tail = r.Prev
    } else {
        r.Next.Prev = r.Prev
    }
    self.size--
    r.Prev, r.Next = nil, nil
}

// Function is the unit of work of the backend: a node arena, the record
// stream that refers into it, and the frame layout.
type Function struct {
    Name    string
    Arena   *Arena
    Records Stream
    AutoOff int64
    labels  int
    temps   int
}

func NewFunction(name string) *Function {
    atomic.AddUint64(&FunctionCount, 1)
    return &Function {
        Name  : name,
        Arena : NewArena(),
    }
}

func (self *Function) NewLabel() int {
    self.labels++
    return self.labels
}

func (self *Function) NewTemp() int {
    self.temps++
    return self.temps
}

// Temps returns the highest temporary number handed out so far.
func (self *Function) Temps() int {
    return self.temps
}

// Slot extends the frame by size bytes (aligned to size) and returns the
// frame-pointer relative offset of the new slot.
func (self *Function) Slot(size int64) int64 {
    if size <= 0 {
        panic("ir: invalid slot size")
    }
    self.AutoOff = (self.AutoOff + size - 1) / size * size + size
    return -self.AutoOff
}

func (self *Function) Prolog() *Record {
    if p := self.Records.Front(); p != nil && p.Kind == IP_prolog {
        return p
    } else {
        return nil
    }
}

func (self *Function) Epilog() *Record {
    if p := self.Records.Back(); p != nil && p.Kind == IP_epilog {
        return p
    } else {
        return nil
    }
}

// Statement inserts a new statement record before at, or appends it when at
// is nil.
func (self *Function) Statement(at *Record, ref Ref) *Record {
    p := newRecord(IP_node)
    p.Node = ref

    /* link into the stream */
    if at == nil {
        self.Records.PushBack(p)
    } else {
        self.Records.InsertBefore(at, p)
    }
    return p
}

// Free unlinks r and releases its tree.
func (self *Function) Free(r *Record) {
    if self.Records.Remove(r); r.Kind == IP_node && r.Node != Nil {
        self.Arena.Free(r.Node)
    }
    freeRecord(r)
}

func (self *Function) FormatRecord(r *Record) string {
    switch r.Kind {
        case IP_node   : return "\t" + self.Arena.Format(r.Node)
        case IP_prolog : return fmt.Sprintf("prolog %s", r.Name)
        case IP_epilog : return fmt.Sprintf("epilog L%d, frame %d", r.Label, r.Off)
        case IP_deflab : return fmt.Sprintf("L%d:", r.Label)
        case IP_defnam : return r.Name + ":"
        case IP_asm    : return "\tasm " + r.Name
        case IP_stkoff : return fmt.Sprintf("\tstkoff %d", r.Off)
        default        : panic("ir: invalid record kind")
    }
}

func (self *Function) String() string {
    var sb strings.Builder
    for p := self.Records.Front(); p != nil; p = p.Next {
        sb.WriteString(self.FormatRecord(p))
        sb.WriteByte('\n')
    }
    return sb.String()
}
