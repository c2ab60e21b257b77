// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package uid

import (
	"strconv"
	"strings"
	"sync"

	"github.com/bitmark-inc/entitycache/fault"
)

const (
	kindTag   = "kind:"
	idTag     = "-id:"
	sourceTag = "-source:"
	countTag  = "-count:"
)

// Uid - the parts of a uid string
type Uid struct {
	Kind   string
	Id     string
	Source string
	Count  uint64
}

// Make - render a uid from its parts
func Make(kind string, id string, source string, count uint64) string {
	return Uid{
		Kind:   kind,
		Id:     id,
		Source: source,
		Count:  count,
	}.String()
}

// String - the canonical text form
func (u Uid) String() string {
	var b strings.Builder
	b.Grow(len(kindTag) + len(u.Kind) + len(idTag) + len(u.Id) + len(sourceTag) + len(u.Source) + len(countTag) + 4)
	b.WriteString(kindTag)
	b.WriteString(u.Kind)
	b.WriteString(idTag)
	b.WriteString(u.Id)
	b.WriteString(sourceTag)
	b.WriteString(u.Source)
	b.WriteString(countTag)
	b.WriteString(strconv.FormatUint(u.Count, 10))
	return b.String()
}

// Parse - split a uid string back into its parts
func Parse(s string) (Uid, error) {
	if !strings.HasPrefix(s, kindTag) {
		return Uid{}, fault.ErrInvalidUid
	}
	rest := s[len(kindTag):]

	i := strings.Index(rest, idTag)
	if i < 0 {
		return Uid{}, fault.ErrInvalidUid
	}
	kind := rest[:i]
	rest = rest[i+len(idTag):]

	j := strings.LastIndex(rest, countTag)
	if j < 0 {
		return Uid{}, fault.ErrInvalidUid
	}
	count, err := strconv.ParseUint(rest[j+len(countTag):], 10, 64)
	if nil != err {
		return Uid{}, fault.ErrInvalidUid
	}
	rest = rest[:j]

	k := strings.LastIndex(rest, sourceTag)
	if k < 0 {
		return Uid{}, fault.ErrInvalidUid
	}

	u := Uid{
		Kind:   kind,
		Id:     rest[:k],
		Source: rest[k+len(sourceTag):],
		Count:  count,
	}
	if "" == u.Kind || "" == u.Id {
		return Uid{}, fault.ErrInvalidUid
	}
	return u, nil
}

// KindId - the "kind:id" key used to name an entity outside its table,
// e.g. as a confirmation key
func KindId(kind string, id string) string {
	return kind + ":" + id
}

// Allocator - hands out distinct uids for the same entity and source
type Allocator struct {
	sync.Mutex
	counts map[string]uint64
}

// NewAllocator - create an empty allocator
func NewAllocator() *Allocator {
	return &Allocator{
		counts: make(map[string]uint64),
	}
}

// Next - the next unused uid for (kind, id, source)
//
// the first uid has count zero, so a single holder always gets the same uid
// as Make(kind, id, source, 0)
func (a *Allocator) Next(kind string, id string, source string) string {
	key := kind + "\x00" + id + "\x00" + source

	a.Lock()
	n := a.counts[key]
	a.counts[key] = n + 1
	a.Unlock()

	return Make(kind, id, source, n)
}
