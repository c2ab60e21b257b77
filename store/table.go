// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"sort"
	"sync"
	"time"
)

// Metadata - the domain object as last written
type Metadata map[string]interface{}

// Clone - shallow copy, so callers never share a map with the table
func (m Metadata) Clone() Metadata {
	if nil == m {
		return nil
	}
	c := make(Metadata, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Entry - a snapshot of one cached entity
type Entry struct {
	Id        string
	Metadata  Metadata
	Timestamp time.Time
}

// Ref - one holder of one entry, Id may be empty if the uid is already known
type Ref struct {
	Uid string
	Id  string
}

// Subscription - an edge from an entry to a holder uid in another table
type Subscription struct {
	Kind string
	Uid  string
}

// Write - an entry to be written and the uid that holds it
//
// an empty Uid writes the entry without adding a subscriber
type Write struct {
	Id       string
	Uid      string
	Metadata Metadata
}

type entry struct {
	metadata  Metadata
	timestamp time.Time
}

type idSet map[string]struct{}

// Table - all the bookkeeping for one kind
type Table struct {
	sync.RWMutex
	kind          string
	entries       map[string]*entry
	uids          map[string]string
	subscribers   map[string]idSet
	subscriptions map[string]map[Subscription]struct{}
	pending       idSet
}

func newTable(kind string) *Table {
	return &Table{
		kind:          kind,
		entries:       make(map[string]*entry),
		uids:          make(map[string]string),
		subscribers:   make(map[string]idSet),
		subscriptions: make(map[string]map[Subscription]struct{}),
		pending:       make(idSet),
	}
}

// Kind - the kind this table holds
func (t *Table) Kind() string {
	return t.kind
}

// Put - write entries through and subscribe their uids
//
// replace overwrites the whole metadata, otherwise fields are merged with
// the later write winning per field
func (t *Table) Put(writes []Write, replace bool, now time.Time) []string {
	t.Lock()
	defer t.Unlock()

	ids := make([]string, 0, len(writes))
	for _, w := range writes {
		t.write(w.Id, w.Metadata, replace, now)
		if "" != w.Uid {
			t.subscribe(w.Uid, w.Id)
		}
		ids = append(ids, w.Id)
	}
	return ids
}

// Merge - merge metadata into entries without touching subscribers
func (t *Table) Merge(writes []Write, now time.Time) {
	t.Lock()
	defer t.Unlock()

	for _, w := range writes {
		t.write(w.Id, w.Metadata, false, now)
	}
}

// Load - insert entries with their own timestamps, existing newer entries win
func (t *Table) Load(entries []Entry) int {
	t.Lock()
	defer t.Unlock()

	n := 0
	for _, e := range entries {
		if current, ok := t.entries[e.Id]; ok && !current.timestamp.Before(e.Timestamp) {
			continue
		}
		t.entries[e.Id] = &entry{
			metadata:  e.Metadata.Clone(),
			timestamp: e.Timestamp,
		}
		n += 1
	}
	return n
}

func (t *Table) write(id string, metadata Metadata, replace bool, now time.Time) {
	e, ok := t.entries[id]
	if !ok || replace || nil == e.metadata {
		t.entries[id] = &entry{
			metadata:  metadata.Clone(),
			timestamp: now,
		}
		return
	}
	for k, v := range metadata {
		e.metadata[k] = v
	}
	e.timestamp = now
}

// Subscribe - record each uid as a subscriber of its entry
//
// refs without an id are resolved through the uid index, unknown ones are
// ignored
func (t *Table) Subscribe(refs []Ref) {
	t.Lock()
	defer t.Unlock()

	for _, r := range refs {
		id := r.Id
		if "" == id {
			id = t.uids[r.Uid]
		}
		if "" == id || "" == r.Uid {
			continue
		}
		t.subscribe(r.Uid, id)
	}
}

func (t *Table) subscribe(u string, id string) {
	t.uids[u] = id
	s, ok := t.subscribers[id]
	if !ok {
		s = make(idSet)
		t.subscribers[id] = s
	}
	s[u] = struct{}{}
	delete(t.pending, id)
}

// Unsubscribe - drop the uids from their entries
//
// returns the ids that lost their last subscriber and the subscription
// edges those entries held, the edges are removed from the table and the
// ids are queued for removal
func (t *Table) Unsubscribe(refs []Ref) ([]string, []Subscription) {
	t.Lock()
	defer t.Unlock()

	released := []string{}
	cascade := []Subscription{}

	for _, r := range refs {
		id := r.Id
		if "" == id {
			id = t.uids[r.Uid]
		}
		if "" == id {
			continue
		}
		if t.uids[r.Uid] == id {
			delete(t.uids, r.Uid)
		}

		s, ok := t.subscribers[id]
		if !ok {
			continue
		}
		if _, held := s[r.Uid]; !held {
			continue
		}
		delete(s, r.Uid)
		if len(s) > 0 {
			continue
		}

		delete(t.subscribers, id)
		for edge := range t.subscriptions[id] {
			cascade = append(cascade, edge)
		}
		delete(t.subscriptions, id)
		t.pending[id] = struct{}{}
		released = append(released, id)
	}

	sort.Slice(cascade, func(i, j int) bool {
		if cascade[i].Kind != cascade[j].Kind {
			return cascade[i].Kind < cascade[j].Kind
		}
		return cascade[i].Uid < cascade[j].Uid
	})

	return released, cascade
}

// AddSubscriptions - record that entry id holds the given uids
func (t *Table) AddSubscriptions(id string, edges []Subscription) {
	if 0 == len(edges) {
		return
	}

	t.Lock()
	defer t.Unlock()

	s, ok := t.subscriptions[id]
	if !ok {
		s = make(map[Subscription]struct{})
		t.subscriptions[id] = s
	}
	for _, e := range edges {
		s[e] = struct{}{}
	}
}

// MarkForRemoval - queue ids that have no subscriber for batched removal
func (t *Table) MarkForRemoval(ids []string) []string {
	t.Lock()
	defer t.Unlock()

	marked := make([]string, 0, len(ids))
	for _, id := range ids {
		if len(t.subscribers[id]) > 0 {
			continue
		}
		t.pending[id] = struct{}{}
		marked = append(marked, id)
	}
	return marked
}

// Prune - delete every pending id, but only once at least minimum are pending
func (t *Table) Prune(minimum int) []string {
	t.Lock()
	defer t.Unlock()

	if 0 == len(t.pending) || len(t.pending) < minimum {
		return nil
	}

	removed := make([]string, 0, len(t.pending))
	for id := range t.pending {
		// may have been re-subscribed through the uid index
		if len(t.subscribers[id]) > 0 {
			continue
		}
		t.remove(id)
		removed = append(removed, id)
	}
	t.pending = make(idSet)

	sort.Strings(removed)
	return removed
}

func (t *Table) remove(id string) {
	delete(t.entries, id)
	delete(t.subscribers, id)
	delete(t.subscriptions, id)
}
