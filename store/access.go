// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"sort"
	"time"
)

// Get - copies of the metadata of the ids that are present
func (t *Table) Get(ids []string) map[string]Metadata {
	t.RLock()
	defer t.RUnlock()

	m := make(map[string]Metadata, len(ids))
	for _, id := range ids {
		if e, ok := t.entries[id]; ok {
			m[id] = e.metadata.Clone()
		}
	}
	return m
}

// Entry - a single entry snapshot
func (t *Table) Entry(id string) (Entry, bool) {
	t.RLock()
	defer t.RUnlock()

	e, ok := t.entries[id]
	if !ok {
		return Entry{}, false
	}
	return Entry{
		Id:        id,
		Metadata:  e.metadata.Clone(),
		Timestamp: e.timestamp,
	}, true
}

// Entries - snapshots of the given ids, or of every entry when ids is nil
func (t *Table) Entries(ids []string) []Entry {
	t.RLock()
	defer t.RUnlock()

	if nil == ids {
		ids = make([]string, 0, len(t.entries))
		for id := range t.entries {
			ids = append(ids, id)
		}
		sort.Strings(ids)
	}

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		if e, ok := t.entries[id]; ok {
			entries = append(entries, Entry{
				Id:        id,
				Metadata:  e.metadata.Clone(),
				Timestamp: e.timestamp,
			})
		}
	}
	return entries
}

// Timestamps - last write time of the ids that are present
func (t *Table) Timestamps(ids []string) map[string]time.Time {
	t.RLock()
	defer t.RUnlock()

	m := make(map[string]time.Time, len(ids))
	for _, id := range ids {
		if e, ok := t.entries[id]; ok {
			m[id] = e.timestamp
		}
	}
	return m
}

// Has - check if an entry is present
func (t *Table) Has(id string) bool {
	t.RLock()
	defer t.RUnlock()

	_, ok := t.entries[id]
	return ok
}

// Lookup - the id a uid refers to
func (t *Table) Lookup(u string) (string, bool) {
	t.RLock()
	defer t.RUnlock()

	id, ok := t.uids[u]
	return id, ok
}

// Subscribers - sorted uids holding an entry
func (t *Table) Subscribers(id string) []string {
	t.RLock()
	defer t.RUnlock()

	s := t.subscribers[id]
	uids := make([]string, 0, len(s))
	for u := range s {
		uids = append(uids, u)
	}
	sort.Strings(uids)
	return uids
}

// Subscriptions - the edges an entry holds into other tables
func (t *Table) Subscriptions(id string) []Subscription {
	t.RLock()
	defer t.RUnlock()

	s := t.subscriptions[id]
	edges := make([]Subscription, 0, len(s))
	for e := range s {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Kind != edges[j].Kind {
			return edges[i].Kind < edges[j].Kind
		}
		return edges[i].Uid < edges[j].Uid
	})
	return edges
}

// Pending - sorted ids waiting for removal
func (t *Table) Pending() []string {
	t.RLock()
	defer t.RUnlock()

	ids := make([]string, 0, len(t.pending))
	for id := range t.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len - number of entries
func (t *Table) Len() int {
	t.RLock()
	defer t.RUnlock()

	return len(t.entries)
}
