// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"sort"
	"time"

	"github.com/bitmark-inc/entitycache/store"
)

// Subscribe - add holders to entries of a kind
func (c *Cache) Subscribe(kind string, refs []store.Ref) {
	c.store.Table(kind).Subscribe(refs)
}

// Unsubscribe - remove holders and release whatever they kept alive
//
// entries losing their last holder drop the uids they held in other
// kinds, which may release further entries; every kind touched is pruned
func (c *Cache) Unsubscribe(kind string, refs []store.Ref) {
	type work struct {
		kind string
		refs []store.Ref
	}

	queue := []work{{kind: kind, refs: refs}}
	touched := make(map[string]struct{})

	for len(queue) > 0 {
		w := queue[0]
		queue = queue[1:]

		released, cascade := c.store.Table(w.kind).Unsubscribe(w.refs)
		if 0 == len(released) {
			continue
		}
		touched[w.kind] = struct{}{}
		c.log.Debugf("kind: %s  released: %v", w.kind, released)

		// group by kind, cascade is sorted by kind
		for i := 0; i < len(cascade); {
			j := i
			next := work{kind: cascade[i].Kind}
			for ; j < len(cascade) && cascade[j].Kind == next.kind; j += 1 {
				next.refs = append(next.refs, store.Ref{Uid: cascade[j].Uid})
			}
			queue = append(queue, next)
			i = j
		}
	}

	kinds := make([]string, 0, len(touched))
	for k := range touched {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	for _, k := range kinds {
		c.Prune(k)
	}
}

// Remove - queue unheld ids for removal and prune
func (c *Cache) Remove(kind string, ids []string) {
	marked := c.store.Table(kind).MarkForRemoval(ids)
	if len(marked) != len(ids) {
		c.log.Debugf("kind: %s  still held: %d", kind, len(ids)-len(marked))
	}
	c.Prune(kind)
}

// Prune - remove the pending ids of a kind once there are enough of them
func (c *Cache) Prune(kind string) []string {
	_, pruneMin := c.Settings()

	removed := c.store.Table(kind).Prune(pruneMin)
	if 0 == len(removed) {
		return removed
	}

	c.statuses.Delete(kind, removed)
	c.broadcast(RemovedCommand, kind, removed)
	c.log.Debugf("kind: %s  pruned: %d", kind, len(removed))
	return removed
}

// Sweep - move expired unheld entries of every kind to pending removal and
// prune, returns the number of entries removed
func (c *Cache) Sweep(now time.Time) int {
	ttl, _ := c.Settings()

	n := 0
	for _, kind := range c.store.Kinds() {
		table := c.store.Table(kind)
		if expired := table.Unreferenced(ttl, now); len(expired) > 0 {
			table.MarkForRemoval(expired)
		}
		n += len(c.Prune(kind))
	}
	return n
}
