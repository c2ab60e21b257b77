// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"time"

	"github.com/bitmark-inc/entitycache/fault"
	"github.com/bitmark-inc/entitycache/store"
)

// Dependency - entry Id of the updated kind holds Uids of Kind
type Dependency struct {
	Id   string
	Kind string
	Uids []string
}

// Add - write entries through and subscribe their uids
//
// unless replace is set, entries with a confirmation in flight keep their
// optimistic metadata and only gain the subscriber; the error is only from
// the persister
func (c *Cache) Add(kind string, writes []store.Write, replace bool, persist bool) error {
	if "" == kind {
		return fault.ErrInvalidKind
	}
	if 0 == len(writes) {
		return nil
	}

	table := c.store.Table(kind)

	through := make([]store.Write, 0, len(writes))
	guarded := make([]store.Ref, 0)
	for _, w := range writes {
		if !replace && c.isConfirming(kind, w.Id) {
			guarded = append(guarded, store.Ref{Uid: w.Uid, Id: w.Id})
			continue
		}
		through = append(through, w)
	}

	ids := table.Put(through, replace, time.Now())
	table.Subscribe(guarded)

	if len(guarded) > 0 {
		c.log.Debugf("kind: %s  confirming, kept: %d", kind, len(guarded))
	}

	if !persist {
		return nil
	}
	return c.persist(kind, ids)
}

// Update - merge metadata into cached entries and record what they depend on
//
// entries not in the cache are ignored
func (c *Cache) Update(kind string, writes []store.Write, dependencies []Dependency) error {
	if "" == kind {
		return fault.ErrInvalidKind
	}

	table := c.store.Table(kind)

	existing := make([]store.Write, 0, len(writes))
	for _, w := range writes {
		if table.Has(w.Id) {
			existing = append(existing, w)
		}
	}
	table.Merge(existing, time.Now())

	for _, d := range dependencies {
		if "" == d.Kind {
			return fault.ErrInvalidKind
		}
		edges := make([]store.Subscription, 0, len(d.Uids))
		for _, u := range d.Uids {
			edges = append(edges, store.Subscription{Kind: d.Kind, Uid: u})
		}
		table.AddSubscriptions(d.Id, edges)
	}
	return nil
}

// Restore - reload persisted entries of a kind with their original timestamps
func (c *Cache) Restore(kind string) (int, error) {
	c.RLock()
	p := c.persister
	c.RUnlock()

	if nil == p {
		return 0, fault.ErrNotInitialised
	}

	entries, err := p.Load(kind)
	if nil != err {
		return 0, err
	}

	n := c.store.Table(kind).Load(entries)
	c.log.Infof("kind: %s  restored: %d of %d", kind, n, len(entries))
	return n, nil
}

func (c *Cache) persist(kind string, ids []string) error {
	c.RLock()
	p := c.persister
	c.RUnlock()

	if nil == p || 0 == len(ids) {
		return nil
	}

	entries := c.store.Table(kind).Entries(ids)
	if err := p.Save(kind, entries); nil != err {
		c.log.Criticalf("kind: %s  save error: %s", kind, err)
		return err
	}
	return nil
}
