// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package status - lifecycle status of cached ids for outside observers
//
// the cache only ever writes here, views read the status to decide
// whether to show a spinner or an error
package status

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/bitmark-inc/entitycache/uid"
)

// Status - lifecycle of one id
type Status int

// possible status values
const (
	Unknown Status = iota
	Loading
	Success
	Error
)

// String - text form of a status
func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText - status as text for JSON output
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Table - status per kind:id, entries fade after the expiry period
type Table struct {
	items *cache.Cache
}

// New - create a status table
//
// expiry of zero keeps statuses until they are deleted
func New(expiry time.Duration, cleanupInterval time.Duration) *Table {
	if expiry <= 0 {
		expiry = cache.NoExpiration
	}
	return &Table{
		items: cache.New(expiry, cleanupInterval),
	}
}

// Set - set the same status on several ids
func (t *Table) Set(kind string, ids []string, s Status) {
	for _, id := range ids {
		t.items.Set(uid.KindId(kind, id), s, cache.DefaultExpiration)
	}
}

// Get - the status of one id
func (t *Table) Get(kind string, id string) Status {
	v, ok := t.items.Get(uid.KindId(kind, id))
	if !ok {
		return Unknown
	}
	return v.(Status)
}

// Statuses - the known statuses of several ids
func (t *Table) Statuses(kind string, ids []string) map[string]Status {
	m := make(map[string]Status, len(ids))
	for _, id := range ids {
		if s := t.Get(kind, id); Unknown != s {
			m[id] = s
		}
	}
	return m
}

// Delete - forget the status of ids
func (t *Table) Delete(kind string, ids []string) {
	for _, id := range ids {
		t.items.Delete(uid.KindId(kind, id))
	}
}

// Count - number of ids with a status
func (t *Table) Count() int {
	return t.items.ItemCount()
}
