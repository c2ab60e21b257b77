// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"time"
)

// Expired - check if a write time is older than the ttl
//
// a zero ttl never expires
func Expired(timestamp time.Time, ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return timestamp.Before(now.Add(-ttl))
}

// Unreferenced - ids of expired entries that nobody holds and that are not
// already pending removal
func (t *Table) Unreferenced(ttl time.Duration, now time.Time) []string {
	t.RLock()
	defer t.RUnlock()

	ids := []string{}
	for id, e := range t.entries {
		if len(t.subscribers[id]) > 0 {
			continue
		}
		if _, ok := t.pending[id]; ok {
			continue
		}
		if Expired(e.timestamp, ttl, now) {
			ids = append(ids, id)
		}
	}
	return ids
}
