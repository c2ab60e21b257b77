// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/bitmark-inc/entitycache/fault"
	"github.com/bitmark-inc/entitycache/store"
)

// separates kind from id in an entry key
const separator = 0x00

type record struct {
	Timestamp time.Time      `json:"timestamp"`
	Metadata  store.Metadata `json:"metadata"`
}

func entryKey(kind string, id string) []byte {
	key := make([]byte, 0, len(kind)+1+len(id))
	key = append(key, kind...)
	key = append(key, separator)
	return append(key, id...)
}

func validKind(kind string) bool {
	return "" != kind && -1 == bytes.IndexByte([]byte(kind), separator)
}

// Save - write entries of a kind in one batch
func (d *Database) Save(kind string, entries []store.Entry) error {
	if !validKind(kind) {
		return fault.ErrInvalidKind
	}
	if 0 == len(entries) {
		return nil
	}

	batch := new(leveldb.Batch)
	d.Kinds.batchPut(batch, []byte(kind), []byte{})

	for _, e := range entries {
		value, err := json.Marshal(record{
			Timestamp: e.Timestamp,
			Metadata:  e.Metadata,
		})
		if nil != err {
			return err
		}
		d.Entries.batchPut(batch, entryKey(kind, e.Id), value)
	}

	d.RLock()
	defer d.RUnlock()

	if nil == d.db {
		return fault.ErrDatabaseIsClosed
	}

	err := d.db.Write(batch, nil)
	if nil != err {
		d.log.Errorf("kind: %s  write error: %s", kind, err)
		return err
	}
	d.log.Debugf("kind: %s  saved: %d", kind, len(entries))
	return nil
}

// Load - all saved entries of a kind in id order
func (d *Database) Load(kind string) ([]store.Entry, error) {
	if !validKind(kind) {
		return nil, fault.ErrInvalidKind
	}

	prefix := entryKey(kind, "")
	entries := make([]store.Entry, 0)

	err := d.Entries.NewFetchCursor().Prefix(prefix).Map(func(key []byte, value []byte) error {
		var r record
		if err := json.Unmarshal(value, &r); nil != err {
			return err
		}
		entries = append(entries, store.Entry{
			Id:        string(key[len(prefix):]),
			Metadata:  r.Metadata,
			Timestamp: r.Timestamp,
		})
		return nil
	})
	if nil != err {
		return nil, err
	}
	return entries, nil
}

// Delete - remove saved entries of a kind
func (d *Database) Delete(kind string, ids []string) error {
	if !validKind(kind) {
		return fault.ErrInvalidKind
	}
	for _, id := range ids {
		if err := d.Entries.Delete(entryKey(kind, id)); nil != err {
			return err
		}
	}
	return nil
}

// SavedKinds - every kind that has been saved
func (d *Database) SavedKinds() ([]string, error) {
	kinds := make([]string, 0)
	err := d.Kinds.NewFetchCursor().Map(func(key []byte, value []byte) error {
		kinds = append(kinds, string(key))
		return nil
	})
	if nil != err {
		return nil, err
	}
	sort.Strings(kinds)
	return kinds, nil
}
