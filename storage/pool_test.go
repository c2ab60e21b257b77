// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/entitycache/fault"
	"github.com/bitmark-inc/entitycache/storage"
)

func TestPool(t *testing.T) {
	d := setup(t)
	defer teardown(t, d)

	p := d.Kinds

	assert.Nil(t, p.Put([]byte("key-one"), []byte("data-one")), "put error")
	assert.Nil(t, p.Put([]byte("key-remove-me"), []byte("to be deleted")), "put error")
	assert.Nil(t, p.Delete([]byte("key-remove-me")), "delete error")
	assert.Nil(t, p.Put([]byte("key-one"), []byte("data-one(NEW)")), "put error")

	value, err := p.Get([]byte("key-one"))
	assert.Nil(t, err, "get error")
	assert.Equal(t, []byte("data-one(NEW)"), value, "wrong value")

	value, err = p.Get([]byte("key-remove-me"))
	assert.Nil(t, err, "get error")
	assert.Nil(t, value, "deleted key present")

	ok, err := p.Has([]byte("key-one"))
	assert.Nil(t, err, "has error")
	assert.True(t, ok, "key missing")

	// other pools do not see the key
	ok, _ = d.Entries.Has([]byte("key-one"))
	assert.False(t, ok, "pools overlap")

	elements := []storage.Element{}
	err = p.NewFetchCursor().Map(func(key []byte, value []byte) error {
		elements = append(elements, storage.Element{Key: key, Value: value})
		return nil
	})
	assert.Nil(t, err, "map error")
	assert.Equal(t, []storage.Element{{Key: []byte("key-one"), Value: []byte("data-one(NEW)")}}, elements, "wrong elements")
}

func TestClosed(t *testing.T) {
	d := setup(t)
	defer removeFiles()

	assert.Nil(t, d.Close(), "close error")
	assert.Nil(t, d.Close(), "second close error")

	assert.Equal(t, fault.ErrDatabaseIsClosed, d.Kinds.Put([]byte("k"), []byte("v")), "put on closed database")
	_, err := d.Kinds.Get([]byte("k"))
	assert.Equal(t, fault.ErrDatabaseIsClosed, err, "get on closed database")
	assert.Equal(t, fault.ErrDatabaseIsClosed, d.Kinds.NewFetchCursor().Map(nil), "map on closed database")
}
