// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/entitycache/store"
)

func TestSourceFetch(t *testing.T) {
	s := newSource(logger.New("test"), 3, 0, 0, 1)

	entities, err := s.Fetcher(tracksKind).Fetch(context.Background(), []string{"t0", "t2", "t9"})
	assert.Nil(t, err, "fetch error")
	assert.Equal(t, 2, len(entities), "unknown id returned")
	assert.Equal(t, "t0", entities[0]["id"], "wrong first entity")
	assert.Equal(t, "t2", entities[1]["id"], "wrong second entity")

	entities[0]["title"] = "changed"
	again, _ := s.Fetcher(tracksKind).Fetch(context.Background(), []string{"t0"})
	assert.Equal(t, "track 0", again[0]["title"], "source shares its map")

	collections, _ := s.Fetcher(collectionsKind).Fetch(context.Background(), []string{"c1"})
	assert.Equal(t, 5, len(stringList(collections[0]["track_ids"])), "wrong collection size")
}

func TestSourceWriteIsEventuallyVisible(t *testing.T) {
	s := newSource(logger.New("test"), 2, 10*time.Millisecond, 0, 1)
	ctx := context.Background()

	written, err := s.Write(ctx, tracksKind, "t1", store.Metadata{"has_saved": true})
	assert.Nil(t, err, "write error")
	assert.Equal(t, true, written["has_saved"], "write not applied")
	assert.Equal(t, 1, written["save_count"], "count not incremented")

	stale, _ := s.Fetcher(tracksKind).Fetch(ctx, []string{"t1"})
	assert.Equal(t, false, stale[0]["has_saved"], "write visible before lag")

	time.Sleep(50 * time.Millisecond)

	fresh, _ := s.Fetcher(tracksKind).Fetch(ctx, []string{"t1"})
	assert.Equal(t, true, fresh[0]["has_saved"], "write not visible after lag")
}

func TestSourceErrors(t *testing.T) {
	s := newSource(logger.New("test"), 2, 10*time.Millisecond, 0, 1)

	_, err := s.Write(context.Background(), tracksKind, "t7", store.Metadata{})
	assert.Equal(t, errNoSuchEntity, err, "wrong missing entity error")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Fetcher(usersKind).Fetch(ctx, []string{"u0"})
	assert.Equal(t, context.Canceled, err, "cancel ignored")

	failing := newSource(logger.New("test"), 2, 0, 1, 1)
	_, err = failing.Fetcher(usersKind).Fetch(context.Background(), []string{"u0"})
	assert.Equal(t, errSourceFailure, err, "failure rate ignored")
}

func TestStringList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, stringList([]string{"a", "b"}), "string slice")
	assert.Equal(t, []string{"a", "b"}, stringList([]interface{}{"a", 1, "b"}), "decoded slice")
	assert.Nil(t, stringList("a"), "scalar accepted")
}
