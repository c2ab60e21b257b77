// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"
)

func TestViewMountAndRelease(t *testing.T) {
	c, _ := newPipeline(t)
	s := newSource(logger.New("test"), 4, 0, 0, 1)
	v := newView(0, c, s, 4)

	held := v.mount(context.Background())
	assert.Equal(t, 1, len(held), "wrong held refs")

	tables := c.Store()
	cid := held[0].Id
	assert.Equal(t, []string{held[0].Uid}, tables.Table(collectionsKind).Subscribers(cid), "collection not held")

	tracks := tables.Table(tracksKind)
	users := tables.Table(usersKind)
	assert.True(t, tracks.Len() > 0, "no tracks cached")
	assert.True(t, users.Len() > 0, "no owners cached")

	for _, id := range stringList(c.Get(collectionsKind, []string{cid})[cid]["track_ids"]) {
		assert.Equal(t, 1, len(tracks.Subscribers(id)), "track %s not held", id)
	}

	v.unmount(held)

	assert.Equal(t, 0, len(tables.Table(collectionsKind).Subscribers(cid)), "collection still held")
	for _, e := range tracks.Entries(nil) {
		assert.Equal(t, 0, len(tracks.Subscribers(e.Id)), "track %s still held", e.Id)
	}
	for _, e := range users.Entries(nil) {
		assert.Equal(t, 0, len(users.Subscribers(e.Id)), "user %s still held", e.Id)
	}
}

func TestViewFetchFailure(t *testing.T) {
	c, _ := newPipeline(t)
	s := newSource(logger.New("test"), 4, 0, 1, 1)
	v := newView(1, c, s, 4)

	held := v.mount(context.Background())
	assert.Equal(t, 1, len(held), "collection uid not returned")
	assert.Equal(t, 0, c.Store().Table(collectionsKind).Len(), "failed fetch cached")

	v.unmount(held)
}
