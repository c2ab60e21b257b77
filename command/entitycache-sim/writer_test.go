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

	"github.com/bitmark-inc/entitycache/cache"
	"github.com/bitmark-inc/entitycache/store"
	"github.com/bitmark-inc/entitycache/uid"
)

func TestWriterConfirmsToggle(t *testing.T) {
	c, pipeline := newPipeline(t)
	defer pipeline.Close(context.Background())

	s := newSource(logger.New("test"), 2, 0, 0, 1)
	_, err := c.Retrieve(context.Background(), cache.RetrieveOptions{
		Kind:    tracksKind,
		Ids:     []string{"t0"},
		Fetcher: s.Fetcher(tracksKind),
	})
	assert.Nil(t, err, "retrieve error")

	w := newWriter(c, pipeline, s, 2)
	assert.True(t, w.toggle("t0"), "toggle not requested")

	waitFor(t, pipeline.Done(uid.KindId(tracksKind, "t0")), "confirmation")

	track := c.Get(tracksKind, []string{"t0"})["t0"]
	assert.Equal(t, true, track["has_saved"], "toggle not kept")
	assert.Equal(t, 1, track["save_count"], "confirmed value not written")
}

func TestWriterRevertsOnFailure(t *testing.T) {
	c, pipeline := newPipeline(t)
	defer pipeline.Close(context.Background())

	s := newSource(logger.New("test"), 2, 0, 1, 1)
	err := c.Add(tracksKind, []store.Write{{Id: "t1", Metadata: store.Metadata{"id": "t1", "has_saved": false}}}, false, false)
	assert.Nil(t, err, "add error")

	w := newWriter(c, pipeline, s, 2)
	assert.True(t, w.toggle("t1"), "toggle not requested")

	waitFor(t, pipeline.Done(uid.KindId(tracksKind, "t1")), "confirmation")

	track := c.Get(tracksKind, []string{"t1"})["t1"]
	assert.Equal(t, false, track["has_saved"], "failed toggle not reverted")
}

func TestWriterSkipsUncached(t *testing.T) {
	c, pipeline := newPipeline(t)
	defer pipeline.Close(context.Background())

	w := newWriter(c, pipeline, newSource(logger.New("test"), 2, 0, 0, 1), 2)
	assert.False(t, w.toggle("t0"), "uncached track toggled")
	assert.Equal(t, 0, len(pipeline.Keys()), "confirmation requested")
}
