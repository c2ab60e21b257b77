// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/entitycache/store"
)

var now = time.Date(2016, time.November, 18, 0, 0, 0, 0, time.UTC)

func TestTableCreatedOnce(t *testing.T) {
	s := store.New()

	var wg sync.WaitGroup
	tables := make([]*store.Table, 10)
	for i := range tables {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tables[n] = s.Table("tracks")
		}(i)
	}
	wg.Wait()

	for i, table := range tables {
		assert.Equal(t, tables[0], table, "%d: different table instance", i)
	}
	assert.Equal(t, []string{"tracks"}, s.Kinds(), "wrong kinds")
}

func TestPutMergesUnlessReplace(t *testing.T) {
	table := store.New().Table("tracks")

	table.Put([]store.Write{{Id: "1", Uid: "111", Metadata: store.Metadata{"oldValue": 10}}}, false, now)
	table.Put([]store.Write{{Id: "1", Uid: "222", Metadata: store.Metadata{"newValue": 20}}}, false, now)

	e, ok := table.Entry("1")
	assert.True(t, ok, "entry missing")
	assert.Equal(t, store.Metadata{"oldValue": 10, "newValue": 20}, e.Metadata, "wrong merged metadata")
	assert.Equal(t, now, e.Timestamp, "wrong timestamp")
	assert.Equal(t, []string{"111", "222"}, table.Subscribers("1"), "wrong subscribers")

	later := now.Add(time.Minute)
	table.Put([]store.Write{{Id: "1", Uid: "222", Metadata: store.Metadata{"newValue": 21}}}, true, later)

	e, _ = table.Entry("1")
	assert.Equal(t, store.Metadata{"newValue": 21}, e.Metadata, "replace must overwrite")
	assert.Equal(t, later, e.Timestamp, "replace must refresh timestamp")
}

func TestPutReplaceIsIdempotent(t *testing.T) {
	writes := []store.Write{
		{Id: "1", Uid: "111", Metadata: store.Metadata{"title": "A"}},
		{Id: "2", Uid: "222", Metadata: store.Metadata{"title": "B"}},
	}

	once := store.New().Table("tracks")
	once.Put(writes, true, now)

	twice := store.New().Table("tracks")
	twice.Put(writes, true, now)
	twice.Put(writes, true, now)

	assert.Equal(t, once.Entries(nil), twice.Entries(nil), "entries differ")
	for _, id := range []string{"1", "2"} {
		assert.Equal(t, once.Subscribers(id), twice.Subscribers(id), "subscribers of %s differ", id)
	}
}

func TestMetadataIsCopied(t *testing.T) {
	table := store.New().Table("users")

	m := store.Metadata{"name": "a"}
	table.Put([]store.Write{{Id: "1", Metadata: m}}, false, now)
	m["name"] = "changed"

	got := table.Get([]string{"1"})
	assert.Equal(t, "a", got["1"]["name"], "table shares caller map")

	got["1"]["name"] = "changed again"
	e, _ := table.Entry("1")
	assert.Equal(t, "a", e.Metadata["name"], "caller shares table map")
}

func TestSubscribeUnsubscribe(t *testing.T) {
	table := store.New().Table("tracks")
	table.Put([]store.Write{{Id: "1", Metadata: store.Metadata{"data": 10}}}, false, now)

	table.Subscribe([]store.Ref{{Uid: "A", Id: "1"}})
	assert.Equal(t, []string{"A"}, table.Subscribers("1"), "wrong subscribers")

	id, ok := table.Lookup("A")
	assert.True(t, ok, "uid not indexed")
	assert.Equal(t, "1", id, "wrong uid index")

	released, cascade := table.Unsubscribe([]store.Ref{{Uid: "A", Id: "1"}})
	assert.Equal(t, []string{"1"}, released, "wrong released ids")
	assert.Equal(t, 0, len(cascade), "unexpected cascade")
	assert.Equal(t, 0, len(table.Subscribers("1")), "subscribers not empty")
	assert.Equal(t, []string{"1"}, table.Pending(), "id not pending")
	assert.True(t, table.Has("1"), "entry removed too early")

	_, ok = table.Lookup("A")
	assert.False(t, ok, "uid still indexed")
}

func TestUnsubscribeByUidOnly(t *testing.T) {
	table := store.New().Table("tracks")
	table.Put([]store.Write{
		{Id: "1", Uid: "111", Metadata: store.Metadata{}},
		{Id: "1", Uid: "222", Metadata: store.Metadata{}},
	}, false, now)

	released, _ := table.Unsubscribe([]store.Ref{{Uid: "222"}})
	assert.Equal(t, 0, len(released), "entry still held")
	assert.Equal(t, []string{"111"}, table.Subscribers("1"), "wrong subscribers")
}

func TestUnsubscribeUnknownIsNoop(t *testing.T) {
	table := store.New().Table("tracks")
	table.Put([]store.Write{{Id: "1", Uid: "111", Metadata: store.Metadata{}}}, false, now)

	released, cascade := table.Unsubscribe([]store.Ref{
		{Uid: "never-subscribed"},
		{Uid: "never-subscribed", Id: "1"},
		{Uid: "111", Id: "404"},
	})
	assert.Equal(t, 0, len(released), "unexpected release")
	assert.Equal(t, 0, len(cascade), "unexpected cascade")
	assert.Equal(t, []string{"111"}, table.Subscribers("1"), "subscriber lost")
	assert.Equal(t, 0, len(table.Pending()), "unexpected pending")
}

func TestUnsubscribeReturnsEdges(t *testing.T) {
	collections := store.New().Table("collections")
	collections.Put([]store.Write{{Id: "1", Uid: "444", Metadata: store.Metadata{}}}, false, now)
	collections.AddSubscriptions("1", []store.Subscription{
		{Kind: "tracks", Uid: "222"},
		{Kind: "tracks", Uid: "111"},
		{Kind: "tracks", Uid: "111"},
	})

	assert.Equal(t, []store.Subscription{
		{Kind: "tracks", Uid: "111"},
		{Kind: "tracks", Uid: "222"},
	}, collections.Subscriptions("1"), "wrong subscriptions")

	released, cascade := collections.Unsubscribe([]store.Ref{{Uid: "444", Id: "1"}})
	assert.Equal(t, []string{"1"}, released, "wrong released")
	assert.Equal(t, []store.Subscription{
		{Kind: "tracks", Uid: "111"},
		{Kind: "tracks", Uid: "222"},
	}, cascade, "wrong cascade")
	assert.Equal(t, 0, len(collections.Subscriptions("1")), "edges not cleared")
}

func TestPruneWaitsForMinimum(t *testing.T) {
	table := store.New().Table("tracks")
	table.Put([]store.Write{
		{Id: "1", Uid: "a", Metadata: store.Metadata{}},
		{Id: "2", Uid: "b", Metadata: store.Metadata{}},
		{Id: "3", Uid: "c", Metadata: store.Metadata{}},
	}, false, now)

	table.Unsubscribe([]store.Ref{{Uid: "a"}, {Uid: "b"}})
	assert.Nil(t, table.Prune(3), "pruned below minimum")
	assert.Equal(t, 3, table.Len(), "entries removed below minimum")

	table.Unsubscribe([]store.Ref{{Uid: "c"}})
	assert.Equal(t, []string{"1", "2", "3"}, table.Prune(3), "wrong pruned ids")
	assert.Equal(t, 0, table.Len(), "entries not removed")
	assert.Equal(t, 0, len(table.Pending()), "pending not cleared")
}

func TestPruneSkipsResubscribed(t *testing.T) {
	table := store.New().Table("tracks")
	table.Put([]store.Write{
		{Id: "1", Uid: "a", Metadata: store.Metadata{}},
		{Id: "2", Uid: "b", Metadata: store.Metadata{}},
	}, false, now)

	table.Unsubscribe([]store.Ref{{Uid: "a"}, {Uid: "b"}})
	table.Subscribe([]store.Ref{{Uid: "a2", Id: "1"}})

	assert.Equal(t, []string{"2"}, table.Pending(), "subscribe must clear pending")
	assert.Equal(t, []string{"2"}, table.Prune(1), "wrong pruned ids")
	assert.True(t, table.Has("1"), "held entry removed")
}

func TestMarkForRemoval(t *testing.T) {
	table := store.New().Table("tracks")
	table.Put([]store.Write{
		{Id: "1", Uid: "a", Metadata: store.Metadata{}},
		{Id: "2", Metadata: store.Metadata{}},
	}, false, now)

	marked := table.MarkForRemoval([]string{"1", "2"})
	assert.Equal(t, []string{"2"}, marked, "held entry marked")
	assert.Equal(t, []string{"2"}, table.Pending(), "wrong pending")
}

func TestTimestampsAndExpiry(t *testing.T) {
	table := store.New().Table("tracks")
	table.Put([]store.Write{{Id: "1", Metadata: store.Metadata{}}}, false, now)
	table.Put([]store.Write{{Id: "2", Uid: "held", Metadata: store.Metadata{}}}, false, now)

	ts := table.Timestamps([]string{"1", "2", "3"})
	assert.Equal(t, 2, len(ts), "wrong timestamp count")
	assert.Equal(t, now, ts["1"], "wrong timestamp")

	assert.False(t, store.Expired(now, 5*time.Minute, now.Add(5*time.Minute)), "expired at ttl boundary")
	assert.True(t, store.Expired(now, 5*time.Minute, now.Add(5*time.Minute+time.Second)), "not expired after ttl")
	assert.False(t, store.Expired(now, 0, now.Add(time.Hour)), "zero ttl expired")

	assert.Equal(t, []string{"1"}, table.Unreferenced(time.Minute, now.Add(time.Hour)), "wrong unreferenced ids")
	assert.Equal(t, 0, len(table.Unreferenced(time.Minute, now)), "fresh entries reported")
}

func TestLoadKeepsNewer(t *testing.T) {
	table := store.New().Table("users")
	table.Put([]store.Write{{Id: "1", Metadata: store.Metadata{"name": "fresh"}}}, false, now)

	n := table.Load([]store.Entry{
		{Id: "1", Metadata: store.Metadata{"name": "old"}, Timestamp: now.Add(-time.Hour)},
		{Id: "2", Metadata: store.Metadata{"name": "restored"}, Timestamp: now.Add(-time.Hour)},
	})
	assert.Equal(t, 1, n, "wrong loaded count")

	got := table.Get([]string{"1", "2"})
	assert.Equal(t, "fresh", got["1"]["name"], "newer entry overwritten")
	assert.Equal(t, "restored", got["2"]["name"], "entry not restored")
}
