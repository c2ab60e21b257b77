// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package uid_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/entitycache/fault"
	"github.com/bitmark-inc/entitycache/uid"
)

func TestMake(t *testing.T) {
	s := uid.Make("tracks", "42", "feed", 3)
	assert.Equal(t, "kind:tracks-id:42-source:feed-count:3", s, "wrong uid")

	u, err := uid.Parse(s)
	assert.Nil(t, err, "wrong parse")
	assert.Equal(t, uid.Uid{Kind: "tracks", Id: "42", Source: "feed", Count: 3}, u, "wrong parts")
}

func TestParseSourceWithSeparators(t *testing.T) {
	s := uid.Make("tracks", "7", "collection:12-count:x", 1)

	u, err := uid.Parse(s)
	assert.Nil(t, err, "wrong parse")
	assert.Equal(t, "7", u.Id, "wrong id")
	assert.Equal(t, "collection:12-count:x", u.Source, "wrong source")
	assert.Equal(t, uint64(1), u.Count, "wrong count")
}

func TestParseInvalid(t *testing.T) {
	invalid := []string{
		"",
		"tracks:1",
		"kind:tracks-id:1-source:feed",
		"kind:tracks-id:1-source:feed-count:abc",
		"kind:-id:1-source:feed-count:0",
		"kind:tracks-id:-source:feed-count:0",
	}
	for i, s := range invalid {
		_, err := uid.Parse(s)
		assert.Equal(t, fault.ErrInvalidUid, err, "%d: expected invalid uid for %q", i, s)
	}
}

func TestKindId(t *testing.T) {
	assert.Equal(t, "tracks:1", uid.KindId("tracks", "1"), "wrong kind id")
}

func TestAllocatorNext(t *testing.T) {
	a := uid.NewAllocator()

	first := a.Next("tracks", "1", "feed")
	second := a.Next("tracks", "1", "feed")
	other := a.Next("tracks", "1", "profile")

	assert.Equal(t, uid.Make("tracks", "1", "feed", 0), first, "first uid must be deterministic")
	assert.Equal(t, uid.Make("tracks", "1", "feed", 1), second, "second uid must differ")
	assert.Equal(t, uid.Make("tracks", "1", "profile", 0), other, "sources are independent")
}

func TestAllocatorConcurrent(t *testing.T) {
	a := uid.NewAllocator()

	const workers = 8
	const perWorker = 100

	var mutex sync.Mutex
	seen := make(map[string]struct{})

	var wg sync.WaitGroup
	for w := 0; w < workers; w += 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i += 1 {
				u := a.Next("users", "9", "lineup")
				mutex.Lock()
				seen[u] = struct{}{}
				mutex.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker, len(seen), "duplicate uids allocated")
}
