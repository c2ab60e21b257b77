// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/entitycache/cache"
	"github.com/bitmark-inc/entitycache/store"
)

// how long a view keeps a collection mounted
const (
	minimumHold = 200 * time.Millisecond
	maximumHold = 2 * time.Second
)

// view - mounts a collection with its tracks and their owners, then
// releases it through the collection uid alone
type view struct {
	log      *logger.L
	name     string
	cache    *cache.Cache
	source   *source
	entities int
	random   *rand.Rand
}

func newView(n int, c *cache.Cache, s *source, entities int) *view {
	name := fmt.Sprintf("view-%d", n)
	return &view{
		log:      logger.New(name),
		name:     name,
		cache:    c,
		source:   s,
		entities: entities,
		random:   rand.New(rand.NewSource(time.Now().UnixNano() + int64(n))),
	}
}

// Run - background process
func (v *view) Run(args interface{}, shutdown <-chan struct{}) {
	log := v.log

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-shutdown
		cancel()
	}()

	log.Info("starting…")

loop:
	for {
		held := v.mount(ctx)
		hold := minimumHold + time.Duration(v.random.Int63n(int64(maximumHold-minimumHold)))

		select {
		case <-shutdown:
			v.unmount(held)
			break loop
		case <-time.After(hold):
		}
		v.unmount(held)
	}

	log.Info("stopped")
}

// returns the refs to release on unmount
func (v *view) mount(ctx context.Context) []store.Ref {
	log := v.log

	if v.entities <= 0 {
		return nil
	}

	cid := collectionId(v.random.Intn(v.entities))
	collections, err := v.cache.Retrieve(ctx, cache.RetrieveOptions{
		Kind:           collectionsKind,
		Ids:            []string{cid},
		Fetcher:        v.source.Fetcher(collectionsKind),
		RequiredFields: []string{"track_ids"},
		SetLoading:     true,
		Source:         v.name,
	})
	if nil != err {
		log.Errorf("retrieve collection: %s  error: %s", cid, err)
		return nil
	}
	held := []store.Ref{{Uid: collections.Uids[cid], Id: cid}}

	collection, ok := collections.Entries[cid]
	if !ok {
		log.Warnf("collection: %s  status: %s", cid, v.cache.Status(collectionsKind, cid))
		return held
	}

	tracks, err := v.cache.Retrieve(ctx, cache.RetrieveOptions{
		Kind:    tracksKind,
		Ids:     stringList(collection["track_ids"]),
		Fetcher: v.source.Fetcher(tracksKind),
		Source:  v.name,
	})
	if nil != err {
		log.Errorf("retrieve tracks of: %s  error: %s", cid, err)
		return held
	}

	owners := make([]string, 0, len(tracks.Entries))
	for _, track := range tracks.Entries {
		if owner, ok := track["owner_id"].(string); ok {
			owners = append(owners, owner)
		}
	}
	users, err := v.cache.Retrieve(ctx, cache.RetrieveOptions{
		Kind:    usersKind,
		Ids:     owners,
		Fetcher: v.source.Fetcher(usersKind),
		Source:  v.name,
	})
	if nil != err {
		log.Errorf("retrieve owners of: %s  error: %s", cid, err)
	}

	trackDependencies := make([]cache.Dependency, 0, len(tracks.Entries))
	trackUids := make([]string, 0, len(tracks.Entries))
	for id, track := range tracks.Entries {
		trackUids = append(trackUids, tracks.Uids[id])

		owner, _ := track["owner_id"].(string)
		if _, ok := users.Entries[owner]; !ok {
			continue
		}
		trackDependencies = append(trackDependencies, cache.Dependency{
			Id:   id,
			Kind: usersKind,
			Uids: []string{users.Uids[owner]},
		})
	}
	sort.Strings(trackUids)

	if err := v.cache.Update(tracksKind, nil, trackDependencies); nil != err {
		log.Errorf("track dependencies error: %s", err)
	}
	err = v.cache.Update(collectionsKind, nil, []cache.Dependency{
		{Id: cid, Kind: tracksKind, Uids: trackUids},
	})
	if nil != err {
		log.Errorf("collection dependencies error: %s", err)
	}

	log.Debugf("mounted: %s  tracks: %d  owners: %d", cid, len(tracks.Entries), len(users.Entries))
	return held
}

func (v *view) unmount(held []store.Ref) {
	if 0 == len(held) {
		return
	}
	v.cache.Unsubscribe(collectionsKind, held)
	v.log.Debugf("unmounted: %v", held)
}

// list fields are []string from the source, []interface{} once restored
func stringList(v interface{}) []string {
	switch l := v.(type) {
	case []string:
		return l
	case []interface{}:
		s := make([]string, 0, len(l))
		for _, item := range l {
			if str, ok := item.(string); ok {
				s = append(s, str)
			}
		}
		return s
	default:
		return nil
	}
}
