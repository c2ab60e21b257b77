// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/entitycache/cache"
	"github.com/bitmark-inc/entitycache/store"
)

// kinds served by the source
const (
	tracksKind      = "tracks"
	usersKind       = "users"
	collectionsKind = "collections"
)

// errors of the simulated source
var (
	errSourceFailure = errors.New("simulated source failure")
	errNoSuchEntity  = errors.New("no such entity")
)

// reads keep returning the previous value until visibleAt
type sourceRecord struct {
	metadata  store.Metadata
	previous  store.Metadata
	visibleAt time.Time
}

type source struct {
	sync.Mutex
	log         *logger.L
	latency     time.Duration
	lag         time.Duration
	failureRate float64
	random      *rand.Rand
	kinds       map[string]map[string]*sourceRecord
}

func trackId(n int) string      { return fmt.Sprintf("t%d", n) }
func userId(n int) string       { return fmt.Sprintf("u%d", n) }
func collectionId(n int) string { return fmt.Sprintf("c%d", n) }

// create a source with the given number of entities of each kind
func newSource(log *logger.L, entities int, latency time.Duration, failureRate float64, seed int64) *source {
	s := &source{
		log:         log,
		latency:     latency,
		lag:         4 * latency,
		failureRate: failureRate,
		random:      rand.New(rand.NewSource(seed)),
		kinds: map[string]map[string]*sourceRecord{
			tracksKind:      make(map[string]*sourceRecord),
			usersKind:       make(map[string]*sourceRecord),
			collectionsKind: make(map[string]*sourceRecord),
		},
	}

	for i := 0; i < entities; i += 1 {
		s.kinds[usersKind][userId(i)] = &sourceRecord{
			metadata: store.Metadata{
				"id":     userId(i),
				"handle": fmt.Sprintf("user-%d", i),
			},
		}
		s.kinds[tracksKind][trackId(i)] = &sourceRecord{
			metadata: store.Metadata{
				"id":         trackId(i),
				"title":      fmt.Sprintf("track %d", i),
				"owner_id":   userId(s.random.Intn(entities)),
				"has_saved":  false,
				"save_count": 0,
			},
		}

		tracks := make([]string, 0, 5)
		for j := 0; j < 5; j += 1 {
			tracks = append(tracks, trackId(s.random.Intn(entities)))
		}
		s.kinds[collectionsKind][collectionId(i)] = &sourceRecord{
			metadata: store.Metadata{
				"id":        collectionId(i),
				"name":      fmt.Sprintf("collection %d", i),
				"track_ids": tracks,
			},
		}
	}
	return s
}

// Fetcher - read access to one kind
func (s *source) Fetcher(kind string) cache.Fetcher {
	return cache.FetcherFunc(func(ctx context.Context, ids []string) ([]store.Metadata, error) {
		if err := s.wait(ctx); nil != err {
			return nil, err
		}

		s.Lock()
		defer s.Unlock()

		if s.fail() {
			return nil, errSourceFailure
		}

		now := time.Now()
		result := make([]store.Metadata, 0, len(ids))
		for _, id := range ids {
			r, ok := s.kinds[kind][id]
			if !ok {
				continue
			}
			result = append(result, r.visible(now).Clone())
		}
		return result, nil
	})
}

// Write - merge fields into an entity, returns the written entity
func (s *source) Write(ctx context.Context, kind string, id string, fields store.Metadata) (store.Metadata, error) {
	if err := s.wait(ctx); nil != err {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()

	if s.fail() {
		return nil, errSourceFailure
	}

	r, ok := s.kinds[kind][id]
	if !ok {
		return nil, errNoSuchEntity
	}

	now := time.Now()
	next := r.metadata.Clone()
	for k, v := range fields {
		next[k] = v
	}
	if saved, ok := fields["has_saved"].(bool); ok {
		count, _ := next["save_count"].(int)
		if saved {
			count += 1
		} else if count > 0 {
			count -= 1
		}
		next["save_count"] = count
	}

	r.previous = r.visible(now)
	r.metadata = next
	r.visibleAt = now.Add(s.lag)

	s.log.Debugf("write: %s:%s  %v", kind, id, fields)
	return next.Clone(), nil
}

func (r *sourceRecord) visible(now time.Time) store.Metadata {
	if nil != r.previous && now.Before(r.visibleAt) {
		return r.previous
	}
	return r.metadata
}

// caller must hold the lock
func (s *source) fail() bool {
	return s.failureRate > 0 && s.random.Float64() < s.failureRate
}

func (s *source) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}

	s.Lock()
	d := s.latency/2 + time.Duration(s.random.Int63n(int64(s.latency)))
	s.Unlock()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
