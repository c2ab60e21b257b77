// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"math/rand"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/entitycache/cache"
	"github.com/bitmark-inc/entitycache/confirmer"
	"github.com/bitmark-inc/entitycache/store"
	"github.com/bitmark-inc/entitycache/uid"
)

// operation id of save toggles
const (
	saveOperation = "save"
)

// writer - toggles the saved flag of cached tracks optimistically and
// confirms each toggle against the source
type writer struct {
	log       *logger.L
	cache     *cache.Cache
	confirmer *confirmer.Confirmer
	source    *source
	entities  int
	random    *rand.Rand
}

func newWriter(c *cache.Cache, conf *confirmer.Confirmer, s *source, entities int) *writer {
	return &writer{
		log:       logger.New("writer"),
		cache:     c,
		confirmer: conf,
		source:    s,
		entities:  entities,
		random:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Tick - one toggle, for use with background.Ticker
func (w *writer) Tick(now time.Time) {
	if w.entities <= 0 {
		return
	}
	w.toggle(trackId(w.random.Intn(w.entities)))
}

// toggle returns false if the track is not cached
func (w *writer) toggle(id string) bool {
	log := w.log

	current, ok := w.cache.Get(tracksKind, []string{id})[id]
	if !ok {
		return false
	}
	saved := true != current["has_saved"]

	// optimistic value, visible until the confirmation settles
	optimistic := []store.Write{{Id: id, Metadata: store.Metadata{"has_saved": saved}}}
	if err := w.cache.Update(tracksKind, optimistic, nil); nil != err {
		log.Errorf("optimistic write: %s  error: %s", id, err)
		return false
	}

	err := w.confirmer.Request(confirmer.Request{
		Key: uid.KindId(tracksKind, id),
		Confirm: func(ctx context.Context, prev interface{}) (interface{}, error) {
			return w.source.Write(ctx, tracksKind, id, store.Metadata{"has_saved": saved})
		},
		OnSuccess: func(result interface{}) {
			m, ok := result.(store.Metadata)
			if !ok {
				return
			}
			if err := w.cache.Add(tracksKind, []store.Write{{Id: id, Metadata: m}}, true, true); nil != err {
				log.Errorf("confirmed write: %s  error: %s", id, err)
			}
		},
		OnFailure: func(failure confirmer.Failure) {
			log.Warnf("track: %s  save: %v  failed: %s", id, saved, failure)
			revert := []store.Write{{Id: id, Metadata: store.Metadata{"has_saved": !saved}}}
			if err := w.cache.Update(tracksKind, revert, nil); nil != err {
				log.Errorf("revert: %s  error: %s", id, err)
			}
		},
		Options: confirmer.Options{
			OperationId: saveOperation,
			Squashable:  true,
		},
	})
	if nil != err {
		log.Errorf("request confirmation: %s  error: %s", id, err)
		return false
	}

	log.Debugf("track: %s  save: %v", id, saved)
	return true
}
