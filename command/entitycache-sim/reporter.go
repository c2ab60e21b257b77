// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"sort"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/entitycache/cache"
	"github.com/bitmark-inc/entitycache/messagebus"
)

const (
	reportInterval = 10 * time.Second
)

// reporter - counts bus messages and logs cache sizes
type reporter struct {
	log      *logger.L
	bus      *messagebus.BroadcastQueue
	cache    *cache.Cache
	interval time.Duration
}

func newReporter(bus *messagebus.BroadcastQueue, c *cache.Cache) *reporter {
	return &reporter{
		log:      logger.New("reporter"),
		bus:      bus,
		cache:    c,
		interval: reportInterval,
	}
}

// Run - background process
func (r *reporter) Run(args interface{}, shutdown <-chan struct{}) {
	log := r.log

	queue := r.bus.Chan(messagebus.DefaultQueueSize)
	defer r.bus.Release(queue)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	counts := make(map[string]int)

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case m := <-queue:
			counts[m.Command] += 1
			log.Debugf("%s: %s  %v", m.Command, m.Key, m.Item)
		case <-ticker.C:
			r.report(counts)
			counts = make(map[string]int)
		}
	}
	r.report(counts)
}

func (r *reporter) report(counts map[string]int) {
	commands := make([]string, 0, len(counts))
	for c := range counts {
		commands = append(commands, c)
	}
	sort.Strings(commands)
	for _, c := range commands {
		r.log.Infof("messages: %s: %d", c, counts[c])
	}

	s := r.cache.Store()
	for _, kind := range s.Kinds() {
		t := s.Table(kind)
		r.log.Infof("kind: %s  entries: %d  pending: %d", kind, t.Len(), len(t.Pending()))
	}
}
