// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/entitycache/fault"
)

type sweeper struct {
	log      *logger.L
	cache    *Cache
	interval time.Duration
}

func newSweeper(c *Cache, interval time.Duration) (*sweeper, error) {
	log := logger.New("sweeper")
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}
	return &sweeper{
		log:      log,
		cache:    c,
		interval: interval,
	}, nil
}

func (s *sweeper) Run(args interface{}, shutdown <-chan struct{}) {
	s.log.Infof("starting, interval: %s", s.interval)

	ticker := time.NewTicker(s.interval)
loop:
	for {
		select {
		case now := <-ticker.C:
			if n := s.cache.Sweep(now); n > 0 {
				s.log.Debugf("removed: %d", n)
			}
		case <-shutdown:
			break loop
		}
	}
	ticker.Stop()

	s.log.Info("stopped")
}
