// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/entitycache/background"
	"github.com/bitmark-inc/entitycache/fault"
	"github.com/bitmark-inc/entitycache/messagebus"
	"github.com/bitmark-inc/entitycache/status"
	"github.com/bitmark-inc/entitycache/store"
	"github.com/bitmark-inc/entitycache/uid"
)

// commands broadcast on the bus
const (
	StatusCommand  = "status"
	RemovedCommand = "removed"
)

// defaults for a zero configuration field
const (
	DefaultTTL           = 5 * time.Minute
	DefaultPruneMin      = 5
	DefaultStatusExpiry  = 10 * time.Minute
	DefaultSweepInterval = time.Minute
)

// Fetcher - the remote source of one kind of entity
type Fetcher interface {
	Fetch(ctx context.Context, ids []string) ([]store.Metadata, error)
}

// FetcherFunc - adapt a function to Fetcher
type FetcherFunc func(ctx context.Context, ids []string) ([]store.Metadata, error)

// Fetch - call f
func (f FetcherFunc) Fetch(ctx context.Context, ids []string) ([]store.Metadata, error) {
	return f(ctx, ids)
}

// ConfirmationGuard - reports keys with optimistic writes in flight
type ConfirmationGuard interface {
	IsConfirming(key string) bool
}

// Persister - durable copy of written entries
type Persister interface {
	Save(kind string, entries []store.Entry) error
	Load(kind string) ([]store.Entry, error)
	Close() error
}

// Configuration - cache settings, zero values select the defaults
type Configuration struct {
	TTL           time.Duration
	PruneMin      int
	StatusExpiry  time.Duration
	SweepInterval time.Duration
	FetchRate     float64 // fetches per second per kind, zero is unlimited
	FetchBurst    int
}

// Cache - the entity cache
type Cache struct {
	sync.RWMutex

	log      *logger.L
	store    *store.Store
	guard    ConfirmationGuard
	statuses *status.Table
	uids     *uid.Allocator

	ttl           time.Duration
	pruneMin      int
	sweepInterval time.Duration
	fetchLimit    rate.Limit
	fetchBurst    int
	limiters      map[string]*rate.Limiter
	schemas       map[string]Schema

	persister  Persister
	bus        *messagebus.BroadcastQueue
	background *background.T
}

// New - create a cache over a store
//
// guard may be nil when nothing writes optimistically
func New(s *store.Store, guard ConfirmationGuard, configuration Configuration) (*Cache, error) {
	if nil == s {
		return nil, fault.ErrMissingStore
	}
	if configuration.TTL < 0 || configuration.StatusExpiry < 0 || configuration.SweepInterval < 0 {
		return nil, fault.ErrInvalidDuration
	}
	if configuration.PruneMin < 0 || configuration.FetchRate < 0 || configuration.FetchBurst < 0 {
		return nil, fault.ErrInvalidConfiguration
	}

	log := logger.New("cache")
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}

	ttl := configuration.TTL
	if 0 == ttl {
		ttl = DefaultTTL
	}
	pruneMin := configuration.PruneMin
	if 0 == pruneMin {
		pruneMin = DefaultPruneMin
	}
	statusExpiry := configuration.StatusExpiry
	if 0 == statusExpiry {
		statusExpiry = DefaultStatusExpiry
	}
	sweepInterval := configuration.SweepInterval
	if 0 == sweepInterval {
		sweepInterval = DefaultSweepInterval
	}

	fetchLimit := rate.Inf
	fetchBurst := configuration.FetchBurst
	if configuration.FetchRate > 0 {
		fetchLimit = rate.Limit(configuration.FetchRate)
		if 0 == fetchBurst {
			fetchBurst = 1
		}
	}

	c := &Cache{
		log:           log,
		store:         s,
		guard:         guard,
		statuses:      status.New(statusExpiry, statusExpiry/2),
		uids:          uid.NewAllocator(),
		ttl:           ttl,
		pruneMin:      pruneMin,
		sweepInterval: sweepInterval,
		fetchLimit:    fetchLimit,
		fetchBurst:    fetchBurst,
		limiters:      make(map[string]*rate.Limiter),
		schemas:       make(map[string]Schema),
	}

	log.Infof("ttl: %s  prune minimum: %d  fetch rate: %v", ttl, pruneMin, fetchLimit)

	return c, nil
}

// SetPersister - save entries written with persist set
func (c *Cache) SetPersister(p Persister) {
	c.Lock()
	c.persister = p
	c.Unlock()
}

// SetBus - broadcast status changes and removals
func (c *Cache) SetBus(bus *messagebus.BroadcastQueue) {
	c.Lock()
	c.bus = bus
	c.Unlock()
}

// Store - the underlying store
func (c *Cache) Store() *store.Store {
	return c.store
}

// Reconfigure - change ttl and prune minimum of a running cache
//
// a zero prune minimum selects DefaultPruneMin as in New
func (c *Cache) Reconfigure(ttl time.Duration, pruneMin int) error {
	if ttl <= 0 {
		return fault.ErrInvalidDuration
	}
	if pruneMin < 0 {
		return fault.ErrInvalidConfiguration
	}
	if 0 == pruneMin {
		pruneMin = DefaultPruneMin
	}

	c.Lock()
	c.ttl = ttl
	c.pruneMin = pruneMin
	c.Unlock()

	c.log.Infof("reconfigured: ttl: %s  prune minimum: %d", ttl, pruneMin)
	return nil
}

// Settings - the current ttl and prune minimum
func (c *Cache) Settings() (time.Duration, int) {
	c.RLock()
	defer c.RUnlock()
	return c.ttl, c.pruneMin
}

// Start - run the sweeper in the background
func (c *Cache) Start() error {
	c.Lock()
	defer c.Unlock()

	if nil != c.background {
		return fault.ErrAlreadyInitialised
	}

	sweep, err := newSweeper(c, c.sweepInterval)
	if nil != err {
		return err
	}

	c.background = background.Start(background.Processes{sweep}, nil)
	return nil
}

// Stop - stop the sweeper
func (c *Cache) Stop() {
	c.Lock()
	b := c.background
	c.background = nil
	c.Unlock()

	b.Stop()
	c.log.Flush()
}

// SetStatus - set the status of ids
func (c *Cache) SetStatus(kind string, ids []string, s status.Status) {
	if 0 == len(ids) {
		return
	}
	c.statuses.Set(kind, ids, s)
	c.broadcast(StatusCommand, kind, c.statuses.Statuses(kind, ids))
}

// Status - the status of one id
func (c *Cache) Status(kind string, id string) status.Status {
	return c.statuses.Get(kind, id)
}

// Statuses - the known statuses of ids
func (c *Cache) Statuses(kind string, ids []string) map[string]status.Status {
	return c.statuses.Statuses(kind, ids)
}

// Get - cached metadata of ids, absent ids are omitted
func (c *Cache) Get(kind string, ids []string) map[string]store.Metadata {
	return c.store.Table(kind).Get(ids)
}

func (c *Cache) isConfirming(kind string, id string) bool {
	if nil == c.guard {
		return false
	}
	return c.guard.IsConfirming(uid.KindId(kind, id))
}

func (c *Cache) limiter(kind string) *rate.Limiter {
	c.Lock()
	defer c.Unlock()

	l, ok := c.limiters[kind]
	if !ok {
		l = rate.NewLimiter(c.fetchLimit, c.fetchBurst)
		c.limiters[kind] = l
	}
	return l
}

func (c *Cache) broadcast(command string, kind string, item interface{}) {
	c.RLock()
	bus := c.bus
	c.RUnlock()

	bus.Send(command, kind, item)
}
