// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/bitmark-inc/entitycache/fault"
	"github.com/bitmark-inc/entitycache/status"
	"github.com/bitmark-inc/entitycache/store"
)

// source recorded in uids when a retrieve does not name one
const (
	DefaultSource = "retrieve"
)

// RetrieveOptions - parameters of one retrieve
type RetrieveOptions struct {
	Kind    string
	Ids     []string
	Fetcher Fetcher

	// optional overrides of the store reads
	SelectFromCache func(ids []string) map[string]store.Metadata
	GetTimestamps   func(ids []string) map[string]time.Time

	// override the registered schema
	IdField        string
	RequiredFields []string

	ForceRefetch   bool
	SetLoading     bool
	DeleteExisting bool // fetched entries replace instead of merge

	OnBeforeAdd func(entities []store.Metadata) []store.Metadata
	OnAfterAdd  func(entities []store.Metadata)

	Source string // call site recorded in the allocated uids
}

// RetrieveResult - cached snapshot of the requested ids
type RetrieveResult struct {
	Entries map[string]store.Metadata // absent ids are omitted
	Uids    map[string]string         // id -> uid now subscribed for this call
}

// Retrieve - return the requested entities, fetching what the cache lacks
//
// only missing kind or fetcher is an error, fetch failures set the status
// of the batch to status.Error and the result holds what the cache has
func (c *Cache) Retrieve(ctx context.Context, options RetrieveOptions) (RetrieveResult, error) {
	result := RetrieveResult{
		Entries: make(map[string]store.Metadata),
		Uids:    make(map[string]string),
	}

	if "" == options.Kind {
		return result, fault.ErrInvalidKind
	}
	if nil == options.Fetcher {
		return result, fault.ErrMissingFetcher
	}

	ids := unique(options.Ids)
	if 0 == len(ids) {
		return result, nil
	}

	kind := options.Kind
	table := c.store.Table(kind)

	source := options.Source
	if "" == source {
		source = DefaultSource
	}
	for _, id := range ids {
		result.Uids[id] = c.uids.Next(kind, id, source)
	}

	selectFromCache := options.SelectFromCache
	if nil == selectFromCache {
		selectFromCache = table.Get
	}
	getTimestamps := options.GetTimestamps
	if nil == getTimestamps {
		getTimestamps = table.Timestamps
	}

	idField, required := c.fields(kind, options.IdField, options.RequiredFields)
	ttl, _ := c.Settings()
	now := time.Now()

	cached := selectFromCache(ids)
	timestamps := getTimestamps(ids)

	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if options.ForceRefetch {
			missing = append(missing, id)
			continue
		}
		m, ok := cached[id]
		if !ok || nil == m || isMissingFields(m, required) {
			missing = append(missing, id)
			continue
		}
		if ts, ok := timestamps[id]; ok && store.Expired(ts, ttl, now) {
			missing = append(missing, id)
		}
	}

	written := make(map[string]struct{})
	if len(missing) > 0 {
		written = c.fetch(ctx, kind, missing, idField, result.Uids, options)
	}

	// holders of entries served from the cache
	refs := make([]store.Ref, 0, len(ids))
	for _, id := range ids {
		if _, ok := written[id]; ok {
			continue
		}
		if table.Has(id) {
			refs = append(refs, store.Ref{Uid: result.Uids[id], Id: id})
		}
	}
	table.Subscribe(refs)

	for id, m := range selectFromCache(ids) {
		if nil != m {
			result.Entries[id] = m
		}
	}

	return result, nil
}

// fetch one batch and write it through
//
// returns the ids written with their uid subscribed
func (c *Cache) fetch(ctx context.Context, kind string, ids []string, idField string, uids map[string]string, options RetrieveOptions) map[string]struct{} {
	written := make(map[string]struct{})

	if options.SetLoading {
		c.SetStatus(kind, ids, status.Loading)
	}

	failed := func(err error) map[string]struct{} {
		c.log.Warnf("kind: %s  fetch of %d ids failed: %s", kind, len(ids), err)
		c.SetStatus(kind, ids, status.Error)
		return written
	}

	if err := c.limiter(kind).Wait(ctx); nil != err {
		return failed(err)
	}

	c.log.Debugf("kind: %s  fetch: %v", kind, ids)

	entities, err := options.Fetcher.Fetch(ctx, ids)
	if nil != err {
		return failed(err)
	}
	if 0 == len(entities) {
		return failed(fault.ErrEmptyResult)
	}

	if nil != options.OnBeforeAdd {
		entities = options.OnBeforeAdd(entities)
	}

	returned := make(map[string]struct{}, len(entities))
	writes := make([]store.Write, 0, len(entities))
	for _, m := range entities {
		v, ok := m[idField]
		if !ok || nil == v {
			c.log.Warnf("kind: %s  fetched entity without field: %q", kind, idField)
			continue
		}
		id := fmt.Sprint(v)
		returned[id] = struct{}{}
		writes = append(writes, store.Write{
			Id:       id,
			Uid:      uids[id],
			Metadata: m,
		})
		if "" != uids[id] {
			written[id] = struct{}{}
		}
	}

	if err := c.Add(kind, writes, options.DeleteExisting, true); nil != err {
		c.log.Errorf("kind: %s  persist error: %s", kind, err)
	}

	if nil != options.OnAfterAdd {
		options.OnAfterAdd(entities)
	}

	succeeded := make([]string, 0, len(ids))
	omitted := make([]string, 0)
	for _, id := range ids {
		if _, ok := returned[id]; ok {
			succeeded = append(succeeded, id)
		} else {
			omitted = append(omitted, id)
		}
	}
	if len(omitted) > 0 {
		c.log.Warnf("kind: %s  source omitted: %v", kind, omitted)
		c.SetStatus(kind, omitted, status.Error)
	}
	c.SetStatus(kind, succeeded, status.Success)
	return written
}

// remove duplicates keeping the first occurrence
func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	u := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		u = append(u, id)
	}
	return u
}
