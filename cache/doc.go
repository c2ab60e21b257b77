// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package cache - reference counted entity cache in front of a remote source
//
//  ***** Flow *****
//
//  view ---Retrieve(kind, ids)---> Cache ---> store.Table(kind)
//                                    |
//                                    |  absent, stale, incomplete or forced
//                                    v
//                          rate limiter(kind) ---> Fetcher.Fetch(ids)
//                                    |
//                                    v
//                  Add(kind, writes) ---> confirmation guard
//                                    |        |
//                                    |        +--> confirming: subscribe only
//                                    v
//                            write through (+ Persister)
//
//  ***** Lifetime of an entry *****
//
//  every holder of an entry is a uid, the entry lives while it has at least
//  one subscriber uid
//
//  Unsubscribe ---> last uid gone ---> pending removal ---> Prune once the
//       |                                                   pending set has
//       +--> entries this one depended on lose the uids      reached PruneMin
//            it held, repeated until nothing more is released
//
//  the sweeper moves expired entries without subscribers to pending removal
//  so entries that were never held are eventually collected
//
//  ***** Status *****
//
//  Loading/Success/Error per kind:id in a status.Table, fetch failures only
//  show up here and are never returned to the caller
package cache
