// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package store maintains the normalized entity tables
//
//  ***** Data Structure *****
//
//  Store
//  |___ Table (one per kind)  Key                 Value
//       |___ entries          id                  Entry{Metadata, Timestamp}
//       |___ uids             uid                 id
//       |___ subscribers      id                  set of uid
//       |___ subscriptions    id                  set of Subscription{Kind, Uid}
//       |___ pending          id                  (set) waiting for batched removal
//
//
//   holder uid ---------> id ---------> entry
//                          |
//                          +-- subscriptions --> {kind, uid} in another table
//
//  ***** Purpose *****
//
//  subscribers:
//    every holder of an entry is recorded by its uid, an entry that still
//    has a subscriber is never removed
//
//  subscriptions:
//    edges from an entry to the entries it holds in other tables (e.g. a
//    track holding its owner), released when the entry loses its last
//    subscriber
//
//  pending:
//    ids whose last subscriber has gone, they are deleted together once
//    enough of them have accumulated
package store
