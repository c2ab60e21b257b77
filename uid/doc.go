// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package uid - per-reference identifiers for cached entities
//
//  a uid names one holder of one entity:
//
//    kind:tracks-id:42-source:feed-count:3
//     |            |     |           |
//     |            |     |           +-- distinguishes holders on the same source
//     |            |     +-------------- call-site that holds the entity
//     |            +-------------------- entity id
//     +--------------------------------- entity kind (cache table)
//
//  the rendering is a pure function of the four parts, so a uid can be
//  parsed back to find the entity it refers to
package uid
