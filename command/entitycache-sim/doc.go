// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// entitycache-sim - drive the entity cache and the confirmer against a
// simulated source
//
// a number of views mount a random collection with its tracks and their
// owners, hold them for a while and release them; a writer toggles the
// saved flag of random tracks optimistically and confirms the write against
// the source, which only shows the new value after a lag
//
// the configuration file is watched, ttl and prune minimum changes are
// applied while running
package main
