// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package messagebus - a broadcast queue for cache and confirmation events
//
// every listener gets its own channel, a listener that does not keep up
// loses messages rather than blocking the sender
package messagebus
