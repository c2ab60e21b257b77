// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package confirmer - ordered confirmation of asynchronous writes
//
// every key owns a FIFO queue of confirmation calls, the head of the queue
// runs with the result of the previous call on the same key and the next
// call only starts after the callback of the previous one has returned
//
//   RequestConfirmation("tracks:1", ...)       one goroutine per active key
//             |                                +-------------------------+
//             +----> channels["tracks:1"] ---> | queue: c1 c2 c3         |
//                                              | lastResult              |
//                                              +-------------------------+
//                                                   |
//                                                   v  confirm(ctx, prev)
//                                              race against timeout
//                                                   |
//                                  success: lastResult = value, onSuccess
//                                  failure: lastResult = Failure, onFailure
//
// a drained key is forgotten, its Done channel closes and a "settled"
// message is broadcast; different keys never wait on each other
package confirmer
