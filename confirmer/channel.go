// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package confirmer

import (
	"sync"
)

// held success callback of a UseOnlyLastSuccessCall operation
type heldSuccess struct {
	operationId string
	callback    SuccessFunc
	value       interface{}
}

// the queue of one key
type channel struct {
	sync.Mutex
	key        string
	queue      []*Request
	running    int
	claimed    int // head calls already handed to the actor
	lastResult interface{}
	held       []heldSuccess
	done       chan struct{}
}

func newChannel(key string) *channel {
	return &channel{
		key:   key,
		queue: make([]*Request, 0, 4),
		done:  make(chan struct{}),
	}
}

// append a request, squashing trailing waiting calls it replaces
//
// returns the number of squashed calls
func (ch *channel) push(r *Request) int {
	ch.Lock()
	defer ch.Unlock()

	// an idle channel starts the new head at once
	if 0 == len(ch.queue) && 0 == ch.running {
		ch.claimed = 1
	}

	squashed := 0
	if r.Options.Squashable {
		for n := len(ch.queue); n > ch.claimed && r.squashes(ch.queue[n-1]); n -= 1 {
			ch.queue[n-1] = nil
			ch.queue = ch.queue[:n-1]
			squashed += 1
		}
	}
	ch.queue = append(ch.queue, r)
	return squashed
}

// take the next batch to run and the value to pass to it
//
// a batch is a single call or a run of parallelizable calls that share
// an operation id
func (ch *channel) next() ([]*Request, interface{}) {
	ch.Lock()
	defer ch.Unlock()

	if 0 == len(ch.queue) {
		return nil, nil
	}

	n := 1
	for n < len(ch.queue) && ch.queue[0].runsWith(ch.queue[n]) {
		n += 1
	}

	batch := make([]*Request, n)
	copy(batch, ch.queue[:n])
	for i := 0; i < n; i += 1 {
		ch.queue[i] = nil
	}
	ch.queue = ch.queue[n:]
	ch.running = n
	ch.claimed = 0

	return batch, ch.lastResult
}

// record the result of a finished batch
func (ch *channel) finish(lastResult interface{}) {
	ch.Lock()
	ch.lastResult = lastResult
	ch.running = 0
	ch.Unlock()
}

// hold a success callback, replacing an earlier one of the same operation
func (ch *channel) hold(operationId string, callback SuccessFunc, value interface{}) {
	ch.Lock()
	defer ch.Unlock()

	for i, h := range ch.held {
		if h.operationId == operationId {
			ch.held[i].callback = callback
			ch.held[i].value = value
			return
		}
	}
	ch.held = append(ch.held, heldSuccess{
		operationId: operationId,
		callback:    callback,
		value:       value,
	})
}

// take all held callbacks if nothing else is queued
func (ch *channel) release() []heldSuccess {
	ch.Lock()
	defer ch.Unlock()

	if len(ch.queue) > 0 || 0 == len(ch.held) {
		return nil
	}
	held := ch.held
	ch.held = nil
	return held
}

// waiting plus running calls
func (ch *channel) pending() int {
	ch.Lock()
	defer ch.Unlock()
	return len(ch.queue) + ch.running
}
