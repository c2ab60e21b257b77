// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package messagebus

import (
	"sync"
)

// default size of a listener queue
const (
	DefaultQueueSize = 100
)

// Message - a broadcast item
type Message struct {
	Command string      // e.g. "settled", "status", "removed"
	Key     string      // confirmation key or kind
	Item    interface{} // command specific payload
}

// BroadcastQueue - fan out of messages to any number of listeners
type BroadcastQueue struct {
	sync.RWMutex
	size      int
	listeners []chan Message
}

// New - create a broadcast queue, size is the default listener queue size
func New(size int) *BroadcastQueue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &BroadcastQueue{
		size:      size,
		listeners: make([]chan Message, 0, 4),
	}
}

// Send - broadcast a message to every current listener
//
// messages are dropped for listeners whose queue is full
func (queue *BroadcastQueue) Send(command string, key string, item interface{}) {
	if nil == queue {
		return
	}

	m := Message{
		Command: command,
		Key:     key,
		Item:    item,
	}

	queue.RLock()
	defer queue.RUnlock()

	for _, c := range queue.listeners {
		select {
		case c <- m:
		default:
		}
	}
}

// Chan - a new listener channel
//
// size of zero uses the queue default
func (queue *BroadcastQueue) Chan(size int) <-chan Message {
	if size <= 0 {
		size = queue.size
	}
	c := make(chan Message, size)

	queue.Lock()
	queue.listeners = append(queue.listeners, c)
	queue.Unlock()

	return c
}

// Release - stop delivering to a listener and close its channel
func (queue *BroadcastQueue) Release(c <-chan Message) {
	queue.Lock()
	defer queue.Unlock()

	for i, l := range queue.listeners {
		if (<-chan Message)(l) == c {
			queue.listeners = append(queue.listeners[:i], queue.listeners[i+1:]...)
			close(l)
			return
		}
	}
}

// Listeners - number of registered listeners
func (queue *BroadcastQueue) Listeners() int {
	queue.RLock()
	defer queue.RUnlock()
	return len(queue.listeners)
}
