// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package messagebus_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/entitycache/messagebus"
)

func TestBroadcast(t *testing.T) {
	bus := messagebus.New(0)

	// nothing listening so these messages should be dropped
	bus.Send("ignored", "k", nil)

	const listeners = 5
	commands := []string{"c1", "c2", "c3"}

	queues := make([]<-chan messagebus.Message, listeners)
	for i := range queues {
		queues[i] = bus.Chan(0)
	}
	assert.Equal(t, listeners, bus.Listeners(), "wrong listener count")

	for _, c := range commands {
		bus.Send(c, "key", c)
	}

	var wg sync.WaitGroup
	var l [listeners]int
	for i := 0; i < listeners; i += 1 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for _, c := range commands {
				received := <-queues[n]
				if received.Command != c {
					t.Errorf("actual: %q  expected: %q", received.Command, c)
				} else {
					l[n] += 1
				}
			}
		}(i)
	}
	wg.Wait()

	for i, n := range l {
		assert.Equal(t, len(commands), n, "listener[%d] wrong count", i)
	}
}

func TestFullQueueDrops(t *testing.T) {
	bus := messagebus.New(0)
	queue := bus.Chan(2)

	for i := 0; i < 5; i += 1 {
		bus.Send("c", "", i)
	}

	assert.Equal(t, 2, len(queue), "wrong queued count")
	assert.Equal(t, 0, (<-queue).Item, "wrong first item")
	assert.Equal(t, 1, (<-queue).Item, "wrong second item")
}

func TestRelease(t *testing.T) {
	bus := messagebus.New(10)
	queue := bus.Chan(0)

	bus.Release(queue)
	assert.Equal(t, 0, bus.Listeners(), "listener not released")

	_, ok := <-queue
	assert.False(t, ok, "channel not closed")

	// must not panic after release
	bus.Send("c", "", nil)

	var nilBus *messagebus.BroadcastQueue
	nilBus.Send("c", "", nil)
}
