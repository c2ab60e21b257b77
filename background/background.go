// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package background

import (
	"time"
)

// the shutdown and completed channels for a background
type shutdown struct {
	shutdown chan struct{}
	finished chan struct{}
}

// T - handle type
type T struct {
	s []shutdown
}

// Process - type signature for background process
type Process interface {
	Run(args interface{}, shutdown <-chan struct{})
}

// Processes - list of processes to start
type Processes []Process

// Start - start up a set of background processes
func Start(processes Processes, args interface{}) *T {

	register := new(T)
	register.s = make([]shutdown, len(processes))

	// start each background
	for i, p := range processes {
		shutdown := make(chan struct{})
		finished := make(chan struct{})
		register.s[i].shutdown = shutdown
		register.s[i].finished = finished
		go func(p Process) {
			defer close(finished)
			p.Run(args, shutdown)
		}(p)
	}
	return register
}

// Stop - stop a set of background processes
func (t *T) Stop() {
	if nil == t {
		return
	}

	// shutdown all background tasks
	for _, shutdown := range t.s {
		close(shutdown.shutdown)
	}

	// wait for finished
	for _, shutdown := range t.s {
		<-shutdown.finished
	}
}

// Ticker - a Process that calls a function at a fixed interval
type Ticker struct {
	Interval time.Duration
	Tick     func(now time.Time)
}

// Run - call Tick until shutdown
func (ticker *Ticker) Run(args interface{}, shutdown <-chan struct{}) {
	if ticker.Interval <= 0 || nil == ticker.Tick {
		<-shutdown
		return
	}

	t := time.NewTicker(ticker.Interval)
	defer t.Stop()

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case now := <-t.C:
			ticker.Tick(now)
		}
	}
}
