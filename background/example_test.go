// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package background_test

import (
	"fmt"
	"time"

	"github.com/bitmark-inc/entitycache/background"
)

func Example() {

	sweeps := 0

	// list of background processes to start
	processes := background.Processes{
		&background.Ticker{
			Interval: 10 * time.Millisecond,
			Tick: func(now time.Time) {
				sweeps += 1
			},
		},
	}

	p := background.Start(processes, nil)
	time.Sleep(time.Second)
	p.Stop()

	fmt.Printf("swept: %t\n", sweeps > 0)
	// Output: swept: true
}
