// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package background - start and stop a set of long running processes
//
// each process runs in its own goroutine until its shutdown channel is
// closed, Stop waits for every process to return
package background
