// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"sort"
	"sync"
)

// Store - the set of tables, one per kind
type Store struct {
	sync.RWMutex
	tables map[string]*Table
}

// New - create an empty store
func New() *Store {
	return &Store{
		tables: make(map[string]*Table),
	}
}

// Table - get the table for a kind, creating it on first use
func (s *Store) Table(kind string) *Table {
	s.RLock()
	t, ok := s.tables[kind]
	s.RUnlock()
	if ok {
		return t
	}

	s.Lock()
	defer s.Unlock()

	// another caller may have created it between the locks
	if t, ok := s.tables[kind]; ok {
		return t
	}
	t = newTable(kind)
	s.tables[kind] = t
	return t
}

// Kinds - sorted list of the kinds that have a table
func (s *Store) Kinds() []string {
	s.RLock()
	defer s.RUnlock()

	kinds := make([]string, 0, len(s.tables))
	for kind := range s.tables {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
