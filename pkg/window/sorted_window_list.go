/*
Copyright 2022 The Numaproj Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package window

import (
	"sort"
	"sync"
)

// SortedWindowList is a thread safe set of window ends (milliseconds since epoch), sorted from
// lowest to highest.
type SortedWindowList struct {
	ends []int64
	lock *sync.RWMutex
}

// NewSortedWindowList returns an empty list. The Front/Head of the list will always have the
// smallest end while the Back/Tail will have the largest.
func NewSortedWindowList() *SortedWindowList {
	return &SortedWindowList{
		ends: make([]int64, 0),
		lock: &sync.RWMutex{},
	}
}

// InsertIfNotPresent inserts the end if it is not present and reports whether it was already
// present.
func (s *SortedWindowList) InsertIfNotPresent(end int64) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	index := sort.Search(len(s.ends), func(i int) bool {
		return s.ends[i] >= end
	})
	if index < len(s.ends) && s.ends[index] == end {
		return true
	}

	s.ends = append(s.ends, 0)
	copy(s.ends[index+1:], s.ends[index:])
	s.ends[index] = end
	return false
}

// Delete deletes the end from the list.
func (s *SortedWindowList) Delete(end int64) (deleted bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	index := sort.Search(len(s.ends), func(i int) bool {
		return s.ends[i] >= end
	})
	if index < len(s.ends) && s.ends[index] == end {
		s.ends = append(s.ends[:index], s.ends[index+1:]...)
		return true
	}
	return false
}

// PopUpTo removes and returns the smallest end if it is smaller than or equal to t.
func (s *SortedWindowList) PopUpTo(t int64) (int64, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if len(s.ends) == 0 || s.ends[0] > t {
		return 0, false
	}
	front := s.ends[0]
	s.ends = s.ends[1:]
	return front, true
}

// RemoveUpTo removes the ends smaller than or equal to t.
func (s *SortedWindowList) RemoveUpTo(t int64) []int64 {
	s.lock.Lock()
	defer s.lock.Unlock()

	index := sort.Search(len(s.ends), func(i int) bool {
		return s.ends[i] > t
	})

	removed := make([]int64, index)
	copy(removed, s.ends[:index])

	s.ends = s.ends[index:]

	return removed
}

// Len returns the length of the list.
func (s *SortedWindowList) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.ends)
}

// Front returns the smallest end of the list.
func (s *SortedWindowList) Front() (int64, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if len(s.ends) == 0 {
		return 0, false
	}
	return s.ends[0], true
}

// Back returns the largest end of the list.
func (s *SortedWindowList) Back() (int64, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if len(s.ends) == 0 {
		return 0, false
	}
	return s.ends[len(s.ends)-1], true
}

// Items returns a copy of the list.
func (s *SortedWindowList) Items() []int64 {
	s.lock.RLock()
	defer s.lock.RUnlock()

	items := make([]int64, len(s.ends))
	copy(items, s.ends)

	return items
}
