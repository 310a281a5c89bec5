// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package middleware

import "sync/atomic"

// Stats counts message outcomes. It is safe for concurrent use.
type Stats struct {
	received   atomic.Int64
	processed  atomic.Int64
	failed     atomic.Int64
	duplicates atomic.Int64
	malformed  atomic.Int64
	published  atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats. Failed and Malformed are
// disjoint: a message that cannot be parsed or validated is only Malformed.
type StatsSnapshot struct {
	Received   int64 `json:"received"`
	Processed  int64 `json:"processed"`
	Failed     int64 `json:"failed"`
	Duplicates int64 `json:"duplicates"`
	Malformed  int64 `json:"malformed"`
	Published  int64 `json:"published"`
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Received:   s.received.Load(),
		Processed:  s.processed.Load(),
		Failed:     s.failed.Load(),
		Duplicates: s.duplicates.Load(),
		Malformed:  s.malformed.Load(),
		Published:  s.published.Load(),
	}
}
