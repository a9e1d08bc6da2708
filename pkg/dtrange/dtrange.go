/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package dtrange provides the datetime range used for index queries. Either
// bound may be left open, standing in for -Inf or +Inf.
package dtrange

import (
	"fmt"
	"time"
)

// Range is an inclusive datetime interval. A zero StartBounded or EndBounded
// flag opens that side of the interval.
type Range struct {
	Start        time.Time
	End          time.Time
	StartBounded bool
	EndBounded   bool
}

// New builds a closed range [start, end].
func New(start, end time.Time) Range {
	return Range{Start: start, End: end, StartBounded: true, EndBounded: true}
}

// From builds a range open on the right: [start, +Inf).
func From(start time.Time) Range {
	return Range{Start: start, StartBounded: true}
}

// Until builds a range open on the left: (-Inf, end].
func Until(end time.Time) Range {
	return Range{End: end, EndBounded: true}
}

// All is the unbounded range.
func All() Range {
	return Range{}
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	if r.StartBounded && t.Before(r.Start) {
		return false
	}

	if r.EndBounded && t.After(r.End) {
		return false
	}

	return true
}

// Overlaps reports whether the half-open interval [start, end) intersects the
// range, treating a missing end as unbounded. This mirrors how content ranges
// are matched: content_end is upper-exclusive and may be absent.
func (r Range) Overlaps(start time.Time, end time.Time, hasEnd bool) bool {
	if r.EndBounded && start.After(r.End) {
		return false
	}

	if r.StartBounded && hasEnd && !end.After(r.Start) {
		return false
	}

	return true
}

func (r Range) String() string {
	start, end := "-Inf", "+Inf"

	if r.StartBounded {
		start = r.Start.Format(time.RFC3339)
	}

	if r.EndBounded {
		end = r.End.Format(time.RFC3339)
	}

	return fmt.Sprintf("[%s, %s]", start, end)
}
