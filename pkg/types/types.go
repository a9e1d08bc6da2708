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

// Package types implements the warehouse value codec. Every metadata value
// moving through the warehouse is one of the kinds below; Encode and Decode
// map values onto the string cells of the index store and back.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnsupportedType = errors.New("value type is not supported")
	ErrUnknownKind     = errors.New("unknown kind tag")
	ErrInvalidEncoding = errors.New("invalid encoded value")
)

// Kind tags every value the warehouse can store. The wire names are shared
// with rows written by earlier producers and must not change.
type Kind int

const (
	KindNone Kind = iota
	KindStr
	KindInt
	KindBool
	KindFloat
	KindDecimal
	KindDate
	KindDatetime
	KindTimedelta
	KindTZFile
	KindTZOffsetNamed
	KindTZOffset
)

var kindNames = map[Kind]string{
	KindNone:          "NONE",
	KindStr:           "STR",
	KindInt:           "INT",
	KindBool:          "BOOL",
	KindFloat:         "FLOAT",
	KindDecimal:       "DECIMAL",
	KindDate:          "DATE",
	KindDatetime:      "DATETIME",
	KindTimedelta:     "TIMEDELTA",
	KindTZFile:        "TZFILE_PYTZ",
	KindTZOffsetNamed: "TZOFFSET_DATEUTIL",
	KindTZOffset:      "TZOFFSET_TZ",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = k
	}

	return m
}()

func (k Kind) String() string {
	name, ok := kindNames[k]
	if !ok {
		return fmt.Sprintf("Kind(%d)", int(k))
	}

	return name
}

// KindFromName resolves a wire tag name back to its Kind.
func KindFromName(name string) (Kind, error) {
	k, ok := kindsByName[name]
	if !ok {
		return KindNone, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}

	return k, nil
}

// NaiveZone marks datetimes that carry no timezone. A time.Time in this
// location round-trips through the codec with the naive wire tag.
var NaiveZone = time.FixedZone("Naive", 0)

// IsNaive reports whether t is a zone-less datetime.
func IsNaive(t time.Time) bool {
	return t.Location() == NaiveZone || t.Location().String() == "Naive"
}

// Date is a calendar date with no time-of-day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ParseDate parses a yyyy-mm-dd string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}

	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// Encoded is a value flattened to its string form plus its kind tag.
type Encoded struct {
	Str  string
	Kind Kind
}

// Serialize renders the pair as a JSON two-element array, the format used for
// registry cells.
func (e Encoded) Serialize() (string, error) {
	raw, err := json.Marshal([2]string{e.Str, e.Kind.String()})
	if err != nil {
		return "", err
	}

	return string(raw), nil
}

// Deserialize parses a serialized Encoded pair.
func Deserialize(s string) (Encoded, error) {
	var pair [2]string

	if err := json.Unmarshal([]byte(s), &pair); err != nil {
		return Encoded{}, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}

	kind, err := KindFromName(pair[1])
	if err != nil {
		return Encoded{}, err
	}

	return Encoded{Str: pair[0], Kind: kind}, nil
}
