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

package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// noneLiteral is the sentinel recorded for nil values by every producer that
// has ever written to the index store; it must be matched exactly on decode.
const noneLiteral = "<class 'NoneType'>"

const naiveTag = "Naive"

// GetKind resolves the kind tag for a runtime value. Byte slices, containers,
// and anything else outside the closed value set fail with
// ErrUnsupportedType.
func GetKind(value any) (Kind, error) {
	switch v := value.(type) {
	case nil:
		return KindNone, nil
	case string:
		return KindStr, nil
	case bool:
		return KindBool, nil
	case int, int64:
		return KindInt, nil
	case float64:
		return KindFloat, nil
	case decimal.Decimal:
		return KindDecimal, nil
	case Date:
		return KindDate, nil
	case time.Time:
		return KindDatetime, nil
	case time.Duration:
		return KindTimedelta, nil
	case *time.Location:
		return zoneKind(v)
	default:
		return KindNone, fmt.Errorf("%w: %T", ErrUnsupportedType, value)
	}
}

// zoneKind classifies a location into the three supported timezone variants:
// a named tzdata zone, a named fixed offset, or a bare fixed offset.
func zoneKind(loc *time.Location) (Kind, error) {
	if loc == NaiveZone {
		return KindNone, fmt.Errorf("%w: naive marker is not a timezone value", ErrUnsupportedType)
	}

	name := loc.String()
	if name == "" {
		return KindTZOffset, nil
	}

	if name == "Local" {
		return KindNone, fmt.Errorf("%w: process-local timezone", ErrUnsupportedType)
	}

	if _, err := time.LoadLocation(name); err == nil {
		return KindTZFile, nil
	}

	return KindTZOffsetNamed, nil
}

// Encode flattens a supported value into its string form and kind tag.
func Encode(value any) (Encoded, error) {
	kind, err := GetKind(value)
	if err != nil {
		return Encoded{}, err
	}

	switch v := value.(type) {
	case nil:
		return Encoded{Str: noneLiteral, Kind: KindNone}, nil
	case string:
		return Encoded{Str: v, Kind: KindStr}, nil
	case bool:
		s := "0"
		if v {
			s = "1"
		}

		return Encoded{Str: s, Kind: KindBool}, nil
	case int:
		return Encoded{Str: strconv.FormatInt(int64(v), 10), Kind: KindInt}, nil
	case int64:
		return Encoded{Str: strconv.FormatInt(v, 10), Kind: KindInt}, nil
	case float64:
		return Encoded{Str: formatFloat(v), Kind: KindFloat}, nil
	case decimal.Decimal:
		return Encoded{Str: v.String(), Kind: KindDecimal}, nil
	case Date:
		return Encoded{Str: v.String(), Kind: KindDate}, nil
	case time.Time:
		s, err := encodeDatetime(v)
		if err != nil {
			return Encoded{}, err
		}

		return Encoded{Str: s, Kind: KindDatetime}, nil
	case time.Duration:
		return Encoded{Str: formatFloat(v.Seconds()), Kind: KindTimedelta}, nil
	case *time.Location:
		s, err := encodeZone(v, kind)
		if err != nil {
			return Encoded{}, err
		}

		return Encoded{Str: s, Kind: kind}, nil
	default:
		return Encoded{}, fmt.Errorf("%w: %T", ErrUnsupportedType, value)
	}
}

// Decode inverts Encode. Datetimes come back localised into their embedded
// zone.
func Decode(encoded Encoded) (any, error) {
	switch encoded.Kind {
	case KindNone:
		if encoded.Str != noneLiteral {
			return nil, fmt.Errorf("%w: %q under the NONE tag", ErrInvalidEncoding, encoded.Str)
		}

		return nil, nil
	case KindStr:
		return encoded.Str, nil
	case KindInt:
		n, err := strconv.ParseInt(encoded.Str, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
		}

		return n, nil
	case KindBool:
		n, err := strconv.ParseInt(encoded.Str, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
		}

		return n != 0, nil
	case KindFloat:
		f, err := strconv.ParseFloat(encoded.Str, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
		}

		return f, nil
	case KindDecimal:
		d, err := decimal.NewFromString(encoded.Str)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
		}

		return d, nil
	case KindDate:
		d, err := ParseDate(encoded.Str)
		if err != nil {
			return nil, err
		}

		return d, nil
	case KindDatetime:
		t, err := decodeDatetime(encoded.Str)
		if err != nil {
			return nil, err
		}

		return t, nil
	case KindTimedelta:
		secs, err := strconv.ParseFloat(encoded.Str, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
		}

		return time.Duration(math.Round(secs * float64(time.Second))), nil
	case KindTZFile:
		loc, err := time.LoadLocation(encoded.Str)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
		}

		return loc, nil
	case KindTZOffsetNamed:
		var pair [2]string

		if err := json.Unmarshal([]byte(encoded.Str), &pair); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
		}

		secs, err := strconv.Atoi(pair[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
		}

		return time.FixedZone(pair[0], secs), nil
	case KindTZOffset:
		secs, err := strconv.Atoi(encoded.Str)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
		}

		return time.FixedZone("", secs), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, encoded.Kind)
	}
}

// formatFloat renders a float the way the store's historical producers did:
// shortest round-trip form with a forced trailing .0 on integral values.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}

	return s
}

const (
	naiveLayout = "2006-01-02T15:04:05.999999"
	awareLayout = "2006-01-02T15:04:05.999999-07:00"
)

func encodeDatetime(t time.Time) (string, error) {
	var tz any

	var iso string

	if IsNaive(t) {
		iso = t.Format(naiveLayout)
		tz = naiveTag
	} else {
		iso = t.Format(awareLayout)

		zone, err := Encode(t.Location())
		if err != nil {
			return "", err
		}

		tz = [2]string{zone.Str, zone.Kind.String()}
	}

	raw, err := json.Marshal([2]any{iso, tz})
	if err != nil {
		return "", err
	}

	return string(raw), nil
}

func decodeDatetime(s string) (time.Time, error) {
	var pair [2]json.RawMessage

	if err := json.Unmarshal([]byte(s), &pair); err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}

	var iso string

	if err := json.Unmarshal(pair[0], &iso); err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}

	var tag string

	if err := json.Unmarshal(pair[1], &tag); err == nil {
		if tag != naiveTag {
			return time.Time{}, fmt.Errorf("%w: unexpected tz tag %q", ErrInvalidEncoding, tag)
		}

		t, err := time.ParseInLocation(naiveLayout, iso, NaiveZone)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
		}

		return t, nil
	}

	var zonePair [2]string

	if err := json.Unmarshal(pair[1], &zonePair); err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}

	kind, err := KindFromName(zonePair[1])
	if err != nil {
		return time.Time{}, err
	}

	zone, err := Decode(Encoded{Str: zonePair[0], Kind: kind})
	if err != nil {
		return time.Time{}, err
	}

	loc, ok := zone.(*time.Location)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: embedded tz is not a timezone", ErrInvalidEncoding)
	}

	t, err := time.Parse(awareLayout, iso)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}

	return t.In(loc), nil
}

func encodeZone(loc *time.Location, kind Kind) (string, error) {
	switch kind {
	case KindTZFile:
		return loc.String(), nil
	case KindTZOffsetNamed:
		secs := zoneOffsetSeconds(loc)

		raw, err := json.Marshal([2]string{loc.String(), strconv.Itoa(secs)})
		if err != nil {
			return "", err
		}

		return string(raw), nil
	case KindTZOffset:
		return strconv.Itoa(zoneOffsetSeconds(loc)), nil
	default:
		return "", fmt.Errorf("%w: %v is not a timezone kind", ErrUnsupportedType, kind)
	}
}

// zoneOffsetSeconds reads the fixed utc offset of a zone. Only meaningful for
// fixed-offset locations.
func zoneOffsetSeconds(loc *time.Location) int {
	_, offset := time.Date(1111, 1, 1, 0, 0, 0, 0, loc).Zone()
	return offset
}

// EpochString renders a datetime as decimal epoch seconds, the form used for
// primary-key serialization and numeric index cells. Whole seconds stay
// integral.
func EpochString(t time.Time) string {
	secs := t.Unix()
	nanos := t.Nanosecond()

	if nanos == 0 {
		return strconv.FormatInt(secs, 10)
	}

	return strconv.FormatFloat(float64(secs)+float64(nanos)/1e9, 'f', -1, 64)
}

// FromEpochString parses decimal epoch seconds into a datetime in the given
// zone.
func FromEpochString(s string, loc *time.Location) (time.Time, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}

	secs, frac := math.Modf(f)

	return time.Unix(int64(secs), int64(math.Round(frac*1e9))).In(loc), nil
}
