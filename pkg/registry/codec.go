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

package registry

import (
	"encoding/json"
	"fmt"
	"time"

	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/carverauto/feedwarehouse/pkg/types"
)

// encodeEntry flattens a schema into the registry table's all-string row
// format: field lists as JSON arrays, type maps as JSON objects of tag names,
// parser timezone and default flag through the value codec.
func encodeEntry(entry *CollectionSchema) (map[string]ddbtypes.AttributeValue, error) {
	pkeys, err := json.Marshal(entry.PrimaryKeyFields)
	if err != nil {
		return nil, err
	}

	rkeys, err := json.Marshal(entry.RequiredMetadataFields)
	if err != nil {
		return nil, err
	}

	tmap, err := encodeTypeMap(entry.MetadataTypeMap)
	if err != nil {
		return nil, err
	}

	parsers := make(map[string]map[string]string, len(entry.Parsers))

	for name, parser := range entry.Parsers {
		encoded, err := encodeParser(parser)
		if err != nil {
			return nil, fmt.Errorf("encoding parser %q: %w", name, err)
		}

		parsers[name] = encoded
	}

	parsersRaw, err := json.Marshal(parsers)
	if err != nil {
		return nil, err
	}

	return map[string]ddbtypes.AttributeValue{
		FieldID:             &ddbtypes.AttributeValueMemberS{Value: entry.FeedID()},
		FieldDatabase:       &ddbtypes.AttributeValueMemberS{Value: entry.Database},
		FieldCollection:     &ddbtypes.AttributeValueMemberS{Value: entry.Collection},
		FieldPrimaryKeys:    &ddbtypes.AttributeValueMemberS{Value: string(pkeys)},
		FieldRequiredFields: &ddbtypes.AttributeValueMemberS{Value: string(rkeys)},
		FieldTypeMap:        &ddbtypes.AttributeValueMemberS{Value: tmap},
		FieldParsers:        &ddbtypes.AttributeValueMemberS{Value: string(parsersRaw)},
	}, nil
}

func encodeParser(parser *ParserSchema) (map[string]string, error) {
	pkeys, err := json.Marshal(parser.PrimaryKeyFields)
	if err != nil {
		return nil, err
	}

	rowMap, err := encodeTypeMap(parser.RowTypeMap)
	if err != nil {
		return nil, err
	}

	tz, err := types.Encode(parser.Timezone)
	if err != nil {
		return nil, err
	}

	tzCell, err := tz.Serialize()
	if err != nil {
		return nil, err
	}

	dflt, err := types.Encode(parser.Default)
	if err != nil {
		return nil, err
	}

	dfltCell, err := dflt.Serialize()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		ParserFieldPrimaryKeys: string(pkeys),
		ParserFieldRowTypeMap:  rowMap,
		ParserFieldTimezone:    tzCell,
		ParserFieldDefault:     dfltCell,
	}, nil
}

func encodeTypeMap(typeMap map[string]types.Kind) (string, error) {
	names := make(map[string]string, len(typeMap))
	for field, kind := range typeMap {
		names[field] = kind.String()
	}

	raw, err := json.Marshal(names)
	if err != nil {
		return "", err
	}

	return string(raw), nil
}

func decodeEntry(item map[string]ddbtypes.AttributeValue) (*CollectionSchema, error) {
	cells, err := stringCells(item)
	if err != nil {
		return nil, err
	}

	entry := &CollectionSchema{
		Database:   cells[FieldDatabase],
		Collection: cells[FieldCollection],
		Parsers:    make(map[string]*ParserSchema),
	}

	if err := json.Unmarshal([]byte(cells[FieldPrimaryKeys]), &entry.PrimaryKeyFields); err != nil {
		return nil, fmt.Errorf("decoding primary key fields: %w", err)
	}

	if err := json.Unmarshal([]byte(cells[FieldRequiredFields]), &entry.RequiredMetadataFields); err != nil {
		return nil, fmt.Errorf("decoding required fields: %w", err)
	}

	entry.MetadataTypeMap, err = decodeTypeMap(cells[FieldTypeMap])
	if err != nil {
		return nil, fmt.Errorf("decoding type map: %w", err)
	}

	var parsers map[string]map[string]string

	if err := json.Unmarshal([]byte(cells[FieldParsers]), &parsers); err != nil {
		return nil, fmt.Errorf("decoding parsers: %w", err)
	}

	for name, raw := range parsers {
		parser, err := decodeParser(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding parser %q: %w", name, err)
		}

		entry.Parsers[name] = parser
	}

	return entry, nil
}

func decodeParser(raw map[string]string) (*ParserSchema, error) {
	parser := &ParserSchema{}

	if err := json.Unmarshal([]byte(raw[ParserFieldPrimaryKeys]), &parser.PrimaryKeyFields); err != nil {
		return nil, err
	}

	rowMap, err := decodeTypeMap(raw[ParserFieldRowTypeMap])
	if err != nil {
		return nil, err
	}

	parser.RowTypeMap = rowMap

	tzEnc, err := types.Deserialize(raw[ParserFieldTimezone])
	if err != nil {
		return nil, err
	}

	tzVal, err := types.Decode(tzEnc)
	if err != nil {
		return nil, err
	}

	tz, ok := tzVal.(*time.Location)
	if !ok {
		return nil, fmt.Errorf("parser timezone cell decoded to %T", tzVal)
	}

	parser.Timezone = tz

	dfltEnc, err := types.Deserialize(raw[ParserFieldDefault])
	if err != nil {
		return nil, err
	}

	dfltVal, err := types.Decode(dfltEnc)
	if err != nil {
		return nil, err
	}

	dflt, ok := dfltVal.(bool)
	if !ok {
		return nil, fmt.Errorf("parser default cell decoded to %T", dfltVal)
	}

	parser.Default = dflt

	return parser, nil
}

func decodeTypeMap(raw string) (map[string]types.Kind, error) {
	var names map[string]string

	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, err
	}

	typeMap := make(map[string]types.Kind, len(names))

	for field, name := range names {
		kind, err := types.KindFromName(name)
		if err != nil {
			return nil, err
		}

		typeMap[field] = kind
	}

	return typeMap, nil
}

func stringCells(item map[string]ddbtypes.AttributeValue) (map[string]string, error) {
	cells := make(map[string]string, len(item))

	for key, value := range item {
		s, ok := value.(*ddbtypes.AttributeValueMemberS)
		if !ok {
			return nil, fmt.Errorf("registry cell %q is not a string", key)
		}

		cells[key] = s.Value
	}

	return cells, nil
}
