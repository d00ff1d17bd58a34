package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// recordsSchema describes a JSON array of records as written by the JSON
// export and accepted by the JSON import.
const recordsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["ItemId"],
    "additionalProperties": false,
    "properties": {
      "ItemId": {"type": "string", "minLength": 1},
      "DisplayName": {"type": "string"},
      "ItemClass": {"type": "string"},
      "Description": {"type": "string"},
      "CustomData": {"type": "string"},
      "Tags": {"$ref": "#/definitions/list"},
      "IsLimitedEdition": {"type": "boolean"},
      "IsTokenForCharacterCreation": {"type": "boolean"},
      "IsTradable": {"type": "boolean"},
      "IsStackable": {"type": "boolean"},
      "Consumable": {
        "type": ["object", "null"],
        "additionalProperties": false,
        "properties": {
          "UsageCount": {"type": "integer", "minimum": 0, "maximum": 4294967295},
          "UsagePeriod": {"type": "integer", "minimum": 0, "maximum": 4294967295},
          "UsagePeriodGroup": {"type": "string"}
        }
      },
      "Bundle": {
        "type": ["object", "null"],
        "additionalProperties": false,
        "properties": {
          "BundledItems": {"$ref": "#/definitions/list"},
          "BundledResultTables": {"$ref": "#/definitions/list"},
          "BundledVirtualCurrencies": {"$ref": "#/definitions/amounts"}
        }
      },
      "Container": {
        "type": ["object", "null"],
        "additionalProperties": false,
        "properties": {
          "KeyItemId": {"type": "string"},
          "ItemContents": {"$ref": "#/definitions/list"},
          "ResultTableContents": {"$ref": "#/definitions/list"},
          "VirtualCurrencyContents": {"$ref": "#/definitions/amounts"}
        }
      }
    }
  },
  "definitions": {
    "list": {"type": ["array", "null"], "items": {"type": "string"}},
    "amounts": {
      "type": ["object", "null"],
      "additionalProperties": {"type": "integer", "minimum": -2147483648, "maximum": 2147483647}
    }
  }
}`

var recordsSchemaLoader = gojsonschema.NewStringLoader(recordsSchema)

// ErrSchema is wrapped by ValidateJSON when the document does not match the
// record schema.
var ErrSchema = errors.New("catalog: json does not match record schema")

// ValidateJSON checks a JSON array of records against the record schema.
func ValidateJSON(data []byte) error {
	result, err := gojsonschema.Validate(recordsSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
}

// DecodeJSON validates data against the record schema and unmarshals it.
func DecodeJSON(data []byte) ([]Record, error) {
	if err := ValidateJSON(data); err != nil {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}
