package transfer

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// documentSchema is checked before anything is pushed. Each element is
// checked against entrySchema only when push reaches it, so that earlier
// records still go out. Missing or empty name and value are reported per
// record as well.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "kvsync transfer file",
  "type": "array"
}`

const entrySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "kvsync transfer record",
  "type": "object",
  "properties": {
    "name":  {"type": "string"},
    "value": {"type": "string"},
    "tags": {
      "type": ["object", "null"],
      "additionalProperties": {"type": "string"}
    }
  }
}`

var (
	documentLoader = gojsonschema.NewStringLoader(documentSchema)
	entryLoader    = gojsonschema.NewStringLoader(entrySchema)
)

// ValidateDocument checks that raw transfer-file JSON is an array.
func ValidateDocument(data []byte) error {
	return validate(documentLoader, data)
}

// ValidateEntry checks one element of the transfer-file array.
func ValidateEntry(data []byte) error {
	return validate(entryLoader, data)
}

func validate(schema gojsonschema.JSONLoader, data []byte) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		return fmt.Errorf("schema validation failed:\n  - %s", strings.Join(errorMessages, "\n  - "))
	}

	return nil
}
