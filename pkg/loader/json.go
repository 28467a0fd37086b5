package loader

import (
	"encoding/json"
	"fmt"

	"github.com/buger/jsonparser"

	"github.com/oakwood-commons/pathbench/pkg/value"
)

// maxNesting bounds container depth while decoding.
const maxNesting = 10000

func isJSON(input string) bool {
	return json.Valid([]byte(input))
}

// decodeJSON decodes data into the workbench model. Objects keep the key
// order of the source text.
func decodeJSON(data []byte) (any, error) {
	if !json.Valid(data) {
		// encoding/json reports the offset of the first syntax error.
		var probe any
		if err := json.Unmarshal(data, &probe); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("malformed JSON")
	}
	raw, typ, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, err
	}
	return convertJSON(raw, typ, 0)
}

func convertJSON(raw []byte, typ jsonparser.ValueType, depth int) (any, error) {
	if depth > maxNesting {
		return nil, fmt.Errorf("JSON nesting exceeds %d levels", maxNesting)
	}
	switch typ {
	case jsonparser.Object:
		obj := value.NewObject()
		err := jsonparser.ObjectEach(raw, func(key, val []byte, vt jsonparser.ValueType, _ int) error {
			// key arrives unescaped and is only valid during the callback.
			name := string(key)
			child, err := convertJSON(val, vt, depth+1)
			if err != nil {
				return err
			}
			obj.Set(name, child)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return obj, nil
	case jsonparser.Array:
		items := make([]any, 0)
		var walkErr error
		_, err := jsonparser.ArrayEach(raw, func(val []byte, vt jsonparser.ValueType, _ int, cbErr error) {
			if walkErr != nil {
				return
			}
			if cbErr != nil {
				walkErr = cbErr
				return
			}
			child, err := convertJSON(val, vt, depth+1)
			if err != nil {
				walkErr = err
				return
			}
			items = append(items, child)
		})
		if err != nil {
			return nil, err
		}
		if walkErr != nil {
			return nil, walkErr
		}
		return items, nil
	case jsonparser.String:
		return jsonparser.ParseString(raw)
	case jsonparser.Number:
		return jsonparser.ParseFloat(raw)
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(raw)
	case jsonparser.Null:
		return nil, nil
	case jsonparser.NotExist, jsonparser.Unknown:
	}
	return nil, fmt.Errorf("unsupported JSON token %s", typ)
}
