package docstore

import (
	"fmt"
	"math"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// idField is the struct field that carries the document id. It is never
// stored among the document's fields.
const idField = "id"

// Encode converts a tagged struct into document fields.
func Encode(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	delete(fields, idField)
	return normalize(fields).(map[string]any), nil
}

// Decode fills v from a document, including its id.
func Decode(doc Document, v any) error {
	fields := make(map[string]any, len(doc.Fields)+1)
	for k, val := range doc.Fields {
		fields[k] = val
	}
	fields[idField] = doc.ID

	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("decoding document %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding document %s: %w", doc.ID, err)
	}
	return nil
}

// DecodeAll decodes every document into a T.
func DecodeAll[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := Decode(doc, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// normalize turns whole JSON numbers into int64, the integer type Firestore
// stores and returns.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = normalize(val)
		}
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return int64(t)
		}
	}
	return v
}

func marshalFields(fields map[string]any) (string, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshaling fields: %w", err)
	}
	return string(data), nil
}

func unmarshalFields(data string) (map[string]any, error) {
	var fields map[string]any
	if err := json.UnmarshalFromString(data, &fields); err != nil {
		return nil, fmt.Errorf("unmarshaling fields: %w", err)
	}
	return normalize(fields).(map[string]any), nil
}
