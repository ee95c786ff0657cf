package helix

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"coursegraph/domain/graph"
)

// ErrUnrecognizedShape is returned when a query response matches none of the
// payload layouts the store is known to produce.
var ErrUnrecognizedShape = errors.New("helix: unrecognized response shape")

// shape tags the layout a response arrived in
type shape int

const (
	shapeUnknown shape = iota
	shapeArray
	shapeWrappedArray
	shapeWrappedObject
	shapeWrappedNull
)

func (s shape) String() string {
	switch s {
	case shapeArray:
		return "array"
	case shapeWrappedArray:
		return "wrapped-array"
	case shapeWrappedObject:
		return "wrapped-object"
	case shapeWrappedNull:
		return "wrapped-null"
	}
	return "unknown"
}

// classify determines the layout of body. The store answers a list query with
// a bare array, with {key: [...]} or, when there is a single record, with
// {key: {...}}.
func classify(body []byte, key string) (shape, json.RawMessage) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return shapeUnknown, nil
	}

	switch body[0] {
	case '[':
		return shapeArray, body
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err != nil {
			return shapeUnknown, nil
		}
		inner, ok := obj[key]
		if !ok {
			return shapeUnknown, nil
		}
		inner = bytes.TrimSpace(inner)
		switch {
		case len(inner) == 0:
			return shapeUnknown, nil
		case inner[0] == '[':
			return shapeWrappedArray, inner
		case inner[0] == '{':
			return shapeWrappedObject, inner
		case bytes.Equal(inner, []byte("null")):
			return shapeWrappedNull, nil
		}
	}
	return shapeUnknown, nil
}

// normalizeDocuments maps every known layout to a document list
func normalizeDocuments(body []byte, key string) ([]graph.Document, error) {
	s, raw := classify(body, key)
	switch s {
	case shapeArray, shapeWrappedArray:
		var docs []graph.Document
		if err := json.Unmarshal(raw, &docs); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnrecognizedShape, s, err)
		}
		return docs, nil
	case shapeWrappedObject:
		var doc graph.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnrecognizedShape, s, err)
		}
		return []graph.Document{doc}, nil
	case shapeWrappedNull:
		return []graph.Document{}, nil
	}
	return nil, fmt.Errorf("%w: expected array or object with %q", ErrUnrecognizedShape, key)
}
