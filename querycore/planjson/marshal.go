package planjson

import (
	gojson "github.com/goccy/go-json"
)

// Marshal encodes doc into the stable plan JSON contract (spec §6).
func Marshal(doc *Document) ([]byte, error) {
	return gojson.MarshalIndent(doc, "", "  ")
}

// Unmarshal decodes a plan JSON document. Used by the round-trip tests
// (spec §8 invariant 8).
func Unmarshal(data []byte) (*Document, error) {
	var doc Document
	if err := gojson.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
