package model

import "fmt"

// IdentifierField is the asset field that addresses the destination document.
const IdentifierField = "id"

// SeedRecord is one element of an asset array. It is addressable only when
// its identifier is a non-empty string; the identifier is not part of Fields.
type SeedRecord struct {
	// Position is the zero-based index of the element in its asset file.
	Position int
	ID       string
	Fields   map[string]interface{}
	// Invalid describes why the record cannot be written. Empty for
	// addressable records.
	Invalid string
}

// NewSeedRecord builds a SeedRecord from one decoded JSON array element.
func NewSeedRecord(position int, raw interface{}) SeedRecord {
	rec := SeedRecord{Position: position}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		rec.Invalid = fmt.Sprintf("element is %s, not an object", jsonKind(raw))
		return rec
	}

	rec.Fields = make(map[string]interface{}, len(obj))
	for k, v := range obj {
		if k == IdentifierField {
			continue
		}
		rec.Fields[k] = v
	}

	idVal, present := obj[IdentifierField]
	switch id := idVal.(type) {
	case string:
		if id == "" {
			rec.Invalid = "id is empty"
		} else {
			rec.ID = id
		}
	case nil:
		if present {
			rec.Invalid = "id is null"
		} else {
			rec.Invalid = "id is missing"
		}
	default:
		rec.Invalid = fmt.Sprintf("id is %s, not a string", jsonKind(idVal))
	}
	return rec
}

// Addressable reports whether the record may be written to the store.
func (r SeedRecord) Addressable() bool {
	return r.Invalid == "" && r.ID != ""
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case string:
		return "a string"
	case float64, int64, int:
		return "a number"
	case []interface{}:
		return "an array"
	case map[string]interface{}:
		return "an object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
