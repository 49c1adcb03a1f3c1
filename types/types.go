// Package types defines the JSON-LD wire records of the repository API.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Ref is a JSON-LD reference to another resource ({"@id", "o:id"}).
type Ref struct {
	IRI string `json:"@id"`
	ID  int    `json:"o:id"`
}

// PropertyRecord is a property payload.
type PropertyRecord struct {
	IRI        string `json:"@id"`
	Type       string `json:"@type"`
	ID         int    `json:"o:id"`
	LocalName  string `json:"o:local_name"`
	Label      string `json:"o:label"`
	Comment    string `json:"o:comment"`
	Term       string `json:"o:term"`
	Vocabulary Ref    `json:"o:vocabulary"`
}

// VocabularyRecord is a vocabulary payload.
type VocabularyRecord struct {
	IRI          string `json:"@id"`
	ID           int    `json:"o:id"`
	NamespaceURI string `json:"o:namespace_uri"`
	Prefix       string `json:"o:prefix"`
	Label        string `json:"o:label"`
	Comment      string `json:"o:comment"`
}

// ValueRecord is one property value of a resource.
// Fields other than the five known keys (e.g. "@id", "@language",
// "value_resource_id") are kept in Extra and written back unchanged.
// An absent "is_public" decodes as true, the server default.
//
// Value holds the raw "@value" bytes: nil when the key is absent, "null"
// for an explicit null. Numbers keep their exact text.
type ValueRecord struct {
	Value         json.RawMessage
	IsPublic      bool
	PropertyID    int
	PropertyLabel string
	Type          string
	Extra         map[string]json.RawMessage
}

const (
	keyValue         = "@value"
	keyIsPublic      = "is_public"
	keyPropertyID    = "property_id"
	keyPropertyLabel = "property_label"
	keyType          = "type"
)

// UnmarshalJSON implements json.Unmarshaler.
func (v *ValueRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*v = ValueRecord{IsPublic: true}
	if msg, ok := raw[keyValue]; ok {
		v.Value = append(json.RawMessage(nil), msg...)
		delete(raw, keyValue)
	}

	fields := []struct {
		key string
		dst any
	}{
		{keyIsPublic, &v.IsPublic},
		{keyPropertyID, &v.PropertyID},
		{keyPropertyLabel, &v.PropertyLabel},
		{keyType, &v.Type},
	}
	for _, f := range fields {
		msg, ok := raw[f.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(msg, f.dst); err != nil {
			return fmt.Errorf("value field %q: %w", f.key, err)
		}
		delete(raw, f.key)
	}

	if len(raw) > 0 {
		v.Extra = raw
	}
	return nil
}

// Literal decodes "@value". Numbers decode as json.Number. It returns nil
// when the key is absent or null.
func (v ValueRecord) Literal() any {
	if len(v.Value) == 0 {
		return nil
	}
	var out any
	dec := json.NewDecoder(bytes.NewReader(v.Value))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil
	}
	return out
}

// SetLiteral encodes value as "@value".
func (v *ValueRecord) SetLiteral(value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}
	v.Value = data
	return nil
}

// Canonical returns raw JSON with object keys sorted and whitespace removed.
// Number literals keep their text.
func Canonical(raw json.RawMessage) ([]byte, error) {
	var decoded any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return nil, err
	}
	return json.Marshal(decoded)
}

// MarshalJSON implements json.Marshaler.
func (v ValueRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(v.Extra)+5)
	for k, msg := range v.Extra {
		out[k] = msg
	}
	if v.Value != nil {
		out[keyValue] = v.Value
	}
	out[keyIsPublic] = v.IsPublic
	if v.PropertyID != 0 {
		out[keyPropertyID] = v.PropertyID
	}
	if v.PropertyLabel != "" {
		out[keyPropertyLabel] = v.PropertyLabel
	}
	if v.Type != "" {
		out[keyType] = v.Type
	}
	return json.Marshal(out)
}

// IsMetaKey reports whether a top-level resource key is metadata ("o:" or "@"
// prefixed) rather than a property term.
func IsMetaKey(key string) bool {
	return strings.HasPrefix(key, "o:") || strings.HasPrefix(key, "@")
}

// Resource is a full item payload: property terms mapped to ordered values,
// plus metadata keys kept verbatim.
type Resource struct {
	Meta       map[string]json.RawMessage
	Properties map[string][]ValueRecord
}

// NewResource creates an empty resource.
func NewResource() Resource {
	return Resource{
		Meta:       make(map[string]json.RawMessage),
		Properties: make(map[string][]ValueRecord),
	}
}

// UnmarshalJSON implements json.Unmarshaler. A non-meta key whose value is not
// a list of value objects is kept as metadata.
func (r *Resource) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = NewResource()
	for key, msg := range raw {
		if IsMetaKey(key) {
			r.Meta[key] = msg
			continue
		}
		var values []ValueRecord
		if err := json.Unmarshal(msg, &values); err != nil {
			r.Meta[key] = msg
			continue
		}
		r.Properties[key] = values
	}
	return nil
}

// MarshalJSON implements json.Marshaler. Keys are emitted in sorted order.
func (r Resource) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Meta)+len(r.Properties))
	for k, msg := range r.Meta {
		out[k] = msg
	}
	for term, values := range r.Properties {
		if values == nil {
			values = []ValueRecord{}
		}
		out[term] = values
	}
	return json.Marshal(out)
}

// ID returns the "o:id" of the resource, or 0 when absent.
func (r Resource) ID() int {
	var id int
	if msg, ok := r.Meta["o:id"]; ok {
		_ = json.Unmarshal(msg, &id)
	}
	return id
}

// Clone returns a deep copy.
func (r Resource) Clone() Resource {
	out := Resource{
		Meta:       make(map[string]json.RawMessage, len(r.Meta)),
		Properties: make(map[string][]ValueRecord, len(r.Properties)),
	}
	for k, msg := range r.Meta {
		out.Meta[k] = append(json.RawMessage(nil), msg...)
	}
	for term, values := range r.Properties {
		copied := make([]ValueRecord, len(values))
		for i, v := range values {
			copied[i] = v
			if v.Value != nil {
				copied[i].Value = append(json.RawMessage(nil), v.Value...)
			}
			if v.Extra != nil {
				copied[i].Extra = make(map[string]json.RawMessage, len(v.Extra))
				for k, msg := range v.Extra {
					copied[i].Extra[k] = append(json.RawMessage(nil), msg...)
				}
			}
		}
		out.Properties[term] = copied
	}
	return out
}
