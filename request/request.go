// Package request provides the request descriptor shared by the API client and the response cache.
package request

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"maps"
	"net/url"
)

// Params are query parameters. Each key carries a single value.
type Params map[string]string

// Clone returns an independent copy (never nil).
func (p Params) Clone() Params {
	out := make(Params, len(p))
	maps.Copy(out, p)
	return out
}

// Values converts the params to url.Values for the transport.
func (p Params) Values() url.Values {
	values := make(url.Values, len(p))
	for k, v := range p {
		values.Set(k, v)
	}
	return values
}

// Descriptor identifies a logical request: a path relative to the API endpoint plus its params.
type Descriptor struct {
	Path   string `json:"path"`
	Params Params `json:"params"`
}

// New creates a descriptor. The params are copied.
func New(path string, params Params) Descriptor {
	return Descriptor{Path: path, Params: params.Clone()}
}

// Checksum returns the hex SHA256 of the descriptor's canonical JSON.
// encoding/json sorts map keys, so insertion order of params never matters.
func (d Descriptor) Checksum() string {
	canonical := d
	if canonical.Params == nil {
		canonical.Params = Params{}
	}
	jsonData, _ := json.Marshal(canonical)
	hash := sha256.Sum256(jsonData)
	return hex.EncodeToString(hash[:])
}
