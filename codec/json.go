package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// The per-slot shard partial is the wire shape {"unique": n, "vals": [...]};
// both built-in codecs honor the custom marshaling of that type, so the
// presence-iff-under-cap invariant survives either codec.
//
// If you need custom encoding (e.g. protobuf/msgpack), implement Codec and
// pass it to the transport via the facade's WithCodec option.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the default codec used by the library.
//
// NOTE: This affects newly-written transport blocks. Blocks are
// self-describing (they store the codec name in their header) and are
// decoded by selecting the appropriate codec by name.
var Default Codec = GoJSON{}
