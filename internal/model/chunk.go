package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Metadata is the free-form per-chunk metadata map. Values are restricted to
// string, int and bool (plus nil) so that both the relational JSON column and
// the search index receive the same flat representation.
type Metadata map[string]interface{}

func (m Metadata) SetString(key, value string) { m[key] = value }
func (m Metadata) SetInt(key string, value int) { m[key] = value }
func (m Metadata) SetBool(key string, value bool) { m[key] = value }

// Normalize drops values outside the supported scalar set. JSON decoding
// produces float64 for numbers; integral floats are converted back to int.
func (m Metadata) Normalize() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case string, int, bool, nil:
			out[k] = t
		case int64:
			out[k] = int(t)
		case float64:
			if t == float64(int(t)) {
				out[k] = int(t)
			}
		}
	}
	return out
}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode chunk metadata: %w", err)
	}
	return string(data), nil
}

func (m *Metadata) Scan(src interface{}) error {
	var data []byte
	switch t := src.(type) {
	case []byte:
		data = t
	case string:
		data = []byte(t)
	case nil:
		*m = Metadata{}
		return nil
	default:
		return fmt.Errorf("unsupported metadata source type %T", src)
	}
	var raw Metadata
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode chunk metadata: %w", err)
	}
	*m = raw.Normalize()
	return nil
}

type DocumentChunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Text       string    `json:"text"`
	Metadata   Metadata  `json:"metadata"`
	Embedding  []float32 `json:"-"`
	Position   int       `json:"position"`
}
