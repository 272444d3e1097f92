package lihtne

import (
	"encoding/base64"
	"encoding/json"

	"github.com/aagamezl/lihtne/errcause"
)

// Cursor is an opaque keyset-pagination position: the last row's value
// for each ORDER BY column, plus which direction it points. The grammar
// never inspects a Cursor; only the Builder encodes/decodes it.
type Cursor struct {
	Values       map[string]interface{} `json:"values"`
	PointsToNext bool                    `json:"pointsToNext"`
}

// Encode serialises the cursor as base64-url JSON.
func (c *Cursor) Encode() (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", errcause.NewRuntime("encoding cursor: %v", err)
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}

// DecodeCursor parses a cursor previously produced by Encode.
func DecodeCursor(encoded string) (*Cursor, error) {
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errcause.NewInvalidArgument("malformed cursor: %v", err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, errcause.NewInvalidArgument("malformed cursor: %v", err)
	}
	return &c, nil
}
