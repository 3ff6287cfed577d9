package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// MediaBlob is one base64-encoded image or document attached to a vehicle record.
// Data may carry a data-URI prefix ("data:image/jpeg;base64,").
type MediaBlob struct {
	Name string `json:"name,omitempty"`
	Data string `json:"data"`
}

// EstimatedBytes returns the approximate decoded size of the blob
func (b MediaBlob) EstimatedBytes() int64 {
	return EstimateEncodedBytes(b.Data)
}

// EstimateEncodedBytes approximates the decoded size of a base64 payload.
// A leading data-URI header is stripped first. Padding is not corrected for.
func EstimateEncodedBytes(data string) int64 {
	payload := data
	if strings.HasPrefix(payload, "data:") {
		if idx := strings.IndexByte(payload, ','); idx >= 0 {
			payload = payload[idx+1:]
		}
	}
	return int64(len(payload)) * 3 / 4
}

// MediaList is an ordered list of blobs stored as a JSON column
type MediaList []MediaBlob

// TotalBytes sums the estimated size of every blob in the list
func (l MediaList) TotalBytes() int64 {
	var total int64
	for _, b := range l {
		total += b.EstimatedBytes()
	}
	return total
}

// Clone returns an independent copy of the list
func (l MediaList) Clone() MediaList {
	if l == nil {
		return nil
	}
	out := make(MediaList, len(l))
	copy(out, l)
	return out
}

// Value implements driver.Valuer for database storage
func (l MediaList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for database retrieval
func (l *MediaList) Scan(value any) error {
	if value == nil {
		*l = MediaList{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into MediaList", value)
	}
	if len(raw) == 0 {
		*l = MediaList{}
		return nil
	}
	return json.Unmarshal(raw, l)
}
