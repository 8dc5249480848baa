// Package models defines the canonical data shapes exchanged between the
// catalog, batch, calc and store layers.
package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// Form identifier codes carried in the FC metadata field of a statement.
const (
	FormFullReport  = "S0100115" // full accounting schema (forms 1 + 2)
	FormShortReport = "S0110014" // abbreviated (micro/small entity) schema
)

var lineCodeRE = regexp.MustCompile(`^R\d{3,4}G\d$`)

// IsLineCode reports whether key names a statement line item ("R<row>G<col>").
func IsLineCode(key string) bool {
	return lineCodeRE.MatchString(key)
}

// StatementRecord is the canonical raw statement for one entity and one
// reporting period: header metadata plus a flat map of line-item values keyed
// by row/column code (e.g. "R2000G3" = net revenue, current period).
//
// The wire format is the flat JSON object produced by the extractor and
// consumed by the bulk uploader: {"TIN": "...", "Y": 2024, "M": 12,
// "FC": "S0110014", "R2000G3": 1500, ...}.
type StatementRecord struct {
	TIN    string // entity code, 8-9 digit numeric string
	Y      int    // reporting year
	M      int    // months covered by the period (3, 6, 9 or 12)
	FormID string // statement form identifier, see Form* constants
	Lines  map[string]float64
}

// Line returns the value of a line-item code, or 0 when the statement omits
// it. Sums over absent fields must behave as if the field were zero.
func (r *StatementRecord) Line(code string) float64 {
	if r.Lines == nil {
		return 0
	}
	return r.Lines[code]
}

// SetLine stores a line-item value, allocating the map on first use.
func (r *StatementRecord) SetLine(code string, value float64) {
	if r.Lines == nil {
		r.Lines = make(map[string]float64)
	}
	r.Lines[code] = value
}

// Period returns the persistence partition key for this record, e.g. "2024_12".
func (r *StatementRecord) Period() string {
	return fmt.Sprintf("%d_%d", r.Y, r.M)
}

// Merge overlays other onto r: metadata and every line item of other win on
// collision (last writer wins). Used to assemble one record from a paired
// balance-sheet + income-statement filing.
func (r *StatementRecord) Merge(other *StatementRecord) {
	if other == nil {
		return
	}
	if other.TIN != "" {
		r.TIN = other.TIN
	}
	if other.Y != 0 {
		r.Y = other.Y
	}
	if other.M != 0 {
		r.M = other.M
	}
	if other.FormID != "" {
		r.FormID = other.FormID
	}
	for code, v := range other.Lines {
		r.SetLine(code, v)
	}
}

// IsFullReport reports whether the record uses the full accounting schema.
func (r *StatementRecord) IsFullReport() bool {
	return r.FormID == FormFullReport
}

// MarshalJSON emits the flat legacy object: header keys first-class, line
// items at top level.
func (r *StatementRecord) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(r.Lines)+4)
	flat["TIN"] = r.TIN
	flat["Y"] = r.Y
	flat["M"] = r.M
	flat["FC"] = r.FormID
	for code, v := range r.Lines {
		flat[code] = v
	}
	return json.Marshal(flat)
}

// UnmarshalJSON reads the flat object back. Source files are inconsistent
// about numeric typing ("1500" vs 1500), so both are accepted; a line item
// that parses to nothing counts as 0 rather than failing the record.
func (r *StatementRecord) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	r.Lines = make(map[string]float64)
	for key, raw := range flat {
		switch key {
		case "TIN":
			r.TIN = asString(raw)
		case "Y":
			r.Y = int(asNumber(raw))
		case "M":
			r.M = int(asNumber(raw))
		case "FC":
			r.FormID = asString(raw)
		default:
			if IsLineCode(key) {
				r.Lines[key] = asNumber(raw)
			}
			// Unknown keys (FN, free-text header fields) are dropped.
		}
	}
	return nil
}

func asString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func asNumber(raw json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return 0
}
