package extract

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"finrep/pkg/models"
)

// XMLExtractor reads the flat statement XML produced by the filing portal.
// The document body is a sequence of leaf elements named either by a header
// key (TIN, Y, M, FC) or by a line-item code (R2000G3 etc.); nesting depth
// and element order are irrelevant. Example:
//
//	<DECLAR>
//	  <TIN>12345678</TIN>
//	  <Y>2024</Y><M>12</M>
//	  <FC>S0110014</FC>
//	  <R2000G3>1500</R2000G3>
//	</DECLAR>
type XMLExtractor struct{}

// NewXMLExtractor returns the stateless XML extractor.
func NewXMLExtractor() *XMLExtractor {
	return &XMLExtractor{}
}

// Extract parses the statement file at path into a canonical record. A value
// that fails numeric parsing counts as 0 (same degradation as a missing line
// item); a document without a TIN is rejected because the record could never
// be keyed for persistence.
func (x *XMLExtractor) Extract(ctx context.Context, path string) (*models.StatementRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open statement: %w", err)
	}
	defer f.Close()

	rec := &models.StatementRecord{Lines: make(map[string]float64)}

	dec := xml.NewDecoder(f)
	var current string
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed statement XML in %s: %w", path, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			current = t.Name.Local
			text.Reset()
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if t.Name.Local == current {
				x.apply(rec, current, strings.TrimSpace(text.String()))
			}
			current = ""
			text.Reset()
		}
	}

	if rec.TIN == "" {
		return nil, fmt.Errorf("statement %s carries no TIN", path)
	}
	return rec, nil
}

func (x *XMLExtractor) apply(rec *models.StatementRecord, name, value string) {
	if value == "" {
		return
	}
	switch name {
	case "TIN":
		rec.TIN = value
	case "Y":
		rec.Y = int(parseNumber(value))
	case "M":
		rec.M = int(parseNumber(value))
	case "FC":
		rec.FormID = value
	default:
		if models.IsLineCode(name) {
			rec.SetLine(name, parseNumber(value))
		}
	}
}

// parseNumber tolerates the portal's numeric quirks: embedded spaces as digit
// groups and a comma decimal separator. Anything still unparsable is 0.
func parseNumber(s string) float64 {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
