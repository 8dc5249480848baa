// Package catalog reconciles raw statement directories into one chosen file
// (or file pair) per entity. Parsing and selection are pure; the only I/O is
// the directory listing.
package catalog

import (
	"errors"
	"regexp"
)

// Statement files follow a fixed naming convention:
//
//	<entityCode>_<region>_..._<formCode>_..._<YYYY-MM-DD HH_MM_SS>.xml
//
// entityCode is 8-9 digits, the form code (present only on paired filings)
// matches S0100\d{3}, and the date token is immediately followed by a time
// token. Matching is case-insensitive on the extension and form code.
var fileNameRE = regexp.MustCompile(`(?i)^(\d{8,9})_(?:.*?(S0100\d{3}))?.*?_(\d{4}-\d{2}-\d{2}) \d{2}_\d{2}_\d{2}\.xml$`)

var (
	// ErrNoMatch means the filename does not follow the naming convention.
	// Callers skip such files silently.
	ErrNoMatch = errors.New("catalog: filename does not match statement naming convention")
	// ErrFormRequired means the name matched but carries no form code while
	// the caller operates in paired-form mode.
	ErrFormRequired = errors.New("catalog: filename lacks required form code")
)

// SourceFile is the metadata parsed out of a statement filename. AsOfDate is
// the ISO date string captured from the name; because the format is fixed
// ("YYYY-MM-DD"), lexicographic order equals chronological order.
type SourceFile struct {
	Name       string
	EntityCode string
	FormCode   string // empty for self-contained (micro) statements
	AsOfDate   string
}

// ParseFileName extracts entity code, optional form code and as-of date from
// a statement filename. With needFormCode set, a name without a form code is
// a parse failure even though the overall pattern matched.
func ParseFileName(name string, needFormCode bool) (SourceFile, error) {
	m := fileNameRE.FindStringSubmatch(name)
	if m == nil {
		return SourceFile{}, ErrNoMatch
	}
	sf := SourceFile{
		Name:       name,
		EntityCode: m[1],
		FormCode:   m[2],
		AsOfDate:   m[3],
	}
	if needFormCode && sf.FormCode == "" {
		return SourceFile{}, ErrFormRequired
	}
	return sf, nil
}

// RegionAllowed reports whether the filename belongs to one of the allowed
// two-character region codes. The region sits at a fixed offset in the name
// (characters 10-11, i.e. name[9:11]), right after an 8-digit entity code and
// its underscore. Names too short to carry a region are rejected.
func RegionAllowed(name string, regions []string) bool {
	if len(name) < 11 {
		return false
	}
	code := name[9:11]
	for _, r := range regions {
		if code == r {
			return true
		}
	}
	return false
}
