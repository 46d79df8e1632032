package domain

import "strings"

var knownJurisdictions = map[string]struct{}{}

func init() {
	codes := []string{
		// US
		"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "DC", "FL", "GA", "HI", "ID", "IL", "IN", "IA",
		"KS", "KY", "LA", "ME", "MD", "MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ", "NM",
		"NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC", "SD", "TN", "TX", "UT", "VT", "VA", "WA",
		"WV", "WI", "WY",
		// Canada
		"AB", "BC", "MB", "NB", "NL", "NS", "NT", "NU", "ON", "PE", "QC", "SK", "YT",
	}
	for _, c := range codes {
		knownJurisdictions[c] = struct{}{}
	}
}

// NormalizeJurisdiction upper-cases and trims a code. Empty in, empty out.
func NormalizeJurisdiction(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsKnownJurisdiction reports whether code is a US state/DC or Canadian
// province/territory code.
func IsKnownJurisdiction(code string) bool {
	_, ok := knownJurisdictions[NormalizeJurisdiction(code)]
	return ok
}

// JurisdictionParse is the typed result of reading a jurisdiction out of free
// text. Exactly one of Code or Unparseable is set.
type JurisdictionParse struct {
	Code        string
	Unparseable string
}

func (p JurisdictionParse) OK() bool { return p.Code != "" }

// ParseJurisdictionText extracts a jurisdiction code from an address-like
// string such as "Dallas, TX" or "Reno, NV 89501". The code is the first
// two-letter token after the last comma; a bare code ("tx") is accepted too.
// Anything that does not resolve to a known code is Unparseable.
func ParseJurisdictionText(text string) JurisdictionParse {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return JurisdictionParse{Unparseable: text}
	}

	if IsKnownJurisdiction(raw) {
		return JurisdictionParse{Code: NormalizeJurisdiction(raw)}
	}

	idx := strings.LastIndex(raw, ",")
	if idx < 0 {
		return JurisdictionParse{Unparseable: text}
	}
	for _, tok := range strings.Fields(raw[idx+1:]) {
		tok = strings.Trim(tok, ".;")
		if len(tok) != 2 {
			continue
		}
		if IsKnownJurisdiction(tok) {
			return JurisdictionParse{Code: NormalizeJurisdiction(tok)}
		}
		break
	}
	return JurisdictionParse{Unparseable: text}
}
