package listing

import "regexp"

// idPattern matches the positional identifier marker in detail-page URLs,
// e.g. ".../tracked-excavator--id8472913.htm".
var idPattern = regexp.MustCompile(`(?i)--id(\d+)\.htm`)

// ExtractID derives the canonical listing identifier from a URL. Two URLs
// yielding the same id are the same listing regardless of query-string
// differences; this is the dedup key for the whole pipeline. Returns
// ok=false when the URL does not carry the marker.
func ExtractID(rawURL string) (string, bool) {
	m := idPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}
