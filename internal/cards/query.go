package cards

import (
	"fmt"
	"strings"
)

// CleanCollectorNumber strips the printed total from a collector number,
// e.g. "046/281" becomes "046". Scryfall accepts leading zeros as-is.
func CleanCollectorNumber(raw string) string {
	return strings.TrimSpace(strings.SplitN(raw, "/", 2)[0])
}

// PreciseQuery builds an exact-name search narrowed by set code and
// collector number when available, pinning the exact printing:
//
//	!"Lightning Bolt" set:m25 cn:141
//
// Empty qualifiers are omitted.
func PreciseQuery(name, setCode, collectorNumber string) string {
	q := fmt.Sprintf("!%q", name)
	if setCode != "" {
		q += " set:" + setCode
	}
	if cn := CleanCollectorNumber(collectorNumber); cn != "" {
		q += " cn:" + cn
	}
	return q
}
