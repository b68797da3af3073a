// Package taxrate resolves sales-tax rates and states for US ZIP codes.
package taxrate

import "strings"

// NormalizeZip reduces a ZIP or ZIP+4 code to its five-digit form. It reports
// false when the input does not start with five digits.
func NormalizeZip(zip string) (string, bool) {
	zip = strings.TrimSpace(zip)
	if i := strings.IndexAny(zip, "- "); i >= 0 {
		zip = zip[:i]
	}
	if len(zip) == 9 {
		zip = zip[:5]
	}
	if len(zip) != 5 {
		return "", false
	}
	for i := 0; i < len(zip); i++ {
		if zip[i] < '0' || zip[i] > '9' {
			return "", false
		}
	}
	return zip, true
}
