package scheduling

import "strings"

// ZoneArea is a zone and the postal codes it covers.
type ZoneArea struct {
	ZoneID      uint
	PostalCodes []string
}

// NormalizePostalCode trims, upper-cases and strips inner spaces so "sw1a 1aa"
// and "SW1A1AA" compare equal.
func NormalizePostalCode(code string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), " ", ""))
}

// ResolveZone finds the zone covering a postal code. The first zone listing
// the code wins.
func ResolveZone(postalCode string, zones []ZoneArea) (uint, bool) {
	want := NormalizePostalCode(postalCode)
	if want == "" {
		return 0, false
	}
	for _, z := range zones {
		for _, pc := range z.PostalCodes {
			if NormalizePostalCode(pc) == want {
				return z.ZoneID, true
			}
		}
	}
	return 0, false
}
