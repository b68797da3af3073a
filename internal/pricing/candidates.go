package pricing

import "strings"

// MaxFallbackCandidates bounds the number of catalog lookups a single SKU may trigger.
const MaxFallbackCandidates = 32

// FallbackCandidates lists related SKUs to try when the requested SKU has no usable
// price, most specific first. Variant suffixes are peeled off one hyphen segment at a
// time, and each step is also tried with trailing letters removed:
//
//	WF-TS-001-RED -> WF-TS-001, WF-TS, WF
//	WF-TS-001B    -> WF-TS-001, WF-TS, WF
//
// The requested SKU itself and empty values are never returned.
func FallbackCandidates(sku string) []string {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil
	}
	seen := map[string]struct{}{sku: {}}
	out := make([]string, 0, 8)
	add := func(candidate string) {
		if candidate == "" || len(out) >= MaxFallbackCandidates {
			return
		}
		if _, dup := seen[candidate]; dup {
			return
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}

	add(stripTrailingLetters(sku))
	current := sku
	for {
		idx := strings.LastIndex(current, "-")
		if idx <= 0 {
			break
		}
		current = trimSeparators(current[:idx])
		if current == "" {
			break
		}
		add(current)
		add(stripTrailingLetters(current))
	}
	return out
}

func stripTrailingLetters(sku string) string {
	end := len(sku)
	for end > 0 && isASCIILetter(sku[end-1]) {
		end--
	}
	return trimSeparators(sku[:end])
}

func trimSeparators(s string) string {
	return strings.TrimRight(s, "-_ ")
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
