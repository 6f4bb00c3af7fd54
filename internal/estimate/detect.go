package estimate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	roomPatterns = []struct {
		room string
		re   *regexp.Regexp
	}{
		{RoomKitchen, regexp.MustCompile(`(?i)\bkitchens?\b`)},
		{RoomBathroom, regexp.MustCompile(`(?i)\b(bath(room)?s?|powder room|ensuite|shower)\b`)},
		{RoomBedroom, regexp.MustCompile(`(?i)\b(bed ?rooms?|master suite|nursery)\b`)},
		{RoomLivingRoom, regexp.MustCompile(`(?i)\b(living ?rooms?|family rooms?|lounge|den)\b`)},
	}

	scopePatterns = []struct {
		scope string
		re    *regexp.Regexp
	}{
		{ScopeLuxury, regexp.MustCompile(`(?i)\b(luxury|high[- ]end|custom)\b`)},
		{ScopeFull, regexp.MustCompile(`(?i)\b(full|gut|complete|down to the studs)\b`)},
		{ScopeCosmetic, regexp.MustCompile(`(?i)\b(cosmetic|refresh|paint only|quick|light)\b`)},
		{ScopeModerate, regexp.MustCompile(`(?i)\b(moderate|mid[- ]range)\b`)},
	}

	sqftPattern   = regexp.MustCompile(`(?i)(\d[\d,]*)\s*(sq\.?\s*ft|sqft|square\s*feet|square\s*foot|sf)\b`)
	budgetPattern = regexp.MustCompile(`(?i)\$\s*(\d[\d,]*(?:\.\d+)?)\s*(k\b)?`)
)

// DetectRoom returns the first room type mentioned in text.
func DetectRoom(text string) (string, bool) {
	best, bestIdx := "", -1
	for _, p := range roomPatterns {
		if loc := p.re.FindStringIndex(text); loc != nil && (bestIdx < 0 || loc[0] < bestIdx) {
			best, bestIdx = p.room, loc[0]
		}
	}
	return best, bestIdx >= 0
}

// DetectScope returns the renovation scope mentioned in text.
func DetectScope(text string) (string, bool) {
	for _, p := range scopePatterns {
		if p.re.MatchString(text) {
			return p.scope, true
		}
	}
	return "", false
}

// DetectSqFt returns a square footage mentioned in text.
func DetectSqFt(text string) (int, bool) {
	m := sqftPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// DetectBudget returns a dollar budget mentioned in text ("$25,000",
// "$25k").
func DetectBudget(text string) (int, bool) {
	m := budgetPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	if m[2] != "" {
		f *= 1000
	}
	return int(f), true
}
