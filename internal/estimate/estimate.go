// Package estimate holds rule-of-thumb renovation cost and timeline tables.
package estimate

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Range is a low/high pair in US dollars.
type Range struct {
	Low  int
	High int
}

// Scopes in increasing order of work.
const (
	ScopeCosmetic = "cosmetic"
	ScopeModerate = "moderate"
	ScopeFull     = "full"
	ScopeLuxury   = "luxury"
)

// Room keys of the rate table.
const (
	RoomKitchen    = "kitchen"
	RoomBathroom   = "bathroom"
	RoomBedroom    = "bedroom"
	RoomLivingRoom = "living_room"
)

// perSqFt holds 2024 cost per square foot.
var perSqFt = map[string]map[string]Range{
	RoomKitchen: {
		ScopeCosmetic: {50, 100}, ScopeModerate: {150, 250}, ScopeFull: {300, 500}, ScopeLuxury: {600, 1200},
	},
	RoomBathroom: {
		ScopeCosmetic: {75, 125}, ScopeModerate: {200, 350}, ScopeFull: {400, 600}, ScopeLuxury: {800, 1500},
	},
	RoomBedroom: {
		ScopeCosmetic: {30, 60}, ScopeModerate: {75, 150}, ScopeFull: {150, 300}, ScopeLuxury: {400, 800},
	},
	RoomLivingRoom: {
		ScopeCosmetic: {40, 80}, ScopeModerate: {100, 200}, ScopeFull: {200, 400}, ScopeLuxury: {500, 1000},
	},
}

var timelines = map[string]string{
	ScopeCosmetic: "1-2 weeks (quick refresh)",
	ScopeModerate: "3-6 weeks (includes some structural work)",
	ScopeFull:     "2-4 months (complete transformation)",
	ScopeLuxury:   "4-6 months (custom work, high-end finishes)",
}

// CostEstimate is the result of Cost.
type CostEstimate struct {
	Room     string // normalized table key actually used
	RoomType string // as given by the caller
	Scope    string
	SqFt     int
	PerSqFt  Range
	Total    Range
}

// NormalizeRoom maps a free-form room type to a table key. Unknown rooms
// use the living room rates.
func NormalizeRoom(roomType string) string {
	room := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(roomType)), " ", "_")
	switch room {
	case "bath":
		room = RoomBathroom
	case "living", "livingroom", "family_room", "lounge":
		room = RoomLivingRoom
	}
	if _, ok := perSqFt[room]; !ok {
		return RoomLivingRoom
	}
	return room
}

// NormalizeScope maps scope to a table key. Unknown scopes are moderate.
func NormalizeScope(scope string) string {
	s := strings.ToLower(strings.TrimSpace(scope))
	if _, ok := timelines[s]; !ok {
		return ScopeModerate
	}
	return s
}

// Cost estimates the total for a room of sqft square feet.
func Cost(roomType, scope string, sqft int) CostEstimate {
	room := NormalizeRoom(roomType)
	s := NormalizeScope(scope)
	if sqft < 0 {
		sqft = 0
	}
	rate := perSqFt[room][s]
	return CostEstimate{
		Room:     room,
		RoomType: roomType,
		Scope:    s,
		SqFt:     sqft,
		PerSqFt:  rate,
		Total:    Range{Low: rate.Low * sqft, High: rate.High * sqft},
	}
}

func (e CostEstimate) String() string {
	return fmt.Sprintf("💰 Estimated Cost: $%s - $%s (%s %s renovation, ~%d sq ft)",
		humanize.Comma(int64(e.Total.Low)), humanize.Comma(int64(e.Total.High)), e.Scope, e.RoomType, e.SqFt)
}

// Timeline returns the typical duration for scope.
func Timeline(scope string) string {
	return timelines[NormalizeScope(scope)]
}

// TimelineText is Timeline formatted for chat output.
func TimelineText(scope string) string {
	return "⏱️ Estimated Timeline: " + Timeline(scope)
}
