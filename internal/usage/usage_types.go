package usage

// UsageData is the root structure stored in usage.json.
type UsageData struct {
	Version   string          `json:"version"`
	Aggregate AggregatedStats `json:"aggregate"`
}

// AggregatedStats holds counters broken down by dimension.
type AggregatedStats struct {
	TotalProject TokenCounts            `json:"total_project"`
	ByModel      map[string]TokenCounts `json:"by_model"`
	ByAgent      map[string]TokenCounts `json:"by_agent"`     // info, editor, assessor, designer, coordinator, search, router
	ByOperation  map[string]TokenCounts `json:"by_operation"` // text, image, rewrite
	BySession    map[string]TokenCounts `json:"by_session"`
}

// TokenCounts holds input/output sums.
type TokenCounts struct {
	Calls  int64 `json:"calls"`
	Input  int64 `json:"input"`
	Output int64 `json:"output"`
	Total  int64 `json:"total"`
}

func (tc *TokenCounts) Add(input, output int) {
	tc.Calls++
	tc.Input += int64(input)
	tc.Output += int64(output)
	tc.Total += int64(input + output)
}
