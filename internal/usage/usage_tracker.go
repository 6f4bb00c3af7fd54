// Package usage records model token consumption per workspace.
package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"google.golang.org/genai"

	"renoplan/internal/logging"
)

type contextKey struct{}

type agentKey struct{}

type agentInfo struct {
	Agent     string
	SessionID string
}

// autoSaveDelay debounces writes after Track.
var autoSaveDelay = 5 * time.Second

// Tracker manages token usage recording and persistence.
type Tracker struct {
	mu       sync.Mutex
	data     UsageData
	filePath string
	timer    *time.Timer
}

// NewTracker creates a tracker persisting to dataDir/usage.json.
func NewTracker(dataDir string) (*Tracker, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	t := &Tracker{
		filePath: filepath.Join(dataDir, "usage.json"),
		data:     UsageData{Version: "1.0"},
	}
	t.data.Aggregate.ensureMaps()

	if err := t.Load(); err != nil {
		logging.APIWarn("usage file unreadable, starting fresh: %v", err)
	}
	return t, nil
}

func (a *AggregatedStats) ensureMaps() {
	if a.ByModel == nil {
		a.ByModel = make(map[string]TokenCounts)
	}
	if a.ByAgent == nil {
		a.ByAgent = make(map[string]TokenCounts)
	}
	if a.ByOperation == nil {
		a.ByOperation = make(map[string]TokenCounts)
	}
	if a.BySession == nil {
		a.BySession = make(map[string]TokenCounts)
	}
}

// Load reads the usage data from disk.
func (t *Tracker) Load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := os.ReadFile(t.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, &t.data); err != nil {
		return err
	}
	t.data.Aggregate.ensureMaps()
	return nil
}

// Save writes the usage data to disk, cancelling any pending autosave.
func (t *Tracker) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	return t.saveLocked()
}

func (t *Tracker) saveLocked() error {
	data, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(t.filePath, data, 0644)
}

// Track records one model call.
func (t *Tracker) Track(ctx context.Context, model, operation string, input, output int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	info := agentFromContext(ctx)

	agg := &t.data.Aggregate
	agg.TotalProject.Add(input, output)
	addToMap(agg.ByModel, model, input, output)
	addToMap(agg.ByAgent, info.Agent, input, output)
	addToMap(agg.ByOperation, operation, input, output)
	addToMap(agg.BySession, info.SessionID, input, output)

	if t.timer == nil {
		t.timer = time.AfterFunc(autoSaveDelay, func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.timer = nil
			if err := t.saveLocked(); err != nil {
				logging.APIWarn("usage autosave failed: %v", err)
			}
		})
	}
}

// TrackResponse records the usage metadata of a Gemini response.
func (t *Tracker) TrackResponse(ctx context.Context, model, operation string, resp *genai.GenerateContentResponse) {
	if t == nil || resp == nil || resp.UsageMetadata == nil {
		return
	}
	m := resp.UsageMetadata
	t.Track(ctx, model, operation, int(m.PromptTokenCount), int(m.CandidatesTokenCount+m.ThoughtsTokenCount))
}

// Stats returns a copy of the aggregated stats.
func (t *Tracker) Stats() AggregatedStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.data.Aggregate
	stats.ByModel = copyTokenCountsMap(stats.ByModel)
	stats.ByAgent = copyTokenCountsMap(stats.ByAgent)
	stats.ByOperation = copyTokenCountsMap(stats.ByOperation)
	stats.BySession = copyTokenCountsMap(stats.BySession)
	return stats
}

// Summary renders the stats for the usage command.
func (t *Tracker) Summary() string {
	stats := t.Stats()
	if stats.TotalProject.Calls == 0 {
		return "No model usage recorded yet."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Total: %s calls, %s tokens (%s in / %s out)\n",
		humanize.Comma(stats.TotalProject.Calls),
		humanize.Comma(stats.TotalProject.Total),
		humanize.Comma(stats.TotalProject.Input),
		humanize.Comma(stats.TotalProject.Output))
	writeSection(&sb, "By model", stats.ByModel)
	writeSection(&sb, "By agent", stats.ByAgent)
	writeSection(&sb, "By operation", stats.ByOperation)
	return strings.TrimRight(sb.String(), "\n")
}

func writeSection(sb *strings.Builder, title string, m map[string]TokenCounts) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(sb, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(sb, "  • %s: %s calls, %s tokens\n", k, humanize.Comma(m[k].Calls), humanize.Comma(m[k].Total))
	}
}

func copyTokenCountsMap(src map[string]TokenCounts) map[string]TokenCounts {
	if src == nil {
		return nil
	}
	dst := make(map[string]TokenCounts, len(src))
	for key, counts := range src {
		dst[key] = counts
	}
	return dst
}

func addToMap(m map[string]TokenCounts, key string, input, output int) {
	entry := m[key]
	entry.Add(input, output)
	m[key] = entry
}

// Context helpers

// NewContext returns a new context carrying the tracker.
func NewContext(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext retrieves the tracker from the context, or nil.
func FromContext(ctx context.Context) *Tracker {
	t, _ := ctx.Value(contextKey{}).(*Tracker)
	return t
}

// WithAgent tags usage recorded under ctx with an agent and session.
func WithAgent(ctx context.Context, agent, sessionID string) context.Context {
	return context.WithValue(ctx, agentKey{}, agentInfo{Agent: agent, SessionID: sessionID})
}

func agentFromContext(ctx context.Context) agentInfo {
	info, _ := ctx.Value(agentKey{}).(agentInfo)
	if info.Agent == "" {
		info.Agent = "unknown"
	}
	if info.SessionID == "" {
		info.SessionID = "unknown"
	}
	return info
}
