package perception

import (
	"context"
	"regexp"

	"renoplan/internal/logging"
)

// cuePattern is one weighted signal in the cue corpus.
type cuePattern struct {
	Name    string
	Pattern *regexp.Regexp
	Weight  int
}

func cue(name string, weight int, expr string) cuePattern {
	return cuePattern{Name: name, Pattern: regexp.MustCompile(`(?i)` + expr), Weight: weight}
}

// EditCues indicate a change to an existing image.
var EditCues = []cuePattern{
	cue("make_it", 3, `\b(make|turn)\s+(it|them|the|this|that|these|those|everything|all)\b`),
	cue("change_verb", 3, `\b(change|modify|edit|adjust|tweak|alter)\b`),
	cue("comparative", 3, `\b(darker|lighter|brighter|warmer|cooler|bigger|smaller|wider|taller|softer|bolder)\b`),
	cue("swap", 2, `\b(swap|replace|switch)\b`),
	cue("add_remove", 2, `\b(add|remove|get rid of|take out|put in)\b`),
	cue("instead", 2, `\b(instead|rather than)\b`),
	cue("recolor", 2, `\b(paint|repaint|recolou?r)\b`),
	cue("this_image", 2, `\b(this|that|the|my)\s+(image|render(ing)?|picture|photo|version)\b`),
	cue("version_ref", 2, `(\bv\d+\b|_v\d+\.)`),
	cue("more_less", 1, `\b(more|less)\s+[a-z]+`),
}

// PlanCues indicate a new renovation project or design.
var PlanCues = []cuePattern{
	cue("renovate", 3, `\b(renovat\w*|remodel\w*|overhaul\w*|makeover|redo|revamp\w*|transform\w*)\b`),
	cue("new_space", 3, `\bnew\s+(kitchen|bathroom|bath|bedroom|living\s*room|room|space|project|design|look)\b`),
	cue("plan_design", 2, `\b(plan|planning|design|redesign)\b`),
	cue("start_project", 2, `\b(start|begin|kick\s*off)\s+(a|my|the|our)?\s*(project|renovation|remodel)`),
	cue("budget", 1, `\b(budget|contractor|timeline)\b`),
	cue("help_me", 1, `\bhelp\s+me\b`),
}

// InfoCues indicate a question or small talk. They damp plan intent only;
// "can you make it darker?" is still an edit.
var InfoCues = []cuePattern{
	cue("greeting", 4, `^\s*(hi|hello|hey|thanks|thank you)\b`),
	cue("how_question", 3, `\bhow\s+(much|long|many|do|does|can|should)\b`),
	cue("what_question", 3, `\bwhat\s+(is|are|do|does|can|should|would|kind)\b`),
	cue("cost_words", 2, `\b(cost|costs|price|average|typical)\b`),
	cue("explain", 2, `\b(explain|tell me about|difference between)\b`),
	cue("question_mark", 1, `\?\s*$`),
}

func score(text string, corpus []cuePattern, matched *[]string) int {
	total := 0
	for _, c := range corpus {
		if c.Pattern.MatchString(text) {
			total += c.Weight
			*matched = append(*matched, c.Name)
		}
	}
	return total
}

// ExtractCues scores text against the cue corpus.
func ExtractCues(text string) Cues {
	var c Cues
	c.EditScore = score(text, EditCues, &c.Matched)
	c.PlanScore = score(text, PlanCues, &c.Matched)
	c.InfoScore = score(text, InfoCues, &c.Matched)

	switch {
	case c.EditScore > 0 && c.EditScore == c.PlanScore:
		c.Tied = true
	case c.EditScore > c.PlanScore:
		c.EditIntent = true
	case c.PlanScore > c.EditScore && c.PlanScore > c.InfoScore:
		c.NewProjectIntent = true
	}
	return c
}

// HeuristicRouter routes with the regex cue corpus.
type HeuristicRouter struct{}

// NewHeuristicRouter returns the regex router.
func NewHeuristicRouter() *HeuristicRouter { return &HeuristicRouter{} }

// Route implements Router.
func (HeuristicRouter) Route(_ context.Context, u Utterance) Decision {
	d := Decide(u, ExtractCues(u.Text))
	logging.Routing("heuristic -> %s (%s) edit=%d plan=%d info=%d matched=%v",
		d.Destination, d.Reason, d.Cues.EditScore, d.Cues.PlanScore, d.Cues.InfoScore, d.Cues.Matched)
	return d
}
