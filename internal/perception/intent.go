package perception

import (
	"context"
	"strings"

	"renoplan/internal/types"
)

// Destination is where a user turn is dispatched.
type Destination string

const (
	DestinationInfo Destination = "INFO"
	DestinationEdit Destination = "EDIT"
	DestinationPlan Destination = "PLAN"
)

// Utterance is one user turn plus the context flags the router needs.
type Utterance struct {
	Text              string
	HasUploadedImage  bool
	HasPriorRendering bool
}

// Cues are the intent signals extracted from the text.
type Cues struct {
	EditIntent       bool
	NewProjectIntent bool
	// Tied marks equal edit and new-project evidence.
	Tied bool

	EditScore int
	PlanScore int
	InfoScore int
	Matched   []string
}

// Decision is the router's output. Destination is always one of the three
// constants.
type Decision struct {
	Destination Destination
	Cues        Cues
	Reason      string
	Ambiguous   bool
}

// Err returns types.ErrClassificationAmbiguous for ambiguous decisions.
func (d Decision) Err() error {
	if d.Ambiguous {
		return types.ErrClassificationAmbiguous
	}
	return nil
}

// Router classifies a turn. Implementations never fail.
type Router interface {
	Route(ctx context.Context, u Utterance) Decision
}

// Decide applies the routing policy to extracted cues:
//  1. edit intent with an uploaded image or a prior rendering -> EDIT
//  2. new-project intent, or an image supplied without edit intent -> PLAN
//  3. anything else -> INFO
//
// Empty text and tied cues resolve to INFO.
func Decide(u Utterance, c Cues) Decision {
	d := Decision{Cues: c}

	switch {
	case strings.TrimSpace(u.Text) == "":
		d.Destination = DestinationInfo
		d.Reason = "empty utterance"
		d.Ambiguous = true
	case c.Tied:
		d.Destination = DestinationInfo
		d.Reason = "edit and new-project cues tied"
		d.Ambiguous = true
	case c.EditIntent && (u.HasUploadedImage || u.HasPriorRendering):
		d.Destination = DestinationEdit
		if u.HasPriorRendering {
			d.Reason = "edit request with a prior rendering"
		} else {
			d.Reason = "edit request with an uploaded image"
		}
	case c.NewProjectIntent:
		d.Destination = DestinationPlan
		d.Reason = "new project request"
	case u.HasUploadedImage && !c.EditIntent:
		d.Destination = DestinationPlan
		d.Reason = "image supplied without edit intent"
	case c.EditIntent:
		d.Destination = DestinationInfo
		d.Reason = "edit request with nothing to edit"
	default:
		d.Destination = DestinationInfo
		d.Reason = "general question"
	}
	return d
}
