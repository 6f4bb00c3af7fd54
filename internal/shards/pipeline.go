package shards

import (
	"context"
	"fmt"
	"strings"

	"renoplan/internal/logging"
	"renoplan/internal/rendering"
	"renoplan/internal/session"
	"renoplan/internal/types"
	"renoplan/internal/usage"
)

// ImageLoader resolves uploaded filenames to bytes.
type ImageLoader interface {
	LoadAll(ctx context.Context, names []string) ([]types.Image, error)
}

// ProjectFacts are the request details every stage passes on to the next.
type ProjectFacts struct {
	Room   string
	Scope  string
	Budget int
}

// StageOutput is one stage's complete result.
type StageOutput struct {
	Stage     string
	Text      string
	Facts     ProjectFacts
	Rendering *rendering.Result
	Sources   []string
}

// StageInput is what a planning stage receives: the complete output of the
// stage before it and the user's attached images. The first stage sees the
// user request as its previous output.
type StageInput struct {
	Previous StageOutput
	Images   []types.Image
}

// Stage is one step of the planning pipeline.
type Stage interface {
	Name() string
	Run(ctx context.Context, sess *session.Session, in StageInput) (StageOutput, error)
}

// PlanningPipeline runs assessment, design and coordination in order.
// Any stage failure aborts the run and no partial result is returned.
type PlanningPipeline struct {
	loader ImageLoader
	stages []Stage
}

// NewPlanningPipeline builds a pipeline from stages in execution order.
func NewPlanningPipeline(loader ImageLoader, stages ...Stage) *PlanningPipeline {
	return &PlanningPipeline{loader: loader, stages: stages}
}

func (p *PlanningPipeline) Name() string { return "planner" }

// Stages returns the stage names in order.
func (p *PlanningPipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, st := range p.stages {
		names[i] = st.Name()
	}
	return names
}

// Handle runs every stage sequentially.
func (p *PlanningPipeline) Handle(ctx context.Context, sess *session.Session, req Request) (*Response, error) {
	in := StageInput{Previous: StageOutput{Stage: "request", Text: req.Text}}

	if attached := req.attached(); len(attached) > 0 && p.loader != nil {
		images, err := p.loader.LoadAll(ctx, attached)
		if err != nil {
			return nil, fmt.Errorf("planner: %w", err)
		}
		in.Images = images
	}

	resp := &Response{}
	var sections []string
	for _, st := range p.stages {
		timer := logging.StartTimer(logging.CategoryShards, "stage "+st.Name())
		out, err := st.Run(usage.WithAgent(ctx, st.Name(), sess.ID), sess, in)
		timer.Stop()
		if err != nil {
			logging.ShardsError("planning stage %s failed: %v", st.Name(), err)
			return nil, fmt.Errorf("%s: %w", st.Name(), err)
		}
		out.Stage = st.Name()
		in.Previous = out

		if strings.TrimSpace(out.Text) != "" {
			sections = append(sections, out.Text)
		}
		if out.Rendering != nil {
			resp.Rendering = out.Rendering
		}
		resp.Sources = append(resp.Sources, out.Sources...)
	}

	resp.Text = strings.Join(sections, "\n\n")
	return resp, nil
}
