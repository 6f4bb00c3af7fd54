package shards

import (
	"context"
	"regexp"
	"strings"

	"renoplan/internal/assets"
	"renoplan/internal/estimate"
	"renoplan/internal/logging"
	"renoplan/internal/rendering"
	"renoplan/internal/session"
	"renoplan/internal/types"
)

const editorSystemPrompt = `You turn a homeowner's change request into one precise image edit instruction.
Say exactly what to change (colors with names, materials, fixtures) and explicitly what must stay the same:
layout, perspective, room structure and every element not mentioned.
Return only the instruction.`

// EditorShard refines an existing rendering or an uploaded photo.
type EditorShard struct {
	llm      types.LLMClient
	renderer *rendering.Service
}

// NewEditorShard creates an editor shard.
func NewEditorShard(llm types.LLMClient, renderer *rendering.Service) *EditorShard {
	return &EditorShard{llm: llm, renderer: renderer}
}

func (s *EditorShard) Name() string { return "editor" }

// Handle edits the image the turn refers to.
func (s *EditorShard) Handle(ctx context.Context, sess *session.Session, req Request) (*Response, error) {
	source, refs := s.pickImages(sess, req)

	fallback := ""
	if room, ok := estimate.DetectRoom(req.Text); ok {
		fallback = room + "_renovation"
	}

	res, err := s.renderer.Edit(ctx, sess, rendering.EditRequest{
		Source:            source,
		Prompt:            s.instruction(ctx, req.Text),
		References:        refs,
		FallbackAssetName: fallback,
	})
	if err != nil {
		return nil, err
	}

	text := res.Summary()
	if res.ModelText != "" {
		text += "\n\n" + res.ModelText
	}
	return &Response{Text: text, Rendering: res}, nil
}

// pickImages chooses the edit source and style references:
//   - a filename named in the text wins, known or not;
//   - otherwise, with references attached, the newest current-room photo;
//   - otherwise the service default (last rendering, then uploads).
//
// Every other attached upload becomes a style reference.
func (s *EditorShard) pickImages(sess *session.Session, req Request) (string, []string) {
	source := mentionedFile(sess, req.Text)
	attached := req.attached()

	if source == "" {
		for i := len(attached) - 1; i >= 0; i-- {
			if cat, _ := sess.References.CategoryOf(attached[i]); cat == assets.CategoryCurrentRoom {
				source = attached[i]
				break
			}
		}
	}

	var refs []string
	for _, name := range attached {
		if name != source {
			refs = append(refs, name)
		}
	}
	return source, refs
}

// imageFilename matches image filenames typed into a request, such as
// kitchen_renovation_v2.png or my-den.jpeg.
var imageFilename = regexp.MustCompile(`(?i)[a-z0-9][a-z0-9_.-]*\.(?:png|jpe?g|webp)\b`)

// mentionedFile returns the longest rendering or reference filename that
// appears in text. A filename the session does not know is still returned
// so the edit fails with a missing source instead of editing something else.
func mentionedFile(sess *session.Session, text string) string {
	lower := strings.ToLower(text)
	best := ""
	consider := func(name string) {
		if len(name) > len(best) && strings.Contains(lower, strings.ToLower(name)) {
			best = name
		}
	}
	for _, asset := range sess.Versions.Names() {
		for _, v := range sess.Versions.History(asset) {
			consider(v.Filename)
		}
	}
	for _, ref := range sess.References.List() {
		consider(ref.Filename)
	}
	if best == "" {
		best = imageFilename.FindString(text)
	}
	return best
}

func (s *EditorShard) instruction(ctx context.Context, text string) string {
	if s.llm == nil {
		return text
	}
	out, err := s.llm.CompleteWithSystem(ctx, editorSystemPrompt, text)
	if err != nil || strings.TrimSpace(out) == "" {
		logging.ShardsWarn("edit instruction rewrite failed, using request text: %v", err)
		return text
	}
	return strings.TrimSpace(out)
}

