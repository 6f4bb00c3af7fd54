package shards

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"renoplan/internal/artifacts"
	"renoplan/internal/assets"
	"renoplan/internal/rendering"
	"renoplan/internal/session"
	"renoplan/internal/types"
)

type llmCall struct {
	System string
	User   string
	Images []string
}

// scriptedLLM answers according to the system prompt it receives.
type scriptedLLM struct {
	mu      sync.Mutex
	calls   []llmCall
	respond func(system, user string) (string, error)
}

func (s *scriptedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return s.CompleteWithSystem(ctx, "", prompt)
}

func (s *scriptedLLM) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	return s.CompleteWithImages(ctx, system, user, nil)
}

func (s *scriptedLLM) CompleteWithImages(_ context.Context, system, user string, images []types.Image) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for _, img := range images {
		names = append(names, img.Name)
	}
	s.calls = append(s.calls, llmCall{System: system, User: user, Images: names})
	if s.respond == nil {
		return "ok", nil
	}
	return s.respond(system, user)
}

// callFor returns the last call whose system prompt starts like prefix.
func (s *scriptedLLM) callFor(prefix string) (llmCall, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.calls) - 1; i >= 0; i-- {
		if strings.HasPrefix(s.calls[i].System, prefix) {
			return s.calls[i], true
		}
	}
	return llmCall{}, false
}

type imageCall struct {
	Op     string
	Base   string
	Prompt string
	Refs   []string
}

type fakeImageModel struct {
	mu    sync.Mutex
	calls []imageCall
	err   error
}

func (f *fakeImageModel) record(c imageCall) (*types.GeneratedImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if f.err != nil {
		return nil, f.err
	}
	return &types.GeneratedImage{Image: types.Image{Data: []byte("png:" + c.Prompt), MIMEType: "image/png"}}, nil
}

func imageNames(images []types.Image) []string {
	var out []string
	for _, img := range images {
		out = append(out, img.Name)
	}
	return out
}

func (f *fakeImageModel) Generate(_ context.Context, prompt string, refs []types.Image, _ string) (*types.GeneratedImage, error) {
	return f.record(imageCall{Op: "generate", Prompt: prompt, Refs: imageNames(refs)})
}

func (f *fakeImageModel) Edit(_ context.Context, base types.Image, prompt string, refs []types.Image) (*types.GeneratedImage, error) {
	return f.record(imageCall{Op: "edit", Base: base.Name, Prompt: prompt, Refs: imageNames(refs)})
}

func (f *fakeImageModel) lastCall() imageCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return imageCall{}
	}
	return f.calls[len(f.calls)-1]
}

type harness struct {
	llm      *scriptedLLM
	model    *fakeImageModel
	renderer *rendering.Service
	manager  *Manager
	sess     *session.Session
	uploads  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	local, err := artifacts.NewLocalFiles(filepath.Join(dir, "artifacts"))
	require.NoError(t, err)
	uploads := filepath.Join(dir, "uploads")
	require.NoError(t, os.MkdirAll(uploads, 0755))

	h := &harness{
		llm:     &scriptedLLM{},
		model:   &fakeImageModel{},
		sess:    session.New(),
		uploads: uploads,
	}
	h.renderer = rendering.NewService(rendering.Options{
		Model:        h.model,
		Availability: artifacts.Availability{Backend: "none"},
		Local:        local,
		UploadsDir:   uploads,
	})
	h.manager = NewManager(Deps{LLM: h.llm, Renderer: h.renderer})
	RegisterAllShards(h.manager)
	return h
}

func (h *harness) upload(t *testing.T, name string, cat assets.Category) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(h.uploads, name), []byte("photo:"+name), 0644))
	h.sess.References.Register(name, cat)
	h.sess.SetAttachReferences(true)
}

// request builds the turn the dispatcher would build.
func (h *harness) request(text string) Request {
	req := Request{Text: text, AttachReferences: h.sess.AttachReferences()}
	for _, ref := range h.sess.References.List() {
		req.Uploads = append(req.Uploads, ref.Filename)
	}
	return req
}

const coordinatorReply = "## Renovation Plan\n- Total: $40,000\n\n" +
	`{"asset_name": "Kitchen Modern", "prompt": "photorealistic modern kitchen with white oak cabinets", "aspect_ratio": "4:3"}`

// plannerReplies answers each planning stage with canned text.
func plannerReplies(system, _ string) (string, error) {
	switch {
	case strings.HasPrefix(system, "You are a visual renovation specialist"):
		return "ASSESSMENT COMPLETE\nRoom Details:\n- Type: kitchen", nil
	case strings.HasPrefix(system, "Create a specific, actionable renovation design plan"):
		return "DESIGN COMPLETE\nRenovation Scope: full\nDesign Plan Summary: white oak and quartz", nil
	case strings.HasPrefix(system, "Write the final, scannable renovation plan"):
		return coordinatorReply, nil
	case strings.HasPrefix(system, "You turn a homeowner's change request"):
		return "Change the cabinets to cream. Keep everything else the same.", nil
	default:
		return "Happy to help with your renovation.", nil
	}
}
