package rendering

import (
	"context"
	"sync"

	"renoplan/internal/types"
)

type imageCall struct {
	Op     string
	Base   string
	Prompt string
	Refs   []string
	Aspect string
}

// fakeImageModel returns a fixed PNG payload and records its calls.
type fakeImageModel struct {
	mu    sync.Mutex
	calls []imageCall
	err   error
	mime  string
}

func (f *fakeImageModel) record(c imageCall) (*types.GeneratedImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if f.err != nil {
		return nil, f.err
	}
	mime := f.mime
	if mime == "" {
		mime = "image/png"
	}
	return &types.GeneratedImage{Image: types.Image{Data: []byte("img:" + c.Prompt), MIMEType: mime}, Text: "here you go"}, nil
}

func names(images []types.Image) []string {
	var out []string
	for _, img := range images {
		out = append(out, img.Name)
	}
	return out
}

func (f *fakeImageModel) Generate(_ context.Context, prompt string, refs []types.Image, aspect string) (*types.GeneratedImage, error) {
	return f.record(imageCall{Op: "generate", Prompt: prompt, Refs: names(refs), Aspect: aspect})
}

func (f *fakeImageModel) Edit(_ context.Context, base types.Image, prompt string, refs []types.Image) (*types.GeneratedImage, error) {
	return f.record(imageCall{Op: "edit", Base: base.Name, Prompt: prompt, Refs: names(refs)})
}

func (f *fakeImageModel) Calls() []imageCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]imageCall(nil), f.calls...)
}

type fakeLLM struct {
	reply string
	err   error
	last  string
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return f.CompleteWithSystem(ctx, "", prompt)
}

func (f *fakeLLM) CompleteWithSystem(_ context.Context, _, user string) (string, error) {
	f.last = user
	return f.reply, f.err
}
