package rendering

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"renoplan/internal/articulation"
	"renoplan/internal/artifacts"
	"renoplan/internal/assets"
	"renoplan/internal/logging"
	"renoplan/internal/session"
	"renoplan/internal/types"
)

// DefaultAssetName names renderings when nothing better is known.
const DefaultAssetName = "renovation_rendering"

// LatestKeyword in a reference field means the most recent upload.
const LatestKeyword = "latest"

// GenerateRequest asks for a new rendering.
type GenerateRequest struct {
	Prompt      string
	AssetName   string
	AspectRatio string
	// CurrentRoom, if set, is used as the base image so the rendering keeps
	// the room's layout.
	CurrentRoom string
	// References guide the style. "latest" resolves to the newest upload.
	References []string
}

// EditRequest asks for a modified version of an existing image.
type EditRequest struct {
	// Source is the image to edit. Empty means the last rendering, then the
	// newest current-room photo, then the newest upload.
	Source     string
	Prompt     string
	AssetName  string
	References []string
	// FallbackAssetName is used when the source belongs to no asset and
	// the session has no current asset.
	FallbackAssetName string
}

// Result describes a committed rendering. The filename travels here as
// data; callers never parse it out of prose.
type Result struct {
	AssetName       string
	Version         int
	Filename        string
	Path            string
	MIMEType        string
	Source          string
	Edited          bool
	ArtifactVersion int
	RemotePersisted bool
	ModelText       string
}

// Summary is the confirmation shown to the user.
func (r *Result) Summary() string {
	if r.Edited {
		return fmt.Sprintf("✅ Rendering edited successfully!\n\nSaved as: **%s** (version %d of %s)\n\nThe rendering has been updated based on your feedback.",
			r.Filename, r.Version, r.AssetName)
	}
	return fmt.Sprintf("✅ Renovation rendering generated successfully!\n\nSaved as: **%s** (version %d of %s)",
		r.Filename, r.Version, r.AssetName)
}

// Service orchestrates image model calls and version bookkeeping.
type Service struct {
	model    types.ImageModel
	rewriter *PromptRewriter
	loader   *Loader
	store    artifacts.Store
	avail    artifacts.Availability
	local    *artifacts.LocalFiles
}

// Options wires a Service.
type Options struct {
	Model        types.ImageModel
	Rewriter     *PromptRewriter
	Store        artifacts.Store
	Availability artifacts.Availability
	Local        *artifacts.LocalFiles
	UploadsDir   string
}

// NewService builds a Service. A nil Store is treated as unavailable.
func NewService(o Options) *Service {
	if o.Store == nil {
		o.Store = artifacts.Unavailable{Reason: "not configured"}
	}
	return &Service{
		model:    o.Model,
		rewriter: o.Rewriter,
		loader:   &Loader{Artifacts: o.Store, Local: o.Local, UploadsDir: o.UploadsDir},
		store:    o.Store,
		avail:    o.Availability,
		local:    o.Local,
	}
}

// Loader exposes the image resolver used by the service.
func (s *Service) Loader() *Loader { return s.loader }

// Availability reports the artifact backend decided at setup.
func (s *Service) Availability() artifacts.Availability { return s.avail }

// Generate creates a new rendering and commits it as the next version of
// req.AssetName.
func (s *Service) Generate(ctx context.Context, sess *session.Session, req GenerateRequest) (*Result, error) {
	asset := articulation.NormalizeAssetName(req.AssetName)
	if asset == "" {
		asset = DefaultAssetName
	}
	aspect := req.AspectRatio
	if aspect == "" {
		aspect = articulation.DefaultAspectRatio
	}

	var base *types.Image
	if req.CurrentRoom != "" {
		img, err := s.loader.Load(ctx, resolveLatest(sess, req.CurrentRoom))
		if err != nil {
			logging.RenderingWarn("current room photo %s unavailable, generating from text: %v", req.CurrentRoom, err)
		} else {
			base = &img
		}
	}
	refs := s.loadReferences(ctx, sess, req.References, base)

	prompt := s.rewriter.Rewrite(ctx, req.Prompt, aspect, base != nil, len(refs) > 0)

	logging.Rendering("generating %s (base=%t refs=%d aspect=%s)", asset, base != nil, len(refs), aspect)
	var img *types.GeneratedImage
	var err error
	if base != nil {
		img, err = s.model.Edit(ctx, *base, prompt, refs)
	} else {
		img, err = s.model.Generate(ctx, prompt, refs, aspect)
	}
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", asset, err)
	}

	res, err := s.commit(ctx, sess, asset, img)
	if err != nil {
		return nil, err
	}
	if base != nil {
		res.Source = base.Name
	}
	return res, nil
}

// Edit modifies an existing image and commits the result. When the source
// cannot be found, the error satisfies errors.Is(err,
// types.ErrMissingSourceImage) and the session is unchanged.
func (s *Service) Edit(ctx context.Context, sess *session.Session, req EditRequest) (*Result, error) {
	source, err := s.resolveSource(sess, req.Source)
	if err != nil {
		return nil, err
	}
	base, err := s.loader.Load(ctx, source)
	if err != nil {
		logging.RenderingWarn("edit source %s not found", source)
		return nil, err
	}

	asset := s.editAssetName(sess, source, req)
	refs := s.loadReferences(ctx, sess, req.References, &base)

	logging.Rendering("editing %s into %s (refs=%d)", source, asset, len(refs))
	img, err := s.model.Edit(ctx, base, req.Prompt, refs)
	if err != nil {
		return nil, fmt.Errorf("edit %s: %w", source, err)
	}

	res, err := s.commit(ctx, sess, asset, img)
	if err != nil {
		return nil, err
	}
	res.Source = source
	res.Edited = true
	return res, nil
}

func (s *Service) resolveSource(sess *session.Session, requested string) (string, error) {
	if requested != "" {
		return resolveLatest(sess, requested), nil
	}
	if last, ok := sess.LastRendering(); ok {
		return last, nil
	}
	if f, ok := sess.References.LatestOfCategory(assets.CategoryCurrentRoom); ok {
		return f, nil
	}
	if f, ok := sess.References.Latest(); ok {
		return f, nil
	}
	return "", fmt.Errorf("edit: %w: no rendering or uploaded photo in this session", types.ErrMissingSourceImage)
}

var versionedName = regexp.MustCompile(`^(.+)_v\d+\.[A-Za-z0-9]+$`)

func (s *Service) editAssetName(sess *session.Session, source string, req EditRequest) string {
	if name := articulation.NormalizeAssetName(req.AssetName); name != "" {
		return name
	}
	if owner, ok := sess.Versions.OwnerOf(source); ok {
		return owner
	}
	if current, ok := sess.CurrentAsset(); ok {
		return current
	}
	if m := versionedName.FindStringSubmatch(source); m != nil {
		if name := articulation.NormalizeAssetName(m[1]); name != "" {
			return name
		}
	}
	if name := articulation.NormalizeAssetName(req.FallbackAssetName); name != "" {
		return name
	}
	return DefaultAssetName
}

// loadReferences resolves style references, skipping any that cannot be
// loaded and the base image itself.
func (s *Service) loadReferences(ctx context.Context, sess *session.Session, names []string, base *types.Image) []types.Image {
	seen := map[string]bool{}
	if base != nil {
		seen[base.Name] = true
	}
	var want []string
	for _, n := range names {
		n = resolveLatest(sess, n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		want = append(want, n)
	}
	if len(want) == 0 {
		return nil
	}

	images, err := s.loader.LoadAll(ctx, want)
	if err == nil {
		return images
	}

	// Fall back to loading one at a time so one bad reference does not
	// drop the others.
	logging.RenderingWarn("reference load failed (%v), loading individually", err)
	var out []types.Image
	for _, n := range want {
		img, err := s.loader.Load(ctx, n)
		if err != nil {
			logging.RenderingWarn("skipping reference %s: %v", n, err)
			continue
		}
		out = append(out, img)
	}
	return out
}

func resolveLatest(sess *session.Session, name string) string {
	if name != LatestKeyword {
		return name
	}
	latest, _ := sess.References.Latest()
	return latest
}

// commit allocates the next version of asset, writes the bytes locally and
// to the artifact store, and appends the version to history.
func (s *Service) commit(ctx context.Context, sess *session.Session, asset string, img *types.GeneratedImage) (*Result, error) {
	resv, err := sess.Versions.Reserve(ctx, asset, artifacts.Extension(img.MIMEType))
	if err != nil {
		return nil, fmt.Errorf("reserve %s: %w", asset, err)
	}
	defer resv.Release()

	res := &Result{
		AssetName: asset,
		Version:   resv.Version,
		Filename:  resv.Filename,
		MIMEType:  img.MIMEType,
		ModelText: img.Text,
	}

	if s.local != nil {
		path, err := s.local.Write(resv.Filename, img.Data)
		if err != nil {
			return nil, fmt.Errorf("write %s: %w", resv.Filename, err)
		}
		res.Path = path
	}

	artifactVersion, err := s.store.Save(ctx, resv.Filename, img.Data, img.MIMEType)
	switch {
	case err == nil:
		res.ArtifactVersion = artifactVersion
		res.RemotePersisted = true
	case errors.Is(err, types.ErrPersistenceUnavailable):
		logging.RenderingWarn("artifact storage unavailable, %s saved locally only", resv.Filename)
	default:
		logging.RenderingWarn("artifact save of %s failed, saved locally only: %v", resv.Filename, err)
	}

	if err := resv.Commit(); err != nil {
		logging.RenderingError("commit of %s failed: %v", resv.Filename, err)
		return nil, fmt.Errorf("commit %s: %w", resv.Filename, err)
	}
	sess.RecordRendering(asset, resv.Filename)

	logging.Rendering("committed %s (version %d of %s, remote=%t)", resv.Filename, resv.Version, asset, res.RemotePersisted)
	return res, nil
}
