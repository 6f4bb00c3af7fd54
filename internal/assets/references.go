package assets

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Category classifies a reference image.
type Category string

const (
	CategoryCurrentRoom Category = "current_room"
	CategoryInspiration Category = "inspiration"
	CategoryReference   Category = "reference"
)

// Categories lists every valid category.
var Categories = []Category{CategoryCurrentRoom, CategoryInspiration, CategoryReference}

// ParseCategory accepts the category names plus a few spoken forms.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "current_room", "current", "room", "current-room":
		return CategoryCurrentRoom, nil
	case "inspiration", "inspo", "style":
		return CategoryInspiration, nil
	case "reference", "ref":
		return CategoryReference, nil
	}
	return "", fmt.Errorf("unknown image category %q (valid: current_room, inspiration, reference)", s)
}

// Reference is one registered user image.
type Reference struct {
	Filename        string   `json:"filename"`
	Category        Category `json:"category"`
	ArtifactVersion int      `json:"artifact_version,omitempty"`
	seq             int
}

// Registry records the reference images of one session. Re-registering a
// filename updates its category and makes it the most recent upload.
type Registry struct {
	mu   sync.RWMutex
	refs map[string]*Reference
	seq  int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{refs: make(map[string]*Reference)}
}

// Register records filename under category.
func (r *Registry) Register(filename string, category Category) {
	r.RegisterVersion(filename, category, 0)
}

// RegisterVersion records filename with the artifact version it was saved
// under (0 when artifact storage was unavailable).
func (r *Registry) RegisterVersion(filename string, category Category, artifactVersion int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	if ref, ok := r.refs[filename]; ok {
		ref.Category = category
		ref.seq = r.seq
		if artifactVersion > 0 {
			ref.ArtifactVersion = artifactVersion
		}
		return
	}
	r.refs[filename] = &Reference{
		Filename:        filename,
		Category:        category,
		ArtifactVersion: artifactVersion,
		seq:             r.seq,
	}
}

// CategoryOf returns the category filename was registered with.
func (r *Registry) CategoryOf(filename string) (Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ref, ok := r.refs[filename]
	if !ok {
		return "", false
	}
	return ref.Category, true
}

// Has reports whether filename is registered.
func (r *Registry) Has(filename string) bool {
	_, ok := r.CategoryOf(filename)
	return ok
}

// LatestOfCategory returns the most recently registered filename of category.
func (r *Registry) LatestOfCategory(category Category) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *Reference
	for _, ref := range r.refs {
		if ref.Category == category && (best == nil || ref.seq > best.seq) {
			best = ref
		}
	}
	if best == nil {
		return "", false
	}
	return best.Filename, true
}

// Latest returns the most recently registered filename of any category.
func (r *Registry) Latest() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *Reference
	for _, ref := range r.refs {
		if best == nil || ref.seq > best.seq {
			best = ref
		}
	}
	if best == nil {
		return "", false
	}
	return best.Filename, true
}

// List returns all references in registration order.
func (r *Registry) List() []Reference {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Reference, 0, len(r.refs))
	for _, ref := range r.refs {
		out = append(out, *ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Len is the number of registered images.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.refs)
}

// Describe renders the listing shown to users.
func (r *Registry) Describe() string {
	refs := r.List()
	if len(refs) == 0 {
		return "No reference images have been uploaded yet."
	}

	var b strings.Builder
	b.WriteString("Available reference images (current room photos & inspiration):")
	for _, ref := range refs {
		if ref.ArtifactVersion > 0 {
			fmt.Fprintf(&b, "\n  • %s (%s v%d)", ref.Filename, ref.Category, ref.ArtifactVersion)
		} else {
			fmt.Fprintf(&b, "\n  • %s (%s)", ref.Filename, ref.Category)
		}
	}
	return b.String()
}

// Restore replaces the registry contents, preserving the order of refs.
func (r *Registry) Restore(refs []Reference) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refs = make(map[string]*Reference, len(refs))
	r.seq = 0
	for _, ref := range refs {
		if _, dup := r.refs[ref.Filename]; dup {
			continue
		}
		r.seq++
		ref.seq = r.seq
		cp := ref
		r.refs[ref.Filename] = &cp
	}
}
