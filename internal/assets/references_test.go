package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()

	_, ok := r.CategoryOf("room.jpg")
	assert.False(t, ok)
	_, ok = r.Latest()
	assert.False(t, ok)

	r.Register("room.jpg", CategoryCurrentRoom)
	r.Register("pinterest.png", CategoryInspiration)
	r.Register("room2.jpg", CategoryCurrentRoom)

	cat, ok := r.CategoryOf("pinterest.png")
	require.True(t, ok)
	assert.Equal(t, CategoryInspiration, cat)

	latest, ok := r.LatestOfCategory(CategoryCurrentRoom)
	require.True(t, ok)
	assert.Equal(t, "room2.jpg", latest)

	_, ok = r.LatestOfCategory(CategoryReference)
	assert.False(t, ok)

	latest, ok = r.Latest()
	require.True(t, ok)
	assert.Equal(t, "room2.jpg", latest)
	assert.Equal(t, 3, r.Len())
}

func TestRegistry_ReRegisterUpdatesCategoryAndRecency(t *testing.T) {
	r := NewRegistry()
	r.Register("a.png", CategoryInspiration)
	r.Register("b.png", CategoryInspiration)
	r.Register("a.png", CategoryInspiration)

	latest, _ := r.LatestOfCategory(CategoryInspiration)
	assert.Equal(t, "a.png", latest)

	r.Register("b.png", CategoryReference)
	cat, _ := r.CategoryOf("b.png")
	assert.Equal(t, CategoryReference, cat)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a.png", list[0].Filename)
	assert.Equal(t, "b.png", list[1].Filename)

	latest, _ = r.LatestOfCategory(CategoryInspiration)
	assert.Equal(t, "a.png", latest)
	latest, _ = r.Latest()
	assert.Equal(t, "b.png", latest)
}

func TestRegistry_DescribeAndRestore(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, "No reference images have been uploaded yet.", r.Describe())

	r.RegisterVersion("room.jpg", CategoryCurrentRoom, 2)
	r.Register("style.png", CategoryInspiration)
	assert.Equal(t,
		"Available reference images (current room photos & inspiration):\n  • room.jpg (current_room v2)\n  • style.png (inspiration)",
		r.Describe())

	restored := NewRegistry()
	restored.Restore(r.List())
	assert.Equal(t, r.Describe(), restored.Describe())
	latest, _ := restored.Latest()
	assert.Equal(t, "style.png", latest)
}

func TestParseCategory(t *testing.T) {
	tests := map[string]Category{
		"current_room": CategoryCurrentRoom,
		"Room":         CategoryCurrentRoom,
		"inspiration":  CategoryInspiration,
		"inspo":        CategoryInspiration,
		"reference":    CategoryReference,
	}
	for in, want := range tests {
		got, err := ParseCategory(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCategory("blueprint")
	assert.Error(t, err)
}
