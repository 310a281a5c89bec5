package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataMergeOverwrites(t *testing.T) {
	dst := Metadata{
		"title": "old",
		"properties": map[string]any{
			"kind":  "text",
			"attrs": map[string]any{"pages": 3.0, "keep": "me"},
		},
	}

	err := dst.Merge(Metadata{
		"title": "new",
		"properties": map[string]any{
			"attrs": map[string]any{"pages": 4},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "new", dst.String("title"))
	assert.Equal(t, "text", dst.Kind())
	assert.Equal(t, 4.0, dst.Attrs()["pages"])
	assert.Equal(t, "me", dst.AttrString("keep"))
}

func TestMetadataMergeMissingKeepsExisting(t *testing.T) {
	dst := Metadata{
		"title": "existing",
		"properties": map[string]any{
			"attrs": map[string]any{"variance": 12.5},
		},
	}

	err := dst.MergeMissing(Metadata{
		"title":       "ignored",
		"description": "added",
		"properties": map[string]any{
			"kind":  "image",
			"attrs": map[string]any{"variance": 99.0, "hashes": map[string]any{"average": "ff"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "existing", dst.String("title"))
	assert.Equal(t, "added", dst.String("description"))
	assert.Equal(t, "image", dst.Kind())
	assert.Equal(t, 12.5, dst.Attrs()["variance"])
	assert.True(t, dst.HasAttr("hashes"))
}

func TestMetadataMergeMissingKeepsPresentKeys(t *testing.T) {
	tests := []struct {
		name string
		dst  Metadata
		src  Metadata
		want Metadata
	}{
		{
			name: "empty string",
			dst:  Metadata{"description": ""},
			src:  Metadata{"description": "new"},
			want: Metadata{"description": ""},
		},
		{
			name: "zero and false attrs",
			dst:  Properties(KindImage, map[string]any{"variance": 0.0, "flag": false}),
			src:  Properties(KindImage, map[string]any{"variance": 12.5, "flag": true}),
			want: Metadata{"properties": map[string]any{
				"kind":  KindImage,
				"attrs": map[string]any{"variance": 0.0, "flag": false},
			}},
		},
		{
			name: "null",
			dst:  Metadata{"language": nil},
			src:  Metadata{"language": "en"},
			want: Metadata{"language": nil},
		},
		{
			name: "empty object is merged into",
			dst:  Metadata{"properties": map[string]any{}},
			src:  Metadata{"properties": map[string]any{"kind": KindText}},
			want: Metadata{"properties": map[string]any{"kind": KindText}},
		},
		{
			name: "scalar is not replaced by object",
			dst:  Metadata{"image": "https://example.com/a.png"},
			src:  Metadata{"image": map[string]any{"url": "https://example.com/b.png"}},
			want: Metadata{"image": "https://example.com/a.png"},
		},
		{
			name: "nested object keeps existing keys",
			dst:  Metadata{"properties": map[string]any{"attrs": map[string]any{"hashes": map[string]any{"average": ""}}}},
			src:  Metadata{"properties": map[string]any{"attrs": map[string]any{"hashes": map[string]any{"average": "ff", "difference": "0f"}}}},
			want: Metadata{"properties": map[string]any{"attrs": map[string]any{"hashes": map[string]any{"average": "", "difference": "0f"}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.dst.MergeMissing(tt.src))
			assert.Equal(t, tt.want, tt.dst)
		})
	}
}

func TestMetadataMergeMissingDoesNotAliasSource(t *testing.T) {
	src := Metadata{"properties": map[string]any{"attrs": map[string]any{"order": 1}}}
	var dst Metadata
	require.NoError(t, dst.MergeMissing(src))

	src["properties"].(map[string]any)["attrs"].(map[string]any)["order"] = 2
	assert.Equal(t, 1.0, dst.Attrs()["order"])
}

func TestMetadataMergeIntoNil(t *testing.T) {
	var m Metadata
	require.NoError(t, m.Merge(Metadata{"language": "fr"}))
	assert.Equal(t, "fr", m.Language())
}

func TestMetadataMergeDoesNotAliasSource(t *testing.T) {
	src := Properties(KindText, map[string]any{"chunk": map[string]any{"order": 1}})
	var dst Metadata
	require.NoError(t, dst.Merge(src))

	src.Attrs()["chunk"].(map[string]any)["order"] = 2
	assert.Equal(t, 1.0, dst.Attrs()["chunk"].(map[string]any)["order"])
}

func TestMetadataSetAttrAndKind(t *testing.T) {
	m := Metadata{}
	require.NoError(t, m.SetAttr(KindImage, "variance", 1.5))
	require.NoError(t, m.SetAttr("", "hashes", map[string]any{"average": "00"}))

	assert.Equal(t, KindImage, m.Kind())
	assert.Equal(t, 1.5, m.Attrs()["variance"])
	assert.True(t, m.HasAttr("hashes"))

	require.NoError(t, m.SetKind(KindText))
	assert.Equal(t, KindText, m.Kind())
	assert.True(t, m.HasAttr("variance"))
}

func TestMetadataAccessorsOnEmpty(t *testing.T) {
	m := Metadata{}
	assert.Empty(t, m.Kind())
	assert.Empty(t, m.Attrs())
	assert.Empty(t, m.Language())
	assert.False(t, m.HasAttr("anything"))
}
