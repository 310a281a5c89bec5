package mediainfo

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/middleware"
	"github.com/poiesic/lakechain/processors"
	"github.com/poiesic/lakechain/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = `{
  "streams": [
    {
      "codec_type": "video", "codec_name": "h264", "codec_tag_string": "avc1",
      "width": 1920, "height": 1080,
      "r_frame_rate": "30000/1001", "avg_frame_rate": "30000/1001",
      "sample_aspect_ratio": "1:1", "duration": "12.345",
      "tags": {"creation_time": "2023-04-05T06:07:08.000000Z"}
    },
    {
      "codec_type": "audio", "codec_name": "aac", "codec_tag_string": "mp4a",
      "duration": "12.3", "bit_rate": "128000", "channels": 2, "sample_rate": "48000",
      "tags": {"language": "eng"}
    },
    {
      "codec_type": "audio", "codec_name": "flac", "codec_tag_string": "[0][0][0][0]",
      "channels": 6, "sample_rate": "96000", "tags": {"language": "und"}
    }
  ],
  "format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "12.4"}
}`

type fakeInspector struct {
	report *Report
	err   error
	urls  []string
}

func (f *fakeInspector) Inspect(_ context.Context, url string) (*Report, error) {
	f.urls = append(f.urls, url)
	return f.report, f.err
}

func TestMetadata(t *testing.T) {
	report, err := ParseReport([]byte(sampleReport))
	require.NoError(t, err)
	meta := Metadata(report)

	assert.Equal(t, core.KindVideo, meta.Kind())
	attrs := meta.Attrs()
	assert.InDelta(t, 29.97, attrs["fps"], 0.001)
	assert.Equal(t, map[string]any{"width": 1920, "height": 1080}, attrs["resolution"])
	assert.Equal(t, "H264", attrs["format"])
	assert.Equal(t, int64(12345), attrs["duration"])
	assert.Equal(t, "avc1", attrs["codec"])
	assert.Equal(t, 1.0, attrs["aspectRatio"])
	assert.Equal(t, "2023-04-05T06:07:08Z", meta["createdAt"])
	assert.Equal(t, "eng", meta["language"])

	tracks := attrs["audioTracks"].([]map[string]any)
	require.Len(t, tracks, 2)
	assert.Equal(t, map[string]any{
		"codec": "mp4a", "duration": int64(12300), "bitrate": int64(128000),
		"channels": 2, "sampleRate": int64(48000), "lossless": false,
	}, tracks[0])
	assert.Equal(t, "flac", tracks[1]["codec"])
	assert.Equal(t, true, tracks[1]["lossless"])
}

func TestMetadataWithoutStreams(t *testing.T) {
	meta := Metadata(&Report{})
	assert.Equal(t, core.KindVideo, meta.Kind())
	assert.Equal(t, []map[string]any{}, meta.Attrs()["audioTracks"])
}

func TestProcessUsesSignedURL(t *testing.T) {
	store := memory.New()
	report, err := ParseReport([]byte(sampleReport))
	require.NoError(t, err)
	inspector := &fakeInspector{report: report}

	p, err := New(&processors.Env{Service: "media", Store: store}, inspector)
	require.NoError(t, err)

	event := core.NewEvent("c", core.Document{URL: "s3://videos/clip.mp4", Type: "video/mp4"})
	event.Data.Metadata["title"] = "clip"
	out, err := middleware.Collect(context.Background(), p, event)
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, []string{"http://localhost/videos/clip.mp4"}, inspector.urls)
	meta := out[0].Metadata()
	assert.Equal(t, "clip", meta.String("title"))
	assert.Equal(t, core.KindVideo, meta.Kind())
	assert.EqualValues(t, 1920, meta.Attrs()["resolution"].(map[string]any)["width"])
}

func TestProcessInspectError(t *testing.T) {
	p, err := New(&processors.Env{Service: "media", Store: memory.New()}, &fakeInspector{err: errors.New("boom")})
	require.NoError(t, err)
	_, err = middleware.Collect(context.Background(), p,
		core.NewEvent("c", core.Document{URL: "s3://videos/clip.mp4", Type: "video/mp4"}))
	assert.ErrorContains(t, err, "boom")
}

func TestRatio(t *testing.T) {
	v, ok := ratio("16:9")
	require.True(t, ok)
	assert.InDelta(t, 1.777, v, 0.001)
	_, ok = ratio("0/0")
	assert.False(t, ok)
	v, ok = ratio("25")
	require.True(t, ok)
	assert.Equal(t, 25.0, v)
}
