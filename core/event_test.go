package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleEvent = `{
  "specversion": "1.0",
  "type": "document-created",
  "data": {
    "chainId": "6ebf76e4-f70c-440c-98f9-3e3e7eb34c79",
    "source": {"url": "s3://bucket/document.txt", "type": "text/plain", "size": 245328, "etag": "1243cbd6cf145453c8b5519a2ada4779"},
    "document": {"url": "s3://bucket/document.txt", "type": "text/plain", "size": 245328, "etag": "1243cbd6cf145453c8b5519a2ada4779"},
    "metadata": {"title": "Example"},
    "callStack": ["text-splitter"]
  }
}`

func TestParseEvent(t *testing.T) {
	event, err := ParseEvent([]byte(sampleEvent))
	require.NoError(t, err)

	assert.Equal(t, SpecVersion, event.SpecVersion)
	assert.Equal(t, DocumentCreated, event.Type)
	assert.Equal(t, "6ebf76e4-f70c-440c-98f9-3e3e7eb34c79", event.Data.ChainID)
	assert.Equal(t, "text/plain", event.Document().Type)
	assert.Equal(t, int64(245328), event.Document().Size)
	assert.Equal(t, "Example", event.Metadata().String("title"))
	assert.Equal(t, []string{"text-splitter"}, event.Data.CallStack)
}

func TestParseEventInitializesCollections(t *testing.T) {
	event, err := ParseEvent([]byte(`{"specversion":"1.0","type":"document-created","data":{"chainId":"c","document":{"url":"s3://b/k","type":"text/plain"}}}`))
	require.NoError(t, err)

	assert.NotNil(t, event.Data.Metadata)
	assert.NotNil(t, event.Data.CallStack)
	assert.Empty(t, event.Data.CallStack)
}

func TestParseEventInvalidJSON(t *testing.T) {
	_, err := ParseEvent([]byte(`{not json`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestEventClone(t *testing.T) {
	event, err := ParseEvent([]byte(sampleEvent))
	require.NoError(t, err)

	clone, err := event.Clone()
	require.NoError(t, err)

	require.NoError(t, clone.Data.Metadata.SetAttr(KindText, "page", 2))
	clone.PushCallStack("pdf-text-converter")

	assert.False(t, event.Metadata().HasAttr("page"))
	assert.Len(t, event.Data.CallStack, 1)
	assert.Equal(t, []string{"pdf-text-converter", "text-splitter"}, clone.Data.CallStack)
}

func TestPushCallStack(t *testing.T) {
	event := NewEvent("chain", Document{URL: "s3://b/k", Type: "text/plain"})

	event.PushCallStack("first")
	event.PushCallStack("second")
	event.PushCallStack("")

	assert.Equal(t, []string{"second", "first"}, event.Data.CallStack)
}

func TestMarshalRoundTripKeepsWireNames(t *testing.T) {
	event := NewEvent("chain", Document{URL: "s3://b/k", Type: "text/plain", ETag: "abc"})
	body, err := event.Marshal()
	require.NoError(t, err)

	s := string(body)
	assert.Contains(t, s, `"specversion":"1.0"`)
	assert.Contains(t, s, `"chainId":"chain"`)
	assert.Contains(t, s, `"callStack":[]`)
	assert.NotContains(t, s, `"size"`)
}

func TestDocumentLocation(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantBucket string
		wantKey    string
		wantErr    error
	}{
		{name: "simple", url: "s3://bucket/key.txt", wantBucket: "bucket", wantKey: "key.txt"},
		{name: "nested key", url: "s3://bucket/a/b/c.pdf", wantBucket: "bucket", wantKey: "a/b/c.pdf"},
		{name: "escaped key", url: "s3://bucket/my%20file.txt", wantBucket: "bucket", wantKey: "my file.txt"},
		{name: "https", url: "https://example.com/a.txt", wantErr: ErrNotS3URL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Document{URL: tt.url}
			bucket, key, err := doc.Location()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, doc.Bucket())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantBucket, doc.Bucket())
			assert.Equal(t, tt.wantKey, doc.Key())
		})
	}
}

func TestDocumentFilename(t *testing.T) {
	assert.Equal(t, "c.pdf", Document{URL: "s3://bucket/a/b/c.pdf"}.Filename())
	assert.Equal(t, "feed.xml", Document{URL: "https://example.com/rss/feed.xml?x=1"}.Filename())
	assert.True(t, Document{URL: "s3://bucket/a"}.IsS3())
	assert.False(t, Document{URL: "https://example.com/a"}.IsS3())
}
