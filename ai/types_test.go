package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTranscriptFormat(t *testing.T) {
	f, err := ParseTranscriptFormat("")
	require.NoError(t, err)
	assert.Equal(t, TranscriptVTT, f)
	assert.Equal(t, "text/vtt", f.MimeType())

	f, err = ParseTranscriptFormat("TEXT")
	require.NoError(t, err)
	assert.Equal(t, "txt", f.Extension())
	assert.Equal(t, "text/plain", f.MimeType())

	_, err = ParseTranscriptFormat("docx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseAudioFormat(t *testing.T) {
	f, err := ParseAudioFormat("")
	require.NoError(t, err)
	assert.Equal(t, AudioMP3, f)
	assert.Equal(t, "audio/mpeg", f.MimeType())

	_, err = ParseAudioFormat("midi")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
