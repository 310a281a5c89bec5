// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import "strings"

// TranscriptFormat is the encoding of a transcription result.
type TranscriptFormat string

const (
	TranscriptVTT  TranscriptFormat = "vtt"
	TranscriptSRT  TranscriptFormat = "srt"
	TranscriptText TranscriptFormat = "text"
	TranscriptJSON TranscriptFormat = "json"
)

var transcriptMimeTypes = map[TranscriptFormat]string{
	TranscriptVTT:  "text/vtt",
	TranscriptSRT:  "application/x-subrip",
	TranscriptText: "text/plain",
	TranscriptJSON: "application/json",
}

// ParseTranscriptFormat parses a format name. An empty name selects VTT.
func ParseTranscriptFormat(name string) (TranscriptFormat, error) {
	if name == "" {
		return TranscriptVTT, nil
	}
	f := TranscriptFormat(strings.ToLower(name))
	if _, ok := transcriptMimeTypes[f]; !ok {
		return "", unsupportedFormat(name)
	}
	return f, nil
}

// MimeType returns the MIME type of documents in this format.
func (f TranscriptFormat) MimeType() string {
	return transcriptMimeTypes[f]
}

// Extension returns the file extension used for this format.
func (f TranscriptFormat) Extension() string {
	if f == TranscriptText {
		return "txt"
	}
	return string(f)
}

// AudioFormat is the container of synthesized speech.
type AudioFormat string

const (
	AudioMP3  AudioFormat = "mp3"
	AudioOpus AudioFormat = "opus"
	AudioAAC  AudioFormat = "aac"
	AudioFLAC AudioFormat = "flac"
	AudioWAV  AudioFormat = "wav"
	AudioPCM  AudioFormat = "pcm"
)

var audioMimeTypes = map[AudioFormat]string{
	AudioMP3:  "audio/mpeg",
	AudioOpus: "audio/ogg",
	AudioAAC:  "audio/aac",
	AudioFLAC: "audio/flac",
	AudioWAV:  "audio/wav",
	AudioPCM:  "audio/pcm",
}

// ParseAudioFormat parses an audio format name. An empty name selects MP3.
func ParseAudioFormat(name string) (AudioFormat, error) {
	if name == "" {
		return AudioMP3, nil
	}
	f := AudioFormat(strings.ToLower(name))
	if _, ok := audioMimeTypes[f]; !ok {
		return "", unsupportedFormat(name)
	}
	return f, nil
}

// MimeType returns the MIME type of audio in this format.
func (f AudioFormat) MimeType() string {
	return audioMimeTypes[f]
}
