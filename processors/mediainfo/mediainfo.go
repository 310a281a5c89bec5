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

// Package mediainfo extracts technical metadata from video files.
package mediainfo

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/middleware"
	"github.com/poiesic/lakechain/processors"
)

const signedURLTTL = 5 * time.Minute

var losslessCodecs = map[string]bool{
	"flac": true, "alac": true, "ape": true, "wavpack": true,
	"tta": true, "mlp": true, "truehd": true,
}

// Processor merges video and audio track properties into the metadata.
type Processor struct {
	env    *processors.Env
	inspector Inspector
	logger *slog.Logger
}

var _ middleware.Processor = (*Processor)(nil)

// New creates a media info processor.
func New(env *processors.Env, inspector Inspector) (*Processor, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	if inspector == nil {
		inspector = FFProbe{}
	}
	return &Processor{env: env, inspector: inspector, logger: env.Log("mediainfo")}, nil
}

// Process implements middleware.Processor.
func (p *Processor) Process(ctx context.Context, event *core.Event, emit middleware.Emitter) error {
	doc := event.Document()
	if err := processors.Require(doc, core.IsVideo); err != nil {
		return err
	}
	url, err := p.env.Store.SignedURL(ctx, doc.URL, signedURLTTL)
	if err != nil {
		return err
	}
	report, err := p.inspector.Inspect(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", doc.URL, err)
	}
	if err := event.Data.Metadata.Merge(Metadata(report)); err != nil {
		return err
	}
	return emit.Emit(ctx, event)
}

// Metadata maps an ffprobe report to document metadata.
func Metadata(report *Report) core.Metadata {
	attrs := map[string]any{}
	meta := core.Properties(core.KindVideo, attrs)
	var audioTracks []map[string]any
	videoSeen := false

	for _, s := range report.Streams {
		switch s.CodecType {
		case "video":
			if videoSeen {
				continue
			}
			videoSeen = true
			videoAttrs(s, report.Format, attrs, meta)
		case "audio":
			track, lang := audioTrack(s)
			audioTracks = append(audioTracks, track)
			if lang != "" {
				meta["language"] = lang
			}
		}
	}
	if audioTracks == nil {
		audioTracks = []map[string]any{}
	}
	attrs["audioTracks"] = audioTracks
	return meta
}

func videoAttrs(s Stream, format Format, attrs map[string]any, meta core.Metadata) {
	rate := s.AvgFrameRate
	if _, ok := ratio(rate); !ok {
		rate = s.FrameRate
	}
	if fps, ok := ratio(rate); ok {
		attrs["fps"] = math.Round(fps*1000) / 1000
	}
	if s.Width > 0 && s.Height > 0 {
		attrs["resolution"] = map[string]any{"width": s.Width, "height": s.Height}
	}
	if s.CodecName != "" {
		attrs["format"] = strings.ToUpper(s.CodecName)
	}
	duration := s.Duration
	if duration == "" {
		duration = format.Duration
	}
	if ms, ok := millis(duration); ok {
		attrs["duration"] = ms
	}
	if codec := codecID(s); codec != "" {
		attrs["codec"] = codec
	}
	if ar, ok := ratio(s.SampleAspectRatio); ok {
		attrs["aspectRatio"] = ar
	}
	if created, ok := creationTime(s.Tags, format.Tags); ok {
		meta["createdAt"] = created
	}
}

func audioTrack(s Stream) (map[string]any, string) {
	track := map[string]any{}
	if codec := codecID(s); codec != "" {
		track["codec"] = codec
	}
	if ms, ok := millis(s.Duration); ok {
		track["duration"] = ms
	}
	if v, ok := integer(s.BitRate); ok {
		track["bitrate"] = v
	}
	if s.Channels > 0 {
		track["channels"] = s.Channels
	}
	if v, ok := integer(s.SampleRate); ok {
		track["sampleRate"] = v
	}
	if s.CodecName != "" {
		track["lossless"] = losslessCodecs[s.CodecName] || strings.HasPrefix(s.CodecName, "pcm_")
	}
	lang := s.Tags["language"]
	if lang == "und" {
		lang = ""
	}
	return track, lang
}

// codecID prefers the container codec tag over the decoder name.
func codecID(s Stream) string {
	if tag := s.CodecTag; tag != "" && !strings.HasPrefix(tag, "[") {
		return tag
	}
	return s.CodecName
}
