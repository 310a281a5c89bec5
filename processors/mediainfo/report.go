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

package mediainfo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Inspector inspects the media file at url.
type Inspector interface {
	Inspect(ctx context.Context, url string) (*Report, error)
}

// Report is the subset of ffprobe JSON output used for metadata.
type Report struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes one elementary stream.
type Stream struct {
	CodecType         string            `json:"codec_type"`
	CodecName         string            `json:"codec_name"`
	CodecTag          string            `json:"codec_tag_string"`
	Width             int               `json:"width"`
	Height            int               `json:"height"`
	FrameRate         string            `json:"r_frame_rate"`
	AvgFrameRate      string            `json:"avg_frame_rate"`
	SampleAspectRatio string            `json:"sample_aspect_ratio"`
	Duration          string            `json:"duration"`
	BitRate           string            `json:"bit_rate"`
	Channels          int               `json:"channels"`
	SampleRate        string            `json:"sample_rate"`
	Tags              map[string]string `json:"tags"`
}

// Format describes the container.
type Format struct {
	Name     string            `json:"format_name"`
	LongName string            `json:"format_long_name"`
	Duration string            `json:"duration"`
	BitRate  string            `json:"bit_rate"`
	Tags     map[string]string `json:"tags"`
}

// FFProbe runs the ffprobe binary.
type FFProbe struct {
	// Path is the ffprobe executable. "ffprobe" is looked up in PATH when
	// empty.
	Path string
}

// Inspect implements Inspector.
func (f FFProbe) Inspect(ctx context.Context, url string) (*Report, error) {
	bin := f.Path
	if bin == "" {
		bin = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-print_format", "json",
		"-show_format", "-show_streams",
		url,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return ParseReport(out)
}

// ParseReport decodes ffprobe JSON output.
func ParseReport(data []byte) (*Report, error) {
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("malformed ffprobe output: %w", err)
	}
	return &report, nil
}

// ratio parses "num/den" or "num:den". Zero denominators yield false.
func ratio(s string) (float64, bool) {
	sep := "/"
	if strings.Contains(s, ":") {
		sep = ":"
	}
	num, den, ok := strings.Cut(s, sep)
	if !ok {
		v, err := strconv.ParseFloat(s, 64)
		return v, err == nil && v > 0
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 || n == 0 {
		return 0, false
	}
	return n / d, true
}

// millis converts a duration in seconds to milliseconds.
func millis(s string) (int64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return int64(v*1000 + 0.5), true
}

func integer(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	return v, err == nil
}

func creationTime(tags ...map[string]string) (string, bool) {
	for _, t := range tags {
		raw := t["creation_time"]
		if raw == "" {
			continue
		}
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return ts.UTC().Format(time.RFC3339), true
		}
	}
	return "", false
}
