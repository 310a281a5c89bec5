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

package processors

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/poiesic/lakechain/core"
)

// LoadImage loads and decodes an image document, applying its EXIF
// orientation.
func (e *Env) LoadImage(ctx context.Context, doc core.Document) (image.Image, error) {
	data, err := e.Load(ctx, doc)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", doc.URL, err)
	}
	return img, nil
}

// ImageFormat returns the encoding format matching an image MIME type.
// Types without an encoder fall back to JPEG.
func ImageFormat(mimeType string) (imaging.Format, string) {
	switch mimeType {
	case "image/png":
		return imaging.PNG, "image/png"
	case "image/gif":
		return imaging.GIF, "image/gif"
	case "image/bmp":
		return imaging.BMP, "image/bmp"
	case "image/tiff":
		return imaging.TIFF, "image/tiff"
	}
	return imaging.JPEG, "image/jpeg"
}

// EncodeImage encodes img in the format matching mimeType and returns the
// bytes with the content type actually used.
func EncodeImage(img image.Image, mimeType string) ([]byte, string, error) {
	format, contentType := ImageFormat(mimeType)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(90)); err != nil {
		return nil, "", fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), contentType, nil
}
