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

package pdftext

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// Keep pdfcpu from creating a configuration directory under $HOME.
	api.DisableConfigDir()
}

// ExtractPage returns page n of data, counted from 1, as a standalone PDF.
func ExtractPage(data []byte, n int) ([]byte, error) {
	if n < 1 {
		return nil, fmt.Errorf("invalid page number %d", n)
	}
	var out bytes.Buffer
	conf := model.NewDefaultConfiguration()
	if err := api.Trim(bytes.NewReader(data), &out, []string{strconv.Itoa(n)}, conf); err != nil {
		return nil, fmt.Errorf("failed to extract page %d: %w", n, err)
	}
	return out.Bytes(), nil
}
