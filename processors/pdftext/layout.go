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
	"github.com/ledongthuc/pdf"
	"github.com/poiesic/lakechain/core"
)

// minTableCells is the number of touching rectangles that make a table.
const minTableCells = 4

// cellTolerance is the gap in points under which two rectangles touch.
const cellTolerance = 2.0

// maxFormDepth bounds the recursion into nested form XObjects.
const maxFormDepth = 4

// Layout counts the images and tables of a page or document.
type Layout struct {
	ImageCount int
	TableCount int
}

// Metadata returns l as attrs.layout of a text document.
func (l Layout) Metadata() core.Metadata {
	return core.Properties(core.KindText, map[string]any{
		"layout": map[string]any{
			"imageCount": l.ImageCount,
			"tableCount": l.TableCount,
		},
	})
}

// Layout sums the layout of every page.
func (f *File) Layout() Layout {
	var total Layout
	for n := 1; n <= f.Pages(); n++ {
		l := f.PageLayout(n)
		total.ImageCount += l.ImageCount
		total.TableCount += l.TableCount
	}
	return total
}

// PageLayout counts the image XObjects drawn by page n and the tables formed
// by ruled cells. A page that cannot be interpreted counts as empty.
func (f *File) PageLayout(n int) (layout Layout) {
	defer func() {
		if r := recover(); r != nil {
			layout = Layout{}
		}
	}()
	page := f.reader.Page(n)
	if page.V.IsNull() {
		return Layout{}
	}
	layout.ImageCount = countImages(page.Resources().Key("XObject"), 0)
	layout.TableCount = pageTables(page)
	return layout
}

// pageTables counts the tables of page, or zero when its content stream
// cannot be interpreted.
func pageTables(page pdf.Page) (tables int) {
	defer func() {
		if r := recover(); r != nil {
			tables = 0
		}
	}()
	return countTables(page.Content().Rect)
}

func countImages(xobjects pdf.Value, depth int) int {
	if xobjects.Kind() != pdf.Dict || depth > maxFormDepth {
		return 0
	}
	count := 0
	for _, name := range xobjects.Keys() {
		x := xobjects.Key(name)
		switch x.Key("Subtype").Name() {
		case "Image":
			count++
		case "Form":
			count += countImages(x.Key("Resources").Key("XObject"), depth+1)
		}
	}
	return count
}

// countTables groups touching rectangles and counts the groups with at
// least minTableCells members.
func countTables(rects []pdf.Rect) int {
	parent := make([]int, len(rects))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	for i := range rects {
		for j := i + 1; j < len(rects); j++ {
			if touching(rects[i], rects[j]) {
				parent[find(i)] = find(j)
			}
		}
	}

	sizes := make(map[int]int)
	for i := range rects {
		sizes[find(i)]++
	}
	tables := 0
	for _, size := range sizes {
		if size >= minTableCells {
			tables++
		}
	}
	return tables
}

func touching(a, b pdf.Rect) bool {
	a, b = canonical(a), canonical(b)
	return a.Min.X <= b.Max.X+cellTolerance && b.Min.X <= a.Max.X+cellTolerance &&
		a.Min.Y <= b.Max.Y+cellTolerance && b.Min.Y <= a.Max.Y+cellTolerance
}

// canonical orders the corners of r. The re operator accepts negative sizes.
func canonical(r pdf.Rect) pdf.Rect {
	if r.Min.X > r.Max.X {
		r.Min.X, r.Max.X = r.Max.X, r.Min.X
	}
	if r.Min.Y > r.Max.Y {
		r.Min.Y, r.Max.Y = r.Max.Y, r.Min.Y
	}
	return r
}
