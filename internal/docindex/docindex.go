// Package docindex renders documentation index pages in reStructuredText.
package docindex

import (
	"fmt"
	"strings"
)

// Page is a declarative documentation index: a title and the documents it
// links to.
type Page struct {
	Title         string
	UnderlineChar rune
	Entries       []string
}

// ImageProcessing is the index page for the image-processing example
// notebooks.
var ImageProcessing = Page{
	Title:         "Image Processing",
	UnderlineChar: '=',
	Entries: []string{
		"augmentation_gallery.ipynb",
		"brightness_contrast_example.ipynb",
		"color_space_conversion.ipynb",
		"decoder_examples.ipynb",
		"hsv_example.ipynb",
		"interp_types.ipynb",
		"resize.ipynb",
		"warp.ipynb",
		"3d_transforms.ipynb",
	},
}

// Render produces the RST source of the index page: the title underlined
// with the page's underline character, followed by a toctree listing every
// entry.
func (p Page) Render() string {
	underline := p.UnderlineChar
	if underline == 0 {
		underline = '='
	}

	var b strings.Builder
	fmt.Fprintln(&b, p.Title)
	fmt.Fprintln(&b, strings.Repeat(string(underline), len(p.Title)))
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, ".. toctree::")
	fmt.Fprintln(&b, "   :maxdepth: 1")
	fmt.Fprintln(&b)
	for _, entry := range p.Entries {
		fmt.Fprintf(&b, "   %s\n", entry)
	}
	return b.String()
}
