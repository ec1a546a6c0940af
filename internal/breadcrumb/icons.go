package breadcrumb

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Icons are the glyph slots of the trail. Any templ.Component can fill a
// slot; nil slots get the storefront defaults.
type Icons struct {
	// Home is rendered inside the home link.
	Home templ.Component
	// Arrow separates consecutive links.
	Arrow templ.Component
}

func (i Icons) withDefaults() Icons {
	if i.Home == nil {
		i.Home = HomeIcon(26)
	}
	if i.Arrow == nil {
		i.Arrow = CaretIcon(8)
	}
	return i
}

// HomeIcon renders the store home glyph at the given pixel size.
func HomeIcon(size int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<svg class="breadcrumb-icon-home" width="%d" height="%d" viewBox="0 0 16 16" fill="currentColor" aria-hidden="true">`+
				`<path d="M8 1.5 1 7.2V15h5v-4.5h4V15h5V7.2z"></path></svg>`,
			size, size)
		return err
	})
}

// CaretIcon renders a right-pointing caret at the given pixel size.
func CaretIcon(size int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<svg class="breadcrumb-icon-caret" width="%d" height="%d" viewBox="0 0 8 8" fill="currentColor" aria-hidden="true">`+
				`<path d="M2 0 6 4 2 8z"></path></svg>`,
			size, size)
		return err
	})
}
