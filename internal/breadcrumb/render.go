package breadcrumb

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/forgecommerce/storefront/internal/metrics"
)

// DefaultHomeHref is the path of the "store home" route.
const DefaultHomeHref = "/"

// RenderOptions control the markup around a resolved trail.
type RenderOptions struct {
	// HomeHref is the resolved path of the store home route.
	HomeHref string
	Icons    Icons
}

// Component renders t as an HTML fragment. An invisible trail renders
// nothing.
func Component(t Trail, opts RenderOptions) templ.Component {
	if opts.HomeHref == "" {
		opts.HomeHref = DefaultHomeHref
	}
	opts.Icons = opts.Icons.withDefaults()

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		metrics.BreadcrumbRendersTotal.
			WithLabelValues(t.Mode.String(), strconv.FormatBool(t.Visible)).
			Inc()

		if !t.Visible {
			return nil
		}
		if t.Mode == ModeLegacy {
			return legacyTrail(t, opts).Render(ctx, w)
		}
		return standardTrail(t, opts).Render(ctx, w)
	})
}
