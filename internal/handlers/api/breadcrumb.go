package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/forgecommerce/storefront/internal/breadcrumb"
	"github.com/forgecommerce/storefront/internal/services/category"
)

// CatalogLookup resolves the category data a breadcrumb is built from.
type CatalogLookup interface {
	PathsForProduct(ctx context.Context, productSlug string) ([]string, error)
	TreeForCategory(ctx context.Context, slug string) ([]breadcrumb.NavigationItem, error)
}

// BreadcrumbHandler serves breadcrumb trails as JSON and as HTML fragments.
type BreadcrumbHandler struct {
	catalog      CatalogLookup
	resolver     *breadcrumb.Resolver
	render       breadcrumb.RenderOptions
	showOnMobile bool
	validate     *validator.Validate
	logger       *slog.Logger
}

// NewBreadcrumbHandler creates a breadcrumb handler. showOnMobile is the
// default for requests that do not set show_on_mobile.
func NewBreadcrumbHandler(
	catalog CatalogLookup,
	resolver *breadcrumb.Resolver,
	render breadcrumb.RenderOptions,
	showOnMobile bool,
	logger *slog.Logger,
) *BreadcrumbHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if render.HomeHref == "" {
		render.HomeHref = breadcrumb.DefaultHomeHref
	}
	return &BreadcrumbHandler{
		catalog:      catalog,
		resolver:     resolver,
		render:       render,
		showOnMobile: showOnMobile,
		validate:     newQueryValidator(),
		logger:       logger,
	}
}

// RegisterRoutes registers the breadcrumb routes on the given mux.
func (h *BreadcrumbHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/breadcrumb", h.jsonHandler(queryProps))
	mux.HandleFunc("GET /api/v1/products/{slug}/breadcrumb", h.jsonHandler(h.productProps))
	mux.HandleFunc("GET /api/v1/categories/{slug}/breadcrumb", h.jsonHandler(h.categoryProps))

	mux.HandleFunc("GET /fragments/breadcrumb", h.fragmentHandler(queryProps))
	mux.HandleFunc("GET /fragments/products/{slug}/breadcrumb", h.fragmentHandler(h.productProps))
	mux.HandleFunc("GET /fragments/categories/{slug}/breadcrumb", h.fragmentHandler(h.categoryProps))
}

// --- Request parsing ---

// breadcrumbQuery holds the query parameters shared by every route.
type breadcrumbQuery struct {
	Categories   []string `query:"category" validate:"max=50,dive,max=512"`
	Term         string   `query:"term" validate:"max=256"`
	Mode         string   `query:"mode" validate:"omitempty,oneof=standard legacy"`
	ShowOnMobile bool     `query:"show_on_mobile"`
	PreserveCase bool     `query:"preserve_case"`
}

func newQueryValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("query")
	})
	return v
}

func (h *BreadcrumbHandler) parseQuery(r *http.Request) (breadcrumbQuery, error) {
	values := r.URL.Query()
	q := breadcrumbQuery{
		Categories:   values["category"],
		Term:         values.Get("term"),
		Mode:         strings.ToLower(values.Get("mode")),
		ShowOnMobile: h.showOnMobile,
	}

	var err error
	if q.ShowOnMobile, err = parseBoolParam(values.Get("show_on_mobile"), q.ShowOnMobile); err != nil {
		return q, fmt.Errorf("show_on_mobile: %w", err)
	}
	if q.PreserveCase, err = parseBoolParam(values.Get("preserve_case"), false); err != nil {
		return q, fmt.Errorf("preserve_case: %w", err)
	}

	if err := h.validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return q, errors.New(strings.Join(msgs, "; "))
		}
		return q, err
	}
	return q, nil
}

func parseBoolParam(v string, fallback bool) (bool, error) {
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("invalid boolean %q", v)
	}
	return b, nil
}

// --- Props sources ---

// propsSource builds the list part of the props for one route.
type propsSource func(r *http.Request, q breadcrumbQuery) (breadcrumb.Props, error)

func queryProps(_ *http.Request, q breadcrumbQuery) (breadcrumb.Props, error) {
	return breadcrumb.Props{Categories: q.Categories}, nil
}

func (h *BreadcrumbHandler) productProps(r *http.Request, _ breadcrumbQuery) (breadcrumb.Props, error) {
	paths, err := h.catalog.PathsForProduct(r.Context(), r.PathValue("slug"))
	if err != nil {
		return breadcrumb.Props{}, err
	}
	return breadcrumb.Props{Categories: paths}, nil
}

func (h *BreadcrumbHandler) categoryProps(r *http.Request, _ breadcrumbQuery) (breadcrumb.Props, error) {
	tree, err := h.catalog.TreeForCategory(r.Context(), r.PathValue("slug"))
	if err != nil {
		return breadcrumb.Props{}, err
	}
	return breadcrumb.Props{CategoryTree: tree}, nil
}

// requestError carries the status code and client message of a failed
// request.
type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string { return e.message }

// asRequestError returns the requestError in err's chain, or a 500 when
// there is none.
func asRequestError(err error) *requestError {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return reqErr
	}
	return &requestError{status: http.StatusInternalServerError, message: "internal server error"}
}

// trail parses the request, loads the props and resolves the trail.
func (h *BreadcrumbHandler) trail(r *http.Request, source propsSource) (breadcrumb.Trail, error) {
	q, err := h.parseQuery(r)
	if err != nil {
		return breadcrumb.Trail{}, &requestError{status: http.StatusBadRequest, message: err.Error()}
	}

	props, err := source(r, q)
	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			return breadcrumb.Trail{}, &requestError{status: http.StatusNotFound, message: "not found"}
		}
		h.logger.Error("failed to load breadcrumb source",
			"path", r.URL.Path,
			"error", err,
		)
		return breadcrumb.Trail{}, &requestError{status: http.StatusInternalServerError, message: "internal server error"}
	}

	props.Term = q.Term
	props.ShowOnMobile = q.ShowOnMobile
	props.PreserveLabelCase = q.PreserveCase

	mode := h.resolver.Mode()
	if q.Mode != "" {
		// Already restricted to known names by the validator.
		mode, _ = breadcrumb.ParseMode(q.Mode)
	}
	return h.resolver.ResolveMode(props, mode), nil
}

// --- JSON ---

// trailJSON is the public-facing breadcrumb representation.
type trailJSON struct {
	Visible      bool                        `json:"visible"`
	Mode         string                      `json:"mode"`
	Home         string                      `json:"home"`
	Items        []breadcrumb.NavigationItem `json:"items"`
	Term         string                      `json:"term,omitempty"`
	ShowOnMobile bool                        `json:"show_on_mobile"`
}

func (h *BreadcrumbHandler) jsonHandler(source propsSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := h.trail(r, source)
		if err != nil {
			reqErr := asRequestError(err)
			writeJSON(w, reqErr.status, errorJSON{Error: reqErr.message})
			return
		}

		items := t.Items
		if items == nil {
			items = []breadcrumb.NavigationItem{}
		}
		writeJSON(w, http.StatusOK, trailJSON{
			Visible:      t.Visible,
			Mode:         t.Mode.String(),
			Home:         h.render.HomeHref,
			Items:        items,
			Term:         t.Term,
			ShowOnMobile: t.ShowOnMobile,
		})
	}
}

// --- HTML fragments ---

func (h *BreadcrumbHandler) fragmentHandler(source propsSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := h.trail(r, source)
		if err != nil {
			reqErr := asRequestError(err)
			http.Error(w, reqErr.message, reqErr.status)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := breadcrumb.Component(t, h.render).Render(r.Context(), w); err != nil {
			h.logger.Error("failed to render breadcrumb", "error", err, "path", r.URL.Path)
		}
	}
}
