package category

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"

	"github.com/forgecommerce/storefront/internal/breadcrumb"
	"github.com/forgecommerce/storefront/internal/metrics"
)

// ErrNotFound is returned when a product or category does not exist or is
// not active.
var ErrNotFound = errors.New("not found")

// Category is a node of the storefront category tree.
type Category struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	ParentID  *uuid.UUID // nil = department (top-level category).
	Position  int32
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Product is the minimal product record the breadcrumb needs.
type Product struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	IsActive  bool
	CreatedAt time.Time
}

// CreateCategoryParams holds the input for creating a new category.
type CreateCategoryParams struct {
	Name     string
	Slug     string     // Auto-generated from Name if empty.
	ParentID *uuid.UUID // nil = top-level category.
	Position int32
	IsActive bool
}

// Service reads and writes the category tree and product assignments.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	paths  singleflight.Group
}

// NewService creates a new category service backed by the given connection pool.
func NewService(pool *pgxpool.Pool, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		pool:   pool,
		logger: logger,
	}
}

const categoryColumns = `id, name, slug, parent_id, position, is_active, created_at, updated_at`

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.Position, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Create creates a new category. If Slug is empty it is derived from Name
// with the same normaliser the breadcrumb links use.
func (s *Service) Create(ctx context.Context, params CreateCategoryParams) (Category, error) {
	slug := params.Slug
	if slug == "" {
		slug = breadcrumb.Slugify(params.Name)
	}

	now := time.Now().UTC()
	row := s.pool.QueryRow(ctx,
		`INSERT INTO categories (id, name, slug, parent_id, position, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		 RETURNING `+categoryColumns,
		uuid.New(), params.Name, slug, params.ParentID, params.Position, params.IsActive, now,
	)
	cat, err := scanCategory(row)
	if err != nil {
		return Category{}, fmt.Errorf("creating category %q: %w", params.Name, err)
	}

	s.logger.Info("category created",
		slog.String("id", cat.ID.String()),
		slog.String("name", cat.Name),
		slog.String("slug", cat.Slug),
	)

	return cat, nil
}

// Get returns a single category by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Category, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	cat, err := scanCategory(row)
	if err != nil {
		return Category{}, fmt.Errorf("getting category %s: %w", id, notFound(err))
	}
	return cat, nil
}

// GetBySlug returns a single category by its URL slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (Category, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug)
	cat, err := scanCategory(row)
	if err != nil {
		return Category{}, fmt.Errorf("getting category by slug %q: %w", slug, notFound(err))
	}
	return cat, nil
}

// List returns categories ordered by position and name.
// When activeOnly is true, only active categories are returned.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY position, name`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}

// CreateProduct creates an active product.
func (s *Service) CreateProduct(ctx context.Context, name, slug string) (Product, error) {
	if slug == "" {
		slug = breadcrumb.Slugify(name)
	}

	var p Product
	err := s.pool.QueryRow(ctx,
		`INSERT INTO products (id, name, slug, is_active, created_at)
		 VALUES ($1, $2, $3, TRUE, $4)
		 RETURNING id, name, slug, is_active, created_at`,
		uuid.New(), name, slug, time.Now().UTC(),
	).Scan(&p.ID, &p.Name, &p.Slug, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return Product{}, fmt.Errorf("creating product %q: %w", name, err)
	}

	s.logger.Info("product created",
		slog.String("id", p.ID.String()),
		slog.String("slug", p.Slug),
	)
	return p, nil
}

// AssignProduct links a product to a category. Assigning twice is a no-op.
func (s *Service) AssignProduct(ctx context.Context, productID, categoryID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO product_categories (product_id, category_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		productID, categoryID,
	)
	if err != nil {
		return fmt.Errorf("assigning product %s to category %s: %w", productID, categoryID, err)
	}
	return nil
}

// pathsLookupTimeout bounds a shared product lookup, which no longer
// follows the deadline of any single caller.
const pathsLookupTimeout = 5 * time.Second

// PathsForProduct returns the raw category paths of an active product, in
// the "/Department/Category/" form the breadcrumb derives links from.
// Every active ancestor of an assigned category is included once.
//
// Concurrent lookups of the same product share one query. A caller that
// gives up only abandons its own wait.
func (s *Service) PathsForProduct(ctx context.Context, productSlug string) ([]string, error) {
	paths, err := s.sharedPaths(ctx, productSlug, s.pathsForProduct)
	if err != nil {
		if !errors.Is(err, ErrNotFound) && ctx.Err() == nil {
			metrics.CatalogLookupErrorsTotal.WithLabelValues("product_paths").Inc()
		}
		return nil, err
	}
	return paths, nil
}

// sharedPaths runs load once per key for all concurrent callers. The load
// runs detached from the caller that started it.
func (s *Service) sharedPaths(
	ctx context.Context,
	key string,
	load func(context.Context, string) ([]string, error),
) ([]string, error) {
	ch := s.paths.DoChan(key, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pathsLookupTimeout)
		defer cancel()
		return load(lookupCtx, key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		shared := res.Val.([]string)
		paths := make([]string, len(shared))
		copy(paths, shared)
		return paths, nil
	}
}

func (s *Service) pathsForProduct(ctx context.Context, productSlug string) ([]string, error) {
	var productID uuid.UUID
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM products WHERE slug = $1 AND is_active`, productSlug,
	).Scan(&productID)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", productSlug, notFound(err))
	}

	rows, err := s.pool.Query(ctx, `
		WITH RECURSIVE chain AS (
			SELECT c.id, c.parent_id, ARRAY[c.name] AS names
			FROM product_categories pc
			JOIN categories c ON c.id = pc.category_id
			WHERE pc.product_id = $1 AND c.is_active
		  UNION ALL
			SELECT parent.id, parent.parent_id, parent.name || chain.names
			FROM chain
			JOIN categories parent ON parent.id = chain.parent_id
			WHERE parent.is_active
		) CYCLE id SET is_cycle USING visited
		SELECT names FROM chain
		WHERE parent_id IS NULL AND NOT is_cycle
		ORDER BY names`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying category paths of product %q: %w", productSlug, err)
	}

	chains, err := pgx.CollectRows(rows, pgx.RowTo[[]string])
	if err != nil {
		return nil, fmt.Errorf("reading category paths of product %q: %w", productSlug, err)
	}

	paths := ancestorPaths(chains)
	s.logger.Debug("product category paths resolved",
		slog.String("product", productSlug),
		slog.Int("paths", len(paths)),
	)
	return paths, nil
}

// ancestorPaths expands root-first name chains into one path per prefix,
// skipping duplicates while keeping first-seen order.
func ancestorPaths(chains [][]string) []string {
	seen := make(map[string]bool)
	paths := make([]string, 0, len(chains))
	for _, names := range chains {
		for i := range names {
			p := "/" + strings.Join(names[:i+1], "/") + "/"
			if seen[p] {
				continue
			}
			seen[p] = true
			paths = append(paths, p)
		}
	}
	return paths
}

// TreeForCategory returns the pre-built trail of a category page: one item
// per ancestor, root first, ending with the category itself. Links are
// built from the stored slugs, with the department marker on the root.
// A category below an inactive ancestor, or inside a parent cycle, has no
// trail and reports ErrNotFound.
func (s *Service) TreeForCategory(ctx context.Context, slug string) ([]breadcrumb.NavigationItem, error) {
	rows, err := s.pool.Query(ctx, `
		WITH RECURSIVE chain AS (
			SELECT id, parent_id, name, slug, 0 AS depth
			FROM categories
			WHERE slug = $1 AND is_active
		  UNION ALL
			SELECT parent.id, parent.parent_id, parent.name, parent.slug, chain.depth + 1
			FROM chain
			JOIN categories parent ON parent.id = chain.parent_id
			WHERE parent.is_active
		) CYCLE id SET is_cycle USING visited
		SELECT name, slug, parent_id IS NULL FROM chain
		WHERE NOT is_cycle
		ORDER BY depth DESC`,
		slug,
	)
	if err != nil {
		metrics.CatalogLookupErrorsTotal.WithLabelValues("category_tree").Inc()
		return nil, fmt.Errorf("querying tree of category %q: %w", slug, err)
	}

	type node struct {
		Name   string
		Slug   string
		IsRoot bool
	}
	nodes, err := pgx.CollectRows(rows, pgx.RowToStructByPos[node])
	if err != nil {
		metrics.CatalogLookupErrorsTotal.WithLabelValues("category_tree").Inc()
		return nil, fmt.Errorf("reading tree of category %q: %w", slug, err)
	}
	if len(nodes) == 0 || !nodes[0].IsRoot {
		return nil, fmt.Errorf("getting category by slug %q: %w", slug, ErrNotFound)
	}

	items := make([]breadcrumb.NavigationItem, len(nodes))
	slugs := make([]string, 0, len(nodes))
	for i, n := range nodes {
		slugs = append(slugs, n.Slug)
		href := "/" + strings.Join(slugs, "/")
		if i == 0 {
			href += "/d"
		}
		items[i] = breadcrumb.NavigationItem{Name: n.Name, Href: href}
	}
	return items, nil
}

// notFound maps pgx.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
