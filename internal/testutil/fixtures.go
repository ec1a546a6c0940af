package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/forgecommerce/storefront/internal/breadcrumb"
)

// CategoryFixture is the subset of a category row tests assert against.
type CategoryFixture struct {
	ID   uuid.UUID
	Name string
	Slug string
}

// FixtureCategory creates an active category under parent (nil = department).
// The slug is derived from the name.
func (tdb *TestDB) FixtureCategory(t *testing.T, name string, parent *uuid.UUID) CategoryFixture {
	t.Helper()
	return tdb.insertCategory(t, name, parent, true)
}

// FixtureInactiveCategory creates an inactive category under parent.
func (tdb *TestDB) FixtureInactiveCategory(t *testing.T, name string, parent *uuid.UUID) CategoryFixture {
	t.Helper()
	return tdb.insertCategory(t, name, parent, false)
}

func (tdb *TestDB) insertCategory(t *testing.T, name string, parent *uuid.UUID, active bool) CategoryFixture {
	t.Helper()

	cat := CategoryFixture{ID: uuid.New(), Name: name, Slug: breadcrumb.Slugify(name)}
	_, err := tdb.Pool.Exec(context.Background(),
		`INSERT INTO categories (id, name, slug, parent_id, position, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, 1, $5, $6, $6)`,
		cat.ID, cat.Name, cat.Slug, parent, active, time.Now().UTC(),
	)
	if err != nil {
		t.Fatalf("creating fixture category %q: %v", name, err)
	}
	return cat
}

// FixtureProduct creates an active product and links it to the given
// categories.
func (tdb *TestDB) FixtureProduct(t *testing.T, name, slug string, categoryIDs ...uuid.UUID) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	id := uuid.New()
	_, err := tdb.Pool.Exec(ctx,
		`INSERT INTO products (id, name, slug, is_active, created_at) VALUES ($1, $2, $3, TRUE, $4)`,
		id, name, slug, time.Now().UTC(),
	)
	if err != nil {
		t.Fatalf("creating fixture product %q: %v", name, err)
	}

	for _, categoryID := range categoryIDs {
		_, err := tdb.Pool.Exec(ctx,
			`INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2)`,
			id, categoryID,
		)
		if err != nil {
			t.Fatalf("linking fixture product %q to %s: %v", name, categoryID, err)
		}
	}
	return id
}
