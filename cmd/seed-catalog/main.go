package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/forgecommerce/storefront/internal/breadcrumb"
	"github.com/forgecommerce/storefront/internal/config"
	"github.com/forgecommerce/storefront/internal/database"
	"github.com/forgecommerce/storefront/internal/services/category"
)

// seedNode is one category of the demo tree.
type seedNode struct {
	name     string
	children []seedNode
}

var demoTree = []seedNode{
	{name: "Calçados", children: []seedNode{
		{name: "Femininos", children: []seedNode{{name: "Sandálias"}, {name: "Botas"}}},
		{name: "Masculinos", children: []seedNode{{name: "Tênis"}}},
	}},
	{name: "Eletrônicos", children: []seedNode{
		{name: "Celulares"},
		{name: "Áudio", children: []seedNode{{name: "Fones de Ouvido"}}},
	}},
}

// demoProducts maps a product name to the names of its categories.
var demoProducts = map[string][]string{
	"Sandália Rasteira Verão": {"Sandálias"},
	"Bota Couro Cano Curto":   {"Botas"},
	"Tênis Corrida Leve":      {"Tênis", "Femininos"},
	"Fone Bluetooth Pro":      {"Fones de Ouvido", "Celulares"},
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := config.LoadDev()
	ctx := context.Background()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	svc := category.NewService(pool, logger)

	ids := make(map[string]uuid.UUID)
	for i, node := range demoTree {
		if err := seedCategory(ctx, svc, node, nil, int32(i), ids); err != nil {
			slog.Error("failed to seed categories", "error", err)
			os.Exit(1)
		}
	}

	for name, categories := range demoProducts {
		product, err := svc.CreateProduct(ctx, name, "")
		if err != nil {
			slog.Warn("skipping product", "name", name, "error", err)
			continue
		}
		for _, c := range categories {
			if err := svc.AssignProduct(ctx, product.ID, ids[c]); err != nil {
				slog.Error("failed to assign product", "product", name, "category", c, "error", err)
				os.Exit(1)
			}
		}
		fmt.Printf("Product %q: try /fragments/products/%s/breadcrumb\n", name, product.Slug)
	}

	fmt.Printf("Seeded %d categories\n", len(ids))
}

// seedCategory creates node and its subtree, reusing categories that already
// exist so the command can run more than once.
func seedCategory(ctx context.Context, svc *category.Service, node seedNode, parent *uuid.UUID, position int32, ids map[string]uuid.UUID) error {
	cat, err := svc.GetBySlug(ctx, breadcrumb.Slugify(node.name))
	switch {
	case errors.Is(err, category.ErrNotFound):
		cat, err = svc.Create(ctx, category.CreateCategoryParams{
			Name:     node.name,
			ParentID: parent,
			Position: position,
			IsActive: true,
		})
		if err != nil {
			return err
		}
	case err != nil:
		return err
	}
	ids[node.name] = cat.ID

	for i, child := range node.children {
		if err := seedCategory(ctx, svc, child, &cat.ID, int32(i), ids); err != nil {
			return err
		}
	}
	return nil
}
