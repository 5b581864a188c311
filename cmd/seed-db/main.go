package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/ggshop/internal/domain/product"
	"github.com/xenking/ggshop/internal/storage/postgres"
)

type colorJSON struct {
	Name  string `json:"name"`
	Class string `json:"class"`
}

type productJSON struct {
	ID          int64                     `json:"id"`
	Name        string                    `json:"name"`
	Category    string                    `json:"category"`
	Price       decimal.Decimal           `json:"price"`
	OldPrice    decimal.NullDecimal       `json:"oldPrice"`
	Discount    string                    `json:"discount"`
	Rating      decimal.Decimal           `json:"rating"`
	Description string                    `json:"description"`
	Image       string                    `json:"image"`
	Images      []string                  `json:"images"`
	Colors      []colorJSON               `json:"colors"`
	Stock       map[string]map[string]int `json:"stock"`
}

func (p productJSON) detail() product.Detail {
	colors := make([]product.Color, len(p.Colors))
	for i, c := range p.Colors {
		colors[i] = product.Color{Name: c.Name, Class: c.Class}
	}
	return product.Detail{
		Product: product.Product{
			ID:          p.ID,
			Name:        p.Name,
			Category:    p.Category,
			Price:       p.Price,
			OldPrice:    p.OldPrice,
			Discount:    p.Discount,
			Rating:      p.Rating,
			Description: p.Description,
			Image:       p.Image,
		},
		Images: p.Images,
		Colors: colors,
		Stock:  p.Stock,
	}
}

func main() {
	var (
		databaseURL  string
		productsFile string
	)
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.Parse()

	lg, _ := zap.NewDevelopment()
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, productsFile); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL, productsFile string) error {
	products, err := readProducts(productsFile)
	if err != nil {
		return err
	}

	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	repo := postgres.NewProductRepository(pool)
	for _, p := range products {
		d := p.detail()
		if err := repo.Upsert(ctx, d); err != nil {
			return errors.Wrapf(err, "upsert product %d", p.ID)
		}
		lg.Info("Upserted product",
			zap.Int64("id", p.ID),
			zap.String("name", p.Name),
			zap.Int("variants", countVariants(d.Stock)),
		)
	}
	return nil
}

func readProducts(path string) ([]productJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read products file")
	}
	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}
	for _, p := range products {
		if p.ID <= 0 || p.Name == "" {
			return nil, errors.Errorf("product %q: id and name are required", p.Name)
		}
		if p.Price.IsNegative() {
			return nil, errors.Errorf("product %d: negative price", p.ID)
		}
	}
	return products, nil
}

func countVariants(stock map[string]map[string]int) int {
	n := 0
	for _, sizes := range stock {
		n += len(sizes)
	}
	return n
}
