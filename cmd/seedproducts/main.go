package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"comercio/internal/adapter/repo"
	"comercio/internal/domain"
	"comercio/internal/infra"
)

type demoProduct struct {
	Name        string
	Description string
	Category    string
	PriceCents  int64
	Stock       int
}

var demoProducts = []demoProduct{
	{"Yerba Mate Organica 1kg", "Yerba mate sin palo, secado natural", "almacen", 185000, 40},
	{"Cafe Tostado en Grano 500g", "Blend de especialidad, tueste medio", "almacen", 210000, 25},
	{"Aceite de Oliva Extra Virgen 500ml", "Primera prension en frio", "almacen", 168000, 18},
	{"Miel Pura de Monte 750g", "Miel liquida multiflora", "almacen", 95000, 30},
	{"Agua Mineral 2L", "Sin gas, pack individual", "bebidas", 28000, 120},
	{"Gaseosa Cola 2.25L", "Linea retornable", "bebidas", 42000, 80},
	{"Cerveza Rubia Artesanal 710ml", "Golden ale de produccion local", "bebidas", 65000, 36},
	{"Jugo Exprimido de Naranja 1L", "Refrigerado, sin azucar agregada", "bebidas", 52000, 20},
	{"Detergente Concentrado 750ml", "Rinde hasta 150 lavados", "limpieza", 39000, 60},
	{"Lavandina 1L", "Desinfectante de uso general", "limpieza", 18000, 75},
	{"Papel Higienico x4", "Doble hoja, 80 metros", "limpieza", 46000, 90},
	{"Esponja Multiuso x3", "Fibra y esponja vegetal", "limpieza", 21000, 50},
}

func main() {
	var (
		tenantFlag   string
		countFlag    int
		currencyFlag string
		forceFlag    bool
	)

	flag.StringVar(&tenantFlag, "tenant", "", "tenant ID to seed (UUID)")
	flag.IntVar(&countFlag, "count", len(demoProducts), "number of demo products to insert")
	flag.StringVar(&currencyFlag, "currency", "ARS", "ISO 4217 currency for seeded prices")
	flag.BoolVar(&forceFlag, "force", false, "seed even when the tenant already has products")
	flag.Parse()

	tenantID := strings.TrimSpace(tenantFlag)
	if tenantID == "" {
		exitWithError(errors.New("-tenant is required"))
	}
	count := countFlag
	if count <= 0 || count > len(demoProducts) {
		count = len(demoProducts)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "seedproducts").Logger()
	products := repo.NewProductRepository(infra.NewSQLRunner(pool, logger))

	existing, err := products.CountByTenant(ctx, tenantID)
	if err != nil {
		exitWithError(fmt.Errorf("failed to count products: %w", err))
	}
	if existing > 0 && !forceFlag {
		exitWithError(fmt.Errorf("tenant %s already has %d products (re-run with -force to add more)", tenantID, existing))
	}

	currency := strings.ToUpper(strings.TrimSpace(currencyFlag))
	for _, demo := range demoProducts[:count] {
		id, err := products.Insert(ctx, &domain.Product{
			TenantID:    tenantID,
			Name:        demo.Name,
			Description: demo.Description,
			Category:    demo.Category,
			PriceCents:  demo.PriceCents,
			Currency:    currency,
			Stock:       demo.Stock,
		})
		if err != nil {
			exitWithError(fmt.Errorf("failed to insert %q: %w", demo.Name, err))
		}
		fmt.Printf("%s  %s (%s)\n", id, demo.Name, demo.Category)
	}

	fmt.Printf("Seeded %d products for tenant %s\n", count, tenantID)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
