package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	tx, err := db.Begin()
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	seedProducts(tx)
	seedSettings(tx)
	seedZipRates(tx)

	if err := tx.Commit(); err != nil {
		log.Fatalf("Failed to commit seed data: %v", err)
	}
	log.Println("Seeding completed successfully!")
}

func seedProducts(tx *sql.Tx) {
	products := []struct {
		SKU   string
		Name  string
		Price *string
	}{
		{"WF-TS-001", "Classic Tee", strPtr("12.00")},
		{"WF-TS-002", "Heavyweight Tee", strPtr("16.50")},
		{"WF-TS", "Tee (generic)", strPtr("10.00")},
		{"WF-HD-010", "Pullover Hoodie", strPtr("34.00")},
		{"WF-MG-100", "Ceramic Mug", strPtr("9.75")},
		{"WF-ST-200", "Vinyl Sticker", strPtr("2.50")},
		{"WF-CP-300", "Custom Print (quote only)", nil},
	}

	log.Println("Seeding products...")
	for _, p := range products {
		_, err := tx.Exec(`
			INSERT INTO products (sku, name, retail_price, active)
			VALUES ($1, $2, $3, TRUE)
			ON CONFLICT (sku) DO UPDATE
			SET name = EXCLUDED.name, retail_price = EXCLUDED.retail_price, active = TRUE, updated_at = now()
		`, p.SKU, p.Name, p.Price)
		if err != nil {
			log.Fatalf("Failed to seed product %s: %v", p.SKU, err)
		}
	}
}

func seedSettings(tx *sql.Tx) {
	settings := []struct {
		Category string
		Key      string
		Value    string
	}{
		{"shipping", "free_shipping_threshold", "50.00"},
		{"shipping", "local_delivery_fee", "5.00"},
		{"shipping", "shipping_rate_usps", "8.99"},
		{"shipping", "shipping_rate_fedex", "12.50"},
		{"shipping", "shipping_rate_ups", "11.25"},
		{"tax", "tax_enabled", "true"},
		{"tax", "tax_rate", "0.0725"},
		{"tax", "tax_shipping", "false"},
		{"general", "currency", "USD"},
		{"general", "business_zip", "90210"},
	}

	log.Println("Seeding business settings...")
	for _, s := range settings {
		_, err := tx.Exec(`
			INSERT INTO business_settings (category, key, value)
			VALUES ($1, $2, $3)
			ON CONFLICT (category, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		`, s.Category, s.Key, s.Value)
		if err != nil {
			log.Fatalf("Failed to seed setting %s: %v", s.Key, err)
		}
	}
}

func seedZipRates(tx *sql.Tx) {
	rates := []struct {
		Zip   string
		State string
		Rate  string
	}{
		{"90210", "CA", "0.09500"},
		{"10001", "NY", "0.08875"},
		{"60601", "IL", "0.10250"},
		{"73301", "TX", "0.08250"},
		{"97201", "OR", "0.00000"},
		{"33101", "FL", "0.07000"},
	}

	log.Println("Seeding ZIP tax rates...")
	for _, r := range rates {
		_, err := tx.Exec(`
			INSERT INTO zip_tax_rates (zip, state, combined_rate)
			VALUES ($1, $2, $3)
			ON CONFLICT (zip) DO UPDATE
			SET state = EXCLUDED.state, combined_rate = EXCLUDED.combined_rate, updated_at = now()
		`, r.Zip, r.State, r.Rate)
		if err != nil {
			log.Fatalf("Failed to seed zip %s: %v", r.Zip, err)
		}
	}
}

func strPtr(s string) *string { return &s }
