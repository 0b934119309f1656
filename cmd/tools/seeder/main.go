package main

import (
	"database/sql"
	"fmt"
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

	seedUsers(db)
	seedCatalog(db)
	seedRepaymentTiers(db)

	log.Println("Seeding completed successfully!")
}

func seedUsers(db *sql.DB) {
	users := []struct {
		Name  string
		Email string
		Role  string
	}{
		{"Admin", "admin@mandi.example", "admin"},
		{"Ramesh Kumar", "ramesh@example.com", "user"},
		{"Lakshmi Devi", "lakshmi@example.com", "user"},
		{"Suresh Reddy", "suresh@example.com", "user"},
		{"Anita Sharma", "anita@example.com", "vendor"},
		{"Mahesh Traders", "mahesh@example.com", "vendor"},
		{"Green Valley Farms", "greenvalley@example.com", "seller"},
		{"Sunrise Agro", "sunrise@example.com", "seller"},
	}

	fmt.Println("Seeding Users...")
	for _, u := range users {
		_, err := db.Exec(`
			INSERT INTO users (name, email, password_hash, role)
			VALUES ($1, $2, crypt('password123', gen_salt('bf')), $3)
			ON CONFLICT (email) DO NOTHING;
		`, u.Name, u.Email, u.Role)
		if err != nil {
			log.Printf("Failed to seed user %s: %v", u.Email, err)
		}
	}
}

func seedCatalog(db *sql.DB) {
	categories := []struct {
		Name string
		Slug string
	}{
		{"Vegetables", "vegetables"},
		{"Fruits", "fruits"},
		{"Grains & Pulses", "grains-pulses"},
		{"Dairy", "dairy"},
		{"Spices", "spices"},
		{"Seeds & Saplings", "seeds-saplings"},
	}

	fmt.Println("Seeding Categories...")
	catIDs := make(map[string]string)
	for _, c := range categories {
		_, err := db.Exec(`
			INSERT INTO categories (name, slug)
			VALUES ($1, $2)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name;
		`, c.Name, c.Slug)
		if err != nil {
			log.Printf("Failed to upsert category %s: %v", c.Name, err)
		}

		var id string
		if err := db.QueryRow("SELECT id FROM categories WHERE slug = $1", c.Slug).Scan(&id); err != nil {
			log.Printf("Failed to get ID for category %s: %v", c.Name, err)
			continue
		}
		catIDs[c.Slug] = id
	}

	var sellerID sql.NullString
	if err := db.QueryRow("SELECT id FROM users WHERE role = 'seller' LIMIT 1").Scan(&sellerID); err != nil {
		log.Printf("No seller found for products: %v", err)
	}

	products := []struct {
		Name            string
		Slug            string
		Category        string
		Price           int64
		VendorPrice     int64
		Stock           int
		DisplayStock    int
		StockUnit       string
		AttributeStocks string
		Image           string
	}{
		{
			"Tomato", "tomato", "vegetables", 4000, 3000, 500, 120, "kg",
			`[{"variety":"Hybrid","grade":"A","price":4000,"vendorPrice":3000,"stock":60,"displayStock":40},
			  {"variety":"Hybrid","grade":"B","price":3500,"vendorPrice":2600,"stock":60,"displayStock":40},
			  {"variety":"Desi","grade":"A","price":4500,"vendorPrice":3400,"stock":40,"displayStock":40}]`,
			"https://images.unsplash.com/photo-1546094096-0df4bcaaa337?w=800",
		},
		{
			"Onion", "onion", "vegetables", 3500, 2500, 800, 200, "kg",
			`[{"size":"Small","price":3200,"vendorPrice":2300,"stock":300,"displayStock":100},
			  {"size":"Medium","price":3500,"vendorPrice":2500,"stock":300,"displayStock":100},
			  {"size":"Large","price":3800,"vendorPrice":2800,"stock":200,"displayStock":100}]`,
			"https://images.unsplash.com/photo-1518977956812-cd3dbadaaf31?w=800",
		},
		{
			"Potato", "potato", "vegetables", 3000, 2200, 1000, 250, "kg",
			`[]`,
			"https://images.unsplash.com/photo-1518977676601-b53f82aba655?w=800",
		},
		{
			"Alphonso Mango", "alphonso-mango", "fruits", 40000, 32000, 200, 50, "dozen",
			`[{"grade":"Export","price":45000,"vendorPrice":36000,"stock":80,"displayStock":25},
			  {"grade":"Domestic","price":40000,"vendorPrice":32000,"stock":120,"displayStock":25}]`,
			"https://images.unsplash.com/photo-1553279768-865429fa0078?w=800",
		},
		{
			"Banana", "banana", "fruits", 6000, 4500, 400, 100, "dozen",
			`[]`,
			"https://images.unsplash.com/photo-1571771894821-ce9b6c11b08e?w=800",
		},
		{
			"Basmati Rice", "basmati-rice", "grains-pulses", 12000, 9500, 600, 150, "kg",
			`[{"pack":"5kg","price":60000,"vendorPrice":47500,"stock":200,"displayStock":50},
			  {"pack":"10kg","price":115000,"vendorPrice":92000,"stock":200,"displayStock":50},
			  {"pack":"25kg","price":280000,"vendorPrice":225000,"stock":200,"displayStock":50}]`,
			"https://images.unsplash.com/photo-1586201375761-83865001e31c?w=800",
		},
		{
			"Toor Dal", "toor-dal", "grains-pulses", 15000, 12000, 300, 80, "kg",
			`[]`,
			"https://images.unsplash.com/photo-1585996950364-1e9a1bf5b7e9?w=800",
		},
		{
			"Buffalo Milk", "buffalo-milk", "dairy", 7000, 5500, 200, 60, "litre",
			`[]`,
			"https://images.unsplash.com/photo-1550583724-b2692b85b150?w=800",
		},
		{
			"Turmeric Powder", "turmeric-powder", "spices", 25000, 19000, 150, 40, "kg",
			`[{"pack":"250g","price":6500,"vendorPrice":5000,"stock":60,"displayStock":15},
			  {"pack":"500g","price":12500,"vendorPrice":9500,"stock":50,"displayStock":15},
			  {"pack":"1kg","price":25000,"vendorPrice":19000,"stock":40,"displayStock":10}]`,
			"https://images.unsplash.com/photo-1615485290382-441e4d049cb5?w=800",
		},
		{
			"Tomato Saplings", "tomato-saplings", "seeds-saplings", 1500, 1000, 1000, 300, "tray",
			`[{"variety":"Hybrid","price":1500,"vendorPrice":1000,"stock":600,"displayStock":200},
			  {"variety":"Desi","price":1800,"vendorPrice":1200,"stock":400,"displayStock":100}]`,
			"https://images.unsplash.com/photo-1592150621744-aca64f48394a?w=800",
		},
	}

	fmt.Println("Seeding Products...")
	for _, p := range products {
		catID, ok := catIDs[p.Category]
		if !ok {
			log.Printf("Missing category %s for product %s", p.Category, p.Name)
			continue
		}
		_, err := db.Exec(`
			INSERT INTO products (category_id, seller_id, name, slug, price, vendor_price,
			                      stock, display_stock, stock_unit, attribute_stocks, image_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11)
			ON CONFLICT (slug) DO UPDATE SET
				price            = EXCLUDED.price,
				vendor_price     = EXCLUDED.vendor_price,
				stock            = EXCLUDED.stock,
				display_stock    = EXCLUDED.display_stock,
				attribute_stocks = EXCLUDED.attribute_stocks,
				updated_at       = now();
		`, catID, sellerID, p.Name, p.Slug, p.Price, p.VendorPrice, p.Stock, p.DisplayStock, p.StockUnit, p.AttributeStocks, p.Image)
		if err != nil {
			log.Printf("Failed to upsert product %s: %v", p.Name, err)
		}
	}
}

func seedRepaymentTiers(db *sql.DB) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM repayment_tiers").Scan(&count); err != nil {
		log.Printf("Failed to count repayment tiers: %v", err)
		return
	}
	if count > 0 {
		fmt.Println("Repayment tiers already present, skipping")
		return
	}

	tiers := []struct {
		Kind     string
		StartDay int
		EndDay   int
		RatePct  float64
		Label    string
		Position int
	}{
		{"discount", 0, 15, 5, "Early Bird", 0},
		{"discount", 16, 30, 2, "Standard", 1},
		{"interest", 45, 60, 2, "Late Fee", 2},
		{"interest", 61, 180, 5, "Extended Late", 3},
	}

	fmt.Println("Seeding Repayment Tiers...")
	for _, t := range tiers {
		_, err := db.Exec(`
			INSERT INTO repayment_tiers (kind, start_day, end_day, rate_pct, label, position)
			VALUES ($1, $2, $3, $4, $5, $6);
		`, t.Kind, t.StartDay, t.EndDay, t.RatePct, t.Label, t.Position)
		if err != nil {
			log.Printf("Failed to seed repayment tier %s: %v", t.Label, err)
		}
	}
}
