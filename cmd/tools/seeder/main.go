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

	seedCatalog(db)
	seedCustomers(db)
	seedDeliveryOptions(db)

	log.Println("Seeding completed successfully!")
}

func seedCatalog(db *sql.DB) {
	categories := []string{"Phones", "Laptops", "Tablets", "Accessories", "Spare Parts", "Audio"}
	fmt.Println("Seeding Categories...")
	for _, name := range categories {
		if _, err := db.Exec(`
			INSERT INTO categories (name) VALUES ($1)
			ON CONFLICT (name) DO NOTHING;
		`, name); err != nil {
			log.Printf("Failed to seed category %s: %v", name, err)
		}
	}

	brands := []string{"Apple", "Samsung", "Tecno", "Infinix", "Xiaomi", "HP", "Dell", "Lenovo"}
	fmt.Println("Seeding Brands...")
	for _, name := range brands {
		if _, err := db.Exec(`
			INSERT INTO brands (name) VALUES ($1)
			ON CONFLICT (name) DO NOTHING;
		`, name); err != nil {
			log.Printf("Failed to seed brand %s: %v", name, err)
		}
	}

	products := []struct {
		Name         string
		SKU          string
		Variant      string
		Brand        string
		Category     string
		CostPrice    int64
		SellingPrice int64
		Stock        int
	}{
		{"iPhone 13", "APL-IP13-128", "128GB Midnight", "Apple", "Phones", 85000000, 110000000, 12},
		{"iPhone 13", "APL-IP13-256", "256GB Starlight", "Apple", "Phones", 95000000, 125000000, 7},
		{"Galaxy A54", "SMS-A54-128", "128GB Black", "Samsung", "Phones", 55000000, 72000000, 20},
		{"Spark 10 Pro", "TCN-SP10-128", "128GB White", "Tecno", "Phones", 28000000, 38000000, 35},
		{"Hot 30", "INF-H30-128", "128GB Blue", "Infinix", "Phones", 25000000, 34000000, 28},
		{"Redmi Note 12", "XMI-RN12-128", "128GB Gray", "Xiaomi", "Phones", 32000000, 43000000, 18},
		{"Pavilion 15", "HP-PAV15-512", "i5 512GB", "HP", "Laptops", 120000000, 155000000, 5},
		{"Latitude 5420", "DEL-LAT5420", "i7 256GB", "Dell", "Laptops", 140000000, 180000000, 4},
		{"IdeaPad 3", "LEN-IP3-256", "Ryzen 5 256GB", "Lenovo", "Laptops", 95000000, 125000000, 9},
		{"Galaxy Tab A8", "SMS-TABA8-64", "64GB Gray", "Samsung", "Tablets", 42000000, 56000000, 11},
		{"AirPods Pro", "APL-APP-2", "2nd Gen", "Apple", "Audio", 45000000, 62000000, 16},
		{"USB-C Charger", "GEN-USBC-20W", "20W", "", "Accessories", 1500000, 3500000, 120},
		{"Tempered Glass", "GEN-TG-UNI", "Universal 6.1in", "", "Accessories", 300000, 1500000, 200},
		{"iPhone 13 Screen", "APL-IP13-SCR", "OEM", "Apple", "Spare Parts", 18000000, 28000000, 6},
	}
	fmt.Println("Seeding Products...")
	for _, p := range products {
		if _, err := db.Exec(`
			INSERT INTO products (name, sku, variant, brand, category, cost_price, selling_price, stock)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (sku) DO UPDATE SET
				cost_price = EXCLUDED.cost_price,
				selling_price = EXCLUDED.selling_price,
				stock = EXCLUDED.stock;
		`, p.Name, p.SKU, p.Variant, p.Brand, p.Category, p.CostPrice, p.SellingPrice, p.Stock); err != nil {
			log.Printf("Failed to seed product %s: %v", p.SKU, err)
		}
	}
}

func seedCustomers(db *sql.DB) {
	customers := []struct {
		Name    string
		Phone   string
		Email   string
		City    string
		Loyalty string
	}{
		{"Amina Hassan", "+255712000001", "amina@example.com", "Dar es Salaam", "gold"},
		{"Juma Mwinyi", "+255712000002", "juma@example.com", "Dar es Salaam", "silver"},
		{"Neema Joseph", "+255712000003", "neema@example.com", "Arusha", "bronze"},
		{"Baraka Said", "+255712000004", "baraka@example.com", "Mwanza", "bronze"},
		{"Zainab Ali", "+255712000005", "zainab@example.com", "Dodoma", "platinum"},
		{"Emmanuel Peter", "+255712000006", "emmanuel@example.com", "Mbeya", "silver"},
		{"Fatma Omari", "+255712000007", "fatma@example.com", "Zanzibar", "gold"},
		{"David Michael", "+255712000008", "david@example.com", "Arusha", "bronze"},
	}

	fmt.Println("Seeding Customers...")
	for _, c := range customers {
		if _, err := db.Exec(`
			INSERT INTO customers (name, phone, email, city, loyalty_level)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (phone) DO NOTHING;
		`, c.Name, c.Phone, c.Email, c.City, c.Loyalty); err != nil {
			log.Printf("Failed to seed customer %s: %v", c.Phone, err)
		}
	}
}

func seedDeliveryOptions(db *sql.DB) {
	options := []struct {
		Method string
		Label  string
		Fee    int64
	}{
		{"pickup", "Store Pickup", 0},
		{"local_transport", "Local Transport", 500},
		{"air_cargo", "Air Cargo", 500},
		{"bus_cargo", "Bus Cargo", 500},
	}

	fmt.Println("Seeding Delivery Options...")
	for _, o := range options {
		if _, err := db.Exec(`
			INSERT INTO delivery_options (method, label, fee)
			VALUES ($1, $2, $3)
			ON CONFLICT (method) DO UPDATE SET label = EXCLUDED.label, fee = EXCLUDED.fee;
		`, o.Method, o.Label, o.Fee); err != nil {
			log.Printf("Failed to seed delivery option %s: %v", o.Method, err)
		}
	}
}
