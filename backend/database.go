package main

import (
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

var db *gorm.DB

// Checkout is the server-owned checkout aggregate.
type Checkout struct {
	gorm.Model
	OrderID        string `gorm:"unique_index"`
	Status         string
	Mode           string
	PickupTime     *time.Time
	AddressID      string
	QuoteCreated   bool
	Provider       string
	DeliveryFee    float64
	Tip            float64
	Discount       float64
	PaymentMethod  string
	AppliedOffer   string
	RestaurantNote string
	DeliveryNote   string
	Items          []CheckoutItem `gorm:"foreignkey:CheckoutID"`
}

// CheckoutItem is one configured cart line of a checkout.
type CheckoutItem struct {
	gorm.Model
	CheckoutID  uint
	ItemID      string
	MenuItemID  string
	Name        string
	VariationID string
	OptionsJSON string // serialized []models.CartItemOption
	Quantity    int
	UnitPrice   float64
	IsFreeItem  bool
}

// SavedAddress is a customer's saved delivery destination.
type SavedAddress struct {
	gorm.Model
	AddressID string `gorm:"unique_index"`
	Name      string
	Street    string
	City      string
	ZipCode   string
	Phone     string
}

// InitDB initializes the database connection
func InitDB(dbPath string) error {
	var err error
	db, err = gorm.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	db.DB().SetMaxIdleConns(10)
	db.DB().SetMaxOpenConns(100)
	db.DB().SetConnMaxLifetime(time.Hour)

	return nil
}

// InitializeDatabase creates the schema and seeds default data.
func InitializeDatabase() {
	db.AutoMigrate(
		&Checkout{},
		&CheckoutItem{},
		&SavedAddress{},
	)
	seedDefaultData(db)
}

// seedDefaultData ensures essential data exists in the database
func seedDefaultData(db *gorm.DB) {
	var addressCount int64
	db.Model(&SavedAddress{}).Count(&addressCount)
	if addressCount == 0 {
		defaults := []SavedAddress{
			{AddressID: "addr-home", Name: "Home", Street: "12 Elm Street", City: "Springfield", ZipCode: "62701", Phone: "+1 555 0100"},
			{AddressID: "addr-office", Name: "Office", Street: "400 Commerce Ave", City: "Springfield", ZipCode: "62702", Phone: "+1 555 0101"},
		}
		for _, addr := range defaults {
			db.Create(&addr)
		}
	}

	var checkoutCount int64
	db.Model(&Checkout{}).Count(&checkoutCount)
	if checkoutCount == 0 {
		checkout := Checkout{
			OrderID: "order-demo",
			Status:  "open",
			Items: []CheckoutItem{
				{ItemID: "line-1", MenuItemID: "item-margherita", Name: "Margherita Pizza", Quantity: 1, UnitPrice: 12.50},
			},
		}
		db.Create(&checkout)
	}
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return db
}

// CloseDB closes the database connection
func CloseDB() error {
	if db != nil {
		return db.Close()
	}
	return nil
}
