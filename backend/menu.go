package main

import (
	"net/http"

	"bistro/internal/models"

	"github.com/gin-gonic/gin"
)

// catalog is the stub's menu. Real deployments serve this from the menu
// service; the stub only needs enough shape to exercise the configurator.
var catalog = map[string]models.MenuItem{
	"item-margherita": {
		ID:          "item-margherita",
		Name:        "Margherita Pizza",
		Description: "Tomato, mozzarella, basil",
		Category:    "pizza",
		BasePrice:   10.00,
		Variations: []models.Variation{
			{ID: "var-regular", Name: "Regular", PriceAdjustment: 0},
			{ID: "var-large", Name: "Large", PriceAdjustment: 1.50},
		},
		OptionGroups: []models.OptionGroup{
			{
				ID: "grp-crust", Name: "Crust", IsRequired: true, MaxSelections: 1, IsActive: true,
				Options: []models.Option{
					{ID: "opt-thin", Name: "Thin", IsActive: true},
					{ID: "opt-thick", Name: "Thick", PriceAdjustment: 0.75, IsActive: true},
				},
			},
			{
				ID: "grp-toppings", Name: "Extra Toppings", MaxSelections: 4, IsActive: true,
				Options: []models.Option{
					{ID: "opt-cheese", Name: "Extra Cheese", PriceAdjustment: 0.50, MaxQuantity: 3, IsActive: true},
					{ID: "opt-olives", Name: "Olives", PriceAdjustment: 0.40, IsActive: true},
					{ID: "opt-mushroom", Name: "Mushrooms", PriceAdjustment: 0.60, IsActive: true},
					{ID: "opt-pepperoni", Name: "Pepperoni", PriceAdjustment: 1.00, MaxQuantity: 2, IsActive: true},
				},
			},
		},
	},
	"item-garlic-bread": {
		ID:          "item-garlic-bread",
		Name:        "Garlic Bread",
		Description: "Free-item offer companion",
		Category:    "sides",
		BasePrice:   4.50,
		OptionGroups: []models.OptionGroup{
			{
				ID: "grp-dip", Name: "Dip", IsRequired: true, MaxSelections: 1, IsActive: true,
				Options: []models.Option{
					{ID: "opt-marinara", Name: "Marinara", IsActive: true},
					{ID: "opt-aioli", Name: "Aioli", PriceAdjustment: 0.30, IsActive: true},
				},
			},
		},
	},
}

// branch carries the operating hours used for slot generation.
var branch = models.Branch{
	ID:          "branch-main",
	Name:        "Bistro Downtown",
	OpeningTime: "09:00",
	ClosingTime: "21:00",
}

// providers the branch can deliver with.
var providers = []string{"doordash", "ubereats"}

// InitializeMenuRoutes configures the read-only catalog endpoints.
func InitializeMenuRoutes(router *gin.RouterGroup) {
	router.GET("/menu/items/:id", GetMenuItem)
	router.GET("/branch", GetBranch)
	router.GET("/providers", GetProviders)
	router.GET("/addresses", GetAddresses)
	router.POST("/addresses", CreateAddress)
}

// GetMenuItem returns the full configuration snapshot for one item.
func GetMenuItem(c *gin.Context) {
	item, ok := catalog[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return
	}
	c.JSON(http.StatusOK, item)
}

// GetBranch returns the branch with its operating hours.
func GetBranch(c *gin.Context) {
	c.JSON(http.StatusOK, branch)
}

// GetProviders lists the delivery providers available for the branch.
func GetProviders(c *gin.Context) {
	c.JSON(http.StatusOK, providers)
}

// GetAddresses lists the customer's saved addresses.
func GetAddresses(c *gin.Context) {
	var rows []SavedAddress
	GetDB().Find(&rows)
	out := make([]models.Address, 0, len(rows))
	for _, row := range rows {
		out = append(out, toAddress(row))
	}
	c.JSON(http.StatusOK, out)
}

// CreateAddress saves a new address and returns it with its assigned id.
func CreateAddress(c *gin.Context) {
	var addr models.Address
	if err := c.ShouldBindJSON(&addr); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	row := SavedAddress{
		AddressID: newID("addr"),
		Name:      addr.Name,
		Street:    addr.Street,
		City:      addr.City,
		ZipCode:   addr.ZipCode,
		Phone:     addr.Phone,
	}
	if err := GetDB().Create(&row).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, toAddress(row))
}

func toAddress(row SavedAddress) models.Address {
	return models.Address{
		ID:      row.AddressID,
		Name:    row.Name,
		Street:  row.Street,
		City:    row.City,
		ZipCode: row.ZipCode,
		Phone:   row.Phone,
	}
}
