package models

import "fmt"

// MenuItem represents a configurable dish on the menu. It is an immutable
// snapshot fetched from the backend for one configuration session.
type MenuItem struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Category     string        `json:"category"`
	BasePrice    float64       `json:"base_price"`
	Variations   []Variation   `json:"variations"`
	OptionGroups []OptionGroup `json:"option_groups"`
}

// Variation is a single-select alternative form of an item (e.g. size).
// Its price adjustment is additive to the item's base price.
type Variation struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	PriceAdjustment float64 `json:"price_adjustment"`
}

// OptionGroup is a named set of related options with cardinality rules.
type OptionGroup struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	IsRequired    bool     `json:"is_required"`
	MinSelections int      `json:"min_selections"`
	MaxSelections int      `json:"max_selections"` // 0 = unbounded
	IsActive      bool     `json:"is_active"`
	Options       []Option `json:"options"`
}

// Option is one selectable entry in an option group. When MaxQuantity is
// greater than 1 the option acts as a per-unit stepper and contributes
// PriceAdjustment times the chosen quantity.
type Option struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	PriceAdjustment float64 `json:"price_adjustment"`
	IsActive        bool    `json:"is_active"`
	MinQuantity     int     `json:"min_quantity"`
	MaxQuantity     int     `json:"max_quantity"`
}

// IsRadio reports whether the group enforces exclusive selection.
func (g *OptionGroup) IsRadio() bool {
	return g.MaxSelections == 1
}

// EffectiveMin returns the minimum distinct-option count the group demands.
// A required group demands at least one selection regardless of MinSelections.
func (g *OptionGroup) EffectiveMin() int {
	if g.IsRequired && g.MinSelections < 1 {
		return 1
	}
	return g.MinSelections
}

// EffectiveMaxQuantity returns the per-option quantity cap, defaulting to 1.
func (o *Option) EffectiveMaxQuantity() int {
	if o.MaxQuantity <= 0 {
		return 1
	}
	return o.MaxQuantity
}

// FindVariation returns the variation with the given id, or nil.
func (mi *MenuItem) FindVariation(id string) *Variation {
	for i := range mi.Variations {
		if mi.Variations[i].ID == id {
			return &mi.Variations[i]
		}
	}
	return nil
}

// FindGroup returns the option group with the given id, or nil.
func (mi *MenuItem) FindGroup(id string) *OptionGroup {
	for i := range mi.OptionGroups {
		if mi.OptionGroups[i].ID == id {
			return &mi.OptionGroups[i]
		}
	}
	return nil
}

// FindOption returns the option with the given id, or nil.
func (g *OptionGroup) FindOption(id string) *Option {
	for i := range g.Options {
		if g.Options[i].ID == id {
			return &g.Options[i]
		}
	}
	return nil
}

// DefaultVariationID returns the pre-selected variation for the item: the
// first declared variation when the item defines any, otherwise empty.
func (mi *MenuItem) DefaultVariationID() string {
	if len(mi.Variations) == 0 {
		return ""
	}
	return mi.Variations[0].ID
}

// ValidateMenuItem checks structural sanity of a fetched item snapshot.
func ValidateMenuItem(item *MenuItem) error {
	if item.ID == "" {
		return fmt.Errorf("menu item id is required")
	}
	if item.Name == "" {
		return fmt.Errorf("menu item name is required")
	}
	if item.BasePrice < 0 {
		return fmt.Errorf("menu item base price must not be negative")
	}
	for _, g := range item.OptionGroups {
		if g.ID == "" {
			return fmt.Errorf("option group in item %s has no id", item.ID)
		}
		for _, o := range g.Options {
			if o.ID == "" {
				return fmt.Errorf("option in group %s has no id", g.ID)
			}
		}
	}
	return nil
}
