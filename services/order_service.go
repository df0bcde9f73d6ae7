package services

import (
	"fmt"
	"math"
	"strings"

	"github.com/tablescan/qrorder-app/models"
)

const (
	DefaultTaxRate = 0.08

	MinPrepMinutes = 15
	MaxPrepMinutes = 60

	basePrepMinutes      = 15
	prepPerExtraItem     = 4
	prepPerCustomization = 2
	allergenOverhead     = 5
)

// Round2 rounds to two decimals, half away from zero. Every monetary figure
// stored on an order goes through this.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// OrderItemInput is one requested line of a checkout payload.
type OrderItemInput struct {
	MenuItemID          uint                   `json:"menu_item_id" binding:"required"`
	Quantity            int                    `json:"quantity" binding:"required,min=1"`
	Customizations      []models.Customization `json:"customizations"`
	AvoidAllergens      []string               `json:"avoid_allergens"`
	DietaryPreferences  []string               `json:"dietary_preferences"`
	SpecialInstructions string                 `json:"special_instructions"`
}

// BuildOrderItems resolves requested lines against the fetched menu and
// snapshots name/price/category/allergens. All-or-nothing: any missing or
// unavailable item fails the whole order before anything is persisted.
func BuildOrderItems(inputs []OrderItemInput, menu map[uint]models.MenuItem) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		mi, ok := menu[in.MenuItemID]
		if !ok {
			return nil, fmt.Errorf("menu item %d not found", in.MenuItemID)
		}
		if !mi.Available {
			return nil, fmt.Errorf("menu item %q is not available", mi.Name)
		}

		unit := mi.Price
		for _, cz := range in.Customizations {
			unit += cz.Price
		}

		items = append(items, models.OrderItem{
			MenuItemID:          mi.ID,
			Name:                mi.Name,
			Category:            mi.Category,
			Price:               mi.Price,
			Quantity:            in.Quantity,
			Allergens:           models.StringList(mi.Allergens),
			Customizations:      models.CustomizationList(in.Customizations),
			AvoidAllergens:      models.StringList(in.AvoidAllergens),
			DietaryPreferences:  models.StringList(in.DietaryPreferences),
			SpecialInstructions: strings.TrimSpace(in.SpecialInstructions),
			LineTotal:           Round2(unit * float64(in.Quantity)),
		})
	}
	return items, nil
}

// PriceOrder sums the snapshot lines and applies the restaurant's tax rate.
// total = round(subtotal + round(subtotal*taxRate)).
func PriceOrder(items []models.OrderItem, taxRate float64) (subtotal, tax, total float64) {
	for _, it := range items {
		subtotal += it.LineTotal
	}
	subtotal = Round2(subtotal)
	tax = Round2(subtotal * taxRate)
	total = Round2(subtotal + tax)
	return subtotal, tax, total
}

// EstimatePrepMinutes derives a heuristic kitchen estimate from line count,
// customization count and allergen-handling overhead, clamped to
// [MinPrepMinutes, MaxPrepMinutes].
func EstimatePrepMinutes(items []models.OrderItem) int {
	minutes := basePrepMinutes
	customizations := 0
	allergenHandling := false

	for i, it := range items {
		if i > 0 {
			minutes += prepPerExtraItem
		}
		customizations += len(it.Customizations)
		if len(it.AvoidAllergens) > 0 || len(it.DietaryPreferences) > 0 {
			allergenHandling = true
		}
	}

	minutes += customizations * prepPerCustomization
	if allergenHandling {
		minutes += allergenOverhead
	}

	if minutes < MinPrepMinutes {
		return MinPrepMinutes
	}
	if minutes > MaxPrepMinutes {
		return MaxPrepMinutes
	}
	return minutes
}

// SummarizeAllergens aggregates avoided allergens and dietary preferences
// across all lines. Values are free text; they are lower-cased and de-duped
// but never validated against a vocabulary.
func SummarizeAllergens(items []models.OrderItem) models.AllergenSummary {
	summary := models.AllergenSummary{
		AvoidAllergens:     models.StringList{},
		DietaryPreferences: models.StringList{},
	}
	seenAllergen := make(map[string]bool)
	seenPref := make(map[string]bool)

	for _, it := range items {
		for _, a := range it.AvoidAllergens {
			a = strings.ToLower(strings.TrimSpace(a))
			if a == "" || seenAllergen[a] {
				continue
			}
			seenAllergen[a] = true
			summary.AvoidAllergens = append(summary.AvoidAllergens, a)
		}
		for _, p := range it.DietaryPreferences {
			p = strings.ToLower(strings.TrimSpace(p))
			if p == "" || seenPref[p] {
				continue
			}
			seenPref[p] = true
			summary.DietaryPreferences = append(summary.DietaryPreferences, p)
		}
		if strings.TrimSpace(it.SpecialInstructions) != "" {
			summary.SpecialInstructionCount++
		}
	}
	return summary
}
