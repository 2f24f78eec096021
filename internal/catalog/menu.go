package catalog

import (
	"github.com/angelmondragon/foodyzone-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// DefaultMenu is the storefront's static menu.
func DefaultMenu() []MenuItem {
	return []MenuItem{
		{
			ID:          "1",
			Title:       "Bolded Eggs",
			Description: "Fresh eggs with special seasoning, perfectly boiled.",
			Category:    enums.ProductCategoryBreakfast,
			Price:       price("12.99"),
			Popular:     true,
			Vegetarian:  true,
			PrepTime:    "15 min",
		},
		{
			ID:          "2",
			Title:       "RAMEN",
			Description: "Japanese ramen with rich broth and fresh noodles.",
			Category:    enums.ProductCategoryMain,
			Price:       price("14.99"),
			Popular:     true,
			SpicyLevel:  3,
			PrepTime:    "20 min",
		},
		{
			ID:          "3",
			Title:       "GRILLED CHICKEN",
			Description: "Chicken grilled with herbs and spices.",
			Category:    enums.ProductCategoryMain,
			Price:       price("16.99"),
			SpicyLevel:  1,
			PrepTime:    "25 min",
		},
		{
			ID:            "4",
			Title:         "SIS50 COMBO",
			Description:   "Meal combo at half price.",
			Category:      enums.ProductCategoryDeal,
			DealCode:      "SIS50",
			OriginalPrice: price("29.99"),
			Popular:       true,
		},
		{
			ID:          "5",
			Title:       "CHOCO CAKE",
			Description: "Chocolate cake with ganache topping.",
			Category:    enums.ProductCategoryDessert,
			Price:       price("8.99"),
			Popular:     true,
			Vegetarian:  true,
			PrepTime:    "10 min",
		},
		{
			ID:          "6",
			Title:       "MEGA BURGER",
			Description: "Double patty burger with cheese and special sauce.",
			Category:    enums.ProductCategoryMain,
			Price:       price("13.99"),
			SpicyLevel:  2,
			PrepTime:    "18 min",
		},
		{
			ID:          "7",
			Title:       "VEGAN BOWL",
			Description: "Vegetables with quinoa and tahini dressing.",
			Category:    enums.ProductCategoryMain,
			Price:       price("11.99"),
			Vegetarian:  true,
			PrepTime:    "15 min",
		},
		{
			ID:          "8",
			Title:       "SMOOTHIE BLAST",
			Description: "Mixed berry smoothie with protein boost.",
			Category:    enums.ProductCategoryBeverage,
			Price:       price("6.99"),
			Popular:     true,
			Vegetarian:  true,
			PrepTime:    "5 min",
		},
	}
}
