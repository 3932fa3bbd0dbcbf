package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Meal is a single dish within a day.
type Meal struct {
	Dish            string   `json:"dish"`
	CookingDuration string   `json:"cookingDuration"`
	Ingredients     []string `json:"ingredients"`
	Recipe          []string `json:"recipe"`
}

// DayPlan holds the three meals of one day.
type DayPlan struct {
	Breakfast Meal `json:"breakfast"`
	Lunch     Meal `json:"lunch"`
	Dinner    Meal `json:"dinner"`
}

// Slots returns the day's meals in serving order.
func (d DayPlan) Slots() []NamedMeal {
	return []NamedMeal{
		{Slot: "Breakfast", Meal: d.Breakfast},
		{Slot: "Lunch", Meal: d.Lunch},
		{Slot: "Dinner", Meal: d.Dinner},
	}
}

// NamedMeal pairs a meal with its slot label.
type NamedMeal struct {
	Slot string
	Meal Meal
}

// GroceryItem is one line of the shopping list.
type GroceryItem struct {
	Ingredient string `json:"ingredient"`
	Quantity   string `json:"quantity"`
}

// MealPlan is the structured plan returned by the language model.
type MealPlan struct {
	Meals       []DayPlan     `json:"meals"`
	GroceryList []GroceryItem `json:"groceryList"`
}

// PlanPreferences are the user's generation parameters.
type PlanPreferences struct {
	DietPreference string
	PeopleCount    int
	Cuisine        string
	AdditionalNote string
}

// PeopleCount accepts both numbers and numeric strings.
type PeopleCount int

func (p *PeopleCount) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*p = PeopleCount(int(num))
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		str = strings.TrimSpace(str)
		if str == "" {
			*p = 0
			return nil
		}
		n, err := strconv.Atoi(str)
		if err != nil {
			return fmt.Errorf("invalid people_count %q", str)
		}
		*p = PeopleCount(n)
		return nil
	}

	return fmt.Errorf("invalid people_count format")
}

// RenderOptions controls how a plan document is laid out.
type RenderOptions struct {
	PeopleCount int
	// Preview truncates the document for callers on a free trial.
	Preview bool
}
