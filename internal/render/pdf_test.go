package render

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/pageza/mealplango/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePlan(days, groceries int) *types.MealPlan {
	plan := &types.MealPlan{}
	for i := 0; i < days; i++ {
		meal := func(slot string) types.Meal {
			return types.Meal{
				Dish:            fmt.Sprintf("%s dish %d", slot, i+1),
				CookingDuration: "20 minutes",
				Ingredients:     []string{"rice", "peas"},
				Recipe:          []string{"Rinse the rice", "Cook until tender"},
			}
		}
		plan.Meals = append(plan.Meals, types.DayPlan{
			Breakfast: meal("Breakfast"),
			Lunch:     meal("Lunch"),
			Dinner:    meal("Dinner"),
		})
	}
	for i := 0; i < groceries; i++ {
		plan.GroceryList = append(plan.GroceryList, types.GroceryItem{
			Ingredient: fmt.Sprintf("item%02d", i+1),
			Quantity:   "100 g",
		})
	}
	return plan
}

func renderPlain(t *testing.T, plan *types.MealPlan, opts types.RenderOptions) []byte {
	t.Helper()
	r := &PDFRenderer{compress: false}
	out, err := r.Render(plan, opts)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	return out
}

func TestRenderFullPlan(t *testing.T) {
	out := renderPlain(t, samplePlan(7, 12), types.RenderOptions{PeopleCount: 3})

	assert.Contains(t, string(out), "7-Day Meal Plan")
	assert.Contains(t, string(out), "This plan is for 3 person")
	assert.Contains(t, string(out), "Dinner dish 7")
	assert.Contains(t, string(out), "item12")
	assert.NotContains(t, string(out), "Sign in to view")
}

func TestRenderPreviewTruncates(t *testing.T) {
	out := renderPlain(t, samplePlan(7, 12), types.RenderOptions{PeopleCount: 2, Preview: true})

	assert.Contains(t, string(out), "Breakfast dish 1")
	assert.Contains(t, string(out), "Dinner dish 2")
	assert.NotContains(t, string(out), "Breakfast dish 3")
	assert.Contains(t, string(out), "Day 7")
	assert.Contains(t, string(out), "Sign in to view the full plan for this day.")

	assert.Contains(t, string(out), "item08")
	assert.NotContains(t, string(out), "item09")
	assert.Contains(t, string(out), "Sign in to view the full grocery list")
}

func TestRenderPreviewShortGroceryList(t *testing.T) {
	out := renderPlain(t, samplePlan(2, 5), types.RenderOptions{Preview: true})

	assert.Contains(t, string(out), "This plan is for 1 person")
	assert.NotContains(t, string(out), "Sign in to view")
}

func TestRenderNilPlan(t *testing.T) {
	_, err := NewPDFRenderer().Render(nil, types.RenderOptions{})
	assert.Error(t, err)
}

func TestRenderCompressed(t *testing.T) {
	out, err := NewPDFRenderer().Render(samplePlan(7, 20), types.RenderOptions{PeopleCount: 4})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}
