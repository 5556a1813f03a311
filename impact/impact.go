package impact

import "math"

// Fixed conversion factors: 1 kg food waste ≈ 3.3 kg CO2, one tree absorbs ≈ 21.77 kg CO2/year
const (
	CO2PerKgFoodWaste = 3.3
	CO2PerTreeKg      = 21.77
)

// Projection is the derived environmental view of cumulative counters
type Projection struct {
	MealsSaved       int     `json:"total_meals_saved"`
	FoodWasteSavedKg float64 `json:"food_waste_saved_kg"`
	CO2SavedKg       float64 `json:"co2_saved_kg"`
	EquivalentTrees  float64 `json:"equivalent_trees"`
}

func CO2Saved(foodWasteKg float64) float64 {
	return foodWasteKg * CO2PerKgFoodWaste
}

// EquivalentTrees rounds to one decimal place
func EquivalentTrees(co2Kg float64) float64 {
	return math.Round(co2Kg/CO2PerTreeKg*10) / 10
}

// Project derives CO2 and tree equivalents from meals and food waste saved.
// Used for both restaurants and user profiles.
func Project(mealsSaved int, foodWasteKg float64) Projection {
	co2 := CO2Saved(foodWasteKg)
	return Projection{
		MealsSaved:       mealsSaved,
		FoodWasteSavedKg: foodWasteKg,
		CO2SavedKg:       co2,
		EquivalentTrees:  EquivalentTrees(co2),
	}
}

// GramsToKg converts a bag's estimated weight to the kg counters
func GramsToKg(grams int) float64 {
	return float64(grams) / 1000
}
