package kitchen

import "math/rand/v2"

// Ingredient names as the game clients spell them
const (
	Cheese    = "queso"
	Tomato    = "tomate"
	Pepperoni = "pepperoni"
)

var ingredients = [...]string{Cheese, Tomato, Pepperoni}

// Ingredients returns a fresh copy of the ingredient set
func Ingredients() []string {
	out := make([]string, len(ingredients))
	copy(out, ingredients[:])
	return out
}

// RandomOrder returns a uniformly random permutation of the ingredient set.
func RandomOrder(rng *rand.Rand) []string {
	order := Ingredients()
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}
