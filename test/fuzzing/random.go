package fuzzing

import (
	"fmt"
	"math/rand/v2"
)

// RandomSwitch returns a function that will output various integers at different weights.
//
// Ex. RandomSwitch(2, 3, 5) will return a function that will output:
//   - `0` 20% of the time
//   - `1` 30% of the time
//   - `2` 50% of the time
func RandomSwitch(weights ...int) func(rndm *rand.Rand) int {
	if len(weights) == 0 {
		panic("a random switch must have at least 1 probability")
	}

	var sum int
	for _, p := range weights {
		if p <= 0 {
			panic("weights must be positive")
		}
		sum += p
	}

	return func(rndm *rand.Rand) int {
		value := rndm.IntN(sum)

		threshold := 0
		for i, w := range weights {
			threshold += w
			if value < threshold {
				return i
			}
		}
		panic(fmt.Sprintf("random value generated was out of bounds: %d", value))
	}
}

const asinChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomASIN(rndm *rand.Rand) string {
	out := make([]byte, 10)
	for i := range out {
		out[i] = asinChars[rndm.IntN(len(asinChars))]
	}
	return string(out)
}

func pick[T any](rndm *rand.Rand, values []T) T {
	return values[rndm.IntN(len(values))]
}
