package normalize

import (
	"nytbestsellers/lib/textutil"

	"github.com/antzucaro/matchr"
)

// TitleMatchThreshold is the similarity under which a catalog title and a
// product page title are considered to describe different books.
const TitleMatchThreshold = 0.7

// TitleSimilarity compares two titles after normalization, 1 is identical.
func TitleSimilarity(a, b string) float64 {
	a = textutil.NormalizeTitle(a)
	b = textutil.NormalizeTitle(b)
	if a == "" || b == "" {
		return 0
	}
	return matchr.JaroWinkler(a, b, false)
}
