package catalog

import (
	"math"
	"sort"
	"strings"

	"github.com/wichananm65/jewel-shop-backend/internal/product"
)

type SortKey string

const (
	SortWeight     SortKey = "weight"
	SortWeightDesc SortKey = "weight-desc"
	SortName       SortKey = "name"
	SortNameDesc   SortKey = "name-desc"
)

// Filter narrows a product list by weight in grams. Nil bounds are open.
type Filter struct {
	MinWeight *float64
	MaxWeight *float64
	Sort      SortKey
}

// FilterAndSort keeps products whose parsed weight lies in [min, max] and
// orders them by the sort key. Unknown keys sort by weight ascending. Name
// comparison is byte-wise, so upper case sorts before lower case. The input
// slice is not modified.
func FilterAndSort(products []product.Product, f Filter) []product.Product {
	lo, hi := 0.0, math.Inf(1)
	if f.MinWeight != nil {
		lo = *f.MinWeight
	}
	if f.MaxWeight != nil {
		hi = *f.MaxWeight
	}

	out := make([]product.Product, 0, len(products))
	for _, p := range products {
		w := p.WeightGrams()
		if w >= lo && w <= hi {
			out = append(out, p)
		}
	}

	var less func(a, b product.Product) bool
	switch f.Sort {
	case SortWeightDesc:
		less = func(a, b product.Product) bool { return a.WeightGrams() > b.WeightGrams() }
	case SortName:
		less = func(a, b product.Product) bool { return strings.Compare(a.Name, b.Name) < 0 }
	case SortNameDesc:
		less = func(a, b product.Product) bool { return strings.Compare(a.Name, b.Name) > 0 }
	default:
		less = func(a, b product.Product) bool { return a.WeightGrams() < b.WeightGrams() }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
