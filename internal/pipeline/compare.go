package pipeline

import (
	"sort"

	"github.com/theirongolddev/mfgdash/internal/model"

	"github.com/shopspring/decimal"
)

// AggregateProducts sums each product column over current and computes its
// share of the product total. previous, when non-empty, sets TrendDirection.
func AggregateProducts(feed *model.Feed, current, previous []model.Record) []model.ProductShare {
	products := feed.Products()
	cur := sumColumns(products, current)
	prev := sumColumns(products, previous)

	grand := decimal.Zero
	for _, p := range products {
		grand = grand.Add(cur[p])
	}

	shares := make([]model.ProductShare, 0, len(products))
	for _, p := range products {
		ps := model.ProductShare{Product: p, Sum: cur[p].InexactFloat64()}
		if grand.IsPositive() {
			ps.SharePercent = cur[p].Div(grand).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		if len(previous) > 0 {
			ps.TrendDirection = cur[p].Cmp(prev[p])
		}
		shares = append(shares, ps)
	}

	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Sum > shares[j].Sum
	})
	return shares
}

func sumColumns(columns []string, records []model.Record) map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal, len(columns))
	for _, c := range columns {
		sums[c] = decimal.Zero
	}
	for _, r := range records {
		for _, c := range columns {
			if v, ok := r.Lookup(c); ok {
				sums[c] = sums[c].Add(decimal.NewFromFloat(v))
			}
		}
	}
	return sums
}
