package simulation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/bazaarbrain/assistant/internal/model"
)

var digitsRe = regexp.MustCompile(`\d+`)

// Calculate runs the deterministic scenario math over the arbitrated
// parameters. It never fails: bad inputs yield an error record, never a panic
// or a silently guessed scenario.
func Calculate(params model.Record, catalog Catalog) model.Record {
	item := params.String("item")
	product := catalog.Lookup(item)

	switch model.Scenario(params.String("scenario")) {
	case model.ScenarioIncreasePrice:
		return priceIncrease(params, product)
	case model.ScenarioDecreasePrice:
		return priceDecrease(params, product)
	case model.ScenarioBulkOrder:
		return bulkOrder(params, product)
	default:
		return model.Record{
			"scenario":            "unknown",
			"item":                itemOrUnknown(params),
			"error":               "unsupported simulation scenario",
			"supported_scenarios": []any{"increase_price", "decrease_price", "bulk_order"},
			"recommendation":      "Please rephrase your query using supported scenario types",
		}
	}
}

func priceIncrease(params model.Record, p Product) model.Record {
	pct, err := changePercent(params)
	if err != nil {
		return errorRecord(err)
	}

	newPrice := p.Price * (1 + pct/100)
	oldProfitPerUnit := p.Price - p.Cost
	newProfitPerUnit := newPrice - p.Cost

	// Assumed elasticity: sales drop 2% per 1% price increase, floored at 50%.
	salesImpact := math.Max(0.5, 1-pct*0.02)
	newSales := p.WeeklySales * salesImpact

	oldWeeklyProfit := oldProfitPerUnit * p.WeeklySales
	newWeeklyProfit := newProfitPerUnit * newSales

	return model.Record{
		"scenario":              "increase_price",
		"item":                  itemOrUnknown(params),
		"change":                fmt.Sprintf("+%g%%", pct),
		"current_price":         p.Price,
		"new_price":             round2(newPrice),
		"current_weekly_profit": round2(oldWeeklyProfit),
		"new_weekly_profit":     round2(newWeeklyProfit),
		"profit_change":         round2(newWeeklyProfit - oldWeeklyProfit),
		"sales_impact":          fmt.Sprintf("%.1f%%", salesImpact*100),
		"assumptions":           fmt.Sprintf("Sales decrease by %.1f%% with price increase", 100-salesImpact*100),
		"recommendation":        "Consider gradual price increases to minimize sales impact",
	}
}

func priceDecrease(params model.Record, p Product) model.Record {
	pct, err := changePercent(params)
	if err != nil {
		return errorRecord(err)
	}

	newPrice := p.Price * (1 - pct/100)
	oldProfitPerUnit := p.Price - p.Cost
	newProfitPerUnit := newPrice - p.Cost

	// Assumed elasticity: sales rise 3% per 1% price decrease, uncapped.
	salesImpact := 1 + pct*0.03
	newSales := p.WeeklySales * salesImpact

	oldWeeklyProfit := oldProfitPerUnit * p.WeeklySales
	newWeeklyProfit := newProfitPerUnit * newSales

	return model.Record{
		"scenario":              "decrease_price",
		"item":                  itemOrUnknown(params),
		"change":                fmt.Sprintf("-%g%%", pct),
		"current_price":         p.Price,
		"new_price":             round2(newPrice),
		"current_weekly_profit": round2(oldWeeklyProfit),
		"new_weekly_profit":     round2(newWeeklyProfit),
		"profit_change":         round2(newWeeklyProfit - oldWeeklyProfit),
		"sales_impact":          fmt.Sprintf("%.1f%%", salesImpact*100),
		"assumptions":           fmt.Sprintf("Sales increase by %.1f%% with price decrease", salesImpact*100-100),
		"recommendation":        "Monitor profit margins and adjust strategy based on results",
	}
}

func bulkOrder(params model.Record, p Product) model.Record {
	numShops := 10
	if m := digitsRe.FindString(changeField(params)); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			numShops = n
		}
	}

	// 5% discount per 5 shops, capped at 20%.
	discountPct := float64(min(20, (numShops/5)*5))
	bulkPrice := p.Price * (1 - discountPct/100)
	savingsPerUnit := p.Price - bulkPrice

	oldProfitPerUnit := p.Price - p.Cost
	newProfitPerUnit := bulkPrice - p.Cost

	return model.Record{
		"scenario":         "bulk_order",
		"item":             itemOrUnknown(params),
		"num_shops":        numShops,
		"discount":         fmt.Sprintf("%g%%", discountPct),
		"current_price":    p.Price,
		"bulk_price":       round2(bulkPrice),
		"savings_per_unit": round2(savingsPerUnit),
		"weekly_savings":   round2(savingsPerUnit * p.WeeklySales),
		"profit_impact":    round2(newProfitPerUnit - oldProfitPerUnit),
		"revenue":          round2(bulkPrice * p.WeeklySales),
		"profit":           round2(newProfitPerUnit * p.WeeklySales),
		"assumptions":      fmt.Sprintf("Bulk discount of %g%% for %d shops", discountPct, numShops),
		"recommendation":   "Consider forming buying groups for better supplier rates",
	}
}

// changePercent parses the magnitude out of the "change" field, tolerating
// sign and percent decorations ("+5%", "-10 %", "5").
func changePercent(params model.Record) (float64, error) {
	s := changeField(params)
	s = strings.NewReplacer("+", "", "-", "", "%", "", " ", "").Replace(s)
	if s == "" {
		return 0, nil
	}
	pct, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable change value %q", changeField(params))
	}
	return pct, nil
}

// changeField reads "change" whether the backend produced a string or a bare
// number.
func changeField(params model.Record) string {
	switch v := params["change"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

func itemOrUnknown(params model.Record) string {
	if item := params.String("item"); item != "" {
		return item
	}
	return "unknown"
}

func errorRecord(err error) model.Record {
	return model.Record{"error": "simulation failed: " + err.Error()}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
