package pipeline

import (
	"math"

	"github.com/synapse-data/product.intel/internal/units"
)

// Inventory actions, tiered by how far current stock sits below or above
// the reorder point.
const (
	ActionReorder = "Reorder"
	ActionMonitor = "Monitor Closely"
	ActionHold    = "Hold"
)

// Inputs are the fields the inventory policy reads from a feature record.
// Callers default each to 0 when missing or non-numeric, except
// WarehouseCapacity which defaults to +Inf (no capacity bound).
type Inputs struct {
	StockLevels         float64
	LeadTimeDays        float64
	StockoutFreq        float64
	WarehouseCapacity   float64
	FulfillmentTimeDays float64
	SalesVolume         float64
}

// Decision is the reorder recommendation derived from Inputs and the demand
// forecast. AvgDailyDemand, SafetyStock and ReorderPoint carry two-decimal
// rounding, SuggestedReorderQty is a whole number of units, and CurrentStock
// is the raw stock level.
type Decision struct {
	AvgDailyDemand      float64
	SafetyStock         float64
	ReorderPoint        float64
	CurrentStock        float64
	Action              string
	SuggestedReorderQty float64
}

// Plan computes the reorder decision. The arithmetic is the numeric contract
// of the service:
//
//	avg_daily_demand = sales_volume / 30
//	ss_multiplier    = 0.20 + 0.02*clip(stockout_freq, 0, 30)  [+0.20 if increasing]
//	risk_window      = max(0, lead_time + fulfillment_time)
//	safety_stock     = avg_daily_demand * ss_multiplier * max(1, risk_window)
//	reorder_point    = avg_daily_demand * max(1, lead_time) + safety_stock
//
// Reorder below the reorder point, Monitor Closely within 10% above it, Hold
// otherwise. The suggested quantity is clipped to the free warehouse
// capacity. Negative stockout frequencies are clipped, not rejected: the
// clip bounds are part of the contract even for questionable inputs.
func Plan(in Inputs, demandForecast string) Decision {
	avgDailyDemand := in.SalesVolume / 30

	sf := clip(in.StockoutFreq, 0, 30)
	baseMultiplier := 0.20 + 0.02*sf
	trendBump := 0.0
	if demandForecast == ForecastIncreasing {
		trendBump = 0.20
	}
	ssMultiplier := baseMultiplier + trendBump
	riskWindow := math.Max(0, in.LeadTimeDays+in.FulfillmentTimeDays)

	safetyStock := avgDailyDemand * ssMultiplier * math.Max(1, riskWindow)
	reorderPoint := avgDailyDemand*math.Max(1, in.LeadTimeDays) + safetyStock

	var action string
	var reorderQty float64
	switch {
	case in.StockLevels < reorderPoint:
		action = ActionReorder
		reorderQty = reorderPoint - in.StockLevels
	case in.StockLevels < reorderPoint*1.1:
		action = ActionMonitor
		reorderQty = math.Max(0, reorderPoint-in.StockLevels)
	default:
		action = ActionHold
		reorderQty = 0
	}

	maxAdditional := math.Inf(1)
	if !math.IsInf(in.WarehouseCapacity, 1) {
		maxAdditional = math.Max(0, in.WarehouseCapacity-in.StockLevels)
	}
	reorderQty = clip(reorderQty, 0, maxAdditional)

	return Decision{
		AvgDailyDemand:      units.Round2(avgDailyDemand),
		SafetyStock:         units.Round2(safetyStock),
		ReorderPoint:        units.Round2(reorderPoint),
		CurrentStock:        in.StockLevels,
		Action:              action,
		SuggestedReorderQty: units.Round0(reorderQty),
	}
}

func clip(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
