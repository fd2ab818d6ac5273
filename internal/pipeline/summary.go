package pipeline

import (
	"context"
	"fmt"
	"strconv"
)

// summaryStage reduces the accumulated state to the final nested summary
// record and a one-line human-readable message.
func (o *Optimizer) summaryStage(ctx context.Context, s State) State {
	if err := require(s, StageSummary,
		KeyProductID, KeyDemandForecast, KeyOptimizedPrice, KeyAvgDailyDemand, KeyReorderPoint,
	); err != nil {
		return errState(err)
	}

	forecast, _ := s.Str(KeyDemandForecast)
	price, _ := s.Float(KeyOptimizedPrice)
	action, _ := s.Str(KeyAction)

	inventory := map[string]any{
		"avg_daily_demand":      s[KeyAvgDailyDemand],
		"safety_stock":          s[KeySafetyStock],
		"reorder_point":         s[KeyReorderPoint],
		"current_stock":         s[KeyCurrentStock],
		"action":                action,
		"suggested_reorder_qty": s[KeyReorderQty],
	}

	actionDetail := "Monitor stock"
	if action == ActionReorder {
		qty, _ := s.Float(KeyReorderQty)
		actionDetail = fmt.Sprintf("Reorder %s units", strconv.FormatFloat(qty, 'f', 0, 64))
	}

	message := fmt.Sprintf(
		"Product %v → Demand is %s. Recommended price: %s. Inventory action: %s (%s)",
		s[KeyProductID], forecast, strconv.FormatFloat(price, 'f', 2, 64), action, actionDetail,
	)

	return State{
		KeyFinalSummary: map[string]any{
			"product_id":      s[KeyProductID],
			"demand_forecast": forecast,
			"optimized_price": price,
			"inventory":       inventory,
		},
		KeyMessage: message,
	}
}
