package pipeline

import (
	"math"
	"testing"
)

func TestPlanReferenceScenario(t *testing.T) {
	// sales 300/30 = 10/day, sf 3 → multiplier 0.26 (+0.20 increasing),
	// risk window 5+2=7 → safety 10*0.46*7 = 32.2, RP 10*5+32.2 = 82.2,
	// stock 40 < RP → Reorder round(42.2) = 42.
	in := Inputs{
		StockLevels:         40,
		LeadTimeDays:        5,
		StockoutFreq:        3,
		WarehouseCapacity:   1000,
		FulfillmentTimeDays: 2,
		SalesVolume:         300,
	}
	d := Plan(in, ForecastIncreasing)

	if got, want := d.AvgDailyDemand, 10.0; got != want {
		t.Errorf("AvgDailyDemand = %v, want %v", got, want)
	}
	if got, want := d.SafetyStock, 32.2; got != want {
		t.Errorf("SafetyStock = %v, want %v", got, want)
	}
	if got, want := d.ReorderPoint, 82.2; got != want {
		t.Errorf("ReorderPoint = %v, want %v", got, want)
	}
	if got, want := d.CurrentStock, 40.0; got != want {
		t.Errorf("CurrentStock = %v, want %v", got, want)
	}
	if got, want := d.Action, ActionReorder; got != want {
		t.Errorf("Action = %q, want %q", got, want)
	}
	if got, want := d.SuggestedReorderQty, 42.0; got != want {
		t.Errorf("SuggestedReorderQty = %v, want %v", got, want)
	}
}

func TestPlanActionTiers(t *testing.T) {
	// avg 10/day, sf 0 → multiplier 0.20, risk window 0 → safety 10*0.2*1 = 2,
	// RP = 10*1+2 = 12, monitor band up to 13.2.
	base := Inputs{
		SalesVolume:       300,
		WarehouseCapacity: math.Inf(1),
	}

	tests := []struct {
		name       string
		stock      float64
		wantAction string
		wantQty    float64
	}{
		{"below reorder point", 5, ActionReorder, 7},
		{"just below reorder point", 11.9, ActionReorder, 0}, // 0.1 rounds to 0
		{"within monitor band", 12.5, ActionMonitor, 0},
		{"above monitor band", 13.5, ActionHold, 0},
		{"well stocked", 100, ActionHold, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			in.StockLevels = tt.stock
			d := Plan(in, ForecastDecreasing)
			if d.Action != tt.wantAction {
				t.Errorf("Plan(stock=%v).Action = %q, want %q", tt.stock, d.Action, tt.wantAction)
			}
			if d.SuggestedReorderQty != tt.wantQty {
				t.Errorf("Plan(stock=%v).SuggestedReorderQty = %v, want %v", tt.stock, d.SuggestedReorderQty, tt.wantQty)
			}
		})
	}
}

func TestPlanCapacityBound(t *testing.T) {
	in := Inputs{
		StockLevels:       10,
		LeadTimeDays:      10,
		StockoutFreq:      30,
		WarehouseCapacity: 25,
		SalesVolume:       600, // avg 20/day, RP well above capacity
	}
	d := Plan(in, ForecastIncreasing)

	if d.Action != ActionReorder {
		t.Fatalf("Action = %q, want %q", d.Action, ActionReorder)
	}
	// Free capacity is 25-10 = 15; the suggested quantity may never exceed it.
	if got, want := d.SuggestedReorderQty, 15.0; got != want {
		t.Errorf("SuggestedReorderQty = %v, want %v (free capacity)", got, want)
	}
}

func TestPlanCapacityBelowStock(t *testing.T) {
	// Stock already exceeds capacity: no additional units may be ordered.
	in := Inputs{
		StockLevels:       50,
		LeadTimeDays:      5,
		WarehouseCapacity: 30,
		SalesVolume:       3000,
	}
	d := Plan(in, ForecastIncreasing)
	if d.SuggestedReorderQty != 0 {
		t.Errorf("SuggestedReorderQty = %v, want 0", d.SuggestedReorderQty)
	}
}

func TestPlanStockoutFreqClipped(t *testing.T) {
	// Negative frequencies clip to 0 and large ones to 30; both must produce
	// the same multipliers as the boundary values.
	low := Plan(Inputs{SalesVolume: 300, StockoutFreq: -5, WarehouseCapacity: math.Inf(1)}, ForecastDecreasing)
	zero := Plan(Inputs{SalesVolume: 300, StockoutFreq: 0, WarehouseCapacity: math.Inf(1)}, ForecastDecreasing)
	if low.SafetyStock != zero.SafetyStock {
		t.Errorf("SafetyStock with sf=-5 = %v, want %v (sf=0)", low.SafetyStock, zero.SafetyStock)
	}

	high := Plan(Inputs{SalesVolume: 300, StockoutFreq: 99, WarehouseCapacity: math.Inf(1)}, ForecastDecreasing)
	cap := Plan(Inputs{SalesVolume: 300, StockoutFreq: 30, WarehouseCapacity: math.Inf(1)}, ForecastDecreasing)
	if high.SafetyStock != cap.SafetyStock {
		t.Errorf("SafetyStock with sf=99 = %v, want %v (sf=30)", high.SafetyStock, cap.SafetyStock)
	}
}

func TestPlanIncreasingDemandRaisesSafetyStock(t *testing.T) {
	in := Inputs{SalesVolume: 300, LeadTimeDays: 5, FulfillmentTimeDays: 2, WarehouseCapacity: math.Inf(1)}
	up := Plan(in, ForecastIncreasing)
	down := Plan(in, ForecastDecreasing)
	if up.SafetyStock <= down.SafetyStock {
		t.Errorf("increasing safety stock %v should exceed decreasing %v", up.SafetyStock, down.SafetyStock)
	}
	if up.ReorderPoint <= down.ReorderPoint {
		t.Errorf("increasing reorder point %v should exceed decreasing %v", up.ReorderPoint, down.ReorderPoint)
	}
}

func TestPlanZeroSales(t *testing.T) {
	d := Plan(Inputs{StockLevels: 10, WarehouseCapacity: math.Inf(1)}, ForecastDecreasing)
	if d.AvgDailyDemand != 0 || d.SafetyStock != 0 || d.ReorderPoint != 0 {
		t.Errorf("zero sales should zero the demand chain, got %+v", d)
	}
	if d.Action != ActionHold {
		t.Errorf("Action = %q, want %q", d.Action, ActionHold)
	}
}
