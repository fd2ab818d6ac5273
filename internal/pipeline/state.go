package pipeline

import (
	"github.com/synapse-data/product.intel/internal/catalog"
)

// Canonical state keys written over a pipeline run. Keys are only ever added
// or overwritten by a later stage, never deleted.
const (
	KeyProductID      = "product_id"
	KeyFeatures       = "features"
	KeyDemandForecast = "demand_forecast"
	KeyOptimizedPrice = "optimized_price"
	KeyAvgDailyDemand = "avg_daily_demand"
	KeySafetyStock    = "safety_stock"
	KeyReorderPoint   = "reorder_point"
	KeyCurrentStock   = "current_stock"
	KeyAction         = "inventory_action"
	KeyReorderQty     = "suggested_reorder_qty"
	KeyError          = "error"
	KeyFinalSummary   = "final_summary"
	KeyMessage        = "message"
)

// Demand forecast values.
const (
	ForecastIncreasing = "increasing"
	ForecastDecreasing = "decreasing"
)

// State is the shared record threaded through the pipeline. Stages receive
// the accumulated state and return a delta; only Merge produces new states,
// so each stage can be tested on a hand-built input in isolation.
type State map[string]any

// Merge returns a new State holding the union of s and delta, with delta
// winning on key collisions. Neither input is mutated.
func (s State) Merge(delta State) State {
	out := make(State, len(s)+len(delta))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range delta {
		out[k] = v
	}
	return out
}

// Has reports whether every key is present.
func (s State) Has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := s[k]; !ok {
			return false
		}
	}
	return true
}

// Err returns the error message recorded by the most recent failing stage.
func (s State) Err() (string, bool) {
	msg, ok := s[KeyError].(string)
	return msg, ok
}

// Float returns the value under key when it is a number.
func (s State) Float(key string) (float64, bool) {
	switch v := s[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Str returns the value under key when it is a string.
func (s State) Str(key string) (string, bool) {
	v, ok := s[key].(string)
	return v, ok
}

// Features returns the feature record fetched for the product, when present
// and well-typed.
func (s State) Features() (catalog.FeatureRecord, bool) {
	f, ok := s[KeyFeatures].(catalog.FeatureRecord)
	return f, ok
}
