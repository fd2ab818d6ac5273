package pipeline

import (
	"context"
	"math"

	"github.com/synapse-data/product.intel/internal/catalog"
	"github.com/synapse-data/product.intel/internal/units"
)

// Vector layouts for the two prediction capabilities. Order matters: the
// models were trained on columns in exactly this order.
var (
	demandVectorColumns = []string{
		catalog.ColPrice,
		catalog.ColPromotions,
		catalog.ColSeasonality,
		catalog.ColExternalFactors,
		catalog.ColSegment,
	}
	priceVectorColumns = []string{
		catalog.ColPrice,
		catalog.ColCompetitorPrice,
		catalog.ColSalesVolume,
		catalog.ColReviews,
		catalog.ColStorageCost,
	}
)

// vector builds a model input from the feature record. Numeric fields are
// taken as-is, categorical fields go through the catalog encoder, and
// missing fields become NaN so the capability rejects the vector instead of
// silently scoring a hole.
func (o *Optimizer) vector(f catalog.FeatureRecord, columns []string) []float64 {
	out := make([]float64, len(columns))
	for i, col := range columns {
		if v, ok := f.Num(col); ok {
			out[i] = v
			continue
		}
		if s, ok := f.Str(col); ok {
			out[i] = float64(o.enc.Code(col, s))
			continue
		}
		out[i] = math.NaN()
	}
	return out
}

// fetchStage resolves the product identifier against the catalog and seeds
// the feature record.
func (o *Optimizer) fetchStage(ctx context.Context, s State) State {
	id, err := catalog.ParseProductID(s[KeyProductID])
	if err != nil {
		return errState(failf(ErrInvalidInput, "Invalid product_id: %v", s[KeyProductID]))
	}

	features, ok := o.store.Lookup(id)
	if !ok {
		return errState(failf(ErrNotFound,
			"Product ID %d not found. Available IDs: %v", id, o.store.SampleIDs(o.sampleIDs)))
	}

	return State{KeyFeatures: features, KeyProductID: id}
}

// forecastStage classifies the demand trend from the fetched features.
func (o *Optimizer) forecastStage(ctx context.Context, s State) State {
	if err := require(s, StageForecast, KeyFeatures); err != nil {
		return errState(err)
	}
	features, ok := s.Features()
	if !ok {
		return errState(failf(ErrPreconditionMissing, "Malformed features for %s stage", StageForecast))
	}
	if o.classifier == nil {
		return errState(failf(ErrCapabilityUnavailable, "Demand model not loaded. Please check model file."))
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	pred, err := o.classifier.Classify(callCtx, o.vector(features, demandVectorColumns))
	if err != nil {
		return errState(failf(ErrCapabilityFailure, "Prediction failed: %v", err))
	}

	forecast := ForecastDecreasing
	if pred > 0 {
		forecast = ForecastIncreasing
	}

	return State{
		KeyFeatures:       features,
		KeyProductID:      s[KeyProductID],
		KeyDemandForecast: forecast,
	}
}

// priceStage estimates a base price and applies the demand-trend adjustment:
// +10% on increasing demand, -10% otherwise.
func (o *Optimizer) priceStage(ctx context.Context, s State) State {
	if err := require(s, StagePrice, KeyFeatures, KeyDemandForecast); err != nil {
		return errState(err)
	}
	features, ok := s.Features()
	if !ok {
		return errState(failf(ErrPreconditionMissing, "Malformed features for %s stage", StagePrice))
	}
	forecast, _ := s.Str(KeyDemandForecast)
	if o.estimator == nil {
		return errState(failf(ErrCapabilityUnavailable, "Price optimization model not loaded"))
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	basePrice, err := o.estimator.Estimate(callCtx, o.vector(features, priceVectorColumns))
	if err != nil {
		return errState(failf(ErrCapabilityFailure, "Price prediction failed: %v", err))
	}

	adjusted := basePrice * 0.90
	if forecast == ForecastIncreasing {
		adjusted = basePrice * 1.10
	}

	return State{
		KeyFeatures:       features,
		KeyProductID:      s[KeyProductID],
		KeyDemandForecast: forecast,
		KeyOptimizedPrice: units.Round2(adjusted),
	}
}

// inventoryStage extracts the inventory inputs from the feature record and
// delegates to the pure policy engine. The delta deliberately omits the
// features key; the merge keeps it in the accumulated state.
func (o *Optimizer) inventoryStage(ctx context.Context, s State) State {
	if err := require(s, StageInventory, KeyFeatures, KeyDemandForecast, KeyOptimizedPrice); err != nil {
		return errState(err)
	}
	features, ok := s.Features()
	if !ok {
		return errState(failf(ErrPreconditionMissing, "Malformed features for %s stage", StageInventory))
	}
	forecast, _ := s.Str(KeyDemandForecast)
	price, _ := s.Float(KeyOptimizedPrice)

	in := Inputs{
		StockLevels:         features.NumOr(catalog.ColStockLevels, 0),
		LeadTimeDays:        features.NumOr(catalog.ColLeadTimeDays, 0),
		StockoutFreq:        features.NumOr(catalog.ColStockoutFreq, 0),
		WarehouseCapacity:   features.NumOr(catalog.ColWarehouseCap, math.Inf(1)),
		FulfillmentTimeDays: features.NumOr(catalog.ColFulfillmentDays, 0),
		SalesVolume:         features.NumOr(catalog.ColSalesVolume, 0),
	}
	d := Plan(in, forecast)

	return State{
		KeyProductID:      s[KeyProductID],
		KeyDemandForecast: forecast,
		KeyOptimizedPrice: units.Round2(price),
		KeyAvgDailyDemand: d.AvgDailyDemand,
		KeySafetyStock:    d.SafetyStock,
		KeyReorderPoint:   d.ReorderPoint,
		KeyCurrentStock:   d.CurrentStock,
		KeyAction:         d.Action,
		KeyReorderQty:     d.SuggestedReorderQty,
	}
}
