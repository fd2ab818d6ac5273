// Package pipeline implements the product optimisation pipeline: a fixed
// sequence of stages (fetch, forecast, price, inventory, summarize) run over
// one accumulating state record.
//
// The executor is a straight line, not a DAG: every stage always runs, in
// order, exactly once. Failure propagation is implicit — a failing stage
// writes an error key instead of its outputs, and each downstream stage
// independently re-checks its own preconditions against the accumulated
// state, degrading to a no-op when its inputs were lost to that failure.
// The first error therefore survives to the terminal state, which is
// returned as-is after the summarize stage.
package pipeline

import (
	"context"
	"time"

	"github.com/synapse-data/product.intel/internal/catalog"
	"github.com/synapse-data/product.intel/internal/predict"
)

// Stage is one named computation in the fixed sequence. Run receives the
// accumulated state and returns a delta to merge into it.
type Stage struct {
	Name string
	Run  func(ctx context.Context, s State) State
}

// DefaultCapabilityTimeout bounds a single prediction call.
const DefaultCapabilityTimeout = 10 * time.Second

// Optimizer runs the pipeline against a feature store and the two
// prediction capabilities. It holds no per-run state: concurrent Run calls
// are safe as long as the store and capabilities are, which they are
// required to be.
type Optimizer struct {
	store      catalog.Store
	enc        *catalog.Encoder
	classifier predict.DemandClassifier
	estimator  predict.PriceEstimator
	timeout    time.Duration
	sampleIDs  int
	stages     []Stage
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithCapabilityTimeout overrides the per-call prediction timeout.
func WithCapabilityTimeout(d time.Duration) Option {
	return func(o *Optimizer) { o.timeout = d }
}

// WithSampleIDCount overrides how many known product IDs the not-found
// message lists.
func WithSampleIDCount(n int) Option {
	return func(o *Optimizer) {
		if n > 0 {
			o.sampleIDs = n
		}
	}
}

// New builds an Optimizer. classifier and estimator may be nil when the
// corresponding model failed to load; the affected stages then degrade to
// capability-unavailable errors instead of refusing to start, matching how
// the service stays up with missing model files.
func New(store catalog.Store, classifier predict.DemandClassifier, estimator predict.PriceEstimator, opts ...Option) *Optimizer {
	o := &Optimizer{
		store:      store,
		enc:        catalog.NewEncoder(store, catalog.ColSegment),
		classifier: classifier,
		estimator:  estimator,
		timeout:    DefaultCapabilityTimeout,
		sampleIDs:  10,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.stages = []Stage{
		{Name: StageFetch, Run: o.fetchStage},
		{Name: StageForecast, Run: o.forecastStage},
		{Name: StagePrice, Run: o.priceStage},
		{Name: StageInventory, Run: o.inventoryStage},
		{Name: StageSummary, Run: o.summaryStage},
	}
	return o
}

// Stage names, in execution order.
const (
	StageFetch     = "fetch"
	StageForecast  = "forecast"
	StagePrice     = "price"
	StageInventory = "inventory"
	StageSummary   = "summarize"
)

// StageNames returns the fixed stage order.
func (o *Optimizer) StageNames() []string {
	names := make([]string, len(o.stages))
	for i, st := range o.stages {
		names[i] = st.Name
	}
	return names
}

// Run seeds a state with the product identifier and executes every stage in
// order, merging each delta into the accumulated state. No stage is skipped
// on error and no retries are attempted; the full chain always runs to
// completion once started.
func (o *Optimizer) Run(ctx context.Context, productID any) State {
	state := State{KeyProductID: productID}
	for _, st := range o.stages {
		state = state.Merge(st.Run(ctx, state))
	}
	return state
}

// RunStages executes the pipeline like Run but also reports each stage's
// delta to observe as it completes. Used by the workflow engine to stream
// per-stage progress.
func (o *Optimizer) RunStages(ctx context.Context, productID any, observe func(stage string, delta State)) State {
	state := State{KeyProductID: productID}
	for _, st := range o.stages {
		delta := st.Run(ctx, state)
		if observe != nil {
			observe(st.Name, delta)
		}
		state = state.Merge(delta)
	}
	return state
}

// Result is the caller-facing outcome of an analysis: either the final
// summary flattened for transport, or a status/message failure pair. This is
// the only contract the web layer depends on.
type Result struct {
	Status         string         `json:"status"`
	ProductID      any            `json:"product_id,omitempty"`
	DemandForecast string         `json:"demand_forecast,omitempty"`
	OptimizedPrice float64        `json:"optimized_price,omitempty"`
	Inventory      map[string]any `json:"inventory,omitempty"`
	Message        string         `json:"message"`
}

// AsMap flattens the result into the wire shape served to API clients.
func (r Result) AsMap() map[string]any {
	out := map[string]any{
		"status":  r.Status,
		"message": r.Message,
	}
	if r.Status != "success" {
		return out
	}
	out["product_id"] = r.ProductID
	out["demand_forecast"] = r.DemandForecast
	out["optimized_price"] = r.OptimizedPrice
	out["inventory"] = r.Inventory
	return out
}

// Analyze runs the pipeline and reduces the terminal state to a Result. Any
// terminal state without a final summary is a failure, reported through the
// message rather than an error return so the surrounding service never has
// anything to crash on.
func (o *Optimizer) Analyze(ctx context.Context, productID any) Result {
	state := o.Run(ctx, productID)

	summary, ok := state[KeyFinalSummary].(map[string]any)
	if !ok {
		msg, _ := state.Err()
		if msg == "" {
			msg = "analysis produced no summary"
		}
		return Result{Status: "error", Message: msg}
	}

	message, _ := state.Str(KeyMessage)
	inventory, _ := summary["inventory"].(map[string]any)
	price, _ := summary["optimized_price"].(float64)
	forecast, _ := summary["demand_forecast"].(string)

	return Result{
		Status:         "success",
		ProductID:      summary["product_id"],
		DemandForecast: forecast,
		OptimizedPrice: price,
		Inventory:      inventory,
		Message:        message,
	}
}
