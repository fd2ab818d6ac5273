// Package catalog loads and serves the product feature catalog.
//
// The catalog is reference data: one row per observation of a product, keyed
// by Product_ID. IDs are not unique; "most recent" means the last matching
// row in catalog order, which callers assume is chronological append order.
// Column names arrive in both spaced and underscored variants depending on
// the export, so every record is normalised to the canonical underscored
// schema at load time.
package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Canonical feature columns. All lookups inside the service use these names;
// NormalizeKey maps the spaced export variants onto them at the boundary.
const (
	ColProductID       = "Product_ID"
	ColPrice           = "Price"
	ColPromotions      = "Promotions"
	ColSeasonality     = "Seasonality_Factors"
	ColExternalFactors = "External_Factors"
	ColSegment         = "Customer_Segments"
	ColCompetitorPrice = "Competitor_Prices"
	ColSalesVolume     = "Sales_Volume"
	ColReviews         = "Reviews"
	ColStorageCost     = "Storage_Cost"
	ColStockLevels     = "Stock_Levels"
	ColLeadTimeDays    = "Supplier_Lead_Time_(days)"
	ColStockoutFreq    = "Stockout_Frequency"
	ColWarehouseCap    = "Warehouse_Capacity"
	ColFulfillmentDays = "Order_Fulfillment_Time_(days)"
)

// Columns lists the canonical catalog schema in export order.
var Columns = []string{
	ColProductID,
	ColPrice,
	ColPromotions,
	ColSeasonality,
	ColExternalFactors,
	ColSegment,
	ColCompetitorPrice,
	ColSalesVolume,
	ColReviews,
	ColStorageCost,
	ColStockLevels,
	ColLeadTimeDays,
	ColStockoutFreq,
	ColWarehouseCap,
	ColFulfillmentDays,
}

// NormalizeKey converts a column name to its canonical underscored form.
func NormalizeKey(key string) string {
	return strings.ReplaceAll(strings.TrimSpace(key), " ", "_")
}

// FeatureRecord is one normalised catalog row. Values are float64 for
// numeric columns and string for categorical ones.
type FeatureRecord map[string]any

// lookup returns the raw value for key, tolerating the spaced name variant
// for records that bypassed normalisation. First non-missing wins.
func (f FeatureRecord) lookup(key string) (any, bool) {
	if v, ok := f[key]; ok && v != nil {
		return v, true
	}
	if v, ok := f[strings.ReplaceAll(key, "_", " ")]; ok && v != nil {
		return v, true
	}
	return nil, false
}

// Num returns the value for key coerced to a float64. Numeric strings are
// parsed; categorical values and missing keys report ok=false.
func (f FeatureRecord) Num(key string) (float64, bool) {
	v, ok := f.lookup(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// NumOr returns the numeric value for key, or def when the value is missing
// or not coercible to a number.
func (f FeatureRecord) NumOr(key string, def float64) float64 {
	if v, ok := f.Num(key); ok {
		return v
	}
	return def
}

// Str returns the value for key as a string. Only genuinely categorical
// values report ok=true; numbers do not round-trip through here.
func (f FeatureRecord) Str(key string) (string, bool) {
	v, ok := f.lookup(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Clone returns a shallow copy of the record.
func (f FeatureRecord) Clone() FeatureRecord {
	out := make(FeatureRecord, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Store is the read-only feature store consumed by the pipeline. A Store
// must be safe for concurrent readers; the catalog never changes during a
// pipeline run.
type Store interface {
	// Lookup returns the last catalog record matching the product ID.
	Lookup(productID int) (FeatureRecord, bool)

	// SampleIDs returns up to n known product IDs in catalog order, used
	// to build actionable not-found messages.
	SampleIDs(n int) []int

	// Categories returns the sorted distinct categorical values observed
	// in the given column across the whole catalog.
	Categories(column string) []string
}

// MemStore is an in-memory Store holding records in catalog order.
type MemStore struct {
	rows []FeatureRecord
}

// NewMemStore builds a MemStore from records, normalising every key.
func NewMemStore(rows []FeatureRecord) *MemStore {
	s := &MemStore{rows: make([]FeatureRecord, 0, len(rows))}
	for _, r := range rows {
		s.Append(r)
	}
	return s
}

// Append adds a record, normalising its keys to the canonical schema.
func (s *MemStore) Append(rec FeatureRecord) {
	norm := make(FeatureRecord, len(rec))
	for k, v := range rec {
		norm[NormalizeKey(k)] = v
	}
	s.rows = append(s.rows, norm)
}

// Len reports the number of catalog rows.
func (s *MemStore) Len() int { return len(s.rows) }

// Records returns the catalog rows in order. The slice is shared with the
// store; callers must not mutate it.
func (s *MemStore) Records() []FeatureRecord { return s.rows }

// Lookup scans the catalog and returns the last row whose Product_ID equals
// productID.
func (s *MemStore) Lookup(productID int) (FeatureRecord, bool) {
	var found FeatureRecord
	for _, r := range s.rows {
		if id, ok := r.Num(ColProductID); ok && int(id) == productID {
			found = r
		}
	}
	if found == nil {
		return nil, false
	}
	return found.Clone(), true
}

// SampleIDs returns up to n distinct product IDs in first-seen order.
func (s *MemStore) SampleIDs(n int) []int {
	seen := make(map[int]bool)
	var ids []int
	for _, r := range s.rows {
		if len(ids) >= n {
			break
		}
		id, ok := r.Num(ColProductID)
		if !ok {
			continue
		}
		if !seen[int(id)] {
			seen[int(id)] = true
			ids = append(ids, int(id))
		}
	}
	return ids
}

// Categories returns the sorted distinct string values of column.
func (s *MemStore) Categories(column string) []string {
	seen := make(map[string]bool)
	for _, r := range s.rows {
		if v, ok := r.Str(column); ok && !seen[v] {
			seen[v] = true
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Encoder assigns stable integer codes to categorical values, indexed by the
// sorted distinct values of each column. Unknown values code to -1, matching
// the "missing category" convention of the training pipeline.
type Encoder struct {
	codes map[string]map[string]int
}

// NewEncoder builds an Encoder over the given columns of a store.
func NewEncoder(s Store, columns ...string) *Encoder {
	enc := &Encoder{codes: make(map[string]map[string]int, len(columns))}
	for _, col := range columns {
		m := make(map[string]int)
		for i, v := range s.Categories(col) {
			m[v] = i
		}
		enc.codes[col] = m
	}
	return enc
}

// Code returns the integer code for value in column, or -1 when the value
// was never observed in the catalog.
func (e *Encoder) Code(column, value string) int {
	if e == nil {
		return -1
	}
	if m, ok := e.codes[column]; ok {
		if c, ok := m[value]; ok {
			return c
		}
	}
	return -1
}

// ParseProductID converts a raw product identifier into an int. Integral
// floats truncate; strings must parse as base-10 integers.
func ParseProductID(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		id, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", v)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("unsupported product id type %T", raw)
	}
}
