package db

import (
	"database/sql"
	"fmt"

	"github.com/synapse-data/product.intel/internal/catalog"
)

// productColumns maps canonical catalog keys to their SQL column names, in
// insert order. The parenthesised day columns lose their parens in SQL.
var productColumns = []struct {
	key string
	col string
}{
	{catalog.ColProductID, "product_id"},
	{catalog.ColPrice, "price"},
	{catalog.ColPromotions, "promotions"},
	{catalog.ColSeasonality, "seasonality_factors"},
	{catalog.ColExternalFactors, "external_factors"},
	{catalog.ColSegment, "customer_segments"},
	{catalog.ColCompetitorPrice, "competitor_prices"},
	{catalog.ColSalesVolume, "sales_volume"},
	{catalog.ColReviews, "reviews"},
	{catalog.ColStorageCost, "storage_cost"},
	{catalog.ColStockLevels, "stock_levels"},
	{catalog.ColLeadTimeDays, "supplier_lead_time_days"},
	{catalog.ColStockoutFreq, "stockout_frequency"},
	{catalog.ColWarehouseCap, "warehouse_capacity"},
	{catalog.ColFulfillmentDays, "order_fulfillment_time_days"},
}

// ProductCount returns the number of catalog rows imported.
func (db *DB) ProductCount() (int, error) {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM products").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

// ImportProducts loads catalog records into the products table, preserving
// their order so "last matching row" keeps its catalog-order meaning. The
// import runs in one transaction; a failed import leaves the table unchanged.
func (db *DB) ImportProducts(records []catalog.FeatureRecord) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO products (
		product_id, price, promotions, seasonality_factors, external_factors,
		customer_segments, competitor_prices, sales_volume, reviews,
		storage_cost, stock_levels, supplier_lead_time_days,
		stockout_frequency, warehouse_capacity, order_fulfillment_time_days
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare import: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		id, ok := rec.Num(catalog.ColProductID)
		if !ok {
			return fmt.Errorf("record %d has no %s", i, catalog.ColProductID)
		}

		args := make([]any, 0, len(productColumns))
		args = append(args, int(id))
		for _, pc := range productColumns[1:] {
			if pc.key == catalog.ColSegment {
				if s, ok := rec.Str(pc.key); ok {
					args = append(args, s)
				} else {
					args = append(args, nil)
				}
				continue
			}
			if v, ok := rec.Num(pc.key); ok {
				args = append(args, v)
			} else {
				args = append(args, nil)
			}
		}

		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}

// ProductSnapshot is the slice of a product row the report dashboard plots.
type ProductSnapshot struct {
	ProductID       int
	Price           float64
	CompetitorPrice float64
	SalesVolume     float64
	StockLevels     float64
}

// ProductSnapshots returns up to limit product rows for reporting, keeping
// only rows with the plotted columns populated.
func (db *DB) ProductSnapshots(limit int) ([]ProductSnapshot, error) {
	rows, err := db.Query(
		`SELECT product_id, price, competitor_prices, sales_volume, COALESCE(stock_levels, 0)
		 FROM products
		 WHERE price IS NOT NULL AND competitor_prices IS NOT NULL AND sales_volume IS NOT NULL
		 ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query product snapshots: %w", err)
	}
	defer rows.Close()

	var out []ProductSnapshot
	for rows.Next() {
		var s ProductSnapshot
		if err := rows.Scan(&s.ProductID, &s.Price, &s.CompetitorPrice, &s.SalesVolume, &s.StockLevels); err != nil {
			return nil, fmt.Errorf("failed to scan product snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ProductStore adapts the products table to the catalog.Store interface the
// pipeline consumes. The table is read-only during pipeline execution, so
// concurrent lookups are safe.
type ProductStore struct {
	db *DB
}

// Products returns a catalog.Store view over the products table.
func (db *DB) Products() *ProductStore {
	return &ProductStore{db: db}
}

// Lookup returns the last imported row for productID.
func (s *ProductStore) Lookup(productID int) (catalog.FeatureRecord, bool) {
	query := `SELECT
		price, promotions, seasonality_factors, external_factors,
		customer_segments, competitor_prices, sales_volume, reviews,
		storage_cost, stock_levels, supplier_lead_time_days,
		stockout_frequency, warehouse_capacity, order_fulfillment_time_days
	FROM products WHERE product_id = ? ORDER BY id DESC LIMIT 1`

	var (
		price, promotions, seasonality, external          sql.NullFloat64
		segment                                           sql.NullString
		competitor, salesVolume, reviews, storageCost     sql.NullFloat64
		stockLevels, leadTime, stockoutFreq, warehouseCap sql.NullFloat64
		fulfillment                                       sql.NullFloat64
	)

	err := s.db.QueryRow(query, productID).Scan(
		&price, &promotions, &seasonality, &external,
		&segment, &competitor, &salesVolume, &reviews,
		&storageCost, &stockLevels, &leadTime,
		&stockoutFreq, &warehouseCap, &fulfillment,
	)
	if err != nil {
		return nil, false
	}

	rec := catalog.FeatureRecord{catalog.ColProductID: float64(productID)}
	setNum := func(key string, v sql.NullFloat64) {
		if v.Valid {
			rec[key] = v.Float64
		}
	}
	setNum(catalog.ColPrice, price)
	setNum(catalog.ColPromotions, promotions)
	setNum(catalog.ColSeasonality, seasonality)
	setNum(catalog.ColExternalFactors, external)
	if segment.Valid {
		rec[catalog.ColSegment] = segment.String
	}
	setNum(catalog.ColCompetitorPrice, competitor)
	setNum(catalog.ColSalesVolume, salesVolume)
	setNum(catalog.ColReviews, reviews)
	setNum(catalog.ColStorageCost, storageCost)
	setNum(catalog.ColStockLevels, stockLevels)
	setNum(catalog.ColLeadTimeDays, leadTime)
	setNum(catalog.ColStockoutFreq, stockoutFreq)
	setNum(catalog.ColWarehouseCap, warehouseCap)
	setNum(catalog.ColFulfillmentDays, fulfillment)

	return rec, true
}

// SampleIDs returns up to n distinct product IDs in first-import order.
func (s *ProductStore) SampleIDs(n int) []int {
	rows, err := s.db.Query(
		"SELECT product_id FROM products GROUP BY product_id ORDER BY MIN(id) LIMIT ?", n)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return ids
		}
		ids = append(ids, id)
	}
	return ids
}

// Categories returns the sorted distinct values of a categorical column.
// Only customer_segments is categorical in the catalog schema.
func (s *ProductStore) Categories(column string) []string {
	if column != catalog.ColSegment {
		return nil
	}
	rows, err := s.db.Query(
		"SELECT DISTINCT customer_segments FROM products WHERE customer_segments IS NOT NULL ORDER BY customer_segments")
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return out
		}
		out = append(out, v)
	}
	return out
}
