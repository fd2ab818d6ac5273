// Package main generates a synthetic product catalog CSV for local
// development and load testing. Column layout matches the import schema.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"

	"github.com/synapse-data/product.intel/internal/catalog"
)

var (
	out   = flag.String("out", "product_data.csv", "Output CSV file")
	count = flag.Int("count", 200, "Number of products to generate")
	seed  = flag.Int64("seed", 1, "Random seed")
)

var segments = []string{"Budget", "Mid-range", "Premium"}

func main() {
	flag.Parse()

	if *count < 1 {
		log.Fatal("count must be positive")
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("failed to create output file: %v", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(catalog.Columns); err != nil {
		log.Fatalf("failed to write header: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	for i := 0; i < *count; i++ {
		if err := w.Write(row(rng, 1000+i)); err != nil {
			log.Fatalf("failed to write row %d: %v", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalf("failed to flush output: %v", err)
	}
	log.Printf("wrote %d products to %s", *count, *out)
}

// row produces one product with loosely correlated pricing and demand so the
// generated data exercises every inventory action.
func row(rng *rand.Rand, productID int) []string {
	price := 10 + rng.Float64()*190
	competitor := price * (0.85 + rng.Float64()*0.3)
	volume := float64(rng.Intn(900) + 30)
	stock := float64(rng.Intn(500))
	capacity := stock + float64(rng.Intn(1000))

	return []string{
		strconv.Itoa(productID),
		f2(price),
		strconv.Itoa(rng.Intn(2)),
		f2(0.5 + rng.Float64()),
		f2(0.5 + rng.Float64()),
		segments[rng.Intn(len(segments))],
		f2(competitor),
		f2(volume),
		strconv.Itoa(rng.Intn(5000)),
		f2(0.5 + rng.Float64()*4.5),
		f2(stock),
		strconv.Itoa(rng.Intn(14) + 1),
		strconv.Itoa(rng.Intn(10)),
		f2(capacity),
		strconv.Itoa(rng.Intn(7) + 1),
	}
}

func f2(v float64) string { return fmt.Sprintf("%.2f", v) }
