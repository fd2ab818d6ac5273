package catalog

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Product ID", "Product_ID"},
		{"Product_ID", "Product_ID"},
		{" Supplier Lead Time (days) ", "Supplier_Lead_Time_(days)"},
		{"Price", "Price"},
	}
	for _, tt := range tests {
		if got := NormalizeKey(tt.in); got != tt.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFeatureRecordNum(t *testing.T) {
	rec := FeatureRecord{
		ColPrice:       49.99,
		ColSalesVolume: "300",
		ColSegment:     "Premium",
		"Stock Levels": 12.0, // spaced variant
	}

	tests := []struct {
		name   string
		key    string
		want   float64
		wantOK bool
	}{
		{"float value", ColPrice, 49.99, true},
		{"numeric string", ColSalesVolume, 300, true},
		{"categorical value", ColSegment, 0, false},
		{"spaced key fallback", ColStockLevels, 12, true},
		{"missing key", ColReviews, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := rec.Num(tt.key)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Num(%q) = (%v, %v), want (%v, %v)", tt.key, got, ok, tt.want, tt.wantOK)
			}
		})
	}

	if got := rec.NumOr(ColReviews, 7); got != 7 {
		t.Errorf("NumOr default = %v, want 7", got)
	}
}

func TestMemStoreLookupLastRowWins(t *testing.T) {
	s := NewMemStore([]FeatureRecord{
		{ColProductID: 1.0, ColPrice: 10.0},
		{ColProductID: 2.0, ColPrice: 20.0},
		{ColProductID: 1.0, ColPrice: 15.0}, // newer observation of product 1
	})

	rec, ok := s.Lookup(1)
	if !ok {
		t.Fatal("Lookup(1) should succeed")
	}
	if got, _ := rec.Num(ColPrice); got != 15.0 {
		t.Errorf("price = %v, want 15 (last matching row)", got)
	}

	if _, ok := s.Lookup(99); ok {
		t.Error("Lookup(99) should fail")
	}
}

func TestMemStoreLookupReturnsCopy(t *testing.T) {
	s := NewMemStore([]FeatureRecord{{ColProductID: 1.0, ColPrice: 10.0}})

	rec, _ := s.Lookup(1)
	rec[ColPrice] = 999.0

	again, _ := s.Lookup(1)
	if got, _ := again.Num(ColPrice); got != 10.0 {
		t.Errorf("store row mutated through lookup result: price = %v", got)
	}
}

func TestMemStoreSampleIDs(t *testing.T) {
	s := NewMemStore([]FeatureRecord{
		{ColProductID: 3.0},
		{ColProductID: 1.0},
		{ColProductID: 3.0},
		{ColProductID: 2.0},
	})

	if diff := cmp.Diff([]int{3, 1, 2}, s.SampleIDs(10)); diff != "" {
		t.Errorf("SampleIDs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{3, 1}, s.SampleIDs(2)); diff != "" {
		t.Errorf("SampleIDs(2) mismatch (-want +got):\n%s", diff)
	}
}

func TestEncoder(t *testing.T) {
	s := NewMemStore([]FeatureRecord{
		{ColProductID: 1.0, ColSegment: "Premium"},
		{ColProductID: 2.0, ColSegment: "Budget"},
		{ColProductID: 3.0, ColSegment: "Premium"},
		{ColProductID: 4.0, ColSegment: "Mid-range"},
	})
	enc := NewEncoder(s, ColSegment)

	// Codes index the sorted distinct vocabulary.
	tests := []struct {
		value string
		want  int
	}{
		{"Budget", 0},
		{"Mid-range", 1},
		{"Premium", 2},
		{"Luxury", -1}, // never observed
	}
	for _, tt := range tests {
		if got := enc.Code(ColSegment, tt.value); got != tt.want {
			t.Errorf("Code(%q) = %d, want %d", tt.value, got, tt.want)
		}
	}

	if got := enc.Code("Unknown_Column", "x"); got != -1 {
		t.Errorf("Code on unindexed column = %d, want -1", got)
	}
}

func TestParseProductID(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    int
		wantErr bool
	}{
		{"int", 42, 42, false},
		{"int64", int64(42), 42, false},
		{"float truncates", 42.9, 42, false},
		{"string", "42", 42, false},
		{"padded string", " 42\n", 42, false},
		{"non-numeric string", "abc", 0, true},
		{"nil", nil, 0, true},
		{"slice", []int{1}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProductID(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseProductID(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseProductID(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestReadCSV(t *testing.T) {
	csv := strings.Join([]string{
		"Product ID,Price,Customer Segments,Sales Volume",
		"101,49.99,Premium,300",
		"102,,Budget,150",
	}, "\n")

	store, err := ReadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	records := store.Records()
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if got, _ := first.Num(ColProductID); got != 101 {
		t.Errorf("Product_ID = %v, want 101", got)
	}
	if got, _ := first.Num(ColPrice); got != 49.99 {
		t.Errorf("Price = %v, want 49.99", got)
	}
	if got, _ := first.Str(ColSegment); got != "Premium" {
		t.Errorf("Customer_Segments = %q, want Premium", got)
	}

	// Empty cells are omitted, not zero.
	if _, ok := records[1].Num(ColPrice); ok {
		t.Error("empty Price cell should be missing, not zero")
	}
}
