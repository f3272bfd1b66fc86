package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"tfashion-storefront/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalog CSV files and inserts or updates products. Recognised
// columns: id, key, name, price (major units), price_cents, currency, image, category.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
}

func NewCSVImporter(r io.Reader, repo ProductWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr, productRepo: repo}
}

// Run imports every row and returns the number of products written.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["key"]; !ok {
		return 0, errors.New("missing key column")
	}

	imported := 0
	for line := 2; ; line++ {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		p, skip, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if skip {
			continue
		}
		if _, err := i.productRepo.Upsert(ctx, p); err != nil {
			return imported, fmt.Errorf("upsert product %q: %w", p.Key, err)
		}
		imported++
	}
	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (domain.Product, bool, error) {
	p := domain.Product{
		ID:       pick(record, index, "id"),
		Key:      pick(record, index, "key"),
		Name:     pick(record, index, "name"),
		Currency: strings.ToUpper(pick(record, index, "currency")),
		Image:    pick(record, index, "image"),
		Category: pick(record, index, "category"),
	}
	if p.Key == "" && p.Name == "" {
		return domain.Product{}, true, nil
	}
	if p.Key == "" || p.Name == "" {
		return domain.Product{}, false, fmt.Errorf("invalid product row (missing required fields) for key %q", p.Key)
	}
	if p.ID != "" {
		if _, err := uuid.Parse(p.ID); err != nil {
			return domain.Product{}, false, fmt.Errorf("invalid id for key %q: %s", p.Key, p.ID)
		}
	}
	if p.Currency == "" {
		p.Currency = domain.Currency
	}

	cents, err := parsePrice(pick(record, index, "price_cents"), pick(record, index, "price"))
	if err != nil {
		return domain.Product{}, false, fmt.Errorf("price for key %q: %w", p.Key, err)
	}
	p.PriceCents = cents
	return p, false, nil
}

// parsePrice prefers an explicit minor-unit amount and otherwise reads a major-unit
// price such as "14,800" or "14800.50".
func parsePrice(centStr, priceStr string) (int64, error) {
	if centStr != "" {
		cents, err := strconv.ParseInt(centStr, 10, 64)
		if err != nil || cents <= 0 {
			return 0, fmt.Errorf("invalid price_cents %q", centStr)
		}
		return cents, nil
	}
	s := strings.ReplaceAll(priceStr, ",", "")
	if s == "" {
		return 0, errors.New("price required")
	}
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 2 {
		return 0, fmt.Errorf("invalid price %q", priceStr)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", priceStr)
	}
	minor, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || minor < 0 {
		return 0, fmt.Errorf("invalid price %q", priceStr)
	}
	cents := units*100 + minor
	if cents <= 0 {
		return 0, fmt.Errorf("invalid price %q", priceStr)
	}
	return cents, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
