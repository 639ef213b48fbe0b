package store

import (
	"context"
	"fmt"
	"strings"
)

// Selection is the product/brand pair remembered between runs
type Selection struct {
	Product string
	Brand   string
}

// LoadSelection reads the remembered pair; missing keys yield empty strings
func LoadSelection(ctx context.Context, s Store) (Selection, error) {
	product, err := getString(ctx, s, KeyProduct)
	if err != nil {
		return Selection{}, err
	}
	brand, err := getString(ctx, s, KeyBrand)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Product: product, Brand: brand}, nil
}

// SaveSelection writes the pair; an empty brand removes the stored one
func SaveSelection(ctx context.Context, s Store, sel Selection) error {
	if err := s.Set(ctx, KeyProduct, []byte(strings.TrimSpace(sel.Product)), 0); err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	brand := strings.TrimSpace(sel.Brand)
	if brand == "" {
		if err := s.Delete(ctx, KeyBrand); err != nil {
			return fmt.Errorf("clear brand: %w", err)
		}
		return nil
	}
	if err := s.Set(ctx, KeyBrand, []byte(brand), 0); err != nil {
		return fmt.Errorf("save brand: %w", err)
	}
	return nil
}

func getString(ctx context.Context, s Store, key string) (string, error) {
	val, found, err := s.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	if !found {
		return "", nil
	}
	return string(val), nil
}
