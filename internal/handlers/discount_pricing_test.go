package handlers

import "testing"

func floatPtr(v float64) *float64 { return &v }

func TestResolveDiscountUpdate_KeepsExistingWhenUnset(t *testing.T) {
	result, err := resolveDiscountUpdate(1000, 800, discountUpdateInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ActualPrice != 1000 || result.DiscountPrice != 800 || result.DiscountPercent != 20 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestResolveDiscountUpdate_ClearsDiscountWithZero(t *testing.T) {
	result, err := resolveDiscountUpdate(1000, 800, discountUpdateInput{DiscountPrice: floatPtr(0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DiscountPrice != 0 || result.DiscountPercent != 0 {
		t.Fatalf("expected discount cleared, got %+v", result)
	}
}

func TestResolveDiscountUpdate_RejectsDiscountAboveNewPrice(t *testing.T) {
	if _, err := resolveDiscountUpdate(1000, 800, discountUpdateInput{ActualPrice: floatPtr(700)}); err == nil {
		t.Fatal("expected error when lowering actual price below the discount")
	}
	if _, err := resolveDiscountUpdate(1000, 0, discountUpdateInput{DiscountPrice: floatPtr(1000)}); err == nil {
		t.Fatal("expected error when discount equals actual price")
	}
	if _, err := resolveDiscountUpdate(1000, 0, discountUpdateInput{DiscountPrice: floatPtr(-5)}); err == nil {
		t.Fatal("expected error for negative discount")
	}
}

func TestResolveDiscountUpdate_RoundsPercent(t *testing.T) {
	result, err := resolveDiscountUpdate(999, 0, discountUpdateInput{DiscountPrice: floatPtr(666)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DiscountPercent != 33 {
		t.Fatalf("expected 33%%, got %d", result.DiscountPercent)
	}
}
