package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	CategoryCasual = "casual"
	CategoryFormal = "formal"
	CategoryEthnic = "ethnic"
	CategorySports = "sports"
)

const (
	ProductStatusDraft     = "draft"
	ProductStatusPublished = "published"
	ProductStatusArchived  = "archived"
)

// Sizes lists the valid size labels in display order.
var Sizes = []string{"M", "L", "XL", "XXL", "XXXL"}

func IsValidSize(size string) bool {
	for _, s := range Sizes {
		if s == size {
			return true
		}
	}
	return false
}

func IsValidCategory(category string) bool {
	switch category {
	case CategoryCasual, CategoryFormal, CategoryEthnic, CategorySports:
		return true
	}
	return false
}

func IsValidProductStatus(status string) bool {
	switch status {
	case ProductStatusDraft, ProductStatusPublished, ProductStatusArchived:
		return true
	}
	return false
}

// SizeStock is the per-size inventory counter attached to a product.
type SizeStock struct {
	Size    string `bson:"size" json:"size"`
	Stock   int    `bson:"stock" json:"stock"`
	InStock bool   `bson:"inStock" json:"inStock"`
}

type Product struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title           string             `bson:"title" json:"title"`
	Brand           string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	Images          StringList         `bson:"images" json:"images"`
	Category        string             `bson:"category" json:"category"`
	ActualPrice     float64            `bson:"actualPrice" json:"actualPrice"`
	DiscountPrice   float64            `bson:"discountPrice,omitempty" json:"discountPrice,omitempty"`
	DiscountPercent int                `bson:"discountPercent" json:"discountPercent"`
	Rating          float64            `bson:"rating" json:"rating"`
	Featured        bool               `bson:"featured" json:"featured"`
	Status          string             `bson:"status" json:"status"`
	IsActive        bool               `bson:"isActive" json:"isActive"`
	ProductFit      string             `bson:"productFit,omitempty" json:"productFit,omitempty"`
	Sizes           []SizeStock        `bson:"sizes" json:"sizes"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Available reports whether the product can currently be ordered.
func (p Product) Available() bool {
	return p.IsActive && p.Status != ProductStatusArchived
}

// SizeStock returns the entry for size, matched exactly.
func (p Product) SizeStock(size string) (SizeStock, bool) {
	for _, s := range p.Sizes {
		if s.Size == size {
			return s, true
		}
	}
	return SizeStock{}, false
}

// PrimaryImage is the image copied into order snapshots.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// RefreshStockFlags recomputes InStock from the counters and clamps negatives.
func (p *Product) RefreshStockFlags() {
	for i := range p.Sizes {
		if p.Sizes[i].Stock < 0 {
			p.Sizes[i].Stock = 0
		}
		p.Sizes[i].InStock = p.Sizes[i].Stock > 0
	}
}
