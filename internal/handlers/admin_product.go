package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/orders"
)

type sizeStockRequest struct {
	Size  string `json:"size" binding:"required,productsize"`
	Stock int    `json:"stock" binding:"gte=0"`
}

type ProductCreateRequest struct {
	Title         string             `json:"title" binding:"required"`
	Brand         string             `json:"brand" binding:"required"`
	Description   string             `json:"description"`
	Images        []string           `json:"images" binding:"required,min=1,dive,required"`
	Category      string             `json:"category" binding:"required,productcategory"`
	ActualPrice   float64            `json:"actualPrice" binding:"required,gt=0"`
	DiscountPrice float64            `json:"discountPrice" binding:"gte=0"`
	Rating        float64            `json:"rating" binding:"gte=0,lte=5"`
	Featured      bool               `json:"featured"`
	Status        string             `json:"status" binding:"omitempty,productstatus"`
	IsActive      *bool              `json:"isActive"`
	ProductFit    string             `json:"productFit"`
	Sizes         []sizeStockRequest `json:"sizes" binding:"required,min=1,dive"`
}

// ProductUpdateRequest is a partial update; nil fields keep their value.
type ProductUpdateRequest struct {
	Title         *string             `json:"title"`
	Brand         *string             `json:"brand"`
	Description   *string             `json:"description"`
	Images        *[]string           `json:"images" binding:"omitempty,min=1,dive,required"`
	Category      *string             `json:"category" binding:"omitempty,productcategory"`
	ActualPrice   *float64            `json:"actualPrice"`
	DiscountPrice *float64            `json:"discountPrice"`
	Rating        *float64            `json:"rating" binding:"omitempty,gte=0,lte=5"`
	Featured      *bool               `json:"featured"`
	Status        *string             `json:"status" binding:"omitempty,productstatus"`
	IsActive      *bool               `json:"isActive"`
	ProductFit    *string             `json:"productFit"`
	Sizes         *[]sizeStockRequest `json:"sizes" binding:"omitempty,min=1,dive"`
}

func toSizeStocks(in []sizeStockRequest) ([]models.SizeStock, error) {
	seen := make(map[string]struct{}, len(in))
	out := make([]models.SizeStock, 0, len(in))
	for _, s := range in {
		if _, dup := seen[s.Size]; dup {
			return nil, fmt.Errorf("size %s listed twice", s.Size)
		}
		seen[s.Size] = struct{}{}
		out = append(out, models.SizeStock{Size: s.Size, Stock: s.Stock})
	}
	return out, nil
}

func trimAll(values []string) models.StringList {
	out := make(models.StringList, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// GetAllProducts lists every product regardless of status for the admin UI.
func GetAllProducts(store ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/products"
		defer handlePanic(c, route)

		filter := database.ProductFilter{
			Category: strings.TrimSpace(c.Query("category")),
			Search:   strings.TrimSpace(c.Query("search")),
			Status:   strings.TrimSpace(c.Query("status")),
		}
		if filter.Status != "" && !models.IsValidProductStatus(filter.Status) {
			respondWithError(c, http.StatusBadRequest, route, "invalid status")
			return
		}
		if filter.Category != "" && !models.IsValidCategory(filter.Category) {
			respondWithError(c, http.StatusBadRequest, route, "invalid category")
			return
		}

		page, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if page.Limit > 100 {
			page.Limit = 100
		}

		products, total, err := store.ListProducts(c.Request.Context(), filter, page)
		if err != nil {
			log.Printf("[%s] [ERROR] list failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "internal server error")
			return
		}

		respondOK(c, http.StatusOK, newProductPage(products, total, page))
	}
}

func GetProductAdmin(store ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/products/:id"
		defer handlePanic(c, route)

		product, ok := loadProduct(c, store, route)
		if !ok {
			return
		}
		respondOK(c, http.StatusOK, product)
	}
}

func CreateProduct(store ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/products"
		defer handlePanic(c, route)

		var req ProductCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		if err := validateDiscount(req.ActualPrice, req.DiscountPrice); err != nil {
			respondWithDetails(c, http.StatusBadRequest, route, "validation failed", []string{err.Error()})
			return
		}
		sizes, err := toSizeStocks(req.Sizes)
		if err != nil {
			respondWithDetails(c, http.StatusBadRequest, route, "validation failed", []string{err.Error()})
			return
		}

		now := time.Now()
		product := models.Product{
			Title:           strings.TrimSpace(req.Title),
			Brand:           strings.TrimSpace(req.Brand),
			Description:     strings.TrimSpace(req.Description),
			Images:          trimAll(req.Images),
			Category:        req.Category,
			ActualPrice:     req.ActualPrice,
			DiscountPrice:   req.DiscountPrice,
			DiscountPercent: models.DiscountPercent(req.ActualPrice, req.DiscountPrice),
			Rating:          req.Rating,
			Featured:        req.Featured,
			Status:          req.Status,
			IsActive:        true,
			ProductFit:      strings.TrimSpace(req.ProductFit),
			Sizes:           sizes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if product.Status == "" {
			product.Status = models.ProductStatusDraft
		}
		if req.IsActive != nil {
			product.IsActive = *req.IsActive
		}
		if product.Status == models.ProductStatusArchived {
			product.IsActive = false
		}
		product.RefreshStockFlags()

		if err := store.CreateProduct(c.Request.Context(), &product); err != nil {
			log.Printf("[%s] [ERROR] insert failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "internal server error")
			return
		}

		log.Printf("[%s] [INFO] product %s created", route, product.ID.Hex())
		respondOK(c, http.StatusCreated, product)
	}
}

// UpdateProduct edits the live catalog entry. Placed orders keep their own
// snapshot and are not touched.
func UpdateProduct(store ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/products/:id"
		defer handlePanic(c, route)

		var req ProductUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		product, ok := loadProduct(c, store, route)
		if !ok {
			return
		}

		if err := applyProductUpdate(&product, req); err != nil {
			respondWithDetails(c, http.StatusBadRequest, route, "validation failed", []string{err.Error()})
			return
		}
		product.UpdatedAt = time.Now()

		if err := store.ReplaceProduct(c.Request.Context(), product); err != nil {
			if errors.Is(err, orders.ErrProductNotFound) {
				respondWithError(c, http.StatusNotFound, route, "product not found")
				return
			}
			log.Printf("[%s] [ERROR] replace failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "internal server error")
			return
		}

		respondOK(c, http.StatusOK, product)
	}
}

func applyProductUpdate(p *models.Product, req ProductUpdateRequest) error {
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return errors.New("title must not be empty")
		}
		p.Title = strings.TrimSpace(*req.Title)
	}
	if req.Brand != nil {
		p.Brand = strings.TrimSpace(*req.Brand)
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if req.Images != nil {
		p.Images = trimAll(*req.Images)
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Rating != nil {
		p.Rating = *req.Rating
	}
	if req.Featured != nil {
		p.Featured = *req.Featured
	}
	if req.ProductFit != nil {
		p.ProductFit = strings.TrimSpace(*req.ProductFit)
	}
	if req.Sizes != nil {
		sizes, err := toSizeStocks(*req.Sizes)
		if err != nil {
			return err
		}
		p.Sizes = sizes
	}

	prices, err := resolveDiscountUpdate(p.ActualPrice, p.DiscountPrice, discountUpdateInput{
		ActualPrice:   req.ActualPrice,
		DiscountPrice: req.DiscountPrice,
	})
	if err != nil {
		return err
	}
	p.ActualPrice = prices.ActualPrice
	p.DiscountPrice = prices.DiscountPrice
	p.DiscountPercent = prices.DiscountPercent

	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if p.Status == models.ProductStatusArchived {
		p.IsActive = false
	}
	p.RefreshStockFlags()
	return nil
}

// DeleteProduct archives the product so existing orders keep resolving it.
func DeleteProduct(store ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/products/:id"
		defer handlePanic(c, route)

		product, ok := loadProduct(c, store, route)
		if !ok {
			return
		}

		if err := store.ArchiveProduct(c.Request.Context(), product.ID); err != nil {
			if errors.Is(err, orders.ErrProductNotFound) {
				respondWithError(c, http.StatusNotFound, route, "product not found")
				return
			}
			log.Printf("[%s] [ERROR] archive failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "internal server error")
			return
		}

		respondMessage(c, http.StatusOK, "product archived")
	}
}
