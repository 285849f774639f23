package handlers

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/orders"
)

// ProductStore is the catalog surface the product handlers need.
type ProductStore interface {
	FindProduct(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	ListProducts(ctx context.Context, filter database.ProductFilter, page orders.Page) ([]models.Product, int64, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	ReplaceProduct(ctx context.Context, p models.Product) error
	ArchiveProduct(ctx context.Context, id primitive.ObjectID) error
}

type productPage struct {
	Products   []models.Product  `json:"products"`
	Pagination orders.Pagination `json:"pagination"`
}

func newProductPage(products []models.Product, total int64, page orders.Page) productPage {
	pages := int64(0)
	if total > 0 {
		pages = int64(math.Ceil(float64(total) / float64(page.Limit)))
	}
	return productPage{
		Products:   products,
		Pagination: orders.Pagination{Page: page.Page, Limit: page.Limit, Total: total, Pages: pages},
	}
}

// GetProducts lists published, active products for the storefront.
func GetProducts(store ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"
		defer handlePanic(c, route)

		filter := database.ProductFilter{
			Category:   strings.TrimSpace(c.Query("category")),
			Search:     strings.TrimSpace(c.Query("search")),
			PublicOnly: true,
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

func GetProduct(store ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/:id"
		defer handlePanic(c, route)

		product, ok := loadProduct(c, store, route)
		if !ok {
			return
		}
		if !product.Available() || product.Status != models.ProductStatusPublished {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}

		respondOK(c, http.StatusOK, product)
	}
}

// loadProduct writes the error response itself when it returns false.
func loadProduct(c *gin.Context, store ProductStore, route string) (models.Product, bool) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("id")))
	if err != nil {
		respondWithError(c, http.StatusBadRequest, route, "invalid id")
		return models.Product{}, false
	}

	product, err := store.FindProduct(c.Request.Context(), id)
	if errors.Is(err, orders.ErrProductNotFound) {
		respondWithError(c, http.StatusNotFound, route, "product not found")
		return models.Product{}, false
	}
	if err != nil {
		log.Printf("[%s] [ERROR] lookup failed: %v", route, err)
		respondWithError(c, http.StatusInternalServerError, route, "internal server error")
		return models.Product{}, false
	}
	return product, true
}
