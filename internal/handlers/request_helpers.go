package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/middleware"
	"storefront/internal/orders"
)

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		log.Printf("[%s] panic recovered: %v", route, r)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal server error"})
	}
}

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": true, "message": message})
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	log.Printf("[%s] returning error %d: %s", route, status, message)
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

func respondWithDetails(c *gin.Context, status int, route, message string, details []string) {
	log.Printf("[%s] returning error %d: %s %v", route, status, message, details)
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message, "errors": details})
}

// respondOrderError maps workflow errors onto HTTP statuses. Anything it does
// not recognise is logged and reported as a generic 500.
func respondOrderError(c *gin.Context, route string, err error) {
	var (
		verr        *orders.ValidationError
		stockErr    *orders.InsufficientStockError
		unavailable *orders.ProductUnavailableError
		mismatch    *orders.PriceMismatchError
		transition  *orders.TransitionError
		payErr      *orders.PaymentError
	)

	switch {
	case errors.As(err, &verr):
		respondWithDetails(c, http.StatusBadRequest, route, "validation failed", verr.Details)
	case errors.Is(err, orders.ErrInvalidArgument):
		respondWithError(c, http.StatusBadRequest, route, "invalid order id")
	case errors.As(err, &stockErr):
		respondWithError(c, http.StatusBadRequest, route, stockErr.Error())
	case errors.As(err, &unavailable):
		respondWithError(c, http.StatusBadRequest, route, unavailable.Error())
	case errors.As(err, &mismatch):
		respondWithError(c, http.StatusBadRequest, route, mismatch.Error())
	case errors.Is(err, orders.ErrProductNotFound):
		respondWithError(c, http.StatusBadRequest, route, err.Error())
	case errors.As(err, &payErr):
		respondWithError(c, http.StatusBadRequest, route, payErr.Error())
	case errors.Is(err, orders.ErrAccessDenied):
		respondWithError(c, http.StatusForbidden, route, "access denied")
	case errors.Is(err, orders.ErrNotFound):
		respondWithError(c, http.StatusNotFound, route, "order not found")
	case errors.As(err, &transition):
		respondWithError(c, http.StatusConflict, route, transition.Error())
	case errors.Is(err, orders.ErrConflict):
		respondWithError(c, http.StatusConflict, route, "order was modified, retry")
	default:
		log.Printf("[%s] [ERROR] request %s failed: %v", route, middleware.RequestIDFrom(c), err)
		respondWithError(c, http.StatusInternalServerError, route, "internal server error")
	}
}

func requireCaller(c *gin.Context, route string) (orders.Caller, bool) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
		return orders.Caller{}, false
	}
	return caller, true
}
