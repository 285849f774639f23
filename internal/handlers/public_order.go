package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/models"
	"storefront/internal/orders"
)

type orderItemRequest struct {
	ProductID string  `json:"productId" binding:"required"`
	Size      string  `json:"size" binding:"required,productsize"`
	Quantity  int     `json:"quantity" binding:"required,gt=0"`
	Price     float64 `json:"price" binding:"gte=0"`
}

type shippingAddressRequest struct {
	FirstName    string `json:"firstName" binding:"required"`
	LastName     string `json:"lastName" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	AddressLine1 string `json:"addressLine1" binding:"required"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city" binding:"required"`
	State        string `json:"state" binding:"required"`
	Pincode      string `json:"pincode" binding:"required,pincode"`
	Country      string `json:"country"`
}

type createOrderRequest struct {
	Items           []orderItemRequest     `json:"items" binding:"required,min=1,dive"`
	TotalAmount     float64                `json:"totalAmount" binding:"required,gt=0"`
	ShippingAddress shippingAddressRequest `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod" binding:"omitempty,oneof=cod online"`
}

type verifyPaymentRequest struct {
	PaymentID string `json:"paymentId" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

func (r createOrderRequest) toInput(caller orders.Caller) orders.PlaceOrderInput {
	lines := make([]orders.Line, 0, len(r.Items))
	for _, item := range r.Items {
		lines = append(lines, orders.Line{
			ProductID: item.ProductID,
			Size:      item.Size,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return orders.PlaceOrderInput{
		UserID:          caller.UserID,
		Items:           lines,
		TotalAmount:     r.TotalAmount,
		ShippingAddress: models.ShippingAddress(r.ShippingAddress),
		PaymentMethod:   r.PaymentMethod,
	}
}

func CreateOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		caller, ok := requireCaller(c, route)
		if !ok {
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		placed, err := svc.Place(c.Request.Context(), req.toInput(caller))
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		respondOK(c, http.StatusCreated, placed)
	}
}

func GetOrders(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders"
		defer handlePanic(c, route)

		caller, ok := requireCaller(c, route)
		if !ok {
			return
		}

		page, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		result, err := svc.ListForUser(c.Request.Context(), caller.UserID, c.Query("status"), page)
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		respondOK(c, http.StatusOK, result)
	}
}

func GetOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:orderId"
		defer handlePanic(c, route)

		caller, ok := requireCaller(c, route)
		if !ok {
			return
		}

		order, err := svc.GetForUser(c.Request.Context(), c.Param("orderId"), caller)
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		respondOK(c, http.StatusOK, order)
	}
}

func CancelOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:orderId/cancel"
		defer handlePanic(c, route)

		caller, ok := requireCaller(c, route)
		if !ok {
			return
		}

		order, err := svc.Cancel(c.Request.Context(), c.Param("orderId"), caller)
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		respondOK(c, http.StatusOK, order)
	}
}

// StartPayment opens a gateway order. keyID is the public key the checkout
// widget needs alongside the gateway order id.
func StartPayment(svc *orders.Service, keyID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:orderId/payment"
		defer handlePanic(c, route)

		caller, ok := requireCaller(c, route)
		if !ok {
			return
		}

		remote, err := svc.StartPayment(c.Request.Context(), c.Param("orderId"), caller)
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		respondOK(c, http.StatusCreated, gin.H{
			"gatewayOrderId": remote.ID,
			"amount":         remote.Amount,
			"currency":       remote.Currency,
			"receipt":        remote.Receipt,
			"keyId":          keyID,
		})
	}
}

func VerifyPayment(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:orderId/payment/verify"
		defer handlePanic(c, route)

		caller, ok := requireCaller(c, route)
		if !ok {
			return
		}

		var req verifyPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		order, err := svc.VerifyPayment(c.Request.Context(), c.Param("orderId"), caller, req.PaymentID, req.Signature)
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		respondOK(c, http.StatusOK, order)
	}
}
