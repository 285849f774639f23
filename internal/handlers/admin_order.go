package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/orders"
)

type updateStatusRequest struct {
	Status string `json:"status" binding:"required,orderstatus"`
}

func GetAllOrders(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders"
		defer handlePanic(c, route)

		page, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		result, err := svc.ListAdmin(c.Request.Context(), orders.AdminQuery{
			Status:        c.Query("status"),
			PaymentStatus: c.Query("paymentStatus"),
			Search:        c.Query("search"),
			UserID:        c.Query("customerId"),
			Page:          page,
		})
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		respondOK(c, http.StatusOK, result)
	}
}

func GetOrderAdmin(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders/:orderId"
		defer handlePanic(c, route)

		order, err := svc.GetAdmin(c.Request.Context(), c.Param("orderId"))
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		respondOK(c, http.StatusOK, order)
	}
}

func UpdateOrderStatus(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /admin/api/orders/:orderId/status"
		defer handlePanic(c, route)

		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		order, err := svc.UpdateStatus(c.Request.Context(), c.Param("orderId"), req.Status)
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		respondOK(c, http.StatusOK, order)
	}
}

// DeleteOrder archives the order; the document stays for history.
func DeleteOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/orders/:orderId"
		defer handlePanic(c, route)

		if err := svc.Archive(c.Request.Context(), c.Param("orderId")); err != nil {
			respondOrderError(c, route, err)
			return
		}

		respondMessage(c, http.StatusOK, "order deleted")
	}
}
