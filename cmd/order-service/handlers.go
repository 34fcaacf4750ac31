package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"resto-orders/internal/order"
)

// HTTPError is the standard JSON error envelope.
// swagger:model
type HTTPError struct {
	Error string `json:"error"`
}

func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrNotFound):
		c.JSON(http.StatusNotFound, HTTPError{Error: err.Error()})
	case errors.Is(err, order.ErrValidation), errors.Is(err, order.ErrInvalidOperation):
		c.JSON(http.StatusBadRequest, HTTPError{Error: err.Error()})
	case errors.Is(err, order.ErrConflict):
		c.JSON(http.StatusConflict, HTTPError{Error: err.Error()})
	default:
		rid, _ := c.Get("rid")
		log.Printf("[order-service] rid=%v %s %s: %v", rid, c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, HTTPError{Error: "internal error"})
	}
}

func orderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, HTTPError{Error: "invalid order id"})
		return 0, false
	}
	return id, true
}

// createOrderHandler places a new order.
// @Summary Create order
// @Accept json
// @Produce json
// @Param request body order.CreateRequest true "order"
// @Success 201 {object} order.Response
// @Failure 400 {object} HTTPError
// @Failure 404 {object} HTTPError
// @Router /orders [post]
func createOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, HTTPError{Error: "invalid json"})
			return
		}
		res, err := svc.Create(c.Request.Context(), req)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	}
}

// getOrderHandler returns one order with all joins.
// @Summary Get order by id
// @Produce json
// @Param id path int true "order id"
// @Success 200 {object} order.Response
// @Failure 404 {object} HTTPError
// @Router /orders/{id} [get]
func getOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderID(c)
		if !ok {
			return
		}
		res, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func listOrdersHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.List(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": res})
	}
}

// confirmOrderHandler confirms an order on behalf of the staff member
// identified by the X-Staff-ID header.
func confirmOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderID(c)
		if !ok {
			return
		}
		var req order.ConfirmRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, HTTPError{Error: "invalid json"})
				return
			}
		}
		res, err := svc.Confirm(c.Request.Context(), id, c.GetHeader("X-Staff-ID"), req)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func startPreparingHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderID(c)
		if !ok {
			return
		}
		res, err := svc.StartPreparing(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func markPreparedHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderID(c)
		if !ok {
			return
		}
		res, err := svc.MarkPrepared(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func assignDeliveryHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderID(c)
		if !ok {
			return
		}
		var req struct {
			DeliveryPersonID string `json:"delivery_person_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, HTTPError{Error: "invalid json"})
			return
		}
		res, err := svc.AssignDeliveryPerson(c.Request.Context(), id, req.DeliveryPersonID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func markDeliveredHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderID(c)
		if !ok {
			return
		}
		res, err := svc.MarkDelivered(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func cancelOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderID(c)
		if !ok {
			return
		}
		var req struct {
			Reason string `json:"reason"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, HTTPError{Error: "invalid json"})
			return
		}
		res, err := svc.Cancel(c.Request.Context(), id, req.Reason)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func processPaymentHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderID(c)
		if !ok {
			return
		}
		var req struct {
			Method order.PaymentMethod `json:"method"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, HTTPError{Error: "invalid json"})
			return
		}
		res, err := svc.ProcessPayment(c.Request.Context(), id, req.Method)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func updatePaymentStatusHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderID(c)
		if !ok {
			return
		}
		var req struct {
			Status string `json:"status"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, HTTPError{Error: "invalid json"})
			return
		}
		res, err := svc.UpdatePaymentStatus(c.Request.Context(), id, req.Status)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// updateOrderHandler applies a sparse patch; empty fields are left alone.
func updateOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderID(c)
		if !ok {
			return
		}
		var req order.UpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, HTTPError{Error: "invalid json"})
			return
		}
		res, err := svc.Update(c.Request.Context(), id, req)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func deleteOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderID(c)
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// addItemHandler adds a line item while the order is still in New.
// @Summary Add line item
// @Accept json
// @Produce json
// @Param id path int true "order id"
// @Param request body order.AddItemRequest true "item"
// @Success 200 {object} order.Response
// @Failure 400 {object} HTTPError
// @Router /orders/{id}/items [post]
func addItemHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderID(c)
		if !ok {
			return
		}
		var req order.AddItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, HTTPError{Error: "invalid json"})
			return
		}
		res, err := svc.AddItem(c.Request.Context(), id, req)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func removeItemHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderID(c)
		if !ok {
			return
		}
		productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
		if err != nil || productID <= 0 {
			c.JSON(http.StatusBadRequest, HTTPError{Error: "invalid product id"})
			return
		}
		res, err := svc.RemoveItem(c.Request.Context(), id, productID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func listByStatusHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.ListByStatus(c.Request.Context(), order.Status(c.Param("status")))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": res})
	}
}

func listByCustomerHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.ListByCustomer(c.Request.Context(), c.Param("customer_id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": res})
	}
}

func listByDeliveryPersonHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.ListByDeliveryPerson(c.Request.Context(), c.Param("person_id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": res})
	}
}

func pendingDeliveryHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.PendingDelivery(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": res})
	}
}

func kitchenQueueHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.KitchenQueue(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": res})
	}
}

func countByStatusHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := svc.CountByStatus(c.Request.Context(), order.Status(c.Param("status")))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": c.Param("status"), "count": n})
	}
}

// dailyRevenueHandler reports revenue for ?date=YYYY-MM-DD (default today).
func dailyRevenueHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		day := time.Now().UTC()
		if d := c.Query("date"); d != "" {
			parsed, err := time.Parse("2006-01-02", d)
			if err != nil {
				c.JSON(http.StatusBadRequest, HTTPError{Error: "invalid date, expected YYYY-MM-DD"})
				return
			}
			day = parsed
		}
		rev, err := svc.DailyRevenue(c.Request.Context(), day)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"date": day.Format("2006-01-02"), "revenue": rev})
	}
}

func statsHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Stats(c.Request.Context(), time.Now().UTC())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
