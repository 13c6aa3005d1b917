package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/LIGAWA25471/Villadelsolrms/internal/realtime"
	"github.com/LIGAWA25471/Villadelsolrms/internal/service"
	"github.com/LIGAWA25471/Villadelsolrms/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers. This layer stays thin: branch and
// staff scoping comes off headers (authentication is handled upstream)
// and every engine error maps onto a status code.
type Handler struct {
	orders   *service.OrderService
	kitchen  *service.KitchenService
	payments *service.PaymentService
	hub      *realtime.Hub
}

// NewHandler creates a new HTTP handler
func NewHandler(orders *service.OrderService, kitchen *service.KitchenService, payments *service.PaymentService, hub *realtime.Hub) *Handler {
	return &Handler{
		orders:   orders,
		kitchen:  kitchen,
		payments: payments,
		hub:      hub,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/ws", func(c *gin.Context) {
		h.hub.ServeWS(c.Writer, c.Request)
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.createOrder)
		v1.GET("/orders", h.listOrders)
		v1.GET("/orders/:id", h.getOrder)
		v1.PATCH("/orders/:id/status", h.updateOrderStatus)
		v1.POST("/orders/:id/cancel", h.cancelOrder)

		v1.GET("/kitchen/queue", h.getQueue)
		v1.GET("/kitchen/queue/:id", h.getQueueItem)
		v1.PATCH("/kitchen/queue/:id/status", h.updateQueueStatus)
		v1.PATCH("/kitchen/queue/:id/priority", h.setQueuePriority)

		v1.POST("/payments", h.createPayment)
		v1.GET("/payments", h.listPayments)
		v1.GET("/payments/:id", h.getPayment)
		v1.POST("/payments/:id/process", h.processPayment)
		v1.POST("/payments/:id/refund", h.refundPayment)
		v1.POST("/payments/checkout", h.checkout)
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": time.Now().Unix()})
}

func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready", "time": time.Now().Unix()})
}

func (h *Handler) createOrder(c *gin.Context) {
	branchID, ok := branchScope(c)
	if !ok {
		return
	}

	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), branchID, staffScope(c), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) listOrders(c *gin.Context) {
	branchID, ok := branchScope(c)
	if !ok {
		return
	}

	orders, err := h.orders.ListOrders(c.Request.Context(), branchID, c.Query("status"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) getOrder(c *gin.Context) {
	branchID, ok := branchScope(c)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), branchID, c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	branchID, ok := branchScope(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), branchID, c.Param("id"), req.Status)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) cancelOrder(c *gin.Context) {
	branchID, ok := branchScope(c)
	if !ok {
		return
	}

	order, err := h.orders.CancelOrder(c.Request.Context(), branchID, c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) getQueue(c *gin.Context) {
	branchID, ok := branchScope(c)
	if !ok {
		return
	}

	items, err := h.kitchen.GetQueue(c.Request.Context(), branchID, c.Query("status"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": items})
}

func (h *Handler) getQueueItem(c *gin.Context) {
	branchID, ok := branchScope(c)
	if !ok {
		return
	}

	item, err := h.kitchen.GetQueueItem(c.Request.Context(), branchID, c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) updateQueueStatus(c *gin.Context) {
	branchID, ok := branchScope(c)
	if !ok {
		return
	}

	var req struct {
		Status  string  `json:"status" binding:"required"`
		Station *string `json:"station,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	item, err := h.kitchen.UpdateStatus(c.Request.Context(), branchID, c.Param("id"), req.Status, req.Station)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) setQueuePriority(c *gin.Context) {
	branchID, ok := branchScope(c)
	if !ok {
		return
	}

	var req struct {
		Priority int `json:"priority"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	item, err := h.kitchen.SetPriority(c.Request.Context(), branchID, c.Param("id"), req.Priority)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) createPayment(c *gin.Context) {
	branchID, ok := branchScope(c)
	if !ok {
		return
	}

	var req service.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	payment, err := h.payments.CreatePayment(c.Request.Context(), branchID, staffScope(c), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (h *Handler) listPayments(c *gin.Context) {
	branchID, ok := branchScope(c)
	if !ok {
		return
	}

	payments, err := h.payments.ListPayments(c.Request.Context(), branchID, c.Query("order_id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func (h *Handler) getPayment(c *gin.Context) {
	branchID, ok := branchScope(c)
	if !ok {
		return
	}

	payment, err := h.payments.GetPayment(c.Request.Context(), branchID, c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (h *Handler) processPayment(c *gin.Context) {
	branchID, ok := branchScope(c)
	if !ok {
		return
	}

	var req struct {
		Status        string  `json:"status" binding:"required"`
		TransactionID *string `json:"transaction_id,omitempty"`
		Notes         *string `json:"notes,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	payment, err := h.payments.ProcessPayment(c.Request.Context(), branchID, c.Param("id"),
		req.Status, req.TransactionID, req.Notes)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (h *Handler) refundPayment(c *gin.Context) {
	branchID, ok := branchScope(c)
	if !ok {
		return
	}

	payment, err := h.payments.RefundPayment(c.Request.Context(), branchID, c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (h *Handler) checkout(c *gin.Context) {
	branchID, ok := branchScope(c)
	if !ok {
		return
	}

	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	payment, err := h.payments.Checkout(c.Request.Context(), branchID, staffScope(c), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// branchScope pulls the mandatory tenant boundary off the request
func branchScope(c *gin.Context) (string, bool) {
	branchID := c.GetHeader("X-Branch-ID")
	if branchID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing X-Branch-ID header"})
		return "", false
	}
	return branchID, true
}

func staffScope(c *gin.Context) string {
	return c.GetHeader("X-Staff-ID")
}

// respondErr maps engine errors onto HTTP status codes
func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
