package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/KavishaPerera/Wash-TUB-sub000/internal/auth"
	"github.com/KavishaPerera/Wash-TUB-sub000/internal/catalog"
	"github.com/KavishaPerera/Wash-TUB-sub000/internal/httpx"
	"github.com/KavishaPerera/Wash-TUB-sub000/internal/order"
)

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func identity(c *gin.Context) (auth.Identity, bool) {
	ident, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return ident, ok
}

// POST /orders
func placeOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := identity(c)
		if !ok {
			return
		}
		var req order.PlaceOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		o, err := svc.PlaceOrder(c.Request.Context(), ident, req)
		if err != nil {
			httpx.JSONError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"order_id":     o.ID,
			"order_number": o.OrderNumber,
			"total":        o.Total,
		})
	}
}

// GET /orders/:id
func getOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := identity(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}
		o, err := svc.GetOrder(c.Request.Context(), id, ident)
		if err != nil {
			httpx.JSONError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// GET /orders/number/:number
func getOrderByNumberHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := identity(c)
		if !ok {
			return
		}
		o, err := svc.GetOrderByNumber(c.Request.Context(), c.Param("number"), ident)
		if err != nil {
			httpx.JSONError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// GET /orders?status=&customer_id=&limit=
func listOrdersHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := identity(c)
		if !ok {
			return
		}
		var f order.ListFilter
		f.Status = order.Status(c.Query("status"))
		f.CustomerID, _ = strconv.ParseInt(c.Query("customer_id"), 10, 64)
		f.Limit, _ = strconv.Atoi(c.Query("limit"))
		orders, err := svc.ListOrders(c.Request.Context(), ident, f)
		if err != nil {
			httpx.JSONError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

// GET /orders/mine
func listMyOrdersHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := identity(c)
		if !ok {
			return
		}
		orders, err := svc.ListMyOrders(c.Request.Context(), ident.UserID)
		if err != nil {
			httpx.JSONError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

// PUT /orders/:id/status
func updateOrderStatusHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := identity(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req order.UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if err := svc.UpdateStatus(c.Request.Context(), id, req.Status, ident); err != nil {
			httpx.JSONError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order_id": id, "status": req.Status})
	}
}

// GET /orders/stats
func orderStatsHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := identity(c)
		if !ok {
			return
		}
		stats, err := svc.GetStats(c.Request.Context(), ident)
		if err != nil {
			httpx.JSONError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// GET /services (public)
func listServicesHandler(mgr *catalog.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		services, err := mgr.ListActiveServices(c.Request.Context())
		if err != nil {
			httpx.JSONError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"services": services})
	}
}

// POST /services
func createServiceHandler(mgr *catalog.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := identity(c)
		if !ok {
			return
		}
		var req catalog.CreateServiceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		s, err := mgr.CreateService(c.Request.Context(), ident, req)
		if err != nil {
			httpx.JSONError(c, err)
			return
		}
		c.JSON(http.StatusCreated, s)
	}
}

// PUT /services/:id
func updateServiceHandler(mgr *catalog.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := identity(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req catalog.UpdateServiceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		s, err := mgr.UpdateService(c.Request.Context(), ident, id, req)
		if err != nil {
			httpx.JSONError(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

// PUT /services/:id/active
func setServiceActiveHandler(mgr *catalog.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := identity(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req struct {
			Active *bool `json:"is_active"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if err := mgr.SetServiceActive(c.Request.Context(), ident, id, *req.Active); err != nil {
			httpx.JSONError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"service_id": id, "is_active": *req.Active})
	}
}

// DELETE /services/:id
func deleteServiceHandler(mgr *catalog.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := identity(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := mgr.DeleteService(c.Request.Context(), ident, id); err != nil {
			httpx.JSONError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

// GET /services/:id/price-history
func priceHistoryHandler(mgr *catalog.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := identity(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}
		history, err := mgr.GetServicePriceHistory(c.Request.Context(), ident, id)
		if err != nil {
			httpx.JSONError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"service_id": id, "history": history})
	}
}
