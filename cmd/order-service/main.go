package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"resto-orders/internal/address"
	"resto-orders/internal/config"
	"resto-orders/internal/customer"
	"resto-orders/internal/httpx"
	"resto-orders/internal/order"
	"resto-orders/internal/product"
)

// @title Resto Orders API
// @version 1.0
// @description Order lifecycle and fulfillment service for the restaurant backend.
// @BasePath /
func main() {
	cfg := config.Load()

	pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[order-service] postgres: %v", err)
	}
	defer pool.Close()

	svc := order.NewService(
		order.NewPGRepo(pool),
		customer.NewPGRepo(pool),
		address.NewPGRepo(pool),
		product.NewPGRepo(pool),
	)

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger())

	r.GET("/healthz", func(c *gin.Context) { c.String(200, "ok") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	registerRoutes(r, svc)

	log.Printf("[order-service] listening on %s", cfg.OrderSvcAddr)
	log.Fatal(r.Run(cfg.OrderSvcAddr))
}

func registerRoutes(r *gin.Engine, svc *order.Service) {
	r.POST("/orders", createOrderHandler(svc))
	r.GET("/orders", listOrdersHandler(svc))
	r.GET("/orders/:id", getOrderHandler(svc))
	r.PUT("/orders/:id", updateOrderHandler(svc))
	r.DELETE("/orders/:id", deleteOrderHandler(svc))

	r.PUT("/orders/:id/confirm", confirmOrderHandler(svc))
	r.PUT("/orders/:id/prepare", startPreparingHandler(svc))
	r.PUT("/orders/:id/ready", markPreparedHandler(svc))
	r.PUT("/orders/:id/assign", assignDeliveryHandler(svc))
	r.PUT("/orders/:id/deliver", markDeliveredHandler(svc))
	r.PUT("/orders/:id/cancel", cancelOrderHandler(svc))
	r.PUT("/orders/:id/payment", processPaymentHandler(svc))
	r.PUT("/orders/:id/payment-status", updatePaymentStatusHandler(svc))

	r.POST("/orders/:id/items", addItemHandler(svc))
	r.DELETE("/orders/:id/items/:product_id", removeItemHandler(svc))

	r.GET("/orders/status/:status", listByStatusHandler(svc))
	r.GET("/orders/customer/:customer_id", listByCustomerHandler(svc))
	r.GET("/orders/delivery-person/:person_id", listByDeliveryPersonHandler(svc))
	r.GET("/orders/queue/delivery", pendingDeliveryHandler(svc))
	r.GET("/orders/queue/kitchen", kitchenQueueHandler(svc))
	r.GET("/orders/stats/count/:status", countByStatusHandler(svc))
	r.GET("/orders/stats/revenue", dailyRevenueHandler(svc))
	r.GET("/orders/stats", statsHandler(svc))
}
