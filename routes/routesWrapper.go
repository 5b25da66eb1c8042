package routes

import (
	"fmt"
	"net/http"

	"kiosk/middleware"
	"kiosk/ratelim"

	"github.com/julienschmidt/httprouter"
)

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func RoutesWrapper(router *httprouter.Router, h *Handlers, rateLimiter *ratelim.RateLimiter) {
	router.GET("/health", Index)
	AddAuthRoutes(router, h, rateLimiter)
	AddHomeRoutes(router, h)
	AddProductRoutes(router, h)
	AddCartRoutes(router, h, rateLimiter)
	AddWalletRoutes(router, h, rateLimiter)
	AddOrderRoutes(router, h)
}

func AddAuthRoutes(router *httprouter.Router, h *Handlers, rateLimiter *ratelim.RateLimiter) {
	router.POST("/api/auth/login", middleware.Chain(rateLimiter.Limit)(h.Login))
	router.POST("/api/auth/register", middleware.Chain(rateLimiter.Limit)(h.Register))
	router.POST("/api/auth/logout", h.Logout)
}

func AddHomeRoutes(router *httprouter.Router, h *Handlers) {
	router.GET("/api/home", h.Home)
}

func AddProductRoutes(router *httprouter.Router, h *Handlers) {
	router.GET("/api/products", h.ListProducts)
	router.POST("/api/products", h.CreateProduct)
	router.PUT("/api/products/:id", h.UpdateProduct)
	router.DELETE("/api/products/:id", h.DeleteProduct)
}

func AddCartRoutes(router *httprouter.Router, h *Handlers, rateLimiter *ratelim.RateLimiter) {
	router.GET("/api/cart", h.Cart)
	router.DELETE("/api/cart", h.ClearCart)
	router.POST("/api/cart/items", h.AddCartItem)
	router.PUT("/api/cart/items/:id", h.UpdateCartItem)
	router.DELETE("/api/cart/items/:id", h.RemoveCartItem)
	router.POST("/api/cart/delivery", h.SelectDelivery)
	router.POST("/api/cart/checkout", middleware.Chain(rateLimiter.Limit)(h.Checkout))
	router.POST("/api/cart/dismiss", h.DismissCart)
	router.GET("/api/cart/receipt", h.ConfirmationReceipt)
}

func AddWalletRoutes(router *httprouter.Router, h *Handlers, rateLimiter *ratelim.RateLimiter) {
	router.GET("/api/wallet", h.Wallet)
	router.GET("/api/wallet/options", h.WalletOptions)
	router.POST("/api/wallet/fund", middleware.Chain(rateLimiter.Limit)(h.FundWallet))
}

func AddOrderRoutes(router *httprouter.Router, h *Handlers) {
	router.GET("/api/orders", h.Orders)
	router.POST("/api/orders/:id/toggle", h.ToggleOrder)
	router.GET("/api/orders/:id/receipt", h.OrderReceipt)
}
