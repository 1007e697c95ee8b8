package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/handlers"
	"github.com/Skotchmaster/shop_api/internal/session"
)

type Deps struct {
	DB           *gorm.DB
	Session      *session.Middleware
	AuthHandler  *handlers.AuthHandler
	ItemHandler  *handlers.ItemHandler
	CartHandler  *handlers.CartHandler
	UserHandler  *handlers.UserHandler
	OrderHandler *handlers.OrderHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1", d.Session.WithIdentity)

	v1.POST("/signup", d.AuthHandler.Signup)
	v1.POST("/signin", d.AuthHandler.Signin)
	v1.POST("/signout", d.AuthHandler.Signout)
	v1.POST("/request-reset", d.AuthHandler.RequestReset)
	v1.POST("/reset-password", d.AuthHandler.ResetPassword)

	v1.GET("/me", d.UserHandler.Me)
	v1.GET("/users", d.UserHandler.Users)
	v1.POST("/users/:id/permissions", d.UserHandler.UpdatePermissions)

	v1.GET("/items", d.ItemHandler.GetItems)
	v1.GET("/items/:id", d.ItemHandler.GetItem)
	v1.POST("/items", d.ItemHandler.CreateItem)
	v1.PATCH("/items/:id", d.ItemHandler.UpdateItem)
	v1.DELETE("/items/:id", d.ItemHandler.DeleteItem)
	v1.GET("/search", d.ItemHandler.SearchItems)

	v1.GET("/cart", d.CartHandler.GetCart)
	v1.POST("/cart", d.CartHandler.AddToCart)
	v1.POST("/cart/order", d.CartHandler.Checkout)
	v1.DELETE("/cart/:id", d.CartHandler.RemoveFromCart)

	v1.GET("/orders", d.OrderHandler.GetOrders)
	v1.GET("/orders/:id", d.OrderHandler.GetOrder)
}
