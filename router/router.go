package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/table-service/config"
	"github.com/yeremiapane/table-service/controllers"
	"github.com/yeremiapane/table-service/kds"
	"github.com/yeremiapane/table-service/middlewares"
	"github.com/yeremiapane/table-service/models"
	"github.com/yeremiapane/table-service/services"
)

// SetupRouter builds the HTTP surface over the services. hub receives the
// realtime events and serves the kitchen display socket.
func SetupRouter(db *gorm.DB, cfg *config.Config, hub *kds.Hub) *gin.Engine {
	svc := services.New(db, cfg.Rules, hub)
	return NewEngine(svc, cfg, hub)
}

// NewEngine wires controllers over already constructed services.
func NewEngine(svc *services.Services, cfg *config.Config, hub *kds.Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.CORSOrigin))
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.NewRateLimiter(50, 100).RateLimit())

	auth := middlewares.NewAuthenticator(cfg.JWTSecret, svc.Accounts)

	accountCtrl := controllers.NewAccountController(svc.Accounts, cfg.JWTSecret)
	menuCtrl := controllers.NewMenuController(svc)
	orderCtrl := controllers.NewOrderController(svc)
	billingCtrl := controllers.NewBillingController(svc.Billing)
	waiterCtrl := controllers.NewWaiterController(svc)
	adminCtrl := controllers.NewAdminController(svc)
	kdsCtrl := controllers.NewKDSController(hub, svc.Kitchen, cfg.CORSOrigin)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	public := r.Group("/")
	public.Use(middlewares.NewLoginRateLimiter().RateLimit())
	{
		public.POST("/register", accountCtrl.Register)
		public.POST("/customer/login", accountCtrl.CustomerLogin)
		public.POST("/employee/login", accountCtrl.EmployeeLogin)
	}

	r.GET("/menu", auth.Optional(), menuCtrl.GetMenu)
	r.GET("/ws/kds", auth.WebSocket(), kdsCtrl.KDSHandler)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	customer := r.Group("/customer")
	customer.Use(auth.Required(), middlewares.RequireRole(models.RoleCustomer))
	customer.GET("/dashboard", orderCtrl.CustomerDashboard)

	orders := r.Group("/orders")
	orders.Use(auth.Required())
	{
		orders.POST("/cart", middlewares.RequireRole(models.RoleCustomer), orderCtrl.ApplyCart)
		orders.POST("/remove-item", middlewares.RequireRole(models.RoleCustomer), orderCtrl.RemoveItem)
		orders.POST("/item-status", middlewares.RequireRole(models.RoleWaiter, models.RoleChef, models.RoleAdmin), orderCtrl.UpdateItemStatus)
		orders.POST("/:order_id/request-bill", billingCtrl.RequestBill)
		orders.POST("/:order_id/approve-bill", middlewares.RequireRole(models.RoleWaiter, models.RoleAdmin), billingCtrl.ApproveBill)
		orders.POST("/:order_id/settle", middlewares.RequireRole(models.RoleWaiter, models.RoleAdmin), billingCtrl.Settle)
		orders.GET("/:order_id/bill", billingCtrl.GetBill)
	}

	waiter := r.Group("/waiter")
	waiter.Use(auth.Required(), middlewares.RequireRole(models.RoleWaiter, models.RoleAdmin))
	{
		waiter.GET("/dashboard", waiterCtrl.Dashboard)
		waiter.GET("/spots/:spot_id", waiterCtrl.SpotDetail)
		waiter.POST("/spots/:spot_id/release", waiterCtrl.ReleaseSpot)
	}

	chef := r.Group("/chef")
	chef.Use(auth.Required(), middlewares.RequireRole(models.RoleChef, models.RoleAdmin))
	chef.GET("/queue", kdsCtrl.ChefQueue)

	admin := r.Group("/admin")
	admin.Use(auth.Required())
	{
		adminOnly := middlewares.RequireRole(models.RoleAdmin)
		admin.GET("/dashboard", adminOnly, adminCtrl.GetDashboardStats)
		admin.GET("/employees", adminOnly, adminCtrl.ListEmployees)
		admin.POST("/employees", adminOnly, adminCtrl.CreateEmployee)
		admin.PATCH("/employees/:id/toggle", adminOnly, adminCtrl.ToggleEmployee)
		admin.POST("/menu", adminOnly, menuCtrl.CreateMenu)
		admin.PATCH("/menu/:id", adminOnly, menuCtrl.UpdateMenu)
		admin.PATCH("/menu/:id/toggle", middlewares.RequireRole(models.RoleAdmin, models.RoleChef), menuCtrl.ToggleMenu)
		admin.POST("/spots", adminOnly, adminCtrl.CreateSpot)
		admin.PATCH("/spots/:id/waiter", adminOnly, adminCtrl.AssignWaiter)
	}

	return r
}
