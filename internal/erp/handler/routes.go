package handler

import (
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Register mounts the ERP routes on an authenticated group. Reads are open
// to every signed-in user; writes need the owning department's role.
func (h *Handlers) Register(api *gin.RouterGroup, stream gin.HandlerFunc) {
	inventory := middleware.RequireRole(middleware.RoleInventory)
	rawMaterial := middleware.RequireRole(middleware.RoleRawMaterial, middleware.RoleInventory)
	production := middleware.RequireRole(middleware.RoleProduction)
	orders := middleware.RequireRole(middleware.RoleOrders)
	admin := middleware.RequireRole(middleware.RoleAdmin)

	// 产品
	products := api.Group("/products")
	{
		products.GET("", h.Product.List)
		products.GET("/:id", h.Product.Get)
		products.POST("", inventory, h.Product.Create)
		products.PUT("/:id", inventory, h.Product.Update)
		products.DELETE("/:id", inventory, h.Product.Delete)
		products.POST("/:id/image", inventory, h.Product.UploadImage)
		products.GET("/:id/recipe", h.Product.GetRecipe)
		products.PUT("/:id/recipe", middleware.RequireRole(middleware.RoleInventory, middleware.RoleProduction), h.Product.SaveRecipe)
		products.DELETE("/:id/recipe", inventory, h.Product.DeleteRecipe)
		products.GET("/:id/individual-products", h.Product.ListIndividual)
	}

	units := api.Group("/individual-products")
	{
		units.GET("", h.Product.ListIndividual)
		units.GET("/:id", h.Product.GetIndividual)
		units.PUT("/:id", middleware.RequireRole(middleware.RoleInventory, middleware.RoleProduction), h.Product.UpdateIndividual)
	}

	// 原材料与库存流水
	materials := api.Group("/raw-materials")
	{
		materials.GET("", h.Inventory.List)
		materials.GET("/low-stock", h.Inventory.LowStock)
		materials.GET("/:id", h.Inventory.Get)
		materials.POST("", rawMaterial, h.Inventory.Create)
		materials.PUT("/:id", rawMaterial, h.Inventory.Update)
		materials.DELETE("/:id", rawMaterial, h.Inventory.Delete)
		materials.POST("/:id/adjust", rawMaterial, h.Inventory.Adjust)
	}
	api.GET("/stock-movements", h.Inventory.Movements)

	suppliers := api.Group("/suppliers")
	{
		suppliers.GET("", h.Supplier.List)
		suppliers.GET("/:id", h.Supplier.Get)
		suppliers.POST("", rawMaterial, h.Supplier.Create)
		suppliers.PUT("/:id", rawMaterial, h.Supplier.Update)
		suppliers.DELETE("/:id", rawMaterial, h.Supplier.Delete)
	}

	// 采购订单
	pos := api.Group("/purchase-orders")
	{
		pos.GET("", h.Procurement.ListPOs)
		pos.GET("/:id", h.Procurement.GetPO)
		pos.POST("", rawMaterial, h.Procurement.CreatePO)
		pos.PUT("/:id/status", rawMaterial, h.Procurement.UpdateStatus)
	}

	machines := api.Group("/machines")
	{
		machines.GET("", h.MasterData.ListMachines)
		machines.GET("/:id", h.MasterData.GetMachine)
		machines.POST("", production, h.MasterData.CreateMachine)
		machines.PUT("/:id", production, h.MasterData.UpdateMachine)
	}

	dropdowns := api.Group("/dropdowns")
	{
		dropdowns.GET("", h.MasterData.ListDropdowns)
		dropdowns.POST("", admin, h.MasterData.CreateDropdown)
		dropdowns.PUT("/:id", admin, h.MasterData.UpdateDropdown)
		dropdowns.DELETE("/:id", admin, h.MasterData.DeleteDropdown)
	}

	// 生产计划
	planning := api.Group("/planning/:product_id", production)
	{
		planning.GET("/requirements", h.Planning.Requirements)
		planning.GET("/draft", h.Planning.GetDraft)
		planning.PUT("/draft", h.Planning.SaveDraft)
		planning.DELETE("/draft", h.Planning.DeleteDraft)
		planning.POST("/materials", h.Planning.AddMaterials)
	}

	// 生产批次
	batches := api.Group("/production")
	{
		batches.GET("/batches", h.Production.ListBatches)
		batches.GET("/batches/:id", h.Production.GetBatch)
		batches.GET("/batches/:id/flow", h.Production.Flow)
		batches.GET("/batches/:id/consumptions", h.Production.Consumptions)
		batches.GET("/waste", h.Production.ListWaste)
		batches.POST("/batches", production, h.Production.CreateBatch)
		batches.POST("/start", production, h.Production.Start)
		batches.POST("/batches/:id/cancel", production, h.Production.Cancel)
		batches.POST("/batches/:id/steps", production, h.Production.AddMachineStep)
		batches.POST("/batches/:id/steps/:step_id/complete", production, h.Production.CompleteStep)
		batches.POST("/batches/:id/waste", production, h.Production.CompleteWaste)
		batches.POST("/batches/:id/waste/skip", production, h.Production.SkipWaste)
		batches.POST("/batches/:id/complete", production, h.Production.Complete)
		batches.POST("/batches/:id/complete/skip", production, h.Production.SkipCompletion)
	}

	customers := api.Group("/customers")
	{
		customers.GET("", h.Customer.List)
		customers.GET("/:id", h.Customer.Get)
		customers.POST("", orders, h.Customer.Create)
		customers.PUT("/:id", orders, h.Customer.Update)
		customers.DELETE("/:id", orders, h.Customer.Delete)
	}

	// 销售订单
	orderGroup := api.Group("/orders")
	{
		orderGroup.GET("", h.Order.List)
		orderGroup.GET("/:id", h.Order.Get)
		orderGroup.POST("", orders, h.Order.Create)
		orderGroup.PUT("/:id/status", orders, h.Order.UpdateStatus)
		orderGroup.PUT("/:id/items/:item_id/units", orders, h.Order.SelectUnits)
		orderGroup.POST("/:id/payments", orders, h.Order.RecordPayment)
	}

	notifications := api.Group("/notifications")
	{
		notifications.GET("", h.Notification.List)
		notifications.GET("/unread-count", h.Notification.UnreadCount)
		notifications.PUT("/read-all", h.Notification.MarkAllRead)
		notifications.PUT("/:id/read", h.Notification.MarkRead)
		notifications.PUT("/:id/dismiss", h.Notification.Dismiss)
		if stream != nil {
			notifications.GET("/stream", stream)
		}
	}

	api.GET("/dashboard", h.Dashboard.Summary)
	api.GET("/reports/inventory", middleware.RequireRole(middleware.RoleInventory, middleware.RoleRawMaterial), h.Dashboard.InventoryReport)
}
