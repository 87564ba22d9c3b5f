package entity

import "gorm.io/gorm"

// AutoMigrate migrates every ERP table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// master data
		&Supplier{},
		&Customer{},
		&Machine{},
		&DropdownOption{},

		// catalogue and stock
		&Product{},
		&Recipe{},
		&RecipeMaterial{},
		&RawMaterial{},
		&IndividualProduct{},
		&StockMovement{},

		// procurement
		&PurchaseOrder{},

		// production
		&ProductionBatch{},
		&MaterialConsumption{},
		&ProductionFlow{},
		&ProductionFlowStep{},
		&WasteRecord{},

		// sales
		&Order{},
		&OrderItem{},

		&Notification{},
	)
}
