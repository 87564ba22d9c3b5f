package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories ERP repository set
type Repositories struct {
	Product           *ProductRepository
	Recipe            *RecipeRepository
	RawMaterial       *RawMaterialRepository
	IndividualProduct *IndividualProductRepository
	StockMovement     *StockMovementRepository
	Supplier          *SupplierRepository
	Purchase          *PurchaseRepository
	Production        *ProductionRepository
	Customer          *CustomerRepository
	Order             *OrderRepository
	Notification      *NotificationRepository
	Machine           *MachineRepository
	Dropdown          *DropdownRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Product:           NewProductRepository(db),
		Recipe:            NewRecipeRepository(db),
		RawMaterial:       NewRawMaterialRepository(db),
		IndividualProduct: NewIndividualProductRepository(db),
		StockMovement:     NewStockMovementRepository(db),
		Supplier:          NewSupplierRepository(db),
		Purchase:          NewPurchaseRepository(db),
		Production:        NewProductionRepository(db),
		Customer:          NewCustomerRepository(db),
		Order:             NewOrderRepository(db),
		Notification:      NewNotificationRepository(db),
		Machine:           NewMachineRepository(db),
		Dropdown:          NewDropdownRepository(db),
	}
}

// WithTx returns a repository set bound to tx.
func (r *Repositories) WithTx(tx *gorm.DB) *Repositories {
	return NewRepositories(tx)
}

func normalizePage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 200 {
		size = 200
	}
	return page, size
}

func paginate(query *gorm.DB, page, size int) *gorm.DB {
	page, size = normalizePage(page, size)
	return query.Offset((page - 1) * size).Limit(size)
}

func likePattern(keyword string) string {
	return "%" + strings.ToLower(strings.TrimSpace(keyword)) + "%"
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
