package repository

import (
	"context"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"gorm.io/gorm"
)

type MachineRepository struct {
	db *gorm.DB
}

func NewMachineRepository(db *gorm.DB) *MachineRepository {
	return &MachineRepository{db: db}
}

func (r *MachineRepository) Create(ctx context.Context, m *entity.Machine) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MachineRepository) GetByID(ctx context.Context, id string) (*entity.Machine, error) {
	var m entity.Machine
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *MachineRepository) Update(ctx context.Context, m *entity.Machine) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *MachineRepository) List(ctx context.Context, status string) ([]entity.Machine, error) {
	query := r.db.WithContext(ctx).Model(&entity.Machine{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var list []entity.Machine
	err := query.Order("name ASC").Find(&list).Error
	return list, err
}

type DropdownRepository struct {
	db *gorm.DB
}

func NewDropdownRepository(db *gorm.DB) *DropdownRepository {
	return &DropdownRepository{db: db}
}

func (r *DropdownRepository) Create(ctx context.Context, o *entity.DropdownOption) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *DropdownRepository) GetByID(ctx context.Context, id string) (*entity.DropdownOption, error) {
	var o entity.DropdownOption
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (r *DropdownRepository) Update(ctx context.Context, o *entity.DropdownOption) error {
	return r.db.WithContext(ctx).Save(o).Error
}

func (r *DropdownRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.DropdownOption{}).Error
}

// List options of a category; all categories when category is empty.
func (r *DropdownRepository) List(ctx context.Context, category string, activeOnly bool) ([]entity.DropdownOption, error) {
	query := r.db.WithContext(ctx).Model(&entity.DropdownOption{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var list []entity.DropdownOption
	err := query.Order("category ASC, display_order ASC, value ASC").Find(&list).Error
	return list, err
}
