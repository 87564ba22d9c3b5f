package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/google/uuid"
)

// MasterDataService machines and configurable dropdown lists
type MasterDataService struct {
	machines  *repository.MachineRepository
	dropdowns *repository.DropdownRepository
}

func NewMasterDataService(machines *repository.MachineRepository, dropdowns *repository.DropdownRepository) *MasterDataService {
	return &MasterDataService{machines: machines, dropdowns: dropdowns}
}

type MachineRequest struct {
	Name        string `json:"name" binding:"required"`
	MachineType string `json:"machine_type"`
	Model       string `json:"model"`
	Location    string `json:"location"`
	Status      string `json:"status" binding:"omitempty,oneof=active maintenance inactive"`
	Notes       string `json:"notes"`
}

func (s *MasterDataService) CreateMachine(ctx context.Context, req MachineRequest) (*entity.Machine, error) {
	m := &entity.Machine{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		MachineType: req.MachineType,
		Model:       req.Model,
		Location:    req.Location,
		Status:      req.Status,
		Notes:       req.Notes,
	}
	if m.Status == "" {
		m.Status = entity.MachineStatusActive
	}
	if err := s.machines.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create machine: %w", err)
	}
	return m, nil
}

func (s *MasterDataService) GetMachine(ctx context.Context, id string) (*entity.Machine, error) {
	m, err := s.machines.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "machine %s", id)
	}
	return m, nil
}

func (s *MasterDataService) UpdateMachine(ctx context.Context, id string, req MachineRequest) (*entity.Machine, error) {
	m, err := s.GetMachine(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Name = strings.TrimSpace(req.Name)
	m.MachineType = req.MachineType
	m.Model = req.Model
	m.Location = req.Location
	m.Notes = req.Notes
	if req.Status != "" {
		m.Status = req.Status
	}
	if err := s.machines.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("update machine: %w", err)
	}
	return m, nil
}

func (s *MasterDataService) ListMachines(ctx context.Context, status string) ([]entity.Machine, error) {
	return s.machines.List(ctx, status)
}

type DropdownRequest struct {
	Category     string `json:"category" binding:"required"`
	Value        string `json:"value" binding:"required"`
	DisplayOrder int    `json:"display_order"`
	IsActive     *bool  `json:"is_active"`
}

func (s *MasterDataService) CreateDropdown(ctx context.Context, req DropdownRequest, userID string) (*entity.DropdownOption, error) {
	o := &entity.DropdownOption{
		ID:           uuid.New().String(),
		Category:     strings.ToLower(strings.TrimSpace(req.Category)),
		Value:        strings.TrimSpace(req.Value),
		DisplayOrder: req.DisplayOrder,
		IsActive:     true,
		CreatedBy:    userID,
	}
	if req.IsActive != nil {
		o.IsActive = *req.IsActive
	}
	if err := s.dropdowns.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create dropdown option: %w", err)
	}
	return o, nil
}

func (s *MasterDataService) UpdateDropdown(ctx context.Context, id string, req DropdownRequest) (*entity.DropdownOption, error) {
	o, err := s.dropdowns.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "dropdown option %s", id)
	}
	o.Category = strings.ToLower(strings.TrimSpace(req.Category))
	o.Value = strings.TrimSpace(req.Value)
	o.DisplayOrder = req.DisplayOrder
	if req.IsActive != nil {
		o.IsActive = *req.IsActive
	}
	if err := s.dropdowns.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("update dropdown option: %w", err)
	}
	return o, nil
}

func (s *MasterDataService) DeleteDropdown(ctx context.Context, id string) error {
	if _, err := s.dropdowns.GetByID(ctx, id); err != nil {
		return lookup(err, "dropdown option %s", id)
	}
	return s.dropdowns.Delete(ctx, id)
}

func (s *MasterDataService) ListDropdowns(ctx context.Context, category string, activeOnly bool) ([]entity.DropdownOption, error) {
	return s.dropdowns.List(ctx, strings.ToLower(category), activeOnly)
}
