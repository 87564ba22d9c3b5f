package service

import (
	"context"
	"fmt"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/google/uuid"
)

type SupplierService struct {
	repo *repository.SupplierRepository
}

func NewSupplierService(repo *repository.SupplierRepository) *SupplierService {
	return &SupplierService{repo: repo}
}

type SupplierRequest struct {
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email" binding:"omitempty,email"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	GSTNumber     string `json:"gst_number"`
	PaymentTerms  string `json:"payment_terms"`
	Status        string `json:"status" binding:"omitempty,oneof=active inactive"`
	Notes         string `json:"notes"`
}

func (s *SupplierService) Create(ctx context.Context, req SupplierRequest, userID string) (*entity.Supplier, error) {
	supplier := &entity.Supplier{
		ID:           uuid.New().String(),
		SupplierCode: newCode("SUP"),
		Status:       entity.StatusActive,
		CreatedBy:    userID,
	}
	applySupplier(supplier, req)
	if err := s.repo.Create(ctx, supplier); err != nil {
		return nil, fmt.Errorf("create supplier: %w", err)
	}
	return supplier, nil
}

func applySupplier(s *entity.Supplier, req SupplierRequest) {
	s.Name = req.Name
	s.ContactPerson = req.ContactPerson
	s.Phone = req.Phone
	s.Email = req.Email
	s.Address = req.Address
	s.City = req.City
	s.State = req.State
	s.GSTNumber = req.GSTNumber
	s.PaymentTerms = req.PaymentTerms
	s.Notes = req.Notes
	if req.Status != "" {
		s.Status = req.Status
	}
}

func (s *SupplierService) Get(ctx context.Context, id string) (*entity.Supplier, error) {
	supplier, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "supplier %s", id)
	}
	return supplier, nil
}

func (s *SupplierService) Update(ctx context.Context, id string, req SupplierRequest) (*entity.Supplier, error) {
	supplier, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applySupplier(supplier, req)
	if err := s.repo.Update(ctx, supplier); err != nil {
		return nil, fmt.Errorf("update supplier: %w", err)
	}
	return supplier, nil
}

func (s *SupplierService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *SupplierService) List(ctx context.Context, params repository.SupplierListParams) ([]entity.Supplier, int64, error) {
	return s.repo.List(ctx, params)
}

type CustomerService struct {
	repo *repository.CustomerRepository
}

func NewCustomerService(repo *repository.CustomerRepository) *CustomerService {
	return &CustomerService{repo: repo}
}

type CustomerRequest struct {
	Name         string  `json:"name" binding:"required"`
	CustomerType string  `json:"customer_type" binding:"omitempty,oneof=individual business"`
	CompanyName  string  `json:"company_name"`
	Phone        string  `json:"phone"`
	Email        string  `json:"email" binding:"omitempty,email"`
	Address      string  `json:"address"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	Pincode      string  `json:"pincode"`
	GSTNumber    string  `json:"gst_number"`
	CreditLimit  float64 `json:"credit_limit" binding:"gte=0"`
	Status       string  `json:"status" binding:"omitempty,oneof=active inactive"`
	Notes        string  `json:"notes"`
}

func (s *CustomerService) Create(ctx context.Context, req CustomerRequest, userID string) (*entity.Customer, error) {
	customer := &entity.Customer{
		ID:           uuid.New().String(),
		CustomerCode: newCode("CUS"),
		CustomerType: entity.CustomerTypeIndividual,
		Status:       entity.StatusActive,
		CreatedBy:    userID,
	}
	applyCustomer(customer, req)
	if customer.CustomerType == entity.CustomerTypeBusiness && customer.CompanyName == "" {
		return nil, invalid("company_name is required for business customers")
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return customer, nil
}

func applyCustomer(c *entity.Customer, req CustomerRequest) {
	c.Name = req.Name
	c.CompanyName = req.CompanyName
	c.Phone = req.Phone
	c.Email = req.Email
	c.Address = req.Address
	c.City = req.City
	c.State = req.State
	c.Pincode = req.Pincode
	c.GSTNumber = req.GSTNumber
	c.CreditLimit = req.CreditLimit
	c.Notes = req.Notes
	if req.CustomerType != "" {
		c.CustomerType = req.CustomerType
	}
	if req.Status != "" {
		c.Status = req.Status
	}
}

func (s *CustomerService) Get(ctx context.Context, id string) (*entity.Customer, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "customer %s", id)
	}
	return customer, nil
}

func (s *CustomerService) Update(ctx context.Context, id string, req CustomerRequest) (*entity.Customer, error) {
	customer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyCustomer(customer, req)
	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return customer, nil
}

func (s *CustomerService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *CustomerService) List(ctx context.Context, params repository.CustomerListParams) ([]entity.Customer, int64, error) {
	return s.repo.List(ctx, params)
}
