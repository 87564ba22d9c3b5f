package entity

import (
	"time"

	"gorm.io/datatypes"
)

// ProductionBatch status
const (
	BatchStatusPlanning     = "planning"
	BatchStatusInProduction = "in_production"
	BatchStatusCompleted    = "completed"
	BatchStatusCancelled    = "cancelled"
)

// Stage sub-status, shared with flow and step status
const (
	StagePending    = "pending"
	StageInProgress = "in_progress"
	StageCompleted  = "completed"
	StageSkipped    = "skipped"
)

// Batch priority
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ProductionBatch a planned production run of one product
type ProductionBatch struct {
	ID              string `json:"id" gorm:"primaryKey;size:36"`
	BatchNumber     string `json:"batch_number" gorm:"size:50;not null;uniqueIndex"`
	ProductID       string `json:"product_id" gorm:"size:36;not null;index"`
	ProductName     string `json:"product_name" gorm:"size:200"`
	PlannedQuantity int    `json:"planned_quantity" gorm:"not null"`
	ActualQuantity  int    `json:"actual_quantity" gorm:"default:0"`
	Priority        string `json:"priority" gorm:"size:20"`
	Status          string `json:"status" gorm:"size:20;not null;index"`
	MachineID       string `json:"machine_id" gorm:"size:36"`
	Notes           string `json:"notes" gorm:"type:text"`

	PlanningStageStatus string     `json:"planning_stage_status" gorm:"size:20"`
	PlanningStartedAt   *time.Time `json:"planning_started_at"`
	PlanningCompletedAt *time.Time `json:"planning_completed_at"`
	PlanningBy          string     `json:"planning_by" gorm:"size:100"`

	MachineStageStatus string     `json:"machine_stage_status" gorm:"size:20"`
	MachineStartedAt   *time.Time `json:"machine_started_at"`
	MachineCompletedAt *time.Time `json:"machine_completed_at"`
	MachineBy          string     `json:"machine_by" gorm:"size:100"`

	WastageStageStatus string     `json:"wastage_stage_status" gorm:"size:20"`
	WastageCompletedAt *time.Time `json:"wastage_completed_at"`
	WastageBy          string     `json:"wastage_by" gorm:"size:100"`

	TestingStageStatus string     `json:"testing_stage_status" gorm:"size:20"`
	TestingCompletedAt *time.Time `json:"testing_completed_at"`
	TestingBy          string     `json:"testing_by" gorm:"size:100"`

	CompletionDate *time.Time `json:"completion_date"`
	CreatedBy      string     `json:"created_by" gorm:"size:64"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at" gorm:"index"`

	Consumptions []MaterialConsumption `json:"consumptions,omitempty" gorm:"foreignKey:BatchID"`
}

func (ProductionBatch) TableName() string {
	return "erp_production_batches"
}

// Consumption status
const (
	ConsumptionReserved = "reserved"
	ConsumptionConsumed = "consumed"
	ConsumptionReleased = "released"
)

// MaterialConsumption how much of one material a batch uses. Raw material
// stock is only deducted once the row moves to consumed.
type MaterialConsumption struct {
	ID                     string                      `json:"id" gorm:"primaryKey;size:36"`
	BatchID                string                      `json:"batch_id" gorm:"size:36;not null;uniqueIndex:idx_consumption_batch_material"`
	MaterialID             string                      `json:"material_id" gorm:"size:36;not null;uniqueIndex:idx_consumption_batch_material"`
	MaterialName           string                      `json:"material_name" gorm:"size:200"`
	MaterialType           string                      `json:"material_type" gorm:"size:20;not null"`
	QuantityPerSQM         float64                     `json:"quantity_per_sqm" gorm:"type:decimal(12,6)"`
	RequiredQuantity       float64                     `json:"required_quantity" gorm:"type:decimal(12,4)"`
	QuantityUsed           float64                     `json:"quantity_used" gorm:"type:decimal(12,4)"`
	ActualConsumedQuantity float64                     `json:"actual_consumed_quantity" gorm:"type:decimal(12,4)"`
	Unit                   string                      `json:"unit" gorm:"size:20"`
	CostPerUnit            float64                     `json:"cost_per_unit" gorm:"type:decimal(12,2)"`
	TotalCost              float64                     `json:"total_cost" gorm:"type:decimal(14,2)"`
	IndividualProductIDs   datatypes.JSONSlice[string] `json:"individual_product_ids"`
	ConsumptionStatus      string                      `json:"consumption_status" gorm:"size:20;not null"`
	ConsumedAt             *time.Time                  `json:"consumed_at"`
	CreatedBy              string                      `json:"created_by" gorm:"size:64"`
	CreatedAt              time.Time                   `json:"created_at"`
	UpdatedAt              time.Time                   `json:"updated_at"`
}

func (MaterialConsumption) TableName() string {
	return "erp_material_consumptions"
}

// Flow step types
const (
	StepTypeMachine = "machine_operation"
	StepTypeWastage = "wastage_tracking"
	StepTypeTesting = "testing_individual"
)

// ProductionFlow stage record of one batch
type ProductionFlow struct {
	ID          string     `json:"id" gorm:"primaryKey;size:36"`
	BatchID     string     `json:"batch_id" gorm:"size:36;not null;uniqueIndex"`
	FlowName    string     `json:"flow_name" gorm:"size:200"`
	Status      string     `json:"status" gorm:"size:20;not null"`
	CurrentStep int        `json:"current_step" gorm:"default:0"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Steps []ProductionFlowStep `json:"steps" gorm:"foreignKey:FlowID"`
}

func (ProductionFlow) TableName() string {
	return "erp_production_flows"
}

type ProductionFlowStep struct {
	ID            string     `json:"id" gorm:"primaryKey;size:36"`
	FlowID        string     `json:"flow_id" gorm:"size:36;not null;index"`
	StepNumber    int        `json:"step_number" gorm:"not null"`
	StepName      string     `json:"step_name" gorm:"size:200"`
	StepType      string     `json:"step_type" gorm:"size:30;not null"`
	Status        string     `json:"status" gorm:"size:20;not null"`
	MachineID     string     `json:"machine_id" gorm:"size:36"`
	MachineName   string     `json:"machine_name" gorm:"size:200"`
	Shift         string     `json:"shift" gorm:"size:20"`
	InspectorName string     `json:"inspector_name" gorm:"size:100"`
	StartTime     *time.Time `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	Notes         string     `json:"notes" gorm:"type:text"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (ProductionFlowStep) TableName() string {
	return "erp_production_flow_steps"
}

// Waste types
const (
	WasteTypeScrap     = "scrap"
	WasteTypeDefective = "defective"
	WasteTypeExcess    = "excess"
)

// Waste status
const (
	WasteStatusGenerated = "generated"
	WasteStatusReused    = "reused"
	WasteStatusDisposed  = "disposed"
)

type WasteRecord struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	WasteNumber  string    `json:"waste_number" gorm:"size:50;not null;uniqueIndex"`
	BatchID      string    `json:"batch_id" gorm:"size:36;not null;index"`
	ProductID    string    `json:"product_id" gorm:"size:36"`
	MaterialID   string    `json:"material_id" gorm:"size:36;not null"`
	MaterialName string    `json:"material_name" gorm:"size:200"`
	MaterialType string    `json:"material_type" gorm:"size:20"`
	Quantity     float64   `json:"quantity" gorm:"type:decimal(12,4);not null"`
	Unit         string    `json:"unit" gorm:"size:20"`
	WasteType    string    `json:"waste_type" gorm:"size:20;not null"`
	CanBeReused  bool      `json:"can_be_reused"`
	Status       string    `json:"status" gorm:"size:20;not null"`
	Notes        string    `json:"notes" gorm:"type:text"`
	GeneratedAt  time.Time `json:"generated_at"`
	CreatedBy    string    `json:"created_by" gorm:"size:64"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (WasteRecord) TableName() string {
	return "erp_waste_records"
}
