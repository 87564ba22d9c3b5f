package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/calc"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UnitInput inspection result of one finished carpet
type UnitInput struct {
	FinalWeight    float64 `json:"final_weight"`
	FinalThickness float64 `json:"final_thickness"`
	FinalWidth     float64 `json:"final_width"`
	FinalHeight    float64 `json:"final_height"`
	QualityGrade   string  `json:"quality_grade"`
	Status         string  `json:"status"`
	InspectorName  string  `json:"inspector_name"`
	Location       string  `json:"location"`
	Notes          string  `json:"notes"`
}

type CompleteProductionRequest struct {
	Units         []UnitInput `json:"units"`
	InspectorName string      `json:"inspector_name"`
	Notes         string      `json:"notes"`
}

// CompletionSummary counts of the units a batch produced
type CompletionSummary struct {
	BatchID      string                     `json:"batch_id"`
	BatchNumber  string                     `json:"batch_number"`
	Total        int                        `json:"total"`
	Available    int                        `json:"available"`
	Damaged      int                        `json:"damaged"`
	AverageGrade string                     `json:"average_grade"`
	AverageScore float64                    `json:"average_score"`
	ProductStock float64                    `json:"product_stock"`
	Units        []entity.IndividualProduct `json:"units"`
}

// qrPayload is encoded into every unit's QR code.
type qrPayload struct {
	ID           string `json:"id"`
	SerialNumber string `json:"serial_number"`
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	BatchNumber  string `json:"batch_number"`
	Grade        string `json:"grade"`
	Completed    string `json:"completed"`
}

// validateUnits checks every row and reports each bad row with the fields
// it is missing.
func validateUnits(units []UnitInput, planned int) error {
	verr := &ValidationError{Message: "invalid production units"}
	if len(units) != planned {
		verr.Add(ValidationDetail{Fields: []string{"units"},
			Message: fmt.Sprintf("expected %d units, got %d", planned, len(units))})
	}
	for i, u := range units {
		var fields []string
		if !calc.IsUsable(u.FinalWeight) {
			fields = append(fields, "final_weight")
		}
		if !calc.IsUsable(u.FinalThickness) {
			fields = append(fields, "final_thickness")
		}
		if !calc.IsUsable(u.FinalWidth) {
			fields = append(fields, "final_width")
		}
		if !calc.IsUsable(u.FinalHeight) {
			fields = append(fields, "final_height")
		}
		if !calc.ValidGrade(u.QualityGrade) {
			fields = append(fields, "quality_grade")
		}
		if u.Status != "" && u.Status != entity.IPStatusAvailable && u.Status != entity.IPStatusDamaged {
			fields = append(fields, "status")
		}
		if len(fields) > 0 {
			verr.Add(ValidationDetail{Row: i + 1, Fields: fields,
				Message: fmt.Sprintf("row %d: missing or invalid %s", i+1, strings.Join(fields, ", "))})
		}
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// CompleteProduction records the inspected units of a batch, books the
// available ones into product stock and closes the batch.
func (s *ProductionService) CompleteProduction(ctx context.Context, batchID string, req CompleteProductionRequest, userID string) (*CompletionSummary, error) {
	batch, err := s.repos.Production.GetBatch(ctx, batchID)
	if err != nil {
		return nil, lookup(err, "batch %s", batchID)
	}
	if err := checkTestingStage(batch); err != nil {
		return nil, err
	}
	if err := validateUnits(req.Units, batch.PlannedQuantity); err != nil {
		return nil, err
	}

	summary := &CompletionSummary{BatchID: batch.ID, BatchNumber: batch.BatchNumber}
	var product *entity.Product

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)
		batch, err := repos.Production.GetBatch(ctx, batchID)
		if err != nil {
			return lookup(err, "batch %s", batchID)
		}
		if err := checkTestingStage(batch); err != nil {
			return err
		}
		p, err := repos.Product.GetByID(ctx, batch.ProductID)
		if err != nil {
			return lookup(err, "product %s", batch.ProductID)
		}

		now := time.Now()
		units, err := buildUnits(batch, p, req, userID, now)
		if err != nil {
			return err
		}
		if err := repos.IndividualProduct.BatchCreate(ctx, units); err != nil {
			return fmt.Errorf("create units: %w", err)
		}

		grades := make([]string, 0, len(units))
		for _, u := range units {
			grades = append(grades, u.QualityGrade)
			if u.Status == entity.IPStatusAvailable {
				summary.Available++
			} else {
				summary.Damaged++
			}
		}
		summary.Total = len(units)
		summary.AverageGrade, summary.AverageScore = calc.AverageGrade(grades)
		summary.AverageScore = calc.RoundTo(summary.AverageScore, 2)
		summary.Units = units

		product, err = syncProductStock(ctx, repos, p.ID, float64(summary.Available))
		if err != nil {
			return err
		}
		summary.ProductStock = product.CurrentStock
		err = recordMovement(ctx, repos, entity.ItemTypeProduct, product.ID, product.Name, entity.MoveTypeProductionIn,
			float64(summary.Available), product.CurrentStock, product.Unit,
			movementRef{Type: entity.RefTypeBatch, ID: batch.ID, Code: batch.BatchNumber, UserID: userID})
		if err != nil {
			return err
		}

		note := fmt.Sprintf("%d units inspected: %d available, %d damaged, average grade %s",
			summary.Total, summary.Available, summary.Damaged, summary.AverageGrade)
		return closeBatch(ctx, repos, batch, len(units), actor(req.InspectorName, userID), appendNote(note, req.Notes), now)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.UnitsCompleted(entity.IPStatusAvailable, summary.Available)
	s.metrics.UnitsCompleted(entity.IPStatusDamaged, summary.Damaged)
	s.afterCompletion(ctx, batchID, summary, userID)
	if product != nil {
		s.notify.lowStockProduct(ctx, product)
	}
	return summary, nil
}

// SkipCompletion closes the batch without creating units. Inventory is not
// touched.
func (s *ProductionService) SkipCompletion(ctx context.Context, batchID string, req SkipStageRequest, userID string) (*CompletionSummary, error) {
	summary := &CompletionSummary{Units: []entity.IndividualProduct{}}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)
		batch, err := repos.Production.GetBatch(ctx, batchID)
		if err != nil {
			return lookup(err, "batch %s", batchID)
		}
		if err := checkTestingStage(batch); err != nil {
			return err
		}
		summary.BatchID = batch.ID
		summary.BatchNumber = batch.BatchNumber
		note := appendNote("individual product details skipped, no units created", req.Notes)
		return closeBatch(ctx, repos, batch, 0, actor(req.InspectorName, userID), note, time.Now())
	})
	if err != nil {
		return nil, err
	}
	s.afterCompletion(ctx, batchID, summary, userID)
	return summary, nil
}

func checkTestingStage(batch *entity.ProductionBatch) error {
	if batch.Status != entity.BatchStatusInProduction {
		return stateError("batch %s is %s", batch.BatchNumber, batch.Status)
	}
	if batch.WastageStageStatus != entity.StageCompleted {
		return stateError("record the waste of batch %s first", batch.BatchNumber)
	}
	return nil
}

func buildUnits(batch *entity.ProductionBatch, p *entity.Product, req CompleteProductionRequest, userID string, now time.Time) ([]entity.IndividualProduct, error) {
	units := make([]entity.IndividualProduct, 0, len(req.Units))
	produced := batch.MachineStartedAt
	if produced == nil {
		produced = &now
	}
	for i, in := range req.Units {
		status := in.Status
		if status == "" {
			status = entity.IPStatusAvailable
		}
		grade := strings.ToUpper(strings.TrimSpace(in.QualityGrade))
		u := entity.IndividualProduct{
			ID:             uuid.New().String(),
			ProductID:      p.ID,
			ProductName:    p.Name,
			BatchID:        batch.ID,
			SerialNumber:   fmt.Sprintf("%s-%03d", batch.BatchNumber, i+1),
			FinalWeight:    in.FinalWeight,
			FinalThickness: in.FinalThickness,
			FinalWidth:     in.FinalWidth,
			FinalHeight:    in.FinalHeight,
			QualityGrade:   grade,
			InspectorName:  actor(in.InspectorName, req.InspectorName),
			Status:         status,
			Location:       in.Location,
			Notes:          in.Notes,
			ProductionDate: produced,
			CompletionDate: &now,
			CreatedBy:      userID,
		}
		qr, err := json.Marshal(qrPayload{
			ID:           u.ID,
			SerialNumber: u.SerialNumber,
			ProductID:    p.ID,
			ProductName:  p.Name,
			BatchNumber:  batch.BatchNumber,
			Grade:        grade,
			Completed:    now.Format("2006-01-02"),
		})
		if err != nil {
			return nil, fmt.Errorf("encode qr code: %w", err)
		}
		u.QRCode = string(qr)
		units = append(units, u)
	}
	return units, nil
}

// closeBatch writes the completed testing step and completes flow and batch.
func closeBatch(ctx context.Context, repos *repository.Repositories, batch *entity.ProductionBatch, produced int, by, notes string, now time.Time) error {
	flow, err := repos.Production.GetFlowByBatch(ctx, batch.ID)
	if err != nil {
		return lookup(err, "production flow of batch %s", batch.ID)
	}
	step := &entity.ProductionFlowStep{
		StepName:      "Individual product testing",
		StepType:      entity.StepTypeTesting,
		Status:        entity.StageCompleted,
		InspectorName: by,
		StartTime:     &now,
		EndTime:       &now,
		Notes:         notes,
	}
	if err := addStep(ctx, repos, flow, step); err != nil {
		return err
	}
	flow.Status = entity.StageCompleted
	flow.CompletedAt = &now
	if err := repos.Production.UpdateFlow(ctx, flow); err != nil {
		return fmt.Errorf("complete flow: %w", err)
	}

	batch.ActualQuantity = produced
	batch.TestingStageStatus = entity.StageCompleted
	batch.TestingCompletedAt = &now
	batch.TestingBy = by
	batch.Status = entity.BatchStatusCompleted
	batch.CompletionDate = &now
	if err := repos.Production.UpdateBatch(ctx, batch); err != nil {
		return fmt.Errorf("complete batch: %w", err)
	}
	return nil
}

func (s *ProductionService) afterCompletion(ctx context.Context, batchID string, summary *CompletionSummary, userID string) {
	batch, err := s.repos.Production.GetBatch(ctx, batchID)
	if err != nil {
		return
	}
	s.batchChanged(ctx, batch)
	s.notify.Notify(ctx, NotifyInput{
		Type:     entity.NotifTypeProduction,
		Title:    "Production completed",
		Priority: entity.NotifPriorityMedium,
		Message: fmt.Sprintf("%s finished: %d units (%d available, %d damaged)",
			batch.BatchNumber, summary.Total, summary.Available, summary.Damaged),
		Module:      "production",
		RelatedID:   batch.ID,
		RelatedType: "production_batch",
		Metadata: map[string]interface{}{
			"total":         summary.Total,
			"available":     summary.Available,
			"damaged":       summary.Damaged,
			"average_grade": summary.AverageGrade,
		},
		CreatedBy: userID,
	})
}
