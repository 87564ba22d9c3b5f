package service

import (
	"context"
	"fmt"
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/calc"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WasteItemInput struct {
	MaterialID  string  `json:"material_id" binding:"required"`
	Quantity    float64 `json:"quantity"`
	WasteType   string  `json:"waste_type"`
	CanBeReused bool    `json:"can_be_reused"`
	Notes       string  `json:"notes"`
}

type CompleteWasteRequest struct {
	Items         []WasteItemInput `json:"items" binding:"dive"`
	InspectorName string           `json:"inspector_name"`
	Notes         string           `json:"notes"`
}

// WasteResult outcome of the waste stage
type WasteResult struct {
	Batch        *entity.ProductionBatch      `json:"batch"`
	Waste        []entity.WasteRecord         `json:"waste"`
	Consumptions []entity.MaterialConsumption `json:"consumptions"`
}

var wasteTypes = map[string]bool{
	entity.WasteTypeScrap:     true,
	entity.WasteTypeDefective: true,
	entity.WasteTypeExcess:    true,
}

// CompleteWaste books the materials of the batch out of inventory and
// records the waste it generated.
func (s *ProductionService) CompleteWaste(ctx context.Context, batchID string, req CompleteWasteRequest, userID string) (*WasteResult, error) {
	return s.finishWasteStage(ctx, batchID, req, false, userID)
}

type SkipStageRequest struct {
	InspectorName string `json:"inspector_name"`
	Notes         string `json:"notes"`
}

// SkipWaste books the materials out without recording any waste.
func (s *ProductionService) SkipWaste(ctx context.Context, batchID string, req SkipStageRequest, userID string) (*WasteResult, error) {
	return s.finishWasteStage(ctx, batchID, CompleteWasteRequest{InspectorName: req.InspectorName, Notes: req.Notes}, true, userID)
}

func (s *ProductionService) finishWasteStage(ctx context.Context, batchID string, req CompleteWasteRequest, skip bool, userID string) (*WasteResult, error) {
	result := &WasteResult{}
	var materials []*entity.RawMaterial
	var products []*entity.Product

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)
		batch, err := repos.Production.GetBatch(ctx, batchID)
		if err != nil {
			return lookup(err, "batch %s", batchID)
		}
		if batch.Status != entity.BatchStatusInProduction {
			return stateError("batch %s is %s", batch.BatchNumber, batch.Status)
		}
		if batch.WastageStageStatus == entity.StageCompleted {
			return stateError("waste of batch %s is already recorded", batch.BatchNumber)
		}
		flow, err := repos.Production.GetFlowByBatch(ctx, batchID)
		if err != nil {
			return lookup(err, "production flow of batch %s", batchID)
		}
		if !machineStepsDone(flow) {
			return stateError("complete every machine step of batch %s first", batch.BatchNumber)
		}

		consumptions, err := repos.Production.ListConsumptions(ctx, batchID)
		if err != nil {
			return fmt.Errorf("list consumptions: %w", err)
		}
		records, err := buildWasteRecords(batch, consumptions, req.Items, userID)
		if err != nil {
			return err
		}

		materials, products, err = finalizeConsumptions(ctx, repos, batch, consumptions, userID)
		if err != nil {
			return err
		}
		if !skip {
			if err := repos.Production.CreateWaste(ctx, records); err != nil {
				return fmt.Errorf("create waste records: %w", err)
			}
			result.Waste = records
		}

		now := time.Now()
		notes := req.Notes
		if skip {
			notes = appendNote("waste tracking skipped, no waste recorded", req.Notes)
		}
		step := findStep(flow, entity.StepTypeWastage)
		if step == nil {
			step = &entity.ProductionFlowStep{
				StepName:      "Waste tracking",
				StepType:      entity.StepTypeWastage,
				Status:        entity.StageCompleted,
				InspectorName: req.InspectorName,
				StartTime:     &now,
				EndTime:       &now,
				Notes:         notes,
			}
			if err := addStep(ctx, repos, flow, step); err != nil {
				return err
			}
		} else {
			step.Status = entity.StageCompleted
			step.EndTime = &now
			if req.InspectorName != "" {
				step.InspectorName = req.InspectorName
			}
			step.Notes = appendNote(step.Notes, notes)
			if err := repos.Production.UpdateStep(ctx, step); err != nil {
				return fmt.Errorf("update waste step: %w", err)
			}
		}

		batch.WastageStageStatus = entity.StageCompleted
		batch.WastageCompletedAt = &now
		batch.WastageBy = actor(req.InspectorName, userID)
		if err := repos.Production.UpdateBatch(ctx, batch); err != nil {
			return fmt.Errorf("update batch: %w", err)
		}

		result.Batch = batch
		result.Consumptions, err = repos.Production.ListConsumptions(ctx, batchID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if result.Waste == nil {
		result.Waste = []entity.WasteRecord{}
	}

	s.batchChanged(ctx, result.Batch)
	for _, m := range materials {
		s.notify.lowStockMaterial(ctx, m)
	}
	for _, p := range products {
		s.notify.lowStockProduct(ctx, p)
	}
	return result, nil
}

// buildWasteRecords validates every waste row against the batch materials
// and reports all bad rows at once.
func buildWasteRecords(batch *entity.ProductionBatch, consumptions []entity.MaterialConsumption, items []WasteItemInput, userID string) ([]entity.WasteRecord, error) {
	byMaterial := make(map[string]entity.MaterialConsumption, len(consumptions))
	for _, c := range consumptions {
		byMaterial[c.MaterialID] = c
	}

	now := time.Now()
	verr := &ValidationError{Message: "invalid waste items"}
	records := make([]entity.WasteRecord, 0, len(items))
	for i, it := range items {
		row := i + 1
		var fields []string
		c, ok := byMaterial[it.MaterialID]
		if !ok {
			fields = append(fields, "material_id")
		}
		if !calc.IsUsable(it.Quantity) {
			fields = append(fields, "quantity")
		}
		wasteType := it.WasteType
		if wasteType == "" {
			wasteType = entity.WasteTypeScrap
		}
		if !wasteTypes[wasteType] {
			fields = append(fields, "waste_type")
		}
		if len(fields) > 0 {
			verr.Add(ValidationDetail{Row: row, ID: it.MaterialID, Fields: fields,
				Message: fmt.Sprintf("row %d: invalid %v", row, fields)})
			continue
		}

		status := entity.WasteStatusGenerated
		if it.CanBeReused {
			status = entity.WasteStatusReused
		}
		records = append(records, entity.WasteRecord{
			ID:           uuid.New().String(),
			WasteNumber:  newCode("WST"),
			BatchID:      batch.ID,
			ProductID:    batch.ProductID,
			MaterialID:   c.MaterialID,
			MaterialName: c.MaterialName,
			MaterialType: c.MaterialType,
			Quantity:     calc.RoundTo(it.Quantity, 4),
			Unit:         c.Unit,
			WasteType:    wasteType,
			CanBeReused:  it.CanBeReused,
			Status:       status,
			Notes:        it.Notes,
			GeneratedAt:  now,
			CreatedBy:    userID,
		})
	}
	if verr.HasErrors() {
		return nil, verr
	}
	return records, nil
}

// finalizeConsumptions deducts every reserved consumption of the batch from
// inventory and marks it consumed. Raw materials lose their actual consumed
// quantity; units of product-type materials become used.
func finalizeConsumptions(ctx context.Context, repos *repository.Repositories, batch *entity.ProductionBatch, consumptions []entity.MaterialConsumption, userID string) ([]*entity.RawMaterial, []*entity.Product, error) {
	ref := movementRef{Type: entity.RefTypeBatch, ID: batch.ID, Code: batch.BatchNumber, UserID: userID}
	var materials []*entity.RawMaterial
	var products []*entity.Product
	now := time.Now()

	for i := range consumptions {
		c := &consumptions[i]
		if c.ConsumptionStatus != entity.ConsumptionReserved {
			continue
		}
		if c.MaterialType == calc.MaterialTypeProduct {
			ids := []string(c.IndividualProductIDs)
			n, err := repos.IndividualProduct.SetStatus(ctx, ids, []string{entity.IPStatusReserved}, entity.IPStatusUsed, batch.ID)
			if err != nil {
				return nil, nil, fmt.Errorf("consume units of %s: %w", c.MaterialName, err)
			}
			if int(n) != len(ids) {
				return nil, nil, stateError("only %d of %d reserved units of %s are still held", n, len(ids), c.MaterialName)
			}
			material, err := repos.Product.GetByID(ctx, c.MaterialID)
			if err != nil {
				return nil, nil, lookup(err, "product %s", c.MaterialID)
			}
			// individual stock is a recount of available units; bulk stock drops by the quantity used
			used := float64(len(ids))
			delta := 0.0
			if !material.TracksIndividually() {
				used = c.QuantityUsed
				delta = -used
			}
			p, err := syncProductStock(ctx, repos, c.MaterialID, delta)
			if err != nil {
				return nil, nil, err
			}
			err = recordMovement(ctx, repos, entity.ItemTypeProduct, p.ID, p.Name, entity.MoveTypeProductionOut,
				-used, p.CurrentStock, p.Unit, ref)
			if err != nil {
				return nil, nil, err
			}
			products = append(products, p)
		} else {
			m, err := adjustRawMaterial(ctx, repos, c.MaterialID, -c.ActualConsumedQuantity, entity.MoveTypeProductionOut, ref)
			if err != nil {
				return nil, nil, err
			}
			materials = append(materials, m)
		}

		c.ConsumptionStatus = entity.ConsumptionConsumed
		c.ConsumedAt = &now
		if err := repos.Production.UpdateConsumption(ctx, c); err != nil {
			return nil, nil, fmt.Errorf("update consumption of %s: %w", c.MaterialName, err)
		}
	}
	return materials, products, nil
}

func (s *ProductionService) ListWaste(ctx context.Context, params repository.WasteListParams) ([]entity.WasteRecord, int64, error) {
	return s.repos.Production.ListWaste(ctx, params)
}
