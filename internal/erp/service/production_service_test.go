package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/calc"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func inspectedUnit(grade, status string) UnitInput {
	return UnitInput{
		FinalWeight:    12.5,
		FinalThickness: 1.2,
		FinalWidth:     1.5,
		FinalHeight:    2,
		QualityGrade:   grade,
		Status:         status,
	}
}

func TestStartProductionBlockedByLowStock(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	product := testutil.SeedProduct(t, db, "Kashmir Blue", 2, 1.5)
	wool := testutil.SeedRawMaterial(t, db, "Wool", "kg", 10, 5)
	testutil.SeedRecipe(t, db, product, wool)

	_, err := svc.Production.StartProduction(ctx, StartProductionRequest{
		ProductID:       product.ID,
		PlannedQuantity: 10,
		Consumed:        []ConsumedMaterialInput{{MaterialID: wool.ID}},
	}, testUser)

	var gate *GateError
	require.True(t, errors.As(err, &gate), "expected gate error, got %v", err)
	assert.ErrorIs(t, err, ErrInvalidState)
	require.Len(t, gate.Issues, 1)
	assert.Equal(t, wool.ID, gate.Issues[0].MaterialID)
	assert.InDelta(t, 5.0, gate.Issues[0].Shortage, 1e-9)

	var batches, consumptions int64
	db.Model(&entity.ProductionBatch{}).Count(&batches)
	db.Model(&entity.MaterialConsumption{}).Count(&consumptions)
	assert.Zero(t, batches)
	assert.Zero(t, consumptions)
	assert.InDelta(t, 10.0, reloadMaterial(t, db, wool.ID).CurrentStock, 1e-9)
}

func TestStartProductionNeedsMaterials(t *testing.T) {
	svc, db := setupServices(t)
	product := testutil.SeedProduct(t, db, "Empty Plan", 1, 1)

	_, err := svc.Production.StartProduction(context.Background(), StartProductionRequest{
		ProductID:       product.ID,
		PlannedQuantity: 1,
	}, testUser)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestStartProductionUsesDraft(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	product := testutil.SeedProduct(t, db, "Draft Rug", 2, 1.5)
	wool := testutil.SeedRawMaterial(t, db, "Wool", "kg", 100, 5)
	_, err := svc.Planning.SaveDraft(ctx, product.ID, SaveDraftRequest{
		PlannedQuantity: 2,
		Consumed:        []calc.MaterialRequirement{{MaterialID: wool.ID, QuantityPerSQM: 0.25}},
	}, testUser)
	require.NoError(t, err)

	batch, err := svc.Production.StartProduction(ctx, StartProductionRequest{ProductID: product.ID, PlannedQuantity: 2}, testUser)
	require.NoError(t, err)
	assert.Equal(t, entity.BatchStatusInProduction, batch.Status)

	consumptions, err := svc.Production.ListConsumptions(ctx, batch.ID)
	require.NoError(t, err)
	require.Len(t, consumptions, 1)
	assert.InDelta(t, 1.5, consumptions[0].RequiredQuantity, 1e-9)

	_, err = svc.Planning.GetDraft(ctx, product.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductionFullFlow(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	product := testutil.SeedProduct(t, db, "Persian Red", 2, 1.5)
	wool := testutil.SeedRawMaterial(t, db, "Wool", "kg", 100, 10)
	testutil.SeedRecipe(t, db, product, wool)
	loom := testutil.SeedMachine(t, db, "Loom 1")

	batch, err := svc.Production.StartProduction(ctx, StartProductionRequest{
		ProductID:       product.ID,
		PlannedQuantity: 3,
		MachineID:       loom.ID,
		InspectorName:   "Ravi",
		Consumed:        []ConsumedMaterialInput{{MaterialID: wool.ID}},
	}, testUser)
	require.NoError(t, err)
	assert.Equal(t, entity.BatchStatusInProduction, batch.Status)
	assert.Equal(t, entity.StageCompleted, batch.PlanningStageStatus)
	assert.Equal(t, entity.StageInProgress, batch.MachineStageStatus)

	consumptions, err := svc.Production.ListConsumptions(ctx, batch.ID)
	require.NoError(t, err)
	require.Len(t, consumptions, 1)
	assert.Equal(t, entity.ConsumptionReserved, consumptions[0].ConsumptionStatus)
	assert.InDelta(t, 4.5, consumptions[0].RequiredQuantity, 1e-9)
	// reserved, not yet deducted
	assert.InDelta(t, 100.0, reloadMaterial(t, db, wool.ID).CurrentStock, 1e-9)

	// waste cannot be booked while a machine step is open
	_, err = svc.Production.CompleteWaste(ctx, batch.ID, CompleteWasteRequest{}, testUser)
	assert.ErrorIs(t, err, ErrInvalidState)

	flow, err := svc.Production.GetFlow(ctx, batch.ID)
	require.NoError(t, err)
	require.Len(t, flow.Steps, 1)
	assert.Equal(t, loom.Name, flow.Steps[0].MachineName)

	step, err := svc.Production.CompleteStep(ctx, batch.ID, flow.Steps[0].ID, CompleteStepRequest{Notes: "woven"}, testUser)
	require.NoError(t, err)
	assert.Equal(t, entity.StageCompleted, step.Status)

	waste, err := svc.Production.CompleteWaste(ctx, batch.ID, CompleteWasteRequest{
		Items: []WasteItemInput{{MaterialID: wool.ID, Quantity: 0.3, WasteType: entity.WasteTypeScrap}},
	}, testUser)
	require.NoError(t, err)
	require.Len(t, waste.Waste, 1)
	assert.Equal(t, entity.StageCompleted, waste.Batch.WastageStageStatus)
	require.Len(t, waste.Consumptions, 1)
	assert.Equal(t, entity.ConsumptionConsumed, waste.Consumptions[0].ConsumptionStatus)
	assert.InDelta(t, 95.5, reloadMaterial(t, db, wool.ID).CurrentStock, 1e-9)

	movements, total, err := svc.Inventory.ListMovements(ctx, repository.StockMovementListParams{ItemID: wool.ID, ReferenceID: batch.ID})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, entity.MoveTypeProductionOut, movements[0].MovementType)
	assert.InDelta(t, -4.5, movements[0].Quantity, 1e-9)

	summary, err := svc.Production.CompleteProduction(ctx, batch.ID, CompleteProductionRequest{
		InspectorName: "Ravi",
		Units: []UnitInput{
			inspectedUnit("A+", entity.IPStatusAvailable),
			inspectedUnit("A", entity.IPStatusAvailable),
			inspectedUnit("B", entity.IPStatusDamaged),
		},
	}, testUser)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Available)
	assert.Equal(t, 1, summary.Damaged)
	assert.Equal(t, "A", summary.AverageGrade)
	assert.InDelta(t, 4.0, summary.AverageScore, 1e-9)
	require.Len(t, summary.Units, 3)
	assert.Equal(t, batch.BatchNumber+"-001", summary.Units[0].SerialNumber)
	assert.Contains(t, summary.Units[0].QRCode, summary.Units[0].SerialNumber)

	assert.InDelta(t, 2.0, reloadProduct(t, db, product.ID).CurrentStock, 1e-9)

	done, err := svc.Production.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BatchStatusCompleted, done.Status)
	assert.Equal(t, 3, done.ActualQuantity)
	assert.Equal(t, entity.StageCompleted, done.TestingStageStatus)

	flow, err = svc.Production.GetFlow(ctx, batch.ID)
	require.NoError(t, err)
	assert.Len(t, flow.Steps, 3)
	assert.Equal(t, entity.StageCompleted, flow.Status)

	_, err = svc.Production.CompleteProduction(ctx, batch.ID, CompleteProductionRequest{}, testUser)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCompleteProductionReportsEveryBadRow(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	product := testutil.SeedProduct(t, db, "Validation Rug", 1, 1)
	wool := testutil.SeedRawMaterial(t, db, "Wool", "kg", 100, 10)
	testutil.SeedRecipe(t, db, product, wool)

	batch, err := svc.Production.StartProduction(ctx, StartProductionRequest{
		ProductID:       product.ID,
		PlannedQuantity: 2,
		Consumed:        []ConsumedMaterialInput{{MaterialID: wool.ID}},
	}, testUser)
	require.NoError(t, err)
	flow, err := svc.Production.GetFlow(ctx, batch.ID)
	require.NoError(t, err)
	_, err = svc.Production.CompleteStep(ctx, batch.ID, flow.Steps[0].ID, CompleteStepRequest{}, testUser)
	require.NoError(t, err)
	_, err = svc.Production.SkipWaste(ctx, batch.ID, SkipStageRequest{}, testUser)
	require.NoError(t, err)

	bad := inspectedUnit("Z", "")
	bad.FinalWeight = 0
	_, err = svc.Production.CompleteProduction(ctx, batch.ID, CompleteProductionRequest{
		Units: []UnitInput{inspectedUnit("A", ""), bad},
	}, testUser)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	require.Len(t, verr.Details, 1)
	assert.Equal(t, 2, verr.Details[0].Row)
	assert.ElementsMatch(t, []string{"final_weight", "quality_grade"}, verr.Details[0].Fields)

	var units int64
	db.Model(&entity.IndividualProduct{}).Where("batch_id = ?", batch.ID).Count(&units)
	assert.Zero(t, units)
}

func TestProductMaterialReservedAndUsed(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	runner := testutil.SeedProduct(t, db, "Runner Set", 2, 2)
	backing := testutil.SeedProduct(t, db, "Backing Mat", 1, 2)
	units := testutil.SeedUnits(t, db, backing, 3)

	// 4 sqm per runner, 2 sqm per backing mat: 0.5 mats per sqm
	_, err := svc.Production.StartProduction(ctx, StartProductionRequest{
		ProductID:       runner.ID,
		PlannedQuantity: 1,
		Consumed: []ConsumedMaterialInput{{
			MaterialID:     backing.ID,
			MaterialType:   calc.MaterialTypeProduct,
			QuantityPerSQM: 0.5,
		}},
	}, testUser)
	var gate *GateError
	require.True(t, errors.As(err, &gate), "expected gate error, got %v", err)

	batch, err := svc.Production.StartProduction(ctx, StartProductionRequest{
		ProductID:       runner.ID,
		PlannedQuantity: 1,
		Consumed: []ConsumedMaterialInput{{
			MaterialID:           backing.ID,
			MaterialType:         calc.MaterialTypeProduct,
			QuantityPerSQM:       0.5,
			IndividualProductIDs: []string{units[0].ID, units[1].ID},
		}},
	}, testUser)
	require.NoError(t, err)

	reserved, err := svc.Product.GetIndividualProduct(ctx, units[0].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.IPStatusReserved, reserved.Status)
	assert.InDelta(t, 1.0, reloadProduct(t, db, backing.ID).CurrentStock, 1e-9)

	flow, err := svc.Production.GetFlow(ctx, batch.ID)
	require.NoError(t, err)
	_, err = svc.Production.CompleteStep(ctx, batch.ID, flow.Steps[0].ID, CompleteStepRequest{}, testUser)
	require.NoError(t, err)
	_, err = svc.Production.CompleteWaste(ctx, batch.ID, CompleteWasteRequest{}, testUser)
	require.NoError(t, err)

	used, err := svc.Product.GetIndividualProduct(ctx, units[1].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.IPStatusUsed, used.Status)
	spare, err := svc.Product.GetIndividualProduct(ctx, units[2].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.IPStatusAvailable, spare.Status)
}

// seedBulkProduct turns a seeded product into bulk tracking with units on hand.
func seedBulkProduct(t *testing.T, db *gorm.DB, name string, stock float64, units int) (*entity.Product, []entity.IndividualProduct) {
	t.Helper()
	p := testutil.SeedProduct(t, db, name, 1, 2)
	ips := testutil.SeedUnits(t, db, p, units)
	require.NoError(t, db.Model(&entity.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"stock_tracking": entity.StockTrackingBulk,
		"current_stock":  stock,
	}).Error)
	return p, ips
}

func TestBulkProductMaterialDeducted(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	runner := testutil.SeedProduct(t, db, "Runner Set", 2, 2)
	backing, units := seedBulkProduct(t, db, "Backing Roll", 10, 3)
	_, err := svc.Recipe.Save(ctx, runner.ID, SaveRecipeRequest{Materials: []RecipeMaterialInput{{
		MaterialID:     backing.ID,
		MaterialType:   calc.MaterialTypeProduct,
		QuantityPerSQM: 0.5,
	}}}, testUser)
	require.NoError(t, err)

	batch, err := svc.Production.StartProduction(ctx, StartProductionRequest{
		ProductID:       runner.ID,
		PlannedQuantity: 1,
		Consumed: []ConsumedMaterialInput{{
			MaterialID:           backing.ID,
			MaterialType:         calc.MaterialTypeProduct,
			QuantityPerSQM:       0.5,
			IndividualProductIDs: []string{units[0].ID, units[1].ID},
		}},
	}, testUser)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, reloadProduct(t, db, backing.ID).CurrentStock, 1e-9)

	// the reservation is already spoken for when planning the next batch
	plan, err := svc.Planning.CalculateRequirements(ctx, runner.ID, 1, testUser)
	require.NoError(t, err)
	require.Len(t, plan.Materials, 1)
	assert.InDelta(t, 8.0, plan.Materials[0].AvailableQuantity, 1e-9)

	flow, err := svc.Production.GetFlow(ctx, batch.ID)
	require.NoError(t, err)
	_, err = svc.Production.CompleteStep(ctx, batch.ID, flow.Steps[0].ID, CompleteStepRequest{}, testUser)
	require.NoError(t, err)
	_, err = svc.Production.CompleteWaste(ctx, batch.ID, CompleteWasteRequest{}, testUser)
	require.NoError(t, err)

	assert.InDelta(t, 8.0, reloadProduct(t, db, backing.ID).CurrentStock, 1e-9)
	used, err := svc.Product.GetIndividualProduct(ctx, units[0].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.IPStatusUsed, used.Status)

	movements, total, err := svc.Inventory.ListMovements(ctx, repository.StockMovementListParams{
		ItemID:       backing.ID,
		MovementType: entity.MoveTypeProductionOut,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.InDelta(t, -2.0, movements[0].Quantity, 1e-9)
	assert.InDelta(t, 8.0, movements[0].BalanceAfter, 1e-9)

	plan, err = svc.Planning.CalculateRequirements(ctx, runner.ID, 1, testUser)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, plan.Materials[0].AvailableQuantity, 1e-9)
}

func TestCancelBatchFreesBulkReservation(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	runner := testutil.SeedProduct(t, db, "Runner Set", 2, 2)
	backing, units := seedBulkProduct(t, db, "Backing Roll", 10, 2)
	_, err := svc.Recipe.Save(ctx, runner.ID, SaveRecipeRequest{Materials: []RecipeMaterialInput{{
		MaterialID:     backing.ID,
		MaterialType:   calc.MaterialTypeProduct,
		QuantityPerSQM: 0.5,
	}}}, testUser)
	require.NoError(t, err)

	batch, err := svc.Production.StartProduction(ctx, StartProductionRequest{
		ProductID:       runner.ID,
		PlannedQuantity: 1,
		Consumed: []ConsumedMaterialInput{{
			MaterialID:           backing.ID,
			MaterialType:         calc.MaterialTypeProduct,
			QuantityPerSQM:       0.5,
			IndividualProductIDs: []string{units[0].ID, units[1].ID},
		}},
	}, testUser)
	require.NoError(t, err)

	_, err = svc.Production.CancelBatch(ctx, batch.ID, CancelBatchRequest{Reason: "order withdrawn"}, testUser)
	require.NoError(t, err)

	consumptions, err := svc.Production.ListConsumptions(ctx, batch.ID)
	require.NoError(t, err)
	require.Len(t, consumptions, 1)
	assert.Equal(t, entity.ConsumptionReleased, consumptions[0].ConsumptionStatus)

	plan, err := svc.Planning.CalculateRequirements(ctx, runner.ID, 1, testUser)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, plan.Materials[0].AvailableQuantity, 1e-9)
	assert.InDelta(t, 10.0, reloadProduct(t, db, backing.ID).CurrentStock, 1e-9)
}

func TestCancelBatchReleasesUnits(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	runner := testutil.SeedProduct(t, db, "Runner Set", 2, 2)
	backing := testutil.SeedProduct(t, db, "Backing Mat", 1, 2)
	units := testutil.SeedUnits(t, db, backing, 2)

	batch, err := svc.Production.StartProduction(ctx, StartProductionRequest{
		ProductID:       runner.ID,
		PlannedQuantity: 1,
		Consumed: []ConsumedMaterialInput{{
			MaterialID:           backing.ID,
			MaterialType:         calc.MaterialTypeProduct,
			QuantityPerSQM:       0.5,
			IndividualProductIDs: []string{units[0].ID},
		}},
	}, testUser)
	require.NoError(t, err)

	cancelled, err := svc.Production.CancelBatch(ctx, batch.ID, CancelBatchRequest{Reason: "loom broke"}, testUser)
	require.NoError(t, err)
	assert.Equal(t, entity.BatchStatusCancelled, cancelled.Status)
	assert.Contains(t, cancelled.Notes, "loom broke")

	u, err := svc.Product.GetIndividualProduct(ctx, units[0].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.IPStatusAvailable, u.Status)
	assert.InDelta(t, 2.0, reloadProduct(t, db, backing.ID).CurrentStock, 1e-9)

	_, err = svc.Production.CancelBatch(ctx, batch.ID, CancelBatchRequest{}, testUser)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAddMachineStepRequiresPreviousCompleted(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	product := testutil.SeedProduct(t, db, "Two Step Rug", 1, 1)
	wool := testutil.SeedRawMaterial(t, db, "Wool", "kg", 100, 10)
	testutil.SeedRecipe(t, db, product, wool)

	batch, err := svc.Production.StartProduction(ctx, StartProductionRequest{
		ProductID:       product.ID,
		PlannedQuantity: 1,
		Consumed:        []ConsumedMaterialInput{{MaterialID: wool.ID}},
	}, testUser)
	require.NoError(t, err)

	_, err = svc.Production.AddMachineStep(ctx, batch.ID, AddMachineStepRequest{StepName: "Finishing"}, testUser)
	assert.ErrorIs(t, err, ErrInvalidState)

	flow, err := svc.Production.GetFlow(ctx, batch.ID)
	require.NoError(t, err)
	_, err = svc.Production.CompleteStep(ctx, batch.ID, flow.Steps[0].ID, CompleteStepRequest{}, testUser)
	require.NoError(t, err)

	step, err := svc.Production.AddMachineStep(ctx, batch.ID, AddMachineStepRequest{StepName: "Finishing"}, testUser)
	require.NoError(t, err)
	assert.Equal(t, 2, step.StepNumber)

	reloaded, err := svc.Production.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StageInProgress, reloaded.MachineStageStatus)

	_, err = svc.Production.CompleteStep(ctx, batch.ID, "missing", CompleteStepRequest{}, testUser)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSkipWasteAndCompletion(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	product := testutil.SeedProduct(t, db, "Sample Rug", 1, 1)
	wool := testutil.SeedRawMaterial(t, db, "Wool", "kg", 100, 10)
	testutil.SeedRecipe(t, db, product, wool)

	batch, err := svc.Production.StartProduction(ctx, StartProductionRequest{
		ProductID:       product.ID,
		PlannedQuantity: 2,
		Consumed:        []ConsumedMaterialInput{{MaterialID: wool.ID}},
	}, testUser)
	require.NoError(t, err)
	flow, err := svc.Production.GetFlow(ctx, batch.ID)
	require.NoError(t, err)
	_, err = svc.Production.CompleteStep(ctx, batch.ID, flow.Steps[0].ID, CompleteStepRequest{}, testUser)
	require.NoError(t, err)

	_, err = svc.Production.SkipCompletion(ctx, batch.ID, SkipStageRequest{}, testUser)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Production.SkipWaste(ctx, batch.ID, SkipStageRequest{Notes: "no offcuts"}, testUser)
	require.NoError(t, err)
	assert.InDelta(t, 99.0, reloadMaterial(t, db, wool.ID).CurrentStock, 1e-9)

	var waste int64
	db.Model(&entity.WasteRecord{}).Where("batch_id = ?", batch.ID).Count(&waste)
	assert.Zero(t, waste)

	summary, err := svc.Production.SkipCompletion(ctx, batch.ID, SkipStageRequest{Notes: "samples only"}, testUser)
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	assert.Empty(t, summary.Units)

	done, err := svc.Production.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BatchStatusCompleted, done.Status)
	assert.Zero(t, done.ActualQuantity)
	assert.Zero(t, reloadProduct(t, db, product.ID).CurrentStock)

	flow, err = svc.Production.GetFlow(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StageCompleted, flow.Status)
	last := flow.Steps[len(flow.Steps)-1]
	assert.Equal(t, entity.StepTypeTesting, last.StepType)
	assert.Contains(t, last.Notes, "samples only")
}
