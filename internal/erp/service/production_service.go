package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/cache"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/calc"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/metrics"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/sse"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductionService runs a batch through planning, machine operation,
// waste tracking and individual-unit completion.
type ProductionService struct {
	repos    *repository.Repositories
	db       *gorm.DB
	planning *PlanningService
	notify   *NotificationService
	events   Publisher
	cache    cache.Store
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewProductionService(repos *repository.Repositories, db *gorm.DB, planning *PlanningService, notify *NotificationService, opts Options) *ProductionService {
	return &ProductionService{
		repos:    repos,
		db:       db,
		planning: planning,
		notify:   notify,
		events:   opts.Events,
		cache:    opts.Cache,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
}

type CreateBatchRequest struct {
	ProductID       string `json:"product_id" binding:"required"`
	PlannedQuantity int    `json:"planned_quantity" binding:"required,gt=0"`
	Priority        string `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	MachineID       string `json:"machine_id"`
	Notes           string `json:"notes"`
}

// CreateBatch opens a batch in the planning stage.
func (s *ProductionService) CreateBatch(ctx context.Context, req CreateBatchRequest, userID string) (*entity.ProductionBatch, error) {
	product, err := s.repos.Product.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, lookup(err, "product %s", req.ProductID)
	}
	batch := newBatch(product, req.PlannedQuantity, req.Priority, userID)
	batch.MachineID = req.MachineID
	batch.Notes = req.Notes
	if err := s.repos.Production.CreateBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}
	s.batchChanged(ctx, batch)
	return batch, nil
}

func newBatch(product *entity.Product, planned int, priority, userID string) *entity.ProductionBatch {
	if priority == "" {
		priority = entity.PriorityNormal
	}
	now := time.Now()
	return &entity.ProductionBatch{
		ID:                  uuid.New().String(),
		BatchNumber:         newCode("BATCH"),
		ProductID:           product.ID,
		ProductName:         product.Name,
		PlannedQuantity:     planned,
		Priority:            priority,
		Status:              entity.BatchStatusPlanning,
		PlanningStageStatus: entity.StageInProgress,
		PlanningStartedAt:   &now,
		PlanningBy:          userID,
		MachineStageStatus:  entity.StagePending,
		WastageStageStatus:  entity.StagePending,
		TestingStageStatus:  entity.StagePending,
		CreatedBy:           userID,
	}
}

func (s *ProductionService) GetBatch(ctx context.Context, id string) (*entity.ProductionBatch, error) {
	b, err := s.repos.Production.GetBatchWithConsumptions(ctx, id)
	if err != nil {
		return nil, lookup(err, "batch %s", id)
	}
	return b, nil
}

func (s *ProductionService) ListBatches(ctx context.Context, params repository.BatchListParams) ([]entity.ProductionBatch, int64, error) {
	return s.repos.Production.ListBatches(ctx, params)
}

func (s *ProductionService) ListConsumptions(ctx context.Context, batchID string) ([]entity.MaterialConsumption, error) {
	if _, err := s.repos.Production.GetBatch(ctx, batchID); err != nil {
		return nil, lookup(err, "batch %s", batchID)
	}
	return s.repos.Production.ListConsumptions(ctx, batchID)
}

func (s *ProductionService) GetFlow(ctx context.Context, batchID string) (*entity.ProductionFlow, error) {
	f, err := s.repos.Production.GetFlowByBatch(ctx, batchID)
	if err != nil {
		return nil, lookup(err, "production flow of batch %s", batchID)
	}
	return f, nil
}

// ConsumedMaterialInput one material the batch will use
type ConsumedMaterialInput struct {
	MaterialID           string   `json:"material_id" binding:"required"`
	MaterialType         string   `json:"material_type" binding:"omitempty,oneof=raw_material product"`
	QuantityPerSQM       float64  `json:"quantity_per_sqm"`
	IndividualProductIDs []string `json:"individual_product_ids"`
}

type StartProductionRequest struct {
	ProductID       string                  `json:"product_id" binding:"required"`
	BatchID         string                  `json:"batch_id"`
	PlannedQuantity int                     `json:"planned_quantity" binding:"required,gt=0"`
	Priority        string                  `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	MachineID       string                  `json:"machine_id"`
	Shift           string                  `json:"shift"`
	InspectorName   string                  `json:"inspector_name"`
	Notes           string                  `json:"notes"`
	Consumed        []ConsumedMaterialInput `json:"consumed" binding:"dive"`
}

// StartProduction checks the consumed materials against stock and, when
// none blocks, moves the batch into the machine stage in one transaction:
// batch, consumption rows with their unit reservations, flow and the first
// machine step. An empty consumed list falls back to the planning draft.
func (s *ProductionService) StartProduction(ctx context.Context, req StartProductionRequest, userID string) (*entity.ProductionBatch, error) {
	product, err := s.repos.Product.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, lookup(err, "product %s", req.ProductID)
	}
	consumed, err := s.consumedMaterials(ctx, product, req)
	if err != nil {
		return nil, err
	}
	totalSQM := calc.TotalSQM(req.PlannedQuantity, product.SQM())
	for i := range consumed {
		if err := s.planning.evaluate(ctx, s.repos, &consumed[i], totalSQM); err != nil {
			return nil, err
		}
	}
	if issues := calc.CheckStartGate(consumed); len(issues) > 0 {
		return nil, &GateError{Issues: issues}
	}

	var machine *entity.Machine
	if req.MachineID != "" {
		if machine, err = s.repos.Machine.GetByID(ctx, req.MachineID); err != nil {
			return nil, lookup(err, "machine %s", req.MachineID)
		}
	}

	var batchID string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)
		now := time.Now()

		batch, err := s.startBatch(ctx, repos, product, req, userID)
		if err != nil {
			return err
		}
		batchID = batch.ID

		if err := s.reserveMaterials(ctx, repos, batch, consumed, userID); err != nil {
			return err
		}

		flow, err := s.ensureFlow(ctx, repos, batch, now)
		if err != nil {
			return err
		}
		if findStep(flow, entity.StepTypeMachine) == nil {
			step := &entity.ProductionFlowStep{
				StepName:      "Machine operation",
				StepType:      entity.StepTypeMachine,
				Status:        entity.StageInProgress,
				Shift:         req.Shift,
				InspectorName: req.InspectorName,
				StartTime:     &now,
			}
			if machine != nil {
				step.MachineID = machine.ID
				step.MachineName = machine.Name
			}
			if err := addStep(ctx, repos, flow, step); err != nil {
				return err
			}
		}

		batch.Status = entity.BatchStatusInProduction
		batch.PlanningStageStatus = entity.StageCompleted
		batch.PlanningCompletedAt = &now
		batch.MachineStageStatus = entity.StageInProgress
		batch.MachineStartedAt = &now
		batch.MachineBy = actor(req.InspectorName, userID)
		if machine != nil {
			batch.MachineID = machine.ID
		}
		if err := repos.Production.UpdateBatch(ctx, batch); err != nil {
			return fmt.Errorf("update batch: %w", err)
		}
		stored, err := repos.Production.GetBatch(ctx, batch.ID)
		if err != nil {
			return fmt.Errorf("reload batch: %w", err)
		}
		if stored.Status != entity.BatchStatusInProduction {
			return fmt.Errorf("batch %s status is %s after start", stored.BatchNumber, stored.Status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.planning.discardDraft(ctx, product.ID)
	batch, err := s.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	s.batchChanged(ctx, batch)
	s.notify.Notify(ctx, NotifyInput{
		Type:        entity.NotifTypeProduction,
		Title:       "Production started",
		Message:     fmt.Sprintf("%s: %d x %s entered machine operation", batch.BatchNumber, batch.PlannedQuantity, batch.ProductName),
		Module:      "production",
		RelatedID:   batch.ID,
		RelatedType: "production_batch",
		CreatedBy:   userID,
	})
	return batch, nil
}

// consumedMaterials turns the request rows, or the draft when there are
// none, into requirement rows. Missing per-SQM quantities come from the
// recipe.
func (s *ProductionService) consumedMaterials(ctx context.Context, product *entity.Product, req StartProductionRequest) ([]calc.MaterialRequirement, error) {
	var rows []calc.MaterialRequirement
	if len(req.Consumed) > 0 {
		for _, in := range req.Consumed {
			rows = append(rows, calc.MaterialRequirement{
				MaterialID:           in.MaterialID,
				MaterialType:         in.MaterialType,
				QuantityPerSQM:       in.QuantityPerSQM,
				IndividualProductIDs: uniqueIDs(in.IndividualProductIDs),
			})
		}
	} else {
		draft, err := s.planning.GetDraft(ctx, product.ID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if draft != nil {
			rows = draft.Consumed
		}
	}
	rows = dedupeRequirements(rows)
	if len(rows) == 0 {
		return nil, invalid("no materials added to production")
	}

	recipe, err := s.repos.Recipe.GetByProductID(ctx, product.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load recipe: %w", err)
	}
	fromRecipe := map[string]entity.RecipeMaterial{}
	if recipe != nil {
		for _, m := range recipe.Materials {
			fromRecipe[m.MaterialID] = m
		}
	}

	verr := &ValidationError{Message: "invalid consumed materials"}
	for i := range rows {
		r := &rows[i]
		if rm, ok := fromRecipe[r.MaterialID]; ok {
			if !calc.IsUsable(r.QuantityPerSQM) {
				r.QuantityPerSQM = rm.QuantityPerSQM
			}
			r.MaterialType = rm.MaterialType
			r.MaterialName = rm.MaterialName
			r.Unit = rm.Unit
			r.CostPerUnit = rm.CostPerUnit
		}
		if r.IsProduct() && r.MaterialID == product.ID {
			verr.Add(ValidationDetail{Row: i + 1, ID: r.MaterialID, Fields: []string{"material_id"}, Message: "a product cannot consume itself"})
			continue
		}
		if !calc.IsUsable(r.QuantityPerSQM) {
			verr.Add(ValidationDetail{Row: i + 1, ID: r.MaterialID, Fields: []string{"quantity_per_sqm"},
				Message: fmt.Sprintf("row %d: quantity per sqm is required", i+1)})
		}
	}
	if verr.HasErrors() {
		return nil, verr
	}
	return rows, nil
}

func (s *ProductionService) startBatch(ctx context.Context, repos *repository.Repositories, product *entity.Product, req StartProductionRequest, userID string) (*entity.ProductionBatch, error) {
	if req.BatchID == "" {
		batch := newBatch(product, req.PlannedQuantity, req.Priority, userID)
		batch.Notes = req.Notes
		if err := repos.Production.CreateBatch(ctx, batch); err != nil {
			return nil, fmt.Errorf("create batch: %w", err)
		}
		return batch, nil
	}

	batch, err := repos.Production.GetBatch(ctx, req.BatchID)
	if err != nil {
		return nil, lookup(err, "batch %s", req.BatchID)
	}
	if batch.Status != entity.BatchStatusPlanning {
		return nil, stateError("batch %s is %s, only planning batches can start", batch.BatchNumber, batch.Status)
	}
	if batch.ProductID != product.ID {
		return nil, invalid("batch %s produces %s, not %s", batch.BatchNumber, batch.ProductName, product.Name)
	}
	batch.PlannedQuantity = req.PlannedQuantity
	if req.Priority != "" {
		batch.Priority = req.Priority
	}
	if req.Notes != "" {
		batch.Notes = req.Notes
	}
	return batch, nil
}

// reserveMaterials writes a consumption row for every material the batch
// does not track yet and holds the selected units, then reads the rows back.
func (s *ProductionService) reserveMaterials(ctx context.Context, repos *repository.Repositories, batch *entity.ProductionBatch, consumed []calc.MaterialRequirement, userID string) error {
	existing, err := repos.Production.ListConsumptions(ctx, batch.ID)
	if err != nil {
		return fmt.Errorf("list consumptions: %w", err)
	}
	tracked := make(map[string]bool, len(existing))
	for _, c := range existing {
		tracked[c.MaterialID] = true
	}

	expected := make(map[string]int, len(consumed))
	for _, m := range consumed {
		if tracked[m.MaterialID] {
			continue
		}
		row := &entity.MaterialConsumption{
			ID:                     uuid.New().String(),
			BatchID:                batch.ID,
			MaterialID:             m.MaterialID,
			MaterialName:           m.MaterialName,
			MaterialType:           m.MaterialType,
			QuantityPerSQM:         m.QuantityPerSQM,
			RequiredQuantity:       calc.RoundTo(m.RequiredQuantity, 4),
			QuantityUsed:           calc.RoundTo(m.RequiredQuantity, 4),
			ActualConsumedQuantity: calc.RoundTo(m.RequiredQuantity, 4),
			Unit:                   m.Unit,
			CostPerUnit:            m.CostPerUnit,
			ConsumptionStatus:      entity.ConsumptionReserved,
			CreatedBy:              userID,
		}
		if m.IsProduct() {
			row.QuantityUsed = calc.WholeUnits(m.RequiredQuantity)
			if err := reserveUnits(ctx, repos, m, batch.ID); err != nil {
				return err
			}
			row.IndividualProductIDs = m.IndividualProductIDs
		}
		row.TotalCost = calc.RoundTo(row.ActualConsumedQuantity*row.CostPerUnit, 2)
		if err := repos.Production.CreateConsumption(ctx, row); err != nil {
			return fmt.Errorf("create consumption for %s: %w", m.MaterialName, err)
		}
		expected[m.MaterialID] = len(row.IndividualProductIDs)
	}

	stored, err := repos.Production.ListConsumptions(ctx, batch.ID)
	if err != nil {
		return fmt.Errorf("verify consumptions: %w", err)
	}
	found := make(map[string]entity.MaterialConsumption, len(stored))
	for _, c := range stored {
		found[c.MaterialID] = c
	}
	for _, m := range consumed {
		c, ok := found[m.MaterialID]
		if !ok {
			return fmt.Errorf("consumption of %s missing after write", m.MaterialName)
		}
		if want, isNew := expected[m.MaterialID]; isNew && len(c.IndividualProductIDs) != want {
			return fmt.Errorf("consumption of %s stored %d units, expected %d", m.MaterialName, len(c.IndividualProductIDs), want)
		}
	}
	return nil
}

// reserveUnits flips the selected units of a product-type material from
// available to reserved for the batch.
func reserveUnits(ctx context.Context, repos *repository.Repositories, m calc.MaterialRequirement, batchID string) error {
	units, err := repos.IndividualProduct.GetByIDs(ctx, m.IndividualProductIDs)
	if err != nil {
		return fmt.Errorf("load units: %w", err)
	}
	byID := make(map[string]entity.IndividualProduct, len(units))
	for _, u := range units {
		byID[u.ID] = u
	}
	verr := &ValidationError{Message: fmt.Sprintf("invalid units selected for %s", m.MaterialName)}
	for _, id := range m.IndividualProductIDs {
		u, ok := byID[id]
		switch {
		case !ok:
			verr.Add(ValidationDetail{ID: id, Message: fmt.Sprintf("unit %s not found", id)})
		case u.ProductID != m.MaterialID:
			verr.Add(ValidationDetail{ID: id, Message: fmt.Sprintf("unit %s is not a %s", u.SerialNumber, m.MaterialName)})
		case u.Status != entity.IPStatusAvailable:
			verr.Add(ValidationDetail{ID: id, Message: fmt.Sprintf("unit %s is %s", u.SerialNumber, u.Status)})
		}
	}
	if verr.HasErrors() {
		return verr
	}

	n, err := repos.IndividualProduct.SetStatus(ctx, m.IndividualProductIDs, []string{entity.IPStatusAvailable}, entity.IPStatusReserved, batchID)
	if err != nil {
		return fmt.Errorf("reserve units: %w", err)
	}
	if int(n) != len(m.IndividualProductIDs) {
		return stateError("only %d of %d selected units of %s could be reserved", n, len(m.IndividualProductIDs), m.MaterialName)
	}
	_, err = syncProductStock(ctx, repos, m.MaterialID, 0)
	return err
}

func (s *ProductionService) ensureFlow(ctx context.Context, repos *repository.Repositories, batch *entity.ProductionBatch, now time.Time) (*entity.ProductionFlow, error) {
	flow, err := repos.Production.GetFlowByBatch(ctx, batch.ID)
	if err == nil {
		return flow, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load flow: %w", err)
	}
	flow = &entity.ProductionFlow{
		ID:        uuid.New().String(),
		BatchID:   batch.ID,
		FlowName:  fmt.Sprintf("%s / %s", batch.BatchNumber, batch.ProductName),
		Status:    entity.StageInProgress,
		StartedAt: &now,
	}
	if err := repos.Production.CreateFlow(ctx, flow); err != nil {
		return nil, fmt.Errorf("create flow: %w", err)
	}
	return flow, nil
}

// addStep appends step to the flow and makes it the current one.
func addStep(ctx context.Context, repos *repository.Repositories, flow *entity.ProductionFlow, step *entity.ProductionFlowStep) error {
	next := 1
	for _, st := range flow.Steps {
		if st.StepNumber >= next {
			next = st.StepNumber + 1
		}
	}
	step.ID = uuid.New().String()
	step.FlowID = flow.ID
	step.StepNumber = next
	if err := repos.Production.CreateStep(ctx, step); err != nil {
		return fmt.Errorf("create %s step: %w", step.StepType, err)
	}
	flow.Steps = append(flow.Steps, *step)
	flow.CurrentStep = next
	if err := repos.Production.UpdateFlow(ctx, flow); err != nil {
		return fmt.Errorf("update flow: %w", err)
	}
	return nil
}

func findStep(flow *entity.ProductionFlow, stepType string) *entity.ProductionFlowStep {
	for i := range flow.Steps {
		if flow.Steps[i].StepType == stepType {
			return &flow.Steps[i]
		}
	}
	return nil
}

func actor(name, userID string) string {
	if name != "" {
		return name
	}
	return userID
}

type AddMachineStepRequest struct {
	MachineID     string `json:"machine_id"`
	StepName      string `json:"step_name"`
	Shift         string `json:"shift"`
	InspectorName string `json:"inspector_name"`
	Notes         string `json:"notes"`
}

// AddMachineStep starts another machine operation. The previous machine
// steps must be completed first.
func (s *ProductionService) AddMachineStep(ctx context.Context, batchID string, req AddMachineStepRequest, userID string) (*entity.ProductionFlowStep, error) {
	var machine *entity.Machine
	if req.MachineID != "" {
		m, err := s.repos.Machine.GetByID(ctx, req.MachineID)
		if err != nil {
			return nil, lookup(err, "machine %s", req.MachineID)
		}
		machine = m
	}

	var step *entity.ProductionFlowStep
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)
		batch, err := repos.Production.GetBatch(ctx, batchID)
		if err != nil {
			return lookup(err, "batch %s", batchID)
		}
		if batch.Status != entity.BatchStatusInProduction || batch.WastageStageStatus == entity.StageCompleted {
			return stateError("batch %s is not in the machine stage", batch.BatchNumber)
		}
		flow, err := repos.Production.GetFlowByBatch(ctx, batchID)
		if err != nil {
			return lookup(err, "production flow of batch %s", batchID)
		}
		for _, st := range flow.Steps {
			if st.StepType == entity.StepTypeMachine && st.Status != entity.StageCompleted {
				return stateError("machine step %d (%s) is not completed yet", st.StepNumber, st.StepName)
			}
		}

		now := time.Now()
		name := req.StepName
		if name == "" {
			name = "Machine operation"
		}
		step = &entity.ProductionFlowStep{
			StepName:      name,
			StepType:      entity.StepTypeMachine,
			Status:        entity.StageInProgress,
			Shift:         req.Shift,
			InspectorName: req.InspectorName,
			StartTime:     &now,
			Notes:         req.Notes,
		}
		if machine != nil {
			step.MachineID = machine.ID
			step.MachineName = machine.Name
		}
		if err := addStep(ctx, repos, flow, step); err != nil {
			return err
		}
		batch.MachineStageStatus = entity.StageInProgress
		batch.MachineCompletedAt = nil
		return repos.Production.UpdateBatch(ctx, batch)
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(sse.EventProductionUpdate, map[string]interface{}{"batch_id": batchID, "step": step})
	return step, nil
}

type CompleteStepRequest struct {
	Notes         string `json:"notes"`
	InspectorName string `json:"inspector_name"`
}

// CompleteStep finishes a machine step. The machine stage counts as done
// once every machine step is completed.
func (s *ProductionService) CompleteStep(ctx context.Context, batchID, stepID string, req CompleteStepRequest, userID string) (*entity.ProductionFlowStep, error) {
	var step *entity.ProductionFlowStep
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)
		batch, err := repos.Production.GetBatch(ctx, batchID)
		if err != nil {
			return lookup(err, "batch %s", batchID)
		}
		if batch.Status != entity.BatchStatusInProduction {
			return stateError("batch %s is %s", batch.BatchNumber, batch.Status)
		}
		flow, err := repos.Production.GetFlowByBatch(ctx, batchID)
		if err != nil {
			return lookup(err, "production flow of batch %s", batchID)
		}
		for i := range flow.Steps {
			if flow.Steps[i].ID == stepID {
				step = &flow.Steps[i]
			}
		}
		if step == nil {
			return fmt.Errorf("step %s of batch %s: %w", stepID, batch.BatchNumber, ErrNotFound)
		}
		if step.StepType != entity.StepTypeMachine {
			return stateError("%s steps are completed by their own workflow", step.StepType)
		}
		if step.Status == entity.StageCompleted {
			return stateError("step %d is already completed", step.StepNumber)
		}

		now := time.Now()
		step.Status = entity.StageCompleted
		step.EndTime = &now
		if step.StartTime == nil {
			step.StartTime = &now
		}
		if req.Notes != "" {
			step.Notes = req.Notes
		}
		if req.InspectorName != "" {
			step.InspectorName = req.InspectorName
		}
		if err := repos.Production.UpdateStep(ctx, step); err != nil {
			return fmt.Errorf("update step: %w", err)
		}

		if machineStepsDone(flow) {
			batch.MachineStageStatus = entity.StageCompleted
			batch.MachineCompletedAt = &now
			if err := repos.Production.UpdateBatch(ctx, batch); err != nil {
				return fmt.Errorf("update batch: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(sse.EventProductionUpdate, map[string]interface{}{"batch_id": batchID, "step": step})
	return step, nil
}

// machineStepsDone reports whether the flow has machine steps and all of
// them are completed.
func machineStepsDone(flow *entity.ProductionFlow) bool {
	n := 0
	for _, st := range flow.Steps {
		if st.StepType != entity.StepTypeMachine {
			continue
		}
		if st.Status != entity.StageCompleted {
			return false
		}
		n++
	}
	return n > 0
}

type CancelBatchRequest struct {
	Reason string `json:"reason"`
}

// CancelBatch stops a batch before its waste stage is booked. Units held
// by the batch become available again.
func (s *ProductionService) CancelBatch(ctx context.Context, batchID string, req CancelBatchRequest, userID string) (*entity.ProductionBatch, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)
		batch, err := repos.Production.GetBatch(ctx, batchID)
		if err != nil {
			return lookup(err, "batch %s", batchID)
		}
		if batch.Status != entity.BatchStatusPlanning && batch.Status != entity.BatchStatusInProduction {
			return stateError("batch %s is %s and cannot be cancelled", batch.BatchNumber, batch.Status)
		}
		if batch.WastageStageStatus == entity.StageCompleted {
			return stateError("batch %s already consumed its materials", batch.BatchNumber)
		}

		consumptions, err := repos.Production.ListConsumptions(ctx, batchID)
		if err != nil {
			return fmt.Errorf("list consumptions: %w", err)
		}
		for i := range consumptions {
			c := &consumptions[i]
			if c.ConsumptionStatus != entity.ConsumptionReserved {
				continue
			}
			if len(c.IndividualProductIDs) > 0 {
				if _, err := repos.IndividualProduct.SetStatus(ctx, c.IndividualProductIDs, []string{entity.IPStatusReserved}, entity.IPStatusAvailable, ""); err != nil {
					return fmt.Errorf("release units of %s: %w", c.MaterialName, err)
				}
				if _, err := syncProductStock(ctx, repos, c.MaterialID, 0); err != nil {
					return err
				}
			}
			c.ConsumptionStatus = entity.ConsumptionReleased
			if err := repos.Production.UpdateConsumption(ctx, c); err != nil {
				return fmt.Errorf("release consumption of %s: %w", c.MaterialName, err)
			}
		}

		batch.Status = entity.BatchStatusCancelled
		if req.Reason != "" {
			batch.Notes = appendNote(batch.Notes, "cancelled: "+req.Reason)
		}
		if err := repos.Production.UpdateBatch(ctx, batch); err != nil {
			return fmt.Errorf("update batch: %w", err)
		}

		flow, err := repos.Production.GetFlowByBatch(ctx, batchID)
		switch {
		case err == nil:
			flow.Status = entity.BatchStatusCancelled
			return repos.Production.UpdateFlow(ctx, flow)
		case errors.Is(err, repository.ErrNotFound):
			return nil
		default:
			return fmt.Errorf("load flow: %w", err)
		}
	})
	if err != nil {
		return nil, err
	}
	batch, err := s.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	s.batchChanged(ctx, batch)
	return batch, nil
}

func (s *ProductionService) batchChanged(ctx context.Context, batch *entity.ProductionBatch) {
	s.metrics.BatchTransition(batch.Status)
	invalidateDashboard(ctx, s.cache, s.logger)
	s.events.Publish(sse.EventProductionUpdate, map[string]interface{}{
		"batch_id":     batch.ID,
		"batch_number": batch.BatchNumber,
		"product_id":   batch.ProductID,
		"status":       batch.Status,
	})
}

func appendNote(notes, line string) string {
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}
