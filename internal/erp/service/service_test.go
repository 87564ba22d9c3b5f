package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/calc"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/sse"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testUser = "test-user"

func setupServices(t *testing.T) (*Services, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewServices(repository.NewRepositories(db), db, Options{}), db
}

func reloadMaterial(t *testing.T, db *gorm.DB, id string) *entity.RawMaterial {
	t.Helper()
	var m entity.RawMaterial
	require.NoError(t, db.First(&m, "id = ?", id).Error)
	return &m
}

func reloadProduct(t *testing.T, db *gorm.DB, id string) *entity.Product {
	t.Helper()
	var p entity.Product
	require.NoError(t, db.First(&p, "id = ?", id).Error)
	return &p
}

func TestCalculateRequirementsScalesRecipe(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	product := testutil.SeedProduct(t, db, "Persian Red 2x1.5", 2, 1.5)
	wool := testutil.SeedRawMaterial(t, db, "Wool", "kg", 100, 10)
	testutil.SeedRecipe(t, db, product, wool)

	plan, err := svc.Planning.CalculateRequirements(ctx, product.ID, 10, testUser)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, plan.SQMPerUnit, 1e-9)
	assert.InDelta(t, 30.0, plan.TotalSQM, 1e-9)
	require.Len(t, plan.Materials, 1)
	assert.InDelta(t, 15.0, plan.Materials[0].RequiredQuantity, 1e-9)
	assert.Equal(t, calc.AvailabilityAvailable, plan.Materials[0].Status)
	assert.Equal(t, 0, plan.Shortages)
}

func TestCalculateRequirementsShortageNotifiesOnce(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	product := testutil.SeedProduct(t, db, "Kashmir Blue", 2, 1.5)
	wool := testutil.SeedRawMaterial(t, db, "Wool", "kg", 10, 5)
	testutil.SeedRecipe(t, db, product, wool)

	plan, err := svc.Planning.CalculateRequirements(ctx, product.ID, 10, testUser)
	require.NoError(t, err)
	require.Len(t, plan.Materials, 1)
	assert.Equal(t, calc.AvailabilityLow, plan.Materials[0].Status)
	assert.InDelta(t, 5.0, plan.Materials[0].Shortage, 1e-9)
	assert.Equal(t, 1, plan.Shortages)

	_, err = svc.Planning.CalculateRequirements(ctx, product.ID, 10, testUser)
	require.NoError(t, err)

	_, total, err := svc.Notification.List(ctx, repository.NotificationListParams{Type: entity.NotifTypeLowStock})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestCalculateRequirementsWithoutRecipe(t *testing.T) {
	svc, db := setupServices(t)
	product := testutil.SeedProduct(t, db, "Plain Mat", 1, 1)

	plan, err := svc.Planning.CalculateRequirements(context.Background(), product.ID, 4, testUser)
	require.NoError(t, err)
	assert.Empty(t, plan.Materials)
	assert.InDelta(t, 4.0, plan.TotalSQM, 1e-9)

	_, err = svc.Planning.CalculateRequirements(context.Background(), product.ID, -1, testUser)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = svc.Planning.CalculateRequirements(context.Background(), "missing", 1, testUser)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCalculateRequirementsZeroQuantity(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	product := testutil.SeedProduct(t, db, "Kashmir Blue", 2, 1.5)
	wool := testutil.SeedRawMaterial(t, db, "Wool", "kg", 10, 5)
	testutil.SeedRecipe(t, db, product, wool)

	plan, err := svc.Planning.CalculateRequirements(ctx, product.ID, 0, testUser)
	require.NoError(t, err)
	assert.Zero(t, plan.TotalSQM)
	require.Len(t, plan.Materials, 1)
	assert.Zero(t, plan.Materials[0].RequiredQuantity)
	assert.Equal(t, calc.AvailabilityAvailable, plan.Materials[0].Status)
	assert.Zero(t, plan.Shortages)

	_, total, err := svc.Notification.List(ctx, repository.NotificationListParams{Type: entity.NotifTypeLowStock})
	require.NoError(t, err)
	assert.Zero(t, total)
}

type userEvent struct {
	userID    string
	eventType string
	payload   interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	toUser []userEvent
}

func (p *recordingPublisher) Publish(string, interface{}) {}

func (p *recordingPublisher) PublishToUser(userID, eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.toUser = append(p.toUser, userEvent{userID: userID, eventType: eventType, payload: payload})
}

func TestShortageToastReachesRequestingUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	events := &recordingPublisher{}
	svc := NewServices(repository.NewRepositories(db), db, Options{Events: events})
	ctx := context.Background()

	product := testutil.SeedProduct(t, db, "Kashmir Blue", 2, 1.5)
	wool := testutil.SeedRawMaterial(t, db, "Wool", "kg", 10, 5)
	testutil.SeedRecipe(t, db, product, wool)

	for i := 0; i < 2; i++ {
		_, err := svc.Planning.CalculateRequirements(ctx, product.ID, 10, "planner-1")
		require.NoError(t, err)
	}

	// the stored alert is deduplicated, the toast is not
	_, total, err := svc.Notification.List(ctx, repository.NotificationListParams{Type: entity.NotifTypeLowStock})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	require.Len(t, events.toUser, 2)
	for _, ev := range events.toUser {
		assert.Equal(t, "planner-1", ev.userID)
		assert.Equal(t, sse.EventShortageAlert, ev.eventType)
		payload := ev.payload.(map[string]interface{})
		assert.Equal(t, wool.ID, payload["material_id"])
		assert.InDelta(t, 5.0, payload["shortage"].(float64), 1e-9)
	}
}

func TestAddMaterialsToProductionDoesNotDuplicate(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	product := testutil.SeedProduct(t, db, "Jaipur Rug", 2, 1.5)
	wool := testutil.SeedRawMaterial(t, db, "Wool", "kg", 100, 10)
	dye := testutil.SeedRawMaterial(t, db, "Dye", "litre", 50, 5)

	_, err := svc.Planning.SaveDraft(ctx, product.ID, SaveDraftRequest{
		PlannedQuantity: 2,
		Requirements: []calc.MaterialRequirement{
			{MaterialID: wool.ID, QuantityPerSQM: 0.5},
			{MaterialID: dye.ID, QuantityPerSQM: 0.1},
		},
	}, testUser)
	require.NoError(t, err)

	draft, err := svc.Planning.AddMaterialsToProduction(ctx, product.ID, AddMaterialsRequest{MaterialIDs: []string{wool.ID, wool.ID}}, testUser)
	require.NoError(t, err)
	require.Len(t, draft.Consumed, 1)
	require.Len(t, draft.Requirements, 1)
	assert.Equal(t, dye.ID, draft.Requirements[0].MaterialID)

	draft, err = svc.Planning.AddMaterialsToProduction(ctx, product.ID, AddMaterialsRequest{MaterialIDs: []string{wool.ID}}, testUser)
	require.NoError(t, err)
	assert.Len(t, draft.Consumed, 1)

	recipe, err := svc.Recipe.GetByProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, recipe.Materials, 1)
	assert.Equal(t, wool.ID, recipe.Materials[0].MaterialID)
	assert.InDelta(t, 0.5, recipe.Materials[0].QuantityPerSQM, 1e-9)

	_, err = svc.Planning.AddMaterialsToProduction(ctx, product.ID, AddMaterialsRequest{MaterialIDs: []string{"unknown"}}, testUser)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Details, 1)
}

func TestDraftLifecycle(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()
	product := testutil.SeedProduct(t, db, "Draft Rug", 1, 1)

	_, err := svc.Planning.GetDraft(ctx, product.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	saved, err := svc.Planning.SaveDraft(ctx, product.ID, SaveDraftRequest{PlannedQuantity: 3}, testUser)
	require.NoError(t, err)
	assert.Equal(t, entity.PriorityNormal, saved.Priority)

	got, err := svc.Planning.GetDraft(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.PlannedQuantity)
	assert.Equal(t, testUser, got.UpdatedBy)

	require.NoError(t, svc.Planning.DeleteDraft(ctx, product.ID))
	_, err = svc.Planning.GetDraft(ctx, product.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
