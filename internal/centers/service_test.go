package centers

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-erp/accounting/internal/shared"
)

type fakeRepo struct {
	costCenters   map[uuid.UUID]*CostCenter
	profitCenters map[uuid.UUID]*ProfitCenter
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{costCenters: map[uuid.UUID]*CostCenter{}, profitCenters: map[uuid.UUID]*ProfitCenter{}}
}

func (f *fakeRepo) InsertCostCenter(_ context.Context, cc CostCenter) (CostCenter, error) {
	for _, other := range f.costCenters {
		if other.CompanyID == cc.CompanyID && other.Code == cc.Code {
			return CostCenter{}, ErrCodeTaken
		}
	}
	cc.ID = uuid.New()
	cc.IsActive = true
	cc.CreatedAt = time.Now()
	cc.UpdatedAt = cc.CreatedAt
	f.costCenters[cc.ID] = &cc
	return cc, nil
}

func (f *fakeRepo) GetCostCenter(_ context.Context, id uuid.UUID) (CostCenter, error) {
	cc, ok := f.costCenters[id]
	if !ok {
		return CostCenter{}, ErrCostCenterNotFound
	}
	return *cc, nil
}

func (f *fakeRepo) ListCostCenters(_ context.Context, companyID *uuid.UUID, _, _ int) ([]CostCenter, int, error) {
	var out []CostCenter
	for _, cc := range f.costCenters {
		if companyID != nil && cc.CompanyID != *companyID {
			continue
		}
		out = append(out, *cc)
	}
	return out, len(out), nil
}

func (f *fakeRepo) UpdateCostCenter(_ context.Context, cc CostCenter) error {
	if _, ok := f.costCenters[cc.ID]; !ok {
		return ErrCostCenterNotFound
	}
	f.costCenters[cc.ID] = &cc
	return nil
}

func (f *fakeRepo) DeleteCostCenter(_ context.Context, id uuid.UUID) error {
	if _, ok := f.costCenters[id]; !ok {
		return ErrCostCenterNotFound
	}
	delete(f.costCenters, id)
	return nil
}

func (f *fakeRepo) InsertProfitCenter(_ context.Context, pc ProfitCenter) (ProfitCenter, error) {
	for _, other := range f.profitCenters {
		if other.CompanyID == pc.CompanyID && other.Code == pc.Code {
			return ProfitCenter{}, ErrCodeTaken
		}
	}
	pc.ID = uuid.New()
	pc.IsActive = true
	pc.CreatedAt = time.Now()
	pc.UpdatedAt = pc.CreatedAt
	f.profitCenters[pc.ID] = &pc
	return pc, nil
}

func (f *fakeRepo) GetProfitCenter(_ context.Context, id uuid.UUID) (ProfitCenter, error) {
	pc, ok := f.profitCenters[id]
	if !ok {
		return ProfitCenter{}, ErrProfitCenterNotFound
	}
	return *pc, nil
}

func (f *fakeRepo) ListProfitCenters(_ context.Context, companyID *uuid.UUID, _, _ int) ([]ProfitCenter, int, error) {
	var out []ProfitCenter
	for _, pc := range f.profitCenters {
		if companyID != nil && pc.CompanyID != *companyID {
			continue
		}
		out = append(out, *pc)
	}
	return out, len(out), nil
}

func (f *fakeRepo) UpdateProfitCenter(_ context.Context, pc ProfitCenter) error {
	if _, ok := f.profitCenters[pc.ID]; !ok {
		return ErrProfitCenterNotFound
	}
	f.profitCenters[pc.ID] = &pc
	return nil
}

func (f *fakeRepo) DeleteProfitCenter(_ context.Context, id uuid.UUID) error {
	if _, ok := f.profitCenters[id]; !ok {
		return ErrProfitCenterNotFound
	}
	delete(f.profitCenters, id)
	return nil
}

func newService() *Service {
	return NewService(newFakeRepo(), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateCostCenterValidatesTypeAndReferences(t *testing.T) {
	service := newService()
	ctx := context.Background()
	companyID := uuid.New()

	_, err := service.CreateCostCenter(ctx, CreateCostCenterInput{
		CompanyID:  companyID,
		Code:       "CC-100",
		Name:       "Assembly",
		CenterType: CostCenterType("FACTORY"),
	})
	assert.ErrorIs(t, err, shared.ErrValidation)

	missing := uuid.New()
	_, err = service.CreateCostCenter(ctx, CreateCostCenterInput{
		CompanyID:          companyID,
		Code:               "CC-100",
		Name:               "Assembly",
		CenterType:         CostTypeDepartment,
		ParentCostCenterID: &missing,
	})
	assert.ErrorIs(t, err, ErrParentNotFound)

	_, err = service.CreateCostCenter(ctx, CreateCostCenterInput{
		CompanyID:      companyID,
		Code:           "CC-100",
		Name:           "Assembly",
		CenterType:     CostTypeDepartment,
		ProfitCenterID: &missing,
	})
	assert.ErrorIs(t, err, ErrProfitCenterNotFound)

	pc, err := service.CreateProfitCenter(ctx, CreateProfitCenterInput{
		CompanyID:  companyID,
		Code:       "PC-10",
		Name:       "Retail",
		CenterType: ProfitTypeStandard,
	})
	require.NoError(t, err)

	cc, err := service.CreateCostCenter(ctx, CreateCostCenterInput{
		CompanyID:      companyID,
		Code:           "CC-100",
		Name:           "Assembly",
		CenterType:     CostTypeDepartment,
		ProfitCenterID: &pc.ID,
	})
	require.NoError(t, err)
	assert.True(t, cc.IsActive)
	require.NotNil(t, cc.ProfitCenterID)
	assert.Equal(t, pc.ID, *cc.ProfitCenterID)
}

func TestCostCenterCodeUniquePerCompany(t *testing.T) {
	service := newService()
	ctx := context.Background()
	companyID := uuid.New()

	in := CreateCostCenterInput{CompanyID: companyID, Code: "CC-100", Name: "Assembly", CenterType: CostTypeCost}
	_, err := service.CreateCostCenter(ctx, in)
	require.NoError(t, err)

	_, err = service.CreateCostCenter(ctx, in)
	assert.ErrorIs(t, err, ErrCodeTaken)

	// Same code under another company is fine.
	in.CompanyID = uuid.New()
	_, err = service.CreateCostCenter(ctx, in)
	assert.NoError(t, err)
}

func TestProfitCenterSelfParentRejected(t *testing.T) {
	service := newService()
	ctx := context.Background()

	pc, err := service.CreateProfitCenter(ctx, CreateProfitCenterInput{
		CompanyID:  uuid.New(),
		Code:       "PC-10",
		Name:       "Retail",
		CenterType: ProfitTypeInvestment,
	})
	require.NoError(t, err)

	_, err = service.UpdateProfitCenter(ctx, pc.ID, UpdateProfitCenterInput{ParentProfitCenterID: &pc.ID})
	assert.ErrorIs(t, err, ErrSelfParent)
}
