package accounts

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
	accounts map[uuid.UUID]*Account
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{accounts: make(map[uuid.UUID]*Account)}
}

func (f *fakeRepo) Insert(ctx context.Context, account Account) (Account, error) {
	for _, a := range f.accounts {
		if a.CompanyID == account.CompanyID && a.Code == account.Code {
			return Account{}, ErrCodeTaken
		}
	}
	account.ID = uuid.New()
	account.IsActive = true
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	stored := account
	f.accounts[account.ID] = &stored
	return account, nil
}

func (f *fakeRepo) Get(ctx context.Context, id uuid.UUID) (Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return *a, nil
}

func (f *fakeRepo) List(ctx context.Context, filter ListFilter) ([]Account, int, error) {
	var out []Account
	for _, a := range f.accounts {
		if filter.CompanyID != nil && a.CompanyID != *filter.CompanyID {
			continue
		}
		if filter.Category != nil && a.Category != *filter.Category {
			continue
		}
		if filter.Active != nil && a.IsActive != *filter.Active {
			continue
		}
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (f *fakeRepo) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]Account, error) {
	var out []Account
	for _, a := range f.accounts {
		if a.CompanyID == companyID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRepo) Update(ctx context.Context, account Account) error {
	stored, ok := f.accounts[account.ID]
	if !ok {
		return ErrNotFound
	}
	*stored = account
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.accounts[id]; !ok {
		return ErrNotFound
	}
	delete(f.accounts, id)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService() (*fakeRepo, *Service) {
	repo := newFakeRepo()
	return repo, NewService(repo, nil, testLogger())
}

func cashInput(companyID uuid.UUID) CreateInput {
	return CreateInput{
		CompanyID: companyID,
		Code:      "1000",
		Name:      "Cash",
		Category:  CategoryAssets,
		Type:      TypeCurrentAssets,
	}
}

func TestPairingValid(t *testing.T) {
	cases := []struct {
		category Category
		typ      Type
		want     bool
	}{
		{CategoryAssets, TypeCurrentAssets, true},
		{CategoryAssets, TypeFixedAssets, true},
		{CategoryAssets, TypeOperatingRevenue, false},
		{CategoryLiabilities, TypeLongTermLiabilities, true},
		{CategoryEquity, TypeShareholdersEquity, true},
		{CategoryEquity, TypeCurrentAssets, false},
		{CategoryRevenue, TypeOtherRevenue, true},
		{CategoryExpenses, TypeOperatingExpenses, true},
		{CategoryExpenses, TypeShareholdersEquity, false},
		{Category("BOGUS"), TypeCurrentAssets, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PairingValid(tc.category, tc.typ), "%s/%s", tc.category, tc.typ)
	}
}

func TestCreateRejectsTypeOutsideCategory(t *testing.T) {
	_, service := newService()

	in := cashInput(uuid.New())
	in.Type = TypeOperatingRevenue
	_, err := service.Create(context.Background(), in)
	require.ErrorIs(t, err, ErrTypeMismatch)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	_, service := newService()

	in := cashInput(uuid.New())
	in.Category = Category("VAPOR")
	_, err := service.Create(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRejectsDuplicateCodePerCompany(t *testing.T) {
	_, service := newService()
	ctx := context.Background()
	companyID := uuid.New()

	_, err := service.Create(ctx, cashInput(companyID))
	require.NoError(t, err)

	_, err = service.Create(ctx, cashInput(companyID))
	require.ErrorIs(t, err, ErrCodeTaken)

	// The same code is fine for another company.
	_, err = service.Create(ctx, cashInput(uuid.New()))
	require.NoError(t, err)
}

func TestCreateChecksParentExists(t *testing.T) {
	_, service := newService()
	ctx := context.Background()

	in := cashInput(uuid.New())
	ghost := uuid.New()
	in.ParentAccountID = &ghost
	_, err := service.Create(ctx, in)
	require.ErrorIs(t, err, ErrParentNotFound)

	parent, err := service.Create(ctx, cashInput(uuid.New()))
	require.NoError(t, err)
	child := cashInput(parent.CompanyID)
	child.Code = "1001"
	child.ParentAccountID = &parent.ID
	created, err := service.Create(ctx, child)
	require.NoError(t, err)
	require.NotNil(t, created.ParentAccountID)
	assert.Equal(t, parent.ID, *created.ParentAccountID)
}

func TestUpdateRevalidatesPairingAfterPatch(t *testing.T) {
	_, service := newService()
	ctx := context.Background()

	account, err := service.Create(ctx, cashInput(uuid.New()))
	require.NoError(t, err)

	// Changing only the category leaves the old type orphaned.
	category := CategoryRevenue
	_, err = service.Update(ctx, account.ID, UpdateInput{Category: &category})
	require.ErrorIs(t, err, ErrTypeMismatch)

	typ := TypeOperatingRevenue
	updated, err := service.Update(ctx, account.ID, UpdateInput{Category: &category, Type: &typ})
	require.NoError(t, err)
	assert.Equal(t, CategoryRevenue, updated.Category)
	assert.Equal(t, TypeOperatingRevenue, updated.Type)
}

func TestUpdateRejectsSelfParent(t *testing.T) {
	_, service := newService()
	ctx := context.Background()

	account, err := service.Create(ctx, cashInput(uuid.New()))
	require.NoError(t, err)

	_, err = service.Update(ctx, account.ID, UpdateInput{ParentAccountID: &account.ID})
	require.ErrorIs(t, err, ErrSelfParent)
}

func TestSetActiveTogglesAndIsIdempotent(t *testing.T) {
	repo, service := newService()
	ctx := context.Background()

	account, err := service.Create(ctx, cashInput(uuid.New()))
	require.NoError(t, err)
	assert.True(t, account.IsActive)

	deactivated, err := service.SetActive(ctx, account.ID, false)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	// Deactivation keeps the row.
	_, err = repo.Get(ctx, account.ID)
	require.NoError(t, err)

	again, err := service.SetActive(ctx, account.ID, false)
	require.NoError(t, err)
	assert.False(t, again.IsActive)

	reactivated, err := service.SetActive(ctx, account.ID, true)
	require.NoError(t, err)
	assert.True(t, reactivated.IsActive)
}

func TestTreeNestsChildrenUnderParents(t *testing.T) {
	_, service := newService()
	ctx := context.Background()
	companyID := uuid.New()

	assets, err := service.Create(ctx, CreateInput{
		CompanyID: companyID,
		Code:      "1000",
		Name:      "Assets",
		Category:  CategoryAssets,
		Type:      TypeCurrentAssets,
	})
	require.NoError(t, err)

	_, err = service.Create(ctx, CreateInput{
		CompanyID:       companyID,
		Code:            "1100",
		Name:            "Cash",
		Category:        CategoryAssets,
		Type:            TypeCurrentAssets,
		ParentAccountID: &assets.ID,
	})
	require.NoError(t, err)
	_, err = service.Create(ctx, CreateInput{
		CompanyID:       companyID,
		Code:            "1200",
		Name:            "Receivables",
		Category:        CategoryAssets,
		Type:            TypeCurrentAssets,
		ParentAccountID: &assets.ID,
	})
	require.NoError(t, err)
	_, err = service.Create(ctx, CreateInput{
		CompanyID: companyID,
		Code:      "4000",
		Name:      "Sales",
		Category:  CategoryRevenue,
		Type:      TypeOperatingRevenue,
	})
	require.NoError(t, err)

	// Another company's chart stays out of the tree.
	_, err = service.Create(ctx, cashInput(uuid.New()))
	require.NoError(t, err)

	tree, err := service.Tree(ctx, companyID)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "1000", tree[0].Code)
	assert.Equal(t, "4000", tree[1].Code)
	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, "1100", tree[0].Children[0].Code)
	assert.Equal(t, "1200", tree[0].Children[1].Code)
	assert.Empty(t, tree[1].Children)
}
