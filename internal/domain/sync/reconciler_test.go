package sync

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storesync/internal/core/apperror"
	"storesync/internal/core/appctx"
	"storesync/internal/core/id"
	"storesync/internal/core/types"
	"storesync/internal/domain/catalogs/product"
	"storesync/internal/domain/catalogs/store"
	"storesync/internal/domain/catalogs/warehouse"
	"storesync/internal/domain/ledger"
	"storesync/internal/domain/orders"
	"storesync/internal/domain/webhooks"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (fakeTxManager) RunSerializable(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type fakeProductRepo struct {
	products map[id.ID]*product.Product
	created  []*product.Product
	updated  []*product.Product
}

func (r *fakeProductRepo) GetByID(_ context.Context, productID id.ID) (*product.Product, error) {
	p, ok := r.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return p, nil
}

func (r *fakeProductRepo) Create(_ context.Context, p *product.Product) error {
	if r.products == nil {
		r.products = map[id.ID]*product.Product{}
	}
	r.products[p.ID] = p
	r.created = append(r.created, p)
	return nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *product.Product) error {
	r.products[p.ID] = p
	r.updated = append(r.updated, p)
	return nil
}

func (r *fakeProductRepo) AdjustCachedQuantity(_ context.Context, _ id.ID, _ types.Quantity) error {
	return nil
}

type fakeStoreRepo struct {
	mappings map[string]*store.Mapping
	deleted  []string
}

func (r *fakeStoreRepo) GetByID(_ context.Context, storeID id.ID) (*store.Store, error) {
	return nil, apperror.NewNotFound("store", storeID)
}

func (r *fakeStoreRepo) GetMapping(_ context.Context, storeID id.ID, externalID string) (*store.Mapping, error) {
	m, ok := r.mappings[storeID.String()+"/"+externalID]
	if !ok {
		return nil, nil
	}
	return m, nil
}

func (r *fakeStoreRepo) UpsertMapping(_ context.Context, m *store.Mapping) error {
	if r.mappings == nil {
		r.mappings = map[string]*store.Mapping{}
	}
	r.mappings[m.StoreID.String()+"/"+m.ExternalID] = m
	return nil
}

func (r *fakeStoreRepo) DeleteMapping(_ context.Context, storeID id.ID, externalID string) error {
	key := storeID.String() + "/" + externalID
	delete(r.mappings, key)
	r.deleted = append(r.deleted, key)
	return nil
}

type fakeOrderCreator struct {
	inputs []orders.CreateInput
	err    error
}

func (c *fakeOrderCreator) Create(_ context.Context, in orders.CreateInput) (*orders.Order, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.inputs = append(c.inputs, in)
	return &orders.Order{ID: id.New()}, nil
}

type fakeStockService struct {
	balance types.Quantity
	appends []ledger.AppendInput
}

func (s *fakeStockService) Balance(_ context.Context, _ id.ID, _ ledger.BalanceFilter) (types.Quantity, error) {
	return s.balance, nil
}

func (s *fakeStockService) Append(_ context.Context, in ledger.AppendInput) (*ledger.Movement, error) {
	s.appends = append(s.appends, in)
	return &ledger.Movement{}, nil
}

type fakeWarehouseFinder struct {
	warehouse *warehouse.Warehouse
}

func (f *fakeWarehouseFinder) ResolveDefaultForBranch(_ context.Context, _ id.ID) (*warehouse.Warehouse, error) {
	return f.warehouse, nil
}

type reconcilerFixture struct {
	reconciler *Reconciler
	products   *fakeProductRepo
	stores     *fakeStoreRepo
	orders     *fakeOrderCreator
	stock      *fakeStockService
	finder     *fakeWarehouseFinder

	store     *store.Store
	productID id.ID
}

func newReconcilerFixture(t *testing.T) *reconcilerFixture {
	t.Helper()

	branchID := id.New()
	st := &store.Store{
		ID:                id.New(),
		BranchID:          branchID,
		Platform:          store.PlatformCustom,
		IsActive:          true,
		IntegrationUserID: "integration",
	}
	productID := id.New()

	f := &reconcilerFixture{
		products: &fakeProductRepo{products: map[id.ID]*product.Product{
			productID: {ID: productID, BranchID: branchID, SKU: "SKU-1", Name: "Widget", Price: decimal.NewFromInt(10)},
		}},
		stores: &fakeStoreRepo{mappings: map[string]*store.Mapping{}},
		orders: &fakeOrderCreator{},
		stock:  &fakeStockService{},
		finder: &fakeWarehouseFinder{warehouse: &warehouse.Warehouse{
			ID: id.New(), BranchID: branchID, IsActive: true, IsDefault: true,
		}},
		store:     st,
		productID: productID,
	}
	f.reconciler = NewReconciler(f.products, f.stores, f.orders, f.stock, f.finder, fakeTxManager{})
	return f
}

func (f *reconcilerFixture) mapProduct(externalID string) {
	f.stores.mappings[f.store.ID.String()+"/"+externalID] = &store.Mapping{
		StoreID: f.store.ID, ExternalID: externalID, ProductID: f.productID,
	}
}

func (f *reconcilerFixture) event(topic webhooks.Topic, payload string) webhooks.Event {
	return webhooks.Event{
		Store:      f.store,
		Topic:      topic,
		DeliveryID: "d-1",
		Payload:    []byte(payload),
	}
}

func TestDispatchRunsAsIntegrationUser(t *testing.T) {
	f := newReconcilerFixture(t)
	f.mapProduct("ext-1")

	var gotUser string
	f.reconciler.handlers[webhooks.TopicInventoryUpdate] = func(ctx context.Context, _ webhooks.Event) error {
		gotUser = appctx.GetUserID(ctx)
		return nil
	}

	err := f.reconciler.Dispatch(context.Background(), f.event(webhooks.TopicInventoryUpdate, `{}`))
	require.NoError(t, err)
	assert.Equal(t, "integration", gotUser)
}

func TestDispatchUnhandledTopicIsNoOp(t *testing.T) {
	f := newReconcilerFixture(t)

	err := f.reconciler.Dispatch(context.Background(), f.event(webhooks.Topic("totally.unknown"), `{}`))
	require.NoError(t, err)
	assert.Empty(t, f.stock.appends)
	assert.Empty(t, f.orders.inputs)
}

func TestInventoryAppendsDelta(t *testing.T) {
	f := newReconcilerFixture(t)
	f.mapProduct("ext-1")
	f.stock.balance = decimal.NewFromInt(42)

	err := f.reconciler.Dispatch(context.Background(),
		f.event(webhooks.TopicInventoryUpdate, `{"product_id":"ext-1","quantity":"50"}`))
	require.NoError(t, err)

	require.Len(t, f.stock.appends, 1)
	in := f.stock.appends[0]
	assert.Equal(t, f.productID, in.ProductID)
	assert.Equal(t, f.finder.warehouse.ID, in.WarehouseID)
	assert.Equal(t, ledger.DirectionIn, in.Direction)
	assert.True(t, in.Quantity.Equal(decimal.NewFromInt(8)), "expected +8, got %s", in.Quantity)
	assert.Equal(t, ledger.TypeAdjustment, in.Type)
	assert.Equal(t, ledger.RefWebhook, in.Reference.Type)
	assert.Equal(t, "d-1", in.Reference.ID)
}

func TestInventoryNegativeDelta(t *testing.T) {
	f := newReconcilerFixture(t)
	f.mapProduct("ext-1")
	f.stock.balance = decimal.NewFromInt(50)

	err := f.reconciler.Dispatch(context.Background(),
		f.event(webhooks.TopicInventoryUpdate, `{"product_id":"ext-1","quantity":"42"}`))
	require.NoError(t, err)

	require.Len(t, f.stock.appends, 1)
	assert.Equal(t, ledger.DirectionOut, f.stock.appends[0].Direction)
	assert.True(t, f.stock.appends[0].Quantity.Equal(decimal.NewFromInt(8)))
}

func TestInventoryZeroDeltaWritesNothing(t *testing.T) {
	f := newReconcilerFixture(t)
	f.mapProduct("ext-1")
	f.stock.balance = decimal.NewFromInt(50)

	err := f.reconciler.Dispatch(context.Background(),
		f.event(webhooks.TopicInventoryUpdate, `{"product_id":"ext-1","quantity":"50"}`))
	require.NoError(t, err)
	assert.Empty(t, f.stock.appends)
}

func TestInventoryUnmappedProductSkips(t *testing.T) {
	f := newReconcilerFixture(t)

	err := f.reconciler.Dispatch(context.Background(),
		f.event(webhooks.TopicInventoryUpdate, `{"product_id":"nobody","quantity":"50"}`))
	require.NoError(t, err)
	assert.Empty(t, f.stock.appends)
}

func TestInventoryNoWarehouseSkips(t *testing.T) {
	f := newReconcilerFixture(t)
	f.mapProduct("ext-1")
	f.finder.warehouse = nil

	err := f.reconciler.Dispatch(context.Background(),
		f.event(webhooks.TopicInventoryUpdate, `{"product_id":"ext-1","quantity":"50"}`))
	require.NoError(t, err)
	assert.Empty(t, f.stock.appends)
}

func TestProductCreateMapsNewProduct(t *testing.T) {
	f := newReconcilerFixture(t)

	err := f.reconciler.Dispatch(context.Background(),
		f.event(webhooks.TopicProductCreate, `{"id":"ext-9","sku":"NEW-1","title":"Gadget","price":"19.99"}`))
	require.NoError(t, err)

	require.Len(t, f.products.created, 1)
	created := f.products.created[0]
	assert.Equal(t, f.store.BranchID, created.BranchID)
	assert.Equal(t, "NEW-1", created.SKU)
	assert.Equal(t, "Gadget", created.Name)
	assert.True(t, created.Price.Equal(decimal.RequireFromString("19.99")))
	assert.True(t, created.IsActive)

	mapping, err := f.stores.GetMapping(context.Background(), f.store.ID, "ext-9")
	require.NoError(t, err)
	require.NotNil(t, mapping)
	assert.Equal(t, created.ID, mapping.ProductID)
}

func TestProductUpdateRefreshesMappedProduct(t *testing.T) {
	f := newReconcilerFixture(t)
	f.mapProduct("ext-1")

	err := f.reconciler.Dispatch(context.Background(),
		f.event(webhooks.TopicProductUpdate, `{"id":"ext-1","title":"Widget v2","price":"12.50","active":false}`))
	require.NoError(t, err)

	assert.Empty(t, f.products.created)
	require.Len(t, f.products.updated, 1)
	updated := f.products.updated[0]
	assert.Equal(t, f.productID, updated.ID)
	assert.Equal(t, "Widget v2", updated.Name)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("12.50")))
	assert.False(t, updated.IsActive)
}

func TestProductDeleteRemovesMappingOnly(t *testing.T) {
	f := newReconcilerFixture(t)
	f.mapProduct("ext-1")

	err := f.reconciler.Dispatch(context.Background(),
		f.event(webhooks.TopicProductDelete, `{"id":"ext-1"}`))
	require.NoError(t, err)

	mapping, err := f.stores.GetMapping(context.Background(), f.store.ID, "ext-1")
	require.NoError(t, err)
	assert.Nil(t, mapping)

	// The product itself survives.
	_, err = f.products.GetByID(context.Background(), f.productID)
	require.NoError(t, err)
}

func TestOrderCreateDelegates(t *testing.T) {
	f := newReconcilerFixture(t)

	payload := `{
		"id": "order-77",
		"customer": {"name": "Jo", "email": "jo@example.com"},
		"line_items": [{"product_id": "ext-1", "quantity": "2", "price": "10"}],
		"tax": "1.50"
	}`
	err := f.reconciler.Dispatch(context.Background(), f.event(webhooks.TopicOrderCreate, payload))
	require.NoError(t, err)

	require.Len(t, f.orders.inputs, 1)
	in := f.orders.inputs[0]
	require.NotNil(t, in.ExternalRef)
	assert.Equal(t, "order-77", *in.ExternalRef)
	require.NotNil(t, in.StoreID)
	assert.Equal(t, f.store.ID, *in.StoreID)
	require.NotNil(t, in.Customer)
	assert.Equal(t, "Jo", in.Customer.Name)
	require.Len(t, in.Lines, 1)
	require.NotNil(t, in.Lines[0].ExternalID)
	assert.Equal(t, "ext-1", *in.Lines[0].ExternalID)
	assert.True(t, in.Lines[0].Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, in.Tax.Equal(decimal.RequireFromString("1.50")))
}

func TestOrderCreateRequiresExternalRef(t *testing.T) {
	f := newReconcilerFixture(t)

	err := f.reconciler.Dispatch(context.Background(),
		f.event(webhooks.TopicOrderCreate, `{"line_items":[{"product_id":"x","quantity":"1"}]}`))
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Empty(t, f.orders.inputs)
}

func TestMalformedPayloadIsValidationError(t *testing.T) {
	f := newReconcilerFixture(t)

	err := f.reconciler.Dispatch(context.Background(),
		f.event(webhooks.TopicInventoryUpdate, `{not json`))
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}
