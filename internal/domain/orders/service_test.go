package orders

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storesync/internal/core/apperror"
	"storesync/internal/core/branch"
	"storesync/internal/core/id"
	"storesync/internal/core/types"
	"storesync/internal/domain/catalogs/customer"
	"storesync/internal/domain/catalogs/product"
	"storesync/internal/domain/catalogs/store"
	"storesync/internal/domain/ledger"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (fakeTxManager) RunSerializable(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type fakeOrderRepo struct {
	orders map[id.ID]*Order
	lines  map[id.ID][]Line
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[id.ID]*Order{}, lines: map[id.ID][]Line{}}
}

func (r *fakeOrderRepo) GetByID(_ context.Context, orderID id.ID) (*Order, error) {
	o, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID)
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) GetByExternalRef(_ context.Context, branchID id.ID, externalRef string) (*Order, error) {
	for _, o := range r.orders {
		if o.BranchID == branchID && o.ExternalRef != nil && *o.ExternalRef == externalRef {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeOrderRepo) GetLines(_ context.Context, orderID id.ID) ([]Line, error) {
	return r.lines[orderID], nil
}

func (r *fakeOrderRepo) Create(_ context.Context, o *Order) error {
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) SaveLines(_ context.Context, orderID id.ID, lines []Line) error {
	r.lines[orderID] = lines
	return nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, orderID id.ID, status Status) error {
	o, ok := r.orders[orderID]
	if !ok {
		return apperror.NewNotFound("order", orderID)
	}
	o.Status = status
	return nil
}

type fakeCustomerRepo struct {
	customers map[id.ID]*customer.Customer
	created   int
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: map[id.ID]*customer.Customer{}}
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, customerID id.ID) (*customer.Customer, error) {
	c, ok := r.customers[customerID]
	if !ok {
		return nil, apperror.NewNotFound("customer", customerID)
	}
	return c, nil
}

func (r *fakeCustomerRepo) FindByEmailOrPhone(_ context.Context, branchID id.ID, email, phone *string) (*customer.Customer, error) {
	for _, c := range r.customers {
		if c.BranchID != branchID {
			continue
		}
		if email != nil && c.Email != nil && *c.Email == *email {
			return c, nil
		}
		if phone != nil && c.Phone != nil && *c.Phone == *phone {
			return c, nil
		}
	}
	return nil, nil
}

func (r *fakeCustomerRepo) Create(_ context.Context, c *customer.Customer) error {
	r.customers[c.ID] = c
	r.created++
	return nil
}

type fakeProductRepo struct {
	products map[id.ID]*product.Product
}

func (r *fakeProductRepo) GetByID(_ context.Context, productID id.ID) (*product.Product, error) {
	p, ok := r.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return p, nil
}

func (r *fakeProductRepo) Create(_ context.Context, p *product.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *product.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) AdjustCachedQuantity(_ context.Context, _ id.ID, _ types.Quantity) error {
	return nil
}

type fakeStoreRepo struct {
	mappings map[string]*store.Mapping
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
	delete(r.mappings, storeID.String()+"/"+externalID)
	return nil
}

type fakeOrderResolver struct {
	warehouseID id.ID
	err         error
}

func (r *fakeOrderResolver) ResolveForOrder(_ context.Context, preferredID *id.ID, _ id.ID) (id.ID, error) {
	if r.err != nil {
		return id.Nil(), r.err
	}
	if preferredID != nil {
		return *preferredID, nil
	}
	return r.warehouseID, nil
}

type fakeStockWriter struct {
	appends []ledger.AppendInput
	err     error
}

func (w *fakeStockWriter) Append(_ context.Context, in ledger.AppendInput) (*ledger.Movement, error) {
	if w.err != nil {
		return nil, w.err
	}
	w.appends = append(w.appends, in)
	return &ledger.Movement{}, nil
}

type orderFixture struct {
	svc       *Service
	repo      *fakeOrderRepo
	customers *fakeCustomerRepo
	products  *fakeProductRepo
	stores    *fakeStoreRepo
	stock     *fakeStockWriter

	branchID    id.ID
	warehouseID id.ID
	productID   id.ID
	ctx         context.Context
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	branchID := id.New()
	warehouseID := id.New()
	productID := id.New()

	products := &fakeProductRepo{products: map[id.ID]*product.Product{
		productID: {
			ID:       productID,
			BranchID: branchID,
			SKU:      "SKU-1",
			Name:     "Widget",
			Price:    decimal.NewFromInt(100),
			IsActive: true,
		},
	}}

	f := &orderFixture{
		repo:        newFakeOrderRepo(),
		customers:   newFakeCustomerRepo(),
		products:    products,
		stores:      &fakeStoreRepo{mappings: map[string]*store.Mapping{}},
		stock:       &fakeStockWriter{},
		branchID:    branchID,
		warehouseID: warehouseID,
		productID:   productID,
		ctx:         branch.WithID(context.Background(), branchID),
	}
	f.svc = NewService(
		f.repo, f.customers, f.products, f.stores,
		&fakeOrderResolver{warehouseID: warehouseID}, f.stock, fakeTxManager{},
	)
	return f
}

func (f *orderFixture) lineInput(qty int64) LineInput {
	return LineInput{ProductID: &f.productID, Quantity: decimal.NewFromInt(qty)}
}

func TestCreateRequiresBranchContext(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.Create(context.Background(), CreateInput{Lines: []LineInput{f.lineInput(1)}})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreateComputesTotals(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.svc.Create(f.ctx, CreateInput{
		Lines: []LineInput{
			{ProductID: &f.productID, Quantity: decimal.NewFromInt(2)}, // 200 at catalog price
			{
				ProductID: &f.productID,
				Quantity:  decimal.NewFromInt(1),
				Price:     moneyPtr(decimal.NewFromInt(50)),
				Discount:  decimal.NewFromInt(10),
			},
		},
		Discount: decimal.NewFromInt(20),
		Tax:      decimal.NewFromInt(5),
		Shipping: decimal.NewFromInt(15),
	})
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, order.Status)
	assert.Equal(t, PaymentUnpaid, order.PaymentStatus)
	assert.Equal(t, f.warehouseID, order.WarehouseID)
	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(250)))
	assert.True(t, order.Discount.Equal(decimal.NewFromInt(20)))
	// 250 - 10 line discount - 20 order discount + 5 tax + 15 shipping
	assert.True(t, order.Total.Equal(decimal.NewFromInt(240)), "got total %s", order.Total)
	require.Len(t, order.Lines, 2)
}

func TestCreateClampsDiscounts(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.svc.Create(f.ctx, CreateInput{
		Lines: []LineInput{
			{
				ProductID: &f.productID,
				Quantity:  decimal.NewFromInt(1),
				Discount:  decimal.NewFromInt(500), // exceeds line subtotal of 100
			},
		},
		Discount: decimal.NewFromInt(999), // exceeds remaining value
	})
	require.NoError(t, err)

	require.Len(t, order.Lines, 1)
	assert.True(t, order.Lines[0].Discount.Equal(decimal.NewFromInt(100)))
	assert.True(t, order.Lines[0].Total.IsZero())
	assert.True(t, order.Discount.IsZero(), "order discount clamps to remaining value, got %s", order.Discount)
	// Total never goes negative: 100 - 100 - 0 = 0.
	assert.True(t, order.Total.IsZero())
}

func TestCreateIdempotentOnExternalRef(t *testing.T) {
	f := newOrderFixture(t)
	ref := "shop-1001"

	first, err := f.svc.Create(f.ctx, CreateInput{
		Lines:       []LineInput{f.lineInput(2)},
		ExternalRef: &ref,
	})
	require.NoError(t, err)

	// Replay with different lines must return the original order untouched.
	second, err := f.svc.Create(f.ctx, CreateInput{
		Lines:       []LineInput{f.lineInput(9), f.lineInput(9)},
		ExternalRef: &ref,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.Len(t, second.Lines, 1)
	assert.True(t, second.Lines[0].Quantity.Equal(decimal.NewFromInt(2)))
	assert.Len(t, f.repo.orders, 1)
}

func TestCreateIdempotencyIsBranchScoped(t *testing.T) {
	f := newOrderFixture(t)
	ref := "shop-1001"

	_, err := f.svc.Create(f.ctx, CreateInput{
		Lines:       []LineInput{f.lineInput(1)},
		ExternalRef: &ref,
	})
	require.NoError(t, err)

	// The same reference in another branch is a different order. The other
	// branch needs its own product to reference.
	otherBranch := id.New()
	otherProduct := id.New()
	f.products.products[otherProduct] = &product.Product{
		ID: otherProduct, BranchID: otherBranch, Name: "Other", Price: decimal.NewFromInt(1), IsActive: true,
	}
	otherCtx := branch.WithID(context.Background(), otherBranch)

	_, err = f.svc.Create(otherCtx, CreateInput{
		Lines:       []LineInput{{ProductID: &otherProduct, Quantity: decimal.NewFromInt(1)}},
		ExternalRef: &ref,
	})
	require.NoError(t, err)
	assert.Len(t, f.repo.orders, 2)
}

func TestCreateCustomerMatching(t *testing.T) {
	email := "jo@example.com"

	t.Run("matches existing by email", func(t *testing.T) {
		f := newOrderFixture(t)
		existing := &customer.Customer{ID: id.New(), BranchID: f.branchID, Name: "Jo", Email: &email}
		f.customers.customers[existing.ID] = existing

		order, err := f.svc.Create(f.ctx, CreateInput{
			Lines:    []LineInput{f.lineInput(1)},
			Customer: &CustomerInput{Name: "Completely Different Name", Email: &email},
		})
		require.NoError(t, err)
		require.NotNil(t, order.CustomerID)
		assert.Equal(t, existing.ID, *order.CustomerID)
		assert.Zero(t, f.customers.created)
	})

	t.Run("name alone never matches", func(t *testing.T) {
		f := newOrderFixture(t)
		existing := &customer.Customer{ID: id.New(), BranchID: f.branchID, Name: "Jo", Email: &email}
		f.customers.customers[existing.ID] = existing

		order, err := f.svc.Create(f.ctx, CreateInput{
			Lines:    []LineInput{f.lineInput(1)},
			Customer: &CustomerInput{Name: "Jo"},
		})
		require.NoError(t, err)
		require.NotNil(t, order.CustomerID)
		assert.NotEqual(t, existing.ID, *order.CustomerID)
		assert.Equal(t, 1, f.customers.created)
	})

	t.Run("unmatched contact creates new customer", func(t *testing.T) {
		f := newOrderFixture(t)
		other := "someone-else@example.com"

		order, err := f.svc.Create(f.ctx, CreateInput{
			Lines:    []LineInput{f.lineInput(1)},
			Customer: &CustomerInput{Name: "New Person", Email: &other},
		})
		require.NoError(t, err)
		require.NotNil(t, order.CustomerID)
		assert.Equal(t, 1, f.customers.created)
	})

	t.Run("explicit id from another branch rejected", func(t *testing.T) {
		f := newOrderFixture(t)
		foreign := &customer.Customer{ID: id.New(), BranchID: id.New(), Name: "Foreign"}
		f.customers.customers[foreign.ID] = foreign

		_, err := f.svc.Create(f.ctx, CreateInput{
			Lines:      []LineInput{f.lineInput(1)},
			CustomerID: &foreign.ID,
		})
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})
}

func TestCreateRejectsCrossBranchProduct(t *testing.T) {
	f := newOrderFixture(t)
	foreign := id.New()
	f.products.products[foreign] = &product.Product{
		ID: foreign, BranchID: id.New(), Name: "Foreign", Price: decimal.NewFromInt(1), IsActive: true,
	}

	_, err := f.svc.Create(f.ctx, CreateInput{
		Lines: []LineInput{{ProductID: &foreign, Quantity: decimal.NewFromInt(1)}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
	assert.Empty(t, f.repo.orders)
}

func TestCreateResolvesExternalLineViaMapping(t *testing.T) {
	f := newOrderFixture(t)
	storeID := id.New()
	externalID := "ext-42"
	f.stores.mappings[storeID.String()+"/"+externalID] = &store.Mapping{
		StoreID: storeID, ExternalID: externalID, ProductID: f.productID,
	}

	order, err := f.svc.Create(f.ctx, CreateInput{
		StoreID: &storeID,
		Lines:   []LineInput{{ExternalID: &externalID, Quantity: decimal.NewFromInt(3)}},
	})
	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, f.productID, order.Lines[0].ProductID)
}

func TestCreateWarehouseFailureAborts(t *testing.T) {
	f := newOrderFixture(t)
	f.svc = NewService(
		f.repo, f.customers, f.products, f.stores,
		&fakeOrderResolver{err: apperror.NewBusinessRule(apperror.CodeNoWarehouse, "no warehouse available for order branch")},
		f.stock, fakeTxManager{},
	)

	_, err := f.svc.Create(f.ctx, CreateInput{Lines: []LineInput{f.lineInput(1)}})
	require.Error(t, err)
	assert.Empty(t, f.repo.orders)
}

func TestTransitionStatusCompletedDeductsStock(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.svc.Create(f.ctx, CreateInput{
		Lines: []LineInput{f.lineInput(2), f.lineInput(5)},
	})
	require.NoError(t, err)

	// Walk the order to processing and mark it paid.
	_, err = f.svc.TransitionStatus(f.ctx, order.ID, StatusPending)
	require.NoError(t, err)
	_, err = f.svc.TransitionStatus(f.ctx, order.ID, StatusProcessing)
	require.NoError(t, err)
	f.repo.orders[order.ID].PaidAmount = f.repo.orders[order.ID].Total

	updated, err := f.svc.TransitionStatus(f.ctx, order.ID, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)

	require.Len(t, f.stock.appends, 2)
	for _, in := range f.stock.appends {
		assert.Equal(t, ledger.DirectionOut, in.Direction)
		assert.Equal(t, ledger.TypeOrderSale, in.Type)
		assert.Equal(t, f.warehouseID, in.WarehouseID)
		assert.Equal(t, ledger.RefOrder, in.Reference.Type)
		assert.Equal(t, order.ID.String(), in.Reference.ID)
	}
	assert.True(t, f.stock.appends[0].Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, f.stock.appends[1].Quantity.Equal(decimal.NewFromInt(5)))
}

func TestTransitionStatusCompletedRequiresFullPayment(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.svc.Create(f.ctx, CreateInput{Lines: []LineInput{f.lineInput(1)}})
	require.NoError(t, err)

	_, err = f.svc.TransitionStatus(f.ctx, order.ID, StatusPending)
	require.NoError(t, err)
	_, err = f.svc.TransitionStatus(f.ctx, order.ID, StatusProcessing)
	require.NoError(t, err)

	_, err = f.svc.TransitionStatus(f.ctx, order.ID, StatusCompleted)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)

	assert.Equal(t, StatusProcessing, f.repo.orders[order.ID].Status)
	assert.Empty(t, f.stock.appends)
}

func TestTransitionStatusRejectsCompletedToPending(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.svc.Create(f.ctx, CreateInput{Lines: []LineInput{f.lineInput(1)}})
	require.NoError(t, err)
	f.repo.orders[order.ID].Status = StatusCompleted

	_, err = f.svc.TransitionStatus(f.ctx, order.ID, StatusPending)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)

	assert.Equal(t, StatusCompleted, f.repo.orders[order.ID].Status)
}

func TestGetByIDScopedToBranch(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.svc.Create(f.ctx, CreateInput{Lines: []LineInput{f.lineInput(1)}})
	require.NoError(t, err)

	otherCtx := branch.WithID(context.Background(), id.New())
	_, err = f.svc.GetByID(otherCtx, order.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func moneyPtr(v types.Money) *types.Money {
	return &v
}
