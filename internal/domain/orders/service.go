package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"storesync/internal/core/apperror"
	"storesync/internal/core/appctx"
	"storesync/internal/core/branch"
	"storesync/internal/core/id"
	"storesync/internal/core/tx"
	"storesync/internal/core/types"
	"storesync/internal/domain/catalogs/customer"
	"storesync/internal/domain/catalogs/product"
	"storesync/internal/domain/catalogs/store"
	"storesync/internal/domain/ledger"
	"storesync/pkg/logger"
)

// WarehouseResolver is the strict order-creation resolution policy.
type WarehouseResolver interface {
	ResolveForOrder(ctx context.Context, preferredID *id.ID, orderBranchID id.ID) (id.ID, error)
}

// StockWriter appends stock-deduction movements on order completion.
type StockWriter interface {
	Append(ctx context.Context, in ledger.AppendInput) (*ledger.Movement, error)
}

// Service provides order creation and status transitions.
type Service struct {
	repo      Repository
	customers customer.Repository
	products  product.Repository
	mappings  store.Repository
	resolver  WarehouseResolver
	stock     StockWriter
	txManager tx.Manager
}

// NewService creates a new order service.
func NewService(
	repo Repository,
	customers customer.Repository,
	products product.Repository,
	mappings store.Repository,
	resolver WarehouseResolver,
	stock StockWriter,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		customers: customers,
		products:  products,
		mappings:  mappings,
		resolver:  resolver,
		stock:     stock,
		txManager: txManager,
	}
}

// CustomerInput is an inline customer payload.
type CustomerInput struct {
	Name  string
	Email *string
	Phone *string
}

// LineInput is one requested order position. Product is addressed by internal
// id or by a store-scoped external id.
type LineInput struct {
	ProductID  *id.ID
	ExternalID *string
	Quantity   types.Quantity
	Price      *types.Money // defaults to the catalog price
	Discount   types.Money
}

// CreateInput is an order creation request.
type CreateInput struct {
	CustomerID  *id.ID
	Customer    *CustomerInput
	StoreID     *id.ID // scope for external product ids
	Lines       []LineInput
	Discount    types.Money
	Tax         types.Money
	Shipping    types.Money
	Notes       *string
	ExternalRef *string
	WarehouseID *id.ID
	OrderDate   *time.Time
}

// Create creates an order with its lines in one all-or-nothing transaction.
//
// The operation is idempotent on (branch, external reference): when the
// reference already names an order in the branch, that order is returned
// unchanged and nothing is written.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Order, error) {
	branchID, err := branch.MustID(ctx)
	if err != nil {
		return nil, err
	}

	if len(in.Lines) == 0 {
		return nil, apperror.NewValidationField("items", "at least one line is required")
	}
	if in.Tax.IsNegative() {
		return nil, apperror.NewValidationField("tax", "tax cannot be negative")
	}
	if in.Shipping.IsNegative() {
		return nil, apperror.NewValidationField("shipping", "shipping cannot be negative")
	}

	var created *Order
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if in.ExternalRef != nil && *in.ExternalRef != "" {
			existing, err := s.repo.GetByExternalRef(ctx, branchID, *in.ExternalRef)
			if err != nil {
				return err
			}
			if existing != nil {
				lines, err := s.repo.GetLines(ctx, existing.ID)
				if err != nil {
					return err
				}
				existing.Lines = lines
				created = existing
				logger.Info(ctx, "order creation replayed idempotently",
					"order_id", existing.ID,
					"external_ref", *in.ExternalRef,
				)
				return nil
			}
		}

		customerID, err := s.resolveCustomer(ctx, branchID, in)
		if err != nil {
			return err
		}

		warehouseID, err := s.resolver.ResolveForOrder(ctx, in.WarehouseID, branchID)
		if err != nil {
			return err
		}

		order := &Order{
			ID:            id.New(),
			BranchID:      branchID,
			WarehouseID:   warehouseID,
			CustomerID:    customerID,
			Status:        StatusDraft,
			PaymentStatus: PaymentUnpaid,
			ExternalRef:   in.ExternalRef,
			Tax:           in.Tax,
			Shipping:      in.Shipping,
			PaidAmount:    decimal.Zero,
			Notes:         in.Notes,
			OrderDate:     orderDate(in.OrderDate),
			CreatedBy:     appctx.GetUserID(ctx),
			CreatedAt:     time.Now().UTC(),
			UpdatedAt:     time.Now().UTC(),
		}

		lines, subtotal, lineDiscounts, err := s.buildLines(ctx, branchID, order.ID, in)
		if err != nil {
			return err
		}

		// Order discount is clamped to the value remaining after line
		// discounts; it can never push the total negative.
		remaining := subtotal.Sub(lineDiscounts)
		orderDiscount := types.ClampMoney(in.Discount, decimal.Zero, remaining)

		order.Subtotal = subtotal
		order.Discount = orderDiscount
		order.Total = subtotal.Sub(lineDiscounts).Sub(orderDiscount).Add(in.Tax).Add(in.Shipping)
		order.Lines = lines

		if err := s.repo.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := s.repo.SaveLines(ctx, order.ID, lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}

		created = order
		logger.Info(ctx, "order created",
			"order_id", order.ID,
			"branch_id", branchID,
			"lines", len(lines),
			"total", order.Total,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// resolveCustomer applies the matching policy: an explicit id wins; an inline
// payload is matched only by email or phone; with neither present a new
// customer is always created. Name alone never matches, so an order can never
// be attributed to an unrelated customer with the same name.
func (s *Service) resolveCustomer(ctx context.Context, branchID id.ID, in CreateInput) (*id.ID, error) {
	if in.CustomerID != nil {
		c, err := s.customers.GetByID(ctx, *in.CustomerID)
		if err != nil {
			return nil, err
		}
		if c.BranchID != branchID {
			return nil, apperror.NewNotFound("customer", *in.CustomerID)
		}
		return &c.ID, nil
	}

	if in.Customer == nil {
		return nil, nil
	}
	if in.Customer.Name == "" {
		return nil, apperror.NewValidationField("customer.name", "customer name is required")
	}

	if in.Customer.Email != nil || in.Customer.Phone != nil {
		existing, err := s.customers.FindByEmailOrPhone(ctx, branchID, in.Customer.Email, in.Customer.Phone)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &existing.ID, nil
		}
	}

	c := &customer.Customer{
		ID:        id.New(),
		BranchID:  branchID,
		Name:      in.Customer.Name,
		Email:     in.Customer.Email,
		Phone:     in.Customer.Phone,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.customers.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return &c.ID, nil
}

// buildLines resolves each line's product and computes its totals.
func (s *Service) buildLines(ctx context.Context, branchID, orderID id.ID, in CreateInput) (lines []Line, subtotal, lineDiscounts types.Money, err error) {
	subtotal = decimal.Zero
	lineDiscounts = decimal.Zero

	for i, li := range in.Lines {
		p, err := s.resolveLineProduct(ctx, branchID, in.StoreID, li)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return nil, decimal.Zero, decimal.Zero, appErr.WithDetail("line", i)
			}
			return nil, decimal.Zero, decimal.Zero, err
		}

		if !li.Quantity.IsPositive() {
			return nil, decimal.Zero, decimal.Zero,
				apperror.NewValidationField("items.quantity", "quantity must be positive").WithDetail("line", i)
		}

		price := p.Price
		if li.Price != nil {
			price = *li.Price
		}
		if price.IsNegative() {
			return nil, decimal.Zero, decimal.Zero,
				apperror.NewValidationField("items.price", "price cannot be negative").WithDetail("line", i)
		}

		lineSubtotal := price.Mul(li.Quantity)
		discount := types.ClampMoney(li.Discount, decimal.Zero, lineSubtotal)

		lines = append(lines, Line{
			ID:        id.New(),
			OrderID:   orderID,
			ProductID: p.ID,
			Quantity:  li.Quantity,
			UnitPrice: price,
			Discount:  discount,
			Total:     lineSubtotal.Sub(discount),
		})

		subtotal = subtotal.Add(lineSubtotal)
		lineDiscounts = lineDiscounts.Add(discount)
	}

	return lines, subtotal, lineDiscounts, nil
}

func (s *Service) resolveLineProduct(ctx context.Context, branchID id.ID, storeID *id.ID, li LineInput) (*product.Product, error) {
	var productID id.ID

	switch {
	case li.ProductID != nil:
		productID = *li.ProductID
	case li.ExternalID != nil && *li.ExternalID != "":
		if storeID == nil {
			return nil, apperror.NewValidationField("items.external_id", "store_id is required to resolve external product ids")
		}
		mapping, err := s.mappings.GetMapping(ctx, *storeID, *li.ExternalID)
		if err != nil {
			return nil, err
		}
		if mapping == nil {
			return nil, apperror.NewNotFound("product mapping", *li.ExternalID)
		}
		productID = mapping.ProductID
	default:
		return nil, apperror.NewValidationField("items.product_id", "product_id or external_id is required")
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.BranchID != branchID {
		return nil, apperror.NewNotFound("product", productID)
	}
	return p, nil
}

// GetByID returns an order with lines, scoped to the request branch.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if branchID, ok := branch.ID(ctx); ok && order.BranchID != branchID {
		return nil, apperror.NewNotFound("order", orderID)
	}
	lines, err := s.repo.GetLines(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	order.Lines = lines
	return order, nil
}

// TransitionStatus moves an order through the status machine. A transition
// into completed additionally requires a fully paid order and deducts each
// line's quantity from stock at the order's warehouse, in the same
// transaction as the status change.
func (s *Service) TransitionStatus(ctx context.Context, orderID id.ID, to Status) (*Order, error) {
	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := ValidateTransition(order.Status, to); err != nil {
		return nil, err
	}

	if to == StatusCompleted && order.Remaining().IsPositive() {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "order has unpaid amount remaining").
			WithDetail("remaining", order.Remaining())
	}

	from := order.Status
	err = s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateStatus(ctx, orderID, to); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if to == StatusCompleted {
			if err := s.deductStock(ctx, order); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = to
	logger.Info(ctx, "order status changed",
		"order_id", orderID,
		"from", from,
		"to", to,
	)
	return order, nil
}

func (s *Service) deductStock(ctx context.Context, order *Order) error {
	for _, line := range order.Lines {
		_, err := s.stock.Append(ctx, ledger.AppendInput{
			ProductID:   line.ProductID,
			WarehouseID: order.WarehouseID,
			Direction:   ledger.DirectionOut,
			Quantity:    line.Quantity,
			Type:        ledger.TypeOrderSale,
			Reference:   ledger.Reference{Type: ledger.RefOrder, ID: order.ID.String()},
		})
		if err != nil {
			return fmt.Errorf("deduct stock for product %s: %w", line.ProductID, err)
		}
	}
	return nil
}

func orderDate(t *time.Time) time.Time {
	if t != nil {
		return *t
	}
	return time.Now().UTC()
}
