package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"storesync/internal/core/apperror"
	"storesync/internal/core/appctx"
	"storesync/internal/core/id"
	"storesync/internal/core/tx"
	"storesync/internal/core/types"
	"storesync/internal/domain/catalogs/product"
	"storesync/internal/domain/catalogs/store"
	"storesync/internal/domain/catalogs/warehouse"
	"storesync/internal/domain/ledger"
	"storesync/internal/domain/orders"
	"storesync/internal/domain/webhooks"
	"storesync/pkg/logger"
)

// StockService reads balances and appends movements.
type StockService interface {
	Balance(ctx context.Context, productID id.ID, f ledger.BalanceFilter) (types.Quantity, error)
	Append(ctx context.Context, in ledger.AppendInput) (*ledger.Movement, error)
}

// OrderCreator creates orders idempotently on (branch, external reference).
type OrderCreator interface {
	Create(ctx context.Context, in orders.CreateInput) (*orders.Order, error)
}

// WarehouseFinder resolves the branch default warehouse, nil when none.
type WarehouseFinder interface {
	ResolveDefaultForBranch(ctx context.Context, branchID id.ID) (*warehouse.Warehouse, error)
}

type handler func(ctx context.Context, event webhooks.Event) error

// Reconciler translates storefront events into catalog, order and ledger
// operations. Topic routing is a closed table: a topic without an entry is a
// deliberate no-op, never a fallthrough into another handler.
type Reconciler struct {
	products  product.Repository
	mappings  store.Repository
	orders    OrderCreator
	stock     StockService
	resolver  WarehouseFinder
	txManager tx.Manager

	handlers map[webhooks.Topic]handler
}

var _ webhooks.Dispatcher = (*Reconciler)(nil)

// NewReconciler builds the reconciler and its topic table.
func NewReconciler(
	products product.Repository,
	mappings store.Repository,
	orderCreator OrderCreator,
	stock StockService,
	resolver WarehouseFinder,
	txManager tx.Manager,
) *Reconciler {
	r := &Reconciler{
		products:  products,
		mappings:  mappings,
		orders:    orderCreator,
		stock:     stock,
		resolver:  resolver,
		txManager: txManager,
	}
	r.handlers = map[webhooks.Topic]handler{
		webhooks.TopicProductCreate:   r.handleProductUpsert,
		webhooks.TopicProductUpdate:   r.handleProductUpsert,
		webhooks.TopicProductDelete:   r.handleProductDelete,
		webhooks.TopicOrderCreate:     r.handleOrder,
		webhooks.TopicOrderUpdate:     r.handleOrder,
		webhooks.TopicInventoryUpdate: r.handleInventory,
	}
	return r
}

// Dispatch routes a verified event to its handler. The event runs as the
// store's integration user so ledger and order attribution points at the
// integration, not at an anonymous caller.
func (r *Reconciler) Dispatch(ctx context.Context, event webhooks.Event) error {
	h, ok := r.handlers[event.Topic]
	if !ok {
		logger.Debug(ctx, "no handler for topic, ignoring",
			"store_id", event.Store.ID,
			"topic", event.Topic,
		)
		return nil
	}

	ctx = appctx.WithUser(ctx, &appctx.UserContext{
		UserID:   event.Store.IntegrationUserID,
		BranchID: event.Store.BranchID.String(),
	})

	return h(ctx, event)
}

// handleProductUpsert creates or updates the mapped product. An unmapped
// external product becomes a new product plus a mapping; a mapped one has its
// catalog fields refreshed.
func (r *Reconciler) handleProductUpsert(ctx context.Context, event webhooks.Event) error {
	var p productPayload
	if err := decode(event.Payload, "product", &p); err != nil {
		return err
	}
	if p.ExternalID == "" {
		return apperror.NewValidationField("id", "external product id is required")
	}

	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		mapping, err := r.mappings.GetMapping(ctx, event.Store.ID, p.ExternalID)
		if err != nil {
			return err
		}

		if mapping != nil {
			existing, err := r.products.GetByID(ctx, mapping.ProductID)
			if err != nil {
				return err
			}
			if p.Name != "" {
				existing.Name = p.Name
			}
			if p.Price != nil {
				existing.Price = *p.Price
			}
			if p.Active != nil {
				existing.IsActive = *p.Active
			}
			existing.UpdatedAt = time.Now().UTC()
			if err := r.products.Update(ctx, existing); err != nil {
				return fmt.Errorf("update product: %w", err)
			}
			return nil
		}

		created := &product.Product{
			ID:        id.New(),
			BranchID:  event.Store.BranchID,
			SKU:       p.SKU,
			Name:      p.Name,
			Price:     decimal.Zero,
			IsActive:  true,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		if created.SKU == "" {
			created.SKU = p.ExternalID
		}
		if created.Name == "" {
			created.Name = created.SKU
		}
		if p.Price != nil {
			created.Price = *p.Price
		}
		if p.Active != nil {
			created.IsActive = *p.Active
		}
		if err := created.Validate(ctx); err != nil {
			return err
		}
		if err := r.products.Create(ctx, created); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		if err := r.mappings.UpsertMapping(ctx, &store.Mapping{
			StoreID:    event.Store.ID,
			ExternalID: p.ExternalID,
			ProductID:  created.ID,
			CreatedAt:  time.Now().UTC(),
		}); err != nil {
			return fmt.Errorf("create mapping: %w", err)
		}

		logger.Info(ctx, "product created from storefront event",
			"product_id", created.ID,
			"store_id", event.Store.ID,
			"external_id", p.ExternalID,
		)
		return nil
	})
}

// handleProductDelete removes the mapping. The product and its ledger history
// stay; only the link to the external catalog goes away.
func (r *Reconciler) handleProductDelete(ctx context.Context, event webhooks.Event) error {
	var p productPayload
	if err := decode(event.Payload, "product", &p); err != nil {
		return err
	}
	if p.ExternalID == "" {
		return apperror.NewValidationField("id", "external product id is required")
	}
	return r.mappings.DeleteMapping(ctx, event.Store.ID, p.ExternalID)
}

// handleOrder feeds the event through regular order creation. Replays and
// order.update events for an already imported order hit the external
// reference idempotency and return the existing order untouched.
func (r *Reconciler) handleOrder(ctx context.Context, event webhooks.Event) error {
	var p orderPayload
	if err := decode(event.Payload, "order", &p); err != nil {
		return err
	}
	if p.ExternalRef == "" {
		return apperror.NewValidationField("id", "external order id is required")
	}
	if len(p.Lines) == 0 {
		return apperror.NewValidationField("line_items", "at least one line is required")
	}

	in := orders.CreateInput{
		StoreID:     &event.Store.ID,
		ExternalRef: &p.ExternalRef,
		Discount:    p.Discount,
		Tax:         p.Tax,
		Shipping:    p.Shipping,
		Notes:       p.Notes,
		OrderDate:   p.CreatedAt,
	}
	if p.Customer != nil {
		in.Customer = &orders.CustomerInput{
			Name:  p.Customer.Name,
			Email: p.Customer.Email,
			Phone: p.Customer.Phone,
		}
	}
	for i := range p.Lines {
		li := p.Lines[i]
		in.Lines = append(in.Lines, orders.LineInput{
			ExternalID: &li.ExternalID,
			Quantity:   li.Quantity,
			Price:      li.Price,
			Discount:   li.Discount,
		})
	}

	order, err := r.orders.Create(ctx, in)
	if err != nil {
		return fmt.Errorf("import order %s: %w", p.ExternalRef, err)
	}

	logger.Info(ctx, "storefront order reconciled",
		"order_id", order.ID,
		"store_id", event.Store.ID,
		"external_ref", p.ExternalRef,
	)
	return nil
}

// handleInventory reconciles a reported absolute quantity against the ledger
// balance by appending one adjustment for the delta. Unmapped products and
// branches without a warehouse are skipped, not guessed at.
func (r *Reconciler) handleInventory(ctx context.Context, event webhooks.Event) error {
	var p inventoryPayload
	if err := decode(event.Payload, "inventory", &p); err != nil {
		return err
	}
	if p.ExternalID == "" {
		return apperror.NewValidationField("product_id", "external product id is required")
	}

	mapping, err := r.mappings.GetMapping(ctx, event.Store.ID, p.ExternalID)
	if err != nil {
		return err
	}
	if mapping == nil {
		logger.Warn(ctx, "inventory event for unmapped product, skipping",
			"store_id", event.Store.ID,
			"external_id", p.ExternalID,
		)
		return nil
	}

	wh, err := r.resolver.ResolveDefaultForBranch(ctx, event.Store.BranchID)
	if err != nil {
		return err
	}
	if wh == nil {
		logger.Warn(ctx, "no warehouse for branch, skipping inventory event",
			"store_id", event.Store.ID,
			"branch_id", event.Store.BranchID,
		)
		return nil
	}

	return r.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		current, err := r.stock.Balance(ctx, mapping.ProductID, ledger.BalanceFilter{WarehouseID: &wh.ID})
		if err != nil {
			return fmt.Errorf("read balance: %w", err)
		}

		delta := p.Quantity.Sub(current)
		if delta.Abs().LessThan(types.QuantityTolerance) {
			logger.Debug(ctx, "inventory already in sync",
				"product_id", mapping.ProductID,
				"warehouse_id", wh.ID,
			)
			return nil
		}

		direction := ledger.DirectionIn
		if delta.IsNegative() {
			direction = ledger.DirectionOut
		}

		_, err = r.stock.Append(ctx, ledger.AppendInput{
			ProductID:   mapping.ProductID,
			WarehouseID: wh.ID,
			Direction:   direction,
			Quantity:    delta.Abs(),
			Type:        ledger.TypeAdjustment,
			Reference:   ledger.Reference{Type: ledger.RefWebhook, ID: event.DeliveryID},
		})
		if err != nil {
			return fmt.Errorf("append adjustment: %w", err)
		}

		logger.Info(ctx, "inventory reconciled",
			"product_id", mapping.ProductID,
			"warehouse_id", wh.ID,
			"reported", p.Quantity,
			"previous", current,
			"delta", delta,
		)
		return nil
	})
}
