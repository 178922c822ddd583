package ledger

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
	"storesync/pkg/logger"
)

// Service provides ledger writes and balance computation.
type Service struct {
	repo      Repository
	products  ProductStore
	resolver  WarehouseResolver
	txManager tx.Manager
}

// NewService creates a new ledger service.
func NewService(repo Repository, products ProductStore, resolver WarehouseResolver, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		resolver:  resolver,
		txManager: txManager,
	}
}

// AppendInput describes one movement to append.
type AppendInput struct {
	ProductID   id.ID
	WarehouseID id.ID
	Direction   Direction // in or out; set is handled by ApplyUpdate
	Quantity    types.Quantity
	Type        MovementType
	Reference   Reference
	UnitCost    *types.Money
	Note        *string
}

// Append writes one movement and the product's cached total in a single
// transaction. Quantity must be positive; Direction supplies the sign.
func (s *Service) Append(ctx context.Context, in AppendInput) (*Movement, error) {
	if !in.Quantity.IsPositive() {
		return nil, apperror.NewValidationField("qty", "quantity must be positive")
	}

	var signed types.Quantity
	switch in.Direction {
	case DirectionIn:
		signed = in.Quantity
	case DirectionOut:
		signed = in.Quantity.Neg()
	default:
		return nil, apperror.NewValidationField("direction", fmt.Sprintf("unsupported direction %q", in.Direction))
	}

	if _, err := s.products.GetRef(ctx, in.ProductID); err != nil {
		return nil, err
	}

	m := &Movement{
		ID:            id.New(),
		ProductID:     in.ProductID,
		WarehouseID:   in.WarehouseID,
		Quantity:      signed,
		Type:          in.Type,
		ReferenceType: in.Reference.Type,
		ReferenceID:   in.Reference.ID,
		UnitCost:      in.UnitCost,
		Note:          in.Note,
		CreatedBy:     appctx.GetUserID(ctx),
		CreatedAt:     time.Now().UTC(),
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Insert(ctx, m); err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}
		if err := s.products.AdjustCachedQuantity(ctx, in.ProductID, signed); err != nil {
			return fmt.Errorf("update cached quantity: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "movement appended",
		"movement_id", m.ID,
		"product_id", m.ProductID,
		"warehouse_id", m.WarehouseID,
		"quantity", m.Quantity,
		"type", m.Type,
	)

	return m, nil
}

// Balance returns the current quantity for a product, optionally restricted to
// one warehouse and/or the warehouses of one branch. Returns zero when no
// movements match.
func (s *Service) Balance(ctx context.Context, productID id.ID, f BalanceFilter) (types.Quantity, error) {
	return s.repo.SumQuantities(ctx, productID, f)
}

// History returns movement history for a product.
func (s *Service) History(ctx context.Context, productID id.ID, f MovementFilter) ([]Movement, error) {
	return s.repo.History(ctx, productID, f)
}

// UpdateInput is a stock-update request (API or POS).
type UpdateInput struct {
	ProductID   id.ID
	WarehouseID *id.ID // optional; resolved leniently when absent
	Direction   Direction
	Quantity    types.Quantity
	Type        MovementType
	Reference   Reference
	Note        *string
}

// UpdateResult reports the balance before and after a stock update.
type UpdateResult struct {
	ProductID   id.ID          `json:"productId"`
	WarehouseID id.ID          `json:"warehouseId"`
	OldQuantity types.Quantity `json:"oldQuantity"`
	NewQuantity types.Quantity `json:"newQuantity"`
	Movement    *Movement      `json:"movement,omitempty"`
}

// ApplyUpdate performs one stock update. Direction in/out appends directly;
// set reconciles the balance to an absolute target, writing nothing when the
// difference is inside the tolerance.
//
// The balance read and the movement write run in one serializable transaction
// so two concurrent updates against the same (product, warehouse) cannot both
// act on a stale balance.
func (s *Service) ApplyUpdate(ctx context.Context, in UpdateInput) (*UpdateResult, error) {
	if !in.Quantity.IsPositive() {
		return nil, apperror.NewValidationField("qty", "quantity must be positive")
	}

	prod, err := s.products.GetRef(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}

	warehouseID, err := s.resolver.ResolveForStockUpdate(ctx, in.WarehouseID, &prod.BranchID)
	if err != nil {
		return nil, err
	}

	movementType := in.Type
	if movementType == "" {
		movementType = TypeAPISync
	}

	result := &UpdateResult{ProductID: in.ProductID, WarehouseID: warehouseID}

	err = s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		current, err := s.repo.SumQuantities(ctx, in.ProductID, BalanceFilter{WarehouseID: &warehouseID})
		if err != nil {
			return fmt.Errorf("read balance: %w", err)
		}
		result.OldQuantity = current

		signed, skip, err := signedDelta(in.Direction, in.Quantity, current)
		if err != nil {
			return err
		}
		if skip {
			// Target already within tolerance of the balance: report the
			// unchanged balance and write nothing.
			result.NewQuantity = current
			return nil
		}

		m := &Movement{
			ID:            id.New(),
			ProductID:     in.ProductID,
			WarehouseID:   warehouseID,
			Quantity:      signed,
			Type:          movementType,
			ReferenceType: in.Reference.Type,
			ReferenceID:   in.Reference.ID,
			Note:          in.Note,
			CreatedBy:     appctx.GetUserID(ctx),
			CreatedAt:     time.Now().UTC(),
		}
		if err := s.repo.Insert(ctx, m); err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}
		if err := s.products.AdjustCachedQuantity(ctx, in.ProductID, signed); err != nil {
			return fmt.Errorf("update cached quantity: %w", err)
		}

		result.Movement = m
		result.NewQuantity = current.Add(signed)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// signedDelta maps a direction and requested quantity onto the signed movement
// quantity. For set mode the delta is target minus current; a delta inside the
// tolerance is reported as skip.
func signedDelta(direction Direction, qty, current types.Quantity) (signed types.Quantity, skip bool, err error) {
	switch direction {
	case DirectionIn:
		return qty, false, nil
	case DirectionOut:
		return qty.Neg(), false, nil
	case DirectionSet:
		diff := qty.Sub(current)
		if diff.Abs().LessThan(types.QuantityTolerance) {
			return decimal.Zero, true, nil
		}
		return diff, false, nil
	default:
		return decimal.Zero, false, apperror.NewValidationField("direction", fmt.Sprintf("unsupported direction %q", direction))
	}
}

// BulkItemError records one failed item of a bulk update.
type BulkItemError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// BulkResult partitions a bulk update into succeeded and failed items so a
// caller can retry only the failures.
type BulkResult struct {
	Succeeded []UpdateResult  `json:"succeeded"`
	Failed    []BulkItemError `json:"failed"`
}

// ApplyBulk processes items independently: an item's failure is recorded and
// does not abort the remaining items. The call itself only errors on empty
// input.
func (s *Service) ApplyBulk(ctx context.Context, items []UpdateInput) (*BulkResult, error) {
	if len(items) == 0 {
		return nil, apperror.NewValidationField("items", "at least one item is required")
	}

	result := &BulkResult{}
	for i, item := range items {
		res, err := s.ApplyUpdate(ctx, item)
		if err != nil {
			itemErr := BulkItemError{Index: i, Message: "stock update failed"}
			if appErr, ok := apperror.AsAppError(err); ok {
				itemErr.Message = appErr.Message
				if f, ok := appErr.Details["field"].(string); ok {
					itemErr.Field = f
				}
			} else {
				logger.Error(ctx, "bulk stock update item failed", "index", i, "error", err)
			}
			result.Failed = append(result.Failed, itemErr)
			continue
		}
		result.Succeeded = append(result.Succeeded, *res)
	}

	logger.Info(ctx, "bulk stock update processed",
		"total", len(items),
		"succeeded", len(result.Succeeded),
		"failed", len(result.Failed),
	)

	return result, nil
}
