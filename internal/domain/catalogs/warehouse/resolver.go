package warehouse

import (
	"context"

	"storesync/internal/core/apperror"
	"storesync/internal/core/branch"
	"storesync/internal/core/id"
)

// Resolver picks a usable warehouse for an operation.
//
// Two policies exist because callers want different failure behavior:
// stock-update endpoints favor availability and fall through a priority chain,
// order creation favors correctness and rejects rather than guessing. Neither
// policy ever returns a warehouse outside the effective branch.
type Resolver struct {
	repo Repository
}

// NewResolver creates a warehouse resolver.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// ResolveForStockUpdate resolves a warehouse under the lenient policy:
//  1. explicit preferred id, if active and in the effective branch
//     (an invalid explicit id is an error, not a fallthrough);
//  2. the branch's default warehouse;
//  3. any active warehouse in the branch;
//  4. any active warehouse system-wide, only when no branch context exists.
//
// The effective branch is the product's branch when known, otherwise the
// request's branch context.
func (r *Resolver) ResolveForStockUpdate(ctx context.Context, preferredID *id.ID, productBranchID *id.ID) (id.ID, error) {
	effectiveBranch, hasBranch := r.effectiveBranch(ctx, productBranchID)

	if preferredID != nil {
		wh, err := r.repo.GetByID(ctx, *preferredID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return id.Nil(), apperror.NewValidationField("warehouse_id", "warehouse not found")
			}
			return id.Nil(), err
		}
		if !wh.Usable() {
			return id.Nil(), apperror.NewValidationField("warehouse_id", "warehouse is inactive")
		}
		if hasBranch && !wh.BelongsTo(effectiveBranch) {
			return id.Nil(), apperror.NewBranchMismatch("warehouse", wh.ID)
		}
		return wh.ID, nil
	}

	if hasBranch {
		if wh, err := r.repo.GetDefault(ctx, effectiveBranch); err != nil {
			return id.Nil(), err
		} else if wh != nil && wh.Usable() {
			return wh.ID, nil
		}

		if wh, err := r.repo.FirstActiveInBranch(ctx, effectiveBranch); err != nil {
			return id.Nil(), err
		} else if wh != nil {
			return wh.ID, nil
		}

		// No cross-branch fallback: a scoped request without a usable
		// warehouse in its branch fails.
		return id.Nil(), apperror.NewValidationField("warehouse_id", "no active warehouse available in branch")
	}

	wh, err := r.repo.FirstActiveAny(ctx)
	if err != nil {
		return id.Nil(), err
	}
	if wh == nil {
		return id.Nil(), apperror.NewValidationField("warehouse_id", "no active warehouse available")
	}
	return wh.ID, nil
}

// ResolveForOrder resolves a warehouse under the strict policy used by order
// creation: an explicit preferred id must belong to the order's branch and be
// active, otherwise the call is rejected without fallback. With no preference
// the branch default, then any active branch warehouse, is used. No warehouse
// means the order cannot be created.
func (r *Resolver) ResolveForOrder(ctx context.Context, preferredID *id.ID, orderBranchID id.ID) (id.ID, error) {
	if preferredID != nil {
		wh, err := r.repo.GetByID(ctx, *preferredID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return id.Nil(), apperror.NewValidationField("warehouse_id", "warehouse not found")
			}
			return id.Nil(), err
		}
		if !wh.Usable() {
			return id.Nil(), apperror.NewValidationField("warehouse_id", "warehouse is inactive")
		}
		if !wh.BelongsTo(orderBranchID) {
			return id.Nil(), apperror.NewBranchMismatch("warehouse", wh.ID)
		}
		return wh.ID, nil
	}

	if wh, err := r.repo.GetDefault(ctx, orderBranchID); err != nil {
		return id.Nil(), err
	} else if wh != nil && wh.Usable() {
		return wh.ID, nil
	}

	if wh, err := r.repo.FirstActiveInBranch(ctx, orderBranchID); err != nil {
		return id.Nil(), err
	} else if wh != nil {
		return wh.ID, nil
	}

	return id.Nil(), apperror.NewBusinessRule(apperror.CodeNoWarehouse, "no warehouse available for order branch")
}

// ResolveDefaultForBranch returns the branch default (or any active branch
// warehouse), or nil without error when the branch has none. Used by webhook
// inventory reconciliation, which skips rather than guesses.
func (r *Resolver) ResolveDefaultForBranch(ctx context.Context, branchID id.ID) (*Warehouse, error) {
	if wh, err := r.repo.GetDefault(ctx, branchID); err != nil {
		return nil, err
	} else if wh != nil && wh.Usable() {
		return wh, nil
	}
	return r.repo.FirstActiveInBranch(ctx, branchID)
}

func (r *Resolver) effectiveBranch(ctx context.Context, productBranchID *id.ID) (id.ID, bool) {
	if productBranchID != nil && !id.IsNil(*productBranchID) {
		return *productBranchID, true
	}
	return branch.ID(ctx)
}
