package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Efi-kline/my-phone-shop/internal/profiles"
	"github.com/Efi-kline/my-phone-shop/pkg/enums"
	pkgerrors "github.com/Efi-kline/my-phone-shop/pkg/errors"
	"github.com/Efi-kline/my-phone-shop/pkg/pagination"
)

// Service exposes order history for shoppers and status management for
// admins.
type Service interface {
	ListForProfile(ctx context.Context, profileID uuid.UUID, params pagination.Params) (*OrderListResult, error)
	GetForProfile(ctx context.Context, profileID, orderID uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, actorID, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
}

type service struct {
	repo        OrderRepository
	roleChecker profiles.RoleChecker
}

// NewService constructs an orders service instance.
func NewService(repo OrderRepository, roleChecker profiles.RoleChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if roleChecker == nil {
		return nil, fmt.Errorf("role checker required")
	}
	return &service{repo: repo, roleChecker: roleChecker}, nil
}

// ListForProfile returns the caller's own orders, newest first.
func (s *service) ListForProfile(ctx context.Context, profileID uuid.UUID, params pagination.Params) (*OrderListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListByProfileID(ctx, profileID, ListQuery{
		Limit:  pagination.LimitWithBuffer(params.Limit),
		Cursor: cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders")
	}

	result := &OrderListResult{Orders: make([]OrderDTO, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for i := range rows {
		result.Orders = append(result.Orders, *NewOrderDTO(&rows[i]))
	}
	if hasMore {
		last := rows[len(rows)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &next
	}
	return result, nil
}

// GetForProfile loads one order and verifies the caller owns it. A
// mismatched owner gets the same not-found answer as a missing order so
// order ids cannot be probed.
func (s *service) GetForProfile(ctx context.Context, profileID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.ProfileID != profileID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return NewOrderDTO(order), nil
}

// UpdateStatus moves an order along its lifecycle. The actor's admin
// role is checked against the profiles row before anything else.
func (s *service) UpdateStatus(ctx context.Context, actorID, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if err := s.roleChecker.RequireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if !order.Status.CanTransitionTo(status) {
		return nil, pkgerrors.New(
			pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, status),
		)
	}

	if err := s.repo.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update order status")
	}
	order.Status = status
	return NewOrderDTO(order), nil
}
