package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/igralnica/internal/docstore"
	"github.com/erazemk/igralnica/internal/model"
	"github.com/erazemk/igralnica/internal/rules"
)

// OverdueAfter is how long a system may stay checked out before its return
// is overdue.
const OverdueAfter = 7 * 24 * time.Hour

// ReturnHistoryLimit is the default length of the return history.
const ReturnHistoryLimit = 50

// RequestDraft is what a requester submits.
type RequestDraft struct {
	SystemID    string `json:"systemId" validate:"required"`
	Unit        string `json:"unit" validate:"required"`
	Room        string `json:"room" validate:"required"`
	StartDate   string `json:"startDate" validate:"required"`
	EndDate     string `json:"endDate"`
	Purpose     string `json:"purpose" validate:"required"`
	Controllers int    `json:"controllers"`
}

func (d *RequestDraft) normalize() error {
	start, err := model.ParseDate(d.StartDate)
	if d.StartDate == "" || err != nil {
		return invalid("startDate", "a start date (YYYY-MM-DD) is required")
	}
	if d.EndDate == "" {
		d.EndDate = d.StartDate
	}
	end, err := model.ParseDate(d.EndDate)
	if err != nil {
		return invalid("endDate", "invalid date %q", d.EndDate)
	}
	if end.Before(start) {
		return invalid("endDate", "end date is before start date")
	}
	if d.SystemID == "" {
		return invalid("systemId", "a system must be selected")
	}
	if !model.ValidPurpose(d.Purpose) {
		return invalid("purpose", "unknown purpose %q", d.Purpose)
	}
	if !model.ValidUnit(d.Unit) {
		return invalid("unit", "unknown unit %q", d.Unit)
	}
	if room, err := strconv.Atoi(d.Room); err != nil || room < 1 || room > model.MaxRoom {
		return invalid("room", "room must be between 1 and %d", model.MaxRoom)
	}
	if d.Controllers <= 0 {
		d.Controllers = 1
	}
	return nil
}

// CreateRequest stores a new request for requester. Flags are computed once
// here; a flagged request starts in pending_review.
func CreateRequest(ctx context.Context, ds docstore.Store, requester *model.User, draft RequestDraft) (*model.Request, error) {
	if !requester.IsActive {
		return nil, ErrInactiveUser
	}
	if err := draft.normalize(); err != nil {
		return nil, err
	}

	system, err := GetSystem(ctx, ds, draft.SystemID)
	if err != nil {
		return nil, err
	}
	if system == nil {
		return nil, fmt.Errorf("system %s: %w", draft.SystemID, ErrNotFound)
	}
	if !system.Available {
		return nil, fmt.Errorf("%s: %w", system.Name, ErrSystemUnavailable)
	}

	flags := rules.ComputeFlags(draft.StartDate, draft.EndDate, draft.Controllers)
	ts := model.Timestamp(now())
	req := model.Request{
		Requester:   requester.Snapshot(),
		SystemID:    system.ID,
		SystemName:  system.Name,
		SystemType:  system.Type,
		Unit:        draft.Unit,
		Room:        draft.Room,
		StartDate:   draft.StartDate,
		EndDate:     draft.EndDate,
		Purpose:     draft.Purpose,
		Controllers: draft.Controllers,
		Flagged:     len(flags) > 0,
		FlagReason:  strings.Join(flags, ", "),
		Status:      model.InitialStatus(flags),
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	fields, err := docstore.Encode(req)
	if err != nil {
		return nil, err
	}
	id, err := ds.Create(ctx, CollectionRequests, fields)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.ID = id
	return &req, nil
}

// GetRequest returns a request by ID, or nil if it does not exist.
func GetRequest(ctx context.Context, ds docstore.Store, id string) (*model.Request, error) {
	return get[model.Request](ctx, ds, CollectionRequests, id)
}

func allRequestsQuery() docstore.Query {
	return docstore.From(CollectionRequests).Order(docstore.Desc("createdAt"))
}

func userRequestsQuery(userID string) docstore.Query {
	return docstore.From(CollectionRequests).
		Where("userId", docstore.Eq, userID).
		Order(docstore.Desc("createdAt"))
}

func pendingReturnsQuery() docstore.Query {
	return docstore.From(CollectionRequests).
		Where("status", docstore.Eq, model.StatusPendingReturn).
		Order(docstore.Desc("returnInitiatedAt"))
}

// ListRequests returns every request, newest first.
func ListRequests(ctx context.Context, ds docstore.Store) ([]model.Request, error) {
	return list[model.Request](ctx, ds, allRequestsQuery())
}

// ListUserRequests returns the requests made by one user, newest first.
func ListUserRequests(ctx context.Context, ds docstore.Store, userID string) ([]model.Request, error) {
	return list[model.Request](ctx, ds, userRequestsQuery(userID))
}

// ListCheckedOut returns checked out requests, most recent checkout first.
func ListCheckedOut(ctx context.Context, ds docstore.Store) ([]model.Request, error) {
	return list[model.Request](ctx, ds, docstore.From(CollectionRequests).
		Where("status", docstore.Eq, model.StatusCheckedOut).
		Order(docstore.Desc("checkedOutAt")))
}

// ListPendingReturns returns requests awaiting return confirmation.
func ListPendingReturns(ctx context.Context, ds docstore.Store) ([]model.Request, error) {
	return list[model.Request](ctx, ds, pendingReturnsQuery())
}

// ListReturnHistory returns up to limit returned requests, latest return
// first. A non-positive limit means ReturnHistoryLimit.
func ListReturnHistory(ctx context.Context, ds docstore.Store, limit int) ([]model.Request, error) {
	if limit <= 0 {
		limit = ReturnHistoryLimit
	}
	return list[model.Request](ctx, ds, docstore.From(CollectionRequests).
		Where("status", docstore.Eq, model.StatusReturned).
		Order(docstore.Desc("returnedAt")).
		Take(limit))
}

// OverdueRequest is a checked out request past its return window.
type OverdueRequest struct {
	model.Request
	DaysOverdue int `json:"daysOverdue"`
}

// ListOverdueReturns returns requests checked out at least OverdueAfter
// before at, longest outstanding first.
func ListOverdueReturns(ctx context.Context, ds docstore.Store, at time.Time) ([]OverdueRequest, error) {
	cutoff := model.Timestamp(at.Add(-OverdueAfter))
	reqs, err := list[model.Request](ctx, ds, docstore.From(CollectionRequests).
		Where("status", docstore.Eq, model.StatusCheckedOut).
		Where("checkedOutAt", docstore.Le, cutoff).
		Order(docstore.Asc("checkedOutAt")))
	if err != nil {
		return nil, err
	}

	overdue := make([]OverdueRequest, 0, len(reqs))
	for _, r := range reqs {
		out, err := model.ParseTimestamp(r.CheckedOutAt)
		if err != nil {
			continue
		}
		overdue = append(overdue, OverdueRequest{
			Request:     r,
			DaysOverdue: int(at.Sub(out) / (24 * time.Hour)),
		})
	}
	return overdue, nil
}

// ListFlaggedAwaitingReview returns flagged requests not yet decided.
func ListFlaggedAwaitingReview(ctx context.Context, ds docstore.Store) ([]model.Request, error) {
	reqs, err := list[model.Request](ctx, ds, docstore.From(CollectionRequests).
		Where("flagged", docstore.Eq, true).
		Order(docstore.Desc("createdAt")))
	if err != nil {
		return nil, err
	}
	out := make([]model.Request, 0, len(reqs))
	for _, r := range reqs {
		if r.Status == model.StatusPendingReview || r.Status == model.StatusPendingConfirmation {
			out = append(out, r)
		}
	}
	return out, nil
}

// SubscribeRequests streams all requests, newest first.
func SubscribeRequests(ctx context.Context, ds docstore.Store) (*docstore.Subscription, error) {
	return ds.Subscribe(ctx, allRequestsQuery())
}

// SubscribeUserRequests streams one user's requests, newest first.
func SubscribeUserRequests(ctx context.Context, ds docstore.Store, userID string) (*docstore.Subscription, error) {
	return ds.Subscribe(ctx, userRequestsQuery(userID))
}

// SubscribePendingReturns streams requests awaiting return confirmation.
func SubscribePendingReturns(ctx context.Context, ds docstore.Store) (*docstore.Subscription, error) {
	return ds.Subscribe(ctx, pendingReturnsQuery())
}

// Approve confirms a pending request.
func Approve(ctx context.Context, ds docstore.Store, id string) (*model.Request, error) {
	return transition(ctx, ds, id, anyStatus, model.StatusConfirmed, nil)
}

// Reject rejects a pending request.
func Reject(ctx context.Context, ds docstore.Store, id string) (*model.Request, error) {
	return transition(ctx, ds, id, anyStatus, model.StatusRejected, nil)
}

// Checkout hands out the system of a confirmed request. The request and the
// system are written together, and only if the system is still available;
// otherwise ErrAlreadyCheckedOut.
func Checkout(ctx context.Context, ds docstore.Store, id string) (*model.Request, error) {
	return transition(ctx, ds, id, anyStatus, model.StatusCheckedOut, func(req *model.Request, ts string) ([]docstore.Op, map[string]any, error) {
		return []docstore.Op{
			docstore.UpdateOp(CollectionSystems, req.SystemID, map[string]any{
				"available": false,
				"updatedAt": ts,
			}).If(docstore.Where("available", docstore.Eq, true)),
		}, map[string]any{"checkedOutAt": ts}, nil
	})
}

// InitiateReturn lets the requester hand a checked out system back. It
// notifies admins in the same write.
func InitiateReturn(ctx context.Context, ds docstore.Store, id, userID string) (*model.Request, error) {
	return transition(ctx, ds, id, anyStatus, model.StatusPendingReturn, func(req *model.Request, ts string) ([]docstore.Op, map[string]any, error) {
		if req.UserID != userID {
			return nil, nil, ErrNotOwner
		}
		n := model.Notification{
			Type:      model.NotificationReturnRequest,
			RequestID: req.ID,
			UserID:    userID,
			Message:   model.ReturnRequestMessage,
			CreatedAt: ts,
		}
		fields, err := docstore.Encode(n)
		if err != nil {
			return nil, nil, err
		}
		return []docstore.Op{
				docstore.CreateOp(CollectionNotifications, ds.NewID(CollectionNotifications), fields),
			}, map[string]any{
				"returnInitiatedAt": ts,
				"returnInitiatedBy": userID,
			}, nil
	})
}

// ConfirmReturn completes a return the requester initiated and makes the
// system available again.
func ConfirmReturn(ctx context.Context, ds docstore.Store, id string) (*model.Request, error) {
	return transition(ctx, ds, id, model.StatusPendingReturn, model.StatusReturned, releaseSystem(ctx, ds))
}

// MarkReturned records a checked out system as returned without a
// requester-initiated return.
func MarkReturned(ctx context.Context, ds docstore.Store, id string) (*model.Request, error) {
	return transition(ctx, ds, id, model.StatusCheckedOut, model.StatusReturned, releaseSystem(ctx, ds))
}

// releaseSystem sets the request's system available. A system deleted while
// checked out is skipped so the return can still be recorded.
func releaseSystem(ctx context.Context, ds docstore.Store) sideEffect {
	return func(req *model.Request, ts string) ([]docstore.Op, map[string]any, error) {
		extra := map[string]any{"returnedAt": ts}
		system, err := GetSystem(ctx, ds, req.SystemID)
		if err != nil {
			return nil, nil, err
		}
		if system == nil {
			zap.L().Warn("returned system no longer exists",
				zap.String("request", req.ID), zap.String("system", req.SystemID))
			return nil, extra, nil
		}
		return []docstore.Op{
			docstore.UpdateOp(CollectionSystems, req.SystemID, map[string]any{
				"available": true,
				"updatedAt": ts,
			}),
		}, extra, nil
	}
}

// sideEffect returns the extra writes of a transition and extra request fields.
type sideEffect func(req *model.Request, ts string) ([]docstore.Op, map[string]any, error)

// anyStatus accepts every status the lifecycle allows to move to the target.
const anyStatus = ""

// transition moves a request to status to. If from is set, the request must
// currently be in from. The status write is conditional on the status it was
// read with, so a concurrent transition makes this one fail with
// ErrIllegalTransition instead of overwriting it.
func transition(ctx context.Context, ds docstore.Store, id, from, to string, effect sideEffect) (*model.Request, error) {
	req, err := GetRequest(ctx, ds, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("request %s: %w", id, ErrNotFound)
	}
	if err := model.CheckTransition(req.Status, to); err != nil {
		return nil, err
	}
	if from != anyStatus && req.Status != from {
		return nil, fmt.Errorf("%w: %s -> %s, request must be %s", model.ErrIllegalTransition, req.Status, to, from)
	}

	ts := model.Timestamp(now())
	build := func() ([]docstore.Op, error) {
		fields := map[string]any{
			"status":    to,
			"updatedAt": ts,
		}
		var ops []docstore.Op
		if effect != nil {
			extraOps, extra, err := effect(req, ts)
			if err != nil {
				return nil, err
			}
			for k, v := range extra {
				fields[k] = v
			}
			ops = extraOps
		}
		return append([]docstore.Op{
			docstore.UpdateOp(CollectionRequests, id, fields).
				If(docstore.Where("status", docstore.Eq, req.Status)),
		}, ops...), nil
	}

	ops, err := build()
	if err != nil {
		return nil, err
	}
	err = ds.Batch(ctx, ops)
	if errors.Is(err, docstore.ErrNotFound) && len(ops) > 1 {
		// A document the side effect touches was deleted after it was
		// read. The effect reads it again and decides without it.
		if ops, err = build(); err != nil {
			return nil, err
		}
		err = ds.Batch(ctx, ops)
	}
	if err != nil {
		if errors.Is(err, docstore.ErrPrecondition) {
			return nil, explainConflict(ctx, ds, req, to)
		}
		return nil, fmt.Errorf("moving request %s to %s: %w", id, to, err)
	}

	return GetRequest(ctx, ds, id)
}

// explainConflict tells apart a request that changed underneath a transition
// from a system taken by another checkout.
func explainConflict(ctx context.Context, ds docstore.Store, before *model.Request, to string) error {
	current, err := GetRequest(ctx, ds, before.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("request %s: %w", before.ID, ErrNotFound)
	}
	if current.Status != before.Status {
		return fmt.Errorf("%w: request %s moved from %s to %s meanwhile",
			model.ErrIllegalTransition, before.ID, before.Status, current.Status)
	}
	if to == model.StatusCheckedOut {
		system, err := GetSystem(ctx, ds, before.SystemID)
		if err != nil {
			return err
		}
		if system == nil {
			return fmt.Errorf("system %s: %w", before.SystemID, ErrNotFound)
		}
		return fmt.Errorf("%s: %w", before.SystemName, ErrAlreadyCheckedOut)
	}
	return fmt.Errorf("moving request %s to %s: %w", before.ID, to, docstore.ErrPrecondition)
}
