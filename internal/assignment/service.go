package assignment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Devanshu-pal-github/my-asset-app-sub000/internal/catalog"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/internal/directory"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/internal/items"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/internal/ledger"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/db/models"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/enums"
	pkgerrors "github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/errors"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/logger"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/metrics"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/outbox"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/outbox/payloads"
)

const defaultConflictRetries = 3

// Transactor runs a function inside a database transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Emitter queues a domain event inside the caller's transaction.
type Emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service is the single writer for item assignment state. Every transition
// runs the ledger write, the item compare-and-swap and the aggregate
// recompute in one transaction, so the ledger and the item can never disagree
// after a commit.
type Service interface {
	Assign(ctx context.Context, input AssignInput) (*Result, error)
	Unassign(ctx context.Context, input UnassignInput) (*Result, error)
	UnassignAndReassign(ctx context.Context, input ReassignInput) (*Result, error)
	MarkUnderMaintenance(ctx context.Context, itemID uuid.UUID, actor *outbox.ActorRef) (*models.AssetItem, error)
	ReturnToService(ctx context.Context, itemID uuid.UUID, actor *outbox.ActorRef) (*models.AssetItem, error)
	Retire(ctx context.Context, itemID uuid.UUID, actor *outbox.ActorRef) (*models.AssetItem, error)
}

// AssignInput identifies the item and the assignee receiving it. Actor is the
// operator performing the transition and is stamped on the emitted event.
type AssignInput struct {
	AssetItemID uuid.UUID
	AssigneeID  uuid.UUID
	Notes       *string
	Actor       *outbox.ActorRef
}

// UnassignInput identifies the active assignment to close.
type UnassignInput struct {
	AssetItemID uuid.UUID
	AssigneeID  uuid.UUID
	Actor       *outbox.ActorRef
}

// ReassignInput moves an item from one assignee to another.
type ReassignInput struct {
	AssetItemID    uuid.UUID
	FromAssigneeID uuid.UUID
	ToAssigneeID   uuid.UUID
	Notes          *string
	Actor          *outbox.ActorRef
}

// Result carries the item and the ledger record a transition touched.
type Result struct {
	Item   *models.AssetItem
	Record *models.AssignmentRecord
}

// Params collects the engine's dependencies.
type Params struct {
	DB        Transactor
	Items     items.Service
	Catalog   catalog.Service
	Ledger    ledger.Service
	Directory directory.Service
	Outbox    Emitter
	Logger    *logger.Logger
	Metrics   *metrics.AssignmentMetrics
	// ConflictRetries bounds internal replays of a transaction that lost an
	// optimistic-concurrency race. Zero means the default.
	ConflictRetries int
}

type service struct {
	db        Transactor
	items     items.Service
	catalog   catalog.Service
	ledger    ledger.Service
	directory directory.Service
	outbox    Emitter
	logg      *logger.Logger
	metrics   *metrics.AssignmentMetrics
	retries   int
	now       func() time.Time
}

// NewService wires the assignment engine.
func NewService(params Params) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("transactor required")
	}
	if params.Items == nil {
		return nil, fmt.Errorf("items service required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Directory == nil {
		return nil, fmt.Errorf("directory service required")
	}
	retries := params.ConflictRetries
	if retries <= 0 {
		retries = defaultConflictRetries
	}
	return &service{
		db:        params.DB,
		items:     params.Items,
		catalog:   params.Catalog,
		ledger:    params.Ledger,
		directory: params.Directory,
		outbox:    params.Outbox,
		logg:      params.Logger,
		metrics:   params.Metrics,
		retries:   retries,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Assign(ctx context.Context, input AssignInput) (*Result, error) {
	start := time.Now()
	result, err := s.assign(ctx, input)
	s.observe("assign", start, err)
	return result, err
}

func (s *service) assign(ctx context.Context, input AssignInput) (*Result, error) {
	if input.AssetItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset item id is required")
	}
	if input.AssigneeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignee id is required")
	}

	assignee, err := s.resolveAssignee(ctx, input.AssigneeID)
	if err != nil {
		return nil, err
	}

	var result *Result
	err = s.withConflictRetry(ctx, func() error {
		return s.db.WithTx(ctx, func(tx *gorm.DB) error {
			res, txErr := s.assignTx(ctx, tx, input, assignee, enums.EventAssetAssigned, nil)
			if txErr != nil {
				return txErr
			}
			result = res
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.logTransition(ctx, "asset assigned", result.Item, &assignee.ID)
	return result, nil
}

// assignTx runs the assign half of a transition inside tx. The eventType lets
// the reassign flow tag its second phase without duplicating the flow.
func (s *service) assignTx(ctx context.Context, tx *gorm.DB, input AssignInput, assignee *models.Assignee, eventType enums.OutboxEventType, fromAssignee *uuid.UUID) (*Result, error) {
	itemSvc := s.items.WithTx(tx)

	item, err := itemSvc.Get(ctx, input.AssetItemID)
	if err != nil {
		return nil, err
	}
	category, err := s.catalog.WithTx(tx).Get(ctx, item.CategoryID)
	if err != nil {
		return nil, err
	}

	if !item.Status.Assignable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("asset item in status %q cannot be assigned", item.Status))
	}
	if !item.IsOperational {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "asset item is not operational")
	}
	if assignee.EntityType != category.AssignableTo {
		return nil, pkgerrors.New(pkgerrors.CodeIneligibleAssignee,
			fmt.Sprintf("category %q is assignable to %s only", category.Name, category.AssignableTo))
	}

	ledgerSvc := s.ledger.WithTx(tx)
	active, err := ledgerSvc.ListActive(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	for _, record := range active {
		if record.AssigneeID == assignee.ID {
			return nil, pkgerrors.New(pkgerrors.CodeIneligibleAssignee, "asset already assigned to this assignee")
		}
	}

	if !category.AllowMultipleAssignments && item.AssignedCount >= 1 {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyAssigned, "asset already assigned")
	}
	if item.AssignedCount >= category.MaxAssignments {
		return nil, pkgerrors.New(pkgerrors.CodeCapacityExceeded,
			fmt.Sprintf("asset item already has %d of %d assignments", item.AssignedCount, category.MaxAssignments))
	}

	record, err := ledgerSvc.OpenRecord(ctx, ledger.OpenRecordInput{
		AssetItemID:           item.ID,
		AssigneeID:            assignee.ID,
		EntityType:            assignee.EntityType,
		ConditionAtAssignment: item.Condition,
		Department:            assignee.Department,
		Location:              assignee.Location,
		Notes:                 input.Notes,
	})
	if err != nil {
		return nil, err
	}

	item, err = itemSvc.CommitAssignmentState(ctx, item, enums.AssetStatusAssigned, item.AssignedCount+1)
	if err != nil {
		return nil, err
	}
	if _, err := s.catalog.WithTx(tx).RecomputeAggregates(ctx, item.CategoryID); err != nil {
		return nil, err
	}

	if err := s.emitAssign(ctx, tx, eventType, item, record, assignee, fromAssignee, input.Actor); err != nil {
		return nil, err
	}
	return &Result{Item: item, Record: record}, nil
}

func (s *service) Unassign(ctx context.Context, input UnassignInput) (*Result, error) {
	start := time.Now()
	result, err := s.unassign(ctx, input)
	s.observe("unassign", start, err)
	return result, err
}

func (s *service) unassign(ctx context.Context, input UnassignInput) (*Result, error) {
	if input.AssetItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset item id is required")
	}
	if input.AssigneeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignee id is required")
	}

	var result *Result
	err := s.withConflictRetry(ctx, func() error {
		return s.db.WithTx(ctx, func(tx *gorm.DB) error {
			res, txErr := s.unassignTx(ctx, tx, input, true)
			if txErr != nil {
				return txErr
			}
			result = res
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.logTransition(ctx, "asset unassigned", result.Item, &input.AssigneeID)
	return result, nil
}

func (s *service) unassignTx(ctx context.Context, tx *gorm.DB, input UnassignInput, emit bool) (*Result, error) {
	itemSvc := s.items.WithTx(tx)

	item, err := itemSvc.Get(ctx, input.AssetItemID)
	if err != nil {
		return nil, err
	}

	ledgerSvc := s.ledger.WithTx(tx)
	active, err := ledgerSvc.ListActive(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	var open *models.AssignmentRecord
	for i := range active {
		if active[i].AssigneeID == input.AssigneeID {
			open = &active[i]
			break
		}
	}
	if open == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active assignment for this assignee on this item")
	}

	closed, err := ledgerSvc.CloseRecord(ctx, open.ID)
	if err != nil {
		return nil, err
	}

	newCount := item.AssignedCount - 1
	if newCount < 0 {
		newCount = 0
	}
	status := enums.AssetStatusAssigned
	if newCount == 0 {
		status = enums.AssetStatusAvailable
	}
	item, err = itemSvc.CommitAssignmentState(ctx, item, status, newCount)
	if err != nil {
		return nil, err
	}
	if _, err := s.catalog.WithTx(tx).RecomputeAggregates(ctx, item.CategoryID); err != nil {
		return nil, err
	}

	if emit && s.outbox != nil {
		unassignedAt := s.now()
		if closed.UnassignedAt != nil {
			unassignedAt = *closed.UnassignedAt
		}
		err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAssetUnassigned,
			AggregateType: enums.AggregateAssetItem,
			AggregateID:   item.ID,
			Actor:         input.Actor,
			Version:       1,
			Data: payloads.AssetUnassignedEvent{
				AssetItemID:        item.ID,
				CategoryID:         item.CategoryID,
				AssigneeID:         closed.AssigneeID,
				EntityType:         closed.EntityType,
				AssignmentRecordID: closed.ID,
				UnassignedAt:       unassignedAt,
			},
		})
		if err != nil {
			return nil, err
		}
	}
	return &Result{Item: item, Record: closed}, nil
}

// UnassignAndReassign closes the current assignment and then attempts the new
// one as a separate committed step. When the second half fails the item is
// left fully unassigned rather than silently restored, so operators see the
// true state instead of a phantom assignment.
func (s *service) UnassignAndReassign(ctx context.Context, input ReassignInput) (*Result, error) {
	start := time.Now()
	result, err := s.reassign(ctx, input)
	s.observe("reassign", start, err)
	return result, err
}

func (s *service) reassign(ctx context.Context, input ReassignInput) (*Result, error) {
	if input.AssetItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset item id is required")
	}
	if input.FromAssigneeID == uuid.Nil || input.ToAssigneeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "both assignee ids are required")
	}
	if input.FromAssigneeID == input.ToAssigneeID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reassignment requires two distinct assignees")
	}

	err := s.withConflictRetry(ctx, func() error {
		return s.db.WithTx(ctx, func(tx *gorm.DB) error {
			_, txErr := s.unassignTx(ctx, tx, UnassignInput{
				AssetItemID: input.AssetItemID,
				AssigneeID:  input.FromAssigneeID,
				Actor:       input.Actor,
			}, true)
			return txErr
		})
	})
	if err != nil {
		return nil, err
	}

	assignee, err := s.resolveAssignee(ctx, input.ToAssigneeID)
	if err != nil {
		return nil, err
	}

	var result *Result
	err = s.withConflictRetry(ctx, func() error {
		return s.db.WithTx(ctx, func(tx *gorm.DB) error {
			res, txErr := s.assignTx(ctx, tx, AssignInput{
				AssetItemID: input.AssetItemID,
				AssigneeID:  input.ToAssigneeID,
				Notes:       input.Notes,
				Actor:       input.Actor,
			}, assignee, enums.EventAssetReassigned, &input.FromAssigneeID)
			if txErr != nil {
				return txErr
			}
			result = res
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.logTransition(ctx, "asset reassigned", result.Item, &input.ToAssigneeID)
	return result, nil
}

func (s *service) MarkUnderMaintenance(ctx context.Context, itemID uuid.UUID, actor *outbox.ActorRef) (*models.AssetItem, error) {
	return s.lifecycle(ctx, "maintenance", itemID, actor, func(svc items.Service) (*models.AssetItem, error) {
		return svc.MarkUnderMaintenance(ctx, itemID)
	})
}

func (s *service) ReturnToService(ctx context.Context, itemID uuid.UUID, actor *outbox.ActorRef) (*models.AssetItem, error) {
	return s.lifecycle(ctx, "return_to_service", itemID, actor, func(svc items.Service) (*models.AssetItem, error) {
		return svc.ReturnToService(ctx, itemID)
	})
}

func (s *service) Retire(ctx context.Context, itemID uuid.UUID, actor *outbox.ActorRef) (*models.AssetItem, error) {
	return s.lifecycle(ctx, "retire", itemID, actor, func(svc items.Service) (*models.AssetItem, error) {
		return svc.Retire(ctx, itemID)
	})
}

func (s *service) lifecycle(ctx context.Context, operation string, itemID uuid.UUID, actor *outbox.ActorRef, transition func(items.Service) (*models.AssetItem, error)) (*models.AssetItem, error) {
	start := time.Now()
	item, err := s.lifecycleTx(ctx, itemID, actor, transition)
	s.observe(operation, start, err)
	if err != nil {
		return nil, err
	}
	s.logTransition(ctx, "asset state changed", item, nil)
	return item, nil
}

func (s *service) lifecycleTx(ctx context.Context, itemID uuid.UUID, actor *outbox.ActorRef, transition func(items.Service) (*models.AssetItem, error)) (*models.AssetItem, error) {
	var result *models.AssetItem
	err := s.withConflictRetry(ctx, func() error {
		return s.db.WithTx(ctx, func(tx *gorm.DB) error {
			itemSvc := s.items.WithTx(tx)
			before, err := itemSvc.Get(ctx, itemID)
			if err != nil {
				return err
			}
			fromStatus := before.Status

			item, err := transition(itemSvc)
			if err != nil {
				return err
			}
			if _, err := s.catalog.WithTx(tx).RecomputeAggregates(ctx, item.CategoryID); err != nil {
				return err
			}
			if s.outbox != nil {
				err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
					EventType:     enums.EventAssetStateChanged,
					AggregateType: enums.AggregateAssetItem,
					AggregateID:   item.ID,
					Actor:         actor,
					Version:       1,
					Data: payloads.AssetStateChangedEvent{
						AssetItemID: item.ID,
						CategoryID:  item.CategoryID,
						FromStatus:  fromStatus,
						ToStatus:    item.Status,
						ChangedAt:   s.now(),
					},
				})
				if err != nil {
					return err
				}
			}
			result = item
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) resolveAssignee(ctx context.Context, id uuid.UUID) (*models.Assignee, error) {
	assignee, err := s.directory.Resolve(ctx, id)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeIneligibleAssignee, "assignee not present in directory")
		}
		return nil, err
	}
	return assignee, nil
}

// withConflictRetry replays fn while it keeps losing optimistic-concurrency
// races, up to the configured bound.
func (s *service) withConflictRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			if s.metrics != nil {
				s.metrics.IncConflictRetry()
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
		}
		err = fn()
		if err == nil || !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			return err
		}
	}
	return err
}

func (s *service) emitAssign(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, item *models.AssetItem, record *models.AssignmentRecord, assignee *models.Assignee, fromAssignee *uuid.UUID, actor *outbox.ActorRef) error {
	if s.outbox == nil {
		return nil
	}
	var data interface{}
	switch eventType {
	case enums.EventAssetReassigned:
		from := uuid.Nil
		if fromAssignee != nil {
			from = *fromAssignee
		}
		data = payloads.AssetReassignedEvent{
			AssetItemID:    item.ID,
			CategoryID:     item.CategoryID,
			FromAssigneeID: from,
			ToAssigneeID:   assignee.ID,
			ReassignedAt:   record.AssignedAt,
		}
	default:
		eventType = enums.EventAssetAssigned
		data = payloads.AssetAssignedEvent{
			AssetItemID:        item.ID,
			CategoryID:         item.CategoryID,
			AssigneeID:         assignee.ID,
			EntityType:         assignee.EntityType,
			AssignmentRecordID: record.ID,
			Condition:          record.ConditionAtAssignment,
			AssignedAt:         record.AssignedAt,
		}
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateAssetItem,
		AggregateID:   item.ID,
		Actor:         actor,
		Version:       1,
		Data:          data,
	})
}

func (s *service) observe(operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = strings.ToLower(string(pkgerrors.As(err).Code()))
	}
	s.metrics.ObserveOperation(operation, outcome, time.Since(start))
}

func (s *service) logTransition(ctx context.Context, message string, item *models.AssetItem, assigneeID *uuid.UUID) {
	if s.logg == nil || item == nil {
		return
	}
	logCtx := s.logg.WithAssetID(ctx, item.ID.String())
	logCtx = s.logg.WithCategoryID(logCtx, item.CategoryID.String())
	if assigneeID != nil {
		logCtx = s.logg.WithAssigneeID(logCtx, assigneeID.String())
	}
	s.logg.Info(logCtx, message)
}
