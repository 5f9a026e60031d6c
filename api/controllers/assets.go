package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Devanshu-pal-github/my-asset-app-sub000/api/middleware"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/api/responses"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/api/validators"
	assignmentsvc "github.com/Devanshu-pal-github/my-asset-app-sub000/internal/assignment"
	itemsvc "github.com/Devanshu-pal-github/my-asset-app-sub000/internal/items"
	viewsvc "github.com/Devanshu-pal-github/my-asset-app-sub000/internal/views"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/enums"
	pkgerrors "github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/errors"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/logger"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/outbox"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/pagination"
)

// requestActor builds the event actor from the identity headers the actor
// middleware copied into the context. Absent or malformed identity yields nil
// so unauthenticated internal calls still work.
func requestActor(r *http.Request) *outbox.ActorRef {
	actorID, err := uuid.Parse(middleware.ActorIDFromContext(r.Context()))
	if err != nil {
		return nil
	}
	return &outbox.ActorRef{
		UserID: actorID,
		Role:   middleware.ActorRoleFromContext(r.Context()),
	}
}

// CreateAsset registers a new asset item under an existing category.
func CreateAsset(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		var payload createAssetRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toAssetItemResponse(item))
	}
}

// GetAsset returns a single asset item by id.
func GetAsset(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		itemID, err := parseIDParam(r, "assetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Get(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toAssetItemResponse(item))
	}
}

// GetAssetByTag looks up an asset item by its unique tag.
func GetAssetByTag(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		tag := strings.TrimSpace(chi.URLParam(r, "tag"))
		if tag == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "asset tag is required"))
			return
		}

		item, err := svc.GetByTag(r.Context(), tag)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toAssetItemResponse(item))
	}
}

// ListAssetsByCategory returns a cursor-paginated page of a category's items.
func ListAssetsByCategory(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		categoryID, err := parseIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		items, err := svc.ListByCategory(r.Context(), categoryID, pagination.Params{Limit: limit, Cursor: cursor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toAssetItemListResponse(items, limit))
	}
}

// UpdateAsset applies descriptive edits to an item. Assignment state is not
// editable here; it only moves through the assignment endpoints.
func UpdateAsset(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		itemID, err := parseIDParam(r, "assetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateAssetRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateDetails(r.Context(), itemID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toAssetItemResponse(item))
	}
}

// AssignAsset hands an item to an assignee through the assignment engine.
func AssignAsset(engine assignmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignment engine unavailable"))
			return
		}

		itemID, err := parseIDParam(r, "assetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload assignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assigneeID, err := parseBodyID(payload.AssigneeID, "assignee_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := engine.Assign(r.Context(), assignmentsvc.AssignInput{
			AssetItemID: itemID,
			AssigneeID:  assigneeID,
			Notes:       payload.Notes,
			Actor:       requestActor(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toAssignmentResultResponse(result))
	}
}

// UnassignAsset closes the active assignment between an item and an assignee.
func UnassignAsset(engine assignmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignment engine unavailable"))
			return
		}

		itemID, err := parseIDParam(r, "assetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload unassignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assigneeID, err := parseBodyID(payload.AssigneeID, "assignee_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := engine.Unassign(r.Context(), assignmentsvc.UnassignInput{
			AssetItemID: itemID,
			AssigneeID:  assigneeID,
			Actor:       requestActor(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toAssignmentResultResponse(result))
	}
}

// ReassignAsset moves an item between assignees in one transaction.
func ReassignAsset(engine assignmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignment engine unavailable"))
			return
		}

		itemID, err := parseIDParam(r, "assetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reassignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fromID, err := parseBodyID(payload.FromAssigneeID, "from_assignee_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		toID, err := parseBodyID(payload.ToAssigneeID, "to_assignee_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := engine.UnassignAndReassign(r.Context(), assignmentsvc.ReassignInput{
			AssetItemID:    itemID,
			FromAssigneeID: fromID,
			ToAssigneeID:   toID,
			Notes:          payload.Notes,
			Actor:          requestActor(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toAssignmentResultResponse(result))
	}
}

type lifecycleFunc func(engine assignmentsvc.Service, r *http.Request) (any, error)

// AssetMaintenance pulls an unassigned item out of service.
func AssetMaintenance(engine assignmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return assetLifecycle(engine, logg, func(engine assignmentsvc.Service, r *http.Request) (any, error) {
		itemID, err := parseIDParam(r, "assetId")
		if err != nil {
			return nil, err
		}
		item, err := engine.MarkUnderMaintenance(r.Context(), itemID, requestActor(r))
		if err != nil {
			return nil, err
		}
		return toAssetItemResponse(item), nil
	})
}

// AssetReturnToService brings a maintained item back to available.
func AssetReturnToService(engine assignmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return assetLifecycle(engine, logg, func(engine assignmentsvc.Service, r *http.Request) (any, error) {
		itemID, err := parseIDParam(r, "assetId")
		if err != nil {
			return nil, err
		}
		item, err := engine.ReturnToService(r.Context(), itemID, requestActor(r))
		if err != nil {
			return nil, err
		}
		return toAssetItemResponse(item), nil
	})
}

// AssetRetire tombstones an unassigned item.
func AssetRetire(engine assignmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return assetLifecycle(engine, logg, func(engine assignmentsvc.Service, r *http.Request) (any, error) {
		itemID, err := parseIDParam(r, "assetId")
		if err != nil {
			return nil, err
		}
		item, err := engine.Retire(r.Context(), itemID, requestActor(r))
		if err != nil {
			return nil, err
		}
		return toAssetItemResponse(item), nil
	})
}

func assetLifecycle(engine assignmentsvc.Service, logg *logger.Logger, fn lifecycleFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignment engine unavailable"))
			return
		}

		data, err := fn(engine, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, data)
	}
}

// AssetCurrentAssignees lists who currently holds the item.
func AssetCurrentAssignees(svc viewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "view service unavailable"))
			return
		}

		itemID, err := parseIDParam(r, "assetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignees, err := svc.GetCurrentAssignees(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"assignees": assignees})
	}
}

// AssetHistory returns the item's assignment ledger, newest first.
func AssetHistory(svc viewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "view service unavailable"))
			return
		}

		itemID, err := parseIDParam(r, "assetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		entries, err := svc.GetHistory(r.Context(), itemID, pagination.Params{Limit: limit, Cursor: cursor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toHistoryResponse(entries, limit))
	}
}

type createAssetRequest struct {
	CategoryID   string  `json:"category_id" validate:"required"`
	Tag          string  `json:"tag" validate:"required"`
	Name         string  `json:"name" validate:"required"`
	SerialNumber *string `json:"serial_number,omitempty"`
	Condition    string  `json:"condition" validate:"required"`
	Notes        *string `json:"notes,omitempty"`
}

func (r createAssetRequest) toInput() (itemsvc.CreateItemInput, error) {
	categoryID, err := parseBodyID(r.CategoryID, "category_id")
	if err != nil {
		return itemsvc.CreateItemInput{}, err
	}

	condition, err := enums.ParseAssetCondition(strings.TrimSpace(r.Condition))
	if err != nil {
		return itemsvc.CreateItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid condition")
	}

	return itemsvc.CreateItemInput{
		CategoryID:   categoryID,
		Tag:          strings.TrimSpace(r.Tag),
		Name:         strings.TrimSpace(r.Name),
		SerialNumber: r.SerialNumber,
		Condition:    condition,
		Notes:        r.Notes,
	}, nil
}

type updateAssetRequest struct {
	Name          *string `json:"name,omitempty"`
	SerialNumber  *string `json:"serial_number,omitempty"`
	Condition     *string `json:"condition,omitempty"`
	IsOperational *bool   `json:"is_operational,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

func (r updateAssetRequest) toInput() (itemsvc.UpdateItemInput, error) {
	input := itemsvc.UpdateItemInput{
		Name:          r.Name,
		SerialNumber:  r.SerialNumber,
		IsOperational: r.IsOperational,
		Notes:         r.Notes,
	}
	if r.Condition != nil {
		condition, err := enums.ParseAssetCondition(strings.TrimSpace(*r.Condition))
		if err != nil {
			return itemsvc.UpdateItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid condition")
		}
		input.Condition = &condition
	}
	return input, nil
}

type assignRequest struct {
	AssigneeID string  `json:"assignee_id" validate:"required"`
	Notes      *string `json:"notes,omitempty"`
}

type unassignRequest struct {
	AssigneeID string `json:"assignee_id" validate:"required"`
}

type reassignRequest struct {
	FromAssigneeID string  `json:"from_assignee_id" validate:"required"`
	ToAssigneeID   string  `json:"to_assignee_id" validate:"required"`
	Notes          *string `json:"notes,omitempty"`
}

func toAssignmentResultResponse(result *assignmentsvc.Result) assignmentResultResponse {
	out := assignmentResultResponse{Item: toAssetItemResponse(result.Item)}
	if result.Record != nil {
		record := toAssignmentRecordResponse(result.Record)
		out.Record = &record
	}
	return out
}
