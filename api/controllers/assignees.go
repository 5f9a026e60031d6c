package controllers

import (
	"net/http"
	"strings"

	"github.com/Devanshu-pal-github/my-asset-app-sub000/api/responses"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/api/validators"
	directorysvc "github.com/Devanshu-pal-github/my-asset-app-sub000/internal/directory"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/enums"
	pkgerrors "github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/errors"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/logger"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/pagination"
)

// CreateAssignee registers a directory entry assets can be assigned to.
func CreateAssignee(svc directorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "directory service unavailable"))
			return
		}

		var payload createAssigneeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignee, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toAssigneeResponse(assignee))
	}
}

// GetAssignee returns one directory entry by id.
func GetAssignee(svc directorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "directory service unavailable"))
			return
		}

		assigneeID, err := parseIDParam(r, "assigneeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignee, err := svc.Resolve(r.Context(), assigneeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toAssigneeResponse(assignee))
	}
}

// ListAssignees returns a cursor-paginated page of directory entries.
func ListAssignees(svc directorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "directory service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		assignees, err := svc.List(r.Context(), pagination.Params{Limit: limit, Cursor: cursor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toAssigneeListResponse(assignees, limit))
	}
}

// DeactivateAssignee marks an entry inactive. Existing assignments stay open;
// the entry just stops being eligible for new ones.
func DeactivateAssignee(svc directorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "directory service unavailable"))
			return
		}

		assigneeID, err := parseIDParam(r, "assigneeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Deactivate(r.Context(), assigneeID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

type createAssigneeRequest struct {
	DisplayName string  `json:"display_name" validate:"required"`
	EntityType  string  `json:"entity_type" validate:"required"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Department  *string `json:"department,omitempty"`
	Location    *string `json:"location,omitempty"`
}

func (r createAssigneeRequest) toInput() (directorysvc.CreateAssigneeInput, error) {
	entityType, err := enums.ParseAssigneeType(strings.TrimSpace(r.EntityType))
	if err != nil {
		return directorysvc.CreateAssigneeInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid entity_type")
	}

	return directorysvc.CreateAssigneeInput{
		DisplayName: strings.TrimSpace(r.DisplayName),
		EntityType:  entityType,
		Email:       r.Email,
		Department:  r.Department,
		Location:    r.Location,
	}, nil
}
