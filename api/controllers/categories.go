package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Devanshu-pal-github/my-asset-app-sub000/api/responses"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/api/validators"
	catalogsvc "github.com/Devanshu-pal-github/my-asset-app-sub000/internal/catalog"
	viewsvc "github.com/Devanshu-pal-github/my-asset-app-sub000/internal/views"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/enums"
	pkgerrors "github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/errors"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/logger"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/pagination"
)

// CreateCategory registers a new category with its assignment policy.
func CreateCategory(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createCategoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toCategoryResponse(category))
	}
}

// GetCategory returns a single category with its policy and aggregates.
func GetCategory(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categoryID, err := parseIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.Get(r.Context(), categoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toCategoryResponse(category))
	}
}

// ListCategories returns a cursor-paginated page of categories.
func ListCategories(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		categories, err := svc.List(r.Context(), pagination.Params{Limit: limit, Cursor: cursor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toCategoryListResponse(categories, limit))
	}
}

// UpdateCategoryDescription replaces the free-text description. A null
// description clears it; the policy fields are immutable after creation.
func UpdateCategoryDescription(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categoryID, err := parseIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCategoryDescriptionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.UpdateDescription(r.Context(), categoryID, payload.Description)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toCategoryResponse(category))
	}
}

// DeleteCategory removes an empty category.
func DeleteCategory(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categoryID, err := parseIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), categoryID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// CategoryStats returns the category's derived utilization aggregates. Stats
// reads go through the view layer, which recomputes before answering.
func CategoryStats(svc viewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "view service unavailable"))
			return
		}

		categoryID, err := parseIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.GetCategoryStats(r.Context(), categoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toCategoryResponse(category))
	}
}

type createCategoryRequest struct {
	Name                     string  `json:"name" validate:"required"`
	Description              *string `json:"description,omitempty"`
	AssignableTo             string  `json:"assignable_to" validate:"required"`
	AllowMultipleAssignments bool    `json:"allow_multiple_assignments"`
	MaxAssignments           int     `json:"max_assignments" validate:"omitempty,min=1"`
}

func (r createCategoryRequest) toInput() (catalogsvc.CreateCategoryInput, error) {
	assignableTo, err := enums.ParseAssigneeType(strings.TrimSpace(r.AssignableTo))
	if err != nil {
		return catalogsvc.CreateCategoryInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid assignable_to")
	}

	return catalogsvc.CreateCategoryInput{
		Name:                     strings.TrimSpace(r.Name),
		Description:              r.Description,
		AssignableTo:             assignableTo,
		AllowMultipleAssignments: r.AllowMultipleAssignments,
		MaxAssignments:           r.MaxAssignments,
	}, nil
}

type updateCategoryDescriptionRequest struct {
	Description *string `json:"description"`
}

func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "path parameter is required").WithDetails(map[string]any{"field": name})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id").WithDetails(map[string]any{"field": name})
	}
	return id, nil
}

func parseBodyID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id").WithDetails(map[string]any{"field": field})
	}
	return id, nil
}
