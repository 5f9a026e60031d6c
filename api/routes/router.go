package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Devanshu-pal-github/my-asset-app-sub000/api/controllers"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/api/middleware"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/internal/assignment"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/internal/catalog"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/internal/directory"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/internal/items"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/internal/views"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/config"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/logger"
	pkgredis "github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/redis"
)

// Services bundles everything the HTTP surface needs.
type Services struct {
	Catalog    catalog.Service
	Items      items.Service
	Directory  directory.Service
	Assignment assignment.Service
	Views      views.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *pkgredis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.ActorContext(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if redisClient != nil {
			r.Use(middleware.Idempotency(redisClient, logg))
		}

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", controllers.CreateCategory(svcs.Catalog, logg))
			r.Get("/", controllers.ListCategories(svcs.Catalog, logg))
			r.Route("/{categoryId}", func(r chi.Router) {
				r.Get("/", controllers.GetCategory(svcs.Catalog, logg))
				r.Patch("/", controllers.UpdateCategoryDescription(svcs.Catalog, logg))
				r.Delete("/", controllers.DeleteCategory(svcs.Catalog, logg))
				r.Get("/stats", controllers.CategoryStats(svcs.Views, logg))
				r.Get("/assets", controllers.ListAssetsByCategory(svcs.Items, logg))
			})
		})

		r.Route("/assets", func(r chi.Router) {
			r.Post("/", controllers.CreateAsset(svcs.Items, logg))
			r.Get("/tag/{tag}", controllers.GetAssetByTag(svcs.Items, logg))
			r.Route("/{assetId}", func(r chi.Router) {
				r.Get("/", controllers.GetAsset(svcs.Items, logg))
				r.Patch("/", controllers.UpdateAsset(svcs.Items, logg))
				r.Post("/assign", controllers.AssignAsset(svcs.Assignment, logg))
				r.Post("/unassign", controllers.UnassignAsset(svcs.Assignment, logg))
				r.Post("/reassign", controllers.ReassignAsset(svcs.Assignment, logg))
				r.Post("/maintenance", controllers.AssetMaintenance(svcs.Assignment, logg))
				r.Post("/return-to-service", controllers.AssetReturnToService(svcs.Assignment, logg))
				r.Post("/retire", controllers.AssetRetire(svcs.Assignment, logg))
				r.Get("/assignees", controllers.AssetCurrentAssignees(svcs.Views, logg))
				r.Get("/history", controllers.AssetHistory(svcs.Views, logg))
			})
		})

		r.Route("/assignees", func(r chi.Router) {
			r.Post("/", controllers.CreateAssignee(svcs.Directory, logg))
			r.Get("/", controllers.ListAssignees(svcs.Directory, logg))
			r.Route("/{assigneeId}", func(r chi.Router) {
				r.Get("/", controllers.GetAssignee(svcs.Directory, logg))
				r.Post("/deactivate", controllers.DeactivateAssignee(svcs.Directory, logg))
			})
		})
	})

	return r
}
