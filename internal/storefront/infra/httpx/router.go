package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mifarmacia/storefront/internal/storefront/core/domain/entity"
	"github.com/mifarmacia/storefront/internal/storefront/core/ports"
	"github.com/mifarmacia/storefront/internal/storefront/infra/httpx/middlewares"
)

func NewRouter(handler *Handler, sessions ports.SessionStore) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachTracingMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/session", handler.Login)
	r.Group(func(r chi.Router) {
		r.Use(middlewares.RequireSession(sessions))
		r.Delete("/session", handler.Logout)
	})

	r.Get("/products", handler.Catalog)

	r.Route("/carts", func(r chi.Router) {
		r.Post("/", handler.CreateCart)
		r.Route("/{cartID}", func(r chi.Router) {
			r.Get("/", handler.GetCart)
			r.Delete("/", handler.ClearCart)
			r.Post("/items", handler.AddItem)
			r.Put("/items/{productID}", handler.UpdateQuantity)
			r.Delete("/items/{productID}", handler.RemoveItem)
		})
	})

	r.Route("/checkout/{cartID}", func(r chi.Router) {
		r.Post("/", handler.StartCheckout)
		r.Get("/", handler.GetCheckout)
		r.Put("/customer", handler.SubmitCustomer)
		r.Put("/payment", handler.SubmitPayment)
		r.Put("/shipping", handler.SubmitShipping)
		r.Post("/back", handler.StepBack)
		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireSession(sessions))
			r.Post("/confirm", handler.ConfirmCheckout)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.RequireSession(sessions))

		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireCapability(entity.CapManageProducts))
			r.Post("/products", handler.AdminCreateProduct)
			r.Put("/products/{productID}", handler.AdminUpdateProduct)
			r.Delete("/products/{productID}", handler.AdminDeleteProduct)
		})

		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireCapability(entity.CapManageClients))
			r.Get("/clients", handler.AdminListClients)
			r.Post("/clients", handler.AdminCreateClient)
			r.Put("/clients/{clientID}", handler.AdminUpdateClient)
			r.Delete("/clients/{clientID}", handler.AdminDeleteClient)
		})

		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireCapability(entity.CapManageWorkers))
			r.Get("/workers", handler.AdminListWorkers)
			r.Post("/workers", handler.AdminCreateWorker)
			r.Put("/workers/{workerID}", handler.AdminUpdateWorker)
			r.Delete("/workers/{workerID}", handler.AdminDeleteWorker)
		})

		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireCapability(entity.CapManageUsers))
			r.Get("/users", handler.AdminListUsers)
			r.Post("/users", handler.AdminRegisterUser)
			r.Delete("/users/{userID}", handler.AdminDeleteUser)
		})

		r.With(middlewares.RequireCapability(entity.CapViewSuppliers)).
			Get("/suppliers", handler.AdminListSuppliers)
		r.With(middlewares.RequireCapability(entity.CapViewBatches)).
			Get("/batches", handler.AdminListBatches)
		r.With(middlewares.RequireCapability(entity.CapViewInvoices)).
			Get("/invoices", handler.AdminListInvoices)
		r.With(middlewares.RequireCapability(entity.CapViewMovements)).
			Get("/movements", handler.AdminListMovements)
		r.With(middlewares.RequireCapability(entity.CapViewAuditLog)).
			Get("/audit-logs", handler.AdminAuditLogs)
		r.With(middlewares.RequireCapability(entity.CapViewStatistics)).
			Get("/statistics", handler.AdminStatistics)
	})

	// The otelhttp wrapper opens a server span per request before the chi
	// stack runs, so log lines and checkout log rows downstream carry
	// trace_id/span_id.
	return otelhttp.NewHandler(r, "storefront.http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
