package server

import (
	"fmt"
	"net/http"
	"time"

	analytics_api "ms-storefront/internal/analytics/api"
	"ms-storefront/internal/auth"
	catalogapi "ms-storefront/internal/catalog/api"
	checkoutapi "ms-storefront/internal/checkout/api"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/order/order_api"
	handlers "ms-storefront/internal/payment/handler"
	"ms-storefront/internal/tickets/ticket_api"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Checkout  *checkoutapi.Handler
	Catalog   *catalogapi.Handler
	Admin     *analytics_api.Handler
	Passes    *ticket_api.Handler
	Orders    *order_api.SSEHandler
	Stripe    *handlers.StripeHandler
	Sessions  auth.SessionProvider
	LoginPath string
	// Login is nil when sessions come from an external OIDC issuer.
	Login *auth.LoginHandler
}

func NewRouter(h Handlers, log *logger.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Post("/checkout", h.Checkout.Checkout)
	r.Get("/events", h.Catalog.ListEvents)
	r.Get("/events/{slug}", h.Catalog.GetEvent)
	r.Get("/orders/{orderId}/pass", h.Passes.GetPass)
	r.Get("/orders/{orderId}/events", h.Orders.StreamOrderStatus)
	r.Post("/webhooks/stripe", h.Stripe.StripeWebhook)

	if h.Login != nil {
		r.Post("/admin/login", h.Login.Login)
		r.Post("/admin/logout", h.Login.Logout)
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(h.Sessions, h.LoginPath, log))
		r.Get("/admin", h.Admin.GetAdminStats)
		r.Post("/passes/verify", h.Passes.VerifyPass)
	})

	return r
}

func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.LogAPI(r.Method, r.URL.Path, fmt.Sprintf("%d", ww.Status()), time.Since(start).String())
		})
	}
}
