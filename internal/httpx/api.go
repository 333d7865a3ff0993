package httpx

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/sellmate/internal/analytics"
	"github.com/ariefcatur/sellmate/internal/auth"
	"github.com/ariefcatur/sellmate/internal/forms"
	"github.com/ariefcatur/sellmate/internal/logger"
	"github.com/ariefcatur/sellmate/internal/orders"
	"github.com/ariefcatur/sellmate/internal/redisx"
	"github.com/ariefcatur/sellmate/internal/session"
)

// API serves the marketplace resources under /v1.
type API struct {
	Issuer   *auth.Issuer
	Sessions *session.Registry
	Store    orders.Store
	Lister   *forms.ProductLister
	Desk     *forms.MiddlemanDesk
	Idem     redisx.Idempotency
	Reports  *analytics.Service
	Metrics  *analytics.Metrics

	RateRPS   float64
	RateBurst int
}

func (a *API) Register(r chi.Router) {
	lim := newLimiter(a.RateRPS, a.RateBurst)

	r.Route("/v1", func(r chi.Router) {
		r.With(lim.Middleware).Post("/sessions", a.openSession)

		r.Group(func(r chi.Router) {
			r.Use(requireSession(a.Issuer, a.Sessions, auth.RoleBuyer), lim.Middleware)
			r.Get("/buyer/dashboard", a.buyerDashboard)
			r.Get("/buyer/orders", a.buyerOrders)
			r.Get("/buyer/orders/{id}", a.buyerOrder)
			r.Post("/buyer/products", a.addProduct)
			r.Get("/buyer/payment-methods", a.paymentMethods)
			r.Get("/buyer/payment-accounts", a.paymentAccounts)
			r.Post("/buyer/payment-accounts", a.addPaymentAccount)
			r.Put("/buyer/payment-accounts/{id}/default", a.setDefaultAccount)
			r.Delete("/buyer/payment-accounts/{id}", a.deletePaymentAccount)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireSession(a.Issuer, a.Sessions, auth.RoleSeller), lim.Middleware)
			r.Get("/seller/dashboard", a.sellerDashboard)
			r.Get("/seller/products", a.sellerProducts)
			r.Put("/seller/products/{id}", a.editProduct)
			r.Delete("/seller/products/{id}", a.deleteProduct)
			r.Get("/seller/orders/recent", a.recentOrders)
			r.Get("/seller/analytics", a.salesAnalytics)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireSession(a.Issuer, a.Sessions, auth.RoleMiddleman), lim.Middleware)
			r.Post("/applications/middleman", a.submitMiddleman)
			r.Get("/applications/middleman/{id}", a.getMiddleman)
		})
	})

	r.With(requireSession(a.Issuer, a.Sessions)).Get("/uploads/*", a.serveUpload)
}

func logFrom(r *http.Request) *zap.Logger { return logger.FromContext(r.Context()) }

type openSessionReq struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type openSessionResp struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	SessionID string    `json:"sessionId"`
	Role      auth.Role `json:"role"`
}

func (a *API) openSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionReq
	if !decodeJSON(w, r, &req) {
		return
	}
	role, err := auth.ParseRole(strings.ToLower(strings.TrimSpace(req.Role)))
	if err != nil {
		writeError(w, r, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	ws := a.Sessions.Open(name, role)
	token, exp, err := a.Issuer.Issue(ws.ID, name, role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logFrom(r).Info("session opened", zap.String("session", ws.ID), zap.String("role", string(role)))
	writeJSON(w, http.StatusCreated, openSessionResp{
		Token:     token,
		ExpiresAt: exp.UTC(),
		SessionID: ws.ID,
		Role:      role,
	})
}

// serveUpload streams an application document to the session that
// uploaded it. Everyone else gets 404.
func (a *API) serveUpload(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	rc, err := a.Desk.Document(r.Context(), workspaceFrom(r.Context()).ID, key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, rc); err != nil {
		logFrom(r).Warn("stream upload", zap.String("path", key), zap.Error(err))
	}
}
