package httpx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/sellmate/internal/catalog"
	"github.com/ariefcatur/sellmate/internal/dashboard"
	"github.com/ariefcatur/sellmate/internal/forms"
	"github.com/ariefcatur/sellmate/internal/orders"
)

func (a *API) sellerDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dashboard.Seller(workspaceFrom(r.Context()).Catalog))
}

func (a *API) sellerProducts(w http.ResponseWriter, r *http.Request) {
	c := workspaceFrom(r.Context()).Catalog
	s := r.URL.Query().Get("status")
	if s == "" {
		writeJSON(w, http.StatusOK, c.List())
		return
	}
	status, ok := orders.ParseStatus(s)
	if !ok || !status.IsSeller() {
		writeError(w, r, catalog.ErrInvalidStatus)
		return
	}
	writeJSON(w, http.StatusOK, c.ByStatus(status))
}

type editProductReq struct {
	Price  string `json:"price"`
	Status string `json:"status"`
}

func (a *API) editProduct(w http.ResponseWriter, r *http.Request) {
	var req editProductReq
	if !decodeJSON(w, r, &req) {
		return
	}
	price, err := forms.ParsePrice(req.Price)
	if err != nil {
		a.Metrics.Rejected("edit_product")
		writeError(w, r, &forms.ValidationError{Fields: []string{"price"}, Toast: &forms.InvalidPrice})
		return
	}
	status, ok := orders.ParseStatus(req.Status)
	if !ok {
		writeError(w, r, catalog.ErrInvalidStatus)
		return
	}
	p, err := workspaceFrom(r.Context()).Catalog.Edit(chi.URLParam(r, "id"), price, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := workspaceFrom(r.Context()).Catalog.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) recentOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, workspaceFrom(r.Context()).RecentOrders)
}

func (a *API) salesAnalytics(w http.ResponseWriter, r *http.Request) {
	days := 7
	if s := r.URL.Query().Get("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 90 {
			writeMessage(w, http.StatusBadRequest, "days must be between 1 and 90")
			return
		}
		days = n
	}
	rep, err := a.Reports.Report(r.Context(), time.Now(), days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
