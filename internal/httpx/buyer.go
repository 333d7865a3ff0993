package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/sellmate/internal/dashboard"
	"github.com/ariefcatur/sellmate/internal/forms"
	"github.com/ariefcatur/sellmate/internal/orders"
	"github.com/ariefcatur/sellmate/internal/payments"
	"github.com/ariefcatur/sellmate/internal/redisx"
)

// where the buyer goes after listing a product
const afterAddProduct = "/dashboard/buyer/middlemen"

func (a *API) buyerDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	v, err := dashboard.Buyer(ctx, a.Store)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) buyerOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := a.Store.ListOrders(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status, ok := orders.ParseStatus(s)
		if !ok || !status.IsBuyer() {
			writeMessage(w, http.StatusBadRequest, "status must be pending or delivered")
			return
		}
		list = orders.FilterOrders(list, status)
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) buyerOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := orders.FindOrder(ctx, a.Store, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type addProductResp struct {
	forms.Listing
	Next string `json:"next"`
}

// addProduct runs the Add Product form. A repeated Idempotency-Key replays
// the first response instead of listing the product again.
func (a *API) addProduct(w http.ResponseWriter, r *http.Request) {
	var in forms.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}
	ws := workspaceFrom(r.Context())
	ctx := r.Context()

	idemKey := ""
	if k := r.Header.Get("Idempotency-Key"); k != "" {
		idemKey = fmt.Sprintf(redisx.KeyIdemProductCreate, ws.ID, k)
		replay, err := a.Idem.Begin(ctx, idemKey)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if replay != nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write(replay)
			return
		}
	}

	listing, err := a.Lister.Submit(ctx, in)
	if err != nil {
		if idemKey != "" {
			if aerr := a.Idem.Abort(context.WithoutCancel(ctx), idemKey); aerr != nil {
				logFrom(r).Warn("release idempotency key", zap.Error(aerr))
			}
		}
		if _, ok := forms.AsValidation(err); ok {
			a.Metrics.Rejected("add_product")
		}
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(addProductResp{Listing: listing, Next: afterAddProduct})
	if idemKey != "" {
		if err := a.Idem.Complete(context.WithoutCancel(ctx), idemKey, buf.Bytes()); err != nil {
			logFrom(r).Warn("store idempotent response", zap.Error(err))
		}
	}
	logFrom(r).Info("product listed",
		zap.String("product_id", listing.Product.ID),
		zap.String("order_number", listing.Order.OrderNumber))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(buf.Bytes())
}

func (a *API) paymentMethods(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, payments.Methods)
}

func (a *API) paymentAccounts(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	method := r.URL.Query().Get("method")
	if method != "" {
		if _, ok := payments.LookupMethod(method); !ok {
			writeError(w, r, payments.ErrUnknownMethod)
			return
		}
	}
	writeJSON(w, http.StatusOK, ws.Payments.Accounts(method))
}

type accountResp struct {
	Account *payments.Account `json:"account,omitempty"`
	Toast   forms.Toast       `json:"toast"`
}

func (a *API) addPaymentAccount(w http.ResponseWriter, r *http.Request) {
	var in forms.AccountInput
	if !decodeJSON(w, r, &in) {
		return
	}
	ws := workspaceFrom(r.Context())
	acc, toast, err := forms.AddAccount(ws.Payments, in)
	if err != nil {
		if _, ok := forms.AsValidation(err); ok {
			a.Metrics.Rejected("add_account")
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, accountResp{Account: &acc, Toast: toast})
}

func (a *API) setDefaultAccount(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	acc, err := ws.Payments.SetDefault(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResp{Account: &acc, Toast: forms.DefaultUpdated})
}

func (a *API) deletePaymentAccount(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	if err := ws.Payments.DeleteAccount(chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResp{Toast: forms.AccountRemoved})
}
