package httpx

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/sellmate/internal/forms"
)

const maxUpload = 10 << 20

type middlemanResp struct {
	Application forms.Application `json:"application"`
	State       forms.State       `json:"state"`
}

// submitMiddleman takes a multipart form with the fields name, email,
// password, expertise and the files idDocument and proofImage.
func (a *API) submitMiddleman(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*maxUpload+1<<20)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	in := forms.MiddlemanInput{
		Name:      r.FormValue("name"),
		Email:     r.FormValue("email"),
		Password:  r.FormValue("password"),
		Expertise: r.FormValue("expertise"),
	}
	var files []multipart.File
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()
	for field, dst := range map[string]**forms.Upload{"idDocument": &in.IDDocument, "proofImage": &in.ProofImage} {
		f, hdr, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid file "+field)
			return
		}
		files = append(files, f)
		*dst = &forms.Upload{Filename: hdr.Filename, ContentType: hdr.Header.Get("Content-Type"), Body: f}
	}

	ws := workspaceFrom(r.Context())
	app, err := a.Desk.Submit(r.Context(), ws.ID, ws.Middleman, in)
	if ve, ok := forms.AsValidation(err); ok {
		a.Metrics.Rejected("middleman")
		state := ws.Middleman.State()
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "missing_fields", Fields: ve.Fields, State: &state})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	logFrom(r).Info("middleman application submitted", zap.String("application_id", app.ID))
	writeJSON(w, http.StatusCreated, middlemanResp{Application: app, State: ws.Middleman.State()})
}

func (a *API) getMiddleman(w http.ResponseWriter, r *http.Request) {
	app, err := a.Desk.Get(r.Context(), workspaceFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}
