package http

import (
	"errors"
	"mime/multipart"
	"net/http"

	"mathemania-service/internal/app"
	"mathemania-service/internal/domain"
)

type materialResponse struct {
	Key string `json:"key"`
}

func (h *handlers) round2Submit(w http.ResponseWriter, r *http.Request) {
	up, cleanup, err := h.formFile(w, r)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	defer cleanup()

	sub, err := h.svc.Round2.Submit(r.Context(), r.FormValue("code"), up)
	if err != nil {
		writeError(w, h.logger, err, sub.TeamName)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *handlers) round2List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.svc.Round2.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *handlers) materialUpload(w http.ResponseWriter, r *http.Request) {
	up, cleanup, err := h.formFile(w, r)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	defer cleanup()

	if name := r.FormValue("name"); name != "" {
		up.FileName = name
	}
	key, err := h.svc.Materials.Upload(r.Context(), up)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, materialResponse{Key: key})
}

// materialLink redirects to a short-lived download URL.
func (h *handlers) materialLink(w http.ResponseWriter, r *http.Request) {
	url, err := h.svc.Materials.Link(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// formFile reads the "file" part of a multipart upload.
func (h *handlers) formFile(w http.ResponseWriter, r *http.Request) (app.Upload, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+(1<<20))
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return app.Upload{}, nil, err
		}
		return app.Upload{}, nil, &domain.ValidationError{Field: "file", Message: "Expected a multipart form upload."}
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return app.Upload{}, nil, &domain.ValidationError{Field: "file", Message: "Please select a file to upload."}
		}
		return app.Upload{}, nil, err
	}
	cleanup := func() {
		_ = file.Close()
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}
	return uploadFrom(file, hdr), cleanup, nil
}

func uploadFrom(file multipart.File, hdr *multipart.FileHeader) app.Upload {
	return app.Upload{
		FileName:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Size:        hdr.Size,
		Body:        file,
	}
}
