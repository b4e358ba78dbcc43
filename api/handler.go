package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/anyproto/review-submit-server/domain"
	"github.com/anyproto/review-submit-server/filecache"
	"github.com/anyproto/review-submit-server/submission"
	"github.com/anyproto/review-submit-server/submission/submissionrepo"
)

type handler struct {
	submission  submission.Service
	files       filecache.FileCache
	maxFileSize int64
}

func (h handler) init(m *http.ServeMux) {
	m.HandleFunc("POST /api/submissions", h.Commit)
	m.HandleFunc("GET /api/submissions/{id}", h.Status)
	m.HandleFunc("PUT /api/files/{documentId}", h.PutFile)
	m.HandleFunc("DELETE /api/files/{documentId}", h.ForgetFile)
	m.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusNotFound, errors.New("not found"))
	})
}

type commitRequest struct {
	OwnerId   string            `json:"ownerId"`
	Payload   map[string]any    `json:"payload"`
	Documents []domain.Document `json:"documents"`
}

type commitResponse struct {
	SubmissionId string `json:"submissionId"`
	TrackingCode string `json:"trackingCode"`
}

func (h handler) Commit(w http.ResponseWriter, r *http.Request) {
	defer func() {
		_ = r.Body.Close()
	}()
	var req commitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if req.OwnerId == "" {
		writeErr(w, http.StatusBadRequest, errors.New("ownerId is required"))
		return
	}
	id, code, err := h.submission.Commit(r.Context(), req.OwnerId, req.Payload, req.Documents)
	if err != nil {
		writeCommitErr(w, err)
		return
	}
	writeJson(w, http.StatusCreated, commitResponse{SubmissionId: id, TrackingCode: code})
}

func (h handler) Status(w http.ResponseWriter, r *http.Request) {
	res, err := h.submission.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, submissionrepo.ErrNotFound) {
			writeErr(w, http.StatusNotFound, err)
		} else {
			writeErr(w, http.StatusInternalServerError, err)
		}
		return
	}
	writeJson(w, http.StatusOK, res)
}

func (h handler) PutFile(w http.ResponseWriter, r *http.Request) {
	defer func() {
		_ = r.Body.Close()
	}()
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxFileSize))
	if err != nil {
		writeErr(w, http.StatusRequestEntityTooLarge, err)
		return
	}
	if err = h.files.Put(r.Context(), r.PathValue("documentId"), data); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h handler) ForgetFile(w http.ResponseWriter, r *http.Request) {
	if err := h.files.Forget(r.Context(), r.PathValue("documentId")); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type errResp struct {
	Error              string   `json:"error"`
	Kind               string   `json:"kind,omitempty"`
	DocumentId         string   `json:"documentId,omitempty"`
	MissingDocumentIds []string `json:"missingDocumentIds,omitempty"`
}

// writeCommitErr keeps the error discriminated for the caller: missing file
// references are the one failure the user can fix without retrying blindly,
// so every unresolved document id is listed.
func writeCommitErr(w http.ResponseWriter, err error) {
	var commitErr *submission.CommitError
	if !errors.As(err, &commitErr) {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	status := http.StatusInternalServerError
	if commitErr.Kind == submission.ErrorKindMissingFileReferences {
		status = http.StatusUnprocessableEntity
	}
	writeJson(w, status, errResp{
		Error:              commitErr.Error(),
		Kind:               commitErr.Kind.String(),
		DocumentId:         commitErr.DocumentId,
		MissingDocumentIds: commitErr.MissingDocumentIds,
	})
}

func writeErr(w http.ResponseWriter, status int, err error) {
	writeJson(w, status, errResp{Error: err.Error()})
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	data, _ := json.Marshal(body)
	_, _ = w.Write(data)
}
