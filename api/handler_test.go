package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anyproto/any-sync/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyproto/review-submit-server/domain"
	"github.com/anyproto/review-submit-server/filecache"
	"github.com/anyproto/review-submit-server/submission"
)

func TestHandler_Commit(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		fx := newHandlerFixture(t)
		fx.service.id = "s1"
		fx.service.code = "TMP-20260830-ABCDEF"
		rec := fx.do(t, http.MethodPost, "/api/submissions", `{"ownerId":"owner1","documents":[{"id":"d1"}]}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		var resp commitResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "s1", resp.SubmissionId)
		assert.Equal(t, "TMP-20260830-ABCDEF", resp.TrackingCode)
	})
	t.Run("missing owner", func(t *testing.T) {
		fx := newHandlerFixture(t)
		rec := fx.do(t, http.MethodPost, "/api/submissions", `{"documents":[]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("bad json", func(t *testing.T) {
		fx := newHandlerFixture(t)
		rec := fx.do(t, http.MethodPost, "/api/submissions", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("missing file references are enumerated", func(t *testing.T) {
		fx := newHandlerFixture(t)
		fx.service.commitErr = &submission.CommitError{
			Kind:               submission.ErrorKindMissingFileReferences,
			MissingDocumentIds: []string{"d2", "d5"},
		}
		rec := fx.do(t, http.MethodPost, "/api/submissions", `{"ownerId":"owner1"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var resp errResp
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "missingFileReferences", resp.Kind)
		assert.Equal(t, []string{"d2", "d5"}, resp.MissingDocumentIds)
	})
	t.Run("upload failure carries the document id", func(t *testing.T) {
		fx := newHandlerFixture(t)
		fx.service.commitErr = &submission.CommitError{
			Kind:       submission.ErrorKindUploadFailed,
			DocumentId: "d3",
			Cause:      context.DeadlineExceeded,
		}
		rec := fx.do(t, http.MethodPost, "/api/submissions", `{"ownerId":"owner1"}`)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		var resp errResp
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "uploadFailed", resp.Kind)
		assert.Equal(t, "d3", resp.DocumentId)
	})
}

func TestHandler_Status(t *testing.T) {
	fx := newHandlerFixture(t)
	fx.service.status = domain.SubmissionWithArtifacts{
		Submission: domain.Submission{Id: "s1", OwnerId: "owner1"},
	}
	rec := fx.do(t, http.MethodGet, "/api/submissions/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.SubmissionWithArtifacts
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.Id)
}

func TestHandler_Files(t *testing.T) {
	fx := newHandlerFixture(t)
	rec := fx.do(t, http.MethodPut, "/api/files/d1", "raw bytes")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []byte("raw bytes"), fx.files.cache["d1"])

	rec = fx.do(t, http.MethodDelete, "/api/files/d1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotContains(t, fx.files.cache, "d1")
}

type handlerFixture struct {
	mux     *http.ServeMux
	service *stubService
	files   *memFiles
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	fx := &handlerFixture{
		mux:     http.NewServeMux(),
		service: &stubService{},
		files:   &memFiles{cache: make(map[string][]byte)},
	}
	h := handler{
		submission:  fx.service,
		files:       fx.files,
		maxFileSize: 1 << 20,
	}
	h.init(fx.mux)
	return fx
}

func (fx *handlerFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	rec := httptest.NewRecorder()
	fx.mux.ServeHTTP(rec, req)
	return rec
}

type stubService struct {
	id, code  string
	commitErr error
	status    domain.SubmissionWithArtifacts
	statusErr error
}

func (s *stubService) Init(a *app.App) (err error)     { return }
func (s *stubService) Name() (name string)             { return submission.CName }
func (s *stubService) Run(ctx context.Context) error   { return nil }
func (s *stubService) Close(ctx context.Context) error { return nil }

func (s *stubService) Commit(ctx context.Context, ownerId string, payload map[string]any, docs []domain.Document) (string, string, error) {
	if s.commitErr != nil {
		return "", "", s.commitErr
	}
	return s.id, s.code, nil
}

func (s *stubService) Status(ctx context.Context, id string) (domain.SubmissionWithArtifacts, error) {
	return s.status, s.statusErr
}

type memFiles struct {
	cache map[string][]byte
}

func (m *memFiles) Init(a *app.App) (err error)     { return }
func (m *memFiles) Name() (name string)             { return "filecache" }
func (m *memFiles) Run(ctx context.Context) error   { return nil }
func (m *memFiles) Close(ctx context.Context) error { return nil }

func (m *memFiles) Resolve(ctx context.Context, documentId string) ([]byte, error) {
	data, ok := m.cache[documentId]
	if !ok {
		return nil, filecache.ErrAbsent
	}
	return data, nil
}

func (m *memFiles) Put(ctx context.Context, documentId string, data []byte) error {
	m.cache[documentId] = data
	return nil
}

func (m *memFiles) Forget(ctx context.Context, documentId string) error {
	delete(m.cache, documentId)
	return nil
}
