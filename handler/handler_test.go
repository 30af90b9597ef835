package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lekhapal/shg-digitizer/dto"
	"github.com/lekhapal/shg-digitizer/repository"
	"github.com/lekhapal/shg-digitizer/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubExtractor struct {
	response string
	err      error
}

func (s stubExtractor) ExtractTables(context.Context, service.ExtractionRequest) (string, error) {
	return s.response, s.err
}

func newTestRouter(t *testing.T, ext service.Extractor) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	repo := repository.NewMemoryRepository()
	extraction := service.NewExtractionService(ext, nil, 0, logger)
	uploads := service.NewUploadService(extraction, repo, logger)
	documents := service.NewDocumentService(repo, logger)

	return NewRouter(logger,
		NewUploadHandler(uploads, 1<<20, true, logger),
		NewTableHandler(documents, logger),
		NewDocumentHandler(documents, logger),
	)
}

func multipartUpload(t *testing.T, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestUploadMultipartCSV(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := serve(router, multipartUpload(t, "members.csv", []byte("name,age\nA,1\nB,2"), nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[dto.UploadResponse](t, rec)
	_, err := uuid.Parse(resp.TableID)
	assert.NoError(t, err)
	require.Len(t, resp.Tables, 1)
	assert.Equal(t, []string{"name", "age"}, resp.Tables[0].Columns)
	assert.Equal(t, [][]string{{"A", "1"}, {"B", "2"}}, resp.Tables[0].Rows)
}

func TestUploadMultipartHeaderRowFlag(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := serve(router, multipartUpload(t, "members.csv", []byte("A,1\nB,2"), map[string]string{"header_row": "false"}))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[dto.UploadResponse](t, rec)
	assert.Equal(t, []string{"col1", "col2"}, resp.Tables[0].Columns)
	assert.Len(t, resp.Tables[0].Rows, 2)
}

func TestUploadBase64DataURI(t *testing.T) {
	router := newTestRouter(t, nil)
	payload := "data:text/csv;base64," + base64.StdEncoding.EncodeToString([]byte("name\nLalita"))

	rec := serve(router, jsonRequest(t, http.MethodPost, "/api/v1/upload", map[string]any{
		"data": payload,
		"name": "members.csv",
	}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[dto.UploadResponse](t, rec)
	assert.Equal(t, [][]string{{"Lalita"}}, resp.Tables[0].Rows)
}

func TestUploadClientErrors(t *testing.T) {
	router := newTestRouter(t, nil)

	cases := []struct {
		name  string
		req   *http.Request
		label string
	}{
		{"multipart without file", multipartUpload(t, "", nil, map[string]string{"doc_type": "Savings"}), dto.ErrNoFile.Error()},
		{"json without payload", jsonRequest(t, http.MethodPost, "/upload", map[string]any{"name": "x.csv"}), dto.ErrNoFile.Error()},
		{"json bad base64", jsonRequest(t, http.MethodPost, "/upload", map[string]any{"base64": "***", "name": "x.csv"}), dto.ErrMalformedInput.Error()},
		{"unsupported type", multipartUpload(t, "notes.txt", []byte("plain notes"), nil), dto.ErrUnsupportedFileType.Error()},
		{"no body", httptest.NewRequest(http.MethodPost, "/upload", nil), dto.ErrNoFile.Error()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(router, tc.req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.label, decodeBody[dto.ErrorResponse](t, rec).Error)
		})
	}
}

func TestUploadExtractionErrors(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

	t.Run("invalid json", func(t *testing.T) {
		router := newTestRouter(t, stubExtractor{response: "```json\n{\"tables\": [\n```"})

		rec := serve(router, multipartUpload(t, "page.png", png, nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeBody[dto.ErrorResponse](t, rec)
		assert.Equal(t, dto.ErrInvalidExtractionResponse.Error(), body.Error)
		assert.Equal(t, "```json\n{\"tables\": [\n```", body.Raw)
		assert.Equal(t, `{"tables": [`, body.Cleaned)
	})

	t.Run("upstream failure", func(t *testing.T) {
		router := newTestRouter(t, stubExtractor{err: errors.New("quota exceeded")})

		rec := serve(router, multipartUpload(t, "page.png", png, nil))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("no extractor configured", func(t *testing.T) {
		router := newTestRouter(t, nil)

		rec := serve(router, multipartUpload(t, "page.png", png, nil))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("image named like a csv", func(t *testing.T) {
		router := newTestRouter(t, stubExtractor{response: `{"tables":[{"columns":["Member"],"rows":[["Lalita"]]}]}`})

		rec := serve(router, multipartUpload(t, "register.csv", png, nil))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, [][]string{{"Lalita"}}, decodeBody[dto.UploadResponse](t, rec).Tables[0].Rows)
	})

	t.Run("no usable tables", func(t *testing.T) {
		router := newTestRouter(t, stubExtractor{response: `{"tables":[{"title":"Blank"}]}`})

		rec := serve(router, multipartUpload(t, "page.png", png, nil))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestTableRoutes(t *testing.T) {
	router := newTestRouter(t, nil)

	upload := serve(router, multipartUpload(t, "Savings 2024.csv", []byte("name,amount\nLalita,100"), nil))
	require.Equal(t, http.StatusOK, upload.Code)
	id := decodeBody[dto.UploadResponse](t, upload).TableID

	get := serve(router, httptest.NewRequest(http.MethodGet, "/table/"+id, nil))
	require.Equal(t, http.StatusOK, get.Code)
	assert.Equal(t, "Savings 2024.csv", decodeBody[dto.TableRecord](t, get).Title)

	put := serve(router, jsonRequest(t, http.MethodPut, "/table/"+id, map[string]any{
		"rows": [][]string{{"Meena", "20", "extra"}},
	}))
	require.Equal(t, http.StatusOK, put.Code, put.Body.String())
	assert.Equal(t, [][]string{{"Meena", "20"}}, decodeBody[dto.TableRecord](t, put).Rows)

	badPut := serve(router, jsonRequest(t, http.MethodPut, "/table/"+id, map[string]any{"rows": []string{"flat"}}))
	assert.Equal(t, http.StatusBadRequest, badPut.Code)

	export := serve(router, httptest.NewRequest(http.MethodGet, "/table/"+id+"/export/csv", nil))
	require.Equal(t, http.StatusOK, export.Code)
	assert.Equal(t, "name,amount\nMeena,20\n", export.Body.String())
	assert.Equal(t, `attachment; filename="Savings_2024_csv.csv"`, export.Header().Get("Content-Disposition"))
	assert.Contains(t, export.Header().Get("Content-Type"), "text/csv")

	assert.Equal(t, http.StatusBadRequest, serve(router, httptest.NewRequest(http.MethodGet, "/table/42", nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/table/"+uuid.NewString(), nil)).Code)
}

func TestDocumentRoutes(t *testing.T) {
	router := newTestRouter(t, nil)
	path := "/api/v1/shgs/shg-1/documents/" + url.PathEscape(dto.DocTypeShgLoanRepayment)

	missing := serve(router, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusNotFound, missing.Code)

	noColumns := serve(router, jsonRequest(t, http.MethodPut, path, map[string]any{"contents": map[string]any{"title": "x"}}))
	assert.Equal(t, http.StatusUnprocessableEntity, noColumns.Code)

	scalar := serve(router, jsonRequest(t, http.MethodPut, path, map[string]any{"contents": 42}))
	assert.Equal(t, http.StatusBadRequest, scalar.Code)

	put := serve(router, jsonRequest(t, http.MethodPut, path, map[string]any{
		"contents": []map[string]any{{"title": "Loans", "columns": []string{"Date", "Amount"}, "rows": [][]string{{"01/04"}}}},
	}))
	require.Equal(t, http.StatusOK, put.Code, put.Body.String())
	doc := decodeBody[dto.DocumentResponse](t, put)
	assert.Equal(t, dto.DocTypeShgLoanRepayment, doc.DocType)
	assert.Equal(t, [][]string{{"01/04", ""}}, doc.Contents[0].Rows)

	patch := serve(router, jsonRequest(t, http.MethodPatch, path, map[string]any{
		"edits": []dto.TableEdit{{Op: dto.EditSetCell, Table: 0, Row: 0, Column: 1, Value: "5000"}},
	}))
	require.Equal(t, http.StatusOK, patch.Code, patch.Body.String())
	assert.Equal(t, [][]string{{"01/04", "5000"}}, decodeBody[dto.DocumentResponse](t, patch).Contents[0].Rows)

	badPatch := serve(router, jsonRequest(t, http.MethodPatch, path, map[string]any{
		"edits": []dto.TableEdit{{Op: dto.EditRemoveRow, Table: 3}},
	}))
	assert.Equal(t, http.StatusBadRequest, badPatch.Code)

	export := serve(router, httptest.NewRequest(http.MethodGet, path+"/export/csv?table=0", nil))
	require.Equal(t, http.StatusOK, export.Code)
	assert.Equal(t, "Date,Amount\n01/04,5000\n", export.Body.String())

	badIndex := serve(router, httptest.NewRequest(http.MethodGet, path+"/export/csv?table=x", nil))
	assert.Equal(t, http.StatusBadRequest, badIndex.Code)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{dto.ErrNoFile, http.StatusBadRequest},
		{dto.ErrUnsupportedFileType, http.StatusBadRequest},
		{fmt.Errorf("edit 2: %w", dto.ErrIndexOutOfRange), http.StatusBadRequest},
		{dto.ErrNotFound, http.StatusNotFound},
		{dto.ErrNoTablesExtracted, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: %w", dto.ErrUpstreamAPIFailure, dto.ErrRateLimited), http.StatusBadGateway},
		{&dto.ParseError{Format: "csv", Err: errors.New("bare quote")}, http.StatusInternalServerError},
		{&dto.PersistenceError{Err: errors.New("connection refused")}, http.StatusInternalServerError},
		{errors.New("something unexpected"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		got, _ := statusFor(tc.err)
		assert.Equal(t, tc.want, got, tc.err.Error())
	}
}
