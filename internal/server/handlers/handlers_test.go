package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/souenergy/cotacao-backend/internal/config"
	"github.com/souenergy/cotacao-backend/internal/domain/models"
	"github.com/souenergy/cotacao-backend/internal/repository/mongodb"
	"github.com/souenergy/cotacao-backend/internal/server/handlers"
	"github.com/souenergy/cotacao-backend/internal/server/router"
	"github.com/souenergy/cotacao-backend/internal/service/auth"
	"github.com/souenergy/cotacao-backend/internal/service/export"
	"github.com/souenergy/cotacao-backend/internal/service/intake"
	"github.com/souenergy/cotacao-backend/internal/storage/local"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "teste123"
)

type memoryRepo struct {
	mu      sync.Mutex
	records []models.Quotation
}

func (r *memoryRepo) Append(_ context.Context, q models.Quotation) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q.ID = primitive.NewObjectID()
	r.records = append(r.records, q)
	return q.ID.Hex(), nil
}

func (r *memoryRepo) ListAll(context.Context) ([]models.Quotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Quotation(nil), r.records...), nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*models.Quotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.records {
		if q.ID.Hex() == id {
			return &q, nil
		}
	}
	return nil, mongodb.ErrNotFound
}

type testApp struct {
	engine *gin.Engine
	repo   *memoryRepo
	auth   *auth.Service
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	authSvc, err := auth.NewService(config.AuthConfig{
		JWTSecret:         "handler-test-secret",
		AdminEmail:        adminEmail,
		AdminPasswordHash: string(hash),
	}, nil)
	require.NoError(t, err)

	repo := &memoryRepo{}
	store, err := local.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	intakeSvc := intake.NewService(repo, store, nil, nil)
	exportSvc := export.NewService(repo, nil)

	engine := router.New(router.Handlers{
		Auth:      handlers.NewAuthHandler(authSvc, nil),
		Quotation: handlers.NewQuotationHandler(intakeSvc, repo, nil),
		Image:     handlers.NewImageHandler(store, nil),
		Export:    handlers.NewExportHandler(exportSvc, nil),
	}, authSvc, nil)

	return &testApp{engine: engine, repo: repo, auth: authSvc}
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *testApp) login(t *testing.T) string {
	t.Helper()
	body, err := json.Marshal(gin.H{"email": adminEmail, "password": adminPassword})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := a.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func quotationFields() map[string]string {
	return map[string]string{
		"companyName":   "Acme",
		"contactPerson": "Jo",
		"email":         "jo@acme.com",
		"supplierModel": "X1",
		"power":         "100",
		"fobPrice":      "12.5",
		"paymentTerms":  "T/T",
		"deliveryTime":  "30",
		"moq":           "500",
	}
}

func multipartRequest(t *testing.T, fields map[string]string, picture []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if picture != nil {
		part, err := w.CreateFormFile("productPicture", "product.png")
		require.NoError(t, err)
		_, err = part.Write(picture)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/cotacao", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)

	t.Run("success", func(t *testing.T) {
		token := app.login(t)
		email, err := app.auth.VerifyToken(token)
		require.NoError(t, err)
		assert.Equal(t, adminEmail, email)
	})

	t.Run("wrong password and wrong email are indistinguishable", func(t *testing.T) {
		var bodies []string
		for _, creds := range []gin.H{
			{"email": adminEmail, "password": "wrong"},
			{"email": "other@example.com", "password": adminPassword},
		} {
			raw, err := json.Marshal(creds)
			require.NoError(t, err)
			req := httptest.NewRequest("POST", "/api/login", bytes.NewReader(raw))
			req.Header.Set("Content-Type", "application/json")
			w := app.do(req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			bodies = append(bodies, w.Body.String())
		}
		assert.Equal(t, bodies[0], bodies[1])
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/login", bytes.NewReader([]byte(`{"email":"x"}`)))
		req.Header.Set("Content-Type", "application/json")
		w := app.do(req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSubmitQuotation(t *testing.T) {
	t.Run("valid submission without picture", func(t *testing.T) {
		app := newTestApp(t)

		w := app.do(multipartRequest(t, quotationFields(), nil))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.ID)

		require.Len(t, app.repo.records, 1)
		q := app.repo.records[0]
		assert.Equal(t, 100.0, q.Power)
		assert.Equal(t, models.StatusReceived, q.Status)
		assert.Nil(t, q.ImageFilename)
	})

	t.Run("missing required field persists nothing", func(t *testing.T) {
		app := newTestApp(t)

		fields := quotationFields()
		delete(fields, "companyName")
		w := app.do(multipartRequest(t, fields, nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, app.repo.records)
	})

	t.Run("broken file part persists nothing", func(t *testing.T) {
		app := newTestApp(t)

		// Build a well-formed request, then truncate the body inside the
		// file part so the multipart payload is corrupt.
		full := multipartRequest(t, quotationFields(), []byte("png bytes"))
		raw, err := io.ReadAll(full.Body)
		require.NoError(t, err)
		truncated := raw[:len(raw)-30]

		req := httptest.NewRequest("POST", "/api/cotacao", bytes.NewReader(truncated))
		req.Header.Set("Content-Type", full.Header.Get("Content-Type"))
		w := app.do(req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, app.repo.records)
	})

	t.Run("picture round trip", func(t *testing.T) {
		app := newTestApp(t)
		picture := []byte("png bytes")

		w := app.do(multipartRequest(t, quotationFields(), picture))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		require.Len(t, app.repo.records, 1)
		q := app.repo.records[0]
		require.NotNil(t, q.ImageURL)

		img := app.do(httptest.NewRequest("GET", *q.ImageURL, nil))
		assert.Equal(t, http.StatusOK, img.Code)
		assert.Equal(t, picture, img.Body.Bytes())
	})
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	app := newTestApp(t)

	paths := []string{"/api/cotacoes", "/api/cotacao/abc", "/api/exportar-excel"}
	headers := map[string]string{
		"no header":       "",
		"not bearer":      "Token abc",
		"malformed token": "Bearer not.a.token",
	}

	for _, path := range paths {
		for name, header := range headers {
			t.Run(path+" "+name, func(t *testing.T) {
				req := httptest.NewRequest("GET", path, nil)
				if header != "" {
					req.Header.Set("Authorization", header)
				}
				w := app.do(req)
				assert.Equal(t, http.StatusUnauthorized, w.Code)
			})
		}
	}
}

func TestListQuotations_SortedNewestFirst(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t)

	now := time.Now().UTC()
	for i, company := range []string{"Oldest", "Middle", "Newest"} {
		q := models.Quotation{
			CompanyName: company,
			CreatedAt:   now.Add(time.Duration(i) * time.Hour),
			Status:      models.StatusReceived,
		}
		_, err := app.repo.Append(context.Background(), q)
		require.NoError(t, err)
	}

	req := httptest.NewRequest("GET", "/api/cotacoes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := app.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var list []models.Quotation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 3)
	assert.Equal(t, "Newest", list[0].CompanyName)
	assert.Equal(t, "Middle", list[1].CompanyName)
	assert.Equal(t, "Oldest", list[2].CompanyName)
}

func TestGetQuotationByID(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t)

	w := app.do(multipartRequest(t, quotationFields(), nil))
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	t.Run("round trip equals normalized submission", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/cotacao/"+created.ID, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := app.do(req)
		require.Equal(t, http.StatusOK, resp.Code)

		var q models.Quotation
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &q))
		assert.Equal(t, "Acme", q.CompanyName)
		assert.Equal(t, 100.0, q.Power)
		assert.Equal(t, 12.5, q.FobPrice)
		assert.Equal(t, 30, q.DeliveryTime)
		assert.Equal(t, 500, q.MOQ)
		assert.Equal(t, models.StatusReceived, q.Status)
		assert.Nil(t, q.ImageFilename)
	})

	t.Run("unknown id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/cotacao/"+primitive.NewObjectID().Hex(), nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := app.do(req)
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestServeImage_NotFound(t *testing.T) {
	app := newTestApp(t)

	w := app.do(httptest.NewRequest("GET", "/api/images/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExport(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		app := newTestApp(t)
		token := app.login(t)

		req := httptest.NewRequest("GET", "/api/exportar-excel", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := app.do(req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("download", func(t *testing.T) {
		app := newTestApp(t)
		token := app.login(t)

		require.Equal(t, http.StatusCreated, app.do(multipartRequest(t, quotationFields(), nil)).Code)

		req := httptest.NewRequest("GET", "/api/exportar-excel", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := app.do(req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"),
			fmt.Sprintf("cotacoes_%s.xlsx", time.Now().Format("2006-01-02")))
		assert.NotEmpty(t, w.Body.Bytes())
	})
}
