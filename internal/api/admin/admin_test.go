package admin

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"donation-backend/internal/errors"
	"donation-backend/internal/middleware"
	"donation-backend/internal/model"
	"donation-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	util.RegisterBindingValidations()
	os.Exit(m.Run())
}

type MockAdminServices struct {
	mock.Mock
}

func (m *MockAdminServices) Approve(ctx context.Context, p model.Principal, id int64) error {
	return m.Called(p.UserID, id).Error(0)
}

func (m *MockAdminServices) Reject(ctx context.Context, p model.Principal, id int64, comment string) error {
	return m.Called(p.UserID, id, comment).Error(0)
}

func (m *MockAdminServices) Archive(ctx context.Context, id int64) error {
	return m.Called(id).Error(0)
}

func (m *MockAdminServices) IncrementRaised(ctx context.Context, id int64, amount decimal.Decimal) error {
	return m.Called(id, amount.String()).Error(0)
}

func (m *MockAdminServices) AttachTaxCertificate(ctx context.Context, id int64, url string) error {
	return m.Called(id, url).Error(0)
}

func (m *MockAdminServices) UpdateUserRole(ctx context.Context, id int64, role string) error {
	return m.Called(id, role).Error(0)
}

func (m *MockAdminServices) Stats() model.SystemStats {
	return m.Called().Get(0).(model.SystemStats)
}

func newAdminRouter(svc *MockAdminServices) *gin.Engine {
	h := NewAdminHandler(svc, svc, svc, svc, svc)
	r := gin.New()
	g := r.Group("/admin", func(c *gin.Context) {
		middleware.SetPrincipal(c, model.Principal{UserID: 1, Role: model.RoleAdmin})
		c.Next()
	})
	g.POST("/campaigns/:id/approve", h.ApproveCampaign)
	g.POST("/campaigns/:id/reject", h.RejectCampaign)
	g.POST("/campaigns/:id/archive", h.ArchiveCampaign)
	g.POST("/campaigns/:id/raised", h.IncrementRaised)
	g.POST("/receipts/:id/tax-certificate", h.AttachTaxCertificate)
	g.PUT("/users/:id/role", h.UpdateUserRole)
	g.GET("/stats", h.GetSystemStats)
	return r
}

func perform(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestReviewRoutes(t *testing.T) {
	svc := new(MockAdminServices)
	r := newAdminRouter(svc)

	svc.On("Approve", int64(1), int64(5)).Return(nil).Once()
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/admin/campaigns/5/approve", "").Code)

	svc.On("Approve", int64(1), int64(5)).Return(errors.New(errors.ErrInvalidState, "already approved")).Once()
	assert.Equal(t, http.StatusConflict, perform(r, http.MethodPost, "/admin/campaigns/5/approve", "").Code)

	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodPost, "/admin/campaigns/6/reject", `{}`).Code)
	svc.On("Reject", int64(1), int64(6), "missing documents").Return(nil)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/admin/campaigns/6/reject", `{"comment":"missing documents"}`).Code)

	svc.On("Archive", int64(7)).Return(errors.New(errors.ErrResourceNotFound, "missing"))
	assert.Equal(t, http.StatusNotFound, perform(r, http.MethodPost, "/admin/campaigns/7/archive", "").Code)
	svc.AssertExpectations(t)
}

func TestMaintenanceRoutes(t *testing.T) {
	svc := new(MockAdminServices)
	r := newAdminRouter(svc)

	svc.On("IncrementRaised", int64(2), "100.5").Return(nil)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/admin/campaigns/2/raised", `{"amount":"100.50"}`).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodPost, "/admin/campaigns/2/raised", `{"amount":"0"}`).Code)

	svc.On("AttachTaxCertificate", int64(3), "https://certs.test/3.pdf").Return(errors.New(errors.ErrInvalidState, "not deductible"))
	assert.Equal(t, http.StatusConflict, perform(r, http.MethodPost, "/admin/receipts/3/tax-certificate", `{"url":"https://certs.test/3.pdf"}`).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodPost, "/admin/receipts/3/tax-certificate", `{"url":"nope"}`).Code)

	svc.On("UpdateUserRole", int64(4), "creator").Return(nil)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPut, "/admin/users/4/role", `{"role":"creator"}`).Code)

	svc.On("Stats").Return(model.SystemStats{TotalErrors: 2})
	w := perform(r, http.MethodGet, "/admin/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_errors":2`)
	svc.AssertExpectations(t)
}
