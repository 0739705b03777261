package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coursepay/internal/database"
	"coursepay/internal/repository"
	"coursepay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
	gin.SetMode(gin.TestMode)
}

func newWebhookRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	notifSvc := service.NewNotificationService(repository.NewNotificationRepository(db), nil)
	attrSvc := service.NewAttributionService(
		repository.NewAttributionRepository(db),
		repository.NewCreatorRepository(db),
		repository.NewDiscountRepository(db),
		repository.NewPayoutRepository(db),
		notifSvc,
	)
	h := NewPaymentWebhookHandler(attrSvc, repository.NewAuditLogRepository(db))

	r := gin.New()
	r.POST("/webhooks/payment", h.Handle)
	return r, db
}

func postCallback(t *testing.T, r *gin.Engine, payload GatewayCallback) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestWebhookRecordsAndDeduplicates(t *testing.T) {
	r, _ := newWebhookRouter(t)
	payload := GatewayCallback{
		OrderID:             "ord-1",
		Status:              "COMPLETED",
		PayerID:             7,
		EnrollmentRef:       "enr-1",
		OriginalAmountCents: 1000000,
		FinalAmountCents:    900000,
		PlanID:              "plan-basic",
	}

	w, resp := postCallback(t, r, payload)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, "false", string(resp["duplicate"]))

	// Gateway redelivery gets the stored result back.
	w, resp = postCallback(t, r, payload)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, "true", string(resp["duplicate"]))
}

func TestWebhookIgnoresNonCompleted(t *testing.T) {
	r, db := newWebhookRouter(t)

	w, _ := postCallback(t, r, GatewayCallback{OrderID: "ord-1", Status: "FAILED"})
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, db.Table("payment_attributions").Count(&count).Error)
	require.Zero(t, count)
}

func TestWebhookRejectsBadAmounts(t *testing.T) {
	r, _ := newWebhookRouter(t)

	w, _ := postCallback(t, r, GatewayCallback{
		OrderID:             "ord-1",
		Status:              "COMPLETED",
		OriginalAmountCents: 100,
		FinalAmountCents:    200,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookRejectsInvalidJSON(t *testing.T) {
	r, _ := newWebhookRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
