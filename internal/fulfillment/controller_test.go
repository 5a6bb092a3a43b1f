package fulfillment

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"civicpost/internal/models"
)

func newTestApp(t *testing.T, vendor Vendor) *fiber.App {
	t.Helper()
	uc := newTestUseCase(t, vendor)
	ctrl := NewController(uc, zap.NewNop(), tracenoop.NewTracerProvider().Tracer("test"))
	app := fiber.New()
	app.Post("/orders/submit", ctrl.Submit)
	return app
}

func postSubmit(t *testing.T, app *fiber.App, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/orders/submit", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestSubmitEndpoint(t *testing.T) {
	vendor := &fakeVendor{}
	app := newTestApp(t, vendor)

	resp := postSubmit(t, app, submitRequest{SessionID: "sess_1", Order: testOrder(models.SendDouble, 1)})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var batch models.BatchResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&batch))
	assert.True(t, batch.Success)
	assert.Len(t, batch.Results, 2)
}

func TestSubmitEndpointPartialFailureIsStill200(t *testing.T) {
	vendor := &fakeVendor{failFor: map[string]bool{"Jane Smith": true}}
	app := newTestApp(t, vendor)

	resp := postSubmit(t, app, submitRequest{SessionID: "sess_1", Order: testOrder(models.SendDouble, 1)})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var batch models.BatchResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&batch))
	assert.False(t, batch.Success)
	assert.Equal(t, 1, batch.Failed)
	assert.Len(t, batch.Results, 2)
}

func TestSubmitEndpointMissingData(t *testing.T) {
	vendor := &fakeVendor{}
	app := newTestApp(t, vendor)

	order := testOrder(models.SendSingle, 0)
	order.Message = ""
	resp := postSubmit(t, app, submitRequest{SessionID: "sess_1", Order: order})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Zero(t, vendor.calls())
}

func TestSubmitEndpointRequiresSessionID(t *testing.T) {
	app := newTestApp(t, &fakeVendor{})

	resp := postSubmit(t, app, submitRequest{Order: testOrder(models.SendSingle, 0)})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
