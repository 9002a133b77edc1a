package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/models"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/signature"
)

type fakeEnqueuer struct {
	enqueued []*models.EventSubmission
	err      error
}

func (f *fakeEnqueuer) Enqueue(sub *models.EventSubmission) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, sub)
	return nil
}

type fakeFinder struct {
	events map[string]*models.Event
}

func (f *fakeFinder) FindByEventID(eventID string) (*models.Event, error) {
	return f.events[eventID], nil
}

func testApp(t *testing.T, enqueuer *fakeEnqueuer, finder *fakeFinder) *fiber.App {
	t.Helper()
	verifier, err := signature.NewVerifier("test-secret")
	require.NoError(t, err)

	handler := NewEventsHandler(enqueuer, finder, zap.NewNop())

	app := fiber.New()
	api := app.Group("/api/v1")
	api.Post("/events-gateway", signature.Middleware(verifier, zap.NewNop()), handler.ReceiveEvent)
	api.Get("/events-gateway/:eventId", handler.GetEvent)
	return app
}

func signedRequest(t *testing.T, body []byte) *http.Request {
	t.Helper()
	verifier, err := signature.NewVerifier("test-secret")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events-gateway", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(signature.Header, verifier.Sign(body))
	return req
}

func validBody() []byte {
	return []byte(`{
		"eventId": "evt_2026_0001",
		"merchantId": "merchant_789xyz",
		"shippingCompanyId": "company_idxyz",
		"shipmentId": "shp_xyz123",
		"type": "SHIPMENT_CREATED",
		"occurredAt": "2026-02-25T14:30:00Z",
		"payload": {"origin": "Cairo", "destination": "Alexandria", "weight": 12.5}
	}`)
}

func TestReceiveEventAcceptsValidSubmission(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	app := testApp(t, enqueuer, &fakeFinder{})

	resp, err := app.Test(signedRequest(t, validBody()))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	require.Len(t, enqueuer.enqueued, 1)
	assert.Equal(t, "evt_2026_0001", enqueuer.enqueued[0].EventID)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "accepted", payload["status"])
}

func TestReceiveEventRejectsBadSignature(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	app := testApp(t, enqueuer, &fakeFinder{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events-gateway", bytes.NewReader(validBody()))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(signature.Header, "deadbeef")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, enqueuer.enqueued)
}

func TestReceiveEventRejectsMissingSignature(t *testing.T) {
	app := testApp(t, &fakeEnqueuer{}, &fakeFinder{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events-gateway", bytes.NewReader(validBody()))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestReceiveEventRejectsIncompleteSubmission(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	app := testApp(t, enqueuer, &fakeFinder{})

	body := []byte(`{"eventId": "evt_2026_0001", "type": "SHIPMENT_CREATED"}`)
	resp, err := app.Test(signedRequest(t, body))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Empty(t, enqueuer.enqueued)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "shipmentId")
}

func TestReceiveEventReportsEnqueueFailure(t *testing.T) {
	enqueuer := &fakeEnqueuer{err: fmt.Errorf("broker unavailable")}
	app := testApp(t, enqueuer, &fakeFinder{})

	resp, err := app.Test(signedRequest(t, validBody()))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestGetEventReturnsStatus(t *testing.T) {
	routeID := "R-42"
	finder := &fakeFinder{events: map[string]*models.Event{
		"evt_2026_0001": {
			EventID:      "evt_2026_0001",
			ShipmentID:   "shp_xyz123",
			Type:         models.ShipmentCreated,
			Status:       models.EventStatusProcessed,
			AttemptCount: 2,
			RouteID:      &routeID,
		},
	}}
	app := testApp(t, &fakeEnqueuer{}, finder)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events-gateway/evt_2026_0001", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body EventStatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "PROCESSED", body.Status)
	assert.Equal(t, 2, body.AttemptCount)
	require.NotNil(t, body.RouteID)
	assert.Equal(t, "R-42", *body.RouteID)
}

func TestGetEventReturnsNotFound(t *testing.T) {
	app := testApp(t, &fakeEnqueuer{}, &fakeFinder{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events-gateway/evt_missing", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
