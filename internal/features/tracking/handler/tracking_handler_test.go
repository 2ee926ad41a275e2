package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"whereis/internal/core/config"
	"whereis/internal/core/database"
	"whereis/internal/features/tracking/adapters"
	"whereis/internal/features/tracking/domain"
	"whereis/internal/features/tracking/ports"
	"whereis/internal/features/tracking/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAdapter returns a fixed timeline or error for every tracking number.
type stubAdapter struct {
	carrier  domain.Carrier
	required []string
	events   []domain.Event
	err      error
}

type stubPayload struct{ carrier domain.Carrier }

func (p stubPayload) Carrier() domain.Carrier { return p.carrier }
func (p stubPayload) Raw() json.RawMessage    { return json.RawMessage(`{}`) }

func (s *stubAdapter) Carrier() domain.Carrier  { return s.carrier }
func (s *stubAdapter) RequiredParams() []string { return s.required }

func (s *stubAdapter) Fetch(context.Context, string, map[string]string) (domain.RawPayload, error) {
	if s.err != nil {
		return nil, s.err
	}
	return stubPayload{carrier: s.carrier}, nil
}

func (s *stubAdapter) Normalize(_ domain.RawPayload, method domain.UpdateMethod) (*domain.Timeline, error) {
	if len(s.events) == 0 {
		return nil, ports.NewCarrierError(s.carrier, ports.CategoryNotFound, "no data", nil)
	}
	events := make([]domain.Event, len(s.events))
	for i, ev := range s.events {
		ev.Provenance.UpdateMethod = method
		events[i] = ev
	}
	return &domain.Timeline{Events: events, Origin: "Memphis, TN US"}, nil
}

func stubEvent(t *testing.T, number string, status domain.StatusCode, hour int) domain.Event {
	t.Helper()
	raw := json.RawMessage(fmt.Sprintf(`{"status":%d,"hour":%d}`, status, hour))
	fp, err := domain.Fingerprint(domain.CarrierFedEx, raw)
	require.NoError(t, err)

	return domain.Event{
		Fingerprint:    fp,
		Carrier:        domain.CarrierFedEx,
		TrackingNumber: number,
		Status:         status,
		What:           domain.DefaultStatusRegistry().Describe(status),
		When:           time.Date(2024, 3, 1, hour, 0, 0, 0, time.UTC),
		Where:          "Memphis, TN US",
		Provenance:     domain.Provenance{DataProvider: "FedEx"},
		Source:         raw,
	}
}

func setupApp(t *testing.T, carriers ...ports.CarrierAdapter) *fiber.App {
	t.Helper()

	db, err := database.Open(context.Background(), config.DatabaseConfig{
		Driver: database.DriverSQLite,
		URL:    filepath.Join(t.TempDir(), "whereis.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := service.NewTrackingService(service.NewAdapterRegistry(carriers...), adapters.NewSQLRepository(db), nil, nil, time.Second)
	h := NewTrackingHandler(svc, nil)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "test-ray-id")
		return c.Next()
	})
	app.Get("/v0/whereis/:id", h.GetWhereIs)
	app.Get("/v0/status/:id", h.GetStatus)
	return app
}

func decodeError(t *testing.T, body io.Reader) ErrorResponse {
	t.Helper()
	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&errResp))
	return errResp
}

// TestTrackingHandler_GetWhereIs_Success verifies that a first lookup returns the entity view.
func TestTrackingHandler_GetWhereIs_Success(t *testing.T) {
	fdx := &stubAdapter{carrier: domain.CarrierFedEx}
	fdx.events = []domain.Event{
		stubEvent(t, "123456789012", 3050, 1),
		stubEvent(t, "123456789012", 3500, 5),
	}
	app := setupApp(t, fdx)

	resp, err := app.Test(httptest.NewRequest("GET", "/v0/whereis/fdx-123456789012", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var view domain.EntityView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, "fdx-123456789012", view.Object.ID)
	assert.True(t, view.Object.Completed)
	assert.Equal(t, "Memphis, TN US", view.Object.Additional[domain.ExtraOrigin])
	require.Len(t, view.Events, 2)
	assert.Equal(t, domain.StatusDelivered, view.Events[1].Status)
	assert.Nil(t, view.Events[0].Additional.SourceData)
}

// TestTrackingHandler_GetWhereIs_Full verifies that full=true includes the raw carrier data.
func TestTrackingHandler_GetWhereIs_Full(t *testing.T) {
	fdx := &stubAdapter{carrier: domain.CarrierFedEx, events: []domain.Event{stubEvent(t, "123456789012", 3050, 1)}}
	app := setupApp(t, fdx)

	resp, err := app.Test(httptest.NewRequest("GET", "/v0/whereis/fdx-123456789012?full=true", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var view domain.EntityView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	require.Len(t, view.Events, 1)
	assert.JSONEq(t, `{"status":3050,"hour":1}`, string(view.Events[0].Additional.SourceData))
}

// TestTrackingHandler_GetWhereIs_Errors verifies the HTTP status and code of each failure class.
func TestTrackingHandler_GetWhereIs_Errors(t *testing.T) {
	fdx := &stubAdapter{carrier: domain.CarrierFedEx}
	sfex := &stubAdapter{
		carrier:  domain.CarrierSFExpress,
		required: []string{"phone"},
		err:      ports.NewCarrierError(domain.CarrierSFExpress, ports.CategoryProviderOutage, "status 503", nil),
	}
	app := setupApp(t, fdx, sfex)

	tests := []struct {
		name   string
		path   string
		status int
		code   domain.ErrorCode
	}{
		{name: "malformed", path: "/v0/whereis/fdx", status: fiber.StatusBadRequest, code: domain.CodeMalformedTrackingID},
		{name: "invalid number", path: "/v0/whereis/fdx-123", status: fiber.StatusBadRequest, code: domain.CodeInvalidTrackingNumber},
		{name: "unsupported carrier", path: "/v0/whereis/ups-123456789012", status: fiber.StatusBadRequest, code: domain.CodeUnsupportedCarrier},
		{name: "missing phone", path: "/v0/whereis/sfex-SF1234567890123", status: fiber.StatusBadRequest, code: domain.CodeMissingParam},
		{name: "carrier has no data", path: "/v0/whereis/fdx-123456789012", status: fiber.StatusNotFound, code: domain.CodeNotFound},
		{name: "carrier outage", path: "/v0/whereis/sfex-SF1234567890123?phone=1234", status: fiber.StatusBadGateway, code: domain.CodeCarrierUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			errResp := decodeError(t, resp.Body)
			assert.Equal(t, tt.code, errResp.Code)
			assert.Equal(t, domain.DefaultErrorRegistry().Message(tt.code), errResp.Message)
			assert.Equal(t, "test-ray-id", errResp.RayID)
		})
	}
}

// TestTrackingHandler_GetStatus verifies that status reads stored data only.
func TestTrackingHandler_GetStatus(t *testing.T) {
	fdx := &stubAdapter{carrier: domain.CarrierFedEx, events: []domain.Event{
		stubEvent(t, "123456789012", 3050, 1),
		stubEvent(t, "123456789012", 3250, 2),
	}}
	app := setupApp(t, fdx)

	resp, err := app.Test(httptest.NewRequest("GET", "/v0/status/fdx-123456789012", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/v0/whereis/fdx-123456789012", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/v0/status/fdx-123456789012", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var summary domain.StatusSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, domain.StatusSummary{ID: "fdx-123456789012", Status: 3250, What: "In-Transit"}, summary)
}

// TestClassify_Internal verifies that unknown errors map to 500.
func TestClassify_Internal(t *testing.T) {
	status, code := classify(assert.AnError)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, domain.CodeInternal, code)
}
