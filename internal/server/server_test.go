package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ecocollect-dev/ecocollect/internal/config"
	"github.com/ecocollect-dev/ecocollect/internal/models"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	// A file-backed database: ":memory:" gives every pooled
	// connection its own empty schema.
	cfg := &config.Config{
		Database: config.DatabaseConfig{URL: filepath.Join(t.TempDir(), "sandbox.sqlite")},
		Auth: config.AuthConfig{
			JWTSecret:   "test-secret",
			AdminEmails: []string{"admin@example.com"},
		},
	}

	srv, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	return srv
}

// call issues a request against the router and decodes the JSON body.
func call(t *testing.T, srv *Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec.Code, decoded
}

func login(t *testing.T, srv *Server, email string) string {
	t.Helper()

	status, body := call(t, srv, "POST", "/api/auth/google", "", map[string]string{"credential": email})
	require.Equal(t, http.StatusOK, status)
	token, ok := body["session_token"].(string)
	require.True(t, ok, "login response must carry session_token")
	require.NotEmpty(t, token)
	return token
}

func seedAndBook(t *testing.T, srv *Server, token string, weight float64) string {
	t.Helper()

	status, _ := call(t, srv, "POST", "/api/seed-data", "", nil)
	require.Equal(t, http.StatusOK, status)

	var wasteType models.WasteType
	require.NoError(t, srv.db.First(&wasteType, "name = ?", "Plastic").Error)

	status, body := call(t, srv, "POST", "/api/bookings", token, map[string]any{
		"waste_type_id":    wasteType.ID,
		"estimated_weight": weight,
		"pickup_date":      "2026-09-01",
		"pickup_time":      "10:00",
		"pickup_address":   "123 Green St",
	})
	require.Equal(t, http.StatusCreated, status)
	return body["id"].(string)
}

func TestGoogleLoginCreatesAndUpdatesUser(t *testing.T) {
	srv := newTestServer(t)

	status, body := call(t, srv, "POST", "/api/auth/google", "", map[string]string{"credential": "carol@example.com"})
	require.Equal(t, http.StatusOK, status)

	user := body["user"].(map[string]any)
	require.Equal(t, "carol@example.com", user["email"])
	require.Equal(t, "user", user["role"])

	// Second login reuses the account
	call(t, srv, "POST", "/api/auth/google", "", map[string]string{"credential": "carol@example.com"})
	var count int64
	require.NoError(t, srv.db.Model(&models.User{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestAdminEmailGetsAdminRole(t *testing.T) {
	srv := newTestServer(t)

	status, body := call(t, srv, "POST", "/api/auth/google", "", map[string]string{"credential": "admin@example.com"})
	require.Equal(t, http.StatusOK, status)
	user := body["user"].(map[string]any)
	require.Equal(t, "admin", user["role"])
}

func TestInvalidCredentialRejected(t *testing.T) {
	srv := newTestServer(t)

	status, _ := call(t, srv, "POST", "/api/auth/google", "", map[string]string{"credential": "not-an-email-or-jwt"})
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestMeRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	status, _ := call(t, srv, "GET", "/api/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, srv, "GET", "/api/auth/me", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	token := login(t, srv, "carol@example.com")
	status, body := call(t, srv, "GET", "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "carol@example.com", body["email"])
}

func TestSeedDataIsIdempotent(t *testing.T) {
	srv := newTestServer(t)

	status, body := call(t, srv, "POST", "/api/seed-data", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, body["seeded"])

	status, body = call(t, srv, "POST", "/api/seed-data", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, false, body["seeded"])

	var count int64
	require.NoError(t, srv.db.Model(&models.WasteType{}).Count(&count).Error)
	require.EqualValues(t, len(defaultWasteTypes), count)
}

func TestCreateBookingComputesPrice(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "carol@example.com")

	status, _ := call(t, srv, "POST", "/api/seed-data", "", nil)
	require.Equal(t, http.StatusOK, status)

	var wasteType models.WasteType
	require.NoError(t, srv.db.First(&wasteType, "name = ?", "Plastic").Error)

	status, body := call(t, srv, "POST", "/api/bookings", token, map[string]any{
		"waste_type_id":    wasteType.ID,
		"estimated_weight": 10.0,
		"pickup_date":      "2026-09-01",
		"pickup_time":      "10:00",
		"pickup_address":   "123 Green St",
	})
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "pending", body["status"])
	require.Equal(t, "unpaid", body["payment_status"])
	require.InDelta(t, 12.0, body["estimated_price"], 0.001)
	require.Equal(t, "Plastic", body["waste_type_name"])
}

func TestCreateBookingValidation(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "carol@example.com")

	// Missing fields
	status, _ := call(t, srv, "POST", "/api/bookings", token, map[string]any{
		"estimated_weight": 10.0,
	})
	require.Equal(t, http.StatusBadRequest, status)

	// Unknown waste type
	status, body := call(t, srv, "POST", "/api/bookings", token, map[string]any{
		"waste_type_id":    "nope",
		"estimated_weight": 10.0,
		"pickup_date":      "2026-09-01",
		"pickup_time":      "10:00",
		"pickup_address":   "123 Green St",
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "Unknown waste type", body["detail"])
}

func TestBookingsAreScopedToOwner(t *testing.T) {
	srv := newTestServer(t)
	carol := login(t, srv, "carol@example.com")
	dave := login(t, srv, "dave@example.com")

	bookingID := seedAndBook(t, srv, carol, 5)

	status, _ := call(t, srv, "GET", "/api/bookings/"+bookingID, dave, nil)
	require.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, srv, "GET", "/api/bookings/"+bookingID, carol, nil)
	require.Equal(t, http.StatusOK, status)
}

func TestDeleteBookingOnlyWhenPendingOrCancelled(t *testing.T) {
	srv := newTestServer(t)
	carol := login(t, srv, "carol@example.com")
	admin := login(t, srv, "admin@example.com")

	bookingID := seedAndBook(t, srv, carol, 5)

	// Confirmed bookings cannot be deleted
	status, _ := call(t, srv, "PATCH", "/api/admin/bookings/"+bookingID, admin, map[string]string{"status": "confirmed"})
	require.Equal(t, http.StatusOK, status)

	status, body := call(t, srv, "DELETE", "/api/bookings/"+bookingID, carol, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "Only pending or cancelled bookings can be deleted", body["detail"])

	// Cancelled bookings can
	status, _ = call(t, srv, "PATCH", "/api/admin/bookings/"+bookingID, admin, map[string]string{"status": "cancelled"})
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, srv, "DELETE", "/api/bookings/"+bookingID, carol, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, srv, "GET", "/api/bookings/"+bookingID, carol, nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestPaymentLifecycle(t *testing.T) {
	srv := newTestServer(t)
	carol := login(t, srv, "carol@example.com")
	bookingID := seedAndBook(t, srv, carol, 10)

	status, body := call(t, srv, "POST", "/api/payments/checkout", carol, map[string]string{"booking_id": bookingID})
	require.Equal(t, http.StatusOK, status)
	sessionID := body["session_id"].(string)
	require.NotEmpty(t, sessionID)

	// Freshly opened session is still unpaid
	status, body = call(t, srv, "GET", "/api/payments/status/"+sessionID, carol, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "open", body["status"])
	require.Equal(t, "unpaid", body["payment_status"])

	// Move the settle deadline into the past instead of sleeping
	require.NoError(t, srv.db.Model(&models.PaymentSession{}).
		Where("id = ?", sessionID).
		Update("settle_at", time.Now().Add(-time.Second)).Error)

	status, body = call(t, srv, "GET", "/api/payments/status/"+sessionID, carol, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "paid", body["status"])
	require.Equal(t, "paid", body["payment_status"])

	// Settling confirms the booking
	var booking models.Booking
	require.NoError(t, srv.db.First(&booking, "id = ?", bookingID).Error)
	require.Equal(t, models.BookingConfirmed, booking.Status)
	require.Equal(t, models.PaymentPaid, booking.PaymentStatus)

	// A paid booking cannot be checked out again
	status, _ = call(t, srv, "POST", "/api/payments/checkout", carol, map[string]string{"booking_id": bookingID})
	require.Equal(t, http.StatusBadRequest, status)
}

func TestPaymentSessionExpires(t *testing.T) {
	srv := newTestServer(t)
	carol := login(t, srv, "carol@example.com")
	bookingID := seedAndBook(t, srv, carol, 10)

	status, body := call(t, srv, "POST", "/api/payments/checkout", carol, map[string]string{"booking_id": bookingID})
	require.Equal(t, http.StatusOK, status)
	sessionID := body["session_id"].(string)

	require.NoError(t, srv.db.Model(&models.PaymentSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]any{
			"settle_at":  time.Now().Add(-time.Hour),
			"expires_at": time.Now().Add(-time.Minute),
		}).Error)

	status, body = call(t, srv, "GET", "/api/payments/status/"+sessionID, carol, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "expired", body["status"])
	require.Equal(t, "unpaid", body["payment_status"])
}

func TestAdminEndpointsRequireAdminRole(t *testing.T) {
	srv := newTestServer(t)
	carol := login(t, srv, "carol@example.com")

	for _, path := range []string{"/api/admin/stats", "/api/admin/bookings"} {
		status, body := call(t, srv, "GET", path, carol, nil)
		require.Equal(t, http.StatusForbidden, status, path)
		require.Equal(t, "Admin access required", body["error"], path)
	}
}

func TestAdminStats(t *testing.T) {
	srv := newTestServer(t)
	carol := login(t, srv, "carol@example.com")
	admin := login(t, srv, "admin@example.com")

	first := seedAndBook(t, srv, carol, 10)  // Plastic at 1.20/kg -> 12.00
	second := seedAndBook(t, srv, carol, 20) // -> 24.00

	// Pay and complete the first booking
	require.NoError(t, srv.db.Model(&models.Booking{}).Where("id = ?", first).
		Updates(map[string]any{
			"payment_status": models.PaymentPaid,
			"status":         models.BookingCompleted,
		}).Error)
	_ = second

	status, body := call(t, srv, "GET", "/api/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, status)
	require.InDelta(t, 2, body["total_bookings"], 0.001)
	require.InDelta(t, 1, body["pending_bookings"], 0.001)
	require.InDelta(t, 12.0, body["total_revenue"], 0.001)
	require.InDelta(t, 10.0, body["total_waste_collected"], 0.001)
}

func TestUpdateBookingStatusValidatesValue(t *testing.T) {
	srv := newTestServer(t)
	carol := login(t, srv, "carol@example.com")
	admin := login(t, srv, "admin@example.com")
	bookingID := seedAndBook(t, srv, carol, 5)

	status, _ := call(t, srv, "PATCH", "/api/admin/bookings/"+bookingID, admin, map[string]string{"status": "teleported"})
	require.Equal(t, http.StatusBadRequest, status)

	status, body := call(t, srv, "PATCH", "/api/admin/bookings/"+bookingID, admin, map[string]string{"status": "in-transit"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "in-transit", body["status"])
}

func TestGoogleStartRedirectsToLoopback(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/auth/google/start?redirect_uri="+
		"http%3A%2F%2F127.0.0.1%3A39121%2Fcallback&email=carol%40example.com", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	location := rec.Header().Get("Location")
	require.Contains(t, location, "http://127.0.0.1:39121/callback")
	require.Contains(t, location, "credential=carol%40example.com")

	// Non-loopback redirect targets are refused
	req = httptest.NewRequest("GET", "/api/auth/google/start?redirect_uri=https%3A%2F%2Fevil.example%2Fcb", nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWasteTypesArePublic(t *testing.T) {
	srv := newTestServer(t)

	status, _ := call(t, srv, "POST", "/api/seed-data", "", nil)
	require.Equal(t, http.StatusOK, status)

	req := httptest.NewRequest("GET", "/api/waste-types", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var types []models.WasteType
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &types))
	require.Len(t, types, len(defaultWasteTypes))
	for _, wt := range types {
		require.NotEmpty(t, wt.ID, fmt.Sprintf("waste type %s must have a ULID", wt.Name))
		require.Greater(t, wt.PricePerKG, 0.0)
	}
}
