package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"UP"}`, w.Body.String())

	w = httptest.NewRecorder()
	env.app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	env.app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "medibook_http_requests_total")
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	resp := env.makeRequest(http.MethodPost, "/auth/register", map[string]interface{}{
		"name": "Ann", "email": "Ann@Example.com", "password": "secret123",
	}, "")
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "User successfully created", resp.Message)

	dup := env.makeRequest(http.MethodPost, "/auth/register", map[string]interface{}{
		"name": "Ann", "email": "ann@example.com", "password": "secret123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, dup.Code)
	assert.False(t, dup.Success)

	bad := env.makeRequest(http.MethodPost, "/auth/login", map[string]interface{}{
		"email": "ann@example.com", "password": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	login := env.makeRequest(http.MethodPost, "/auth/login", map[string]interface{}{
		"email": "ANN@example.com", "password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, login.Code)
	assert.Equal(t, "Successfully logged in", login.Message)
	assert.Equal(t, "patient", login.Role)
	assert.NotEmpty(t, login.Token)
	user := login.object(t)
	assert.Equal(t, "ann@example.com", user["email"])
	assert.NotContains(t, user, "password")
}

func TestUnauthenticatedRequests(t *testing.T) {
	env := newTestEnv(t)

	resp := env.makeRequest(http.MethodGet, "/users/profile/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "No token, authorization denied", resp.Message)

	resp = env.makeRequest(http.MethodGet, "/users/profile/me", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "Token is invalid", resp.Message)

	doctor := env.registerDoctor("doc@example.com")
	resp = env.makeRequest(http.MethodGet, "/users/profile/me", nil, doctor.Token)
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "You're not authorized", resp.Message)
}

func TestBookingFlow(t *testing.T) {
	env := newTestEnv(t)
	patient := env.registerPatient("pat@example.com")
	doctor := env.registerDoctor("doc@example.com")
	admin := env.admin()

	price := env.makeRequest(http.MethodPut, "/doctors/"+doctor.ID, map[string]interface{}{"ticketPrice": 500}, doctor.Token)
	require.Equal(t, http.StatusOK, price.Code, price.Message)

	empty := env.makeRequest(http.MethodGet, "/appointments/my-appointments", nil, patient.Token)
	require.Equal(t, http.StatusOK, empty.Code)
	assert.Equal(t, "You have no appointments booked yet.", empty.Message)
	assert.JSONEq(t, `[]`, string(empty.Data))

	past := env.makeRequest(http.MethodPost, "/appointments/book", map[string]interface{}{
		"doctorId": doctor.ID, "appointmentDate": "2000-01-01", "timeSlot": "10:00",
	}, patient.Token)
	assert.Equal(t, http.StatusBadRequest, past.Code)
	assert.Equal(t, "Appointment date must be today or in the future", past.Message)

	missing := env.makeRequest(http.MethodPost, "/appointments/book", map[string]interface{}{
		"doctorId": "does-not-exist", "appointmentDate": futureDate(), "timeSlot": "10:00",
	}, patient.Token)
	assert.Equal(t, http.StatusNotFound, missing.Code)

	booked := env.makeRequest(http.MethodPost, "/appointments/book", map[string]interface{}{
		"doctorId": doctor.ID, "appointmentDate": futureDate(), "timeSlot": "10:00",
	}, patient.Token)
	require.Equal(t, http.StatusCreated, booked.Code, booked.Message)
	assert.Equal(t, "Appointment created successfully!", booked.Message)
	view := booked.object(t)
	assert.EqualValues(t, 500, view["ticketPrice"])
	assert.Equal(t, "pending", view["status"])
	assert.Equal(t, false, view["isPaid"])
	assert.Equal(t, doctor.ID, view["doctorId"])
	assert.Equal(t, patient.ID, view["userId"])
	bookingID := view["_id"].(string)

	mine := env.makeRequest(http.MethodGet, "/appointments/my-appointments", nil, patient.Token)
	require.Equal(t, http.StatusOK, mine.Code)
	assert.Equal(t, "Appointments fetched successfully", mine.Message)
	var list []map[string]interface{}
	mine.decode(t, &list)
	require.Len(t, list, 1)
	assert.Equal(t, bookingID, list[0]["_id"])
	assert.Equal(t, "Dr. Dee", list[0]["doctor"].(map[string]interface{})["name"])

	docs := env.makeRequest(http.MethodGet, "/doctors/appointments", nil, doctor.Token)
	require.Equal(t, http.StatusOK, docs.Code)
	docs.decode(t, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "pat@example.com", list[0]["user"].(map[string]interface{})["email"])

	profile := env.makeRequest(http.MethodGet, "/users/profile/me", nil, patient.Token)
	require.Equal(t, http.StatusOK, profile.Code)
	assert.Len(t, profile.object(t)["appointments"], 1)

	status := env.makeRequest(http.MethodPut, "/admin/appointments/"+bookingID+"/status", map[string]interface{}{"status": "completed"}, admin.Token)
	require.Equal(t, http.StatusOK, status.Code, status.Message)
	assert.Equal(t, "completed", status.object(t)["status"])

	invalid := env.makeRequest(http.MethodPut, "/admin/appointments/"+bookingID+"/status", map[string]interface{}{"status": "done"}, admin.Token)
	assert.Equal(t, http.StatusBadRequest, invalid.Code)

	stats := env.makeRequest(http.MethodGet, "/admin/stats", nil, admin.Token)
	require.Equal(t, http.StatusOK, stats.Code)
	s := stats.object(t)
	assert.EqualValues(t, 1, s["totalDoctors"])
	assert.EqualValues(t, 1, s["totalAppointments"])
	assert.EqualValues(t, 1, s["completedAppointments"])
	assert.EqualValues(t, 0, s["pendingAppointments"])

	forbidden := env.makeRequest(http.MethodGet, "/admin/stats", nil, patient.Token)
	assert.Equal(t, http.StatusForbidden, forbidden.Code)

	checkout := env.makeRequest(http.MethodPost, "/bookings/checkout-session/"+doctor.ID, nil, patient.Token)
	assert.Equal(t, http.StatusServiceUnavailable, checkout.Code)
}

func TestReviewFlow(t *testing.T) {
	env := newTestEnv(t)
	patient := env.registerPatient("pat@example.com")
	doctor := env.registerDoctor("doc@example.com")
	path := "/doctors/" + doctor.ID + "/reviews"

	bad := env.makeRequest(http.MethodPost, path, map[string]interface{}{"rating": 9, "reviewText": "?"}, patient.Token)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Equal(t, "Rating must be between 1 and 5", bad.Message)

	added := env.makeRequest(http.MethodPost, path, map[string]interface{}{"rating": 4, "reviewText": "Very thorough"}, patient.Token)
	require.Equal(t, http.StatusCreated, added.Code, added.Message)
	assert.Equal(t, "Review added successfully", added.Message)

	dup := env.makeRequest(http.MethodPost, path, map[string]interface{}{"rating": 5, "reviewText": "Again"}, patient.Token)
	assert.Equal(t, http.StatusBadRequest, dup.Code)
	assert.Equal(t, "You have already reviewed this doctor", dup.Message)

	byDoctor := env.makeRequest(http.MethodPost, path, map[string]interface{}{"rating": 5, "reviewText": "Me"}, doctor.Token)
	assert.Equal(t, http.StatusForbidden, byDoctor.Code)

	list := env.makeRequest(http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, list.Code)
	assert.Equal(t, "Reviews fetched successfully", list.Message)
	summary := list.object(t)
	assert.EqualValues(t, 1, summary["totalRating"])
	assert.EqualValues(t, 4, summary["averageRating"])
	assert.Len(t, summary["reviews"], 1)

	doc := env.makeRequest(http.MethodGet, "/doctors/"+doctor.ID, nil, "")
	require.Equal(t, http.StatusOK, doc.Code)
	assert.EqualValues(t, 4, doc.object(t)["averageRating"])
}

func TestProfileUpdates(t *testing.T) {
	env := newTestEnv(t)
	patient := env.registerPatient("pat@example.com")
	other := env.registerPatient("other@example.com")
	doctor := env.registerDoctor("doc@example.com")

	resp := env.makeRequest(http.MethodPut, "/users/"+patient.ID, map[string]interface{}{
		"name":  "Renamed",
		"role":  "admin",
		"email": "hijack@example.com",
	}, patient.Token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Message)
	assert.Equal(t, "Successfully updated", resp.Message)
	user := resp.object(t)
	assert.Equal(t, "Renamed", user["name"])
	assert.Equal(t, "patient", user["role"])
	assert.Equal(t, "pat@example.com", user["email"])

	resp = env.makeRequest(http.MethodPut, "/users/"+other.ID, map[string]interface{}{"name": "x"}, patient.Token)
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "You can only update your own profile", resp.Message)

	resp = env.makeMultipart(http.MethodPut, "/doctors/"+doctor.ID, map[string]string{
		"bio":            "Heart specialist",
		"qualifications": `[{"degree":"MBBS","university":"AIIMS"},{"degree":""}]`,
	}, "me.png", []byte("\x89PNG\r\n\x1a\n"), doctor.Token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Message)
	doc := resp.object(t)
	assert.Equal(t, "Heart specialist", doc["bio"])
	assert.True(t, strings.HasPrefix(doc["photo"].(string), "http://localhost:5000/uploads/"), doc["photo"])
	quals, _ := doc["qualifications"].([]interface{})
	require.NotEmpty(t, quals)
	assert.Equal(t, "MBBS", quals[0].(map[string]interface{})["degree"])

	resp = env.makeMultipart(http.MethodPut, "/doctors/"+doctor.ID, nil, "script.exe", []byte("MZ"), doctor.Token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAccountDeletion(t *testing.T) {
	env := newTestEnv(t)
	patient := env.registerPatient("pat@example.com")
	doctor := env.registerDoctor("doc@example.com")
	admin := env.admin()

	booked := env.makeRequest(http.MethodPost, "/appointments/book", map[string]interface{}{
		"doctorId": doctor.ID, "appointmentDate": futureDate(), "timeSlot": "10:00",
	}, patient.Token)
	require.Equal(t, http.StatusCreated, booked.Code, booked.Message)

	resp := env.makeRequest(http.MethodDelete, "/users/"+patient.ID, nil, patient.Token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Message)
	assert.Equal(t, "Account deleted successfully", resp.Message)

	stats := env.makeRequest(http.MethodGet, "/admin/stats", nil, admin.Token)
	require.Equal(t, http.StatusOK, stats.Code)
	assert.EqualValues(t, 0, stats.object(t)["totalAppointments"])

	revoked := env.makeRequest(http.MethodGet, "/users/profile/me", nil, patient.Token)
	assert.Equal(t, http.StatusUnauthorized, revoked.Code)
	assert.Equal(t, "Session has been revoked", revoked.Message)

	gone := env.makeRequest(http.MethodDelete, "/admin/doctors/"+doctor.ID, nil, admin.Token)
	require.Equal(t, http.StatusOK, gone.Code, gone.Message)

	lookup := env.makeRequest(http.MethodGet, "/doctors/"+doctor.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, lookup.Code)
}

func TestClientSuppliedPhotoIgnored(t *testing.T) {
	env := newTestEnv(t)

	resp := env.makeMultipart(http.MethodPost, "/auth/register", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "secret123",
	}, "alice.png", []byte("\x89PNG\r\n\x1a\n"), "")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)
	aliceURL, _ := resp.object(t)["photo"].(string)
	require.True(t, strings.HasPrefix(aliceURL, "http://localhost:5000/uploads/"), aliceURL)
	photoPath := strings.TrimPrefix(aliceURL, "http://localhost:5000")

	fetchPhoto := func() int {
		w := httptest.NewRecorder()
		env.app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, photoPath, nil))
		return w.Code
	}
	require.Equal(t, http.StatusOK, fetchPhoto())

	reg := env.makeRequest(http.MethodPost, "/auth/register", map[string]interface{}{
		"name": "Mallory", "email": "mallory@example.com", "password": "secret123", "photo": aliceURL,
	}, "")
	require.Equal(t, http.StatusCreated, reg.Code, reg.Message)
	assert.NotContains(t, reg.object(t), "photo")

	bob := env.registerPatient("bob@example.com")
	upd := env.makeRequest(http.MethodPut, "/users/"+bob.ID, map[string]interface{}{"name": "Bob", "photo": aliceURL}, bob.Token)
	require.Equal(t, http.StatusOK, upd.Code, upd.Message)
	assert.NotContains(t, upd.object(t), "photo")

	doctor := env.registerDoctor("doc@example.com")
	docUpd := env.makeRequest(http.MethodPut, "/doctors/"+doctor.ID, map[string]interface{}{"photo": aliceURL}, doctor.Token)
	require.Equal(t, http.StatusOK, docUpd.Code, docUpd.Message)
	assert.NotContains(t, docUpd.object(t), "photo")

	require.Equal(t, http.StatusOK, env.makeRequest(http.MethodDelete, "/users/"+bob.ID, nil, bob.Token).Code)
	require.Equal(t, http.StatusOK, env.makeRequest(http.MethodDelete, "/doctors/"+doctor.ID, nil, doctor.Token).Code)

	assert.Equal(t, http.StatusOK, fetchPhoto())
}
