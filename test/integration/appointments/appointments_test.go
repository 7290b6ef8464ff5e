package appointments

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"frontdesk/pkg/model"
	"frontdesk/test/integration/testutil"

	"go.mongodb.org/mongo-driver/bson"
)

var (
	receptionist = model.Actor{ID: "it-reception", Role: model.RoleReceptionist, Status: model.StatusActive}
	host         = model.Actor{ID: "it-host", Role: model.RoleEmployee, Status: model.StatusActive}
)

type appointmentEnvelope struct {
	Data model.Appointment `json:"data"`
}

type errorEnvelope struct {
	Code    string         `json:"code"`
	Details map[string]any `json:"details"`
}

func slot(day time.Time, hour, minute int, length time.Duration) map[string]any {
	start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
	return map[string]any{
		"host_id":    host.ID,
		"title":      fmt.Sprintf("Sync %02d:%02d", hour, minute),
		"type":       "internal",
		"start_time": start.Format(time.RFC3339),
		"end_time":   start.Add(length).Format(time.RFC3339),
	}
}

func tomorrow() time.Time {
	return time.Now().UTC().AddDate(0, 0, 1)
}

func book(t *testing.T, client *testutil.Client, body map[string]any) model.Appointment {
	t.Helper()
	resp := client.POST(t, "/api/v1/appointments", body)
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	var created appointmentEnvelope
	if err := resp.DecodeJSON(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return created.Data
}

func TestBook_OverlapRejectedWithConflictingID(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, client := env.Setup(t)
	defer env.Cleanup(t, mongo)

	first := book(t, client.As(host), slot(tomorrow(), 10, 0, time.Hour))

	resp := client.As(receptionist).POST(t, "/api/v1/appointments", slot(tomorrow(), 10, 30, time.Hour))
	testutil.AssertStatusCode(t, resp, http.StatusConflict)

	var errResp errorEnvelope
	if err := resp.DecodeJSON(&errResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if errResp.Details["conflicting_id"] != first.ID {
		t.Errorf("expected conflicting_id %s, got %v", first.ID, errResp.Details["conflicting_id"])
	}
}

func TestBook_AdjacentSlotsDoNotConflict(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, client := env.Setup(t)
	defer env.Cleanup(t, mongo)

	book(t, client.As(host), slot(tomorrow(), 10, 0, time.Hour))
	book(t, client.As(host), slot(tomorrow(), 11, 0, 30*time.Minute))

	if n := mongo.CountDocuments(t, testutil.AppointmentsCollection, bson.M{"host_id": host.ID}); n != 2 {
		t.Errorf("expected 2 appointments, got %d", n)
	}
}

func TestBook_ConcurrentOverlapsKeepOne(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, client := env.Setup(t)
	defer env.Cleanup(t, mongo)

	const attempts = 5
	codes := make([]int, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := client.As(receptionist).POST(t, "/api/v1/appointments", slot(tomorrow(), 14, i*5, time.Hour))
			codes[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		if code == http.StatusCreated {
			created++
		}
	}
	if created != 1 {
		t.Errorf("expected exactly one booking to win, got %d (codes %v)", created, codes)
	}
	if n := mongo.CountDocuments(t, testutil.AppointmentsCollection, bson.M{"host_id": host.ID}); n != 1 {
		t.Errorf("expected 1 stored appointment, got %d", n)
	}
}

func TestEdit_RescheduleChecksOtherAppointmentsOnly(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, client := env.Setup(t)
	defer env.Cleanup(t, mongo)

	morning := book(t, client.As(host), slot(tomorrow(), 9, 0, time.Hour))
	book(t, client.As(host), slot(tomorrow(), 11, 0, time.Hour))

	extend := map[string]any{"end_time": morning.EndTime.Add(30 * time.Minute).Format(time.RFC3339)}
	resp := client.As(host).PATCH(t, "/api/v1/appointments/"+morning.ID, extend)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	overlap := map[string]any{"end_time": morning.EndTime.Add(150 * time.Minute).Format(time.RFC3339)}
	resp = client.As(host).PATCH(t, "/api/v1/appointments/"+morning.ID, overlap)
	testutil.AssertStatusCode(t, resp, http.StatusConflict)
}

func TestDelete_EmployeeCannotDeleteOthers(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, client := env.Setup(t)
	defer env.Cleanup(t, mongo)

	created := book(t, client.As(host), slot(tomorrow(), 16, 0, time.Hour))

	other := model.Actor{ID: "it-other", Role: model.RoleEmployee, Status: model.StatusActive}
	resp := client.As(other).DELETE(t, "/api/v1/appointments/"+created.ID)
	testutil.AssertStatusCode(t, resp, http.StatusForbidden)

	resp = client.As(receptionist).DELETE(t, "/api/v1/appointments/"+created.ID)
	testutil.AssertStatusCode(t, resp, http.StatusNoContent)

	resp = client.As(receptionist).GET(t, "/api/v1/appointments/"+created.ID)
	testutil.AssertStatusCode(t, resp, http.StatusNotFound)
}

func TestActive_ReportsCurrentMeeting(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, client := env.Setup(t)
	defer env.Cleanup(t, mongo)

	now := time.Now().UTC()
	body := slot(now, now.Hour(), now.Minute(), time.Hour)
	body["start_time"] = now.Add(-10 * time.Minute).Format(time.RFC3339)
	body["end_time"] = now.Add(50 * time.Minute).Format(time.RFC3339)
	book(t, client.As(host), body)

	resp := client.As(receptionist).GET(t, "/api/v1/hosts/"+host.ID+"/active")
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	testutil.AssertContains(t, resp, `"busy":true`)
}
