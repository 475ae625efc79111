package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rskariadi-dev/manrura/internal/domain"
)

type staticToken string

func (t staticToken) Token() string {
	return string(t)
}

type recorded struct {
	Auth    string
	Action  string
	Payload map[string]json.RawMessage
}

func newServer(t *testing.T, status int, response string) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.Auth = r.Header.Get("Authorization")
		var body struct {
			Action  string                     `json:"action"`
			Payload map[string]json.RawMessage `json:"payload"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		rec.Action = body.Action
		rec.Payload = body.Payload

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestClient_ConfigMissing(t *testing.T) {
	c := New("  ")
	assert.False(t, c.Configured())

	_, err := c.GetAllData(context.Background())
	assert.ErrorIs(t, err, ErrConfigMissing)
}

func TestClient_GetAllData(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"success":true,"message":"ok","data":{
		"users":[{"id":"u1","name":"Siti","email":"s@rs.id","role":"Ward Staff","wardId":"w1"}],
		"wards":[{"id":"w1","name":"Melati"}],
		"allAssessments":{"w1":{"p1":{"wardStaff":{"score":0,"notes":"","evidence":null}}}},
		"assessmentPeriods":[]}}`)

	c := New(srv.URL, WithTokenSource(staticToken("tok")))
	snap, err := c.GetAllData(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "getAllData", rec.Action)
	assert.Equal(t, "Bearer tok", rec.Auth)
	require.Len(t, snap.Users, 1)
	assert.Equal(t, domain.RoleWardStaff, snap.Users[0].Role)
	ws := snap.AllAssessments["w1"]["p1"].WardStaff
	require.True(t, ws.Scored())
	assert.Equal(t, 0, *ws.Score)
}

func TestClient_ApplicationError(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"success":false,"message":"Ward not found","data":null}`)

	err := New(srv.URL).UpdateAssessment(context.Background(), "w9", "p1", domain.SlotWardStaff, domain.ScoreUpdate{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Ward not found", apiErr.Error())
}

func TestClient_Non2xxUsesServerMessage(t *testing.T) {
	srv, _ := newServer(t, http.StatusInternalServerError, `{"success":false,"message":"internal server error"}`)

	_, err := New(srv.URL).AddWard(context.Background(), domain.Ward{ID: "w1", Name: "Melati"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "internal server error", apiErr.Message)
}

func TestClient_Non2xxWithoutEnvelope(t *testing.T) {
	srv, _ := newServer(t, http.StatusBadGateway, `<html>bad gateway</html>`)

	_, err := New(srv.URL).AddWard(context.Background(), domain.Ward{ID: "w1", Name: "Melati"})
	assert.EqualError(t, err, "server responded with 502 Bad Gateway")
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).GetAllData(context.Background())
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "getAllData", netErr.Action)
}

func TestClient_UpdateAssessmentWireShape(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"success":true,"message":"saved","data":null}`)

	five := 5
	err := New(srv.URL).UpdateAssessment(context.Background(), "w1", "p1", domain.SlotAssessor,
		domain.ScoreUpdate{Score: &five, ClearEvidence: true, AssessorID: "u2"})
	require.NoError(t, err)

	assert.Equal(t, "updateAssessment", rec.Action)
	assert.JSONEq(t, `"p1"`, string(rec.Payload["poinId"]))
	assert.JSONEq(t, `"assessor"`, string(rec.Payload["role"]))
	assert.JSONEq(t, `{"score":5,"evidence":null,"assessorId":"u2"}`, string(rec.Payload["updates"]))
}

func TestClient_AddPeriodSendsDates(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"success":true,"message":"","data":{"id":"per-1","name":"Q1","startDate":"2024-01-01T00:00:00Z","endDate":"2024-03-31T00:00:00Z"}}`)

	got, err := New(srv.URL).AddAssessmentPeriod(context.Background(), domain.AssessmentPeriod{
		Name:      "Q1",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "per-1", got.ID)
	assert.JSONEq(t, `"2024-03-31"`, string(rec.Payload["endDate"]))
}

func TestClient_UploadFileEncodesDataURL(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"success":true,"message":"","data":{"name":"a.txt","url":"http://x/evidence/f1","type":"text/plain","fileId":"f1"}}`)

	ev, err := New(srv.URL).UploadFile(context.Background(), "a.txt", "text/plain", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "f1", ev.FileID)

	var fileData string
	require.NoError(t, json.Unmarshal(rec.Payload["fileData"], &fileData))
	assert.Equal(t, "data:text/plain;base64,aGVsbG8=", fileData)
}

func TestClient_Login(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"success":true,"message":"","data":{"user":{"id":"u1","name":"A","email":"a@rs.id","role":"Admin"},"token":"jwt"}}`)

	u, tok, err := New(srv.URL).Login(context.Background(), "a@rs.id", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "jwt", tok)
}
