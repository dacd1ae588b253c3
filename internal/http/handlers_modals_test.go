package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/onboard-ui/internal/domain/popup"
)

func postModal(t *testing.T, env *testEnv, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/api/modals", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return env.do(t, r)
}

func TestEnqueueModalInsertsAfterActive(t *testing.T) {
	env := newTestEnv(t)
	env.instance(t)

	for _, body := range []string{
		`{"id":"first","type":"alert","props":{"title":"One","message":"first"}}`,
		`{"id":"second","type":"alert","props":{"message":"second"}}`,
		`{"id":"third","type":"confirm","props":{"message":"third","actions":[{"label":"Go","method":"POST","url":"/setup/skip"}]}}`,
	} {
		rr := postModal(t, env, body)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	rr := env.get(t, "/api/modals")
	require.Equal(t, http.StatusOK, rr.Code)
	var got struct {
		Modals []popup.Descriptor `json:"modals"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	ids := make([]string, 0, len(got.Modals))
	for _, d := range got.Modals {
		ids = append(ids, d.ID)
	}
	// the active modal keeps its place; each newcomer goes right behind it
	if diff := cmp.Diff([]string{"first", "third", "second"}, ids); diff != "" {
		t.Errorf("queue order mismatch (-want +got):\n%s", diff)
	}
}

func TestEnqueueModalErrors(t *testing.T) {
	env := newTestEnv(t)
	env.instance(t)
	require.Equal(t, http.StatusCreated, postModal(t, env, `{"id":"dup","type":"busy","props":{"message":"wait"}}`).Code)

	tests := []struct {
		name   string
		body   string
		status int
		field  string
	}{
		{name: "duplicate id", body: `{"id":"dup","type":"alert","props":{"message":"x"}}`, status: http.StatusConflict},
		{name: "missing type", body: `{"props":{"message":"x"}}`, status: http.StatusBadRequest, field: "type"},
		{name: "unknown type", body: `{"type":"toast","props":{"message":"x"}}`, status: http.StatusBadRequest, field: "type"},
		{name: "alert without message", body: `{"type":"alert"}`, status: http.StatusBadRequest, field: "message"},
		{name: "offsite action", body: `{"type":"confirm","props":{"message":"x","actions":[{"label":"Go","url":"https://evil.example"}]}}`, status: http.StatusBadRequest, field: "actions[0].url"},
		{name: "unknown field", body: `{"type":"alert","colour":"red"}`, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postModal(t, env, tt.body)
			assert.Equal(t, tt.status, rr.Code)
			if tt.field != "" {
				var body errorBody
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
				assert.Equal(t, tt.field, body.Field)
			}
		})
	}
	assert.Equal(t, 1, env.instance(t).Modals.Len())
}

func TestHideModal(t *testing.T) {
	env := newTestEnv(t)
	in := env.instance(t)
	_, err := in.Modals.Enqueue(popup.Alert("Heads up", "first"))
	require.NoError(t, err)
	id, err := in.Modals.Enqueue(popup.Descriptor{ID: "next", Type: popup.TypeAlert, Props: popup.Props{Message: "second"}})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodDelete, "/modals/"+id, nil)
	rr := env.do(t, r)
	assert.JSONEq(t, `{"hidden":true}`, rr.Body.String())

	rr = env.do(t, httptest.NewRequest(http.MethodDelete, "/modals/"+id, nil))
	assert.JSONEq(t, `{"hidden":false}`, rr.Body.String(), "hiding twice is a no-op")

	active, _ := in.Modals.Active()
	r = httptest.NewRequest(http.MethodDelete, "/modals/"+active.ID, nil)
	r.Header.Set("Hx-Request", "true")
	rr = env.do(t, r)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `id="modal-host"`)
	assert.NotContains(t, rr.Body.String(), "Heads up")
	assert.Equal(t, 0, in.Modals.Len())
}

func TestModalHostRendersActiveOnly(t *testing.T) {
	env := newTestEnv(t)
	in := env.instance(t)
	_, err := in.Modals.Enqueue(popup.Busy("Uploading your picture"))
	require.NoError(t, err)
	_, err = in.Modals.Enqueue(popup.Alert("Later", "queued"))
	require.NoError(t, err)

	rr := env.get(t, "/modals")
	body := rr.Body.String()
	assert.Contains(t, body, "Uploading your picture")
	assert.Contains(t, body, `role="status"`)
	assert.NotContains(t, body, "queued")
	assert.Contains(t, body, "1 more")
}

func TestEnqueueModalCanonicalizesTypeAndMethod(t *testing.T) {
	env := newTestEnv(t)
	in := env.instance(t)

	rr := postModal(t, env, `{"id":"ask","type":" Confirm ","props":{"message":"Skip this step?","actions":[{"label":"Skip","method":" post ","url":"/setup/skip"}]}}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	active, ok := in.Modals.Active()
	require.True(t, ok)
	assert.Equal(t, popup.TypeConfirm, active.Type)
	assert.Equal(t, "POST", active.Props.Actions[0].Method)

	body := env.get(t, "/modals").Body.String()
	assert.Contains(t, body, `hx-post="/setup/skip"`)
	assert.NotContains(t, body, `href="/setup/skip"`)

	in.Modals.Clear()
	rr = postModal(t, env, `{"id":"wait","type":" busy","props":{"message":"Saving"}}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	body = env.get(t, "/modals").Body.String()
	assert.Contains(t, body, `class="modal modal-busy"`)
	assert.Contains(t, body, `role="status"`)
}
