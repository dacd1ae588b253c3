package httpx

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/onboard-ui/internal/domain/popup"
	"github.com/target/onboard-ui/internal/domain/session"
	"go.uber.org/goleak"
)

type sseEvent struct {
	Name string
	Data string
}

// readEvents parses the stream until ctx ends or the body closes.
func readEvents(ctx context.Context, sc *bufio.Scanner, out chan<- sseEvent) {
	defer close(out)
	var ev sseEvent
	var data []string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if ev.Name != "" {
				ev.Data = strings.Join(data, "\n")
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
			ev, data = sseEvent{}, nil
		case strings.HasPrefix(line, "event: "):
			ev.Name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}
}

func nextEvent(t *testing.T, events <-chan sseEvent, name string) sseEvent {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "stream ended before %q", name)
			if ev.Name == name {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %q event", name)
		}
	}
}

func TestEventStream(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	env := newTestEnv(t)
	in := env.instance(t)
	srv := httptest.NewServer(env.Handler)
	defer srv.Close()
	defer srv.Client().CloseIdleConnections()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: InstanceCookieName, Value: in.ID})
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan sseEvent)
	go readEvents(ctx, bufio.NewScanner(resp.Body), events)

	_, err = in.Modals.Enqueue(popup.Alert("Heads up", "line one"))
	require.NoError(t, err)
	ev := nextEvent(t, events, "modals")
	assert.Contains(t, ev.Data, `id="modal-host"`)
	assert.Contains(t, ev.Data, "line one")

	in.Session.Set(&session.User{ID: "u1", Username: "ada"})
	ev = nextEvent(t, events, "session")
	assert.JSONEq(t, `{"signedIn":true,"displayName":"ada","avatarUrl":"/static/img/avatar-default.svg"}`, ev.Data)

	_, err = env.Setup.Resume(ctx, in)
	require.NoError(t, err)
	_, err = env.Setup.Skip(in)
	require.NoError(t, err)
	// mounting publishes the resume step first
	for ev = nextEvent(t, events, "step"); !strings.Contains(ev.Data, "profile-picture"); ev = nextEvent(t, events, "step") {
	}
	assert.JSONEq(t, `{"mounted":true,"step":"profile-picture","complete":false}`, ev.Data)

	cancel()
	for range events {
	}
}

func TestEventStreamEndsWhenInstanceEvicted(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	env := newTestEnv(t)
	in := env.instance(t)
	srv := httptest.NewServer(env.Handler)
	defer srv.Close()
	defer srv.Client().CloseIdleConnections()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: InstanceCookieName, Value: in.ID})
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	events := make(chan sseEvent)
	go readEvents(context.Background(), bufio.NewScanner(resp.Body), events)

	env.Registry.Remove(in.ID)
	nextEvent(t, events, "closed")
	_, open := <-events
	assert.False(t, open, "server ends the stream after closed")
}

func TestWriteEventSplitsLines(t *testing.T) {
	var b strings.Builder
	require.NoError(t, writeEvent(&b, "modals", "<div>\r\n  <p>x</p>\n</div>"))
	assert.Equal(t, "event: modals\ndata: <div>\ndata:   <p>x</p>\ndata: </div>\n\n", b.String())
}
