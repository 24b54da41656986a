package tracker

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Domenick1991/flightbot/internal/source"
)

type upstream struct {
	mu   sync.Mutex
	body string
}

func (u *upstream) serve(body string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.body = body
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()
	w.Write([]byte(u.body))
}

func wireFlight(gate, estimated string) string {
	return fmt.Sprintf(`{"flights": [{
		"fltnr": "AY123", "sdate": "2026-10-16", "sdt": "2026-10-16T12:00:00Z",
		"arrival": false, "h_apt": "HEL", "route_1": "ARN",
		"gate": %s, "est_d": %s
	}]}`, gate, estimated)
}

func TestUpdateStatus_NullFieldFilledIn(t *testing.T) {
	tests := []struct {
		name    string
		before  string
		after   string
		message string
	}{
		{
			name:    "gate",
			before:  wireFlight("null", "null"),
			after:   wireFlight(`"B12"`, "null"),
			message: header + "Gate: B12",
		},
		{
			name:    "estimate",
			before:  wireFlight("null", "null"),
			after:   wireFlight("null", `"2026-10-16T12:05:00Z"`),
			message: header + "Estimated: 16.10. 12:05",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &upstream{}
			up.serve(tt.before)
			srv := httptest.NewServer(up)
			t.Cleanup(srv.Close)

			sink := &recordingSink{}
			clock := newFakeClock()
			s := testSettings(source.NewClient(srv.URL+"/", time.Second), sink, clock)
			ctx := context.Background()

			legs, err := s.source.GetFlight(ctx, "AY123")
			require.NoError(t, err)
			require.Len(t, legs, 1)
			flight, err := newTrackedFlight(s, "AY123", &legs[0], nil)
			require.NoError(t, err)
			require.NoError(t, flight.AddSubscriber(ctx, 1, 0, ""))
			sink.reset()

			poll(t, flight, clock)
			assert.Empty(t, sink.messages())

			up.serve(tt.after)
			poll(t, flight, clock)

			assert.Equal(t, []sentMessage{{chat: 1, text: tt.message}}, sink.messages())
		})
	}
}
