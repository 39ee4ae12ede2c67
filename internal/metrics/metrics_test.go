package metrics

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/ws1001/log2"
	"github.com/temoto/ws1001/poller"
	"github.com/temoto/ws1001/protocol"
	"github.com/temoto/ws1001/session"
)

func TestObserve(t *testing.T) {
	t.Parallel()
	m := New()
	now := time.Unix(1600000000, 0)
	r := &protocol.WeatherRecord{
		Wind:     protocol.Wind{Direction: 90, Speed: 4.5, Gust: 7, Chill: -1.5},
		Inside:   protocol.TemperatureHumidity{Temperature: 22.5, Humidity: 45},
		Outside:  protocol.TemperatureHumidity{Temperature: -3.25, Humidity: 88},
		Pressure: 1001.5,
		Rain:     protocol.Rain{Daily: 2.5},
		UVIndex:  3,
	}
	m.Observe(poller.Item{Record: r}, now)
	m.Observe(poller.Item{}, now)
	m.Observe(poller.Item{}, now)
	m.Observe(poller.Item{Err: fmt.Errorf("broken")}, now)

	assert.Equal(t, 22.5, testutil.ToFloat64(m.temperature.WithLabelValues("inside")))
	assert.Equal(t, -3.25, testutil.ToFloat64(m.temperature.WithLabelValues("outside")))
	assert.Equal(t, 88.0, testutil.ToFloat64(m.humidity.WithLabelValues("outside")))
	assert.Equal(t, 2.5, testutil.ToFloat64(m.rain.WithLabelValues("daily")))
	assert.Equal(t, 90.0, testutil.ToFloat64(m.windDir))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.uvIndex))
	assert.Equal(t, 1600000000.0, testutil.ToFloat64(m.lastRecord))

	expect := `
# HELP ws1001_poll_items_total Poll sequence elements by kind.
# TYPE ws1001_poll_items_total counter
ws1001_poll_items_total{kind="error"} 1
ws1001_poll_items_total{kind="record"} 1
ws1001_poll_items_total{kind="skip"} 2
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expect), "ws1001_poll_items_total"))
}

func TestCountError(t *testing.T) {
	t.Parallel()
	m := New()
	log := log2.NewTest(t, log2.LError)
	log.SetErrorFunc(m.CountError)
	log.Errorf("tele publish err=%v", fmt.Errorf("timeout"))
	log.Clone(log2.LDebug).Error(fmt.Errorf("connection lost"))
	log.Infof("not counted")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.logErrors))
}

func TestSessionCollector(t *testing.T) {
	t.Parallel()
	m := New()
	// no session, no series
	assert.Equal(t, 0, testutil.CollectAndCount(&m.session))

	s := &session.Session{}
	s.Stat().Queries.Add(3)
	s.Stat().Recv.Count.Add(2)
	s.Stat().Recv.Size.Add(2 * protocol.NowRecordSize)
	s.Stat().Send.Count.Add(3)
	s.Stat().Send.Size.Add(3 * protocol.CommandFrameSize)
	m.SetSession(s)

	expect := `
# HELP ws1001_session_bytes_total Bytes transferred.
# TYPE ws1001_session_bytes_total counter
ws1001_session_bytes_total{dir="recv"} 208
ws1001_session_bytes_total{dir="send"} 120
# HELP ws1001_session_queries_total Queries sent.
# TYPE ws1001_session_queries_total counter
ws1001_session_queries_total 3
# HELP ws1001_session_state Current session state, value is 1.
# TYPE ws1001_session_state gauge
ws1001_session_state{state="Idle"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expect),
		"ws1001_session_bytes_total", "ws1001_session_queries_total", "ws1001_session_state"))

	m.SetSession(nil)
	assert.Equal(t, 0, testutil.CollectAndCount(&m.session))
}

func TestHandler(t *testing.T) {
	t.Parallel()
	m := New()
	m.ObserveRecord(&protocol.WeatherRecord{Outside: protocol.TemperatureHumidity{Temperature: 15}}, time.Now())
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `ws1001_temperature_celsius{location="outside"} 15`)

	resp2, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}
