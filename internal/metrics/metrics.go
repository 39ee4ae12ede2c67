// Package metrics exports latest weather record and session counters in Prometheus format.
package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/temoto/ws1001/log2"
	"github.com/temoto/ws1001/poller"
	"github.com/temoto/ws1001/protocol"
	"github.com/temoto/ws1001/session"
)

const namespace = "ws1001"

type Metrics struct {
	reg *prometheus.Registry

	temperature *prometheus.GaugeVec // location=inside|outside
	humidity    *prometheus.GaugeVec
	rain        *prometheus.GaugeVec // period=rate|daily|weekly|yearly
	windSpeed   prometheus.Gauge
	windGust    prometheus.Gauge
	windChill   prometheus.Gauge
	windDir     prometheus.Gauge
	pressure    prometheus.Gauge
	barometer   prometheus.Gauge
	dewpoint    prometheus.Gauge
	radiation   prometheus.Gauge
	uvIndex     prometheus.Gauge
	heatIndex   prometheus.Gauge
	lastRecord  prometheus.Gauge
	items       *prometheus.CounterVec // kind=record|skip|error
	logErrors   prometheus.Counter

	session sessionCollector
}

func gauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
}

func New() *Metrics {
	self := &Metrics{
		reg: prometheus.NewRegistry(),
		temperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Temperature reported by console.",
		}, []string{"location"}),
		humidity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "humidity_percent",
			Help:      "Relative humidity reported by console.",
		}, []string{"location"}),
		rain: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rain",
			Help:      "Rain rate and accumulated rain per period.",
		}, []string{"period"}),
		windSpeed:  gauge("wind_speed", "Wind speed."),
		windGust:   gauge("wind_gust", "Wind gust."),
		windChill:  gauge("wind_chill_celsius", "Wind chill temperature."),
		windDir:    gauge("wind_direction_degrees", "Wind direction."),
		pressure:   gauge("pressure", "Absolute pressure."),
		barometer:  gauge("barometer", "Relative pressure."),
		dewpoint:   gauge("dewpoint_celsius", "Dew point."),
		radiation:  gauge("solar_radiation", "Solar radiation."),
		uvIndex:    gauge("uv_index", "UV index."),
		heatIndex:  gauge("heat_index", "Heat index."),
		lastRecord: gauge("last_record_timestamp_seconds", "Unix time of last received record."),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_items_total",
			Help:      "Poll sequence elements by kind.",
		}, []string{"kind"}),
		logErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_errors_total",
			Help:      "Errors logged by any component.",
		}),
	}
	self.session.init()
	self.reg.MustRegister(
		self.temperature, self.humidity, self.rain,
		self.windSpeed, self.windGust, self.windChill, self.windDir,
		self.pressure, self.barometer, self.dewpoint, self.radiation,
		self.uvIndex, self.heatIndex, self.lastRecord,
		self.items, self.logErrors,
		&self.session,
	)
	return self
}

func (self *Metrics) Registry() *prometheus.Registry { return self.reg }

// SetSession switches session counters source. nil stops reporting them.
func (self *Metrics) SetSession(s *session.Session) {
	self.session.mu.Lock()
	defer self.session.mu.Unlock()
	self.session.s = s
}

// CountError fits log2.ErrorFunc.
func (self *Metrics) CountError(error) { self.logErrors.Inc() }

func (self *Metrics) Observe(item poller.Item, now time.Time) {
	switch {
	case item.Err != nil:
		self.items.WithLabelValues("error").Inc()
	case item.Skip():
		self.items.WithLabelValues("skip").Inc()
	default:
		self.items.WithLabelValues("record").Inc()
		self.ObserveRecord(item.Record, now)
	}
}

func (self *Metrics) ObserveRecord(r *protocol.WeatherRecord, now time.Time) {
	self.temperature.WithLabelValues("inside").Set(float64(r.Inside.Temperature))
	self.temperature.WithLabelValues("outside").Set(float64(r.Outside.Temperature))
	self.humidity.WithLabelValues("inside").Set(float64(r.Inside.Humidity))
	self.humidity.WithLabelValues("outside").Set(float64(r.Outside.Humidity))
	self.rain.WithLabelValues("rate").Set(float64(r.Rain.Rate))
	self.rain.WithLabelValues("daily").Set(float64(r.Rain.Daily))
	self.rain.WithLabelValues("weekly").Set(float64(r.Rain.Weekly))
	self.rain.WithLabelValues("yearly").Set(float64(r.Rain.Yearly))
	self.windSpeed.Set(float64(r.Wind.Speed))
	self.windGust.Set(float64(r.Wind.Gust))
	self.windChill.Set(float64(r.Wind.Chill))
	self.windDir.Set(float64(r.Wind.Direction))
	self.pressure.Set(float64(r.Pressure))
	self.barometer.Set(float64(r.Barometer))
	self.dewpoint.Set(float64(r.Dewpoint))
	self.radiation.Set(float64(r.Radiation))
	self.uvIndex.Set(float64(r.UVIndex))
	self.heatIndex.Set(float64(r.HeatIndex))
	self.lastRecord.Set(float64(now.UnixNano()) / 1e9)
}

func (self *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(self.reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return mux
}

// Serve runs HTTP server until ctx is done.
func (self *Metrics) Serve(ctx context.Context, addr string, log *log2.Log) error {
	srv := &http.Server{Addr: addr, Handler: self.Handler()}
	errch := make(chan error, 1)
	go func() { errch <- srv.ListenAndServe() }()
	log.Infof("metrics listen=%s", addr)
	select {
	case err := <-errch:
		return errors.Annotatef(err, "metrics listen=%s", addr)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	<-errch
	return errors.Annotate(err, "metrics shutdown")
}

type sessionCollector struct {
	mu sync.Mutex
	s  *session.Session

	queries *prometheus.Desc
	frames  *prometheus.Desc
	bytes   *prometheus.Desc
	errors  *prometheus.Desc
	state   *prometheus.Desc
}

func (sc *sessionCollector) init() {
	name := func(s string) string { return prometheus.BuildFQName(namespace, "session", s) }
	sc.queries = prometheus.NewDesc(name("queries_total"), "Queries sent.", nil, nil)
	sc.frames = prometheus.NewDesc(name("frames_total"), "Frames transferred.", []string{"dir"}, nil)
	sc.bytes = prometheus.NewDesc(name("bytes_total"), "Bytes transferred.", []string{"dir"}, nil)
	sc.errors = prometheus.NewDesc(name("errors_total"), "Terminal session errors.", nil, nil)
	sc.state = prometheus.NewDesc(name("state"), "Current session state, value is 1.", []string{"state"}, nil)
}

func (sc *sessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- sc.queries
	ch <- sc.frames
	ch <- sc.bytes
	ch <- sc.errors
	ch <- sc.state
}

func (sc *sessionCollector) Collect(ch chan<- prometheus.Metric) {
	sc.mu.Lock()
	s := sc.s
	sc.mu.Unlock()
	if s == nil {
		return
	}
	stat := s.Stat().Value()
	ch <- prometheus.MustNewConstMetric(sc.queries, prometheus.CounterValue, float64(stat.Queries.Value()))
	ch <- prometheus.MustNewConstMetric(sc.frames, prometheus.CounterValue, float64(stat.Recv.Count.Value()), "recv")
	ch <- prometheus.MustNewConstMetric(sc.frames, prometheus.CounterValue, float64(stat.Send.Count.Value()), "send")
	ch <- prometheus.MustNewConstMetric(sc.bytes, prometheus.CounterValue, float64(stat.Recv.Size.Value()), "recv")
	ch <- prometheus.MustNewConstMetric(sc.bytes, prometheus.CounterValue, float64(stat.Send.Size.Value()), "send")
	ch <- prometheus.MustNewConstMetric(sc.errors, prometheus.CounterValue, float64(stat.Errors.Value()))
	ch <- prometheus.MustNewConstMetric(sc.state, prometheus.GaugeValue, 1, s.State().String())
}
