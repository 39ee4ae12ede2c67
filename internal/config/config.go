// Package config reads ws1001 HCL configuration file.
package config

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/ws1001/helpers"
	"github.com/temoto/ws1001/log2"
	"github.com/temoto/ws1001/poller"
	"github.com/temoto/ws1001/protocol"
	"github.com/temoto/ws1001/session"
)

const (
	DefaultTopicPrefix   = "ws1001"
	DefaultMetricsListen = ":9101"
	defaultTeleTimeout   = 30 * time.Second
	defaultKeepalive     = 60 * time.Second
)

type Config struct {
	LogLevel string `hcl:"log_level"`

	Session SessionConfig `hcl:"session"`
	Poll    PollConfig    `hcl:"poll"`
	Tele    TeleConfig    `hcl:"tele"`
	Metrics MetricsConfig `hcl:"metrics"`
}

type PollConfig struct {
	IntervalSec int `hcl:"interval_sec"`
}

type SessionConfig struct {
	Listen            string `hcl:"listen"`
	Discovery         string `hcl:"discovery"`
	Broadcast         string `hcl:"broadcast"`
	AcceptTimeoutSec  int    `hcl:"accept_timeout_sec"`
	NetworkTimeoutSec int    `hcl:"network_timeout_sec"`
	ReadLimit         int    `hcl:"read_limit"`
}

type TeleConfig struct { //nolint:maligned
	Enabled           bool   `hcl:"enable"`
	MqttBroker        string `hcl:"mqtt_broker"`
	MqttLogDebug      bool   `hcl:"mqtt_log_debug"`
	ClientID          string `hcl:"client_id"`
	Username          string `hcl:"username"`
	Password          string `hcl:"password"` // secret
	TopicPrefix       string `hcl:"topic_prefix"`
	KeepaliveSec      int    `hcl:"keepalive_sec"`
	NetworkTimeoutSec int    `hcl:"network_timeout_sec"`
}

type MetricsConfig struct {
	Enabled bool   `hcl:"enable"`
	Listen  string `hcl:"listen"`
}

func (c *Config) Level() log2.Level {
	level, _ := log2.ParseLevel(c.LogLevel)
	return level
}

func (c *Config) PollInterval() time.Duration {
	return secondsDefault(c.Poll.IntervalSec, poller.DefaultInterval)
}

// SessionOptions maps config onto session.Options, zero values mean defaults.
func (c *Config) SessionOptions(log *log2.Log) session.Options {
	sc := &c.Session
	accept := secondsDefault(sc.AcceptTimeoutSec, session.DefaultAcceptTimeout)
	if sc.AcceptTimeoutSec < 0 {
		accept = -1
	}
	return session.Options{
		Log:            log,
		ListenAddr:     sc.Listen,
		DiscoveryAddr:  sc.Discovery,
		BroadcastAddr:  sc.Broadcast,
		AcceptTimeout:  accept,
		NetworkTimeout: secondsDefault(sc.NetworkTimeoutSec, session.DefaultNetworkTimeout),
		ReadLimit:      sc.ReadLimit,
	}
}

func (tc *TeleConfig) NetworkTimeout() time.Duration {
	d := secondsDefault(tc.NetworkTimeoutSec, defaultTeleTimeout)
	if d < time.Second {
		d = time.Second
	}
	return d
}

func (tc *TeleConfig) Keepalive() time.Duration {
	return secondsDefault(tc.KeepaliveSec, defaultKeepalive)
}

func (tc *TeleConfig) Prefix() string {
	if tc.TopicPrefix == "" {
		return DefaultTopicPrefix
	}
	return tc.TopicPrefix
}

func (mc *MetricsConfig) Addr() string {
	if mc.Listen == "" {
		return DefaultMetricsListen
	}
	return mc.Listen
}

func (c *Config) Validate() error {
	errs := make([]error, 0)
	if _, err := log2.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, errors.Annotate(err, "config: log_level"))
	}
	if c.Poll.IntervalSec < 0 {
		errs = append(errs, errors.NotValidf("config: poll.interval_sec=%d", c.Poll.IntervalSec))
	}
	if c.Session.NetworkTimeoutSec < 0 {
		errs = append(errs, errors.NotValidf("config: session.network_timeout_sec=%d", c.Session.NetworkTimeoutSec))
	}
	if rl := c.Session.ReadLimit; rl != 0 && rl < protocol.NowRecordSize {
		errs = append(errs, errors.NotValidf("config: session.read_limit=%d less than record size=%d", rl, protocol.NowRecordSize))
	}
	if c.Tele.Enabled && c.Tele.MqttBroker == "" {
		errs = append(errs, errors.NotValidf("config: tele.mqtt_broker is not set"))
	}
	return helpers.FoldErrors(errs)
}

func ReadConfig(r io.Reader, log *log2.Log) (*Config, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Annotate(err, "config read")
	}
	c := new(Config)
	if err = hcl.Unmarshal(b, c); err != nil {
		return nil, errors.Annotate(err, "config parse")
	}
	if err = c.Validate(); err != nil {
		return nil, err
	}
	log.Debugf("config=%+v", c.redacted())
	return c, nil
}

func ReadConfigFile(path string, log *log2.Log) (*Config, error) {
	if pathAbs, err := filepath.Abs(path); err != nil {
		log.Errorf("filepath.Abs(%s) error=%v", path, err)
	} else {
		path = pathAbs
	}
	log.Debugf("reading config file %s", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotate(err, "config")
	}
	defer f.Close()
	return ReadConfig(f, log)
}

func MustReadConfigFile(path string, log *log2.Log) *Config {
	c, err := ReadConfigFile(path, log)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}

// secondsDefault returns def for zero x.
func secondsDefault(x int, def time.Duration) time.Duration {
	if x == 0 {
		return def
	}
	return time.Duration(x) * time.Second
}

func (c *Config) redacted() Config {
	r := *c
	if r.Tele.Password != "" {
		r.Tele.Password = "(secret)"
	}
	return r
}
