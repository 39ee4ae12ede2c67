// Package tele publishes weather records and session state to MQTT broker.
//
// Topics:
// - <prefix>/record  JSON record, QoS 1, not retained
// - <prefix>/state   QoS 1, retained: "online" until session starts,
//                    then session state name, "offline" on Close and as will
package tele

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/ws1001/helpers"
	"github.com/temoto/ws1001/internal/config"
	"github.com/temoto/ws1001/log2"
	"github.com/temoto/ws1001/protocol"
	"github.com/temoto/ws1001/session"
)

const (
	StateOnline  = "online"
	StateOffline = "offline"

	disconnectQuiesce = 250 // ms
)

type ClientFactory func(*mqtt.ClientOptions) mqtt.Client

type Stat struct {
	Connects  expvar.Int
	Published expvar.Int
	Errors    expvar.Int
}

type Tele struct {
	alive   *alive.Alive
	log     *log2.Log
	m       mqtt.Client
	mopt    *mqtt.ClientOptions
	backoff helpers.Backoff
	stat    Stat
	state   atomic.Value // string
	now     func() time.Time
	timeout time.Duration

	topicRecord string
	topicState  string
}

func New(tc config.TeleConfig, log *log2.Log) *Tele {
	return NewWithClient(tc, log, mqtt.NewClient)
}

func NewWithClient(tc config.TeleConfig, log *log2.Log, newClient ClientFactory) *Tele {
	self := &Tele{
		alive:   alive.NewAlive(),
		log:     log,
		now:     time.Now,
		timeout: tc.NetworkTimeout(),
		backoff: helpers.Backoff{
			Min: time.Second,
			Max: time.Minute,
			K:   2,
			Res: 100 * time.Millisecond,
		},
	}
	self.state.Store(StateOnline)
	prefix := tc.Prefix()
	self.topicRecord = fmt.Sprintf("%s/record", prefix)
	self.topicState = fmt.Sprintf("%s/state", prefix)

	mqttLog := log.Clone(log2.LDebug)
	mqttLog.SetPrefix("mqtt: ")
	mqtt.ERROR = mqttLog
	mqtt.CRITICAL = mqttLog
	mqtt.WARN = mqttLog
	if tc.MqttLogDebug {
		mqtt.DEBUG = mqttLog
	}

	clientID := tc.ClientID
	if clientID == "" {
		host, _ := os.Hostname()
		clientID = fmt.Sprintf("ws1001-%s-%d", host, os.Getpid())
	}
	self.mopt = mqtt.NewClientOptions().
		AddBroker(tc.MqttBroker).
		SetBinaryWill(self.topicState, []byte(StateOffline), 1, true).
		SetCleanSession(true).
		SetClientID(clientID).
		SetKeepAlive(tc.Keepalive()).
		SetPingTimeout(self.timeout).
		SetConnectTimeout(self.timeout).
		SetWriteTimeout(self.timeout).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(self.backoff.Max).
		SetOnConnectHandler(self.onConnectHandler).
		SetConnectionLostHandler(self.connectLostHandler)
	if tc.Username != "" {
		self.mopt.SetUsername(tc.Username).SetPassword(tc.Password)
	}
	self.m = newClient(self.mopt)
	return self
}

// Start connects to broker in background, retrying with backoff until success, ctx done or Close.
func (self *Tele) Start(ctx context.Context) {
	if !self.alive.Add(1) {
		return
	}
	go self.connectLoop(ctx)
}

func (self *Tele) connectLoop(ctx context.Context) {
	defer self.alive.Done()
	stopch := self.alive.StopChan()
	for {
		err := tokenWait(self.m.Connect(), self.timeout)
		if err == nil {
			self.backoff.Reset()
			return
		}
		self.stat.Errors.Add(1)
		delay := self.backoff.Failure()
		self.log.Errorf("tele connect broker=%v retry in %v err=%v", self.mopt.Servers, delay, err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		case <-stopch:
			return
		}
	}
}

func (self *Tele) Connected() bool { return self.m.IsConnected() }

func (self *Tele) Stat() *Stat { return &self.stat }

type recordMessage struct {
	Time   time.Time               `json:"time"`
	Record *protocol.WeatherRecord `json:"record"`
}

func (self *Tele) PublishRecord(r *protocol.WeatherRecord) error {
	payload, err := json.Marshal(recordMessage{Time: self.now().UTC(), Record: r})
	if err != nil {
		return errors.Annotate(err, "tele record encode")
	}
	return self.publish(self.topicRecord, false, payload)
}

// PublishState remembers s and publishes it retained. Remembered state is sent again on reconnect.
func (self *Tele) PublishState(s string) error {
	self.state.Store(s)
	return self.publish(self.topicState, true, []byte(s))
}

func (self *Tele) PublishSessionState(s session.State) error { return self.PublishState(s.String()) }

func (self *Tele) Close() error {
	self.alive.Stop()
	self.alive.Wait()
	if !self.m.IsConnected() {
		return nil
	}
	err := self.publish(self.topicState, true, []byte(StateOffline))
	self.m.Disconnect(disconnectQuiesce)
	self.log.Debugf("tele closed")
	return err
}

func (self *Tele) publish(topic string, retain bool, payload []byte) error {
	self.log.Debugf("tele publish topic=%s payload=%s", topic, payload)
	if err := tokenWait(self.m.Publish(topic, 1, retain, payload), self.timeout); err != nil {
		self.stat.Errors.Add(1)
		return errors.Annotatef(err, "tele publish topic=%s", topic)
	}
	self.stat.Published.Add(1)
	return nil
}

func (self *Tele) onConnectHandler(c mqtt.Client) {
	self.stat.Connects.Add(1)
	s := self.state.Load().(string)
	self.log.Infof("tele connected state=%s", s)
	if err := tokenWait(c.Publish(self.topicState, 1, true, []byte(s)), self.timeout); err != nil {
		self.stat.Errors.Add(1)
		self.log.Errorf("tele publish state err=%v", err)
		return
	}
	self.stat.Published.Add(1)
}

func (self *Tele) connectLostHandler(c mqtt.Client, err error) {
	self.log.Errorf("tele connection lost err=%v", err)
}

func tokenWait(tok mqtt.Token, timeout time.Duration) error {
	if !tok.WaitTimeout(timeout) {
		return errors.Timeoutf("mqtt token timeout=%v", timeout)
	}
	return tok.Error()
}
