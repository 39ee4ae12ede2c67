package tele

import (
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
)

type MqttMock struct {
	sync.Mutex
	Opt       *mqtt.ClientOptions
	Pub       chan MockMsg
	connected bool
	connects  int
	connErrs  []error // returned by Connect in order
}

func NewMqttMock(connErrs ...error) *MqttMock {
	return &MqttMock{
		Pub:      make(chan MockMsg, 32),
		connErrs: connErrs,
	}
}

func (self *MqttMock) MockNew(opt *mqtt.ClientOptions) mqtt.Client {
	self.Opt = opt
	return self
}

func (self *MqttMock) Connects() int {
	self.Lock()
	defer self.Unlock()
	return self.connects
}

func (self *MqttMock) Disconnect(uint) {
	self.Lock()
	self.connected = false
	self.Unlock()
}

func (self *MqttMock) IsConnected() bool {
	self.Lock()
	defer self.Unlock()
	return self.connected
}

func (self *MqttMock) IsConnectionOpen() bool { return self.IsConnected() }

func (self *MqttMock) Connect() mqtt.Token {
	self.Lock()
	self.connects++
	var err error
	if len(self.connErrs) != 0 {
		err, self.connErrs = self.connErrs[0], self.connErrs[1:]
	}
	self.connected = err == nil
	self.Unlock()
	if err == nil && self.Opt != nil && self.Opt.OnConnect != nil {
		self.Opt.OnConnect(self)
	}
	return mockToken{err}
}

func (self *MqttMock) Publish(topic string, qos byte, retain bool, payload interface{}) mqtt.Token {
	msg := MockMsg{T: topic, Q: qos, R: retain}
	switch p := payload.(type) {
	case []byte:
		msg.P = p
	case string:
		msg.P = []byte(p)
	default:
		return mockToken{errors.NotSupportedf("payload=%T", payload)}
	}
	if !self.IsConnected() {
		return mockToken{errors.New("not Connected")}
	}
	self.Pub <- msg
	return mockToken{nil}
}

func (self *MqttMock) Subscribe(string, byte, mqtt.MessageHandler) mqtt.Token {
	panic("not implemented")
}
func (self *MqttMock) AddRoute(string, mqtt.MessageHandler) { panic("not implemented") }
func (self *MqttMock) OptionsReader() mqtt.ClientOptionsReader {
	panic("not implemented")
}
func (self *MqttMock) SubscribeMultiple(map[string]byte, mqtt.MessageHandler) mqtt.Token {
	panic("not implemented")
}
func (self *MqttMock) Unsubscribe(...string) mqtt.Token { panic("not implemented") }

type mockToken struct{ error }

func (tok mockToken) Error() error                   { return tok.error }
func (tok mockToken) Wait() bool                     { return !errors.IsTimeout(tok.error) }
func (tok mockToken) WaitTimeout(time.Duration) bool { return tok.Wait() }

type MockMsg struct {
	T string
	P []byte
	Q byte
	R bool
}

func (msg MockMsg) Ack()              {}
func (msg MockMsg) Duplicate() bool   { return false }
func (msg MockMsg) MessageID() uint16 { return 0 }
func (msg MockMsg) Payload() []byte   { return msg.P }
func (msg MockMsg) Qos() byte         { return msg.Q }
func (msg MockMsg) Retained() bool    { return msg.R }
func (msg MockMsg) Topic() string     { return msg.T }

var _ mqtt.Message = MockMsg{}
