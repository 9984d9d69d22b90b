package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	paho "github.com/eclipse/paho.mqtt.golang"

	infralogger "github.com/mverdier/lineflow/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker        string `json:"broker" yaml:"broker"`
	ClientID      string `json:"client_id" yaml:"client_id"`
	Username      string `json:"username" yaml:"username"`
	Password      string `json:"password" yaml:"password"`
	RequestTopic  string `json:"request_topic" yaml:"request_topic"`
	ResponseTopic string `json:"response_topic" yaml:"response_topic"`
	QoS           byte   `json:"qos" yaml:"qos"`
	UseTLS        bool   `json:"use_tls" yaml:"use_tls"`
	ClientCert    string `json:"client_cert" yaml:"client_cert"`
	ClientKey     string `json:"client_key" yaml:"client_key"`
	CABundle      string `json:"ca_bundle" yaml:"ca_bundle"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "lineflow"
	}
	if c.RequestTopic == "" {
		c.RequestTopic = "lineflow/balance/request"
	}
	if c.ResponseTopic == "" {
		c.ResponseTopic = "lineflow/balance/response"
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	return nil
}

// Client is the transport surface the solve service needs.
type Client interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string, handler func(topic string, payload []byte)) error
	Disconnect()
}

type pahoAPI interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// newMQTTClient can be overridden in tests to avoid a live broker.
var newMQTTClient = func(opts *paho.ClientOptions) pahoAPI {
	return paho.NewClient(opts)
}

// PahoClient implements Client using Eclipse Paho.
type PahoClient struct {
	api pahoAPI
	qos byte
}

// NewPahoClient connects to the MQTT broker.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := infralogger.New("mqtt-client")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(paho.Client, *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	api := newMQTTClient(opts)
	if token := api.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &PahoClient{api: api, qos: cfg.QoS}, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
		if cfg.CABundle != "" {
			pem, err := os.ReadFile(cfg.CABundle)
			if err != nil {
				return nil, fmt.Errorf("read ca bundle: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(pem) {
				return nil, fmt.Errorf("no certificates parsed from %s", cfg.CABundle)
			}
			tlsCfg.RootCAs = pool
		}
		if cfg.ClientCert != "" && cfg.ClientKey != "" {
			cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
			if err != nil {
				return nil, fmt.Errorf("load client certificate: %w", err)
			}
			tlsCfg.Certificates = []tls.Certificate{cert}
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// Publish sends payload to the topic, waiting for broker confirmation.
func (c *PahoClient) Publish(topic string, payload []byte) error {
	token := c.api.Publish(topic, c.qos, false, payload)
	token.Wait()
	return token.Error()
}

// Subscribe registers handler for the topic.
func (c *PahoClient) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	token := c.api.Subscribe(topic, c.qos, func(_ paho.Client, msg paho.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	token.Wait()
	return token.Error()
}

// Disconnect closes the connection after a short quiesce.
func (c *PahoClient) Disconnect() {
	c.api.Disconnect(250)
}
