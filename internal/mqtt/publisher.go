package mqtt

import (
	"strconv"
	"strings"
	"time"

	"codeberg.org/mutker/bmcfanctl/internal/errors"
	"codeberg.org/mutker/bmcfanctl/internal/ipmi"
	"codeberg.org/mutker/bmcfanctl/internal/logger"
	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	ErrConnectFailed = errors.ErrorCode("mqtt_connect_failed")
	ErrPublishFailed = errors.ErrorCode("mqtt_publish_failed")
)

const (
	connectTimeout = 30 * time.Second
	disconnectWait = 250 // milliseconds, paho's Disconnect unit

	statusOnline  = "online"
	statusOffline = "offline"

	// Readings the BMC reports as no-data publish this payload so consumers
	// can tell a dead sensor from a missed poll.
	payloadUnavailable = "unavailable"
)

type Config struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// Publisher mirrors thermal readings and fan state to an MQTT broker.
type Publisher struct {
	client paho.Client
	cfg    Config
	log    logger.Logger
}

func NewPublisher(cfg Config, log logger.Logger) *Publisher {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)

	statusTopic := cfg.TopicPrefix + "/status"
	opts.SetWill(statusTopic, statusOffline, 1, true)

	opts.SetOnConnectHandler(func(client paho.Client) {
		log.Info().Str("broker", cfg.Broker).Msg("Connected to MQTT broker")
		if token := client.Publish(statusTopic, 1, true, statusOnline); token.Wait() && token.Error() != nil {
			log.Warn().Err(token.Error()).Msg("Failed to publish online status")
		}
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Error().Err(err).Msg("MQTT connection lost")
	})

	return &Publisher{
		client: paho.NewClient(opts),
		cfg:    cfg,
		log:    log,
	}
}

func (p *Publisher) Connect() error {
	errFactory := errors.New()

	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return errFactory.WithData(ErrConnectFailed, "connect timeout")
	}
	if err := token.Error(); err != nil {
		return errFactory.Wrap(ErrConnectFailed, err)
	}

	return nil
}

// PublishReadings publishes one retained message per sensor under
// <prefix>/sensor/<name>.
func (p *Publisher) PublishReadings(readings map[string]ipmi.Reading) error {
	errFactory := errors.New()

	for name, reading := range readings {
		payload := payloadUnavailable
		if reading.Valid {
			payload = strconv.Itoa(int(reading.Value))
		}

		topic := p.cfg.TopicPrefix + "/sensor/" + sanitizeTopic(name)
		if token := p.client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
			return errFactory.Wrap(ErrPublishFailed, token.Error())
		}
	}

	return nil
}

// PublishFanMode publishes the current fan mode under <prefix>/fan_mode.
func (p *Publisher) PublishFanMode(mode ipmi.FanMode) error {
	errFactory := errors.New()

	token := p.client.Publish(p.cfg.TopicPrefix+"/fan_mode", 0, true, mode.String())
	if token.Wait() && token.Error() != nil {
		return errFactory.Wrap(ErrPublishFailed, token.Error())
	}

	return nil
}

func (p *Publisher) Close() {
	if token := p.client.Publish(p.cfg.TopicPrefix+"/status", 1, true, statusOffline); token.Wait() && token.Error() != nil {
		p.log.Warn().Err(token.Error()).Msg("Failed to publish offline status")
	}
	p.client.Disconnect(disconnectWait)
}

// sanitizeTopic turns a sensor ID string into a topic segment.
func sanitizeTopic(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "#", "_")
	name = strings.ReplaceAll(name, "+", "_")

	return name
}
