package config

import "time"

type MQTTConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Broker         string        `yaml:"broker"`
	ClientID       string        `yaml:"client_id"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	QoS            byte          `yaml:"qos"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	// WearableTopic carries auto-SOS triggers; the single + is the client id.
	WearableTopic string `yaml:"wearable_topic"`
	// TelematicsTopic carries ambulance GPS fixes; the single + is the driver id.
	TelematicsTopic string `yaml:"telematics_topic"`
}

func loadMQTTConfig() *MQTTConfig {
	return &MQTTConfig{
		Enabled:         getEnvAsBool("MQTT_ENABLED", false),
		Broker:          getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		ClientID:        getEnv("MQTT_CLIENT_ID", "lifeline-server"),
		Username:        getEnv("MQTT_USERNAME", ""),
		Password:        getEnv("MQTT_PASSWORD", ""),
		QoS:             byte(getEnvAsInt("MQTT_QOS", 1)),
		ConnectTimeout:  getEnvAsDuration("MQTT_CONNECT_TIMEOUT", 10*time.Second),
		WearableTopic:   getEnv("MQTT_WEARABLE_TOPIC", "lifeline/wearables/+/sos"),
		TelematicsTopic: getEnv("MQTT_TELEMATICS_TOPIC", "lifeline/telematics/+/location"),
	}
}
