package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvOverrides son los valores que se pueden sobreescribir desde el entorno
// (credenciales y direcciones que no deben quedar en el YAML versionado)
type EnvOverrides struct {
	BinID         int    `env:"ECOBINS_BIN_ID"`
	APIBaseURL    string `env:"ECOBINS_API_URL"`
	MQTTBroker    string `env:"ECOBINS_MQTT_BROKER"`
	MQTTUsername  string `env:"ECOBINS_MQTT_USER"`
	MQTTPassword  string `env:"ECOBINS_MQTT_PASSWORD"`
	PostgresURL   string `env:"ECOBINS_POSTGRES_URL"`
	OPCUAEndpoint string `env:"ECOBINS_OPCUA_ENDPOINT"`
	ActuatorMode  string `env:"ECOBINS_ACTUATOR_DRIVER"`
}

// ParseEnv carga configuración desde variables de entorno
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ApplyEnv sobreescribe la configuración con las variables ECOBINS_* presentes
func (c *Config) ApplyEnv() error {
	var o EnvOverrides
	if err := ParseEnv(&o); err != nil {
		return err
	}

	if o.BinID > 0 {
		c.Kiosk.BinID = o.BinID
	}
	setIfPresent(&c.API.BaseURL, o.APIBaseURL)
	setIfPresent(&c.MQTT.Broker, o.MQTTBroker)
	setIfPresent(&c.MQTT.Username, o.MQTTUsername)
	setIfPresent(&c.MQTT.Password, o.MQTTPassword)
	setIfPresent(&c.Database.Postgres.URL, o.PostgresURL)
	setIfPresent(&c.Actuator.OPCUA.Endpoint, o.OPCUAEndpoint)
	setIfPresent(&c.Actuator.Driver, o.ActuatorMode)
	return nil
}

func setIfPresent(field *string, value string) {
	if value != "" {
		*field = value
	}
}
