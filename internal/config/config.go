package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Config struct {
	Serial   SerialConfig   `json:"serial"`
	Driver   DriverConfig   `json:"driver"`
	MQTT     MQTTConfig     `json:"mqtt"`
	InfluxDB InfluxConfig   `json:"influxdb"`
	Postgres PostgresConfig `json:"postgres"`
	Logger   LoggerConfig   `json:"logger"`
}

type SerialConfig struct {
	Device   string `json:"device"`
	BaudRate int    `json:"baud_rate"`
}

type DriverConfig struct {
	GridUUID           uuid.UUID     `json:"grid_uuid"`
	GridSurveyOpcode   uint8         `json:"grid_survey_opcode"`
	PublishNavPosition bool          `json:"publish_nav_position"`
	MessageTimeout     time.Duration `json:"message_timeout"`
	ByteTimeout        time.Duration `json:"byte_timeout"`
	WarnInterval       time.Duration `json:"warn_interval"`
}

type MQTTConfig struct {
	Host                 string        `json:"host"`
	Port                 int           `json:"port"`
	Username             string        `json:"username"`
	Password             string        `json:"password"`
	ClientID             string        `json:"client_id"`
	BaseTopic            string        `json:"base_topic"`
	QoS                  byte          `json:"qos"`
	KeepAlive            int           `json:"keep_alive"`
	AutoReconnect        bool          `json:"auto_reconnect"`
	MaxReconnectInterval time.Duration `json:"max_reconnect_interval"`
	CleanSession         bool          `json:"clean_session"`
}

type InfluxConfig struct {
	Enabled      bool   `json:"enabled"`
	URL          string `json:"url"`
	Token        string `json:"token"`
	Organization string `json:"organization"`
	Bucket       string `json:"bucket"`
}

type PostgresConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Dsn      string `json:"dsn"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
	TimeZone string `json:"timezone"`
}

type LoggerConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Serial: SerialConfig{
			Device:   getEnv("UWB_DEVICE", ""),
			BaudRate: getEnvAsInt("UWB_BAUD_RATE", 115200),
		},
		Driver: DriverConfig{
			GridSurveyOpcode:   uint8(getEnvAsInt("UWB_GRID_SURVEY_OPCODE", 0x01)),
			PublishNavPosition: getEnvAsBool("UWB_PUBLISH_NAV_POSITION", false),
			MessageTimeout:     getEnvAsDuration("UWB_MESSAGE_TIMEOUT", "10s"),
			ByteTimeout:        getEnvAsDuration("UWB_BYTE_TIMEOUT", "5ms"),
			WarnInterval:       getEnvAsDuration("UWB_WARN_INTERVAL", "5s"),
		},
		MQTT: MQTTConfig{
			Host:                 getEnv("MQTT_HOST", "localhost"),
			Port:                 getEnvAsInt("MQTT_PORT", 1883),
			Username:             getEnv("MQTT_USERNAME", ""),
			Password:             getEnv("MQTT_PASSWORD", ""),
			ClientID:             getEnv("MQTT_CLIENT_ID", "uwb-nav-bridge"),
			BaseTopic:            getEnv("MQTT_BASE_TOPIC", "uwb"),
			QoS:                  byte(getEnvAsInt("MQTT_QOS", 1)),
			KeepAlive:            getEnvAsInt("MQTT_KEEP_ALIVE", 60),
			AutoReconnect:        getEnvAsBool("MQTT_AUTO_RECONNECT", true),
			MaxReconnectInterval: getEnvAsDuration("MQTT_MAX_RECONNECT_INTERVAL", "10s"),
			CleanSession:         getEnvAsBool("MQTT_CLEAN_SESSION", true),
		},
		InfluxDB: InfluxConfig{
			Enabled:      getEnvAsBool("INFLUXDB_ENABLED", false),
			URL:          getEnv("INFLUXDB_URL", "http://localhost:8086"),
			Token:        getEnv("INFLUXDB_TOKEN", ""),
			Organization: getEnv("INFLUXDB_ORG", "uwb_nav_bridge"),
			Bucket:       getEnv("INFLUXDB_BUCKET", "ranging"),
		},
		Postgres: PostgresConfig{
			Enabled:  getEnvAsBool("POSTGRES_ENABLED", false),
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DATABASE", "uwb_bridge"),
			SSLMode:  getEnv("POSTGRES_SSL_MODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}

	gridUUID, err := parseGridUUID(getEnv("UWB_GRID_UUID", ""))
	if err != nil {
		return nil, err
	}
	config.Driver.GridUUID = gridUUID

	baseTopic, found := strings.CutSuffix(config.MQTT.BaseTopic, "/")
	if found {
		config.MQTT.BaseTopic = baseTopic
	}

	config.Postgres.Dsn = fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		config.Postgres.Host, config.Postgres.Port, config.Postgres.User,
		config.Postgres.Password, config.Postgres.Database,
		func() string {
			if config.Postgres.SSLMode == "false" || config.Postgres.SSLMode == "" {
				return "disable"
			}
			return config.Postgres.SSLMode
		}(),
		config.Postgres.TimeZone,
	)

	return config, config.validate()
}

// parseGridUUID accepts a canonical UUID string or an empty value. The grid
// survey command's UUID field is unresolved in the beacon firmware docs, so
// the all-zero UUID stays the default.
func parseGridUUID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.UUID{}, nil
	}

	gridUUID, err := uuid.Parse(value)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("UWB_GRID_UUID is not a valid UUID: %w", err)
	}
	return gridUUID, nil
}

func (c *Config) validate() error {
	if c.Serial.Device == "" {
		return fmt.Errorf("UWB_DEVICE has to be set")
	}
	if c.Serial.BaudRate <= 0 {
		return fmt.Errorf("UWB_BAUD_RATE must be positive, got %d", c.Serial.BaudRate)
	}
	if c.Driver.ByteTimeout >= c.Driver.MessageTimeout {
		return fmt.Errorf("UWB_BYTE_TIMEOUT must be shorter than UWB_MESSAGE_TIMEOUT")
	}
	if c.InfluxDB.Enabled && c.InfluxDB.Token == "" {
		return fmt.Errorf("INFLUXDB_TOKEN has to be set when InfluxDB is enabled")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
