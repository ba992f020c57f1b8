package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"

	"uwb-nav-bridge/internal/beacon"
	"uwb-nav-bridge/internal/config"
	"uwb-nav-bridge/internal/database/influx"
	"uwb-nav-bridge/internal/database/postgres"
	"uwb-nav-bridge/internal/database/postgres/repositories"
	"uwb-nav-bridge/internal/logger"
	"uwb-nav-bridge/internal/mqtt"
	"uwb-nav-bridge/internal/services"
)

type Application struct {
	config *config.Config

	mqttClient      *mqtt.Client
	topicManager    *mqtt.TopicManager
	reportPublisher *mqtt.ReportPublisher

	influxDB     *influx.InfluxDB
	reportWriter *influx.ReportWriter

	postgresDB       *postgres.PostgresDB
	surveyRepository *repositories.SurveyRepository

	reportService *services.ReportService

	port   serial.Port
	driver *beacon.Driver

	driverDone   chan struct{}
	shutdownChan chan os.Signal
	ctx          context.Context
	cancelFunc   context.CancelFunc
}

func main() {
	app := &Application{}

	if err := app.initialize(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	if err := app.run(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run application")
	}
}

func (app *Application) initialize() error {
	var err error

	app.config, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	logger.NewLogger(app.config.Logger)
	log.Info().
		Str("component", "main").
		Str("version", "1.0.0").
		Msg("Setting up UWB bridge...")

	app.ctx, app.cancelFunc = context.WithCancel(context.Background())
	app.shutdownChan = make(chan os.Signal, 1)
	signal.Notify(app.shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.initializeMQTT(); err != nil {
		return fmt.Errorf("error while initializing MQTT: %w", err)
	}

	if err := app.initializeSinks(); err != nil {
		return fmt.Errorf("error while initializing sinks: %w", err)
	}

	if err := app.initializeDriver(); err != nil {
		return fmt.Errorf("error while initializing driver: %w", err)
	}

	log.Info().Msg("Successfully initialized application")
	return nil
}

func (app *Application) initializeMQTT() error {
	var err error

	app.topicManager = mqtt.NewTopicManager(app.config.MQTT.BaseTopic)

	app.mqttClient, err = mqtt.NewClient(&app.config.MQTT, logger.GetLogger("mqtt-client"))
	if err != nil {
		return fmt.Errorf("could not create MQTT client: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(app.ctx, 30*time.Second)
	defer cancel()

	if err := app.mqttClient.Connect(connectCtx); err != nil {
		return fmt.Errorf("could not connect to MQTT broker: %w", err)
	}

	app.reportPublisher = mqtt.NewReportPublisher(
		app.mqttClient,
		app.topicManager,
		logger.GetLogger("report-publisher"),
	)

	log.Info().
		Str("component", "main").
		Msg("Successfully initialized MQTT client")

	return nil
}

func (app *Application) initializeSinks() error {
	if app.config.InfluxDB.Enabled {
		influxDB, err := influx.NewConnection(&app.config.InfluxDB)
		if err != nil {
			return fmt.Errorf("could not connect to InfluxDB: %w", err)
		}
		app.influxDB = influxDB
		app.reportWriter = influx.NewReportWriter(
			influxDB.GetWriteAPI(),
			logger.GetLogger("report-writer"),
		)
	}

	if app.config.Postgres.Enabled {
		postgresDB, err := postgres.NewConnection(app.config.Postgres)
		if err != nil {
			return fmt.Errorf("could not connect to PostgreSQL: %w", err)
		}
		app.postgresDB = postgresDB
		app.surveyRepository = repositories.NewSurveyRepository(postgresDB.GetDB())
	}

	app.reportService = services.NewReportService(
		app.reportPublisher,
		app.reportWriter,
		app.surveyRepository,
		logger.GetLogger("report-service"),
	)

	log.Info().
		Str("component", "main").
		Bool("influxdb", app.config.InfluxDB.Enabled).
		Bool("postgres", app.config.Postgres.Enabled).
		Msg("Successfully initialized report sinks")

	return nil
}

func (app *Application) initializeDriver() error {
	mode := &serial.Mode{
		BaudRate: app.config.Serial.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(app.config.Serial.Device, mode)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", app.config.Serial.Device, err)
	}
	app.port = port

	app.driver = beacon.NewDriver(
		port,
		app.reportService,
		beacon.Options{
			GridUUID:           app.config.Driver.GridUUID,
			GridSurveyOpcode:   &app.config.Driver.GridSurveyOpcode,
			PublishNavPosition: app.config.Driver.PublishNavPosition,
			MessageTimeout:     app.config.Driver.MessageTimeout,
			ByteTimeout:        app.config.Driver.ByteTimeout,
			WarnInterval:       app.config.Driver.WarnInterval,
		},
		logger.GetLogger("beacon-driver"),
	)

	log.Info().
		Str("component", "main").
		Str("device", app.config.Serial.Device).
		Int("baud_rate", app.config.Serial.BaudRate).
		Msg("Successfully opened beacon serial port")

	return nil
}

func (app *Application) run() error {
	app.driverDone = make(chan struct{})

	go func() {
		defer close(app.driverDone)
		if err := app.driver.Run(app.ctx); err != nil {
			log.Error().Err(err).Msg("Driver terminated with error")
		}
	}()

	select {
	case sig := <-app.shutdownChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-app.driverDone:
		log.Info().Msg("Driver exited, shutting down application")
	}

	return app.shutdown()
}

func (app *Application) shutdown() error {
	app.cancelFunc()

	// The driver polls cancellation between frame attempts; give it up to
	// one message timeout to notice.
	select {
	case <-app.driverDone:
	case <-time.After(app.config.Driver.MessageTimeout + time.Second):
		log.Warn().Msg("Driver did not stop in time")
	}

	stats := app.driver.Stats()
	log.Info().
		Uint64("frames_accepted", stats.FramesAccepted).
		Uint64("frames_rejected", stats.FramesRejected).
		Uint64("no_data_timeouts", stats.NoDataTimeouts).
		Msg("Driver statistics")

	if app.port != nil {
		if err := app.port.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing serial port")
		}
	}

	if app.mqttClient != nil {
		app.mqttClient.Disconnect()
	}

	if app.influxDB != nil {
		app.influxDB.Close()
	}

	if app.postgresDB != nil {
		if err := app.postgresDB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing PostgreSQL connection")
		}
	}

	return nil
}
