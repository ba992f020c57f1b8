package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"uwb-nav-bridge/internal/database/influx"
	"uwb-nav-bridge/internal/database/postgres/repositories"
	"uwb-nav-bridge/internal/models"
	"uwb-nav-bridge/internal/mqtt"
)

// ReportService fans accepted reports out to the configured sinks. It is
// the driver's Publisher: calls never fail upward, sink errors are logged
// and dropped so a dead sink cannot stall the serial worker.
type ReportService struct {
	publisher        *mqtt.ReportPublisher
	reportWriter     *influx.ReportWriter
	surveyRepository *repositories.SurveyRepository
	logger           zerolog.Logger
}

func NewReportService(
	publisher *mqtt.ReportPublisher,
	reportWriter *influx.ReportWriter,
	surveyRepository *repositories.SurveyRepository,
	logger zerolog.Logger,
) *ReportService {
	return &ReportService{
		publisher:        publisher,
		reportWriter:     reportWriter,
		surveyRepository: surveyRepository,
		logger:           logger,
	}
}

func (s *ReportService) PublishGrid(report *models.GridReport) {
	if err := s.publisher.PublishGridReport(report); err != nil {
		s.logger.Error().Err(err).Msg("Failed to publish grid report to MQTT")
	}

	if s.reportWriter != nil {
		s.reportWriter.WriteGridReport(report)
	}

	if s.surveyRepository != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		record := models.NewSurveyRecord(report)
		if err := s.surveyRepository.Create(ctx, record); err != nil {
			s.logger.Error().Err(err).
				Str("grid_uuid", report.GridUUID.String()).
				Msg("Failed to store survey record")
		}
	}
}

func (s *ReportService) PublishDistance(report *models.DistanceReport) {
	if err := s.publisher.PublishDistanceReport(report); err != nil {
		s.logger.Error().Err(err).Msg("Failed to publish distance report to MQTT")
	}

	if s.reportWriter != nil {
		s.reportWriter.WriteDistanceReport(report)
	}
}
