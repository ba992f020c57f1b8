package mqtt

import (
	"fmt"

	"github.com/rs/zerolog"

	"uwb-nav-bridge/internal/models"
)

// ReportPublisher pushes decoded reports onto the message bus. Grid reports
// are retained so late subscribers still see the session's anchor layout.
type ReportPublisher struct {
	client       *Client
	topicManager *TopicManager
	logger       zerolog.Logger
}

func NewReportPublisher(client *Client, topicManager *TopicManager, logger zerolog.Logger) *ReportPublisher {
	return &ReportPublisher{
		client:       client,
		topicManager: topicManager,
		logger:       logger,
	}
}

func (p *ReportPublisher) PublishGridReport(report *models.GridReport) error {
	if err := report.Validate(); err != nil {
		return fmt.Errorf("invalid grid report: %w", err)
	}

	topic := p.topicManager.GetGridTopic()
	if err := p.client.PublishJSON(topic, report, true); err != nil {
		return fmt.Errorf("failed to publish grid report: %w", err)
	}

	p.logger.Info().
		Str("topic", topic).
		Str("grid_uuid", report.GridUUID.String()).
		Uint8("anchor_count", report.AnchorCount).
		Msg("Grid report published")

	return nil
}

func (p *ReportPublisher) PublishDistanceReport(report *models.DistanceReport) error {
	topic := p.topicManager.GetDistanceTopic()
	if err := p.client.PublishJSON(topic, report, false); err != nil {
		return fmt.Errorf("failed to publish distance report: %w", err)
	}

	p.logger.Debug().
		Str("topic", topic).
		Uint16("counter", report.Counter).
		Msg("Distance report published")

	return nil
}
