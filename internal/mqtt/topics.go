package mqtt

import "fmt"

const (
	GridTopicTemplate     = "%s/v1/grid"
	DistanceTopicTemplate = "%s/v1/distance"
)

type TopicManager struct {
	BaseTopic string
}

func NewTopicManager(baseTopic string) *TopicManager {
	return &TopicManager{BaseTopic: baseTopic}
}

func (m *TopicManager) GetGridTopic() string {
	return fmt.Sprintf(GridTopicTemplate, m.BaseTopic)
}

func (m *TopicManager) GetDistanceTopic() string {
	return fmt.Sprintf(DistanceTopicTemplate, m.BaseTopic)
}
