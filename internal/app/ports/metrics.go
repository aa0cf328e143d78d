package ports

import "sarsim/internal/domain/rescue"

type StepMetrics interface {
	RecordStep(action rescue.Action, reward int)
	RecordRejected()
	RecordEpisodeFinished(status EpisodeStatus)
}
