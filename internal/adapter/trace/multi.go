package trace

import (
	"errors"

	"sarsim/internal/app/ports"
)

// Multi fans each write out to every sink and joins their errors.
type Multi []ports.TraceSink

func (m Multi) WriteStep(e ports.TraceEntry) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.WriteStep(e))
	}
	return errors.Join(errs...)
}

func (m Multi) WriteEpisode(rec ports.EpisodeRecord) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.WriteEpisode(rec))
	}
	return errors.Join(errs...)
}
