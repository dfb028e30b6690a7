package main

import (
	"log/slog"

	"github.com/pkg/errors"
)

// simulate is the demo workload behind `bugreport crash`: it logs like a
// real loader would and then fails with a wrapped, stack-carrying error.
func simulate(logger *slog.Logger) error {
	log := logger.With("component", "simulation")
	log.Debug("opening design", "path", "examples/A simple model rocket.ork")
	log.Info("design loaded", "components", 14, "stages", 0)
	log.Warn("motor database is stale", "age_days", 93)

	if err := checkStages(0); err != nil {
		return errors.Wrap(err, "run simulation")
	}
	return nil
}

func checkStages(n int) error {
	if n == 0 {
		return errors.Errorf("rocket has %d stages", n)
	}
	return nil
}
