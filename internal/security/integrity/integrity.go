package integrity

import (
	"time"

	"github.com/openlock/agent/internal/config"
	"github.com/openlock/agent/internal/logger"
)

// Service wires an Assessor to a Monitor for the lifetime of an exam
// session, giving the lockdown engine a single start/stop surface.
type Service struct {
	assessor *Assessor
	monitor  *Monitor
}

func NewService(opts AssessorOptions, reporter Reporter) *Service {
	assessor := NewAssessor(opts)
	return &Service{
		assessor: assessor,
		monitor:  NewMonitor(assessor, reporter),
	}
}

// Assessor exposes the one-shot pre-check surface used by the lockdown
// engine's PreCheck state.
func (s *Service) Assessor() *Assessor {
	return s.assessor
}

// StartMonitoring begins the continuous-check loop; the lockdown engine
// starts it while engaging, before the Locked state. An interval below
// 1s is rejected in favor of the
// configured default, to avoid pointless CPU churn.
func (s *Service) StartMonitoring(interval time.Duration) {
	if interval < time.Second {
		defaultInterval := 30 * time.Second
		if config.GlobalConfig != nil {
			defaultInterval = config.GlobalConfig.Security.Integrity.DefaultInterval
		}
		interval = defaultInterval
		logger.Warn("integrity monitor interval too short, using default", "interval", interval)
	}
	s.monitor.Start(interval)
}

func (s *Service) StopMonitoring() {
	s.monitor.Stop()
}
