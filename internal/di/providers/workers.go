package providers

import (
	"github.com/samber/do/v2"

	"github.com/circulateapp/circulate-server/internal/config"
	"github.com/circulateapp/circulate-server/internal/logger"
	"github.com/circulateapp/circulate-server/internal/service"
	"github.com/circulateapp/circulate-server/internal/sweeper"
)

// SweeperHandle wraps the overdue sweeper with shutdown capability.
type SweeperHandle struct {
	*sweeper.Sweeper
}

// Shutdown implements do.Shutdownable.
func (h *SweeperHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideSweeper provides the started overdue sweep job.
func ProvideSweeper(i do.Injector) (*SweeperHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	loans := do.MustInvoke[*service.LoanService](i)

	sw := sweeper.New(loans, cfg.Circulation.SweepInterval, log.Logger)
	sw.Start()

	return &SweeperHandle{Sweeper: sw}, nil
}
