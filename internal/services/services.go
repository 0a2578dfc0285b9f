package services

import (
	"context"
	"errors"
	"time"

	"lifeline/internal/config"
	"lifeline/internal/repositories/interfaces"
	"lifeline/pkg/logger"
	"lifeline/pkg/notify"
	"lifeline/pkg/scheduler"

	"github.com/zoobzio/clockz"
)

// Dependencies is the service context. It is built once at process start
// and shared by every service.
type Dependencies struct {
	Requests  interfaces.EmergencyRequestRepository
	Drivers   interfaces.DriverRepository
	Hospitals interfaces.HospitalRepository
	Offers    interfaces.OfferRepository
	Geo       interfaces.GeoIndex
	Bus       notify.Bus

	// Optional. Defaults: real clock, a scheduler on that clock, an
	// in-process round guard, no SMS, a discarding logger, default timings.
	Clock     clockz.Clock
	Scheduler *scheduler.Scheduler
	Guard     RoundGuard
	Contacts  *ContactNotifier
	Audit     *logger.AuditLogger
	Logger    *logger.Logger
	Config    *config.DispatchConfig
}

type Services struct {
	Dispatch DispatchService
	Offers   OfferService
}

func New(deps Dependencies) (*Services, error) {
	if deps.Requests == nil || deps.Drivers == nil || deps.Hospitals == nil || deps.Offers == nil || deps.Geo == nil {
		return nil, errors.New("services: repositories and geo index are required")
	}
	if deps.Bus == nil {
		return nil, errors.New("services: notification bus is required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Discard()
	}
	if deps.Audit == nil {
		deps.Audit = logger.NewAuditLoggerFrom(deps.Logger)
	}
	if deps.Clock == nil {
		deps.Clock = clockz.RealClock
	}
	if deps.Scheduler == nil {
		deps.Scheduler = scheduler.New(deps.Clock, deps.Logger.Entry())
	}
	if deps.Guard == nil {
		deps.Guard = NewMemoryRoundGuard(deps.Clock)
	}
	if deps.Config == nil {
		deps.Config = config.DefaultDispatchConfig()
	}

	offers := newOfferService(&deps)
	return &Services{
		Dispatch: newDispatchService(&deps, offers),
		Offers:   offers,
	}, nil
}

func (d *Dependencies) now() time.Time {
	return d.Clock.Now()
}

// emit is fire-and-forget: delivery failures are logged and never fail the
// operation that produced the event.
func (d *Dependencies) emit(ctx context.Context, room string, event notify.Event) {
	if err := d.Bus.Emit(ctx, room, event); err != nil {
		d.Logger.WithError(err).WithFields(map[string]interface{}{
			"room":  room,
			"event": event.EventName(),
		}).Error("Failed to emit event")
	}
}
