package services

import (
	"context"
	"errors"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"
	"lifeline/pkg/notify"
)

// DeviceTargets resolves a private driver or hospital room to the device
// registered for it. Patients have no push device.
func DeviceTargets(drivers interfaces.DriverRepository, hospitals interfaces.HospitalRepository) notify.TargetResolver {
	return func(ctx context.Context, room string) (notify.Target, bool, error) {
		kind, id, ok := models.RoomTarget(room)
		if !ok {
			return notify.Target{}, false, nil
		}

		var device *models.Device
		switch kind {
		case models.RoleDriver:
			driver, err := drivers.GetByID(ctx, id)
			if err != nil {
				return notify.Target{}, false, ignoreNotFound(err)
			}
			device = driver.Device
		case models.RoleAdmin:
			hospital, err := hospitals.GetByID(ctx, id)
			if err != nil {
				return notify.Target{}, false, ignoreNotFound(err)
			}
			device = hospital.Device
		}

		if device == nil || device.Token == "" {
			return notify.Target{}, false, nil
		}
		return notify.Target{Token: device.Token, Platform: string(device.Platform)}, true, nil
	}
}

func ignoreNotFound(err error) error {
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil
	}
	return err
}
