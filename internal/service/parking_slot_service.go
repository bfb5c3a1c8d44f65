package service

import (
	"context"
	"errors"

	"payandpark/internal/database"
	"payandpark/internal/domain"
	"payandpark/internal/models"

	"github.com/rs/zerolog"
)

const resourceParkingSlot = "parking slot"

type ParkingSlotService struct {
	repo   domain.SlotRepository
	logger *zerolog.Logger
}

func NewParkingSlotService(repo domain.SlotRepository, logger *zerolog.Logger) *ParkingSlotService {
	return &ParkingSlotService{repo: repo, logger: logger}
}

func (s *ParkingSlotService) FetchParkingSlotByID(ctx context.Context, id int64) (*models.ParkingSlot, error) {
	slot, err := s.repo.GetParkingSlot(ctx, id)
	if err != nil {
		return nil, notFound(err, resourceParkingSlot, id)
	}
	return slot, nil
}

func (s *ParkingSlotService) UpdateParkingSlotStatus(ctx context.Context, id int64, status models.SlotStatus) error {
	if err := s.repo.UpdateParkingSlotStatus(ctx, id, status); err != nil {
		return notFound(err, resourceParkingSlot, id)
	}
	s.logger.Debug().Int64("slot_id", id).Str("status", string(status)).Msg("parking slot status updated")
	return nil
}

// TransitionParkingSlotStatus moves the slot to `to` only if it is currently in `from`.
func (s *ParkingSlotService) TransitionParkingSlotStatus(ctx context.Context, id int64, from, to models.SlotStatus) error {
	err := s.repo.UpdateParkingSlotStatusFrom(ctx, id, from, to)
	switch {
	case err == nil:
		s.logger.Debug().Int64("slot_id", id).Str("from", string(from)).Str("to", string(to)).Msg("parking slot transitioned")
		return nil
	case errors.Is(err, database.ErrConcurrentModification):
		return clientErrorf("parking slot :: %d is no longer :: %s", id, from)
	default:
		return notFound(err, resourceParkingSlot, id)
	}
}

func (s *ParkingSlotService) CountSlotsByStatus(ctx context.Context) (map[models.SlotStatus]int, error) {
	return s.repo.CountParkingSlotsByStatus(ctx)
}
