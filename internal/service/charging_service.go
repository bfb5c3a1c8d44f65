package service

import (
	"context"

	"payandpark/internal/domain"
	"payandpark/internal/models"
)

type ChargingService struct {
	repo domain.ChargeRepository
}

func NewChargingService(repo domain.ChargeRepository) *ChargingService {
	return &ChargingService{repo: repo}
}

func (s *ChargingService) FetchChargeByVehicleTypeID(ctx context.Context, vehicleTypeID int64) (*models.Charge, error) {
	charge, err := s.repo.GetCharge(ctx, vehicleTypeID)
	if err != nil {
		return nil, notFound(err, "charge", vehicleTypeID)
	}
	return charge, nil
}
