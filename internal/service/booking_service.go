package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"payandpark/internal/database"
	"payandpark/internal/domain"
	"payandpark/internal/events"
	"payandpark/internal/metrics"
	"payandpark/internal/models"

	"github.com/rs/zerolog"
)

const resourceBooking = "booking"

type BookingService struct {
	repo       domain.BookingRepository
	slots      domain.ParkingSlotLookup
	charges    domain.ChargeLookup
	locker     domain.SlotLocker
	eventBus   domain.EventPublisher
	minMinutes int
	logger     *zerolog.Logger
	now        func() time.Time
}

func NewBookingService(
	repo domain.BookingRepository,
	slots domain.ParkingSlotLookup,
	charges domain.ChargeLookup,
	locker domain.SlotLocker,
	eventBus domain.EventPublisher,
	minMinutes int,
	logger *zerolog.Logger,
) *BookingService {
	if minMinutes <= 0 {
		minMinutes = models.DefaultMinBookingMinutes
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingService{
		repo:       repo,
		slots:      slots,
		charges:    charges,
		locker:     locker,
		eventBus:   eventBus,
		minMinutes: minMinutes,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateBooking books an AVAILABLE slot for a user and marks the slot BOOKED.
// The slot is claimed with a conditional AVAILABLE -> BOOKED transition before the booking
// row is written, so losing a race writes nothing.
func (s *BookingService) CreateBooking(ctx context.Context, req models.CreateBookingRequest) (*models.Booking, error) {
	if req.ParkingSlotID <= 0 || req.UserID <= 0 {
		return nil, clientErrorf("parking_slot_id and user_id must be positive")
	}

	unlock, err := s.lockSlot(ctx, req.ParkingSlotID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	slot, err := s.slots.FetchParkingSlotByID(ctx, req.ParkingSlotID)
	if err != nil {
		return nil, err
	}

	// Проверяем, что место свободно
	if slot.Status != models.SlotAvailable {
		return nil, clientErrorf("parking slot :: %d is :: %s", slot.ID, slot.Status)
	}

	if err := s.slots.TransitionParkingSlotStatus(ctx, slot.ID, models.SlotAvailable, models.SlotBooked); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		ParkingSlotID: req.ParkingSlotID,
		UserID:        req.UserID,
		StartTime:     s.now(),
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		s.releaseClaim(ctx, slot.ID, err)
		return nil, err
	}

	metrics.IncBookingCreated()
	s.publishEvent(events.EventBookingCreated, booking)
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("slot_id", booking.ParkingSlotID).
		Int64("user_id", booking.UserID).
		Msg("booking created")

	return booking, nil
}

// EndBooking closes an ACTIVE booking, bills it and frees the slot.
func (s *BookingService) EndBooking(ctx context.Context, bookingID int64) (*models.Booking, error) {
	current, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, notFound(err, resourceBooking, bookingID)
	}
	if current.Status != models.BookingActive {
		return nil, alreadyEnded(bookingID)
	}

	unlock, err := s.lockSlot(ctx, current.ParkingSlotID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ended, err := s.repo.EndBooking(ctx, bookingID, s.now())
	if err != nil {
		if errors.Is(err, database.ErrBookingNotActive) {
			return nil, alreadyEnded(bookingID)
		}
		return nil, notFound(err, resourceBooking, bookingID)
	}

	slot, err := s.slots.FetchParkingSlotByID(ctx, ended.ParkingSlotID)
	if err != nil {
		return nil, err
	}
	charge, err := s.charges.FetchChargeByVehicleTypeID(ctx, slot.VehicleTypeID)
	if err != nil {
		return nil, err
	}

	end := s.now()
	if ended.EndTime != nil {
		end = *ended.EndTime
	}
	price := ComputePrice(ended.StartTime, end, charge.PricePerMinute, s.minMinutes)

	priced, err := s.repo.UpdateBookingPrice(ctx, bookingID, price)
	if err != nil {
		return nil, notFound(err, resourceBooking, bookingID)
	}

	if err := s.slots.UpdateParkingSlotStatus(ctx, slot.ID, models.SlotAvailable); err != nil {
		s.logger.Error().Err(err).
			Int64("booking_id", bookingID).
			Int64("slot_id", slot.ID).
			Msg("booking ended but slot not released")
		return nil, err
	}

	metrics.ObserveBookingEnded(price)
	s.publishEvent(events.EventBookingEnded, priced)
	s.logger.Info().
		Int64("booking_id", bookingID).
		Int64("slot_id", slot.ID).
		Int64("price", price).
		Msg("booking ended")

	return priced, nil
}

func (s *BookingService) FetchBookingDetailsByID(ctx context.Context, bookingID int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, notFound(err, resourceBooking, bookingID)
	}
	return booking, nil
}

// FetchAllBookings filters by status when one is given, otherwise by user.
func (s *BookingService) FetchAllBookings(ctx context.Context, req models.FetchBookingsRequest) ([]*models.Booking, error) {
	rawStatus := strings.TrimSpace(req.Status)
	if rawStatus == "" && req.UserID == nil {
		return nil, clientErrorf("all parameters are null or empty for request :: %s", req)
	}

	if rawStatus != "" {
		status, ok := models.ParseBookingStatus(rawStatus)
		if !ok {
			return nil, clientErrorf("undefined booking status :: %s", status)
		}
		if status == models.BookingAll {
			return s.repo.GetAllBookings(ctx)
		}
		return s.repo.GetBookingsByStatus(ctx, status)
	}

	if req.UserID != nil {
		return s.repo.GetBookingsByUserID(ctx, *req.UserID)
	}

	return nil, clientErrorf("invalid fetch bookings request :: %s", req)
}

func (s *BookingService) lockSlot(ctx context.Context, slotID int64) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	unlock, err := s.locker.Lock(ctx, slotID)
	if err != nil {
		if errors.Is(err, domain.ErrSlotBusy) {
			return nil, clientErrorf("parking slot :: %d is busy", slotID)
		}
		return nil, fmt.Errorf("lock parking slot %d: %w", slotID, err)
	}
	return unlock, nil
}

// releaseClaim hands a claimed slot back after the booking insert failed.
func (s *BookingService) releaseClaim(ctx context.Context, slotID int64, cause error) {
	err := s.slots.TransitionParkingSlotStatus(context.WithoutCancel(ctx), slotID, models.SlotBooked, models.SlotAvailable)
	if err != nil {
		s.logger.Error().Err(err).
			AnErr("cause", cause).
			Int64("slot_id", slotID).
			Msg("booking not stored and slot left BOOKED")
		return
	}
	s.logger.Warn().Err(cause).Int64("slot_id", slotID).Msg("booking not stored, slot released")
}

func alreadyEnded(bookingID int64) error {
	return clientErrorf("booking :: %d is already %s", bookingID, models.BookingEnded)
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking) {
	if s.eventBus == nil {
		return
	}

	if err := s.eventBus.PublishJSON(eventType, events.NewBookingPayload(booking)); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
