package models

const (
	// DefaultMinBookingMinutes минимальная оплачиваемая длительность бронирования
	DefaultMinBookingMinutes = 5

	// DefaultSlotLockTTL время жизни блокировки места в секундах
	DefaultSlotLockTTL = 10

	// DefaultSlotLockWait сколько ждать освобождения места, в миллисекундах
	DefaultSlotLockWait = 3000

	// DefaultOccupancySchedule расписание снимка занятости парковки
	DefaultOccupancySchedule = "@every 1m"
)
