package booking

import (
	"context"
	"encoding/json"
	"time"

	bookingRepo "pitchbook/database/repository/booking"
	"pitchbook/models"
	"pitchbook/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Operating window of the shared calendar: one bookable slot per hour,
// starting at OpenHour and ending before CloseHour.
const (
	OpenHour  = 9
	CloseHour = 20
)

const availabilityCacheTTL = 30 * time.Second

// AvailabilityService computes the hourly availability grid for a date.
type AvailabilityService interface {
	GetAvailableSlots(ctx context.Context, date string) ([]models.TimeSlotStatus, error)
}

// DefaultAvailabilityService reads active bookings and marks their hours
// unavailable. Results are cached briefly in Redis; mutations invalidate.
type DefaultAvailabilityService struct {
	Repo  bookingRepo.Repository
	Cache *redis.Client
}

func (s *DefaultAvailabilityService) GetAvailableSlots(ctx context.Context, date string) ([]models.TimeSlotStatus, error) {
	day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return nil, NewValidationError("invalid date, expected YYYY-MM-DD")
	}

	if s.Cache != nil {
		if cached, err := s.Cache.Get(ctx, availabilityCacheKey(date)).Result(); err == nil {
			var slots []models.TimeSlotStatus
			if err := json.Unmarshal([]byte(cached), &slots); err == nil {
				return slots, nil
			}
		}
	}

	bookings, err := s.Repo.ListActiveBetween(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	booked := make(map[int]bool, len(bookings))
	for _, b := range bookings {
		booked[b.ScheduledFor.UTC().Hour()] = true
	}

	slots := make([]models.TimeSlotStatus, 0, CloseHour-OpenHour)
	for hour := OpenHour; hour < CloseHour; hour++ {
		slots = append(slots, models.TimeSlotStatus{
			Time:      time.Date(0, 1, 1, hour, 0, 0, 0, time.UTC).Format("15:04"),
			Available: !booked[hour],
		})
	}

	if s.Cache != nil {
		if data, err := json.Marshal(slots); err == nil {
			if err := s.Cache.Set(ctx, availabilityCacheKey(date), data, availabilityCacheTTL).Err(); err != nil {
				utils.GetLogger().Warn("failed to cache availability", zap.String("date", date), zap.Error(err))
			}
		}
	}
	return slots, nil
}

// InvalidateDate drops the cached grid for the date containing t. Called
// after every mutation that changes slot occupancy.
func (s *DefaultAvailabilityService) InvalidateDate(ctx context.Context, t time.Time) {
	if s.Cache == nil {
		return
	}
	date := t.UTC().Format("2006-01-02")
	if err := s.Cache.Del(ctx, availabilityCacheKey(date)).Err(); err != nil {
		utils.GetLogger().Warn("failed to invalidate availability cache", zap.String("date", date), zap.Error(err))
	}
}

func availabilityCacheKey(date string) string {
	return "slots:" + date
}
