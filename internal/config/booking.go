package config

import (
    "time"

    "github.com/rs/zerolog/log"
)

// BookingConfig holds the reservation rules and the coordination settings
// used while a booking is being placed.
type BookingConfig struct {
    MinDuration time.Duration  // shortest bookable interval (inclusive)
    MaxDuration time.Duration  // longest bookable interval (inclusive)
    OpenHour    int            // first hour a booking may start
    CloseHour   int            // hour by which every booking must have ended
    Location    *time.Location // shop timezone used to compute "now"
    LockPrefix  string         // redis key prefix for booking locks
    LockTTL     time.Duration  // lease of a redis booking lock
    LockPoll    time.Duration  // wait between redis lock attempts
}

// LoadBookingConfig reads BOOKING_* and SHOP_TIMEZONE.  An unknown timezone
// is fatal because every "is this in the past" decision depends on it.
func LoadBookingConfig() BookingConfig {
    tz := envStr("SHOP_TIMEZONE", "Local")
    loc, err := time.LoadLocation(tz)
    if err != nil {
        log.Fatal().Err(err).Str("timezone", tz).Msg("invalid SHOP_TIMEZONE")
    }
    return BookingConfig{
        MinDuration: envDur("BOOKING_MIN_DURATION", time.Hour),
        MaxDuration: envDur("BOOKING_MAX_DURATION", 4*time.Hour),
        OpenHour:    envInt("BOOKING_OPEN_HOUR", 9),
        CloseHour:   envInt("BOOKING_CLOSE_HOUR", 21),
        Location:    loc,
        LockPrefix:  envStr("BOOKING_LOCK_PREFIX", "lock"),
        LockTTL:     envDur("BOOKING_LOCK_TTL", 10*time.Second),
        LockPoll:    envDur("BOOKING_LOCK_POLL", 25*time.Millisecond),
    }
}
