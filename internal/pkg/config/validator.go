package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ValidateCronSchedule validates a cron expression using the robfig/cron/v3 parser.
// The breaker monitor accepts both five-field expressions ("*/5 * * * *") and
// descriptors ("@every 30s"), so the descriptor parser is enabled here too.
//
// Example:
//
//	err := ValidateCronSchedule("@every 30s")
//	if err != nil {
//	    logger.Warn("invalid sweep schedule", slog.String("error", err.Error()))
//	}
func ValidateCronSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("invalid cron schedule: cannot be empty")
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	_, err := parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}

	return nil
}

// ValidateDuration validates that a duration is within a specified range.
// Both bounds are inclusive.
//
// Example:
//
//	err := ValidateDuration(30*time.Second, 1*time.Second, 5*time.Minute)
func ValidateDuration(duration, min, max time.Duration) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%v) cannot be greater than max (%v)", min, max)
	}

	if duration < min {
		return fmt.Errorf("duration %v is below minimum %v", duration, min)
	}

	if duration > max {
		return fmt.Errorf("duration %v exceeds maximum %v", duration, max)
	}

	return nil
}

// ValidateIntRange validates that an integer value is within a specified range.
// Both bounds are inclusive.
//
// Example:
//
//	err := ValidateIntRange(attempts, 1, 10)
func ValidateIntRange(value, min, max int) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%d) cannot be greater than max (%d)", min, max)
	}

	if value < min {
		return fmt.Errorf("value %d is below minimum %d", value, min)
	}

	if value > max {
		return fmt.Errorf("value %d exceeds maximum %d", value, max)
	}

	return nil
}

// ValidatePositiveDuration validates that a duration is strictly positive.
// Timeouts, retry delays and breaker reset windows all require this.
func ValidatePositiveDuration(duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", duration)
	}

	return nil
}

// ValidateMultiplier validates a backoff growth factor. Values below 1.0 would
// shrink delays between attempts instead of growing them.
func ValidateMultiplier(multiplier float64) error {
	if multiplier < 1.0 {
		return fmt.Errorf("multiplier must be at least 1.0, got %v", multiplier)
	}

	return nil
}
