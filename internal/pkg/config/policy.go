package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"agentdesk/internal/resilience/circuitbreaker"
	"agentdesk/internal/resilience/retry"
)

// Duration wraps time.Duration so YAML values like "30s" or "1m" decode
// through time.ParseDuration.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration '%s': %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped standard library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// RetrySettings holds the retry knobs for one dependency.
type RetrySettings struct {
	MaxAttempts  int      `yaml:"max_attempts"`
	InitialDelay Duration `yaml:"initial_delay"`
	MaxDelay     Duration `yaml:"max_delay"`
	Multiplier   float64  `yaml:"multiplier"`
}

// BreakerSettings holds the circuit breaker knobs for one dependency.
type BreakerSettings struct {
	FailureThreshold         int      `yaml:"failure_threshold"`
	ResetTimeout             Duration `yaml:"reset_timeout"`
	HalfOpenSuccessThreshold int      `yaml:"half_open_successes"`
}

// DependencyPolicy pairs retry and breaker settings for a named dependency.
type DependencyPolicy struct {
	Retry   RetrySettings   `yaml:"retry"`
	Breaker BreakerSettings `yaml:"breaker"`
}

// RetryPolicy converts the settings into a retry policy.
func (p DependencyPolicy) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:  p.Retry.MaxAttempts,
		InitialDelay: p.Retry.InitialDelay.Std(),
		MaxDelay:     p.Retry.MaxDelay.Std(),
		Multiplier:   p.Retry.Multiplier,
	}
}

// BreakerConfig converts the settings into a circuit breaker config for the
// given dependency name.
func (p DependencyPolicy) BreakerConfig(name string) circuitbreaker.Config {
	return circuitbreaker.Config{
		Name:                     name,
		FailureThreshold:         p.Breaker.FailureThreshold,
		ResetTimeout:             p.Breaker.ResetTimeout.Std(),
		HalfOpenSuccessThreshold: p.Breaker.HalfOpenSuccessThreshold,
	}
}

// Policies maps dependency names to their recovery settings. Dependencies not
// listed in the file inherit the defaults.
type Policies struct {
	Defaults     DependencyPolicy            `yaml:"defaults"`
	Dependencies map[string]DependencyPolicy `yaml:"dependencies"`
}

// For returns the policy for a dependency, falling back to the defaults for
// unknown names and for any field the entry leaves unset.
func (p *Policies) For(name string) DependencyPolicy {
	entry, ok := p.Dependencies[name]
	if !ok {
		return p.Defaults
	}
	return fillPolicy(entry, p.Defaults)
}

var policyMetrics = NewConfigMetrics("recovery")

// builtinDefaults mirrors the hardcoded defaults of the retry and breaker
// packages so a missing or partial policy file changes nothing.
func builtinDefaults() DependencyPolicy {
	rp := retry.DefaultPolicy()
	bc := circuitbreaker.DefaultConfig("")
	return DependencyPolicy{
		Retry: RetrySettings{
			MaxAttempts:  rp.MaxAttempts,
			InitialDelay: Duration(rp.InitialDelay),
			MaxDelay:     Duration(rp.MaxDelay),
			Multiplier:   rp.Multiplier,
		},
		Breaker: BreakerSettings{
			FailureThreshold:         bc.FailureThreshold,
			ResetTimeout:             Duration(bc.ResetTimeout),
			HalfOpenSuccessThreshold: bc.HalfOpenSuccessThreshold,
		},
	}
}

// LoadPolicies reads recovery policies from a YAML file, applies environment
// overrides to the defaults, and validates every entry with warn-and-fallback
// semantics. A missing path loads the builtin defaults.
//
// Environment overrides (applied to the defaults section):
//   - RETRY_MAX_ATTEMPTS
//   - RETRY_INITIAL_DELAY
//   - RETRY_MAX_DELAY
//   - BREAKER_FAILURE_THRESHOLD
//   - BREAKER_RESET_TIMEOUT
//
// Invalid per-dependency fields fall back to the defaults and are reported as
// warnings. Only an unreadable or unparseable file is a hard error.
func LoadPolicies(path string) (*Policies, []string, error) {
	policies := &Policies{
		Defaults:     builtinDefaults(),
		Dependencies: map[string]DependencyPolicy{},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("read policy file: %w", err)
		}
		if err := yaml.Unmarshal(data, policies); err != nil {
			return nil, nil, fmt.Errorf("parse policy file: %w", err)
		}
	}

	var warnings []string

	builtin := builtinDefaults()
	policies.Defaults = fillPolicy(policies.Defaults, builtin)
	defaults, w := validatePolicy("defaults", policies.Defaults, builtin)
	warnings = append(warnings, w...)
	defaults, w = applyEnvOverrides(defaults)
	warnings = append(warnings, w...)
	policies.Defaults = defaults

	if policies.Dependencies == nil {
		policies.Dependencies = map[string]DependencyPolicy{}
	}
	for name, entry := range policies.Dependencies {
		filled := fillPolicy(entry, policies.Defaults)
		validated, w := validatePolicy(name, filled, policies.Defaults)
		warnings = append(warnings, w...)
		policies.Dependencies[name] = validated
	}

	policyMetrics.RecordLoadTimestamp()
	policyMetrics.SetFallbackActive(len(warnings) > 0)

	return policies, warnings, nil
}

// fillPolicy replaces zero-valued fields with the corresponding defaults so a
// partial YAML entry only overrides what it names.
func fillPolicy(entry, defaults DependencyPolicy) DependencyPolicy {
	if entry.Retry.MaxAttempts == 0 {
		entry.Retry.MaxAttempts = defaults.Retry.MaxAttempts
	}
	if entry.Retry.InitialDelay == 0 {
		entry.Retry.InitialDelay = defaults.Retry.InitialDelay
	}
	if entry.Retry.MaxDelay == 0 {
		entry.Retry.MaxDelay = defaults.Retry.MaxDelay
	}
	if entry.Retry.Multiplier == 0 {
		entry.Retry.Multiplier = defaults.Retry.Multiplier
	}
	if entry.Breaker.FailureThreshold == 0 {
		entry.Breaker.FailureThreshold = defaults.Breaker.FailureThreshold
	}
	if entry.Breaker.ResetTimeout == 0 {
		entry.Breaker.ResetTimeout = defaults.Breaker.ResetTimeout
	}
	if entry.Breaker.HalfOpenSuccessThreshold == 0 {
		entry.Breaker.HalfOpenSuccessThreshold = defaults.Breaker.HalfOpenSuccessThreshold
	}
	return entry
}

// validatePolicy checks every field of an entry and falls back to the default
// value, with a warning, for each field that fails validation.
func validatePolicy(name string, entry, defaults DependencyPolicy) (DependencyPolicy, []string) {
	var warnings []string

	fallback := func(field string, err error) {
		warnings = append(warnings, fmt.Sprintf(
			"Invalid %s.%s: %v, falling back to default", name, field, err))
		policyMetrics.RecordValidationError(field)
		policyMetrics.RecordFallback(field)
	}

	if err := ValidateIntRange(entry.Retry.MaxAttempts, 1, 10); err != nil {
		fallback("retry.max_attempts", err)
		entry.Retry.MaxAttempts = defaults.Retry.MaxAttempts
	}
	if err := ValidatePositiveDuration(entry.Retry.InitialDelay.Std()); err != nil {
		fallback("retry.initial_delay", err)
		entry.Retry.InitialDelay = defaults.Retry.InitialDelay
	}
	if err := ValidatePositiveDuration(entry.Retry.MaxDelay.Std()); err != nil {
		fallback("retry.max_delay", err)
		entry.Retry.MaxDelay = defaults.Retry.MaxDelay
	}
	if entry.Retry.InitialDelay > entry.Retry.MaxDelay {
		fallback("retry.initial_delay", fmt.Errorf(
			"initial delay %v exceeds max delay %v",
			entry.Retry.InitialDelay.Std(), entry.Retry.MaxDelay.Std()))
		entry.Retry.InitialDelay = defaults.Retry.InitialDelay
		entry.Retry.MaxDelay = defaults.Retry.MaxDelay
	}
	if err := ValidateMultiplier(entry.Retry.Multiplier); err != nil {
		fallback("retry.multiplier", err)
		entry.Retry.Multiplier = defaults.Retry.Multiplier
	}

	if err := ValidateIntRange(entry.Breaker.FailureThreshold, 1, 100); err != nil {
		fallback("breaker.failure_threshold", err)
		entry.Breaker.FailureThreshold = defaults.Breaker.FailureThreshold
	}
	if err := ValidatePositiveDuration(entry.Breaker.ResetTimeout.Std()); err != nil {
		fallback("breaker.reset_timeout", err)
		entry.Breaker.ResetTimeout = defaults.Breaker.ResetTimeout
	}
	if err := ValidateIntRange(entry.Breaker.HalfOpenSuccessThreshold, 1, 10); err != nil {
		fallback("breaker.half_open_successes", err)
		entry.Breaker.HalfOpenSuccessThreshold = defaults.Breaker.HalfOpenSuccessThreshold
	}

	return entry, warnings
}

// applyEnvOverrides lets deployments tune the default policy without editing
// the policy file.
func applyEnvOverrides(defaults DependencyPolicy) (DependencyPolicy, []string) {
	var warnings []string

	attempts := LoadEnvInt("RETRY_MAX_ATTEMPTS", defaults.Retry.MaxAttempts,
		func(v int) error { return ValidateIntRange(v, 1, 10) })
	warnings = append(warnings, attempts.Warnings...)
	defaults.Retry.MaxAttempts = attempts.Value.(int)

	initialDelay := LoadEnvDuration("RETRY_INITIAL_DELAY", defaults.Retry.InitialDelay.Std(), ValidatePositiveDuration)
	warnings = append(warnings, initialDelay.Warnings...)
	defaults.Retry.InitialDelay = Duration(initialDelay.Value.(time.Duration))

	maxDelay := LoadEnvDuration("RETRY_MAX_DELAY", defaults.Retry.MaxDelay.Std(), ValidatePositiveDuration)
	warnings = append(warnings, maxDelay.Warnings...)
	defaults.Retry.MaxDelay = Duration(maxDelay.Value.(time.Duration))

	threshold := LoadEnvInt("BREAKER_FAILURE_THRESHOLD", defaults.Breaker.FailureThreshold,
		func(v int) error { return ValidateIntRange(v, 1, 100) })
	warnings = append(warnings, threshold.Warnings...)
	defaults.Breaker.FailureThreshold = threshold.Value.(int)

	resetTimeout := LoadEnvDuration("BREAKER_RESET_TIMEOUT", defaults.Breaker.ResetTimeout.Std(), ValidatePositiveDuration)
	warnings = append(warnings, resetTimeout.Warnings...)
	defaults.Breaker.ResetTimeout = Duration(resetTimeout.Value.(time.Duration))

	return defaults, warnings
}
