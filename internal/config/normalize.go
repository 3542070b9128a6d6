// internal/config/normalize.go
package config

import "strings"

// Normalize applies pre-validation cleanup.
// It is allowed to mutate configuration.
// It only canonicalizes spelling and fills neutral defaults; it never
// repairs invalid values, that is Validate's job.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	a := &cfg.Acquisition
	a.Source.Mode = strings.ToLower(strings.TrimSpace(a.Source.Mode))
	a.Source.Serial.Parity = strings.ToUpper(strings.TrimSpace(a.Source.Serial.Parity))

	for i := range a.Points {
		p := &a.Points[i]

		p.Name = strings.TrimSpace(p.Name)
		p.Type = strings.ToLower(strings.TrimSpace(p.Type))

		// Unset scaling means raw engineering units.
		if p.ScalingFactor == 0 {
			p.ScalingFactor = 1
		}
	}

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
}
