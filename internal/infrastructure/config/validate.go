package config

import (
	"errors"
	"fmt"
)

// Validate reports every problem in the configuration at once. The
// returned error joins one error per problem.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Site.ID == "" {
		fail("site.id is required")
	}
	if c.Database.Path == "" {
		fail("database.path is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		fail("mqtt.qos must be 0, 1, or 2")
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		fail("api.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled {
		for field, v := range map[string]string{"url": c.InfluxDB.URL, "org": c.InfluxDB.Org, "bucket": c.InfluxDB.Bucket} {
			if v == "" {
				fail("influxdb.%s is required when influxdb is enabled", field)
			}
		}
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		fail("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}

	c.Diagnostics.validate(fail)

	return errors.Join(errs...)
}

func (d *DiagnosticsConfig) validate(fail func(string, ...any)) {
	switch d.BusyPolicy {
	case "", BusyPolicyEvict, BusyPolicyReject:
	default:
		fail("diagnostics.busy_policy must be %q or %q", BusyPolicyEvict, BusyPolicyReject)
	}
	if d.RequestTimeout < 0 {
		fail("diagnostics.request_timeout cannot be negative")
	}

	seen := make(map[string]int, len(d.Resources))
	for i, r := range d.Resources {
		switch first, dup := seen[r.ID]; {
		case r.ID == "":
			fail("diagnostics.resources[%d].id is required", i)
		case dup:
			fail("diagnostics.resources[%d].id %q duplicates resources[%d]", i, r.ID, first)
		default:
			seen[r.ID] = i
		}
		if r.URI == "" {
			fail("diagnostics.resources[%d].uri is required", i)
		}
	}
}
