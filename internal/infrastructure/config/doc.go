// Package config loads the graydiag YAML configuration.
//
// Precedence is defaults, then the file, then GRAYDIAG_* environment
// variables. Secrets (MQTT password, InfluxDB token) should come from the
// environment. Load validates the result and reports every problem in one
// joined error.
//
// Diagnostic targets are declared under diagnostics.resources:
//
//	diagnostics:
//	  busy_policy: evict
//	  request_timeout: 30
//	  resources:
//	    - id: hall-light
//	      uri: coap://192.168.1.20:5683/oic/diag
//	      interfaces: [oic.if.baseline]
package config
