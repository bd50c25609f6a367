// Package logging provides the structured logger shared by every graydiag
// component.
//
// It wraps log/slog so all entries carry service and version, and masks any
// attribute whose key mentions a password, token or secret.
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
package logging
