// Package logger wraps zap with a global sugared console logger,
// context helpers (ToContext, FromContext, WithName, WithKV)
// and level parsing.
//
// Components take a context and log through the logger it carries,
// so a run id or component name attached once shows up on every line.
package logger
