// Package logger is a standardized event logging framework for shell
// sessions. Events are written as newline delimited JSON objects and can be
// summarized into reports.
package logger
