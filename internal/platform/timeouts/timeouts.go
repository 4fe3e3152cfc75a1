// Package timeouts defines timeout defaults shared by commands.
package timeouts

import "time"

// Command bounds a single docview command, including store access.
const Command = 30 * time.Second

// Shutdown bounds telemetry flushing when a command exits.
const Shutdown = 5 * time.Second
