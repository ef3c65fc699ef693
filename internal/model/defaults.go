package model

// Shared defaults used by the CLI and the HTTP API.
const (
	DefaultServeAddr     = "127.0.0.1:3000"
	DefaultRunListLimit  = 50
	MaxRunListLimit      = 1000
	DefaultGenerateCount = 10000
)
