package engine

import (
	"io"
	"strings"
)

// BackendType represents the type of engine backend
type BackendType string

const (
	BackendTypeSim  BackendType = "sim"
	BackendTypeAuto BackendType = "auto"
)

// Backend defines the interface for engine backend implementations
type Backend interface {
	// Create a new engine handle
	NewHandle(logWriter io.Writer) Handle

	// Get the backend type
	GetType() BackendType
}

// NewHandle creates an engine handle using the requested backend
func NewHandle(backend string, logWriter io.Writer) Handle {
	backendType := determineBackend(backend)

	switch backendType {
	case BackendTypeSim:
		b := &SimBackend{}
		return b.NewHandle(logWriter)
	default:
		// Default to the simulated engine as the only available backend
		b := &SimBackend{}
		return b.NewHandle(logWriter)
	}
}

// determineBackend determines which backend to use based on configuration
func determineBackend(backend string) BackendType {
	if backend != "" {
		switch strings.ToLower(backend) {
		case "sim":
			return BackendTypeSim
		case "auto":
			return BackendTypeSim // Only the simulated engine is available
		}
	}

	return BackendTypeSim
}

// GetAvailableBackends returns list of available backends on current system
func GetAvailableBackends() []BackendType {
	backends := []BackendType{}

	backends = append(backends, BackendTypeSim)

	return backends
}
