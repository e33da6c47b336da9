package flow

import (
	"encoding/json"
	"time"
)

// AdapterStatus is the registry state of an adapter.
// Adapters are never deleted; they are deactivated instead.
type AdapterStatus string

const (
	AdapterActive   AdapterStatus = "active"
	AdapterInactive AdapterStatus = "inactive"
)

// ValidAdapterStatus reports whether s is a known adapter status.
func ValidAdapterStatus(s AdapterStatus) bool {
	return s == AdapterActive || s == AdapterInactive
}

// Adapter is versioned metadata describing a pluggable step handler.
//
// AdapterID is the stable registry key: registering an existing AdapterID
// overwrites every field except AdapterID and Status (upsert, no partial merge).
// Status is set to active on first insert only.
type Adapter struct {
	AdapterID   string
	Name        string
	Version     string
	Description string

	// InputSchema and OutputSchema are CUE source describing the adapter's
	// payload contract. They are compiled for well-formedness at registration;
	// payload validation against them is delegated to the adapter host.
	InputSchema  string
	OutputSchema string

	Config    json.RawMessage
	Status    AdapterStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
