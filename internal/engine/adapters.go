package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/atlaslabs/atlasflow/internal/flow"
	"github.com/atlaslabs/atlasflow/internal/schema"
)

// RegisterAdapterParams are the registration fields for an adapter.
type RegisterAdapterParams struct {
	AdapterID    string
	Name         string
	Version      string
	Description  string
	InputSchema  string
	OutputSchema string
	Config       json.RawMessage
}

// RegisterAdapter upserts adapter metadata by adapterId.
//
// On update, every field except adapterId and status is overwritten wholesale;
// status is set to active only on first insert. Submitted input/output schemas
// must compile as CUE - malformed schemas are rejected before storage. The
// registry has no execution side effects; interpreting step payloads against
// these schemas is the adapter host's job.
func (e *Engine) RegisterAdapter(ctx context.Context, params RegisterAdapterParams) (flow.Adapter, error) {
	if params.AdapterID == "" {
		return flow.Adapter{}, NewValidationError("adapter id is required")
	}
	if params.Name == "" {
		return flow.Adapter{}, NewValidationError("adapter name is required")
	}
	if params.Version == "" {
		return flow.Adapter{}, NewValidationError("adapter version is required")
	}
	if len(params.Config) > 0 && !json.Valid(params.Config) {
		return flow.Adapter{}, NewValidationError("adapter config is not valid JSON")
	}
	if err := schema.Check("inputSchema", params.InputSchema); err != nil {
		return flow.Adapter{}, NewValidationError("input schema: %v", err)
	}
	if err := schema.Check("outputSchema", params.OutputSchema); err != nil {
		return flow.Adapter{}, NewValidationError("output schema: %v", err)
	}

	now := e.clock.Now()
	a := flow.Adapter{
		AdapterID:    params.AdapterID,
		Name:         params.Name,
		Version:      params.Version,
		Description:  params.Description,
		InputSchema:  params.InputSchema,
		OutputSchema: params.OutputSchema,
		Config:       params.Config,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	stored, inserted, err := e.store.UpsertAdapter(ctx, a)
	if err != nil {
		return flow.Adapter{}, NewStorageError("register adapter", err)
	}

	if inserted {
		e.log.Info("adapter registered", "adapter_id", stored.AdapterID, "version", stored.Version)
	} else {
		e.log.Info("adapter updated", "adapter_id", stored.AdapterID, "version", stored.Version)
	}

	return stored, nil
}

// GetAdapter returns an adapter by its registry key.
func (e *Engine) GetAdapter(ctx context.Context, adapterID string) (flow.Adapter, error) {
	a, err := e.store.GetAdapter(ctx, adapterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return flow.Adapter{}, NewNotFoundError("adapter", adapterID)
		}
		return flow.Adapter{}, NewStorageError("get adapter", err)
	}
	return a, nil
}

// ListAdapters returns active adapters ordered by name.
func (e *Engine) ListAdapters(ctx context.Context) ([]flow.Adapter, error) {
	adapters, err := e.store.ListActiveAdapters(ctx)
	if err != nil {
		return nil, NewStorageError("list adapters", err)
	}
	return adapters, nil
}

// SetAdapterStatus activates or deactivates an adapter. Adapters are never
// deleted; deactivation removes them from ListAdapters.
func (e *Engine) SetAdapterStatus(ctx context.Context, adapterID string, status flow.AdapterStatus) (flow.Adapter, error) {
	if !flow.ValidAdapterStatus(status) {
		return flow.Adapter{}, NewValidationError("unknown adapter status %q", status)
	}

	ok, err := e.store.SetAdapterStatus(ctx, adapterID, status, e.clock.Now())
	if err != nil {
		return flow.Adapter{}, NewStorageError("set adapter status", err)
	}
	if !ok {
		return flow.Adapter{}, NewNotFoundError("adapter", adapterID)
	}

	return e.GetAdapter(ctx, adapterID)
}
