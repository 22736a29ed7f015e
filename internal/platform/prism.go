package platform

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/rflorenc/substrate-reconciler/internal/models"
)

// Prism wraps the v3 endpoints the reconciler consumes.
type Prism struct {
	client *Client
	log    zerolog.Logger
}

// NewPrism creates a Prism API on top of client.
func NewPrism(client *Client, log zerolog.Logger) *Prism {
	return &Prism{client: client, log: log}
}

type listRequest struct {
	Length int `json:"length"`
	Offset int `json:"offset"`
}

// ListRecoveryPlanJobs returns one page of recovery plan jobs.
func (p *Prism) ListRecoveryPlanJobs(ctx context.Context, offset, length int) (*models.RecoveryPlanJobList, error) {
	var page models.RecoveryPlanJobList
	err := p.client.PostJSON(ctx, "/recovery_plan_jobs/list", listRequest{Length: length, Offset: offset}, &page)
	if err != nil {
		return nil, fmt.Errorf("listing recovery plan jobs at offset %d: %w", offset, err)
	}
	return &page, nil
}

// GetJobExecutionStatus returns the step-level execution status of a job.
func (p *Prism) GetJobExecutionStatus(ctx context.Context, jobUUID string) (*models.JobExecutionStatus, error) {
	var status models.JobExecutionStatus
	path := "/recovery_plan_jobs/" + url.PathEscape(jobUUID) + "/execution_status"
	if err := p.client.GetJSON(ctx, path, &status); err != nil {
		return nil, fmt.Errorf("fetching execution status of job %s: %w", jobUUID, err)
	}
	return &status, nil
}

// GetVM fetches the authoritative state of a destination VM.
func (p *Prism) GetVM(ctx context.Context, vmUUID string) (*models.InstanceState, error) {
	body, err := p.client.Get(ctx, "/vms/"+url.PathEscape(vmUUID))
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			p.log.Error().
				Str("dest_id", vmUUID).
				Int("status", apiErr.Status).
				Str("body", truncate(apiErr.Body, 500)).
				Msg("failed to fetch destination vm")
		}
		return nil, fmt.Errorf("fetching vm %s: %w", vmUUID, err)
	}
	return models.ParseInstanceState(body)
}

// CategoryKeyExists reports whether a category key is defined.
func (p *Prism) CategoryKeyExists(ctx context.Context, key string) (bool, error) {
	_, err := p.client.Get(ctx, "/categories/"+url.PathEscape(key))
	if IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up category key %s: %w", key, err)
	}
	return true, nil
}

// CreateCategoryKey creates (or updates) a category key.
func (p *Prism) CreateCategoryKey(ctx context.Context, key string) error {
	payload := map[string]string{"name": key}
	if _, err := p.client.Put(ctx, "/categories/"+url.PathEscape(key), payload); err != nil {
		return fmt.Errorf("creating category key %s: %w", key, err)
	}
	return nil
}

// CreateCategoryValue creates (or updates) a value under a category key.
func (p *Prism) CreateCategoryValue(ctx context.Context, key, value string) error {
	payload := map[string]string{"value": value, "description": ""}
	path := "/categories/" + url.PathEscape(key) + "/" + url.PathEscape(value)
	if _, err := p.client.Put(ctx, path, payload); err != nil {
		return fmt.Errorf("creating category value %s for key %s: %w", value, key, err)
	}
	return nil
}
