package migration

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rflorenc/substrate-reconciler/internal/models"
)

// Outcome is the result of a successful instance rewrite.
type Outcome int

const (
	// OutcomeUpdated means every record level was rewritten.
	OutcomeUpdated Outcome = iota
	// OutcomePartial means element, group and template were rewritten but the
	// owning application could not be resolved, so blueprint and patches
	// were left alone.
	OutcomePartial
)

func (o Outcome) String() string {
	if o == OutcomePartial {
		return "partial"
	}
	return "updated"
}

// Rewriter propagates one destination VM's state through the records that
// embed it.
type Rewriter struct {
	accounts map[string]string
	ids      *models.IdentityMap
	log      zerolog.Logger
}

// NewRewriter binds the destination cluster → account map and the identity
// map for a run.
func NewRewriter(accounts map[string]string, ids *models.IdentityMap, log zerolog.Logger) *Rewriter {
	return &Rewriter{accounts: accounts, ids: ids, log: log}
}

// Rewrite updates the element of sourceID and everything hanging off it to
// match state, persisting through repo.
func (rw *Rewriter) Rewrite(ctx context.Context, repo Repository, sourceID string, state *models.InstanceState) (Outcome, error) {
	destID, ok := rw.ids.Lookup(sourceID)
	if !ok {
		destID = state.UUID
	}

	elem, err := findElement(ctx, repo, sourceID, destID)
	if err != nil {
		return 0, err
	}
	app, appErr := resolveApplication(ctx, repo, elem.ProfileInstanceUUID)
	if appErr != nil && !errors.Is(appErr, ErrNotFound) {
		return 0, appErr
	}
	appName := "UNKNOWN_APP"
	if app != nil {
		appName = app.Name
	}
	log := rw.log.With().
		Str("source_id", sourceID).
		Str("dest_id", destID).
		Str("app", appName).
		Str("vm", state.Name).
		Logger()

	accountUUID, ok := rw.accounts[state.ClusterUUID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrAccountNotMapped, state.ClusterUUID)
	}

	if len(elem.NicList) < len(state.Nics) {
		log.Warn().Int("record_nics", len(elem.NicList)).Int("dest_nics", len(state.Nics)).
			Msg("element has fewer nics than the destination vm, rewriting by position")
	}

	// Element
	if elem.InstanceID != destID {
		log.Info().Str("from", elem.InstanceID).Str("to", destID).Msg("updating instance id")
	}
	newElem, err := rewriteElement(*elem, destID, accountUUID, state)
	if err != nil {
		return 0, err
	}
	if err := repo.SaveElement(ctx, &newElem); err != nil {
		return 0, fmt.Errorf("saving element %s: %w", elem.UUID, err)
	}
	log.Info().Str("element", elem.UUID).Msg("updated substrate element")

	// Group
	group, err := repo.Group(ctx, elem.GroupUUID)
	if err != nil {
		return 0, notFound(err, ErrGroupNotFound, elem.GroupUUID)
	}
	newGroup, err := rewriteGroup(*group, accountUUID, state)
	if err != nil {
		return 0, err
	}
	if err := repo.SaveGroup(ctx, &newGroup); err != nil {
		return 0, fmt.Errorf("saving group %s: %w", group.UUID, err)
	}
	log.Info().Str("group", group.UUID).Msg("updated replica group")

	// Template
	tmpl, err := repo.Template(ctx, group.ConfigUUID)
	if err != nil {
		return 0, notFound(err, ErrTemplateNotFound, group.ConfigUUID)
	}
	newTmpl, err := rewriteTemplate(*tmpl, accountUUID, state)
	if err != nil {
		return 0, err
	}
	if added := len(newTmpl.DiskList) - len(tmpl.DiskList); added > 0 {
		log.Info().Int("added", added).Msg("extending substrate config disk list")
	}
	if err := repo.SaveTemplate(ctx, &newTmpl); err != nil {
		return 0, fmt.Errorf("saving config %s: %w", tmpl.UUID, err)
	}
	log.Info().Str("config", tmpl.UUID).Msg("updated substrate config")

	if appErr != nil {
		log.Warn().Err(appErr).Str("profile_instance", elem.ProfileInstanceUUID).
			Msg("could not resolve application, skipping blueprint and patches")
		return OutcomePartial, nil
	}

	// Blueprint
	bp, err := repo.Blueprint(ctx, app.BlueprintUUID)
	if err != nil {
		return 0, notFound(err, ErrBlueprintNotFound, app.BlueprintUUID)
	}
	spec, err := rewriteBlueprintIntent(bp.IntentSpec, accountUUID, state)
	if err != nil {
		return 0, fmt.Errorf("blueprint %s: %w", bp.UUID, err)
	}
	newBp := *bp
	newBp.IntentSpec = spec
	if err := repo.SaveBlueprint(ctx, &newBp); err != nil {
		return 0, fmt.Errorf("saving blueprint %s: %w", bp.UUID, err)
	}
	log.Info().Str("blueprint", bp.UUID).Msg("updated clone blueprint")

	// Patches on the active profile instance
	profile, err := repo.ProfileInstance(ctx, app.ActiveProfileInstanceUUID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return 0, fmt.Errorf("loading active profile instance %s: %w", app.ActiveProfileInstanceUUID, err)
		}
		log.Warn().Str("profile_instance", app.ActiveProfileInstanceUUID).
			Msg("active profile instance not found, skipping patches")
		return OutcomePartial, nil
	}
	patches, err := repo.PatchesByProfileInstance(ctx, profile.UUID)
	if err != nil {
		return 0, fmt.Errorf("loading patches of %s: %w", profile.UUID, err)
	}
	for _, p := range patches {
		newPatch, err := rewritePatch(p, state)
		if err != nil {
			return 0, err
		}
		if err := repo.SavePatch(ctx, &newPatch); err != nil {
			return 0, fmt.Errorf("saving patch %s: %w", p.UUID, err)
		}
	}
	log.Info().Int("patches", len(patches)).Msg("updated patch configs")

	intent, err := rewriteProfileIntent(profile.IntentSpec, state)
	if err != nil {
		return 0, fmt.Errorf("profile instance %s: %w", profile.UUID, err)
	}
	newProfile := *profile
	newProfile.IntentSpec = intent
	if err := repo.SaveProfileInstance(ctx, &newProfile); err != nil {
		return 0, fmt.Errorf("saving profile instance %s: %w", profile.UUID, err)
	}
	if err := repo.SaveApplication(ctx, app); err != nil {
		return 0, fmt.Errorf("saving application %s: %w", app.UUID, err)
	}
	log.Info().Str("profile_instance", profile.UUID).Msg("updated active profile instance")
	return OutcomeUpdated, nil
}

// findElement looks the element up by its source instance id, then by the
// destination id for elements an earlier run already renamed.
func findElement(ctx context.Context, r Reader, sourceID, destID string) (*models.Element, error) {
	elem, err := r.ElementByInstanceID(ctx, sourceID)
	if err == nil {
		return elem, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("loading element of %s: %w", sourceID, err)
	}
	if destID != sourceID {
		elem, err = r.ElementByInstanceID(ctx, destID)
		if err == nil {
			return elem, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("loading element of %s: %w", destID, err)
		}
	}
	return nil, fmt.Errorf("%w: instance %s", ErrElementNotFound, sourceID)
}

// resolveApplication follows a profile instance reference to its
// application.
func resolveApplication(ctx context.Context, r Reader, profileUUID string) (*models.Application, error) {
	if profileUUID == "" {
		return nil, fmt.Errorf("element has no profile instance: %w", ErrNotFound)
	}
	profile, err := r.ProfileInstance(ctx, profileUUID)
	if err != nil {
		return nil, fmt.Errorf("profile instance %s: %w", profileUUID, err)
	}
	app, err := r.Application(ctx, profile.ApplicationUUID)
	if err != nil {
		return nil, fmt.Errorf("application %s: %w", profile.ApplicationUUID, err)
	}
	return app, nil
}

// notFound maps a store miss to the given structural sentinel.
func notFound(err, sentinel error, id string) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %s", sentinel, id)
	}
	return fmt.Errorf("loading %s: %w", id, err)
}
