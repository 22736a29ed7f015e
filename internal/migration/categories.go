package migration

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/rs/zerolog"

	"github.com/rflorenc/substrate-reconciler/internal/models"
)

// GroupTypeAHV is the substrate type of AHV virtual machines.
const GroupTypeAHV = "AHV_VM"

// systemCategoryKeys are defined by the platform and never created.
var systemCategoryKeys = map[string]bool{
	"ADGroup":                true,
	"AnalyticsExclusions":    true,
	"AppFamily":              true,
	"AppTier":                true,
	"AppType":                true,
	"CalmApplication":        true,
	"CalmClusterUuid":        true,
	"CalmDeployment":         true,
	"CalmPackage":            true,
	"CalmProject":            true,
	"CalmService":            true,
	"CalmUsername":           true,
	"Environment":            true,
	"OSType":                 true,
	"Quaratine":              true,
	"CalmVmUniqueIdentifier": true,
	"CalmUser":               true,
	"account_uuid":           true,
	"SharedService":          true,
	"Storage":                true,
	"TemplateType":           true,
	"VirtualNetworkType":     true,
}

// IsSystemCategoryKey reports whether key is platform-defined.
func IsSystemCategoryKey(key string) bool { return systemCategoryKeys[key] }

// SeedResult summarises a category pre-seeding pass.
type SeedResult struct {
	Processed     int      `json:"processed" yaml:"processed"`
	KeysCreated   int      `json:"keys_created" yaml:"keys_created"`
	ValuesCreated int      `json:"values_created" yaml:"values_created"`
	Failed        []string `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// CategorySeeder creates on the destination every category key and value
// used by the VMs of the source project's applications.
type CategorySeeder struct {
	dir Directory
	api CategoryAPI
	log zerolog.Logger
}

// NewCategorySeeder creates a CategorySeeder.
func NewCategorySeeder(dir Directory, api CategoryAPI, log zerolog.Logger) *CategorySeeder {
	return &CategorySeeder{dir: dir, api: api, log: log}
}

// Seed walks the applications of project. Errors creating a single key or
// value are logged; an application that cannot be read is reported in
// Failed.
func (s *CategorySeeder) Seed(ctx context.Context, project string) (*SeedResult, error) {
	apps, err := s.dir.ApplicationsInProject(ctx, project)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int("apps", len(apps)).Str("project", project).Msg("retrieved applications")

	res := &SeedResult{}
	seen := make(map[string]map[string]bool)
	for i, app := range apps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Processed++
		log := s.log.With().Str("app", app.Name).Str("app_uuid", app.UUID).Logger()
		log.Info().Msgf("Processing application %d of %d", i+1, len(apps))
		if app.State == models.ApplicationStateDeleted {
			log.Info().Msg("application is deleted, skipping")
			continue
		}
		elements, err := s.dir.ElementsByProfileInstance(ctx, app.ActiveProfileInstanceUUID, GroupTypeAHV)
		if err != nil {
			log.Warn().Err(err).Msg("could not process application")
			res.Failed = append(res.Failed, app.UUID)
			continue
		}
		if err := s.seedElements(ctx, log, elements, seen, res); err != nil {
			log.Warn().Err(err).Msg("could not process application")
			res.Failed = append(res.Failed, app.UUID)
		}
	}
	if len(res.Failed) > 0 {
		s.log.Warn().Strs("apps", res.Failed).Msg("the following applications could not be processed")
	}
	return res, nil
}

func (s *CategorySeeder) seedElements(ctx context.Context, log zerolog.Logger, elements []models.Element, seen map[string]map[string]bool, res *SeedResult) error {
	for _, elem := range elements {
		if elem.Categories == "" {
			continue
		}
		var categories map[string]string
		if err := json.Unmarshal([]byte(elem.Categories), &categories); err != nil {
			return err
		}
		keys := make([]string, 0, len(categories))
		for k := range categories {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		for _, key := range keys {
			value := categories[key]
			if _, ok := seen[key]; !ok {
				seen[key] = make(map[string]bool)
				if !IsSystemCategoryKey(key) && s.ensureKey(ctx, log, key) {
					res.KeysCreated++
				}
			}
			if seen[key][value] {
				continue
			}
			seen[key][value] = true
			if err := s.api.CreateCategoryValue(ctx, key, value); err != nil {
				log.Error().Err(err).Str("key", key).Str("value", value).Msg("failed to create category value")
				continue
			}
			res.ValuesCreated++
		}
	}
	return nil
}

// ensureKey creates key when the destination lacks it and reports whether it
// did.
func (s *CategorySeeder) ensureKey(ctx context.Context, log zerolog.Logger, key string) bool {
	exists, err := s.api.CategoryKeyExists(ctx, key)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to look up category key")
		return false
	}
	if exists {
		return false
	}
	log.Info().Str("key", key).Msg("category key not present, creating")
	if err := s.api.CreateCategoryKey(ctx, key); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to create category key")
		return false
	}
	return true
}
