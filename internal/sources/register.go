// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"io"

	"github.com/pdiddy/discovery-engine/internal/adapter"
	"github.com/pdiddy/discovery-engine/internal/registry"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

// Secret file names mapped onto adapter credentials.
const (
	secretPatentsView      = "patentsview-api-key"
	secretSemanticScholar  = "semantic-scholar-api-key"
	secretMaterialsProject = "materials-project-api-key"
	secretNREL             = "nrel-api-key"
	secretOpenAlexEmail    = "openalex-email"
)

// BuildRegistry constructs the registry with every built-in adapter,
// applying per-adapter config overrides and credentials from the secrets
// map. Adapters disabled in config are left out entirely.
func BuildRegistry(cfg types.PipelineConfig, secrets map[string]string, warn io.Writer) *registry.Registry {
	reg := registry.New(
		registry.WithMaxResults(cfg.Registry.MaxResults),
		registry.WithPrimaryThreshold(cfg.Registry.PrimaryThreshold),
		registry.WithQueryExpansion(cfg.Registry.ExpandQueries),
		registry.WithWarnings(warn),
	)

	adapterCfg := func(name, secretKey, emailKey string) (types.AdapterConfig, bool) {
		ac := cfg.Registry.Adapters[name]
		if !ac.IsEnabled() {
			return ac, false
		}
		if ac.APIKey == "" && secretKey != "" {
			ac.APIKey = secrets[secretKey]
		}
		if ac.Email == "" && emailKey != "" {
			ac.Email = secrets[emailKey]
		}
		return ac, true
	}

	register := func(name, secretKey, emailKey string, build func(types.AdapterConfig) adapter.Adapter) {
		ac, enabled := adapterCfg(name, secretKey, emailKey)
		if !enabled {
			return
		}
		reg.Register(build(ac))
	}

	http, brk := cfg.HTTP, cfg.Breaker

	register("arxiv", "", "", func(ac types.AdapterConfig) adapter.Adapter {
		return NewArxiv(ac, http, brk)
	})
	register("semantic_scholar", secretSemanticScholar, "", func(ac types.AdapterConfig) adapter.Adapter {
		return NewSemanticScholar(ac, http, brk)
	})
	register("openalex", "", secretOpenAlexEmail, func(ac types.AdapterConfig) adapter.Adapter {
		return NewOpenAlex(ac, http, brk)
	})
	register("patentsview", secretPatentsView, "", func(ac types.AdapterConfig) adapter.Adapter {
		return NewPatentsView(ac, http, brk)
	})
	register("materials_project", secretMaterialsProject, "", func(ac types.AdapterConfig) adapter.Adapter {
		return NewMaterialsProject(ac, http, brk)
	})
	register("pubchem", "", "", func(ac types.AdapterConfig) adapter.Adapter {
		return NewPubChem(ac, http, brk)
	})
	register("nrel", secretNREL, "", func(ac types.AdapterConfig) adapter.Adapter {
		return NewNREL(ac, http, brk)
	})
	register("osti", "", "", func(ac types.AdapterConfig) adapter.Adapter {
		return NewOSTI(ac, http, brk)
	})

	return reg
}
