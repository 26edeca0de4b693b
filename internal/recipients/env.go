package recipients

import (
	"fmt"

	"github.com/georgestephanis/support-widget/pkg/config"
)

// FromEnv builds a registry from the process environment:
//
//	MAINTAINER_EMAIL          maintainer address
//	SUPPORT_EXTRA_RECIPIENTS  entries for ParseSpec, added in order
//	SUPPORT_HIDE_RECIPIENTS   comma separated keys to drop
//	SUPPORT_DEFAULT_TO        key to pre-select when eligible
func FromEnv() (*Registry, error) {
	registry := NewRegistry(config.GetEnv("MAINTAINER_EMAIL", DefaultMaintainerAddress))

	extra, err := ParseSpec(config.GetEnv("SUPPORT_EXTRA_RECIPIENTS", ""))
	if err != nil {
		return nil, fmt.Errorf("SUPPORT_EXTRA_RECIPIENTS: %w", err)
	}
	for _, rcpt := range extra {
		registry.Use(Add(rcpt))
	}
	if hide := config.GetEnvList("SUPPORT_HIDE_RECIPIENTS"); len(hide) > 0 {
		registry.Use(Remove(hide...))
	}
	if key := config.GetEnv("SUPPORT_DEFAULT_TO", ""); key != "" {
		registry.UseDefault(FixedDefault(key))
	}
	return registry, nil
}
