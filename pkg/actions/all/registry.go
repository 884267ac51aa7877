package all

import (
	"github.com/wehubfusion/Daedalus/pkg/actions"
	"github.com/wehubfusion/Daedalus/pkg/actions/graphactions"
)

// NewRegistry creates a registry with every built-in action registered
func NewRegistry(opts ...actions.Option) *actions.Registry {
	registry := actions.NewRegistry(opts...)

	for _, action := range graphactions.All() {
		registry.Register(action)
	}

	return registry
}
