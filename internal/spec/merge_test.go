package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge_ArchitecturePrecedence(t *testing.T) {
	promptSpec := TechnicalSpecification{
		Architecture: Architecture{
			Style:    "layered",
			Layers:   []string{"presentation", "application"},
			Patterns: []string{"hooks"},
		},
	}
	adviceSpec := TechnicalSpecification{
		Architecture: Architecture{
			Style:  "hexagonal",
			Layers: []string{"domain", "adapters"},
			// advice patterns must never win
			Patterns: []string{"ports"},
		},
	}

	t.Run("advice beats prompt analysis for style and layers", func(t *testing.T) {
		merged := Merge(promptSpec, adviceSpec, nil)
		assert.Equal(t, "hexagonal", merged.Architecture.Style)
		assert.Equal(t, []string{"domain", "adapters"}, merged.Architecture.Layers)
	})

	t.Run("advice is not consulted for patterns", func(t *testing.T) {
		merged := Merge(promptSpec, adviceSpec, nil)
		assert.Equal(t, []string{"hooks"}, merged.Architecture.Patterns)
	})

	t.Run("override beats advice and prompt", func(t *testing.T) {
		override := &TechnicalSpecification{
			Architecture: Architecture{
				Style:    "micro-frontend",
				Patterns: []string{"custom"},
			},
		}
		merged := Merge(promptSpec, adviceSpec, override)
		assert.Equal(t, "micro-frontend", merged.Architecture.Style)
		assert.Equal(t, []string{"custom"}, merged.Architecture.Patterns)
		// override has no layers, advice wins there
		assert.Equal(t, []string{"domain", "adapters"}, merged.Architecture.Layers)
	})
}

func TestMerge_ComponentsAndDataModel(t *testing.T) {
	promptSpec := TechnicalSpecification{
		Components: []Component{{Name: "App", Type: TypeComponent}},
		DataModel:  []DataEntity{{Name: "User"}},
		Technologies: Technologies{
			Frontend: "react",
			Styling:  "tailwind",
		},
	}
	adviceSpec := TechnicalSpecification{
		Components: []Component{{Name: "ShouldBeIgnored"}},
		DataModel:  []DataEntity{{Name: "ShouldBeIgnored"}},
	}

	t.Run("prompt analysis provides components when no override", func(t *testing.T) {
		merged := Merge(promptSpec, adviceSpec, nil)
		assert.Len(t, merged.Components, 1)
		assert.Equal(t, "App", merged.Components[0].Name)
		assert.Equal(t, "User", merged.DataModel[0].Name)
	})

	t.Run("override replaces components and data model", func(t *testing.T) {
		override := &TechnicalSpecification{
			Components: []Component{{Name: "Cart"}, {Name: "Checkout"}},
			DataModel:  []DataEntity{{Name: "Order"}},
		}
		merged := Merge(promptSpec, adviceSpec, override)
		assert.Len(t, merged.Components, 2)
		assert.Equal(t, "Order", merged.DataModel[0].Name)
	})

	t.Run("override technologies merge field by field", func(t *testing.T) {
		override := &TechnicalSpecification{
			Technologies: Technologies{Backend: "Node.js + Express"},
		}
		merged := Merge(promptSpec, adviceSpec, override)
		assert.Equal(t, "react", merged.Technologies.Frontend)
		assert.Equal(t, "Node.js + Express", merged.Technologies.Backend)
		assert.Equal(t, "tailwind", merged.Technologies.Styling)
	})
}

func TestMerge_NilOverride(t *testing.T) {
	merged := Merge(TechnicalSpecification{
		Architecture: Architecture{Style: "layered"},
	}, TechnicalSpecification{}, nil)

	assert.Equal(t, "layered", merged.Architecture.Style)
	assert.Nil(t, merged.Architecture.Layers)
}
