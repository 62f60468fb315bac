package spec

// Merge combines the three partial specifications produced during a
// generation run. Field-level precedence for architecture style and layers
// is override > advice > prompt analysis. Patterns, data model, quality and
// technologies fall back override > prompt analysis only; the advice result
// is deliberately not consulted for those fields to keep parity with the
// original merge behavior.
func Merge(promptSpec, adviceSpec TechnicalSpecification, override *TechnicalSpecification) TechnicalSpecification {
	merged := TechnicalSpecification{
		Architecture: Architecture{
			Style:    firstNonEmpty(overrideStyle(override), adviceSpec.Architecture.Style, promptSpec.Architecture.Style),
			Layers:   firstNonEmptySlice(overrideLayers(override), adviceSpec.Architecture.Layers, promptSpec.Architecture.Layers),
			Patterns: firstNonEmptySlice(overridePatterns(override), promptSpec.Architecture.Patterns),
		},
		Components:   promptSpec.Components,
		DataModel:    promptSpec.DataModel,
		Technologies: promptSpec.Technologies,
		Quality:      promptSpec.Quality,
	}

	if override == nil {
		return merged
	}

	if len(override.Components) > 0 {
		merged.Components = override.Components
	}
	if len(override.DataModel) > 0 {
		merged.DataModel = override.DataModel
	}
	if override.Quality != (Quality{}) {
		merged.Quality = override.Quality
	}

	merged.Technologies.Frontend = firstNonEmpty(override.Technologies.Frontend, merged.Technologies.Frontend)
	merged.Technologies.Backend = firstNonEmpty(override.Technologies.Backend, merged.Technologies.Backend)
	merged.Technologies.Database = firstNonEmpty(override.Technologies.Database, merged.Technologies.Database)
	merged.Technologies.Styling = firstNonEmpty(override.Technologies.Styling, merged.Technologies.Styling)

	return merged
}

func overrideStyle(o *TechnicalSpecification) string {
	if o == nil {
		return ""
	}
	return o.Architecture.Style
}

func overrideLayers(o *TechnicalSpecification) []string {
	if o == nil {
		return nil
	}
	return o.Architecture.Layers
}

func overridePatterns(o *TechnicalSpecification) []string {
	if o == nil {
		return nil
	}
	return o.Architecture.Patterns
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmptySlice(slices ...[]string) []string {
	for _, s := range slices {
		if len(s) > 0 {
			return s
		}
	}
	return nil
}
