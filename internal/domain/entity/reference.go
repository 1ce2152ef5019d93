package entity

// Office is an office dropdown entry
type Office struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Governorate is a governorate dropdown entry. The per-governorate dropdown
// endpoint also embeds its offices.
type Governorate struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Offices []Office `json:"offices,omitempty"`
}

// Option is a value/label pair for closed-choice inputs
type Option struct {
	Value any    `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// GovernorateOptions converts dropdown entries to options
func GovernorateOptions(govs []Governorate) []Option {
	out := make([]Option, 0, len(govs))
	for _, g := range govs {
		out = append(out, Option{Value: g.ID, Label: g.Name})
	}
	return out
}

// OfficeOptions converts dropdown entries to options
func OfficeOptions(offices []Office) []Option {
	out := make([]Option, 0, len(offices))
	for _, o := range offices {
		out = append(out, Option{Value: o.ID, Label: o.Name})
	}
	return out
}
