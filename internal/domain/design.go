package domain

import "strings"

// FabricType is one of the fixed base fabrics a design can be printed on.
type FabricType string

const (
	FabricCotton FabricType = "Cotton"
	FabricSilk   FabricType = "Silk"
	FabricLinen  FabricType = "Linen"
	FabricCanvas FabricType = "Canvas"
)

// Fabric describes a selectable base fabric.
type Fabric struct {
	ID          string     `json:"id"`
	Type        FabricType `json:"name"`
	Description string     `json:"description"`
}

// Fabrics lists the selectable fabrics in display order.
var Fabrics = []Fabric{
	{ID: "cotton", Type: FabricCotton, Description: "Soft & breathable"},
	{ID: "silk", Type: FabricSilk, Description: "Smooth & lustrous"},
	{ID: "linen", Type: FabricLinen, Description: "Light & airy"},
	{ID: "canvas", Type: FabricCanvas, Description: "Durable & heavy"},
}

// ParseFabricType matches a fabric by id or display name, case-insensitively.
func ParseFabricType(s string) (FabricType, bool) {
	s = strings.TrimSpace(s)
	for _, f := range Fabrics {
		if strings.EqualFold(s, f.ID) || strings.EqualFold(s, string(f.Type)) {
			return f.Type, true
		}
	}
	return "", false
}

// Draft is the unsaved state of a fabric design.
type Draft struct {
	Prompt       string     `json:"prompt"`
	FabricType   FabricType `json:"fabricType"`
	PatternScale int        `json:"patternScale"`
	Length       int        `json:"length"`
	Style        string     `json:"style,omitempty"`
	Moods        []string   `json:"moods,omitempty"`
	UseCase      string     `json:"useCase,omitempty"`
}
