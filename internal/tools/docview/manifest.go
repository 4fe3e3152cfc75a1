package docview

import (
	"time"

	"github.com/louisbranch/typedview/internal/view"
)

// Manifest is the view docview reads documents through.
type Manifest struct {
	Name     view.Property[string]
	Version  view.Property[string]
	Created  view.Property[time.Time]
	Replicas view.Property[int32]
	Enabled  view.Property[bool]
	Limits   view.Property[*Limits]
}

// Limits is the nested resource section of a Manifest.
type Limits struct {
	CPU    view.Property[float64] `view:"cpu"`
	Memory view.Property[int64]
}
