package image

import "github.com/abdul-hamid-achik/imgedit/internal/processor"

// RegisterAll adds the image processors to r.
func RegisterAll(r *processor.Registry, cfg *processor.Config) {
	r.Register(NewTransformProcessor(cfg))
	r.Register(NewMetadataProcessor(cfg))
}
