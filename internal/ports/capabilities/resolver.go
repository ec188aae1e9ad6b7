package capabilities

import "context"

// CapabilitiesResolver decide si un rol puede ejercer una capability.
// Un error se trata como denegación en authz.Allowed.
type CapabilitiesResolver interface {
	HasFeature(ctx context.Context, in CapabilityCheck) (bool, error)
}
