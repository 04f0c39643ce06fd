// Package provider attaches behaviours to reactive entity instances and
// detaches them again.
//
// A Provider owns one registry.Registry per behaviour kind. Each kind is
// registered with a Factory and the entity type tags it applies to. The
// surrounding framework calls Attach when an entity is created, Detach when it
// is reconfigured or torn down while still alive, and DetachByID when only the
// identifier of a deleted entity remains.
//
// Construction failures are absorbed: the entity is left exactly as if Attach
// had never been called and nothing is returned to the caller. An optional
// Observer sees every attach, detach and construction failure.
//
// DetachByID visits the kind registries one after another without holding a
// lock across them, so an observer may briefly see one kind cleared and another
// not yet.
package provider
