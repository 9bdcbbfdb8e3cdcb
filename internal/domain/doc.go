// Package domain models a home-exterior remodel estimate: the resolved
// address, building measurements, roof details, window/door openings, and
// the material, cost, and timeline figures derived from them.
//
// # Data Sources
//
// Every derived figure comes from an unreliable upstream (crowd-sourced map
// footprints, satellite tiles, street-level imagery, user photos, an image
// recognition service) or from a synthetic default. Components never fail a
// request because an upstream is unavailable; instead each figure carries a
// reliability flag:
//
//	BuildingMeasurement.IsReliable   false when the regional default was used
//	RoofInfo.IsPitchReliable         false when the default 6/12 pitch was used
//	WindowDoorCount.IsReliable       false unless at least one photo was classified
//
// # Units
//
// Lengths are feet, areas are square feet, money is US dollars. Roof pitch is
// rise over a 12-inch run ("6/12").
//
// # Photos
//
// Photos arrive as data URIs ("data:image/jpeg;base64,...") grouped by the
// compass direction of the facade they show. Only the first photo per
// direction is analyzed; every photo is stored. See [ParsePhoto].
//
// # Error Taxonomy
//
// Structurally invalid input is a [*ValidationError]. A geocoder with no
// result is [ErrAddressNotFound]. Upstream failures are [*UpstreamError] and
// are recovered inside the component that made the call, except for the
// geocoder, which has no fallback. Store failures are [*PersistenceError].
package domain
