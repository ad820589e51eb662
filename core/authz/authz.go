// Package authz supplies the actor permission checks for tier transitions.
// It is pure: the perimeter authenticates the actor and hands the engine a
// resolved Actor; verifying identity is not this package's job.
package authz

import (
	"fleet-admin/core/directory"
	"fleet-admin/internal/errors"
)

// PermTierChange is the unrestricted tier-change permission
const PermTierChange = "tier.change.unrestricted"

// Actor is the authenticated caller of a transition request
type Actor struct {
	// ID is the actor identifier
	ID string `json:"id"`

	// Permissions is the actor's permission set
	Permissions []string `json:"permissions"`

	// AllowedRegions is the actor's regional scope
	AllowedRegions []string `json:"allowed_regions"`

	// AllRegions grants access to every region
	AllRegions bool `json:"all_regions"`
}

// HasPermission reports whether the actor holds a permission
func (a *Actor) HasPermission(perm string) bool {
	for _, p := range a.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// CanAccessRegion reports whether the actor may act in a region
func (a *Actor) CanAccessRegion(region string) bool {
	if a.AllRegions {
		return true
	}
	for _, r := range a.AllowedRegions {
		if r == region {
			return true
		}
	}
	return false
}

// Authorize checks an actor against an operator. Region access is checked
// before the tier-change permission; the first failure wins.
func Authorize(actor *Actor, snap *directory.OperatorSnapshot) error {
	if !actor.CanAccessRegion(snap.Region) {
		return errors.RegionAccess(actor.ID, snap.Region)
	}
	if !actor.HasPermission(PermTierChange) {
		return errors.Permission(actor.ID, PermTierChange)
	}
	return nil
}
