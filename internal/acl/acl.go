// Package acl implements the multi-tenant access-control model as pure
// functions: deriving chunk-level ACL metadata from a document, building
// a store-side filter predicate from an identity, and re-evaluating that
// same predicate against hits as defense in depth.
package acl

import (
	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// MetadataForDocument derives the ACL fields inherited by every chunk
// belonging to doc. Empty allow-lists mean "not restricted at that
// dimension".
func MetadataForDocument(doc *types.Document) types.DocumentACL {
	return types.DocumentACL{
		Sensitivity: doc.Sensitivity,
		AllowUsers:  doc.AllowUsers,
		AllowRoles:  doc.AllowRoles,
		AllowGroups: doc.AllowGroups,
	}
}

// StoreFilter builds the store-side predicate equivalent to the ACL
// evaluation described in spec.md §4.5, for push-down into dense/sparse
// store queries.
func StoreFilter(tenantID string, kbIDs []string, identity types.Identity) interfaces.StoreFilter {
	return interfaces.StoreFilter{
		TenantID:          tenantID,
		KnowledgeBaseIDs:  kbIDs,
		IdentityClearance: identity.Clearance,
		IdentityUser:      identity.User,
		IdentityRoles:     identity.Roles,
		IdentityGroups:    identity.Groups,
		HasIdentity:       true,
	}
}

// matches reports whether identity is permitted to see a chunk carrying acl.
//
//   (acl.Sensitivity <= identity.Clearance) AND
//   (acl.AllowUsers empty OR identity.User in acl.AllowUsers) AND
//   (acl.AllowRoles empty OR identity.Roles ∩ acl.AllowRoles != ∅) AND
//   (acl.AllowGroups empty OR identity.Groups ∩ acl.AllowGroups != ∅)
func matches(acl types.DocumentACL, identity types.Identity) bool {
	if acl.Sensitivity > identity.Clearance {
		return false
	}
	if len(acl.AllowUsers) > 0 && !acl.AllowUsers.Contains(identity.User) {
		return false
	}
	if len(acl.AllowRoles) > 0 && !acl.AllowRoles.Intersects(identity.Roles) {
		return false
	}
	if len(acl.AllowGroups) > 0 && !acl.AllowGroups.Intersects(identity.Groups) {
		return false
	}
	return true
}

// Trim re-evaluates the ACL predicate on each hit's DocACL metadata,
// returning only the hits identity is permitted to see. Admins bypass
// trimming within their own tenant; tenant scoping itself is never
// bypassed and must already be enforced upstream.
func Trim(hits []types.Hit, identity types.Identity, isAdmin bool) []types.Hit {
	if isAdmin {
		return hits
	}
	kept := make([]types.Hit, 0, len(hits))
	for _, h := range hits {
		if matches(h.DocACL, identity) {
			kept = append(kept, h)
		}
	}
	return kept
}

// Matches exposes the single-hit ACL predicate for callers (store filter
// push-down emulation in tests, parent-expansion re-checks) that need to
// test membership without building a slice.
func Matches(acl types.DocumentACL, identity types.Identity) bool {
	return matches(acl, identity)
}
