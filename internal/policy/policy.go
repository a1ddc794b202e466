// Package policy decides which roles may perform which actions on which
// resources. Every role check in the API goes through this table.
package policy

import "github.com/jwalitptl/pharmacy-api/internal/model"

type Resource string

const (
	ResourceConsultation Resource = "consultation"
	ResourcePrescription Resource = "prescription"
	ResourceMedication   Resource = "medication"
	ResourceSite         Resource = "site"
)

type Action string

const (
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionCancel  Action = "cancel"
	ActionDelete  Action = "delete"
	ActionListAll Action = "list_all"
	ActionWrite   Action = "write"
	ActionStock   Action = "stock"
)

type roleSet map[model.Role]struct{}

func roles(rs ...model.Role) roleSet {
	set := make(roleSet, len(rs))
	for _, r := range rs {
		set[r] = struct{}{}
	}
	return set
}

func (s roleSet) has(r model.Role) bool {
	_, ok := s[r]
	return ok
}

var (
	supervisors    = roles(model.RoleAdmin, model.RoleAdminPersonnel, model.RoleHeadDoctor)
	administrators = roles(model.RoleAdmin, model.RoleAdminPersonnel)
	pharmacyStaff  = roles(model.RoleAdmin, model.RoleAdminPharmacist)
	catalogReader  = roles(model.RoleAdmin, model.RoleAdminPharmacist, model.RolePharmacist,
		model.RoleDoctor, model.RoleHeadDoctor)
	selfScoped = roles(model.RoleDoctor, model.RoleHeadDoctor)
)

// clinicalRecords lists the roles that may act on any record regardless of
// ownership. The owning doctor is always allowed on top of this.
// head_doctor is absent from delete.
var clinicalRecords = map[Action]roleSet{
	ActionRead:    supervisors,
	ActionUpdate:  supervisors,
	ActionCancel:  supervisors,
	ActionDelete:  administrators,
	ActionListAll: supervisors,
}

var table = map[Resource]map[Action]roleSet{
	ResourceConsultation: clinicalRecords,
	ResourcePrescription: clinicalRecords,
	ResourceMedication: {
		ActionRead:  catalogReader,
		ActionWrite: pharmacyStaff,
		ActionStock: pharmacyStaff,
	},
	ResourceSite: {
		ActionWrite: roles(model.RoleAdmin),
	},
}

// Can reports whether caller may perform action on resource. ownerID is the
// doctor owning the record, or the doctor whose records are being listed;
// pass 0 for resources without an owner.
func Can(caller model.Caller, resource Resource, action Action, ownerID int64) bool {
	if resource == ResourceSite && action == ActionRead {
		return true
	}
	actions, ok := table[resource]
	if !ok {
		return false
	}
	allowed, ok := actions[action]
	if !ok {
		return false
	}
	if allowed.has(caller.Role) {
		return true
	}
	if isOwned(resource) && ownerID != 0 && ownerID == caller.ID {
		return true
	}
	return false
}

// ScopeToSelf reports whether lists and stats for role must be restricted to
// the caller's own records.
func ScopeToSelf(role model.Role) bool {
	return selfScoped.has(role)
}

func isOwned(resource Resource) bool {
	return resource == ResourceConsultation || resource == ResourcePrescription
}
