package authz

import (
	"github.com/douanenc/backend/internal/apperrors"
	"github.com/douanenc/backend/internal/models"
)

// Operation names a role-gated core operation.
type Operation string

const (
	OpDocumentCreate       Operation = "document.create"
	OpDocumentUpdate       Operation = "document.update"
	OpDocumentSubmit       Operation = "document.submit"
	OpDocumentDecide       Operation = "document.decide"
	OpControlInitiate      Operation = "control.initiate"
	OpControlUpdateChecks  Operation = "control.update_compliance"
	OpControlNonCompliance Operation = "control.record_non_compliance"
	OpControlDeclarant     Operation = "control.declarant_validation"
	OpTemplateCreate       Operation = "template.create"
	OpTemplateUpdate       Operation = "template.update"
	OpTemplateDelete       Operation = "template.delete"
	OpDocumentTypeManage   Operation = "document_type.manage"
)

// permissions is the authorization table mapping each operation to the
// roles allowed to perform it. Checked once per operation inside the
// services, independent of any transport-level gating.
var permissions = map[Operation][]models.Role{
	OpDocumentCreate:       {models.RoleDraftingAgent},
	OpDocumentUpdate:       {models.RoleDraftingAgent},
	OpDocumentSubmit:       {models.RoleDraftingAgent},
	OpDocumentDecide:       {models.RoleValidationOfficer},
	OpControlInitiate:      {models.RoleControlOfficer, models.RoleValidationOfficer},
	OpControlUpdateChecks:  {models.RoleControlOfficer, models.RoleValidationOfficer},
	OpControlNonCompliance: {models.RoleControlOfficer, models.RoleValidationOfficer},
	OpControlDeclarant:     {models.RoleControlOfficer, models.RoleValidationOfficer},
	OpTemplateCreate:       {models.RoleMOA, models.RoleValidationOfficer},
	OpTemplateUpdate:       {models.RoleMOA},
	OpTemplateDelete:       {models.RoleMOA, models.RoleValidationOfficer},
	OpDocumentTypeManage:   {models.RoleMOA},
}

// Allowed reports whether the role may perform the operation.
func Allowed(role models.Role, op Operation) bool {
	for _, allowed := range permissions[op] {
		if allowed == role {
			return true
		}
	}
	return false
}

// Require returns a Forbidden error when the role may not perform the
// operation.
func Require(role models.Role, op Operation) error {
	if !Allowed(role, op) {
		return apperrors.Forbidden("role %s is not allowed to perform %s", role, op)
	}
	return nil
}
