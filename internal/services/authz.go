package services

import (
	"errors"

	"github.com/lantern-eats/api/internal/domain"
)

// ErrForbidden indicates the actor's role does not permit the operation.
var ErrForbidden = errors.New("authz: operation not permitted for role")

type operation string

const (
	opDishManage        operation = "catalog.dish_manage"
	opCategoryManage    operation = "catalog.category_manage"
	opOrderCreate       operation = "order.create"
	opOrderViewOwn      operation = "order.view_own"
	opOrderViewAll      operation = "order.view_all"
	opOrderSetStatus    operation = "order.set_status"
	opOrderSetPayment   operation = "order.set_payment"
	opOrderDelete       operation = "order.delete"
	opDashboardView     operation = "dashboard.view"
	opUploadImage       operation = "upload.image"
	opRegisterPrivilege operation = "auth.register_privileged"
)

// rolePolicy is the single authorisation table. Absent entries deny.
var rolePolicy = map[operation]map[domain.Role]bool{
	opDishManage: {
		domain.RoleMerchant: true,
		domain.RoleAdmin:    true,
	},
	opCategoryManage: {
		domain.RoleAdmin: true,
	},
	opOrderCreate: {
		domain.RoleCustomer: true,
	},
	opOrderViewOwn: {
		domain.RoleCustomer: true,
	},
	opOrderViewAll: {
		domain.RoleMerchant: true,
		domain.RoleAdmin:    true,
	},
	opOrderSetStatus: {
		domain.RoleMerchant: true,
		domain.RoleAdmin:    true,
	},
	opOrderSetPayment: {
		domain.RoleAdmin: true,
	},
	opOrderDelete: {
		domain.RoleAdmin: true,
	},
	opDashboardView: {
		domain.RoleMerchant: true,
		domain.RoleAdmin:    true,
	},
	opUploadImage: {
		domain.RoleMerchant: true,
		domain.RoleAdmin:    true,
	},
	opRegisterPrivilege: {
		domain.RoleAdmin: true,
	},
}

func authorize(actor Actor, op operation) error {
	if rolePolicy[op][actor.Role] {
		return nil
	}
	return ErrForbidden
}
