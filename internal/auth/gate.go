// Package auth is the glue around the external access-control gate: it
// resolves the caller identity carried by a bearer token and answers
// role/action policy questions for every mutating operation, independent
// of transport.
package auth

// Role of an authenticated caller, as resolved by the gate.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleDelivery Role = "delivery"
	RoleOwner    Role = "owner"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleCustomer, RoleStaff, RoleDelivery, RoleOwner:
		return Role(s), true
	}
	return "", false
}

// Identity is the resolved (callerId, callerRole) pair attached to every
// authenticated request.
type Identity struct {
	UserID int64
	Role   Role
}

type Action string

const (
	ActionPlaceOrder        Action = "order:place"
	ActionListAllOrders     Action = "order:list_all"
	ActionUpdateOrderStatus Action = "order:update_status"
	ActionViewStats         Action = "stats:view"
	ActionManageCatalog     Action = "catalog:manage"
)

// policy is the single authorization table consulted by every mutating
// operation. Note the deliberate laxity inherited from the original
// system: delivery may set any order status, not just the physically
// next one.
var policy = map[Action][]Role{
	ActionPlaceOrder:        {RoleCustomer},
	ActionListAllOrders:     {RoleStaff, RoleOwner},
	ActionUpdateOrderStatus: {RoleStaff, RoleOwner, RoleDelivery},
	ActionViewStats:         {RoleOwner},
	ActionManageCatalog:     {RoleOwner},
}

func Can(role Role, action Action) bool {
	for _, r := range policy[action] {
		if r == role {
			return true
		}
	}
	return false
}
