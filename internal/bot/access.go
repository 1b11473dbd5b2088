package bot

import (
	"slices"

	"github.com/bwmarrin/discordgo"
)

// AdminPolicy decides who may run administrative commands. The zero value is open:
// everybody is treated as an administrator.
type AdminPolicy struct {
	roleID string
}

// EnforceRole restricts administrative actions to members holding roleID.
func EnforceRole(roleID string) AdminPolicy {
	return AdminPolicy{roleID: roleID}
}

// OpenAccess lets every member run administrative actions.
func OpenAccess() AdminPolicy {
	return AdminPolicy{}
}

// PolicyForRole enforces roleID, or opens access when it is empty.
func PolicyForRole(roleID string) AdminPolicy {
	if roleID == "" {
		return OpenAccess()
	}
	return EnforceRole(roleID)
}

// Enforced reports whether a role is required.
func (p AdminPolicy) Enforced() bool {
	return p.roleID != ""
}

// RoleID returns the administrator role, empty when access is open.
func (p AdminPolicy) RoleID() string {
	return p.roleID
}

// Allows reports whether member may act as administrator. Members outside a guild never
// hold the role.
func (p AdminPolicy) Allows(member *discordgo.Member) bool {
	if !p.Enforced() {
		return true
	}
	if member == nil {
		return false
	}
	return slices.Contains(member.Roles, p.roleID)
}

// Mention renders the administrator ping used in ticket summaries.
func (p AdminPolicy) Mention() string {
	if !p.Enforced() {
		return "@admin"
	}
	return "<@&" + p.roleID + ">"
}
