package auth

import "slices"

// DoNotAllow is never granted, whatever the role.
const DoNotAllow = "do_not_allow"

// User is the acting, already-authenticated person.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	Role         string
	Capabilities []string
}

// roleCapabilities mirrors the host's stock roles. Each role inherits nothing;
// the lists are spelled out in full.
var roleCapabilities = map[string][]string{
	"administrator": {"manage_options", "activate_plugins", "edit_users", "edit_others_posts", "publish_posts", "edit_posts", "upload_files", "read"},
	"editor":        {"edit_others_posts", "publish_posts", "edit_posts", "upload_files", "read"},
	"author":        {"publish_posts", "edit_posts", "upload_files", "read"},
	"contributor":   {"edit_posts", "read"},
	"subscriber":    {"read"},
}

// Can reports whether the user holds capability, either through their role
// or as an explicit grant.
func (u User) Can(capability string) bool {
	if capability == "" || capability == DoNotAllow {
		return false
	}
	if slices.Contains(u.Capabilities, capability) {
		return true
	}
	return slices.Contains(roleCapabilities[u.Role], capability)
}

// RoleCapabilities returns the capabilities a known role grants.
func RoleCapabilities(role string) ([]string, bool) {
	caps, ok := roleCapabilities[role]
	return slices.Clone(caps), ok
}
