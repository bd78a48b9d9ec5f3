package account

import "strings"

// Permission is a set of flags granted to a user.
type Permission uint32

const (
	// PermissionAdmin lets the user administer the blog.
	PermissionAdmin Permission = 1 << iota
	// PermissionAuthor lets the user write posts.
	PermissionAuthor
)

// PermissionNone is the empty set.
const PermissionNone Permission = 0

var permissionNames = []struct {
	perm Permission
	name string
}{
	{PermissionAdmin, "admin"},
	{PermissionAuthor, "author"},
}

// Has checks that every flag in p is set
func (set Permission) Has(p Permission) bool {
	return p != PermissionNone && set&p == p
}

// Grant returns the set with p added
func (set Permission) Grant(p Permission) Permission {
	return set | p
}

// Revoke returns the set with p removed
func (set Permission) Revoke(p Permission) Permission {
	return set &^ p
}

// Names lists the known flags in the set
func (set Permission) Names() []string {
	names := make([]string, 0, len(permissionNames))
	for _, pn := range permissionNames {
		if set.Has(pn.perm) {
			names = append(names, pn.name)
		}
	}
	return names
}

func (set Permission) String() string {
	if set == PermissionNone {
		return "none"
	}
	return strings.Join(set.Names(), ",")
}

// ParsePermission safely parses a flag name.
func ParsePermission(name string) (Permission, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, pn := range permissionNames {
		if pn.name == name {
			return pn.perm, true
		}
	}
	return PermissionNone, false
}
