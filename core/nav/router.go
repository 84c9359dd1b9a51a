package nav

import (
	"strings"

	"github.com/trezcool/darasa/core/session"
)

// Portal entry points.
const (
	LoginPath      = "/login"
	AdminRoot      = "/admin"
	InstructorRoot = "/instructor"
	StudentRoot    = "/student"
)

// LandingPath maps a role to its default landing path. Total over the role
// enumeration: anything unrecognized (including the absent role) lands on the
// login entry point.
func LandingPath(role string) string {
	switch role {
	case session.RoleAdmin:
		return AdminRoot
	case session.RoleInstructor:
		return InstructorRoot
	case session.RoleStudent:
		return StudentRoot
	default:
		return LoginPath
	}
}

// MenuItem is one entry in a role's navigation tree. An item with Children is
// a group; groups have no path of their own.
type MenuItem struct {
	Label    string
	Path     string
	Children []MenuItem
}

var (
	adminMenu = []MenuItem{
		{Label: "Dashboard", Path: AdminRoot},
		{Label: "Courses", Children: []MenuItem{
			{Label: "All Courses", Path: AdminRoot + "/courses"},
			{Label: "Categories", Path: AdminRoot + "/categories"},
		}},
		{Label: "Quizzes", Path: AdminRoot + "/quizzes"},
		{Label: "Enrollments", Path: AdminRoot + "/enrollments"},
		{Label: "Users", Path: AdminRoot + "/users"},
	}
	instructorMenu = []MenuItem{
		{Label: "Dashboard", Path: InstructorRoot},
		{Label: "My Courses", Path: InstructorRoot + "/courses"},
		{Label: "Quizzes", Children: []MenuItem{
			{Label: "All Quizzes", Path: InstructorRoot + "/quizzes"},
			{Label: "Question Banks", Path: InstructorRoot + "/quizzes/questions"},
		}},
		{Label: "Students", Path: InstructorRoot + "/students"},
	}
	studentMenu = []MenuItem{
		{Label: "Dashboard", Path: StudentRoot},
		{Label: "My Courses", Path: StudentRoot + "/courses"},
		{Label: "Browse Courses", Path: StudentRoot + "/catalog"},
		{Label: "My Quizzes", Path: StudentRoot + "/quizzes"},
	}
)

// Menu returns the navigation tree for a role; empty for unrecognized roles.
func Menu(role string) []MenuItem {
	switch role {
	case session.RoleAdmin:
		return adminMenu
	case session.RoleInstructor:
		return instructorMenu
	case session.RoleStudent:
		return studentMenu
	default:
		return nil
	}
}

// MenuState is the resolved presentation state of a menu for a given URL path.
type MenuState struct {
	// ActivePath is the path of the selected entry, "" when nothing matches.
	ActivePath string
	// Expanded holds the labels of groups containing the selected entry.
	Expanded []string
}

// Resolve selects the active menu entry and the expanded groups for the
// current URL path. Pure function of (role, path); recomputed on every route
// change, never cached. The entry with the longest matching prefix wins, so
// "/admin/quizzes" does not also activate "/admin".
func Resolve(role, path string) MenuState {
	var st MenuState
	best := -1
	for _, item := range Menu(role) {
		if item.Children == nil {
			if l := matchLen(item.Path, path); l > best {
				best = l
				st = MenuState{ActivePath: item.Path}
			}
			continue
		}
		for _, child := range item.Children {
			if l := matchLen(child.Path, path); l > best {
				best = l
				st = MenuState{ActivePath: child.Path, Expanded: []string{item.Label}}
			}
		}
	}
	return st
}

// matchLen returns the length of entry when it is a path-segment prefix of
// path, -1 otherwise.
func matchLen(entry, path string) int {
	if entry == path {
		return len(entry)
	}
	if strings.HasPrefix(path, entry+"/") {
		return len(entry)
	}
	return -1
}
