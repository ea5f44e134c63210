// Package rbac holds the role-to-route authorization table shared by the request
// guard, per-route role checks and UI navigation.
package rbac

import (
	"sort"
	"strings"

	"github.com/noah-isme/ug1-portal-api/internal/models"
)

// Kind separates JSON API prefixes from UI page prefixes; they fail differently.
type Kind int

const (
	KindAPI Kind = iota
	KindUI
)

// Rule grants a path prefix to a set of roles.
type Rule struct {
	Prefix string
	Roles  []models.UserRole
	Public bool
	Kind   Kind
	Label  string
}

// Decision is the outcome of checking a request path against the policy.
type Decision int

const (
	DecisionPublic Decision = iota
	DecisionAllow
	DecisionUnauthenticated
	DecisionForbidden
)

// NavItem is a UI section visible to a role.
type NavItem struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

func roles(r ...models.UserRole) []models.UserRole { return r }

// DefaultRules is the portal's authorization table.
var DefaultRules = []Rule{
	{Prefix: "/api/auth", Public: true},
	{Prefix: "/api/downloads", Public: true},
	{Prefix: "/api/auth/me", Roles: models.AllRoles},
	{Prefix: "/api/admin", Roles: roles(models.RoleAdmin)},
	{Prefix: "/api/dg-office", Roles: roles(models.RoleDGOffice)},
	{Prefix: "/api/fee", Roles: roles(models.RoleFeeOffice, models.RoleStudent)},
	{Prefix: "/api/manager", Roles: roles(models.RoleManager)},
	{Prefix: "/api/tutor", Roles: roles(models.RoleTutor)},
	{Prefix: "/api/student", Roles: roles(models.RoleStudent)},

	{Prefix: "/admin", Roles: roles(models.RoleAdmin), Kind: KindUI, Label: "Dashboard"},
	{Prefix: "/admin/users", Roles: roles(models.RoleAdmin), Kind: KindUI, Label: "Users"},
	{Prefix: "/admin/ugforms", Roles: roles(models.RoleAdmin), Kind: KindUI, Label: "UG-1 Overview"},
	{Prefix: "/dg-office", Roles: roles(models.RoleDGOffice), Kind: KindUI, Label: "Dashboard"},
	{Prefix: "/dg-office/ugforms", Roles: roles(models.RoleDGOffice), Kind: KindUI, Label: "Approved Forms"},
	{Prefix: "/fee-office", Roles: roles(models.RoleFeeOffice), Kind: KindUI, Label: "Dashboard"},
	{Prefix: "/fee-office/vouchers", Roles: roles(models.RoleFeeOffice), Kind: KindUI, Label: "Fee Vouchers"},
	{Prefix: "/manager", Roles: roles(models.RoleManager), Kind: KindUI, Label: "Dashboard"},
	{Prefix: "/manager/approval", Roles: roles(models.RoleManager), Kind: KindUI, Label: "Form Approval"},
	{Prefix: "/tutor", Roles: roles(models.RoleTutor), Kind: KindUI, Label: "Dashboard"},
	{Prefix: "/tutor/sign", Roles: roles(models.RoleTutor), Kind: KindUI, Label: "Sign Forms"},
	{Prefix: "/student", Roles: roles(models.RoleStudent), Kind: KindUI, Label: "Dashboard"},
	{Prefix: "/student/fee", Roles: roles(models.RoleStudent), Kind: KindUI, Label: "Fee Verification"},
	{Prefix: "/student/ugform", Roles: roles(models.RoleStudent), Kind: KindUI, Label: "UG-1 Form"},
}

// Policy answers authorization questions from a rule table.
type Policy struct {
	byLength []Rule
	ordered  []Rule
}

// NewPolicy builds a policy; longer prefixes win over shorter ones.
func NewPolicy(rules []Rule) *Policy {
	ordered := append([]Rule(nil), rules...)
	byLength := append([]Rule(nil), rules...)
	sort.SliceStable(byLength, func(i, j int) bool {
		return len(byLength[i].Prefix) > len(byLength[j].Prefix)
	})
	return &Policy{byLength: byLength, ordered: ordered}
}

// Default is the policy built from DefaultRules.
var Default = NewPolicy(DefaultRules)

// Match returns the most specific rule owning path.
func (p *Policy) Match(path string) (Rule, bool) {
	for _, rule := range p.byLength {
		if hasPathPrefix(path, rule.Prefix) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Decide checks a request path for the caller. role is ignored when authenticated is false.
func (p *Policy) Decide(path string, role models.UserRole, authenticated bool) (Decision, Rule) {
	rule, ok := p.Match(path)
	if !ok || rule.Public {
		return DecisionPublic, rule
	}
	if !authenticated {
		return DecisionUnauthenticated, rule
	}
	if Allowed(role, rule.Roles...) {
		return DecisionAllow, rule
	}
	return DecisionForbidden, rule
}

// Home returns the first UI prefix granted to the role.
func (p *Policy) Home(role models.UserRole) string {
	for _, rule := range p.ordered {
		if rule.Kind == KindUI && Allowed(role, rule.Roles...) {
			return rule.Prefix
		}
	}
	return "/login"
}

// Navigation lists the UI sections the role may open, in table order.
func (p *Policy) Navigation(role models.UserRole) []NavItem {
	items := make([]NavItem, 0)
	for _, rule := range p.ordered {
		if rule.Kind != KindUI || !Allowed(role, rule.Roles...) {
			continue
		}
		items = append(items, NavItem{Path: rule.Prefix, Label: rule.Label})
	}
	return items
}

// Allowed reports whether role is one of required. There is no role hierarchy.
func Allowed(role models.UserRole, required ...models.UserRole) bool {
	for _, r := range required {
		if r == role {
			return true
		}
	}
	return false
}

// IsAPIPath reports whether path belongs to the JSON API.
func IsAPIPath(path string) bool {
	return hasPathPrefix(path, "/api")
}

func hasPathPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/' || strings.HasSuffix(prefix, "/")
}
