package guard

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/upb/monument-scanner/services"
	"github.com/upb/monument-scanner/utils"
)

const (
	DefaultProtectedGroup       = "(tabs)"
	DefaultLoginPath            = "/login"
	DefaultProtectedDefaultPath = "/(tabs)"
)

// DefaultExempt lists routes an authenticated user may open outside the
// protected tab structure.
var DefaultExempt = []string{"scan-result", "style-detail"}

// Policy holds the fixed routing constants the guard decides with
type Policy struct {
	// ProtectedGroup is the top-level route segment that requires a session
	ProtectedGroup string `json:"protected_group" yaml:"protected_group" validate:"required,routesegment"`

	// LoginPath is the public entry route for signed-out users
	LoginPath string `json:"login_path" yaml:"login_path" validate:"required,startswith=/"`

	// ProtectedDefaultPath is where signed-in users land
	ProtectedDefaultPath string `json:"protected_default_path" yaml:"protected_default_path" validate:"required,startswith=/"`

	// Exempt lists public route segments reachable regardless of session
	Exempt []string `json:"exempt" yaml:"exempt" validate:"unique,dive,routesegment"`
}

// DefaultPolicy returns the policy the mobile client ships with
func DefaultPolicy() Policy {
	return Policy{
		ProtectedGroup:       DefaultProtectedGroup,
		LoginPath:            DefaultLoginPath,
		ProtectedDefaultPath: DefaultProtectedDefaultPath,
		Exempt:               slices.Clone(DefaultExempt),
	}
}

// LoadPolicy reads a YAML policy file. Fields missing from the file keep
// their defaults; an explicit empty exempt list disables exemptions.
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()

	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, services.WrapMisconfiguration("failed to read guard policy file", err)
	}

	if err := yaml.Unmarshal(data, &policy); err != nil {
		return Policy{}, services.WrapMisconfiguration("failed to parse guard policy file", err)
	}

	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}
	return policy, nil
}

// Validate checks the policy for mistakes that would make the guard
// redirect in a loop or strand users.
func (p Policy) Validate() error {
	if err := utils.ValidateStruct(p); err != nil {
		return invalidPolicy(err, utils.GetValidationFields(err))
	}

	if RouteGroup(p.LoginPath) == p.ProtectedGroup {
		return invalidPolicy(nil, map[string]string{
			"login_path": fmt.Sprintf("login_path %q is inside the protected group %q", p.LoginPath, p.ProtectedGroup),
		})
	}

	if RouteGroup(p.ProtectedDefaultPath) != p.ProtectedGroup {
		return invalidPolicy(nil, map[string]string{
			"protected_default_path": fmt.Sprintf("protected_default_path %q is outside the protected group %q", p.ProtectedDefaultPath, p.ProtectedGroup),
		})
	}

	if p.IsExempt(p.ProtectedGroup) {
		return invalidPolicy(nil, map[string]string{
			"exempt": fmt.Sprintf("exempt must not contain the protected group %q", p.ProtectedGroup),
		})
	}

	return nil
}

// IsProtected reports whether group is the protected zone
func (p Policy) IsProtected(group string) bool {
	return group == p.ProtectedGroup
}

// IsExempt reports whether group is reachable regardless of session
func (p Policy) IsExempt(group string) bool {
	return slices.Contains(p.Exempt, group)
}

func invalidPolicy(err error, fields map[string]string) error {
	domainErr := services.NewDomainError(services.ErrorTypeMisconfiguration, "invalid route guard policy", err)
	for field, msg := range fields {
		domainErr.WithDetail(field, msg)
	}
	return domainErr
}

// RouteGroup returns the top-level segment of path, or "" for the root.
// Query strings and fragments are ignored.
func RouteGroup(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimLeft(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	return path
}
