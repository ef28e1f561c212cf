package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Role is the closed set of community profile roles.
type Role int

const (
	RoleTenant Role = iota + 1
	RoleAgency
	RoleSeeker
)

var ErrUnknownRole = errors.New("unknown profile role")

func (r Role) String() string {
	switch r {
	case RoleTenant:
		return "tenant"
	case RoleAgency:
		return "agency"
	case RoleSeeker:
		return "seeker"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// ParseRole maps a stored or submitted role name onto a Role. Matching ignores
// case and surrounding whitespace; anything else is rejected.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tenant":
		return RoleTenant, nil
	case "agency":
		return RoleAgency, nil
	case "seeker":
		return RoleSeeker, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

func (r Role) Valid() bool {
	return r >= RoleTenant && r <= RoleSeeker
}

func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, int(r))
	}
	return r.String(), nil
}

func (r *Role) Scan(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Role", value)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, int(r))
	}
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
