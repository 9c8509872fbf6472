package directory

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/case-workflow/internal/domain"
)

// Office is one intake office that can receive cases.
type Office struct {
	Name   string   `yaml:"name"`
	Emails []string `yaml:"emails"`
}

// Directory maps roles and offices to notification addresses.
type Directory struct {
	Coordinating []string `yaml:"coordinating_authority"`
	Arbitration  []string `yaml:"arbitration_authority"`
	Offices      []Office `yaml:"offices"`

	byName map[string]Office
}

// Load reads the roster from a YAML file.
func Load(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("office directory %s not found", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates a roster document.
func FromYAML(data []byte) (*Directory, error) {
	var d Directory
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse office directory: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks office names are present and unique, and indexes them.
func (d *Directory) Validate() error {
	d.byName = make(map[string]Office, len(d.Offices))
	for i, office := range d.Offices {
		name := strings.TrimSpace(office.Name)
		if name == "" {
			return fmt.Errorf("offices[%d].name is required", i)
		}
		key := normalize(name)
		if _, dup := d.byName[key]; dup {
			return fmt.Errorf("office %q listed twice", name)
		}
		office.Name = name
		d.Offices[i] = office
		d.byName[key] = office
	}
	return nil
}

// KnownOffice reports whether name is a configured office. Names match exactly apart from surrounding space.
func (d *Directory) KnownOffice(name string) bool {
	if d == nil {
		return false
	}
	_, ok := d.byName[normalize(name)]
	return ok
}

// OfficeNames lists configured offices alphabetically.
func (d *Directory) OfficeNames() []string {
	names := make([]string, 0, len(d.Offices))
	for _, office := range d.Offices {
		names = append(names, office.Name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the addresses for a role, and for intake offices the named office.
func (d *Directory) Resolve(role domain.Role, office string) ([]string, error) {
	var emails []string
	switch role {
	case domain.RoleCoordinatingAuthority:
		emails = d.Coordinating
	case domain.RoleArbitrationAuthority:
		emails = d.Arbitration
	case domain.RoleIntakeOffice:
		entry, ok := d.byName[normalize(office)]
		if !ok {
			return nil, fmt.Errorf("office %q not in directory", office)
		}
		emails = entry.Emails
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if len(emails) == 0 {
		return nil, fmt.Errorf("no addresses configured for %s %s", role, office)
	}
	return append([]string(nil), emails...), nil
}

func normalize(name string) string {
	return strings.TrimSpace(name)
}
