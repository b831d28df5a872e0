// AngelaMos | 2026
// plan.go

// Package seed loads reference data, users and teams from a YAML file.
// Applying the same file twice changes nothing.
package seed

import (
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/carterperez-dev/crm-backend/internal/reference"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

type Plan struct {
	Statuses []OptionSpec `yaml:"statuses"`
	Sources  []OptionSpec `yaml:"sources"`
	Users    []UserSpec   `yaml:"users"`
	Teams    []TeamSpec   `yaml:"teams"`
}

// OptionSpec is a status or source. Value defaults to the slug of Label.
type OptionSpec struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

type UserSpec struct {
	Email    string          `yaml:"email"`
	FullName string          `yaml:"full_name"`
	Role     visibility.Role `yaml:"role"`
	Password string          `yaml:"password"`
}

// TeamSpec lists managers and members by email.
type TeamSpec struct {
	Name     string   `yaml:"name"`
	Managers []string `yaml:"managers"`
	Members  []string `yaml:"members"`
}

// Parse decodes a plan and rejects unknown keys.
func Parse(r io.Reader) (*Plan, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p Plan
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	p.normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

func (p *Plan) normalize() {
	for i := range p.Statuses {
		p.Statuses[i].normalize()
	}
	for i := range p.Sources {
		p.Sources[i].normalize()
	}
	for i := range p.Users {
		p.Users[i].Email = normalizeEmail(p.Users[i].Email)
		p.Users[i].FullName = strings.TrimSpace(p.Users[i].FullName)
	}
	for i := range p.Teams {
		t := &p.Teams[i]
		t.Name = strings.TrimSpace(t.Name)
		for j := range t.Managers {
			t.Managers[j] = normalizeEmail(t.Managers[j])
		}
		for j := range t.Members {
			t.Members[j] = normalizeEmail(t.Members[j])
		}
	}
}

func (o *OptionSpec) normalize() {
	o.Label = strings.TrimSpace(o.Label)
	if o.Value == "" {
		o.Value = reference.Slugify(o.Label)
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Validate checks the plan on its own. Team emails must name users in the
// plan or users that already exist; that part is checked by Apply.
func (p *Plan) Validate() error {
	var errs []error

	for _, o := range append(append([]OptionSpec{}, p.Statuses...), p.Sources...) {
		if o.Value == "" || o.Label == "" {
			errs = append(errs, fmt.Errorf("option %q: label is required", o.Label))
		}
	}

	seen := make(map[string]struct{}, len(p.Users))
	for _, u := range p.Users {
		if _, err := mail.ParseAddress(u.Email); err != nil {
			errs = append(errs, fmt.Errorf("user %q: invalid email", u.Email))
		}
		if _, dup := seen[u.Email]; dup {
			errs = append(errs, fmt.Errorf("user %q: listed twice", u.Email))
		}
		seen[u.Email] = struct{}{}
		if u.FullName == "" {
			errs = append(errs, fmt.Errorf("user %q: full_name is required", u.Email))
		}
		if !u.Role.Valid() {
			errs = append(errs, fmt.Errorf("user %q: unknown role %q", u.Email, u.Role))
		}
		if len(u.Password) < 8 {
			errs = append(errs, fmt.Errorf("user %q: password must be at least 8 characters", u.Email))
		}
	}

	for _, t := range p.Teams {
		if t.Name == "" {
			errs = append(errs, errors.New("team: name is required"))
		}
	}

	return errors.Join(errs...)
}
