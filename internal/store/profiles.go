package store

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ironsheep/color-validator-mcp/internal/colorspace"
	"github.com/ironsheep/color-validator-mcp/internal/matcher"
)

// DefaultTolerance is the ΔE tolerance given to profiles created without one.
const DefaultTolerance = 3.0

// BrandColor is one named color of a brand palette.
type BrandColor struct {
	Name        string `yaml:"name" json:"name"`
	Hex         string `yaml:"hex" json:"hex"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// BrandProfile is a named brand palette with its matching tolerance.
type BrandProfile struct {
	ID        string       `yaml:"id" json:"id"`
	Name      string       `yaml:"name" json:"name"`
	Tolerance float64      `yaml:"tolerance" json:"tolerance"`
	Colors    []BrandColor `yaml:"colors" json:"colors"`
	CreatedAt time.Time    `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time    `yaml:"updated_at" json:"updated_at"`
}

// References converts the profile's colors into matcher reference colors.
func (p *BrandProfile) References() ([]matcher.ReferenceColor, error) {
	refs := make([]matcher.ReferenceColor, 0, len(p.Colors))
	for _, c := range p.Colors {
		rgb, err := colorspace.ParseHex(c.Hex)
		if err != nil {
			return nil, errors.Wrapf(err, "profile %s color %q", p.Name, c.Name)
		}
		ref := matcher.NewReferenceColor(c.Name, rgb)
		ref.Description = c.Description
		refs = append(refs, ref)
	}
	return refs, nil
}

func (p BrandProfile) clone() *BrandProfile {
	p.Colors = append([]BrandColor(nil), p.Colors...)
	return &p
}

// ProfileInput holds the user-editable fields of a profile.
type ProfileInput struct {
	Name      string       `json:"name"`
	Tolerance float64      `json:"tolerance"`
	Colors    []BrandColor `json:"colors"`
}

// normalize trims names, canonicalizes hex values to #RRGGBB and applies
// defaultTolerance when no tolerance is given.
func (in ProfileInput) normalize(defaultTolerance float64) (ProfileInput, error) {
	out := ProfileInput{
		Name:      strings.TrimSpace(in.Name),
		Tolerance: in.Tolerance,
		Colors:    make([]BrandColor, 0, len(in.Colors)),
	}

	if out.Name == "" {
		return out, errors.Wrap(ErrInvalidProfile, "name is required")
	}
	if out.Tolerance < 0 {
		return out, errors.Wrapf(ErrInvalidProfile, "tolerance must be positive, got %g", out.Tolerance)
	}
	if out.Tolerance == 0 {
		out.Tolerance = defaultTolerance
	}

	for i, c := range in.Colors {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return out, errors.Wrapf(ErrInvalidProfile, "color %d: name is required", i+1)
		}
		rgb, err := colorspace.ParseHex(c.Hex)
		if err != nil {
			return out, errors.Wrapf(ErrInvalidProfile, "color %q: %v", name, err)
		}
		out.Colors = append(out.Colors, BrandColor{
			Name:        name,
			Hex:         rgb.Hex(),
			Description: strings.TrimSpace(c.Description),
		})
	}

	return out, nil
}

// CreateProfile validates in and stores it as a new profile.
func (s *Store) CreateProfile(in ProfileInput) (*BrandProfile, error) {
	in, err := in.normalize(s.defaultTolerance)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := BrandProfile{
		ID:        s.newID(),
		Name:      in.Name,
		Tolerance: in.Tolerance,
		Colors:    in.Colors,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.doc.Profiles = append(s.doc.Profiles, p)
	if err := s.save(); err != nil {
		s.doc.Profiles = s.doc.Profiles[:len(s.doc.Profiles)-1]
		return nil, err
	}

	return p.clone(), nil
}

// GetProfile returns the profile with the given ID.
func (s *Store) GetProfile(id string) (*BrandProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.profileIndex(id)
	if i < 0 {
		return nil, errors.Wrapf(ErrNotFound, "profile %s", id)
	}
	return s.doc.Profiles[i].clone(), nil
}

// ListProfiles returns all profiles sorted by name.
func (s *Store) ListProfiles() []BrandProfile {
	s.mu.RLock()
	profiles := make([]BrandProfile, len(s.doc.Profiles))
	for i, p := range s.doc.Profiles {
		profiles[i] = *p.clone()
	}
	s.mu.RUnlock()

	sortByName(profiles)
	return profiles
}

// UpdateProfile replaces the name, tolerance and complete color list of an
// existing profile.
func (s *Store) UpdateProfile(id string, in ProfileInput) (*BrandProfile, error) {
	in, err := in.normalize(s.defaultTolerance)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.profileIndex(id)
	if i < 0 {
		return nil, errors.Wrapf(ErrNotFound, "profile %s", id)
	}

	old := s.doc.Profiles[i]
	updated := old
	updated.Name = in.Name
	updated.Tolerance = in.Tolerance
	updated.Colors = in.Colors
	updated.UpdatedAt = s.now()

	s.doc.Profiles[i] = updated
	if err := s.save(); err != nil {
		s.doc.Profiles[i] = old
		return nil, err
	}

	return updated.clone(), nil
}

// DeleteProfile removes a profile. Analysis records that reference it are
// kept.
func (s *Store) DeleteProfile(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.profileIndex(id)
	if i < 0 {
		return errors.Wrapf(ErrNotFound, "profile %s", id)
	}

	old := s.doc.Profiles
	profiles := make([]BrandProfile, 0, len(old)-1)
	profiles = append(profiles, old[:i]...)
	profiles = append(profiles, old[i+1:]...)

	s.doc.Profiles = profiles
	if err := s.save(); err != nil {
		s.doc.Profiles = old
		return err
	}
	return nil
}

// profileIndex returns the index of the profile with the given ID, or -1.
// Callers must hold s.mu.
func (s *Store) profileIndex(id string) int {
	for i := range s.doc.Profiles {
		if s.doc.Profiles[i].ID == id {
			return i
		}
	}
	return -1
}
