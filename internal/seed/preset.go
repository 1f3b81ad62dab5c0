package seed

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"socialhub/internal/models"

	"gopkg.in/yaml.v3"
)

// Account is a fixed seeded account, signed in with DefaultPassword.
type Account struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Bio      string `yaml:"bio"`
}

func (a Account) apply(u *models.User) {
	u.Username = a.Username
	u.Email = a.Email
	if u.Email == "" {
		u.Email = strings.ToLower(a.Username) + "@example.com"
	}
	if a.Name != "" {
		name := a.Name
		u.Name = &name
	}
	if a.Bio != "" {
		bio := a.Bio
		u.Bio = &bio
	}
}

// Preset is a named seeding profile.
type Preset struct {
	Name            string        `yaml:"name"`
	Users           int           `yaml:"users"`
	Posts           int           `yaml:"posts"`
	LikesPerPost    int           `yaml:"likesPerPost"`
	CommentsPerPost int           `yaml:"commentsPerPost"`
	MaxDays         int           `yaml:"maxDays"`
	Distribution    *Distribution `yaml:"distribution"`
	Accounts        []Account     `yaml:"accounts"`
}

// BuiltInPresets are available without a presets file.
var BuiltInPresets = map[string]Preset{
	"minimal": {Name: "minimal", Users: 3, Posts: 10, LikesPerPost: 2, CommentsPerPost: 2, MaxDays: 7},
	"demo":    {Name: "demo", Users: 25, Posts: 120, LikesPerPost: 15, CommentsPerPost: 6, MaxDays: 60},
	"large": {
		Name: "large", Users: 500, Posts: 5000, LikesPerPost: 40, CommentsPerPost: 10, MaxDays: 365,
		Distribution: &Distribution{Text: 40, Image: 30, TextWithImage: 30},
	},
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// LoadPresets decodes a YAML document of the form
//
//	presets:
//	  - name: demo
//	    users: 25
//	    posts: 120
func LoadPresets(r io.Reader) (map[string]Preset, error) {
	var doc presetFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode presets: %w", err)
	}
	out := make(map[string]Preset, len(doc.Presets))
	for _, p := range doc.Presets {
		if p.Name == "" {
			return nil, fmt.Errorf("preset without a name")
		}
		if p.Users <= 0 {
			return nil, fmt.Errorf("preset %q: users must be positive", p.Name)
		}
		if _, dup := out[p.Name]; dup {
			return nil, fmt.Errorf("duplicate preset %q", p.Name)
		}
		out[p.Name] = p
	}
	return out, nil
}

// LoadPresetFile reads presets from path and merges them over the built-ins.
func LoadPresetFile(path string) (map[string]Preset, error) {
	presets := make(map[string]Preset, len(BuiltInPresets))
	for k, v := range BuiltInPresets {
		presets[k] = v
	}
	if path == "" {
		return presets, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	loaded, err := LoadPresets(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for k, v := range loaded {
		presets[k] = v
	}
	return presets, nil
}

// PresetNames lists preset names in a stable order.
func PresetNames(presets map[string]Preset) []string {
	names := make([]string, 0, len(presets))
	for k := range presets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ApplyPreset runs the seeder with p's sizes layered over the seeder's options.
func (s *Seeder) ApplyPreset(p Preset) (Stats, error) {
	opts := s.opts
	opts.NumUsers = p.Users
	opts.NumPosts = p.Posts
	if p.LikesPerPost > 0 {
		opts.LikesPerPost = p.LikesPerPost
	}
	if p.CommentsPerPost > 0 {
		opts.CommentsPerPost = p.CommentsPerPost
	}
	if p.MaxDays > 0 {
		opts.MaxDays = p.MaxDays
	}
	if p.Distribution != nil {
		opts.Distribution = *p.Distribution
	}
	return NewSeeder(s.db, opts).Run(p.Accounts...)
}
