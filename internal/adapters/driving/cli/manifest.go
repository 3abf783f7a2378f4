package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// manifest is a build request written as YAML:
//
//	name: physics
//	append: physics_base
//	local: [literature, your_work]
//	remote: all
//	adhoc: ~/Downloads/papers
type manifest struct {
	Name    string   `yaml:"name"`
	Replace string   `yaml:"replace,omitempty"`
	Append  string   `yaml:"append,omitempty"`
	Local   selector `yaml:"local,omitempty"`
	Remote  selector `yaml:"remote,omitempty"`
	AdHoc   string   `yaml:"adhoc,omitempty"`
}

// selector picks folders or collections: "all", one name, or a list.
type selector struct {
	Set   bool
	All   bool
	Names []string
}

// UnmarshalYAML accepts a scalar or a sequence of names.
func (s *selector) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var v string
		if err := value.Decode(&v); err != nil {
			return err
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "false", "none":
			*s = selector{}
		case "all", "true", "*":
			*s = selector{Set: true, All: true}
		default:
			*s = selector{Set: true, Names: []string{v}}
		}
		return nil

	case yaml.SequenceNode:
		var names []string
		if err := value.Decode(&names); err != nil {
			return err
		}
		*s = fromNames(names)
		return nil

	default:
		return fmt.Errorf("line %d: expected a name, a list of names or \"all\"", value.Line)
	}
}

// fromNames builds a selector from flag values. "all" anywhere selects
// everything; an empty list selects nothing.
func fromNames(names []string) selector {
	if len(names) == 0 {
		return selector{}
	}
	var kept []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		switch strings.ToLower(n) {
		case "all", "*":
			return selector{Set: true, All: true}
		case "":
			continue
		}
		kept = append(kept, n)
	}
	if len(kept) == 0 {
		return selector{}
	}
	return selector{Set: true, Names: kept}
}

// names returns the selected names, or nil for all.
func (s selector) names() []string {
	if s.All {
		return nil
	}
	return s.Names
}

// loadManifest reads and decodes a manifest file. Unknown keys are errors.
func loadManifest(path string) (manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	return parseManifest(data)
}

func parseManifest(data []byte) (manifest, error) {
	var m manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return manifest{}, fmt.Errorf("%w: manifest: %v", domain.ErrConfigInvalid, err)
	}
	return m, nil
}

// merge overlays other onto m. Set fields of other win.
func (m manifest) merge(other manifest) manifest {
	if other.Name != "" {
		m.Name = other.Name
	}
	if other.Replace != "" {
		m.Replace = other.Replace
	}
	if other.Append != "" {
		m.Append = other.Append
	}
	if other.Local.Set {
		m.Local = other.Local
	}
	if other.Remote.Set {
		m.Remote = other.Remote
	}
	if other.AdHoc != "" {
		m.AdHoc = other.AdHoc
	}
	return m
}

// request converts the manifest into a build request.
func (m manifest) request() (domain.BuildRequest, error) {
	if m.Replace != "" && m.Append != "" {
		return domain.BuildRequest{}, fmt.Errorf("%w: choose one of replace and append", domain.ErrConfigInvalid)
	}

	req := domain.BuildRequest{
		Name:      strings.TrimSpace(m.Name),
		Operation: domain.OperationCreate,
		Sources: domain.SourceSelection{
			UseLocal:         m.Local.Set,
			LocalTags:        m.Local.names(),
			UseRemoteLibrary: m.Remote.Set,
			Collections:      m.Remote.names(),
			UseAdHoc:         m.AdHoc != "",
			AdHocPath:        expandHome(m.AdHoc),
		},
	}
	switch {
	case m.Replace != "":
		req.Operation = domain.OperationReplace
		req.ExistingName = m.Replace
	case m.Append != "":
		req.Operation = domain.OperationAppend
		req.ExistingName = m.Append
	}
	return req, nil
}

// expandHome replaces a leading ~ with the home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}
