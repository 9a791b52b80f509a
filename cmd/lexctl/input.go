package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"lexdraft/internal/profile/models"
)

// inputFlags select the profile, form and documents of a command.
type inputFlags struct {
	profile string
	form    string
	docs    []string
}

func (f *inputFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.profile, "profile", "p", "", "Profile file (JSON or YAML)")
	flags.StringVarP(&f.form, "form", "f", "", "Unified form file (JSON or YAML), optional")
	flags.StringSliceVarP(&f.docs, "docs", "d", []string{"tos", "privacy"}, "Documents: tos, privacy")
}

func (f *inputFlags) load() (*models.Profile, *models.UnifiedForm, []models.DocType, error) {
	if f.profile == "" {
		return nil, nil, nil, codeError(exitInput, "--profile is required")
	}
	var profile models.Profile
	if err := decodeFile(f.profile, &profile); err != nil {
		return nil, nil, nil, codeError(exitInput, "loading profile: %s", err)
	}
	form := &models.UnifiedForm{}
	if f.form != "" {
		if err := decodeFile(f.form, form); err != nil {
			return nil, nil, nil, codeError(exitInput, "loading form: %s", err)
		}
	}
	docs, err := models.ParseDocTypes(f.docs)
	if err != nil {
		return nil, nil, nil, codeError(exitInput, "%s", err)
	}
	if len(docs) == 0 {
		return nil, nil, nil, codeError(exitInput, "--docs must name at least one document")
	}
	return &profile, form, docs, nil
}

// decodeFile reads JSON or YAML into v. YAML is converted to JSON first so
// the models' json tags apply to both.
func decodeFile(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		if raw, err = yamlToJSON(raw); err != nil {
			return err
		}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func yamlToJSON(raw []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return json.Marshal(doc)
}

