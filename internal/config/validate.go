package config

import (
	"fmt"
	"strings"

	"github.com/AndreyAkinshin/boardrecipe/internal/board"
	"github.com/AndreyAkinshin/boardrecipe/internal/errors"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks what the schema cannot express. Board options in the FQBN
// are accepted but reported, since they do not affect the recipes.
func Validate(cfg *Downstream) (warnings []string, err error) {
	id, err := board.Parse(cfg.FQBN)
	if err != nil {
		return nil, err
	}
	if id.Packager == "" || id.Arch == "" || id.BoardID == "" {
		return nil, &errors.Error{
			Kind:  errors.KindConfig,
			Cause: &ValidationError{Field: "fqbn", Message: fmt.Sprintf("%q has an empty packager, architecture or board segment", cfg.FQBN)},
		}
	}
	if id.Options != "" {
		warnings = append(warnings, fmt.Sprintf("board options %q are ignored", id.Options))
	}

	for i, lib := range cfg.ExternalLibraries {
		if strings.ContainsAny(lib, `/\`) || lib == "." || lib == ".." {
			return warnings, &errors.Error{
				Kind: errors.KindConfig,
				Cause: &ValidationError{
					Field:   fmt.Sprintf("external_libraries[%d]", i),
					Message: fmt.Sprintf("%q must be a library name, not a path", lib),
				},
			}
		}
	}
	return warnings, nil
}
