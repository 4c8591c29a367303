package config

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSrc string

// Validation error codes.
const (
	ErrCodeSchema     = "E200" // value violates the schema
	ErrCodeDefinition = "E201" // schema could not be compiled
)

// ValidationError describes one invalid setting.
type ValidationError struct {
	File    string `json:"file"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s: %s", e.Code, e.File, e.Field, e.Message)
}

// ValidationErrors collects every violation found in one pass.
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("invalid configuration (%d errors):\n  %s", len(es), strings.Join(msgs, "\n  "))
}

var (
	schemaOnce sync.Once
	cueCtx     *cue.Context
	schema     cue.Value
)

func loadSchema() (*cue.Context, cue.Value) {
	schemaOnce.Do(func() {
		cueCtx = cuecontext.New()
		schema = cueCtx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	})
	return cueCtx, schema
}

// Validate checks both files against the schema. It returns nil or a
// ValidationErrors holding every violation.
func Validate(c Config) error {
	ctx, s := loadSchema()
	if err := s.Err(); err != nil {
		return ValidationErrors{{File: "schema.cue", Field: "schema", Message: err.Error(), Code: ErrCodeDefinition}}
	}

	var errs ValidationErrors
	errs = append(errs, check(ctx, s, "#DataSource", DataSourceFile, c.DataSource)...)
	errs = append(errs, check(ctx, s, "#RestrictedBlocks", RestrictedBlocksFile, c.RestrictedBlocks)...)
	if c.EphemeralTTL <= 0 {
		errs = append(errs, ValidationError{
			Field:   "ephemeralTtl",
			Message: fmt.Sprintf("must be positive, got %s", c.EphemeralTTL),
			Code:    ErrCodeSchema,
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func check(ctx *cue.Context, s cue.Value, def, file string, v any) ValidationErrors {
	unified := s.LookupPath(cue.ParsePath(def)).Unify(ctx.Encode(v))
	err := unified.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var out ValidationErrors
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		out = append(out, ValidationError{
			File:    file,
			Field:   fieldPath(e.Path()),
			Message: fmt.Sprintf(format, args...),
			Code:    ErrCodeSchema,
		})
	}
	return out
}

// fieldPath drops the definition name from a CUE error path.
func fieldPath(path []string) string {
	if len(path) > 0 && strings.HasPrefix(path[0], "#") {
		path = path[1:]
	}
	if len(path) == 0 {
		return "(root)"
	}
	return strings.Join(path, ".")
}
