// Package configschema implements C2: the six command-artifact schemas, the
// voters-list text parser, and the cross-file consistency checks of
// spec.md §4.2. Struct validation uses
// github.com/go-playground/validator/v10; YAML payloads are decoded with
// gopkg.in/yaml.v3. Validation failures are reported as a dotted path plus a
// human message via core/ivxverr.ValidationError.
package configschema

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"ivxv.ee/collector-admin/core/ivxverr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("backuptime", validateBackupTime)
	_ = v.RegisterValidation("electionid", validateElectionID)
	return v
}

// runValidate converts the first struct validation failure into a dotted
// path + message pair, matching the original schematics DataError shape.
func runValidate(path string, s interface{}) error {
	if err := validate.Struct(s); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return ivxverr.NewValidation(path, "%s", err.Error())
		}
		fe := verrs[0]
		fieldPath := path + "/" + jsonFieldPath(fe.Namespace())
		return ivxverr.NewValidation(fieldPath, "%s", describeTag(fe))
	}
	return nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "value is required"
	case "min":
		return fmt.Sprintf("value must be >= %s", fe.Param())
	case "max":
		return fmt.Sprintf("value must be <= %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("value must be one of: %s", fe.Param())
	case "backuptime":
		return fmt.Sprintf("value must be in format HH:MM (not %q)", fe.Value())
	case "electionid":
		return "election ID must be 1-28 characters with no whitespace"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// jsonFieldPath trims the leading "<Type>." segment schematics-style paths
// don't carry, so /period/electionstart (not /ElectionPeriodSchema.period...)
// matches spec.md §4.2's examples.
func jsonFieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}
	return strings.Join(parts, "/")
}

