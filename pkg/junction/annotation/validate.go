package annotation

import (
	"fmt"
	"regexp"
)

// parameterNamePattern accepts dotted lowercase names such as "abc.def.ghi".
var parameterNamePattern = regexp.MustCompile(`^[a-z]+(\.[a-z0-9]+)*$`)

// Validate checks an extension declaration and returns the first problem
// found as a *ValidationError, or nil.
func Validate(ext Extension) error {
	if err := validateBasics(ext); err != nil {
		return err
	}
	if err := validateParameters(ext); err != nil {
		return err
	}
	return validateReturnAttributes(ext)
}

func invalid(kind ErrorKind, ext Extension, param, format string, args ...any) *ValidationError {
	return &ValidationError{
		Kind:      kind,
		Class:     ext.Class,
		Parameter: param,
		Message:   fmt.Sprintf(format, args...),
	}
}

func validateBasics(ext Extension) error {
	if !ext.Kind.Valid() {
		return invalid(UnknownKind, ext, "",
			"The @Extension -> kind %q annotated in class %s is not a known extension kind.", ext.Kind, ext.Class)
	}
	if ext.Name == "" {
		return invalid(EmptyName, ext, "",
			"The @Extension -> name annotated in class %s is null or empty.", ext.Class)
	}
	if ext.Description == "" {
		return invalid(EmptyDescription, ext, "",
			"The @Extension -> description annotated in class %s is null or empty.", ext.Class)
	}

	reserved, ok := ReservedNamespace(ext.Kind)
	if !ok {
		return nil
	}
	if ext.Namespace == "" {
		return invalid(NamespaceMissingOrEmpty, ext, "",
			"The @Extension -> namespace cannot be null or empty, annotated class %s is a %s extension with reserved namespace %s.",
			ext.Class, ext.Kind, reserved)
	}
	if ext.Namespace != reserved {
		return invalid(NamespaceMismatch, ext, "",
			"The @Extension -> namespace provided %s should be corrected as %s annotated in class %s.",
			ext.Namespace, reserved, ext.Class)
	}
	return nil
}

func validateParameters(ext Extension) error {
	for _, p := range ext.Parameters {
		if p.Name == "" {
			return invalid(ParameterNameEmpty, ext, "",
				"The @Extension -> @Parameter -> name annotated in class %s is null or empty.", ext.Class)
		}
		if !parameterNamePattern.MatchString(p.Name) {
			return invalid(ParameterNameMalformed, ext, p.Name,
				"The @Extension -> @Parameter -> name:%s annotated in class %s is not in proper format 'abc.def.ghi'.",
				p.Name, ext.Class)
		}
		if p.Description == "" {
			return invalid(ParameterDescriptionEmpty, ext, p.Name,
				"The @Extension -> @Parameter -> name:%s -> description annotated in class %s is null or empty.",
				p.Name, ext.Class)
		}
		if len(p.Types) == 0 {
			return invalid(ParameterTypeEmpty, ext, p.Name,
				"The @Extension -> @Parameter -> name:%s -> type annotated in class %s is null or empty.",
				p.Name, ext.Class)
		}
		if p.Dynamic && !ext.Kind.allowsDynamic() {
			return invalid(DynamicParameterNotAllowed, ext, p.Name,
				"The @Extension -> @Parameter -> name:%s -> dynamic property cannot be true annotated in class %s.",
				p.Name, ext.Class)
		}
		if p.Optional && p.DefaultValue == "" {
			return invalid(OptionalParameterMissingDefault, ext, p.Name,
				"The @Extension -> @Parameter -> name:%s -> defaultValue annotated in class %s cannot be null or empty for the optional parameter.",
				p.Name, ext.Class)
		}
	}
	return nil
}

func validateReturnAttributes(ext Extension) error {
	limit := ext.Kind.maxReturnAttributes()
	n := len(ext.ReturnAttributes)
	switch {
	case limit < 0 || n <= limit:
		return nil
	case limit == 0:
		return invalid(ReturnAttributeNotAllowed, ext, "",
			"The @Extension -> @ReturnAttribute cannot be annotated in class %s.", ext.Class)
	default:
		return invalid(ReturnAttributeNotAllowed, ext, "",
			"Only one @ReturnAttribute can be annotated in class %s.", ext.Class)
	}
}
