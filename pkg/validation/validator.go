package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// PasswordSymbols is the punctuation set a password must draw at least one character from.
const PasswordSymbols = "!@#$%^&*()-_=+[]{}|;:'\",.<>/?~`"

// PasswordMinLength is the minimum password length in characters.
const PasswordMinLength = 8

var mobileRe = regexp.MustCompile(`^05\d-?\d{7}$`)

// ValidPassword reports whether plain satisfies the password policy.
func ValidPassword(plain string) bool {
	return utf8.RuneCountInString(plain) >= PasswordMinLength && strings.ContainsAny(plain, PasswordSymbols)
}

// ValidMobile reports whether s is an Israeli mobile number (05X-XXXXXXX, dash optional).
func ValidMobile(s string) bool {
	return mobileRe.MatchString(s)
}

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers the password and phone rules plus alias tags.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Register(v)
	}
}

// Register installs the custom rules on v. Exposed for tests that build their own validator.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	_ = v.RegisterValidation("pwdpolicy", func(fl validator.FieldLevel) bool {
		return ValidPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return ValidMobile(fl.Field().String())
	})
	v.RegisterAlias("pwd", "pwdpolicy")
	v.RegisterAlias("tempadmin", "oneof=1day 1week 1month")
	v.RegisterAlias("objectid", "len=24,hexadecimal")
}

// ToDetails converts validation/binding errors into a map[field]message suitable for API error.details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	tag := fe.Tag()
	param := fe.Param()

	switch tag {
	case "required":
		return "is required"
	case "required_without":
		return "is required when " + param + " is not present"
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid URL"
	case "hexadecimal":
		return "must be hexadecimal"
	case "len":
		return fmt.Sprintf("must be exactly %s characters long", param)
	case "min":
		if isNumberKind(fe.Kind()) {
			return "must be at least " + param
		}
		return "must be at least " + param + " characters long"
	case "max":
		if isNumberKind(fe.Kind()) {
			return "must be at most " + param
		}
		return "must be at most " + param + " characters long"
	case "gte":
		return "must be greater than or equal to " + param
	case "lte":
		return "must be less than or equal to " + param
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")

	case "pwd", "pwdpolicy":
		return fmt.Sprintf("must be at least %d characters and contain a symbol", PasswordMinLength)
	case "mobile":
		return "must be a valid mobile number (05X-XXXXXXX)"
	case "tempadmin":
		return "must be one of: 1day, 1week, 1month"
	case "objectid":
		return "must be a valid id"

	default:
		if param != "" {
			return fmt.Sprintf("validation failed for '%s' with parameter '%s'", tag, param)
		}
		return fmt.Sprintf("validation failed for '%s'", tag)
	}
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
