package user

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
)

var (
	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"

	errInvalidPassword = errors.New("invalid password")
)

// InitValidators registers the user validators on v.
func InitValidators(v *core.Validator) {
	validate, translator := v.Engine(), v.Translator()

	validate.RegisterStructValidation(userStructValidation, NewStudent{}, NewStaff{}, NewAdmin{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

// Custom Validators

// userStructValidation applies the password policy on registration structs.
func userStructValidation(sl validator.StructLevel) {
	var pwd string
	var attrs []string
	switch nu := sl.Current().Interface().(type) {
	case NewStudent:
		pwd, attrs = nu.Password, []string{nu.Name, nu.Email}
	case NewStaff:
		pwd, attrs = nu.Password, []string{nu.Name, nu.Email}
	case NewAdmin:
		pwd, attrs = nu.Password, []string{nu.Name, nu.Email}
	default:
		return
	}
	if pwd == "" { // reported by "required"
		return
	}
	if tag := checkPassword(pwd, attrs...); tag != "" {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}
}

// ValidatePassword applies the password policy outside of a struct, e.g. on password resets.
func ValidatePassword(pwd string, attrs ...string) error {
	tag := checkPassword(pwd, attrs...)
	if tag == "" {
		return nil
	}
	texts := map[string]string{
		pwdMinLenTag:    pwdMinLenText,
		pwdNoSpaceTag:   pwdNoSpaceText,
		pwdNotAllNumTag: pwdNotAllNumText,
		pwdAttrSimTag:   pwdAttrSimText,
	}
	return core.NewValidationError(errInvalidPassword, core.FieldError{Field: "password", Error: texts[tag]})
}

// checkPassword returns the tag of the first password policy rule pwd breaks, "" if none:
// - minLen: 8
// - no whitespace
// - no all numeric
// - no user attrs similarity
func checkPassword(pwd string, attrs ...string) string {
	if len(pwd) < pwdMinLen {
		return pwdMinLenTag
	}

	var digitCount, runeCount int
	for _, char := range pwd {
		runeCount++
		if unicode.IsSpace(char) {
			return pwdNoSpaceTag
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == runeCount {
		return pwdNotAllNumTag
	}

	lpwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		if attr == "" {
			continue
		}
		attr = strings.ToLower(attr)
		ratio := difflib.NewMatcher(strings.Split(lpwd, ""), strings.Split(attr, "")).QuickRatio()
		if ratio >= pwdMaxSim {
			return pwdAttrSimTag
		}
	}
	return ""
}
