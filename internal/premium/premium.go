// Package premium holds the KVG product rules the comparison form has to respect:
// age groups, allowed franchises and insurance models.
package premium

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

var (
	ErrInvalidFranchise = errors.New("franchise not allowed for age group")
	ErrInvalidModel     = errors.New("unknown insurance model")
	ErrInvalidBirthDate = errors.New("birth date must be in the past")
)

// AgeGroup is the KVG premium age class.
type AgeGroup string

const (
	Child      AgeGroup = "child"       // 0-18
	YoungAdult AgeGroup = "young_adult" // 19-25
	Adult      AgeGroup = "adult"       // 26+
)

// Model is an insurance model with its own premium discount.
type Model string

const (
	ModelStandard     Model = "standard"
	ModelFamilyDoctor Model = "family_doctor"
	ModelHMO          Model = "hmo"
	ModelTelmed       Model = "telmed"
)

var (
	adultFranchises = []int{300, 500, 1000, 1500, 2000, 2500}
	childFranchises = []int{0, 100, 200, 300, 400, 500, 600}
)

// ParseModel validates a model name; empty means standard.
func ParseModel(s string) (Model, error) {
	switch m := Model(s); m {
	case "":
		return ModelStandard, nil
	case ModelStandard, ModelFamilyDoctor, ModelHMO, ModelTelmed:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidModel, s)
}

// PremiumYear is the year whose premiums are being compared at now.
// Offers are always made for the coming calendar year.
func PremiumYear(now time.Time) int {
	return now.Year() + 1
}

// AgeInYear returns the age a person born on birth reaches during year.
// KVG classes switch on the year of birth, not the birthday.
func AgeInYear(birth time.Time, year int) int {
	return year - birth.Year()
}

// GroupFor derives the age group of birth for the premium year following now.
func GroupFor(birth, now time.Time) (AgeGroup, error) {
	if birth.IsZero() || !birth.Before(now) {
		return "", ErrInvalidBirthDate
	}
	age := AgeInYear(birth, PremiumYear(now))
	switch {
	case age <= 18:
		return Child, nil
	case age <= 25:
		return YoungAdult, nil
	default:
		return Adult, nil
	}
}

// Franchises lists the allowed franchise amounts in CHF for g.
func Franchises(g AgeGroup) []int {
	if g == Child {
		return slices.Clone(childFranchises)
	}
	return slices.Clone(adultFranchises)
}

// ValidateFranchise checks amount against the allowed values of g.
func ValidateFranchise(g AgeGroup, amount int) error {
	if slices.Contains(Franchises(g), amount) {
		return nil
	}
	return fmt.Errorf("%w: %d CHF for %s", ErrInvalidFranchise, amount, g)
}
