package model

import "fmt"

// ValidateName checks that a character name is usable as a natural key
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: character name must not be empty", ErrInvalidInput)
	}
	return nil
}

// ValidateDex checks the dexterity range
func ValidateDex(dex int) error {
	if dex < StatMin || dex > StatMax {
		return fmt.Errorf("%w: dexterity must be between %d and %d (inclusive)", ErrInvalidInput, StatMin, StatMax)
	}
	return nil
}

// ValidateWis checks the wits range
func ValidateWis(wis int) error {
	if wis < StatMin || wis > StatMax {
		return fmt.Errorf("%w: wits must be between %d and %d (inclusive)", ErrInvalidInput, StatMin, StatMax)
	}
	return nil
}

// ValidateRoll checks the roll range. A nil roll is valid and means the
// character has not rolled.
func ValidateRoll(roll *int) error {
	if roll == nil {
		return nil
	}
	if *roll < RollMin || *roll > RollMax {
		return fmt.Errorf("%w: initiative roll must be between %d and %d (inclusive)", ErrInvalidInput, RollMin, RollMax)
	}
	return nil
}
