package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/pet-portal/internal/domains/accounts/domain"
	"github.com/Apurer/pet-portal/internal/domains/accounts/ports"
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ports.ErrInvalidInput) {
		return err
	}
	if errors.Is(err, domain.ErrInvalidEmail) ||
		errors.Is(err, domain.ErrWeakPassword) ||
		errors.Is(err, domain.ErrEmptyCode) ||
		errors.Is(err, domain.ErrEmptyGivenName) {
		return fmt.Errorf("%w: %w", ports.ErrInvalidInput, err)
	}
	return err
}
