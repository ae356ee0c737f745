package usecase

import (
	"errors"
	"fmt"

	"github.com/pantrypal/backend/internal/domain"
)

// storeErr wraps unclassified store errors as ErrStoreFailure
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidRequest) ||
		errors.Is(err, domain.ErrStoreFailure) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
}

// upstreamErr wraps unclassified pipeline errors as ErrUpstreamFailure
func upstreamErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrUpstreamFailure) ||
		errors.Is(err, domain.ErrPipelineTimeout) ||
		errors.Is(err, domain.ErrRateLimited) ||
		errors.Is(err, domain.ErrInvalidRequest) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
}
