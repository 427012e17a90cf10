package generation

import (
	"fmt"
	"strings"

	"z-book-agent/internal/domain/entity"
	apperrors "z-book-agent/pkg/errors"
)

// VendorFailure 单个供应商最后一次失败的原因
type VendorFailure struct {
	Vendor entity.VendorName `json:"vendor"`
	Reason string            `json:"reason"`
}

// ExhaustedError 所有供应商的全部尝试均失败
type ExhaustedError struct {
	Category entity.TaskCategory
	Failures []VendorFailure
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Vendor, f.Reason))
	}
	return fmt.Sprintf("all AI vendors failed for %s: %s", e.Category, strings.Join(parts, "; "))
}

// Unwrap 使 errors.Is(err, apperrors.ErrVendorsExhausted) 成立
func (e *ExhaustedError) Unwrap() error {
	return apperrors.ErrVendorsExhausted
}
