package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{name: "without cause", err: NewDataLoadError("failed to open workbook", nil), want: "[DATA_LOAD] failed to open workbook"},
		{name: "with cause", err: NewStorageError("failed to write results", errors.New("disk full")), want: "[STORAGE] failed to write results: disk full"},
		{name: "parsing", err: NewParsingError("bad season label", errors.New(`"IPL-?" not recognized`)), want: `[PARSING] bad season label: "IPL-?" not recognized`},
		{name: "validation", err: NewAppValidationError("years must be positive"), want: "[VALIDATION] years must be positive"},
		{name: "not found", err: NewNotFoundError("analysis results"), want: "[NOT_FOUND] analysis results not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("file does not exist")
	err := NewDataLoadError("failed to load advertisers", cause)

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))

	var appErr *AppError
	require.True(t, errors.As(fmt.Errorf("stage 1: %w", err), &appErr))
	assert.Equal(t, ErrTypeDataLoad, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewDataLoadError("failed to load workbook", nil).
		WithContext("file", "fact_ipl_advertisers.xlsx").
		WithContext("table", "advertisers")

	assert.Equal(t, "fact_ipl_advertisers.xlsx", err.Context["file"])
	assert.Equal(t, "advertisers", err.Context["table"])
}

func TestNewComputationError(t *testing.T) {
	err := NewComputationError("central_contracts", "revenue column missing")

	assert.Equal(t, ErrTypeComputation, err.Type)
	assert.Equal(t, "central_contracts", err.Context["metric"])
	assert.Contains(t, err.Error(), "revenue column missing")
}

func TestIsType(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		errType ErrorType
		want    bool
	}{
		{name: "direct match", err: NewDataLoadError("missing file", nil), errType: ErrTypeDataLoad, want: true},
		{name: "wrapped match", err: fmt.Errorf("stage 1: %w", NewStorageError("write failed", nil)), errType: ErrTypeStorage, want: true},
		{name: "double wrapped", err: fmt.Errorf("run: %w", fmt.Errorf("stage 2: %w", NewComputationError("cagr", "no revenue"))), errType: ErrTypeComputation, want: true},
		{name: "different type", err: NewDataLoadError("missing file", nil), errType: ErrTypeStorage, want: false},
		{name: "plain error", err: errors.New("boring"), errType: ErrTypeDataLoad, want: false},
		{name: "nil error", err: nil, errType: ErrTypeDataLoad, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsType(tt.err, tt.errType))
		})
	}
}
