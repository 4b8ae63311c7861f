package contracts

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every stage of the pipeline.
// 모든 단계는 이 sentinel 들을 %w 로 감싸서 반환
var (
	ErrInsufficientData    = errors.New("insufficient data")
	ErrDegenerateInput     = errors.New("degenerate input")
	ErrInvalidInput        = errors.New("invalid input")
	ErrOptimizationFailure = errors.New("optimization failure")
)

// ErrEmptyResult is returned by the return transform when no usable rows remain.
// It matches ErrInsufficientData under errors.Is.
var ErrEmptyResult = fmt.Errorf("empty result: %w", ErrInsufficientData)
