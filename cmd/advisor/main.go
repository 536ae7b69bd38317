package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Egham-7/embedding-advisor/internal/models"
)

// Exit codes for different failure modes
const (
	ExitSuccess = 0
	ExitInput   = 1 // Rejected task or description
	ExitError   = 2 // Configuration, network or model errors
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var input *inputError
	if errors.As(err, &input) || models.IsValidationError(err) {
		return ExitInput
	}
	return ExitError
}

// inputError marks flag values the advisor cannot act on
type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }
