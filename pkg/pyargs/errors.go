package pyargs

import (
	"fmt"
)

type FlagNotRecognizedError struct {
	Flag string
}

func (e FlagNotRecognizedError) Error() string {
	return fmt.Sprintf("flag %s not recognized", e.Flag)
}

type FlagMissingValueError struct {
	Flag string
}

func (e FlagMissingValueError) Error() string {
	return fmt.Sprintf("flag %s expects a value", e.Flag)
}

type FlagUnexpectedValueError struct {
	Flag string
}

func (e FlagUnexpectedValueError) Error() string {
	return fmt.Sprintf("flag %s does not take a value", e.Flag)
}
