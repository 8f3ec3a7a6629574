package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/modbee/modbee-dash/pkg/render"
	"github.com/modbee/modbee-dash/pkg/snapshot"
)

// ErrParse is wrapped by every FieldError.
var ErrParse = errors.New("invalid calibration value")

// FieldError reports one editable field that could not be parsed.
type FieldError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %q: %s", e.Field, e.Value, e.Reason)
}

// Unwrap returns ErrParse.
func (e *FieldError) Unwrap() error {
	return ErrParse
}

// Fields gives read access to the editable fields.
type Fields interface {
	Get(name string) (string, bool)
}

// Capture builds a calibration from the current editable field values.
// All invalid fields are reported together.
func Capture(fields Fields) (snapshot.Calibration, error) {
	var (
		c    snapshot.Calibration
		errs []error
	)

	read := func(prefix string, dst []int) {
		for i := range dst {
			name := render.CalibrationField(prefix, i)
			v, err := parseField(fields, name)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			dst[i] = v
		}
	}

	read(render.FieldADCZero, c.ADCZeroOffsets[:])
	read(render.FieldADCLow, c.ADCLow[:])
	read(render.FieldADCHigh, c.ADCHigh[:])
	read(render.FieldDACZero, c.DACZeroOffsets[:])
	read(render.FieldDACLow, c.DACLow[:])
	read(render.FieldDACHigh, c.DACHigh[:])

	if len(errs) > 0 {
		return snapshot.Calibration{}, errors.Join(errs...)
	}
	return c, nil
}

func parseField(fields Fields, name string) (int, error) {
	raw, ok := fields.Get(name)
	if !ok {
		return 0, &FieldError{Field: name, Reason: "missing field"}
	}

	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, &FieldError{Field: name, Value: raw, Reason: "empty"}
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return 0, &FieldError{Field: name, Value: raw, Reason: "out of range"}
		}
		return 0, &FieldError{Field: name, Value: raw, Reason: "not an integer"}
	}
	if v < snapshot.CalibrationMin || v > snapshot.CalibrationMax {
		return 0, &FieldError{
			Field:  name,
			Value:  raw,
			Reason: fmt.Sprintf("out of range [%d, %d]", snapshot.CalibrationMin, snapshot.CalibrationMax),
		}
	}
	return v, nil
}

// FieldErrors extracts every FieldError from an error returned by Capture.
func FieldErrors(err error) []*FieldError {
	var out []*FieldError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, FieldErrors(e)...)
		}
		return out
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		out = append(out, fe)
	}
	return out
}
