package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/modbee/modbee-dash/pkg/log"
)

// RunFilter copies the events matching filter into a new log file and
// returns how many were written.
func RunFilter(path, output string, filter log.Filter) (int, error) {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			written, _ := logger.Counts()
			return written, fmt.Errorf("failed to read event: %w", err)
		}
		logger.Log(event)
	}

	written, dropped := logger.Counts()
	if dropped > 0 {
		return written, fmt.Errorf("failed to write %d event(s) to %s", dropped, logger.Path())
	}
	return written, nil
}
