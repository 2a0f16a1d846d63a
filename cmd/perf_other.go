//go:build !linux

package cmd

import "errors"

func countSerial(f func() error) (*perfCounts, error) {
	return nil, errors.New("hardware counters need linux perf events")
}
