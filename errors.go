// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package goenrich

import "fmt"

// InputNotFoundError is returned when a required input file is missing
// or cannot be read.
type InputNotFoundError struct {
	Path string
	Err  error
}

func (e *InputNotFoundError) Error() string {
	return fmt.Sprintf("goenrich: cannot read input %q: %v", e.Path, e.Err)
}

func (e *InputNotFoundError) Unwrap() error { return e.Err }

// ConfigError is returned when a configuration parameter is invalid.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("goenrich: invalid configuration: %s %s", e.Field, e.Reason)
}

// ConsistencyError is returned when the cluster assignment and annotation
// inputs disagree, or when an input does not have the expected shape.
// Cluster and Term are set when the error relates to a specific
// contingency table.
type ConsistencyError struct {
	Cluster string
	Term    string
	Reason  string
}

func (e *ConsistencyError) Error() string {
	switch {
	case e.Cluster != "" && e.Term != "":
		return fmt.Sprintf("goenrich: inconsistent data for cluster %s term %s: %s", e.Cluster, e.Term, e.Reason)
	case e.Cluster != "":
		return fmt.Sprintf("goenrich: inconsistent data for cluster %s: %s", e.Cluster, e.Reason)
	default:
		return "goenrich: inconsistent data: " + e.Reason
	}
}

// StageError records the pipeline stage in which an error occurred.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }
