package rl

import "errors"

var (
	// ErrNotImplemented is returned by abstract operations that a
	// concrete Agent, Env, Space or Processor did not override.
	ErrNotImplemented = errors.New("rl: not implemented")

	// ErrNotCompiled is returned by Fit and Test when the agent has not
	// been compiled yet.
	ErrNotCompiled = errors.New("rl: agent is not compiled")

	// ErrInvalidArgument is returned for out-of-range loop parameters.
	ErrInvalidArgument = errors.New("rl: invalid argument")

	// ErrEnvContract is returned when an environment violates its
	// contract, such as returning a nil observation from Reset.
	ErrEnvContract = errors.New("rl: environment contract violation")
)
