// Package domain contains the core domain entities and value objects for pinchctl.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (serial ports, file system, HTTP,
// logging) and contains only pure business data.
//
// # Entities
//
//   - [WeightSample]: A single timestamped scale reading
//   - [FlowEstimate]: The smoothed flow rate derived from samples, with validity
//   - [Observation]: The per-tick snapshot published for monitoring
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Testable without mocks or external systems
package domain
