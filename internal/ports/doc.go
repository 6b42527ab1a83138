// Package ports defines the interfaces (ports) that connect the control
// loop to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// regulator needs from external systems without specifying how those needs
// are fulfilled.
//
// # Port Interfaces
//
//   - [WeightSource]: Pulls the latest timestamped scale reading
//   - [ValveActuator]: Pushes a bounded normalized valve command
//   - [Logger]: Structured logging abstraction
//
// # Usage
//
// The control layer (internal/control) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with concrete
// backends (scale log file, serial pinch valve, in-memory simulation),
// selected at configuration time rather than discovered at runtime.
package ports
