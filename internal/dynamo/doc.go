// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental interfaces and types for fixed-step
// numerical simulation of ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Saturator]: systems whose states are hard-limited after each step
//   - [Integrator]: numerical stepping interface
//   - [Metric]: scalar reductions observed along a trajectory
//   - [Simulator]: orchestrates simulation runs
//
// # Example
//
//	dyn := models.NewAutopilot(models.DefaultParams())
//	sim := dynamo.New(dyn, integrators.NewEuler())
//	result, _ := sim.Run(ctx, models.InitialState(), cfg)
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. Every run builds its own state
// buffers, so sequential runs never share mutable state.
package dynamo
