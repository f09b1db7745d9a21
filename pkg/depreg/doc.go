/*
Package depreg provides a concurrency-safe registry that hands out
instances of capabilities by type.

# Overview

A capability is any Go type, usually an interface. Bootstrap code registers
a zero-argument factory for it; consumers resolve the capability without
knowing how it is built:

	reg := depreg.New()

	depreg.Register[Clock](reg, func() Clock { return systemClock{} })
	depreg.Register[Store](reg, newPostgresStore, depreg.AsSingleton())
	depreg.RegisterInstance[*Config](reg, cfg) // Singleton by default

	store, ok := depreg.Resolve[Store](reg)
	if !ok {
	    // Store was never registered
	}

Capabilities are keyed by reflect.Type, never by name, so same-named types
in different packages do not collide.

# Lifecycles

Transient (the default) runs the factory on every resolution. Singleton
runs it once and caches the result until the entry is evicted by
Register (replacing the factory), DisposeSingletons, Unregister or Reset.

# Resolution

Resolve returns (value, false) for an unregistered capability and never
invents a default. ResolveOrFail returns a *NotRegisteredError instead,
for call sites where absence is a bug. MustResolve panics.

Factories are not protected: a panicking factory unwinds to the caller of
Resolve and leaves no cache entry behind.

# Thread Safety

One mutex guards the registration table and the singleton cache, so every
operation sees a consistent state and operations are linearizable.
Every factory call, Singleton or Transient, runs while the mutex is held;
concurrent resolvers of a Singleton wait and then share the one instance.
Consequently:

  - a slow factory blocks the whole registry until it returns;
  - a factory must not call back into the same Registry, or it deadlocks.

WithSlowConstructionThreshold logs a warning for factory calls that reach
the given duration.

# Ambient Lookup

Package inject carries a Registry on a context.Context and offers strict
(Require), lenient (Optional) and error-returning (Get) resolution.
*/
package depreg
