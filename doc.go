// Package avvio boots an application out of plugins, asynchronously and in a
// strict, predictable order.
//
// A plugin is a function that receives a Scope and its options. Plugins may
// register more plugins; a plugin is loaded only once its body completed and
// every plugin it registered has loaded. Siblings load one after another in
// registration order.
//
// # Quick Start
//
//	b, _ := avvio.New(nil)
//	defer b.Stop()
//
//	b.Use(func(s *avvio.Scope, _ any) error {
//		s.Set("db", openDB())
//		return nil
//	}, avvio.WithName("db"))
//
//	b.After(func(err error) error {
//		// runs once "db" loaded, before anything registered later
//		return err
//	})
//
//	if _, err := b.Wait(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// # Plugin shapes
//
// Use accepts three shapes: SyncPlugin returns an error, CallbackPlugin
// reports through a DoneFunc, and FuturePlugin returns a *Future. A
// *Future[any] resolving to one of them defers the plugin until its turn.
//
// # Errors
//
// A failing plugin puts its error in a single pending slot. Plugins that
// start while an error is pending are skipped. After and ready handlers
// that take an error consume it and may clear it or pass it on; handlers
// without an error argument leave it pending. An error still pending when
// the tree loaded, with no ready handler queued, reaches the FatalHandler.
//
// # Timeouts
//
// BootConfig.Timeout bounds every plugin; a nested plugin inherits what is
// left of its parent's budget. WithTimeout overrides it per plugin.
//
// # Close
//
// OnClose handlers run in reverse registration order when the boot closes,
// followed by the Close callback, which receives the first teardown error.
//
// # Thread Safety
//
// Scheduling state is owned by one event loop goroutine per Boot. Plugin
// bodies and handlers run on their own goroutines, and every method may be
// called from any goroutine, including from inside plugins.
//
// See the core package for the implementation, config for file-based
// configuration and observability for zap, zerolog and Prometheus adapters.
package avvio
