// Package bootstrap runs the service lifecycle: typed configuration,
// component registration, startup and shutdown hooks, a startup summary and
// graceful shutdown on SIGINT/SIGTERM.
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    return err
//	}
//	_ = app.RegisterComponent(storageComponent)
//	_ = app.RegisterComponent(pollerComponent)
//	return app.Run(ctx)
//
// Components start in registration order and stop in reverse, so register
// dependencies before their consumers.
package bootstrap
