/*
Example application running the testbed game on top of the engine
package.
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/vireo3d/vireo/engine"
	"github.com/vireo3d/vireo/engine/core"
	"github.com/vireo3d/vireo/testbed"
)

const configPath = "config.toml"

func main() {
	config, err := engine.LoadConfig(configPath)
	if err != nil {
		panic(err)
	}

	game := testbed.NewTestGame(config)

	app, err := engine.New(game.Game)
	if err != nil {
		panic(err)
	}

	if err := app.Initialize(); err != nil {
		panic(err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// translate signals into a clean quit so the main loop unwinds
	go func() {
		<-sigCh
		app.Events().Fire(core.EventContext{Type: core.EventApplicationQuit})
	}()

	if err := app.Run(); err != nil {
		panic(err)
	}

	if err := app.Shutdown(); err != nil {
		panic(err)
	}
}
