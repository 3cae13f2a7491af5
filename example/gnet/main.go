// FILE: example/gnet/main.go
package main

import (
	"github.com/panjf2000/gnet/v2"
	"github.com/usub/ulog"
	"github.com/usub/ulog/compat"
)

// Example gnet event handler
type echoServer struct {
	gnet.BuiltinEventEngine
}

func (es *echoServer) OnTraffic(c gnet.Conn) gnet.Action {
	buf, _ := c.Next(-1)
	c.Write(buf)
	return gnet.None
}

func main() {
	logger := ulog.NewLogger()
	err := logger.ApplyConfigString(
		"trace_path=/var/log/gnet/server.log",
		"debug_path=/var/log/gnet/server.log",
		"info_path=/var/log/gnet/server.log",
		"warn_path=/var/log/gnet/server.log",
		"error_path=/var/log/gnet/server.log",
		"json_mode=true",
	)
	if err != nil {
		panic(err)
	}
	if err := logger.Start(); err != nil {
		panic(err)
	}
	defer logger.Shutdown()

	gnetAdapter := compat.NewGnetAdapter(logger)

	// Configure gnet server with the logger
	err = gnet.Run(
		&echoServer{},
		"tcp://127.0.0.1:9000",
		gnet.WithMulticore(true),
		gnet.WithLogger(gnetAdapter),
		gnet.WithReusePort(true),
	)
	if err != nil {
		panic(err)
	}
}
