package main

import (
	"context"
	"os/signal"
	"syscall"
	"tv_channel/helpers"
	"tv_channel/helpers/logs"
	"tv_channel/modules/channel"
	"tv_channel/modules/web"
)

func init() {
	if !helpers.IsYtDlpInstalled() {
		logs.GetLogger().Warn(`yt-dlp is not installed, remote video links will fail to resolve`)
	}
	if !helpers.IsFFprobeInstalled() {
		logs.GetLogger().Warn(`ffprobe is not installed, library durations will not be probed`)
	}

	logs.GetLogger().Info(`Starting ...`)
	helpers.GetXORM()
}

func main() {

	// close properly
	defer helpers.GetXORM().Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		channel.StartChannel(ctx)
	}()

	web.Run()
}
