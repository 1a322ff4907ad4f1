package main

import (
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/sirupsen/logrus"
)

const statsURL = "/debug/statsview"

// launchStats starts the runtime statistics server in its own goroutine.
func launchStats(addr string, log logrus.FieldLogger) {
	viewer.SetConfiguration(viewer.WithAddr(addr))
	go func() {
		mgr := statsview.New()
		mgr.Start()
	}()
	log.Infof("stats server available at http://%s%s", addr, statsURL)
}
