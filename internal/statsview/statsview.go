//go:build statsview
// +build statsview

package statsview

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"

	"qnes/internal/logger"
)

// Launch starts the statistics server in its own goroutine.
func Launch(addr string, output io.Writer) error {
	if addr == "" {
		addr = DefaultAddress
	}
	viewer.SetConfiguration(viewer.WithAddr(addr))

	go func() {
		mgr := statsview.New()
		mgr.Start()
	}()

	logger.Logf("STATSVIEW", "serving on %s%s", addr, url)
	fmt.Fprintf(output, "stats server available at %s%s\n", addr, url)
	return nil
}

// Available returns true if a statsview is available to launch.
func Available() bool {
	return true
}
