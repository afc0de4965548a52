package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/petems/audiotexter/internal/audio"
)

// writeDevices prints the enumeration as a table and marks the device the
// locator would pick.
func writeDevices(out io.Writer, driver string, devices []audio.Device, chosen audio.Device, ok bool) {
	fmt.Fprintf(out, "Driver: %s\n\n", driver)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tINDEX\tINPUTS\tNAME\tNOTE")
	for _, d := range devices {
		mark := ""
		if ok && d.Index == chosen.Index {
			mark = "*"
		}
		note := ""
		if audio.IsLoopback(d.Name) {
			note = "loopback"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", mark, d.Index, d.MaxInputChannels, d.Name, note)
	}
	tw.Flush()

	fmt.Fprintln(out)
	switch {
	case !ok:
		fmt.Fprintln(out, "No capture device found.")
	case audio.IsLoopback(chosen.Name):
		fmt.Fprintf(out, "Would capture from: %s\n", chosen.Name)
	default:
		fmt.Fprintf(out, "Would capture from: %s (no loopback device, likely a microphone)\n", chosen.Name)
	}
}
