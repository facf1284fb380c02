package main

import (
	"fmt"
	"io"

	"ai-image-enhancer/internal/controller"
	"ai-image-enhancer/internal/datauri"
	"ai-image-enhancer/internal/prompts"
)

type terminalView struct {
	out    io.Writer
	errOut io.Writer
}

func newTerminalView(out, errOut io.Writer) *terminalView {
	return &terminalView{out: out, errOut: errOut}
}

func (v *terminalView) Notify(kind controller.NoticeKind, message string) {
	if kind == controller.NoticeError {
		fmt.Fprintf(v.errOut, "✗ %s\n", message)
		return
	}
	fmt.Fprintf(v.out, "✓ %s\n", message)
}

func (v *terminalView) ShowPreview(file controller.File) {
	fmt.Fprintf(v.out, "Selected %s (%s, %s)\n", file.Name, file.MimeType, formatBytes(len(file.Data)))
}

func (v *terminalView) ShowComparison(original, enhanced string, level int) {
	fmt.Fprintf(v.out, "Level %d (%s)\n", level, prompts.Name(level))
	fmt.Fprintf(v.out, "  original: %s\n", describeURI(original))
	fmt.Fprintf(v.out, "  enhanced: %s\n", describeURI(enhanced))
}

func (v *terminalView) SetBusy(busy bool) {
	if busy {
		fmt.Fprintln(v.out, "Enhancing...")
	}
}

func (v *terminalView) OpenSettings() {
	fmt.Fprintln(v.errOut, "Configure with: enhancer settings set --api-key <key> --model <model>")
}

// describeURI keeps base64 payloads off the terminal.
func describeURI(uri string) string {
	if !datauri.IsDataURI(uri) {
		return uri
	}
	mimeType, data, err := datauri.Decode(uri)
	if err != nil {
		return "(unreadable image)"
	}
	return fmt.Sprintf("inline %s, %s", mimeType, formatBytes(len(data)))
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
