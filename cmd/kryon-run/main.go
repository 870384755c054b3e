package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/kryonlabs/kryon-sub009/element"
	"github.com/kryonlabs/kryon-sub009/krb"
	"github.com/kryonlabs/kryon-sub009/runtime"
	"github.com/kryonlabs/kryon-sub009/state"
)

func main() {
	var (
		bundleFile  = flag.String("bundle", "", "Path to .krb bundle file")
		info        = flag.Bool("info", false, "Print bundle info and exit")
		frames      = flag.Int("frames", 1, "Number of frames to run")
		setStr      = flag.String("set", "", "Initial state writes (path=value,path2=value2)")
		snapshot    = flag.String("snapshot", "", "State snapshot file (restored on start, saved on stop)")
		strict      = flag.Bool("strict", false, "Reject bundles with unknown tags")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *bundleFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: kryon-run -bundle <file.krb> [-frames n] [-set path=value,...]")
		fmt.Fprintln(os.Stderr, "       kryon-run -bundle <file.krb> -info")
		fmt.Fprintln(os.Stderr, "       kryon-run -bundle <file.krb> -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*bundleFile, *snapshot); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*bundleFile, *setStr, *snapshot, *frames, *info, *strict); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(bundleFile, setStr, snapshot string, frames int, infoOnly, strict bool) error {
	cfg := runtime.DefaultConfig()
	if strict {
		cfg = runtime.DevConfig()
	}
	cfg.SnapshotFile = snapshot

	if infoOnly {
		data, err := os.ReadFile(bundleFile)
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		bundle, err := krb.DecodeWithOptions(data, cfg.Decode)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		printInfo(bundleFile, bundle)
		return nil
	}

	rt, err := runtime.New(cfg)
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}
	defer rt.Close()

	if err := rt.LoadFile(bundleFile); err != nil {
		return fmt.Errorf("load bundle: %w", err)
	}

	stats := rt.RuntimeStats()
	fmt.Printf("Bundle: %s\n", bundleFile)
	fmt.Printf("Elements: %d\n", stats.Elements)
	fmt.Printf("Bindings: %d\n", stats.Bindings)

	if err := rt.Start(); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	if setStr != "" {
		for _, kv := range strings.Split(setStr, ",") {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				return fmt.Errorf("bad -set entry %q, want path=value", kv)
			}
			if err := rt.State().EnsurePath(parts[0]); err != nil {
				return fmt.Errorf("set %s: %w", parts[0], err)
			}
			if err := rt.State().Set(parts[0], parseStateValue(parts[1])); err != nil {
				return fmt.Errorf("set %s: %w", parts[0], err)
			}
		}
	}

	out := &textRenderer{w: os.Stdout}
	for i := 0; i < frames; i++ {
		changed, err := rt.Update(16 * time.Millisecond)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i+1, err)
		}
		if !changed {
			continue
		}
		fmt.Printf("\n--- frame %d ---\n", i+1)
		if _, err := rt.Render(out); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}

	for _, err := range rt.Errors() {
		fmt.Fprintf(os.Stderr, "runtime error: %v\n", err)
	}

	stats = rt.RuntimeStats()
	fmt.Printf("\nFrames: %d\n", stats.Frames)
	fmt.Printf("Pooled memory: %d allocs, %d frees, peak %d in use\n",
		stats.Memory.TotalAllocs, stats.Memory.TotalFrees, stats.Memory.PeakInUse)

	return rt.Stop()
}

func printInfo(path string, b *krb.Bundle) {
	fmt.Printf("Bundle: %s\n", path)
	fmt.Printf("Format: %s\n", b.Header.Version())
	fmt.Printf("Compression: %s\n", b.Header.Compression)
	fmt.Printf("Elements: %d\n", len(b.Elements))
	fmt.Printf("Properties: %d\n", b.NumProperties())
	fmt.Printf("Strings: %d\n", len(b.Strings))

	fmt.Printf("\nElement tree:\n")
	for _, root := range b.Roots() {
		printElement(b, root, 1)
	}
}

func printElement(b *krb.Bundle, el *krb.Element, depth int) {
	indent := strings.Repeat("  ", depth)
	name := ""
	if el.NameIndex != 0 {
		if s, err := b.String(el.NameIndex); err == nil {
			name = " " + s
		}
	}
	fmt.Printf("%s%s#%d%s (%d props)\n", indent, el.Type, el.ID, name, len(el.Properties))
	for _, cid := range el.ChildIDs {
		if child := b.ElementByID(cid); child != nil {
			printElement(b, child, depth+1)
		}
	}
}

// parseStateValue guesses the value type from its literal form.
func parseStateValue(s string) state.Value {
	switch s {
	case "true":
		return state.BoolValue(true)
	case "false":
		return state.BoolValue(false)
	case "null":
		return state.NullValue()
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return state.IntValue(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return state.FloatValue(f)
	}
	return state.StringValue(s)
}

// textRenderer prints draw intents as an indented listing.
type textRenderer struct {
	w     *os.File
	depth int
}

func (r *textRenderer) indent() string {
	return strings.Repeat("  ", r.depth)
}

func (r *textRenderer) BeginElement(element.Handle, element.Box) { r.depth++ }
func (r *textRenderer) EndElement(element.Handle)                { r.depth-- }

func (r *textRenderer) DrawRect(box element.Box, color uint32) {
	fmt.Fprintf(r.w, "%srect (%g,%g %gx%g) #%08X\n", r.indent(), box.X, box.Y, box.W, box.H, color)
}

func (r *textRenderer) DrawText(box element.Box, text string, color uint32, size float64) {
	fmt.Fprintf(r.w, "%stext (%g,%g) %q size=%g #%08X\n", r.indent(), box.X, box.Y, text, size, color)
}

func (r *textRenderer) DrawImage(box element.Box, src string) {
	fmt.Fprintf(r.w, "%simage (%g,%g %gx%g) %s\n", r.indent(), box.X, box.Y, box.W, box.H, src)
}

func (r *textRenderer) PushClip(box element.Box) {
	fmt.Fprintf(r.w, "%sclip (%g,%g %gx%g)\n", r.indent(), box.X, box.Y, box.W, box.H)
}

func (r *textRenderer) PopClip() {}
