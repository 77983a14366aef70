// Command vicli partially instantiates a variable font from the command line:
//
//	vicli [-o OUTPUT.ttf] [-v|-q] INPUT.ttf [AXIS=LOC ...]
//
// Each AXIS=LOC pins one variation axis to a user-space location, e.g.
// wdth=85 or wght=400. The output defaults to INPUT-instance.ttf.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/npillmayer/varinstance"
	"github.com/npillmayer/varinstance/instance"
	"github.com/pterm/pterm"
)

// tracer traces with key 'varinstance'
func tracer() tracing.Trace {
	return tracing.Select("varinstance")
}

func main() {
	initDisplay()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":   "go",
		"trace.varinstance": "Info",
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Println("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	// command line flags
	output := flag.String("o", "", "Output instance TTF file (default: INPUT-instance.ttf)")
	verbose := flag.Bool("v", false, "Run more verbosely")
	quiet := flag.Bool("q", false, "Turn verbosity off")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: %s [-o OUTPUT.ttf] [-v|-q] INPUT.ttf [AXIS=LOC ...]\n",
			filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if *verbose && *quiet {
		pterm.Error.Println("-v and -q are mutually exclusive")
		os.Exit(2)
	}
	level := tracing.LevelInfo
	if *verbose {
		level = tracing.LevelDebug
	} else if *quiet {
		level = tracing.LevelError
	}
	for _, key := range []string{"varinstance", "varinstance.ot", "varinstance.instance"} {
		tracing.Select(key).SetTraceLevel(level)
	}

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	infile := flag.Arg(0)
	outfile := *output
	if outfile == "" {
		outfile = strings.TrimSuffix(infile, filepath.Ext(infile)) + "-instance.ttf"
	}

	limits, err := instance.ParseLimits(flag.Args()[1:])
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(2)
	}
	tracer().Infof("restricting axes: %v", limits)

	tracer().Infof("loading variable font")
	f, err := varinstance.LoadFont(infile)
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(3)
	}
	if !*quiet {
		printAxes(f)
	}

	out, err := varinstance.Instantiate(f, limits, true)
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(4)
	}

	tracer().Infof("saving partial variable font %s", outfile)
	if err := out.WriteFile(outfile); err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(5)
	}
	pterm.Info.Printf("wrote %s\n", outfile)
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// printAxes lists the design axes of the input font.
func printAxes(f *varinstance.Font) {
	if f.OT.Fvar == nil {
		return
	}
	name := f.Fontname
	if name == "" {
		name = "font"
	}
	pterm.Info.Printf("%s has %d variation axes\n", name, len(f.OT.Fvar.Axes))
	for _, a := range f.OT.Fvar.Axes {
		pterm.Info.Printf("  %s  min %g  default %g  max %g\n", a.Tag, a.Min, a.Default, a.Max)
	}
}
