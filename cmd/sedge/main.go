// Command sedge is a stream editor built for bulk throughput: vectorised
// literal search on the host and data-parallel dispatch to a compute
// device for large inputs.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ogier/pflag"
	"github.com/pkg/profile"

	"github.com/mhr3/sedge/compute"
	"github.com/mhr3/sedge/config"
	"github.com/mhr3/sedge/editor"
	"github.com/mhr3/sedge/engine"
	"github.com/mhr3/sedge/script"
)

const (
	exitOK    = 0
	exitError = 1 // unrecoverable parse or matcher error
	exitIO    = 2
)

// stringList collects a repeatable flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

var (
	optExprs       stringList
	optFiles       stringList
	optQuiet       = pflag.BoolP("quiet", "n", false, "suppress automatic printing; only p emits lines")
	optSilent      = pflag.Bool("silent", false, "same as --quiet")
	optExtended    = pflag.BoolP("regexp-extended", "E", false, "use extended regular expressions")
	optExtendedR   = pflag.BoolP("r-extended", "r", false, "same as --regexp-extended")
	optInPlace     = pflag.BoolP("in-place", "i", false, "edit files in place")
	optVerbose     = pflag.BoolP("verbose", "V", false, "print backend and timing diagnostics to stderr")
	optHelp        = pflag.BoolP("help", "h", false, "print usage and exit")
	optConfig      = pflag.String("config", "", "tuning file (TOML)")
	optProfile     = pflag.Bool("profile", false, "write a CPU profile; the location is printed on exit")
	optAuto        = pflag.Bool("auto", false, "select the backend per workload (default)")
	optGPU         = pflag.Bool("gpu", false, "force the compute device")
	optCPU         = pflag.Bool("cpu", false, "force the host matcher")
	optMetal       = pflag.Bool("metal", false, "same as --gpu")
	optVulkan      = pflag.Bool("vulkan", false, "same as --gpu")
)

func init() {
	pflag.VarP(&optExprs, "expression", "e", "append an expression to the pipeline (repeatable)")
	pflag.VarP(&optFiles, "file", "f", "append expressions from a script file, one per line (repeatable)")
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: sedge [options] [script] [input ...]\n\n")
	fmt.Fprintf(os.Stderr, "With no -e or -f, the first argument is the script. Input '-' means stdin.\n\n")
	pflag.PrintDefaults()
}

func main() {
	os.Exit(run())
}

func run() int {
	pflag.Usage = usage
	pflag.Parse()
	if *optHelp {
		usage()
		return exitOK
	}

	if *optProfile {
		defer profile.Start(profile.ProfilePath(".")).Stop()
	}
	defer compute.Shutdown()

	verbosef := func(string, ...any) {}
	if *optVerbose {
		verbosef = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "sedge: "+format+"\n", args...)
		}
	}

	tuning := config.Default()
	if *optConfig != "" {
		var err error
		tuning, err = config.Load(*optConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sedge: %v\n", err)
			return exitError
		}
	}

	scripts := []string(optExprs)
	for _, path := range optFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sedge: %v\n", err)
			return exitIO
		}
		scripts = append(scripts, string(data))
	}

	args := pflag.Args()
	if len(scripts) == 0 {
		if len(args) == 0 {
			usage()
			return exitError
		}
		scripts = append(scripts, args[0])
		args = args[1:]
	}
	inputs := args
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}

	dialect := script.Basic
	if *optExtended || *optExtendedR {
		dialect = script.Extended
	}
	var cmds []script.Command
	for _, s := range scripts {
		parsed, err := script.Parse(s, dialect)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sedge: %v\n", err)
			return exitError
		}
		cmds = append(cmds, parsed...)
	}

	force := engine.Auto
	switch {
	case *optCPU || tuning.Backend == "cpu" && !*optGPU && !*optMetal && !*optVulkan && !*optAuto:
		force = engine.ForceHost
	case *optGPU || *optMetal || *optVulkan || tuning.Backend == "gpu":
		force = engine.ForceDevice
	}

	eng := engine.New(engine.Options{
		Thresholds: engine.Thresholds{
			HostMax:   int(tuning.HostMaxBytes),
			DeviceMax: int(tuning.DeviceMaxBytes),
		},
		Force:      force,
		MaxMatches: uint32(tuning.MaxResults),
		Log:        verbosef,
	})
	exec := editor.New(eng, editor.Options{Quiet: *optQuiet || *optSilent})

	status := exitOK
	for _, path := range inputs {
		if err := processFile(exec, cmds, path, *optInPlace, verbosef); err != nil {
			fmt.Fprintf(os.Stderr, "sedge: %s: %v\n", path, err)
			code := exitCodeFor(err)
			if code > status {
				status = code
			}
			if code == exitError {
				return exitError
			}
			// I/O errors are fatal for this file only.
		}
	}
	return status
}

func exitCodeFor(err error) int {
	if _, ok := err.(*os.PathError); ok {
		return exitIO
	}
	return exitError
}

func processFile(exec *editor.Executor, cmds []script.Command, path string, inPlace bool, verbosef func(string, ...any)) error {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}

	begin := time.Now()
	out, err := exec.Run(cmds, data)
	if err != nil {
		return err
	}
	verbosef("%s: %d bytes in, %d bytes out, %v", path, len(data), len(out), time.Since(begin))

	if inPlace && path != "-" {
		// Whole-file rewrite, best effort: not atomic.
		return os.WriteFile(path, out, 0o644)
	}
	_, err = os.Stdout.Write(out)
	return err
}
