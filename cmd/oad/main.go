package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/aerodesign/oad"
	_ "github.com/aerodesign/oad/models"
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// This command reads a problem configuration file, and evaluates or optimizes it.

const defaultConf = "~~unset~~"

var (
	confPath   string
	genInputs  string
	optimize   bool
	listDomain string
	verbose    bool
)

func init() {
	// Read flags
	flag.StringVar(&confPath, "conf", defaultConf, "problem configuration YAML file")
	flag.StringVar(&genInputs, "gen-inputs", "", "write the input file of the problem, with values from this file when not empty")
	flag.BoolVar(&optimize, "optim", false, "run the optimization driver instead of a single evaluation")
	flag.StringVar(&listDomain, "list", "", "list the registered systems of a domain (`all` for every domain) and exit")
	flag.BoolVar(&verbose, "verbose", false, "keep the debug records")
}

func main() {
	flag.Parse()
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	if verbose {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}
	oad.SetLogger(kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC))

	if listDomain != "" {
		listModules(listDomain)
		return
	}
	if confPath == defaultConf {
		log.Fatal("no configuration provided")
	}
	p, err := oad.LoadProblem(confPath, nil)
	if err != nil {
		log.Fatalf("could not load %s: %s", confPath, err)
	}

	if isSet("gen-inputs") {
		writeInputs(p)
		return
	}

	if err := p.ReadInputFile(); err != nil {
		log.Fatalf("could not read the inputs: %s", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if optimize {
		err = p.RunDriver(ctx)
	} else {
		err = p.RunModel()
	}
	if err != nil {
		log.Fatalf("run failed: %s", err)
	}
	if err := p.WriteOutputFile(); err != nil {
		log.Fatalf("could not write the outputs: %s", err)
	}
	if d, ok := p.Driver.(*oad.OptimizationDriver); ok && optimize && d.Result != nil {
		fmt.Printf("optimization %s after %d evaluations (converged: %v)\n", d.Result.Status, d.Result.Evaluations, d.Result.Converged)
		for name, x := range d.Result.X {
			fmt.Printf("  %s = %g\n", name, x)
		}
		fmt.Printf("  %s = %g\n", d.Objective.Name, d.Result.Objective)
	}
	if p.OutputFile != "" {
		fmt.Printf("outputs written to %s\n", p.OutputFile)
	}
}

func isSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func writeInputs(p *oad.Problem) {
	if p.InputFile == "" {
		log.Fatal("the configuration has no input_file")
	}
	source := oad.VariableList{}
	if genInputs != "" {
		var err error
		if source, err = oad.ReadVariables(genInputs); err != nil {
			log.Fatalf("could not read %s: %s", genInputs, err)
		}
	}
	if err := p.WriteNeededInputs(p.InputFile, source); err != nil {
		log.Fatalf("could not write %s: %s", p.InputFile, err)
	}
	fmt.Printf("inputs written to %s\n", p.InputFile)
}

func listModules(domain string) {
	var infos []oad.ModuleInfo
	if strings.EqualFold(domain, "all") {
		infos = oad.ListModules()
	} else {
		d, err := oad.ModelDomainFromString(domain)
		if err != nil {
			log.Fatal(err)
		}
		infos = oad.ListModules(d)
	}
	for _, info := range infos {
		fmt.Printf("%-28s %-14s %s\n", info.ID, info.Domain, info.Description)
		for _, opt := range info.Options {
			fmt.Printf("    %s (default %v): %s\n", opt.Name, opt.Default, opt.Description)
		}
	}
}
