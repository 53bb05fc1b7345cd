// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/ezrec/palx/config"
	"github.com/ezrec/palx/internal"
	"github.com/ezrec/palx/internal/logger"
	"github.com/ezrec/palx/listing"
	"github.com/ezrec/palx/pal"
	"github.com/ezrec/palx/tape"
)

const (
	SOURCE_TYPE  = ".plx" // Default source file extension
	LISTING_TYPE = ".lst" // Listing file extension
	BINARY_TYPE  = ".bin" // Binary file extension
)

type flags struct {
	list    string
	binary  string
	lines   int
	columns int
	os8     bool
	asr     bool
	config  string
	defines []string
	verbose bool
	noColor bool
	dump    bool
}

// fileNames returns the source, listing and binary file names. The source
// gets the default extension if it has none, and the listing and binary
// default to the source name with their own extensions.
func fileNames(source, list, binary string) (string, string, string) {
	if filepath.Ext(source) == "" {
		source += SOURCE_TYPE
	}
	base := strings.TrimSuffix(source, filepath.Ext(source))
	if list == "" {
		list = base + LISTING_TYPE
	}
	if binary == "" {
		binary = base + BINARY_TYPE
	}
	return source, list, binary
}

// settings merges the configuration file and the command line.
func (fl *flags) settings(cmd *cobra.Command) (cfg *config.Config, err error) {
	cfg = config.Default()
	if fl.config != "" {
		cfg, err = config.Load(fl.config, nil)
		if err != nil {
			return
		}
	}

	if cmd.Flags().Changed("lines") {
		cfg.LinesPerPage = fl.lines
	}
	if cmd.Flags().Changed("columns") {
		cfg.ColumnsPerPage = fl.columns
	}
	if fl.os8 {
		cfg.Options.Sixbit = pal.SIXBIT_OS8
	}
	if fl.asr {
		cfg.Options.Ascii = pal.ASCII_ALWAYS_MARK
	}

	for _, define := range fl.defines {
		_, _, err = cfg.EvalDefine(define)
		if err != nil {
			return
		}
	}

	return
}

func (fl *flags) run(cmd *cobra.Command, args []string) (err error) {
	logger.Init(fl.verbose, fl.noColor)
	log.Info(listing.Banner)

	cfg, err := fl.settings(cmd)
	if err != nil {
		return
	}

	sourceName, listName, binaryName := fileNames(args[0], fl.list, fl.binary)

	source, err := os.Open(sourceName)
	if err != nil {
		return
	}
	defer source.Close()

	listFile, err := os.Create(listName)
	if err != nil {
		return
	}
	defer listFile.Close()

	binaryFile, err := os.Create(binaryName)
	if err != nil {
		return
	}
	defer binaryFile.Close()

	lw := listing.NewWriter(listFile, sourceName)
	lw.Errors = cmd.ErrOrStderr()
	lw.LinesPerPage = cfg.LinesPerPage
	lw.ColumnsPerPage = cfg.ColumnsPerPage

	tw := tape.NewWriter(binaryFile)

	asm := pal.NewAssembler()
	asm.Verbose = fl.verbose
	asm.Options = cfg.Options
	asm.Lister = lw
	asm.Object = tw
	for name, value := range internal.SortedMap(cfg.Defines) {
		asm.Predefine(name, value)
	}

	result, err := asm.Assemble(pal.NewReaderSource(source))
	if err != nil {
		return
	}

	err = tw.Close()
	if err != nil {
		return
	}

	err = lw.Finish(result)
	if err != nil {
		return
	}

	log.Info(listing.BreakMessage(result))
	if result.Errors > 0 {
		log.Warn(listing.ErrorMessage(result))
	} else {
		log.Info(listing.ErrorMessage(result))
	}

	if fl.dump {
		printer := pp.New()
		printer.SetOutput(cmd.OutOrStdout())
		printer.SetColoringEnabled(!fl.noColor)
		printer.Println(result.Symbols)
	}

	return
}

func newRootCommand() *cobra.Command {
	fl := &flags{}

	cmd := &cobra.Command{
		Use:           "palx [flags] source",
		Short:         "PDP-8, IM6100 and HD6120 cross assembler",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          fl.run,
	}

	pf := cmd.Flags()
	pf.StringVarP(&fl.list, "list", "l", "", "listing file name")
	pf.StringVarP(&fl.binary, "binary", "b", "", "binary file name")
	pf.IntVarP(&fl.lines, "lines", "p", listing.LINES_PER_PAGE, "listing lines per page")
	pf.IntVarP(&fl.columns, "columns", "w", listing.COLUMNS_PER_PAGE, "listing columns per page")
	pf.BoolVarP(&fl.os8, "os8", "8", false, "use OS/8 SIXBIT packing")
	pf.BoolVarP(&fl.asr, "asr", "a", false, "use ASR-33 always mark ASCII")
	pf.StringVarP(&fl.config, "config", "c", "", "Starlark configuration file")
	pf.StringArrayVarP(&fl.defines, "define", "D", nil, "predefine NAME=VALUE")
	pf.BoolVarP(&fl.verbose, "verbose", "v", false, "verbose logging")
	pf.BoolVarP(&fl.noColor, "no-color", "n", false, "disable log colors")
	pf.BoolVar(&fl.dump, "dump", false, "dump the symbol table")

	return cmd
}

func main() {
	err := newRootCommand().Execute()
	if err != nil {
		log.Fatal(err)
	}
}
