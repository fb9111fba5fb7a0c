package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hesusruiz/cameltex/camel"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// Extensions of the output file for each format
var outputExtension = map[camel.Format]string{
	camel.FormatXML:     ".xml",
	camel.FormatRecords: ".jsonl",
	camel.FormatLabels:  ".labels",
	camel.FormatText:    ".txt",
}

// compile parses the input file and serializes the document.
// The output is written only when outputFileName is not empty.
func compile(inputFileName string, outputFileName string, format camel.Format, opts []camel.Option, sugar *zap.SugaredLogger) error {

	doc, err := camel.ParseFromFile(inputFileName, opts...)
	if err != nil {
		var se *camel.SyntaxError
		if errors.As(err, &se) {
			sugar.Errorw("parse failed", "file", se.Filename, "line", se.Line, "column", se.Column, "error", se.Msg)
		}
		return err
	}

	for _, w := range doc.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %v\n", w)
	}

	var out bytes.Buffer
	if err := doc.Serialize(&out, format); err != nil {
		return err
	}

	// Do nothing if flag dryrun was specified
	if len(outputFileName) == 0 {
		return nil
	}

	return os.WriteFile(outputFileName, out.Bytes(), 0664)
}

// processWatch checks periodically if an input file (inputFileName) has been modified, and if so
// it compiles the file and writes the result to the output file (outputFileName)
func processWatch(inputFileName string, outputFileName string, format camel.Format, opts []camel.Option, sugar *zap.SugaredLogger) error {

	var oldTimestamp time.Time
	var currentTimestamp time.Time

	// Loop forever
	for {

		// Get the modified timestamp of the input file
		info, err := os.Stat(inputFileName)
		if err != nil {
			return err
		}
		currentTimestamp = info.ModTime()

		// If current modified timestamp is newer than the previous timestamp, process the file
		if oldTimestamp.Before(currentTimestamp) {
			oldTimestamp = currentTimestamp
			fmt.Println("************Processing*************")

			// A broken document is reported but does not stop watching
			if err := compile(inputFileName, outputFileName, format, opts, sugar); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
		}

		// Check again in one second
		time.Sleep(1 * time.Second)

	}
}

// process is the main entry point of the program
func process(c *cli.Context) error {

	// Default input file name
	var inputFileName = "main.tex"

	// Output file name command line parameter
	outputFileName := c.String("output")

	// Dry run
	dryrun := c.Bool("dryrun")

	debug := c.Bool("debug")

	format, err := camel.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}

	var z *zap.Logger

	// Setup the logging system
	if debug {
		z, err = zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
	} else {
		z, err = zap.NewProduction()
		if err != nil {
			panic(err)
		}
	}

	sugar := z.Sugar()
	defer sugar.Sync()

	// Get the input file name
	if c.Args().Present() {
		inputFileName = c.Args().First()
	} else {
		fmt.Printf("no input file provided, using \"%v\"\n", inputFileName)
	}

	// The configuration file is optional, and by default is next to the input file
	configFileName := c.String("config")
	if len(configFileName) == 0 {
		configFileName = filepath.Join(filepath.Dir(inputFileName), "camel.yaml")
	}
	config, err := camel.ReadConfigFile(configFileName)
	if err != nil {
		return err
	}

	opts := []camel.Option{
		camel.WithYAML(config),
		camel.WithLogger(sugar),
	}

	// Generate the output file name
	if len(outputFileName) == 0 {
		ext := filepath.Ext(inputFileName)
		outputFileName = strings.TrimSuffix(inputFileName, ext) + outputExtension[format]
	}

	// Print a message
	if !dryrun {
		fmt.Printf("processing %v and generating %v\n", inputFileName, outputFileName)
	} else {
		fmt.Printf("dry run: processing %v without writing output\n", inputFileName)
		outputFileName = ""
	}

	// This is useful for development.
	// If the user specified to watch, loop forever processing the input file when modified
	if c.Bool("watch") {
		return processWatch(inputFileName, outputFileName, format, opts, sugar)
	}

	return compile(inputFileName, outputFileName, format, opts, sugar)
}

func main() {

	app := &cli.App{
		Name:     "cameltex",
		Version:  "v0.1",
		Compiled: time.Now(),
		Authors: []*cli.Author{
			{
				Name:  "Jesus Ruiz",
				Email: "hesus.ruiz@gmail.com",
			},
		},
		Usage:     "compile a camel LaTeX book into a numbered document tree",
		UsageText: "cameltex [options] [INPUT_FILE] (default input file is main.tex)",
		Action:    process,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "write the result to `FILE` (default is input file name with the extension of the format)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   string(camel.FormatXML),
				Usage:   "output format: xml, records, labels or text",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "read the configuration from `FILE` (default is camel.yaml next to the input file)",
			},
			&cli.BoolFlag{
				Name:    "dryrun",
				Aliases: []string{"n"},
				Usage:   "do not generate output file, just process input file",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "run in debug mode",
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "watch the file for changes",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

}
