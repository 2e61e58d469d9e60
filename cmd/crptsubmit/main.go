/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Command crptsubmit submits goods introduction documents to the CRPT registry
// without exceeding the configured request rate. It can also run a local registry stub.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		code := 1
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		os.Exit(code)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "crptsubmit",
		Usage: "throttled document submission to the CRPT registry",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML or JSON config file",
				EnvVars: []string{envVarsPrefix + "_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file with " + envVarsPrefix + "_* variables",
				Value: ".env",
			},
		},
		// Errors are reported by main.
		ExitErrHandler: func(*cli.Context, error) {},
		Before: func(c *cli.Context) error {
			return loadEnvFile(c.String("env-file"))
		},
		Commands: []*cli.Command{
			{
				Name:      "submit",
				Usage:     "submit copies of a document",
				ArgsUsage: " ",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "JSON document to submit", Required: true},
					&cli.StringFlag{Name: "signature", Usage: "document signature"},
					&cli.StringFlag{Name: "signature-file", Usage: "file with the document signature"},
					&cli.IntFlag{Name: "copies", Usage: "number of copies to submit", Value: 1},
					&cli.IntFlag{Name: "workers", Usage: "number of concurrent submitters (0 means the throttle limit)"},
					&cli.IntFlag{Name: "retries", Usage: "retries of temporarily failed submissions"},
					&cli.DurationFlag{Name: "retry-interval", Usage: "delay between retries", Value: defaultRetryInterval},
					&cli.DurationFlag{Name: "report-interval", Usage: "period of throttle state reports (0 disables them)"},
				},
				Action: runSubmit,
			},
			{
				Name:   "stub",
				Usage:  "run the registry stub until SIGINT or SIGTERM",
				Action: runStub,
			},
		},
	}
}
