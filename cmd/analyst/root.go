package main

import (
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aussiebroadwan/dpquery/internal/analyst"
	"github.com/aussiebroadwan/dpquery/pkg/dpsdk"
	"github.com/aussiebroadwan/dpquery/pkg/slogx"
	"github.com/spf13/cobra"
)

const version = "v0.1.0"

type cli struct {
	baseURL  string
	timeout  time.Duration
	logLevel string

	stdout io.Writer
	stderr io.Writer

	logger *slog.Logger
	client *dpsdk.Client
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "analyst",
		Short: "Query a differential-privacy server and compare exact and private answers",
		Long: `analyst talks to a running query server and shows how differential privacy
changes the answers. Point it at a server on another machine with --base-url
or the DPQ_BASE_URL environment variable.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Every subcommand needs a client, so build it once here.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&c.baseURL, "base-url",
		cmp.Or(os.Getenv("DPQ_BASE_URL"), dpsdk.DefaultBaseURL),
		"Query server base URL (scheme://host:port)")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 10*time.Second, "Per-request timeout")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(
		c.analyzeCmd(),
		c.exportCmd(),
		c.healthCmd(),
		c.historyCmd(),
		c.policyCmd(),
	)

	return root
}

func (c *cli) init() error {
	c.logger = slogx.New(slogx.Config{
		Service: "analyst",
		Version: version,
		Env:     "cli",
		Level:   c.logLevel,
		Format:  "text",
		Output:  c.stderr,
	})

	client, err := dpsdk.NewClient(c.baseURL, dpsdk.WithTimeout(c.timeout))
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return err
	}
	c.client = client

	c.logger.Info("client initialized", "server_url", client.BaseURL())
	return nil
}

// fail prints err for the operator and hands it back to cobra for the exit code.
func (c *cli) fail(err error) error {
	fmt.Fprintf(c.stderr, "Error: %v\n", err)
	return err
}

func (c *cli) analyst() *analyst.Analyst {
	return &analyst.Analyst{
		Client: c.client,
		Out:    c.stdout,
		Logger: c.logger,
	}
}
