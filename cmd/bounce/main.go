package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/AnatoleLucet/bounce/internal/scenario"
)

func main() {
	if err := fang.Execute(context.Background(), newRootCmd()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var level string

	log := logrus.New()
	log.SetOutput(os.Stderr)

	cmd := &cobra.Command{
		Use:   "bounce",
		Short: "Trace event propagation scenarios",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(level)
			if err != nil {
				return errors.Wrap(err, "log level")
			}
			log.SetLevel(lvl)

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&level, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newTraceCmd(log), newPlanCmd(log))

	return cmd
}

func newTraceCmd(log logrus.FieldLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "trace FILE",
		Short: "Run a scenario and print every listener, action and default action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scenario.Load(args[0])
			if err != nil {
				return err
			}

			trace, runErr := scenario.Run(s, scenario.WithLogger(log.WithField("scenario", args[0])))

			out := cmd.OutOrStdout()
			printTitle(out, s, args[0])
			for _, line := range trace {
				fmt.Fprintln(out, strings.Repeat("  ", line.Depth)+styleFor(line.Kind).Render(line.Text))
			}

			return runErr
		},
	}
}

func newPlanCmd(log logrus.FieldLogger) *cobra.Command {
	var (
		target   string
		composed bool
	)

	cmd := &cobra.Command{
		Use:   "plan FILE",
		Short: "Print the boundaries an event dispatched at a node would traverse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scenario.Load(args[0])
			if err != nil {
				return err
			}

			r, err := scenario.New(s, scenario.WithLogger(log))
			if err != nil {
				return err
			}

			lines, err := r.Plan(target, composed)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printTitle(out, s, args[0])
			for _, line := range lines {
				fmt.Fprintln(out, ListenerStyle.Render(line))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "Node the event is dispatched at")
	cmd.Flags().BoolVar(&composed, "composed", true, "Cross boundaries")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func printTitle(out io.Writer, s *scenario.Scenario, path string) {
	title := s.Name
	if title == "" {
		title = path
	}

	fmt.Fprintln(out, TitleStyle.Render(title))
}
