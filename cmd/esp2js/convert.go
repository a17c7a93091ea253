package main

import (
	"fmt"
	"io"
	"os"

	esp "github.com/go-esp/esp2js"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var outInitFlag string

func init() {
	ConvertCmd.Flags().StringVar(&outInitFlag, "out-init", "", "override the out-init statement for this run")
}

// ConvertCmd implements `esp2js convert <file>`.
var ConvertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "`convert` translates an ESP template into JavaScript",
	Long:  "`convert` translates an ESP template into JavaScript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logVerbose := cfg.Verbose
		if cmd.Flags().Changed("verbose") {
			logVerbose = verbose
		}
		log := newLogger(logVerbose)

		outInit := cfg.OutInitStatement
		if outInitFlag != "" {
			outInit = outInitFlag
		}

		src, err := openInput(args[0])
		if err != nil {
			log.WithError(err).WithField("file", args[0]).Error("failed to open template")
			return err
		}
		defer src.Close()

		if err := convert(args[0], outInit, src, cmd.OutOrStdout(), log); err != nil {
			log.WithError(err).WithField("file", args[0]).Error("conversion failed")
			return err
		}
		return nil
	},
}

// convert runs one ESP template, read from src, through esp.NewReader and
// writes the resulting JavaScript to w. name is used only for log
// messages. It is factored out of ConvertCmd.RunE so it can be exercised
// directly by tests, without going through Cobra.
func convert(name, outInit string, src io.Reader, w io.Writer, log *logrus.Logger) error {
	log.WithField("file", name).Info("converting")

	r := esp.NewReader(src)
	if outInit != "" {
		r.SetOutInit(outInit)
	}

	js, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("converting %s: %w", name, err)
	}
	if len(js) == 0 {
		log.WithField("file", name).Warn("template produced no output")
	}

	_, err = w.Write(js)
	return err
}

func openInput(name string) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(name)
}
