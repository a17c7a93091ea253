package main

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	RootCmd.AddCommand(ConvertCmd)
	RootCmd.SilenceUsage = true
	RootCmd.SilenceErrors = true
}

// RootCmd is the base command for the esp2js binary.
var RootCmd = &cobra.Command{
	Use:   "esp2js",
	Short: "`esp2js` converts ECMA Server Page templates into JavaScript",
	Long:  "`esp2js` converts ECMA Server Page templates into JavaScript",
}
