// Package format implements the format sub-command, which renders amounts
// on the command line the way the API does.
package format

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vegaprotocol/amounts/amount"
	"github.com/vegaprotocol/amounts/config"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

var (
	// Path to the configuration file. Optional; only its format section is used.
	configFile string
	decimals   int
	output     string

	formatCmd = &cobra.Command{
		Use:   "format VALUE...",
		Short: "Render raw amounts as decimals",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runFormat,
	}
)

// Result is one rendered amount.
type Result struct {
	Raw     string `json:"raw" yaml:"raw"`
	Decimal string `json:"decimal" yaml:"decimal"`
	Fixed   string `json:"fixed" yaml:"fixed"`
	Number  string `json:"number" yaml:"number"`
	Sign    string `json:"sign" yaml:"sign"`
	Class   string `json:"class,omitempty" yaml:"class,omitempty"`
}

// Render renders value scaled by decimalPlaces with f. Malformed values
// yield an error.
func Render(f amount.Format, value string, decimalPlaces int) (Result, error) {
	if !amount.ValidPlaces(decimalPlaces) {
		return Result{}, fmt.Errorf("decimals must be between 0 and %d, got %d", amount.MaxDecimalPlaces, decimalPlaces)
	}
	a, err := amount.ParseStrict(value)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Raw:     a.String(),
		Decimal: f.ScaleToDecimal(a, decimalPlaces),
		Fixed:   f.FormatFixed(a, decimalPlaces),
		Number:  f.FormatNumber(a.Shift(-int32(decimalPlaces)), decimalPlaces),
		Sign:    a.Class().String(),
		Class:   f.Classes.For(a.Class()),
	}, nil
}

func runFormat(cmd *cobra.Command, args []string) error {
	f := amount.DefaultFormat
	if configFile != "" {
		cfg, err := config.InitConfig(configFile)
		if err != nil {
			return err
		}
		f = cfg.Format.Resolve()
	}

	results := make([]Result, 0, len(args))
	for _, v := range args {
		r, err := Render(f, v, decimals)
		if err != nil {
			return err
		}
		results = append(results, r)
	}
	return write(cmd.OutOrStdout(), output, results)
}

func write(w io.Writer, format string, results []Result) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(results)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func init() {
	formatCmd.Flags().StringVar(&configFile, "config", "", "path to a config.yml file with a format section")
	formatCmd.Flags().IntVarP(&decimals, "decimals", "d", 0, "decimal places of the raw values")
	formatCmd.Flags().StringVarP(&output, "output", "o", outputYAML, "output format, json or yaml")
}

// Register registers the format sub-command.
func Register(parentCmd *cobra.Command) {
	parentCmd.AddCommand(formatCmd)
}
