package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/couchcryptid/statemod-etl/internal/domain"
	"github.com/couchcryptid/statemod-etl/internal/statemod"
	"github.com/spf13/cobra"
)

func readCmd(logger func() *slog.Logger) *cobra.Command {
	var (
		tsid     string
		start    string
		end      string
		dataType string
		source   string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "read <file>",
		Short: "Read the series in a StateMod file",
		Long: `Read every series in a StateMod file, or only the one named by --tsid,
and print them as JSON series records or as a table of monthly values.

--start and --end (YYYY-MM) override the file period when both are given;
--end alone stops reading after that month.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			raw := domain.RawFile{
				Key:   []byte(args[0]),
				Value: data,
				Headers: map[string]string{
					domain.HeaderTSID:     tsid,
					domain.HeaderStart:    start,
					domain.HeaderEnd:      end,
					domain.HeaderDataType: dataType,
					domain.HeaderSource:   source,
				},
			}

			series, err := domain.ParseRawFile(raw, statemod.NewReader(logger()), domain.FileDefaults{})
			if err != nil {
				return err
			}

			records := make([]domain.SeriesRecord, 0, len(series))
			for _, s := range series {
				records = append(records, domain.BuildSeriesRecord(s))
			}

			switch format {
			case "json":
				return writeJSON(cmd.OutOrStdout(), records)
			case "table":
				return writeTable(cmd.OutOrStdout(), records)
			default:
				return fmt.Errorf("unknown format %q: use json or table", format)
			}
		},
	}

	cmd.Flags().StringVar(&tsid, "tsid", "", "read only this series identifier")
	cmd.Flags().StringVar(&start, "start", "", "first month to keep (YYYY-MM)")
	cmd.Flags().StringVar(&end, "end", "", "last month to keep (YYYY-MM)")
	cmd.Flags().StringVar(&dataType, "data-type", "", "data type for identifiers (default from file extension)")
	cmd.Flags().StringVar(&source, "source", "", "source for identifiers")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or table")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeTable prints one block per series: the identifier, then a date and
// value row per month. Missing months print as "-".
func writeTable(w io.Writer, records []domain.SeriesRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for i, rec := range records {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "# %s\t%s\t\n", rec.TSID, rec.Units)
		for _, v := range rec.Values {
			value := "-"
			if v.Value != nil {
				value = fmt.Sprintf("%.2f", *v.Value)
			}
			fmt.Fprintf(tw, "%s\t%s\t\n", v.Date, value)
		}
	}
	return tw.Flush()
}
