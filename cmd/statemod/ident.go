package main

import (
	"github.com/couchcryptid/statemod-etl/internal/tsident"
	"github.com/spf13/cobra"
)

type identParts struct {
	Identifier   string `json:"identifier"`
	LocationType string `json:"location_type,omitempty"`
	Location     string `json:"location"`
	SubLocation  string `json:"sub_location,omitempty"`
	Source       string `json:"source"`
	SubSource    string `json:"sub_source,omitempty"`
	DataType     string `json:"data_type"`
	SubType      string `json:"sub_type,omitempty"`
	Interval     string `json:"interval"`
	Scenario     string `json:"scenario,omitempty"`
	SequenceID   string `json:"sequence_id,omitempty"`
	InputType    string `json:"input_type,omitempty"`
	InputName    string `json:"input_name,omitempty"`
}

func identCmd() *cobra.Command {
	var opts tsident.Options

	cmd := &cobra.Command{
		Use:   "ident <tsid>",
		Short: "Split a time-series identifier into its parts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := tsident.Parse(args[0], opts)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), identParts{
				Identifier:   id.Identifier(),
				LocationType: id.LocationType(),
				Location:     id.MainLocation(),
				SubLocation:  id.SubLocation(),
				Source:       id.MainSource(),
				SubSource:    id.SubSource(),
				DataType:     id.MainType(),
				SubType:      id.SubType(),
				Interval:     id.Interval(),
				Scenario:     id.Scenario(),
				SequenceID:   id.SequenceID(),
				InputType:    id.InputType(),
				InputName:    id.InputName(),
			})
		},
	}

	cmd.Flags().BoolVar(&opts.NoSubLocation, "no-sub-location", false, "treat '-' in the location as literal")
	cmd.Flags().BoolVar(&opts.NoSubSource, "no-sub-source", false, "treat '-' in the source as literal")
	cmd.Flags().BoolVar(&opts.NoSubType, "no-sub-type", false, "treat '-' in the data type as literal")
	return cmd
}
