package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"chartboard/internal/model"
	"chartboard/internal/normalize"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <raw.json|->",
	Short: "Normalize a raw analysis response and print the payload with its chart projection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data []byte
			err  error
		)
		if args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		out, err := normalizeDocument(data)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

type normalizeOutput struct {
	ChartType  model.ChartType      `json:"chartType"`
	Payload    model.CleanPayload   `json:"payload"`
	Projection normalize.Projection `json:"projection"`
}

func normalizeDocument(data []byte) (normalizeOutput, error) {
	raw, err := model.DecodeRawPayload(data)
	if err != nil {
		return normalizeOutput{}, err
	}
	cleaned := normalize.Normalize(raw)
	return normalizeOutput{
		ChartType:  normalize.Classify(cleaned.ChartType),
		Payload:    cleaned,
		Projection: normalize.Project(&cleaned),
	}, nil
}
