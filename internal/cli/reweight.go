package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	mmgio "github.com/matzehuels/mmgreduce/pkg/io"
	"github.com/matzehuels/mmgreduce/pkg/pipeline"
)

// reweightCommand creates the reweight command.
func (c *CLI) reweightCommand() *cobra.Command {
	var weights, output string

	cmd := &cobra.Command{
		Use:   "reweight <artifact.json>",
		Short: "Apply a weight table to a stored reduction",
		Long: `Apply a per-type weight table to a stored reduction.

Original edges whose type appears in the table take the new weight; all other
edges keep theirs. Every link of the social network is then recomputed from
the evidence it was built from, which gives the same weights as reducing the
reweighted tables from scratch.

The weight table is either a ';'-separated file with the columns type;value
or a TOML file with a [weights] table. Weights from the config file are used
when --weights is not given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runReweight(cmd, args[0], weights, output)
		},
	}

	cmd.Flags().StringVarP(&weights, "weights", "w", "", "weight table (type;value CSV or TOML [weights])")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (overwrites the input if empty)")

	return cmd
}

// runReweight loads the artifact, applies the weights and writes it back.
func (c *CLI) runReweight(cmd *cobra.Command, input, weightsPath, output string) error {
	logger := loggerFromContext(cmd.Context())
	prog := newProgress(logger)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	table := cfg.Weights
	if weightsPath != "" {
		if table, err = mmgio.ImportWeights(weightsPath); err != nil {
			return err
		}
	}
	if len(table) == 0 {
		return fmt.Errorf("no weights given: use --weights or a [weights] table in the config file")
	}

	a, err := mmgio.ImportArtifact(input)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(nil, nil, logger)
	changed, err := runner.Reweight(a, table)
	if err != nil {
		return err
	}

	if output == "" {
		output = input
	}
	if err := mmgio.ExportArtifact(a, output); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Reweighted %s", input))

	out := newPrinter(cmd.OutOrStdout())
	out.success("Updated %d of %d links", changed, a.Result.Reduced.EdgeCount())
	out.file(output)
	return nil
}
