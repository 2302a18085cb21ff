package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mmgio "github.com/matzehuels/mmgreduce/pkg/io"
	"github.com/matzehuels/mmgreduce/pkg/pipeline"
)

// reduceFlags holds the flags of the reduce command that are not pipeline
// options.
type reduceFlags struct {
	output  string // artifact path (derived from --edges if empty)
	weights string // weight table file
	noCache bool   // disable caching
}

// reduceCommand creates the reduce command.
func (c *CLI) reduceCommand() *cobra.Command {
	var flags reduceFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "reduce",
		Short: "Reduce node and edge tables to a social network",
		Long: `Reduce node and edge tables to a social network.

Both tables are ';'-separated with a header row:

  nodes: id;type;label;icon        (label and icon optional)
  edges: id;source;target;type;weight;label   (label optional)

Every node whose type is not the projected type (PERSON by default) is
folded away. Each link of the result keeps the ids of the original edges it
summarizes, and an expression that recomputes its weight from theirs.

Results are cached; use --refresh to recompute or --no-cache to bypass the
cache completely.

Examples:
  mmgreduce reduce --nodes nodes.csv --edges edges.csv
  mmgreduce reduce --nodes nodes.csv --edges edges.csv --ring sum-max -o case.json
  mmgreduce reduce --nodes nodes.csv --edges edges.csv --weights weights.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runReduce(cmd, opts, flags)
		},
	}

	cmd.Flags().StringVar(&opts.NodesPath, "nodes", "", "node table (required)")
	cmd.Flags().StringVar(&opts.EdgesPath, "edges", "", "edge table (required)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "artifact file (default <edges>"+artifactSuffix+")")
	cmd.Flags().StringVarP(&opts.ProjectedType, "projected-type", "p", "", "node type of the social network (default "+pipeline.DefaultProjectedType+")")
	cmd.Flags().StringVarP(&opts.Ring, "ring", "r", "", "weight ring: max-product (default), sum-max")
	cmd.Flags().IntVar(&opts.PathLimit, "path-limit", 0, fmt.Sprintf("paths enumerated per pair of projected nodes, negative for unlimited (default %d)", pipeline.DefaultPathLimit))
	cmd.Flags().StringVarP(&flags.weights, "weights", "w", "", "weight table (type;value CSV or TOML [weights])")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even if cached")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "verify provenance invariants after every phase")
	_ = cmd.MarkFlagRequired("nodes")
	_ = cmd.MarkFlagRequired("edges")

	return cmd
}

// runReduce executes the pipeline and writes the artifact.
func (c *CLI) runReduce(cmd *cobra.Command, opts pipeline.Options, flags reduceFlags) error {
	ctx := cmd.Context()
	out := newPrinter(cmd.OutOrStdout())

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if flags.weights != "" {
		if opts.Weights, err = mmgio.ImportWeights(flags.weights); err != nil {
			return err
		}
	}
	cfg.Apply(&opts)
	opts.Logger = loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, cfg, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(opts.Logger)
	spinner := newSpinner(ctx, cmd.ErrOrStderr(), "Reducing...")
	restore := reportPhases(spinner)
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	restore()
	if err != nil {
		spinner.StopWithError(out, "Reduction failed")
		return err
	}
	spinner.Stop()

	output := flags.output
	if output == "" {
		output = defaultOutput(opts.EdgesPath)
	}
	if err := os.WriteFile(output, result.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	prog.done(fmt.Sprintf("Reduced %s", opts.EdgesPath))

	res := result.Artifact.Result
	social := res.Social()
	out.success("Reduced to %d %s nodes and %d links", social.NodeCount(), res.ProjectedType, social.EdgeCount())
	out.stats(result.Stats, result.CacheHit)
	out.keyValue("Ring", res.Ring.Name())
	out.keyValue("Discarded", fmt.Sprintf("%d edges", len(res.Discarded)))
	if result.Reweighted > 0 {
		out.keyValue("Reweighted", fmt.Sprintf("%d links", result.Reweighted))
	}
	if extra := res.Reduced.NodeCount() - social.NodeCount(); extra > 0 {
		out.warning("%d non-%s nodes remain on unresolved cycles", extra, res.ProjectedType)
	}
	if missing := res.Coverage(); len(missing) > 0 {
		out.warning("%d original edges are not accounted for: %v", len(missing), missing)
	}
	out.file(output)
	out.nextStep("Inspect the links", "mmgreduce inspect "+output)
	return nil
}
