package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	mmgio "github.com/matzehuels/mmgreduce/pkg/io"
	"github.com/matzehuels/mmgreduce/pkg/mmg"
	"github.com/matzehuels/mmgreduce/pkg/mmg/reduce"
)

// inspectOpts holds the flags of the inspect command.
type inspectOpts struct {
	edge    string // only links built from this original edge
	compute bool   // print compute expressions
	phases  bool   // print per-phase statistics
	types   bool   // print the weight of each original edge type
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var opts inspectOpts

	cmd := &cobra.Command{
		Use:   "inspect <artifact.json>",
		Short: "Show the links of a reduction and the evidence behind them",
		Long: `Show the links of a reduction and the evidence behind them.

Links are listed by descending weight together with the ids of the original
edges they summarize. With --edge, only the links built from that original
edge are listed, or the edge is reported as discarded. With --types, the
weight of every original edge type is listed as well, which is the starting
point for a weight table passed to reweight.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := mmgio.ImportArtifact(args[0])
			if err != nil {
				return err
			}
			return writeInspect(cmd.OutOrStdout(), a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.edge, "edge", "e", "", "only show links built from this original edge id")
	cmd.Flags().BoolVarP(&opts.compute, "compute", "c", false, "show how each weight is computed")
	cmd.Flags().BoolVar(&opts.phases, "phases", false, "show per-phase statistics")
	cmd.Flags().BoolVarP(&opts.types, "types", "t", false, "show the weight of each edge type")

	return cmd
}

// writeInspect renders the artifact summary and its links to w.
func writeInspect(w io.Writer, a *mmgio.Artifact, opts inspectOpts) error {
	res := a.Result
	keyStyle := StyleDim.Width(12)
	kv := func(k, v string) {
		fmt.Fprintln(w, keyStyle.Render(k)+" "+StyleValue.Render(v))
	}

	fmt.Fprintln(w, StyleTitle.Render("Reduction "+a.RunID.String()))
	kv("Created", a.CreatedAt.Format("2006-01-02 15:04:05"))
	kv("Ring", res.Ring.Name())
	kv("Projected", res.ProjectedType)
	kv("Original", fmt.Sprintf("%d nodes, %d edges", res.Original.NodeCount(), res.Original.EdgeCount()))
	kv("Reduced", fmt.Sprintf("%d nodes, %d edges", res.Reduced.NodeCount(), res.Reduced.EdgeCount()))
	kv("Discarded", fmt.Sprintf("%d edges", len(res.Discarded)))

	if opts.phases {
		fmt.Fprintln(w)
		writePhases(w, res.Stats)
	}
	if opts.types {
		fmt.Fprintln(w)
		writeTypes(w, reduce.TypeWeights(res))
	}

	links := res.Edges()
	if opts.edge != "" {
		if _, ok := res.Original.EdgeByKey(opts.edge); !ok {
			return fmt.Errorf("no original edge %q", opts.edge)
		}
		if slices.Contains(res.Discarded, opts.edge) {
			fmt.Fprintln(w)
			fmt.Fprintln(w, StyleWarning.Render(fmt.Sprintf("edge %s was discarded: it contributes to no link", opts.edge)))
			return nil
		}
		links = slices.DeleteFunc(links, func(ed mmg.Edge) bool {
			return !slices.Contains(ed.History, opts.edge)
		})
	}
	slices.SortStableFunc(links, func(x, y mmg.Edge) int {
		switch {
		case x.Weight > y.Weight:
			return -1
		case x.Weight < y.Weight:
			return 1
		}
		return 0
	})

	fmt.Fprintln(w)
	for _, ed := range links {
		fmt.Fprintln(w, formatLink(res.Reduced, ed))
		fmt.Fprintln(w, "  "+StyleDim.Render("evidence: "+strings.Join(ed.History, ", ")))
		if opts.compute {
			fmt.Fprintln(w, "  "+StyleDim.Render("weight:   "+ed.Compute.String()))
		}
	}
	return nil
}

// formatLink renders "<a> — <b>  <weight>" with node labels.
func formatLink(g *mmg.Graph, ed mmg.Edge) string {
	return fmt.Sprintf("%s %s %s  %s",
		StyleHighlight.Render(nodeLabel(g, ed.From)),
		StyleDim.Render("—"),
		StyleHighlight.Render(nodeLabel(g, ed.To)),
		StyleNumber.Render(fmt.Sprintf("%.4g", ed.Weight)))
}

func nodeLabel(g *mmg.Graph, id mmg.NodeID) string {
	n, ok := g.Node(id)
	if !ok {
		return id.String()
	}
	if n.Label != "" && n.Label != n.Key {
		return fmt.Sprintf("%s (%s)", n.Label, n.Key)
	}
	return n.Key
}

func writePhases(w io.Writer, s reduce.Stats) {
	for i, p := range s.Phases {
		fmt.Fprintf(w, "%s %-22s %6d nodes %6d edges  %s\n",
			StyleDim.Render(fmt.Sprintf("%d.", i+1)), p.Phase, p.Nodes, p.Edges, p.Duration)
	}
	fmt.Fprintf(w, "%s pruned=%d merged=%d contracted=%d pairs=%d paths=%d/%d total=%s\n",
		StyleDim.Render("·"), s.NodesPruned, s.ClassesMerged, s.NodesContracted,
		s.PairsProcessed, s.PathsSelected, s.PathsEnumerated, s.Total)
}

// writeTypes lists edge types by descending weight. A type whose edges
// disagree shows its weight range.
func writeTypes(w io.Writer, types []reduce.TypeWeight) {
	for _, tw := range types {
		weight := fmt.Sprintf("%.4g", tw.Max)
		if tw.Min != tw.Max {
			weight = fmt.Sprintf("%.4g..%.4g", tw.Min, tw.Max)
		}
		fmt.Fprintf(w, "%-16s %s  %s\n", tw.Type, StyleNumber.Render(weight),
			StyleDim.Render(fmt.Sprintf("(%d edges)", tw.Edges)))
	}
}
