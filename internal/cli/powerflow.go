package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/radekizk-sketch/mv-design-pro/pkg/netio"
	"github.com/radekizk-sketch/mv-design-pro/pkg/powerflow"
	"github.com/radekizk-sketch/mv-design-pro/pkg/util"
)

func newPowerFlowCmd() *cobra.Command {
	var optionsPath string

	cmd := &cobra.Command{
		Use:   "powerflow <network.json>",
		Short: "Run a Newton-Raphson power-flow study",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			opts, err := loadOptions(optionsPath)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening network file: %v", err)
			}
			defer f.Close()

			g, err := netio.ReadGraph(f)
			if err != nil {
				return err
			}
			logger.Debug("network loaded", "nodes", g.NumNodes(), "branches", len(g.BranchIDs()))

			res, err := powerflow.Solve(g, opts)
			if err != nil {
				return err
			}
			if !res.Converged {
				logger.Warn("power flow did not converge",
					"iterations", res.Iterations, "max_mismatch", res.MaxMismatch, "cause", res.Cause)
			} else {
				logger.Info("power flow converged",
					"iterations", res.Iterations, "max_mismatch", res.MaxMismatch)
			}

			printPowerFlow(cmd, res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&optionsPath, "options", "o", "", "TOML solver options file")
	return cmd
}

func printPowerFlow(cmd *cobra.Command, res *powerflow.Result) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "\nPower Flow Results (slack %s)\n", res.SlackNodeID)
	fmt.Fprintln(out, "==============================")

	nodeIDs := make([]string, 0, len(res.Nodes))
	for id := range res.Nodes {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)

	fmt.Fprintln(out, "\nNode          Vm (pu)     Angle         U")
	for _, id := range nodeIDs {
		n := res.Nodes[id]
		u := "-"
		if n.HasVoltageBase {
			u = util.FormatVoltage(n.VKV)
		}
		fmt.Fprintf(out, "%-12s  %8.5f  %s  %s\n", id, n.Vm, util.FormatAngle(n.VaDeg), u)
	}

	branchIDs := make([]string, 0, len(res.Branches))
	for id := range res.Branches {
		branchIDs = append(branchIDs, id)
	}
	sort.Strings(branchIDs)

	fmt.Fprintln(out, "\nBranch        I from        S from            Loading")
	for _, id := range branchIDs {
		b := res.Branches[id]
		fmt.Fprintf(out, "%-12s  %s  %s  %6.1f %%\n",
			id, util.FormatCurrent(b.IFromKA), util.FormatPower(real(b.SFromMVA)), b.LoadingPercent)
	}

	fmt.Fprintf(out, "\nSlack power: %.4f MW  %.4f MVAr\n",
		real(res.SlackPowerMVA), imag(res.SlackPowerMVA))
	fmt.Fprintf(out, "Total losses: %.4f MW  %.4f MVAr\n",
		real(res.TotalLossMVA), imag(res.TotalLossMVA))
	if res.BranchFlowNote != "" {
		fmt.Fprintln(out, res.BranchFlowNote)
	}
	if len(res.NotSolvedNodes) > 0 {
		fmt.Fprintf(out, "Not solved (outside slack island): %v\n", res.NotSolvedNodes)
	}
	if len(res.MissingVoltageBaseNodes) > 0 {
		fmt.Fprintf(out, "No voltage base: %v\n", res.MissingVoltageBaseNodes)
	}
	for _, sw := range res.PVToPQSwitches {
		fmt.Fprintf(out, "PV bus %s switched to PQ at %.1f MVAr (iteration %d)\n",
			sw.NodeID, sw.QLimitMVAR, sw.Iteration)
	}
}
