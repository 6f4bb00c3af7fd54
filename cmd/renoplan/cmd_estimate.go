package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"renoplan/internal/estimate"
)

var (
	estimateRoom  string
	estimateScope string
	estimateSqFt  int
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Rule-of-thumb renovation cost and timeline",
}

var estimateCostCmd = &cobra.Command{
	Use:   "cost",
	Short: "Estimate the cost of renovating a room",
	Long: `Uses 2024 per-square-foot ranges for kitchen, bathroom, bedroom and
living_room at cosmetic, moderate, full or luxury scope.

Example:
  renoplan estimate cost --room kitchen --scope full --sqft 150`,
	RunE: runEstimateCost,
}

var estimateTimelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Typical duration for a renovation scope",
	RunE:  runEstimateTimeline,
}

func init() {
	estimateCostCmd.Flags().StringVar(&estimateRoom, "room", estimate.RoomKitchen, "Room type")
	estimateCostCmd.Flags().StringVar(&estimateScope, "scope", estimate.ScopeModerate, "cosmetic, moderate, full or luxury")
	estimateCostCmd.Flags().IntVar(&estimateSqFt, "sqft", 0, "Room size in square feet")
	estimateTimelineCmd.Flags().StringVar(&estimateScope, "scope", estimate.ScopeModerate, "cosmetic, moderate, full or luxury")

	estimateCmd.AddCommand(estimateCostCmd)
	estimateCmd.AddCommand(estimateTimelineCmd)
}

func runEstimateCost(cmd *cobra.Command, args []string) error {
	if estimateSqFt <= 0 {
		return fmt.Errorf("--sqft must be positive")
	}
	e := estimate.Cost(estimateRoom, estimateScope, estimateSqFt)
	fmt.Fprintln(cmd.OutOrStdout(), e.String())
	fmt.Fprintln(cmd.OutOrStdout(), estimate.TimelineText(e.Scope))
	return nil
}

func runEstimateTimeline(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(cmd.OutOrStdout(), estimate.TimelineText(estimateScope))
	return nil
}
