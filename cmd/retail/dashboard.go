package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/dashboard"
	apperrors "github.com/adarshms444/Agentic-AI-Retail-Analytics-System/errors"
)

var (
	dashYears      []string
	dashSubRegions []string
	dashCategories []string
	dashOptions    bool
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show headline sales KPIs",
	Long: `Show total sales, profit, margin and customers with breakdowns by category
and sub-region. Filters may be repeated or comma-separated; none means all.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		useConsoleLogging()
		ctx := cmd.Context()
		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(a)

		out := cmd.OutOrStdout()
		if dashOptions {
			opts, err := a.Dashboard.Options(ctx)
			if err != nil {
				return err
			}
			printOptions(out, opts)
			return nil
		}

		sum, err := a.Dashboard.Summary(ctx, dashboard.Filters{
			Years:      dashYears,
			SubRegions: dashSubRegions,
			Categories: dashCategories,
		})
		if errors.Is(err, apperrors.ErrNoData) {
			fmt.Fprintln(out, dashboard.NoDataMessage)
			return nil
		}
		if err != nil {
			return err
		}
		printSummary(out, sum)
		return nil
	},
}

func init() {
	dashboardCmd.Flags().StringSliceVar(&dashYears, "year", nil, "years to include")
	dashboardCmd.Flags().StringSliceVar(&dashSubRegions, "sub-region", nil, "sub-regions to include")
	dashboardCmd.Flags().StringSliceVar(&dashCategories, "category", nil, "categories to include")
	dashboardCmd.Flags().BoolVar(&dashOptions, "filters", false, "list the available filter values")
}

func printSummary(w io.Writer, sum *dashboard.Summary) {
	fmt.Fprintln(w, titleStyle.Render("GadgetHub Sales Dashboard"))
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total Sales", dashboard.FormatINR(sum.TotalSales)),
		card("Total Profit", dashboard.FormatINR(sum.TotalProfit)),
		card("Profit Margin", dashboard.FormatPercent(sum.ProfitMargin)),
		card("Total Customers", dashboard.FormatCount(sum.TotalCustomers)),
	))
	printBreakdown(w, "Category", sum.SalesByCategory)
	printBreakdown(w, "Sub-Region", sum.SalesBySubRegion)
}

func printBreakdown(w io.Writer, name string, slices []dashboard.Slice) {
	if len(slices) == 0 {
		return
	}
	fmt.Fprintln(w)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{name, "Sales"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, s := range slices {
		table.Append([]string{s.Name, dashboard.FormatINR(s.Value)})
	}
	table.Render()
}

func printOptions(w io.Writer, opts *dashboard.Options) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Filter", "Values"})
	table.SetAutoWrapText(true)
	table.Append([]string{"year", joinValues(opts.Years)})
	table.Append([]string{"sub-region", joinValues(opts.SubRegions)})
	table.Append([]string{"category", joinValues(opts.Categories)})
	table.Render()
}

func joinValues(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
